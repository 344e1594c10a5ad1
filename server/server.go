package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/oklog/run"

	"github.com/powermon/powermon/client"
	"github.com/powermon/powermon/store"
)

// ErrServerStopped is returned when the server is stopped
var ErrServerStopped = errors.New("Server stopped")

// Options used for starting Power Mon
type Options struct {
	NatsServer        string
	NatsDisableServer bool
	NatsPort          int
	NatsHTTPPort      int
	AuthToken         string
	ConfigFile        string
	AppVersion        string
	// optional ID (must be unique) for this instance, otherwise, a UUID
	// will be used
	ID string
}

// Server represents a Power Mon server process: the embedded NATS server,
// the signal store, and the configured clients.
type Server struct {
	nc          *nats.Conn
	options     Options
	natsServer  *server.Server
	store       *store.Store
	clients     *client.RunGroup
	chStop      chan struct{}
	chWaitStart chan struct{}
}

// NewServer creates a new server
func NewServer(o Options) (*Server, *nats.Conn, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	nc, err := nats.Connect(o.NatsServer,
		nats.Timeout(10*time.Second),
		nats.PingInterval(60*5*time.Second),
		nats.MaxPingsOutstanding(5),
		nats.SetCustomDialer(&net.Dialer{
			KeepAlive: -1,
		}),
		nats.Token(o.AuthToken),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ErrorHandler(func(_ *nats.Conn,
			sub *nats.Subscription, err error) {
			var subject string
			if sub != nil {
				subject = sub.Subject
			}
			log.Printf("Server NATS client error, sub: %v, err: %s\n", subject, err)
		}),
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			log.Println("Server NATS client reconnect attempt #", attempts)
			return time.Millisecond * 250
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("Server NATS client: reconnected")
		}),
		nats.ConnectHandler(func(_ *nats.Conn) {
			log.Println("Server NATS client: connected")
		}),
	)

	s := &Server{
		nc:          nc,
		options:     o,
		chStop:      make(chan struct{}),
		chWaitStart: make(chan struct{}),
		clients:     client.NewRunGroup("Server clients"),
	}

	s.store = store.NewStore(store.Params{Nc: nc})

	return s, nc, err
}

// SignalReader returns the in-process signal read port backed by the
// server's signal store
func (s *Server) SignalReader() client.SignalReader {
	return s.store
}

// AddClient can be used to add clients to the server.
// Clients must be added before Run is called. The server makes sure all
// clients are shut down before shutting down the NATS server, which makes
// for a cleaner shutdown.
func (s *Server) AddClient(c client.RunStop) {
	s.clients.Add(c)
}

// AddConfigClients constructs and adds the clients described by a config
func (s *Server) AddConfigClients(cfg Config) {
	for _, c := range cfg.PowerAverages {
		s.AddClient(client.NewPowerAverageClient(s.nc, s.store, c))
	}

	for _, c := range cfg.CompletedWindows {
		s.AddClient(client.NewCompletedWindowClient(s.nc, c))
	}

	for _, c := range cfg.Dbs {
		s.AddClient(client.NewDbClient(s.nc, c))
	}

	for _, c := range cfg.SignalGenerators {
		s.AddClient(client.NewSignalGeneratorClient(s.nc, c))
	}

	for _, c := range cfg.Metrics {
		s.AddClient(client.NewMetricsClient(s.nc, c))
	}
}

// Run the server -- only returns if there is an error or the server is
// stopped
func (s *Server) Run() error {
	var g run.Group

	o := s.options

	var err error

	if !o.NatsDisableServer {
		s.natsServer, err = newNatsServer(natsServerOptions{
			Port:     o.NatsPort,
			HTTPPort: o.NatsHTTPPort,
			Auth:     o.AuthToken,
		})
		if err != nil {
			return fmt.Errorf("Error setting up nats server: %v", err)
		}

		g.Add(func() error {
			s.natsServer.Start()
			s.natsServer.WaitForShutdown()
			return fmt.Errorf("NATS server stopped")
		}, func(err error) {
			s.natsServer.Shutdown()
		})
	}

	g.Add(s.store.Run, s.store.Stop)

	g.Add(s.clients.Run, s.clients.Stop)

	// give us a way to stop the server and signal to waiters we have
	// started
	chShutdown := make(chan struct{})
	g.Add(func() error {
		select {
		case <-s.chStop:
			return ErrServerStopped
		case <-chShutdown:
			return nil
		}
	}, func(_ error) {
		close(chShutdown)
	})

	chRunError := make(chan error)

	go func() {
		chRunError <- g.Run()
	}()

	var retErr error

done:
	for {
		select {
		// unblock any waits
		case <-s.chWaitStart:
			// No-op, reading channel is enough to unblock wait
		case retErr = <-chRunError:
			break done
		}
	}

	s.nc.Close()

	return retErr
}

// Stop server
func (s *Server) Stop(_ error) {
	close(s.chStop)
}

// WaitStart waits for the server main loop to start. Tests should wait
// for this to complete before sending signals.
func (s *Server) WaitStart(ctx context.Context) error {
	waitDone := make(chan struct{})

	go func() {
		s.chWaitStart <- struct{}{}
		close(waitDone)
	}()

	select {
	case <-ctx.Done():
		return errors.New("Server wait timeout or canceled")
	case <-waitDone:
		return nil
	}
}
