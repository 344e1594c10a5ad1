package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

var testServerOptions = Options{
	NatsPort:   4990,
	NatsServer: "nats://localhost:4990",
}

// TestServer starts a test server and returns a function to stop it.
// No clients are configured; tests add their own.
func TestServer() (*Server, *nats.Conn, func(), error) {
	s, nc, err := NewServer(testServerOptions)

	if err != nil {
		return nil, nil, nil, fmt.Errorf("Error starting test server: %v", err)
	}

	stopped := make(chan struct{})

	go func() {
		err := s.Run()
		if err != nil {
			log.Println("Test server run returned: ", err)
		}
		close(stopped)
	}()

	stop := func() {
		s.Stop(nil)
		<-stopped
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	err = s.WaitStart(ctx)
	cancel()
	if err != nil {
		return nil, nil, stop, fmt.Errorf("Error waiting for test server to start: %v", err)
	}

	return s, nc, stop, nil
}
