package client

import (
	"log"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/nats-io/nats.go"
)

// EdgeOptions describes options for connecting edge processes (signal
// publishers, log watchers) to the Power Mon NATS server
type EdgeOptions struct {
	URI          string
	AuthToken    string
	NoEcho       bool
	Disconnected func()
	Reconnected  func()
	Closed       func()
}

// ExpBackoff calculates an exponential time backoff to max duration + a
// random fraction of 1s
func ExpBackoff(attempts int, max time.Duration) time.Duration {
	delay := time.Duration(math.Exp2(float64(attempts))) * time.Second
	if delay > max {
		delay = max
	}
	// randomize a bit
	delay = delay + time.Duration(rand.Float32()*1000)*time.Millisecond
	return delay
}

// EdgeConnect attempts connections for edge processes with appropriate
// timeouts and backoff. Reconnect attempts back off exponentially to 6m
// and never give up.
func EdgeConnect(eo EdgeOptions) (*nats.Conn, error) {
	authEnabled := "no"
	if eo.AuthToken != "" {
		authEnabled = "yes"
	}

	options := func(o *nats.Options) error {
		nats.Timeout(30 * time.Second)(o)
		nats.DrainTimeout(30 * time.Second)(o)
		nats.PingInterval(2 * time.Minute)(o)
		nats.MaxPingsOutstanding(3)(o)
		nats.RetryOnFailedConnect(true)(o)
		nats.ReconnectBufSize(128 * 1024)(o)
		nats.ReconnectWait(10 * time.Second)(o)
		nats.MaxReconnects(-1)(o)
		nats.SetCustomDialer(&net.Dialer{
			KeepAlive: -1,
		})(o)
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			delay := ExpBackoff(attempts, 6*time.Minute)
			log.Printf("NATS reconnect attempts: %v, delay: %v", attempts, delay)
			return delay
		})(o)
		nats.Token(eo.AuthToken)(o)

		if eo.NoEcho {
			o.NoEcho = true
		}

		return nil
	}

	log.Printf("NATS edge connect to: %v, auth enabled: %v", eo.URI, authEnabled)
	nc, err := nats.Connect(eo.URI, options)

	if err != nil {
		return nil, err
	}

	nc.SetErrorHandler(func(_ *nats.Conn, sub *nats.Subscription,
		err error) {
		var subject string
		if sub != nil {
			subject = sub.Subject
		}
		log.Printf("NATS Error, sub: %v, err: %s\n", subject, err)
	})

	if eo.Reconnected != nil {
		nc.SetReconnectHandler(func(_ *nats.Conn) {
			eo.Reconnected()
		})
	}

	if eo.Disconnected != nil {
		nc.SetDisconnectHandler(func(_ *nats.Conn) {
			eo.Disconnected()
		})
	}

	if eo.Closed != nil {
		nc.SetClosedHandler(func(_ *nats.Conn) {
			eo.Closed()
		})
	}

	return nc, nil
}
