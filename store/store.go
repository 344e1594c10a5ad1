/*
Package store implements the signal store: a cache of the latest raw value
of every signal published on the bus. It serves on-demand reads both as an
in-process method and over NATS request/reply, so power average clients
can run in the same process or in a different one.
*/
package store

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/client"
	"github.com/powermon/powermon/data"
)

// Params are used when creating a new store
type Params struct {
	Nc *nats.Conn
}

// Store caches the latest value per signal
type Store struct {
	params Params
	stop   chan struct{}

	// values is written from NATS callback goroutines and read from
	// clients, so it needs the lock
	lock   sync.Mutex
	values map[string]string
}

// NewStore creates a new signal store
func NewStore(p Params) *Store {
	return &Store{
		params: p,
		stop:   make(chan struct{}),
		values: make(map[string]string),
	}
}

// Run the store and block until Stop is called
func (s *Store) Run() error {
	log.Println("Starting signal store")

	subValues, err := s.params.Nc.Subscribe(client.SubjectAllSignals(),
		func(msg *nats.Msg) {
			id := strings.TrimPrefix(msg.Subject, "sig.")
			s.set(id, string(msg.Data))
		})
	if err != nil {
		return fmt.Errorf("error subscribing to signals: %v", err)
	}
	defer subValues.Unsubscribe()

	subReads, err := s.params.Nc.Subscribe(client.SubjectAllSignalReads(),
		func(msg *nats.Msg) {
			id := strings.TrimPrefix(msg.Subject, "sigread.")
			value, err := s.ReadSignal(id)
			if err != nil {
				// empty reply means signal not bound
				value = ""
			}

			err = msg.Respond([]byte(value))
			if err != nil {
				log.Println("store: error responding to read:", err)
			}
		})
	if err != nil {
		return fmt.Errorf("error subscribing to signal reads: %v", err)
	}
	defer subReads.Unsubscribe()

	<-s.stop
	log.Println("Stopping signal store")

	return nil
}

// Stop sends a signal to the Run function to exit
func (s *Store) Stop(_ error) {
	close(s.stop)
}

func (s *Store) set(id, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[id] = value
}

// ReadSignal returns the latest value published for a signal. The value
// may be the unavailable sentinel; data.ErrSignalNotFound is returned for
// a signal that has never published. Store implements client.SignalReader
// so in-process clients can read through it directly.
func (s *Store) ReadSignal(id string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	value, ok := s.values[id]
	if !ok {
		return "", data.ErrSignalNotFound
	}

	return value, nil
}
