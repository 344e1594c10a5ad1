package client

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/data"
)

// SignalReader reads the current value of an external signal on demand.
// The returned value is the raw string the source last published, which
// may be the data.SignalUnavailable sentinel. data.ErrSignalNotFound is
// returned if the signal has no value at all.
type SignalReader interface {
	ReadSignal(id string) (string, error)
}

// SendSignal publishes a raw signal value using the nats protocol
func SendSignal(nc *nats.Conn, id, value string) error {
	return nc.Publish(SubjectSignal(id), []byte(value))
}

// SubscribeSignals subscribes to value updates for the given signals and
// executes a callback whenever any one of them changes. stop() can be
// called to clean up the subscriptions.
func SubscribeSignals(nc *nats.Conn, ids []string, callback func()) (stop func(), err error) {
	subs := make([]*nats.Subscription, 0, len(ids))

	stop = func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}

	for _, id := range ids {
		sub, err := nc.Subscribe(SubjectSignal(id), func(_ *nats.Msg) {
			callback()
		})
		if err != nil {
			stop()
			return nil, err
		}
		subs = append(subs, sub)
	}

	return stop, nil
}

// NatsSignalReader reads signal values over NATS using request/reply to
// the signal store. Use this when the store runs in another process;
// in-process callers can hand the store itself to clients instead.
type NatsSignalReader struct {
	nc      *nats.Conn
	timeout time.Duration
}

// NewNatsSignalReader creates a NATS backed signal reader
func NewNatsSignalReader(nc *nats.Conn) *NatsSignalReader {
	return &NatsSignalReader{nc: nc, timeout: time.Second}
}

// ReadSignal requests the latest value of a signal from the store. A
// missing responder or an empty reply both mean the signal is not bound.
func (nsr *NatsSignalReader) ReadSignal(id string) (string, error) {
	msg, err := nsr.nc.Request(SubjectSignalRead(id), nil, nsr.timeout)
	if err != nil {
		return "", data.ErrSignalNotFound
	}

	if len(msg.Data) == 0 {
		return "", data.ErrSignalNotFound
	}

	return string(msg.Data), nil
}
