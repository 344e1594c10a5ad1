package client

import (
	"log"
	"sync"

	"github.com/oklog/run"
)

// RunGroup runs a set of Power Mon clients as one unit: all clients in
// the group start together, any client returning an error stops the
// whole group, and Stop stops every client. The server uses one group
// for all configured clients so they shut down before the NATS server
// does.
type RunGroup struct {
	name     string
	stop     chan struct{}
	stopOnce sync.Once
	group    run.Group
}

// NewRunGroup creates an empty named group. The name only shows up in
// logs.
func NewRunGroup(name string) *RunGroup {
	return &RunGroup{name: name, stop: make(chan struct{})}
}

// Add a client to the group. Clients must be added before Run is
// called.
func (g *RunGroup) Add(client RunStop) {
	g.group.Add(client.Run, client.Stop)
}

// Run all clients in the group and block until one of them returns an
// error or the group is stopped
func (g *RunGroup) Run() error {
	log.Printf("Starting client group: %v\n", g.name)

	g.group.Add(func() error {
		<-g.stop
		return nil
	}, func(_ error) {
		g.Stop(nil)
	})

	err := g.group.Run()

	log.Printf("Client group stopped: %v\n", g.name)

	return err
}

// Stop all clients in the group. Safe to call more than once.
func (g *RunGroup) Stop(_ error) {
	g.stopOnce.Do(func() { close(g.stop) })
}
