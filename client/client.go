package client

// RunStop is an interface that has Run and Stop methods. Clients and the
// server implement this so they can be composed into groups.
// Run should block until Stop is called.
// Run MUST return when Stop is called.
// Stop does not block -- wait until Run returns if you need to know the
// client is stopped.
type RunStop interface {
	Run() error
	Stop(error)
}
