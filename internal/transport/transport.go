// Package transport provides the message-oriented duplex connection the
// client uses to receive push updates from the backend.
package transport

// Handler receives connection events. Callbacks may arrive on any goroutine.
// OnClose is delivered at most once, and nothing is delivered after it.
// Callbacks must not call Close on the Transport that invoked them.
type Handler interface {
	OnOpen()
	OnMessage(data []byte)
	// OnClose reports that the connection failed to open or went away.
	// err is nil for a clean close initiated by the peer.
	OnClose(err error)
}

// Transport is a single connection attempt and, if it succeeds, the live
// connection. It is not reusable: a new attempt needs a new Transport.
type Transport interface {
	Send(data []byte) error
	// Close detaches the handler and releases the connection. No callbacks
	// are delivered after Close returns. Safe to call more than once.
	Close() error
}

// Opener starts a connection attempt to url that reports into h.
// It must not block on network I/O.
type Opener func(url string, h Handler) Transport
