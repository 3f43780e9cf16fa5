package transport

import (
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"net"
)

// Connection is one accepted benchmark connection
type Connection interface {
	strategy.Socket

	// ID returns the process-unique connection number (starting at 1)
	ID() uint64

	// RemoteAddr returns the address of the peer
	RemoteAddr() net.Addr

	// Shutdown shuts down both directions of the stream. A send blocked in
	// another goroutine returns with an error afterwards.
	Shutdown() error

	// Close releases the socket
	Close() error
}

// ConnectionHandleFunc is called from the accept loop for every accepted
// connection. It must not block: long running work belongs in its own goroutine.
type ConnectionHandleFunc func(conn Connection)

// IBenchServerTransport accepts benchmark connections
type IBenchServerTransport interface {
	// RegisterHandler sets the handler for accepted connections
	RegisterHandler(handler ConnectionHandleFunc)

	// Listen binds the listening socket
	Listen(config common.ServerConfig) error

	// Serve runs the accept loop until Close is called. When Serve returns no
	// further handler invocation will happen.
	Serve() error

	// Addr returns the bound address (nil before Listen)
	Addr() net.Addr

	// Close stops the accept loop and closes the listening socket
	Close() error
}

// IBenchClientTransport dials benchmark connections
type IBenchClientTransport interface {
	// Dial establishes one connection to the server and applies the socket options
	Dial(config common.ClientConfig) (net.Conn, error)
}
