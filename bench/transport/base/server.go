package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/bench")

// acceptBackoff is the pause after a failed Accept (e.g. EMFILE)
const acceptBackoff = 10 * time.Millisecond

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "tcp")
	GetName() string

	// UpgradeConnection applies the socket options and wraps the accepted connection
	UpgradeConnection(conn net.Conn, id uint64, config common.ServerConfig) (transport.Connection, error)
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the accept loop independent of the medium
type serverTransport struct {
	connector IServerConnector
	handler   transport.ConnectionHandleFunc
	config    common.ServerConfig

	mu       sync.Mutex
	listener net.Listener

	nextConnID atomic.Uint64
	closed     atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IBenchServerTransport {
	return &serverTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IBenchServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ConnectionHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	t.mu.Lock()
	t.listener = listener
	t.mu.Unlock()

	Logger.Infof("Listening on %s (%s)", listener.Addr(), t.connector.GetName())
	return nil
}

func (t *serverTransport) Serve() error {
	listener := t.getListener()
	if listener == nil {
		return fmt.Errorf("serve called before listen")
	}
	if t.handler == nil {
		return fmt.Errorf("no connection handler registered")
	}

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				Logger.Infof("Accept loop stopped")
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		id := t.nextConnID.Add(1)
		c, err := t.connector.UpgradeConnection(conn, id, t.config)
		if err != nil {
			Logger.Errorf("Failed to set up connection %d from %s: %v", id, conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		Logger.Infof("Accepted connection %d from %s", id, conn.RemoteAddr())
		t.handler(c)
	}
}

func (t *serverTransport) Addr() net.Addr {
	listener := t.getListener()
	if listener == nil {
		return nil
	}
	return listener.Addr()
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	listener := t.getListener()
	if listener == nil {
		return nil
	}
	return listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) getListener() net.Listener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener
}
