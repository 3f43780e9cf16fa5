package base

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"net"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// clientTransport implements the dialer independent of the medium
type clientTransport struct {
	connector IClientConnector
}

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IBenchClientTransport {
	return &clientTransport{connector: connector}
}

func (t *clientTransport) Dial(config common.ClientConfig) (net.Conn, error) {
	endpoint := config.Endpoint()
	conn, err := t.connector.Connect(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s via %s: %w", endpoint, t.connector.GetName(), err)
	}

	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to configure connection to %s: %w", endpoint, err)
	}

	Logger.Debugf("Connected to %s from %s", endpoint, conn.LocalAddr())
	return conn, nil
}
