package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

// The zero-copy defaults match the values the benchmark was calibrated with
const (
	DefaultDrainThreshold  = 256
	DefaultDrainRetries    = 1000
	DefaultDrainInterval   = time.Millisecond
	DefaultENOBUFSBackoff  = 100 * time.Microsecond
	DefaultShutdownGrace   = 2 * time.Second
	DefaultBindAddress     = "0.0.0.0"
	DefaultPort            = 9090
	DefaultDurationSeconds = 10
)

// --------------------------------------------------------------------------
// Socket configuration (shared)
// --------------------------------------------------------------------------

// SocketConf holds the socket options applied to every benchmark connection
type SocketConf struct {
	// TCPNoDelay disables Nagle's algorithm
	TCPNoDelay bool
	// WriteBufferSize is SO_SNDBUF in bytes (0 = kernel default)
	WriteBufferSize int
	// ReadBufferSize is SO_RCVBUF in bytes (0 = kernel default)
	ReadBufferSize int
}

// --------------------------------------------------------------------------
// Server configuration
// --------------------------------------------------------------------------

// ZeroCopyConf holds the tuning parameters of the zero-copy strategy
type ZeroCopyConf struct {
	// DrainThreshold is the in-flight count at which completions are drained opportunistically
	DrainThreshold int
	// DrainRetries bounds the number of drain attempts during shutdown
	DrainRetries int
	// DrainInterval is the sleep between two shutdown drain attempts
	DrainInterval time.Duration
	// ENOBUFSBackoff is the sleep after the kernel rejected a send with ENOBUFS
	ENOBUFSBackoff time.Duration
	// ConfirmedOnly counts a message only after its completion has been observed
	ConfirmedOnly bool
}

// ServerConfig holds all configuration parameters of the benchmark server
type ServerConfig struct {
	// Strategy is the name of the send strategy (two-copy, one-copy, zero-copy)
	Strategy string

	// Listen address
	BindAddress string
	Port        int

	// MessageSize is the total size of one message in bytes
	MessageSize int

	Socket   SocketConf
	ZeroCopy ZeroCopyConf

	// ShutdownGrace is how long to wait for workers before their sockets are forced shut
	ShutdownGrace time.Duration

	// PinCPUs pins each connection worker to a CPU
	PinCPUs bool

	// MetricsEndpoint is the address of the Prometheus endpoint (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// NewServerConfig returns a server configuration with all defaults applied
func NewServerConfig() ServerConfig {
	return ServerConfig{
		Strategy:    "two-copy",
		BindAddress: DefaultBindAddress,
		Port:        DefaultPort,
		Socket: SocketConf{
			TCPNoDelay: true,
		},
		ZeroCopy: ZeroCopyConf{
			DrainThreshold: DefaultDrainThreshold,
			DrainRetries:   DefaultDrainRetries,
			DrainInterval:  DefaultDrainInterval,
			ENOBUFSBackoff: DefaultENOBUFSBackoff,
		},
		ShutdownGrace: DefaultShutdownGrace,
		LogLevel:      "info",
	}
}

// Endpoint returns the host:port the server listens on
func (c *ServerConfig) Endpoint() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.MessageSize <= 0 {
		return fmt.Errorf("message size must be > 0 (got %d)", c.MessageSize)
	}
	if c.ZeroCopy.DrainThreshold <= 0 {
		return fmt.Errorf("drain threshold must be > 0 (got %d)", c.ZeroCopy.DrainThreshold)
	}
	if c.ZeroCopy.DrainRetries < 0 {
		return fmt.Errorf("drain retries must be >= 0 (got %d)", c.ZeroCopy.DrainRetries)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Benchmark Server")
	addField("Endpoint", c.Endpoint())
	addField("Strategy", c.Strategy)
	addField("Message Size", fmt.Sprintf("%d bytes", c.MessageSize))
	addField("Pin CPUs", strconv.FormatBool(c.PinCPUs))
	addField("Shutdown Grace", c.ShutdownGrace.String())

	addSection("Socket")
	addField("TCP NoDelay", strconv.FormatBool(c.Socket.TCPNoDelay))
	addField("Write Buffer", bufferSizeString(c.Socket.WriteBufferSize))

	if c.Strategy == "zero-copy" {
		addSection("Zero-Copy")
		addField("Drain Threshold", strconv.Itoa(c.ZeroCopy.DrainThreshold))
		addField("Drain Retries", strconv.Itoa(c.ZeroCopy.DrainRetries))
		addField("Drain Interval", c.ZeroCopy.DrainInterval.String())
		addField("ENOBUFS Backoff", c.ZeroCopy.ENOBUFSBackoff.String())
		addField("Accounting", accountingString(c.ZeroCopy.ConfirmedOnly))
	}

	addSection("Observability")
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters of the benchmark client
type ClientConfig struct {
	// Server address
	Address string
	Port    int

	// MessageSize is the expected total size of one message in bytes
	MessageSize int

	// Threads is the number of receive workers, each with its own connection
	Threads int

	// Duration is how long every worker keeps receiving
	Duration time.Duration

	Socket SocketConf

	// ProgressInterval is the period of the progress line (0 = disabled)
	ProgressInterval time.Duration

	// PinCPUs pins each receive worker to a CPU
	PinCPUs bool

	// Logging configuration
	LogLevel string
}

// NewClientConfig returns a client configuration with all defaults applied
func NewClientConfig() ClientConfig {
	return ClientConfig{
		Port:     DefaultPort,
		Threads:  1,
		Duration: DefaultDurationSeconds * time.Second,
		Socket: SocketConf{
			TCPNoDelay: true,
		},
		LogLevel: "info",
	}
}

// Endpoint returns the host:port of the server
func (c *ClientConfig) Endpoint() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values the client cannot run with
func (c *ClientConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.MessageSize <= 0 {
		return fmt.Errorf("message size must be > 0 (got %d)", c.MessageSize)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("thread count must be > 0 (got %d)", c.Threads)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be > 0 (got %s)", c.Duration)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Benchmark Client")
	addField("Server", c.Endpoint())
	addField("Message Size", fmt.Sprintf("%d bytes", c.MessageSize))
	addField("Threads", strconv.Itoa(c.Threads))
	addField("Duration", c.Duration.String())
	addField("Pin CPUs", strconv.FormatBool(c.PinCPUs))

	addSection("Socket")
	addField("TCP NoDelay", strconv.FormatBool(c.Socket.TCPNoDelay))
	addField("Read Buffer", bufferSizeString(c.Socket.ReadBufferSize))

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}

func bufferSizeString(size int) string {
	if size <= 0 {
		return "kernel default"
	}
	return fmt.Sprintf("%d KB", size/1024)
}

func accountingString(confirmedOnly bool) string {
	if confirmedOnly {
		return "confirmed-only"
	}
	return "optimistic"
}
