package server

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("server")

// BenchServer accepts benchmark connections and runs one worker per connection
type BenchServer struct {
	config    common.ServerConfig
	transport transport.IBenchServerTransport
	strategy  strategy.IStrategy
	shutdown  *common.Shutdown

	// live connections by id
	sessions *xsync.MapOf[uint64, transport.Connection]
	workers  sync.WaitGroup
	nextCPU  atomic.Int64

	metrics *serverMetrics
}

// NewBenchServer creates a server for config. The strategy named in the
// configuration is created here; its retry loops observe shutdown.
func NewBenchServer(config common.ServerConfig, t transport.IBenchServerTransport, shutdown *common.Shutdown) (*BenchServer, error) {
	kind, err := strategy.Parse(config.Strategy)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(kind, strategy.Options{
		DrainThreshold: config.ZeroCopy.DrainThreshold,
		DrainRetries:   config.ZeroCopy.DrainRetries,
		DrainInterval:  config.ZeroCopy.DrainInterval,
		ENOBUFSBackoff: config.ZeroCopy.ENOBUFSBackoff,
		ConfirmedOnly:  config.ZeroCopy.ConfirmedOnly,
		Stopped:        shutdown.Stopped,
	})
	if err != nil {
		return nil, err
	}

	s := &BenchServer{
		config:    config,
		transport: t,
		strategy:  strat,
		shutdown:  shutdown,
		sessions:  xsync.NewMapOf[uint64, transport.Connection](),
	}
	s.metrics = newServerMetrics(string(kind), func() float64 {
		return float64(s.ActiveConnections())
	})
	return s, nil
}

// --------------------------------------------------------------------------
// Public API
// --------------------------------------------------------------------------

// Serve listens for connections until the server is stopped and returns after
// every connection worker terminated
func (s *BenchServer) Serve() error {
	Logger.Infof("Starting benchmark server with config:\n%s", s.config.String())

	cancelSignals := s.shutdown.NotifyOnSignal()
	defer cancelSignals()

	s.transport.RegisterHandler(s.handleConnection)
	if err := s.transport.Listen(s.config); err != nil {
		return err
	}

	metricsServer, err := s.startMetrics()
	if err != nil {
		_ = s.transport.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.transport.Serve()
	}()

	var serveErr error
	select {
	case <-s.shutdown.Done():
		Logger.Infof("Shutdown requested, closing listener")
		_ = s.transport.Close()
		serveErr = <-errCh
	case serveErr = <-errCh:
		// the accept loop ended on its own, take the workers down with it
		s.shutdown.Stop()
	}

	s.awaitWorkers()

	if metricsServer != nil {
		_ = metricsServer.Close()
	}
	Logger.Infof("Server stopped")
	return serveErr
}

// Stop sets the stop flag. Serve returns once all workers terminated.
func (s *BenchServer) Stop() {
	s.shutdown.Stop()
}

// ActiveConnections returns the number of connections with a running worker
func (s *BenchServer) ActiveConnections() int {
	return s.sessions.Size()
}

// WriteMetrics writes the server metrics in Prometheus text format
func (s *BenchServer) WriteMetrics(w io.Writer) {
	s.metrics.writePrometheus(w)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection is called from the accept loop and starts the worker for conn
func (s *BenchServer) handleConnection(conn transport.Connection) {
	if s.shutdown.Stopped() {
		_ = conn.Close()
		return
	}

	w := &connectionWorker{
		conn:          conn,
		strategy:      s.strategy,
		shutdown:      s.shutdown,
		messageSize:   s.config.MessageSize,
		confirmedOnly: s.config.ZeroCopy.ConfirmedOnly,
		pinCPU:        -1,
	}
	if s.config.PinCPUs {
		w.pinCPU = int(s.nextCPU.Add(1) - 1)
	}

	s.sessions.Store(conn.ID(), conn)
	s.metrics.connectionOpened()
	s.workers.Add(1)

	go func() {
		defer s.workers.Done()

		res := w.run()

		s.sessions.Delete(conn.ID())
		if err := conn.Close(); err != nil {
			Logger.Debugf("Connection %d: close failed: %v", res.ID, err)
		}
		s.metrics.observe(res)
		logResult(res, conn.RemoteAddr())
	}()
}

// awaitWorkers waits for all workers. Workers still running after the grace
// period get their sockets shut down so blocked sends return.
func (s *BenchServer) awaitWorkers() {
	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(s.config.ShutdownGrace):
	}

	s.sessions.Range(func(id uint64, conn transport.Connection) bool {
		Logger.Warningf("Connection %d still busy after %s, shutting down socket", id, s.config.ShutdownGrace)
		if err := conn.Shutdown(); err != nil {
			Logger.Errorf("Connection %d: shutdown failed: %v", id, err)
		}
		return true
	})
	<-done
}

// startMetrics serves the metrics endpoint if one is configured
func (s *BenchServer) startMetrics() (*http.Server, error) {
	if s.config.MetricsEndpoint == "" {
		return nil, nil
	}

	listener, err := net.Listen("tcp", s.config.MetricsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics endpoint: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.handler())
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()

	Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
	return srv, nil
}

func logResult(res ConnectionResult, remote net.Addr) {
	seconds := float64(res.ElapsedMicros) / 1e6
	switch res.Outcome {
	case StateFatal:
		Logger.Errorf("Connection %d from %s failed: %v", res.ID, remote, res.Err)
	case StateStopped:
		Logger.Infof("Connection %d from %s stopped", res.ID, remote)
	default:
		Logger.Infof("Connection %d from %s disconnected", res.ID, remote)
	}
	Logger.Infof("Connection %d: sent %d msgs (%d bytes) in %.2f s (%.4f Gbps)",
		res.ID, res.MessagesCompleted, res.BytesTransferred, seconds, res.ThroughputGbps())
}
