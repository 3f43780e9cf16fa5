package server

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net/http"
)

// serverMetrics holds the per-strategy counters of the server
type serverMetrics struct {
	set *metrics.Set

	connections    *metrics.Counter
	closed         *metrics.Counter
	fatal          *metrics.Counter
	stopped        *metrics.Counter
	bytes          *metrics.Counter
	messages       *metrics.Counter
	drainWarnings  *metrics.Counter
	inFlight       *metrics.Counter
	connectionGbps *metrics.Histogram
}

func newServerMetrics(strategyName string, active func() float64) *serverMetrics {
	set := metrics.NewSet()
	name := func(metric string) string {
		return fmt.Sprintf(`xferbench_%s{strategy=%q}`, metric, strategyName)
	}

	m := &serverMetrics{
		set:            set,
		connections:    set.NewCounter(name("connections_total")),
		closed:         set.NewCounter(name("connections_closed_total")),
		fatal:          set.NewCounter(name("connections_failed_total")),
		stopped:        set.NewCounter(name("connections_stopped_total")),
		bytes:          set.NewCounter(name("bytes_sent_total")),
		messages:       set.NewCounter(name("messages_sent_total")),
		drainWarnings:  set.NewCounter(name("drain_warnings_total")),
		inFlight:       set.NewCounter(name("inflight_at_release_total")),
		connectionGbps: set.NewHistogram(name("connection_throughput_gbps")),
	}
	set.NewGauge(name("active_connections"), active)
	return m
}

// connectionOpened counts an accepted connection
func (m *serverMetrics) connectionOpened() {
	m.connections.Inc()
}

// observe records the summary of a terminated connection
func (m *serverMetrics) observe(res ConnectionResult) {
	switch res.Outcome {
	case StateConnectionClosed:
		m.closed.Inc()
	case StateStopped:
		m.stopped.Inc()
	default:
		m.fatal.Inc()
	}

	m.bytes.Add(int(res.BytesTransferred))
	m.messages.Add(int(res.MessagesCompleted))
	if res.InFlightAtRelease > 0 {
		m.drainWarnings.Inc()
		m.inFlight.Add(int(res.InFlightAtRelease))
	}
	if res.ElapsedMicros > 0 {
		m.connectionGbps.Update(res.ThroughputGbps())
	}
}

// writePrometheus writes all metrics in Prometheus text format
func (m *serverMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// handler returns the HTTP handler of the metrics endpoint
func (m *serverMetrics) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.writePrometheus(w)
	})
}
