// Package server implements the benchmark server.
//
// A BenchServer accepts connections through a transport and runs one
// connection worker per connection. Every worker allocates its own message
// buffer, sends it repeatedly with the configured strategy until the peer goes
// away, a fatal error occurs or the process-wide stop flag is observed, and then
// runs the strategy's release sequence before the buffer is dropped.
//
// Shutdown:
//
//	SIGINT/SIGTERM (or Stop) sets the stop flag and closes the listener. Workers
//	observe the flag once per message. Workers still blocked in a send after the
//	shutdown grace period have their sockets shut down, which makes the send
//	return. The live connections are tracked in an xsync.MapOf registry for this.
//
// Metrics:
//
//	Per-strategy counters are kept in a VictoriaMetrics set and, if configured,
//	served in Prometheus text format on the metrics endpoint.
package server
