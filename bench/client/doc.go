// Package client implements the receiving side of the benchmark.
//
// Run starts one ReceiveWorker per configured thread. Each worker opens its own
// connection, reads until the deadline and reassembles the byte stream into
// fixed-size messages. The receive path does not know which send strategy the
// server uses. After all workers joined, Aggregate combines their results and
// PrintReport writes the per-thread lines and the aggregate block that the
// orchestration scripts parse.
package client
