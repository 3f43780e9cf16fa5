// Package base implements the medium-independent parts of the benchmark
// transports. A medium (tcp) only provides a connector that creates the
// listener or the outgoing connection and applies its socket options.
package base
