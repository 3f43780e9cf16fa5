// Package transport defines how benchmark connections are accepted and dialed.
//
// The server side hands every accepted connection to a handler as a Connection,
// which is a strategy.Socket plus the lifecycle operations the server needs.
// The client side only dials plain net.Conn streams; the receiver does not need
// any kernel access beyond ordinary reads.
//
// The base package implements the medium-independent accept loop and dialer,
// the tcp package provides the TCP connectors and the Linux socket implementation.
package transport
