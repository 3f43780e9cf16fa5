// Package tcp implements the benchmark transport over TCP.
//
// On Linux every accepted connection is wrapped in a Socket that drives the raw
// file descriptor directly: send(2) for the per-segment strategy, sendmsg(2)
// over a prebuilt iovec list for the gathering strategies and recvmsg(2) with
// MSG_ERRQUEUE for zero-copy completion notifications. The descriptor is put
// into blocking mode so that sends behave like ordinary blocking socket calls.
// Other platforms can dial but cannot serve benchmark connections.
package tcp
