// Package strategy implements the three send strategies compared by the benchmark
// and the completion tracking required by the zero-copy variant.
//
// All strategies transmit the same 8-segment message.Buffer over a connected
// stream socket. They differ in the number of system calls per message and in
// how long the kernel may keep referencing the segment memory:
//
//   - TwoCopy: one send(2) per segment, each retried until the segment is fully
//     written. The buffer is free for reuse as soon as SendMessage returns.
//
//   - OneCopy: a single gathering sendmsg(2) per message over an iovec list that
//     is built once per connection. A short write counts its bytes but not the
//     message (no resumption of the remainder).
//
//   - ZeroCopy: the same gathering send with MSG_ZEROCOPY on a socket with
//     SO_ZEROCOPY enabled. The kernel pins the segment pages instead of copying
//     them and reports completion asynchronously on the socket error queue. The
//     buffer must not be released before the CompletionTracker has seen every
//     completion, which is why the zero-copy sender implements Releaser.
//
// Key Components:
//
//   - Socket: the kernel boundary a strategy drives. The Linux implementation
//     lives in the tcp transport package; strategytest provides a scriptable fake.
//
//   - IStrategy / Sender / Releaser: a strategy is selected once at startup and
//     creates one Sender per connection. SendMessage transmits one logical message;
//     Release is the optional buffer release hook.
//
//   - CompletionTracker: the in-flight counter for zero-copy sends. It is owned
//     by exactly one sender and therefore needs no synchronisation.
//
// Error Handling:
//
//	Send failures are classified into ConnectionClosed (normal end of stream),
//	Interrupted (retried immediately), ResourceExhausted (zero-copy only, retried
//	after a drain and a short backoff) and Fatal (stops the connection).
package strategy
