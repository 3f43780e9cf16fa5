package strategy

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/lib/message"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
	"time"
)

var Logger = logger.GetLogger("strategy")

// --------------------------------------------------------------------------
// Strategy selection
// --------------------------------------------------------------------------

// Kind identifies a send strategy
type Kind string

const (
	KindTwoCopy  Kind = "two-copy"
	KindOneCopy  Kind = "one-copy"
	KindZeroCopy Kind = "zero-copy"
)

// Kinds lists all supported strategies
var Kinds = []Kind{KindTwoCopy, KindOneCopy, KindZeroCopy}

// Parse converts a strategy name to a Kind
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "two-copy", "twocopy", "a1":
		return KindTwoCopy, nil
	case "one-copy", "onecopy", "a2":
		return KindOneCopy, nil
	case "zero-copy", "zerocopy", "a3":
		return KindZeroCopy, nil
	default:
		return "", fmt.Errorf("invalid strategy %s (expected one of: two-copy, one-copy, zero-copy)", name)
	}
}

// Options holds the tuning parameters of the strategies.
// Only the zero-copy strategy uses them.
type Options struct {
	// DrainThreshold is the in-flight count at which completions are drained
	DrainThreshold int
	// DrainRetries bounds the number of drain attempts in Release
	DrainRetries int
	// DrainInterval is the sleep between two drain attempts in Release
	DrainInterval time.Duration
	// ENOBUFSBackoff is the sleep after an ENOBUFS failure before the send is retried
	ENOBUFSBackoff time.Duration
	// ConfirmedOnly counts messages only once their completion has been observed
	ConfirmedOnly bool
	// Stopped is polled while a send is being retried after ENOBUFS (may be nil)
	Stopped func() bool
}

// --------------------------------------------------------------------------
// Interfaces
// --------------------------------------------------------------------------

// Completion is one zero-copy completion notification: all zero-copy sends
// numbered Low..High (inclusive) have completed
type Completion struct {
	Low  uint32
	High uint32
}

// Size returns the number of sends covered by the notification.
// The sequence numbers are 32 bit counters, so the subtraction wraps like the kernel's.
func (c Completion) Size() uint32 {
	return c.High - c.Low + 1
}

// CompletionSource is the asynchronous notification channel of a socket
type CompletionSource interface {
	// ReadCompletions performs one non-blocking read of the notification channel
	// and appends the completions it carried to dst.
	// It returns syscall.EAGAIN when no notification is available.
	ReadCompletions(dst []Completion) ([]Completion, error)
}

// Socket is a connected stream socket as seen by a send strategy
type Socket interface {
	CompletionSource

	// Send issues exactly one send call for p and returns the number of bytes written
	Send(p []byte) (int, error)

	// SendGather issues exactly one gathering send over the prebuilt list g.
	// If zeroCopy is set the kernel is asked not to copy the referenced memory.
	SendGather(g *Gather, zeroCopy bool) (int, error)

	// EnableZeroCopy switches the socket into the mode required by SendGather(g, true)
	EnableZeroCopy() error
}

// SendResult is the outcome of one SendMessage call
type SendResult struct {
	// Bytes that were handed to the kernel
	Bytes int
	// Complete is set when the whole message counts as sent
	Complete bool
}

// Sender transmits messages over one connection. A Sender is owned by a single
// connection worker and must not be used concurrently.
type Sender interface {
	// SendMessage transmits one logical message
	SendMessage() (SendResult, error)
}

// ReleaseReport is the result of the buffer release sequence
type ReleaseReport struct {
	// Outstanding is the number of sends still in flight after the release sequence
	Outstanding uint64
	// ConfirmedMessages is the number of messages confirmed by completions
	// (only set in confirmed-only accounting)
	ConfirmedMessages uint64
	// Err is set if the notification channel failed while draining
	Err error
}

// Releaser is implemented by senders whose buffer outlives the send call.
// Release must be called before the message buffer is released.
type Releaser interface {
	Release() ReleaseReport
}

// IStrategy creates a Sender for every accepted connection
type IStrategy interface {
	// Kind returns the strategy identifier
	Kind() Kind
	// NewSender prepares sock and buf for sending with this strategy
	NewSender(sock Socket, buf *message.Buffer) (Sender, error)
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// New creates the strategy for kind
func New(kind Kind, opts Options) (IStrategy, error) {
	switch kind {
	case KindTwoCopy:
		return twoCopy{}, nil
	case KindOneCopy:
		return oneCopy{}, nil
	case KindZeroCopy:
		if opts.DrainThreshold <= 0 {
			return nil, fmt.Errorf("drain threshold must be > 0 (got %d)", opts.DrainThreshold)
		}
		if opts.DrainRetries < 0 {
			return nil, fmt.Errorf("drain retries must be >= 0 (got %d)", opts.DrainRetries)
		}
		return zeroCopy{opts: opts}, nil
	default:
		return nil, fmt.Errorf("invalid strategy %q", kind)
	}
}
