package strategy

import (
	"errors"
	"syscall"
	"time"
)

// CompletionTracker counts zero-copy sends that the kernel has not yet
// confirmed. It is owned by a single sender and is not safe for concurrent use.
type CompletionTracker struct {
	threshold uint64
	inFlight  uint64
	issued    uint64
	completed uint64
	scratch   []Completion
}

// NewCompletionTracker creates a tracker that asks for a drain once threshold sends are in flight
func NewCompletionTracker(threshold int) *CompletionTracker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CompletionTracker{
		threshold: uint64(threshold),
		scratch:   make([]Completion, 0, 16),
	}
}

// Issued records one successful zero-copy send
func (t *CompletionTracker) Issued() {
	t.inFlight++
	t.issued++
}

// Complete applies one completion notification and returns the number of
// sends it covered. The in-flight count never drops below zero.
func (t *CompletionTracker) Complete(c Completion) uint64 {
	n := uint64(c.Size())
	if n >= t.inFlight {
		t.inFlight = 0
	} else {
		t.inFlight -= n
	}
	t.completed += n
	return n
}

// InFlight returns the number of sends not yet confirmed
func (t *CompletionTracker) InFlight() uint64 {
	return t.inFlight
}

// IssuedTotal returns the number of sends recorded with Issued
func (t *CompletionTracker) IssuedTotal() uint64 {
	return t.issued
}

// Completed returns the number of sends covered by all notifications seen so far
func (t *CompletionTracker) Completed() uint64 {
	return t.completed
}

// ShouldDrain reports whether the in-flight count reached the drain threshold
func (t *CompletionTracker) ShouldDrain() bool {
	return t.inFlight >= t.threshold
}

// Drain reads notifications from src until none is immediately available and
// returns the number of sends they covered
func (t *CompletionTracker) Drain(src CompletionSource) (uint64, error) {
	var drained uint64
	for {
		batch, err := src.ReadCompletions(t.scratch[:0])
		for _, c := range batch {
			drained += t.Complete(c)
		}
		if cap(batch) > cap(t.scratch) {
			t.scratch = batch[:0]
		}

		if err != nil {
			if isWouldBlock(err) {
				return drained, nil
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return drained, err
		}
	}
}

// DrainUntilIdle drains repeatedly until nothing is in flight, sleeping interval
// between attempts, for at most retries additional attempts. It returns the
// number of sends still in flight afterwards.
func (t *CompletionTracker) DrainUntilIdle(src CompletionSource, retries int, interval time.Duration) (uint64, error) {
	for attempt := 0; t.inFlight > 0; attempt++ {
		if _, err := t.Drain(src); err != nil {
			return t.inFlight, err
		}
		if t.inFlight == 0 || attempt >= retries {
			break
		}
		time.Sleep(interval)
	}
	return t.inFlight, nil
}
