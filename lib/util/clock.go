package util

import (
	"time"
)

// Clock measures elapsed monotonic time from the moment it was created
type Clock struct {
	start time.Time
}

// NewClock creates a clock that starts counting now
func NewClock() Clock {
	return Clock{start: time.Now()}
}

// Elapsed returns the time since the clock was created
func (c Clock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Micros returns the elapsed time in microseconds
func (c Clock) Micros() int64 {
	return c.Elapsed().Microseconds()
}

// Deadline returns the absolute instant d after the clock's start
func (c Clock) Deadline(d time.Duration) time.Time {
	return c.start.Add(d)
}
