package strategy

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/lib/message"
	"time"
)

// zeroCopy sends the whole message with a single gathering MSG_ZEROCOPY send
type zeroCopy struct {
	opts Options
}

func (zeroCopy) Kind() Kind {
	return KindZeroCopy
}

func (z zeroCopy) NewSender(sock Socket, buf *message.Buffer) (Sender, error) {
	if err := sock.EnableZeroCopy(); err != nil {
		return nil, fmt.Errorf("%w: enabling zero-copy: %v", ErrUnsupported, err)
	}
	return &zeroCopySender{
		sock:    sock,
		gather:  NewGather(buf),
		opts:    z.opts,
		tracker: NewCompletionTracker(z.opts.DrainThreshold),
	}, nil
}

type zeroCopySender struct {
	sock    Socket
	gather  *Gather
	opts    Options
	tracker *CompletionTracker

	// fullSends is the number of sends that handed over the whole message
	fullSends uint64
	// exhausted is the number of ENOBUFS rejections
	exhausted uint64
}

// SendMessage issues one zero-copy send. ENOBUFS triggers a drain and a short
// backoff before the send is retried, until the stop flag is observed.
func (s *zeroCopySender) SendMessage() (SendResult, error) {
	total := s.gather.Total()
	for {
		n, err := s.sock.SendGather(s.gather, true)
		if err != nil {
			switch Classify(err) {
			case ClassInterrupted:
				continue
			case ClassResourceExhausted:
				s.exhausted++
				if _, derr := s.tracker.Drain(s.sock); derr != nil {
					return SendResult{}, fmt.Errorf("%w: reading completions: %v", ErrFatal, derr)
				}
				if s.opts.Stopped != nil && s.opts.Stopped() {
					return SendResult{}, ErrStopped
				}
				time.Sleep(s.opts.ENOBUFSBackoff)
				continue
			default:
				return SendResult{}, wrap(err)
			}
		}
		if n == 0 {
			return SendResult{}, ErrConnectionClosed
		}

		s.tracker.Issued()
		if n == total {
			s.fullSends++
		}
		res := SendResult{Bytes: n, Complete: n == total && !s.opts.ConfirmedOnly}

		if s.tracker.ShouldDrain() {
			if _, err := s.tracker.Drain(s.sock); err != nil {
				return res, fmt.Errorf("%w: reading completions: %v", ErrFatal, err)
			}
		}
		return res, nil
	}
}

// Release waits for the outstanding completions so the buffer can be freed
func (s *zeroCopySender) Release() ReleaseReport {
	outstanding, err := s.tracker.DrainUntilIdle(s.sock, s.opts.DrainRetries, s.opts.DrainInterval)
	report := ReleaseReport{Outstanding: outstanding, Err: err}
	if s.opts.ConfirmedOnly {
		report.ConfirmedMessages = min(s.tracker.Completed(), s.fullSends)
	}
	if s.exhausted > 0 {
		Logger.Debugf("zero-copy sender saw %d ENOBUFS rejections", s.exhausted)
	}
	return report
}
