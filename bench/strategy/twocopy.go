package strategy

import (
	"github.com/ValentinKolb/xferbench/lib/message"
)

// twoCopy sends every segment with its own send call
type twoCopy struct{}

func (twoCopy) Kind() Kind {
	return KindTwoCopy
}

func (twoCopy) NewSender(sock Socket, buf *message.Buffer) (Sender, error) {
	return &twoCopySender{sock: sock, buf: buf}, nil
}

type twoCopySender struct {
	sock Socket
	buf  *message.Buffer
}

// SendMessage writes all segments in order, resuming partial writes.
// An abandoned message contributes no bytes to the result.
func (s *twoCopySender) SendMessage() (SendResult, error) {
	sent := 0
	for i := 0; i < message.NumSegments; i++ {
		seg := s.buf.Segment(i)
		for off := 0; off < len(seg); {
			n, err := s.sock.Send(seg[off:])
			if err != nil {
				if Classify(err) == ClassInterrupted {
					continue
				}
				return SendResult{}, wrap(err)
			}
			if n == 0 {
				return SendResult{}, ErrConnectionClosed
			}
			off += n
			sent += n
		}
	}
	return SendResult{Bytes: sent, Complete: true}, nil
}
