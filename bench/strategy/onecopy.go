package strategy

import (
	"github.com/ValentinKolb/xferbench/lib/message"
)

// oneCopy sends the whole message with a single gathering send
type oneCopy struct{}

func (oneCopy) Kind() Kind {
	return KindOneCopy
}

func (oneCopy) NewSender(sock Socket, buf *message.Buffer) (Sender, error) {
	return &oneCopySender{sock: sock, gather: NewGather(buf)}, nil
}

type oneCopySender struct {
	sock   Socket
	gather *Gather
}

// SendMessage issues one gathering send. A short write counts its bytes, but
// the remainder is not resumed and the message is not counted.
func (s *oneCopySender) SendMessage() (SendResult, error) {
	for {
		n, err := s.sock.SendGather(s.gather, false)
		if err != nil {
			if Classify(err) == ClassInterrupted {
				continue
			}
			return SendResult{}, wrap(err)
		}
		if n == 0 {
			return SendResult{}, ErrConnectionClosed
		}
		return SendResult{Bytes: n, Complete: n == s.gather.Total()}, nil
	}
}
