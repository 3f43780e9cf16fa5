package strategy

import (
	"github.com/ValentinKolb/xferbench/lib/message"
)

// Gather is the scatter/gather descriptor list of one message. It is built once
// per connection and reused for every send, so the hot path never rebuilds it.
// A Gather keeps the segment memory of its buffer reachable.
type Gather struct {
	segments [][]byte
	total    int
	sys      gatherSys
}

// NewGather builds the descriptor list for buf
func NewGather(buf *message.Buffer) *Gather {
	g := &Gather{
		segments: buf.Segments(),
		total:    buf.Len(),
	}
	g.sys.init(g.segments)
	return g
}

// Segments returns the referenced segments in order
func (g *Gather) Segments() [][]byte {
	return g.segments
}

// Total returns the number of bytes described by the list
func (g *Gather) Total() int {
	return g.total
}
