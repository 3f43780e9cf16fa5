//go:build linux

package strategy

import (
	"golang.org/x/sys/unix"
)

// gatherSys holds the prebuilt iovec array and message header.
// Empty segments are skipped so that every descriptor has a valid base pointer.
type gatherSys struct {
	iov []unix.Iovec
	hdr unix.Msghdr
}

func (s *gatherSys) init(segments [][]byte) {
	s.iov = make([]unix.Iovec, 0, len(segments))
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var v unix.Iovec
		v.Base = &seg[0]
		v.SetLen(len(seg))
		s.iov = append(s.iov, v)
	}

	if len(s.iov) > 0 {
		s.hdr.Iov = &s.iov[0]
		s.hdr.SetIovlen(len(s.iov))
	}
}

// Msghdr returns the prebuilt message header for sendmsg(2)
func (g *Gather) Msghdr() *unix.Msghdr {
	return &g.sys.hdr
}

// Iovecs returns the prebuilt descriptors
func (g *Gather) Iovecs() []unix.Iovec {
	return g.sys.iov
}
