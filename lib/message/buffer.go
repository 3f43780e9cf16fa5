package message

import (
	"fmt"
)

const (
	// NumSegments is the number of segments a message is split into
	NumSegments = 8
)

// Buffer is one logical message composed of NumSegments separately allocated segments
type Buffer struct {
	segments [NumSegments][]byte
	total    int
	released bool
}

// NewBuffer allocates and fills a message of total bytes.
// The last segment absorbs total%NumSegments so that the segment lengths sum to total.
// An allocation the system cannot satisfy is returned as an error.
func NewBuffer(total int) (*Buffer, error) {
	if total <= 0 {
		return nil, fmt.Errorf("invalid message size %d (must be > 0)", total)
	}
	if err := checkCapacity(total); err != nil {
		return nil, err
	}

	perSegment := total / NumSegments
	remainder := total % NumSegments

	b := &Buffer{total: total}
	for i := 0; i < NumSegments; i++ {
		size := perSegment
		if i == NumSegments-1 {
			size += remainder
		}

		segment, err := allocSegment(size)
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("failed to allocate segment %d (%d bytes) of a %d byte message: %w", i, size, total, err)
		}

		fill := byte('A' + (i % 26))
		for j := range segment {
			segment[j] = fill
		}
		b.segments[i] = segment
	}

	return b, nil
}

// Len returns the total message size in bytes
func (b *Buffer) Len() int {
	return b.total
}

// Segment returns segment i. The returned slice must not be modified.
func (b *Buffer) Segment(i int) []byte {
	return b.segments[i]
}

// Segments returns all segments in order. The returned slices must not be modified.
func (b *Buffer) Segments() [][]byte {
	out := make([][]byte, NumSegments)
	copy(out, b.segments[:])
	return out
}

// SegmentLengths returns the length of every segment in order
func (b *Buffer) SegmentLengths() [NumSegments]int {
	var lengths [NumSegments]int
	for i, s := range b.segments {
		lengths[i] = len(s)
	}
	return lengths
}

// Release frees all segments. The buffer must no longer be referenced by the
// kernel. Calling Release more than once is a no-op.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	for i := range b.segments {
		if b.segments[i] != nil {
			freeSegment(b.segments[i])
		}
		b.segments[i] = nil
	}
	b.released = true
}
