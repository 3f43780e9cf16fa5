// Package message implements the fixed-shape payload that the benchmark server
// streams to its clients.
//
// A Buffer is split into exactly NumSegments independently allocated segments.
// Segment i holds total/NumSegments bytes, except for the last segment which
// also absorbs total%NumSegments, so the segment lengths always sum to the
// requested total. Every segment is filled once at construction with the byte
// 'A'+(i%26) and is never modified or resized afterwards.
//
// Ownership:
//
//	A Buffer is created, used and released by exactly one connection worker.
//	It is NOT safe for concurrent use and is never shared between goroutines.
//	For zero-copy sends the segment memory must stay valid until the kernel has
//	reported completion of every send that referenced it, so Release must only
//	be called after the owning sender has drained its completions.
package message
