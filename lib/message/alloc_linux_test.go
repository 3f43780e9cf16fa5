//go:build linux

package message

import (
	"errors"
	"golang.org/x/sys/unix"
	"math"
	"testing"
	"unsafe"
)

// TestOversizedMessageFails checks that a message larger than the host memory
// is returned as an error and leaves later allocations unaffected
func TestOversizedMessageFails(t *testing.T) {
	b, err := NewBuffer(math.MaxInt / 2)
	if err == nil {
		b.Release()
		t.Fatal("NewBuffer(MaxInt/2) should fail")
	}
	if !errors.Is(err, unix.ENOMEM) {
		t.Errorf("NewBuffer(MaxInt/2) error = %v, want ENOMEM", err)
	}

	b, err = NewBuffer(4096)
	if err != nil {
		t.Fatalf("NewBuffer(4096) after failed allocation: %v", err)
	}
	defer b.Release()
	if b.Len() != 4096 {
		t.Errorf("Len() = %d, want 4096", b.Len())
	}
}

// TestSegmentsArePageAligned checks that mapped segments start on a page boundary
func TestSegmentsArePageAligned(t *testing.T) {
	b, err := NewBuffer(8 * 4096)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	defer b.Release()

	page := uintptr(unix.Getpagesize())
	for i, s := range b.Segments() {
		if addr := uintptr(unsafe.Pointer(&s[0])); addr%page != 0 {
			t.Errorf("segment %d at %#x is not page aligned", i, addr)
		}
	}
}
