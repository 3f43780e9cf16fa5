//go:build linux

package message

import (
	"fmt"
	"golang.org/x/sys/unix"
)

// checkCapacity rejects messages larger than the physical memory plus swap of the host
func checkCapacity(total int) error {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		// unknown capacity, leave it to the mapping
		return nil
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	capacity := (uint64(info.Totalram) + uint64(info.Totalswap)) * unit
	if uint64(total) > capacity {
		return fmt.Errorf("message size %d exceeds system memory (%d bytes): %w", total, capacity, unix.ENOMEM)
	}
	return nil
}

// allocSegment maps size bytes of anonymous memory. The pages are page aligned
// and outside the Go heap, so a failed mapping is an ordinary error.
func allocSegment(size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func freeSegment(segment []byte) {
	if len(segment) == 0 {
		return
	}
	_ = unix.Munmap(segment)
}
