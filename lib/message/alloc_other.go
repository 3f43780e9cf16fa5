//go:build !linux

package message

func checkCapacity(int) error {
	return nil
}

func allocSegment(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func freeSegment([]byte) {}
