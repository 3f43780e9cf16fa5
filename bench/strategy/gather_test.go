package strategy_test

import (
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"testing"
)

func TestGather(t *testing.T) {
	tests := map[string]struct {
		size      int
		nonEmpty  int
		lastBytes int
	}{
		"even":           {size: 4096, nonEmpty: 8, lastBytes: 512},
		"remainder":      {size: 65, nonEmpty: 8, lastBytes: 9},
		"smaller than 8": {size: 5, nonEmpty: 1, lastBytes: 5},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			g := strategy.NewGather(newBuffer(t, tc.size))
			if g.Total() != tc.size {
				t.Errorf("Total() = %d, want %d", g.Total(), tc.size)
			}

			segments := g.Segments()
			sum, nonEmpty := 0, 0
			for _, s := range segments {
				sum += len(s)
				if len(s) > 0 {
					nonEmpty++
				}
			}
			if sum != tc.size || nonEmpty != tc.nonEmpty {
				t.Errorf("segments sum %d with %d non-empty, want %d with %d", sum, nonEmpty, tc.size, tc.nonEmpty)
			}
			if last := len(segments[len(segments)-1]); last != tc.lastBytes {
				t.Errorf("last segment = %d bytes, want %d", last, tc.lastBytes)
			}
		})
	}
}
