package client

import (
	"errors"
	"math"
	"testing"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9*math.Max(1, math.Abs(b))
}

func TestAggregate(t *testing.T) {
	results := []WorkerResult{
		{Index: 0, BytesTransferred: 100, MessagesCompleted: 1, ElapsedMicros: 1000},
		{Index: 1, BytesTransferred: 200, MessagesCompleted: 2, ElapsedMicros: 2000},
	}

	s := Aggregate(results)
	if s.TotalBytes != 300 || s.TotalMessages != 3 {
		t.Errorf("totals = %d bytes / %d msgs, want 300 / 3", s.TotalBytes, s.TotalMessages)
	}
	if s.WallClockMicros != 2000 {
		t.Errorf("wall clock = %d, want 2000", s.WallClockMicros)
	}
	if want := 300 * 8 / (2000e-6 * 1e9); !closeTo(s.ThroughputGbps(), want) {
		t.Errorf("ThroughputGbps() = %g, want %g", s.ThroughputGbps(), want)
	}
	if want := 2000.0 / 3; !closeTo(s.AvgLatencyMicros(), want) {
		t.Errorf("AvgLatencyMicros() = %g, want %g", s.AvgLatencyMicros(), want)
	}
	if s.Workers != 2 || s.Failed != 0 {
		t.Errorf("workers = %d, failed = %d", s.Workers, s.Failed)
	}
}

func TestAggregateEmpty(t *testing.T) {
	tests := map[string][]WorkerResult{
		"no workers":  nil,
		"no messages": {{BytesTransferred: 10, ElapsedMicros: 1000, PartialBytes: 10}},
		"failed":      {{Err: errors.New("connect: refused")}},
	}

	for name, results := range tests {
		t.Run(name, func(t *testing.T) {
			s := Aggregate(results)
			if s.AvgLatencyMicros() != 0 {
				t.Errorf("AvgLatencyMicros() = %g, want 0", s.AvgLatencyMicros())
			}
			if s.WallClockMicros == 0 && s.ThroughputGbps() != 0 {
				t.Errorf("ThroughputGbps() = %g without elapsed time", s.ThroughputGbps())
			}
		})
	}
}

func TestAggregateFairness(t *testing.T) {
	results := []WorkerResult{
		{BytesTransferred: 1000, ElapsedMicros: 1000},
		{BytesTransferred: 2000, ElapsedMicros: 1000},
	}

	s := Aggregate(results)
	// 8 and 16 Gbps
	if !closeTo(s.Fairness.Min, 8) || !closeTo(s.Fairness.Max, 16) || !closeTo(s.Fairness.MinMaxRatio, 0.5) {
		t.Errorf("Fairness = %+v", s.Fairness)
	}
}

func TestWorkerResultRates(t *testing.T) {
	r := WorkerResult{BytesTransferred: 1_000_000, MessagesCompleted: 4, ElapsedMicros: 1000}
	if !closeTo(r.ThroughputGbps(), 8) {
		t.Errorf("ThroughputGbps() = %g, want 8", r.ThroughputGbps())
	}
	if !closeTo(r.AvgLatencyMicros(), 250) {
		t.Errorf("AvgLatencyMicros() = %g, want 250", r.AvgLatencyMicros())
	}
	if (WorkerResult{}).ThroughputGbps() != 0 || (WorkerResult{}).AvgLatencyMicros() != 0 {
		t.Errorf("empty result has non-zero rates")
	}
}
