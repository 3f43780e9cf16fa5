package client

import (
	"bytes"
	"context"
	"errors"
	gometrics "github.com/rcrowley/go-metrics"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestPrintReport(t *testing.T) {
	results := []WorkerResult{
		{Index: 0, BytesTransferred: 100, MessagesCompleted: 1, ElapsedMicros: 1000, Intervals: newIntervalHistogram()},
		{Index: 1, BytesTransferred: 200, MessagesCompleted: 2, ElapsedMicros: 2000, Intervals: newIntervalHistogram()},
		{Index: 2, Err: errors.New("connect: connection refused")},
	}
	_ = results[1].Intervals.RecordValue(1000)

	var buf bytes.Buffer
	PrintReport(&buf, results, Aggregate(results))
	out := buf.String()

	for _, want := range []string{
		"[Client] Thread 0: 100 bytes, 1 msgs, 0.00 s, 0.0008 Gbps, avg latency 1000.00 µs/msg\n",
		"[Client] Thread 2: failed: connect: connection refused\n",
		"\n========== AGGREGATE RESULTS ==========\n",
		"Total bytes received : 300\n",
		"Total messages       : 3\n",
		"Wall-clock time      : 0.00 s\n",
		"Aggregate throughput : 0.0012 Gbps\n",
		"Avg latency/msg      : 666.67 µs\n",
		"Failed threads       : 1 of 3\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// the labels the orchestration scripts parse
	for _, re := range []*regexp.Regexp{
		regexp.MustCompile(`(?m)^Aggregate throughput : [0-9]+\.[0-9]+ Gbps$`),
		regexp.MustCompile(`(?m)^Avg latency/msg      : [0-9]+\.[0-9]+ µs$`),
	} {
		if !re.MatchString(out) {
			t.Errorf("report does not match %s", re)
		}
	}
	if !strings.HasSuffix(out, "========================================\n") {
		t.Errorf("report does not end with the closing line")
	}
}

func TestPrintProgress(t *testing.T) {
	meter := gometrics.NewMeter()
	defer meter.Stop()
	meter.Mark(4096)

	var buf bytes.Buffer
	printProgress(&buf, meter.Snapshot())
	if !strings.HasPrefix(buf.String(), "[Client] progress: 4096 bytes, ") {
		t.Errorf("unexpected progress line %q", buf.String())
	}
}

func TestStartProgressStops(t *testing.T) {
	meter := gometrics.NewMeter()
	defer meter.Stop()

	var buf syncBuffer
	stop := startProgress(context.Background(), meter, 5*time.Millisecond, &buf)
	time.Sleep(30 * time.Millisecond)
	stop()

	lines := strings.Count(buf.String(), "[Client] progress:")
	if lines == 0 {
		t.Errorf("no progress line printed")
	}
	time.Sleep(20 * time.Millisecond)
	if strings.Count(buf.String(), "[Client] progress:") != lines {
		t.Errorf("progress printed after stop")
	}
}
