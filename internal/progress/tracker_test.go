package progress

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker(5)

	tr.ItemStarted()
	tr.ItemStarted()
	if got := tr.InFlight(); got != 2 {
		t.Fatalf("InFlight = %d, want 2", got)
	}

	tr.ItemSucceeded(1024)
	tr.ItemFailed()

	if got := tr.Completed(); got != 2 {
		t.Errorf("Completed = %d, want 2", got)
	}
	if got := tr.Succeeded(); got != 1 {
		t.Errorf("Succeeded = %d, want 1", got)
	}
	if got := tr.Failed(); got != 1 {
		t.Errorf("Failed = %d, want 1", got)
	}
	if got := tr.InFlight(); got != 0 {
		t.Errorf("InFlight = %d, want 0", got)
	}
	if got := tr.Bytes(); got != 1024 {
		t.Errorf("Bytes = %d, want 1024", got)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(200)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tr.ItemStarted()
			if n%4 == 0 {
				tr.ItemFailed()
			} else {
				tr.ItemSucceeded(10)
			}
		}(i)
	}
	wg.Wait()

	if got := tr.Completed(); got != 200 {
		t.Errorf("Completed = %d, want 200", got)
	}
	if got := tr.Succeeded(); got != 150 {
		t.Errorf("Succeeded = %d, want 150", got)
	}
	if got := tr.Failed(); got != 50 {
		t.Errorf("Failed = %d, want 50", got)
	}
	if got := tr.InFlight(); got != 0 {
		t.Errorf("InFlight = %d, want 0", got)
	}
	if got := tr.Bytes(); got != 1500 {
		t.Errorf("Bytes = %d, want 1500", got)
	}
}

func TestReporterFinalLine(t *testing.T) {
	tr := NewTracker(3)
	tr.ItemStarted()
	tr.ItemSucceeded(2048)
	tr.ItemStarted()
	tr.ItemFailed()

	var buf syncBuffer
	r := NewReporter(tr, &buf, time.Hour)
	r.Start()
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "2/3 done") {
		t.Errorf("output missing progress, got %q", out)
	}
	if !strings.Contains(out, "1 ok") {
		t.Errorf("output missing success count, got %q", out)
	}
	if !strings.Contains(out, "1 failed") {
		t.Errorf("output missing failure count, got %q", out)
	}
	if !strings.Contains(out, "2.00 KB") {
		t.Errorf("output missing byte total, got %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// syncBuffer is a strings.Builder safe for use across goroutines.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}
