package tracker

import (
	"sync"
	"testing"
)

func TestTrackerStartDone(t *testing.T) {
	t.Parallel()

	tr := &Tracker{}
	done := tr.Start()
	if got := tr.Running(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	done()
	if got := tr.Running(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := tr.Total(); got != 1 {
		t.Fatalf("expected total 1, got %d", got)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	t.Parallel()

	tr := &Tracker{}
	const goroutines = 10
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				done := tr.Start()
				done()
			}
		}()
	}
	wg.Wait()

	if got := tr.Running(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := tr.Total(); got != goroutines*iterations {
		t.Fatalf("expected total %d, got %d", goroutines*iterations, got)
	}
}
