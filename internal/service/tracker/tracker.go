// Package tracker counts upstream compile calls.
package tracker

import "sync/atomic"

// Tracker records running and total upstream calls using atomics.
// The zero value is ready to use.
type Tracker struct {
	running atomic.Int64
	total   atomic.Uint64
}

// Start records the beginning of a call and returns a func that records its end.
func (t *Tracker) Start() (done func()) {
	t.running.Add(1)
	t.total.Add(1)
	return func() { t.running.Add(-1) }
}

// Running returns the number of calls currently in progress.
func (t *Tracker) Running() int64 { return t.running.Load() }

// Total returns the number of calls started since creation.
func (t *Tracker) Total() uint64 { return t.total.Load() }
