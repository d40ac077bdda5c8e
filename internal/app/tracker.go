package service

import (
	"sync"
	"time"
)

// BatchStatus is the externally visible progress of one batch.
type BatchStatus struct {
	BatchID     string    `json:"batch_id"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Pending     int       `json:"pending"`
	Done        bool      `json:"done"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// batchTracker counts per-batch job outcomes. It implements the worker
// pool's Tracker boundary.
type batchTracker struct {
	mu      sync.RWMutex
	batches map[string]*batchProgress
}

type batchProgress struct {
	total       int
	succeeded   int
	failed      int
	submittedAt time.Time
}

func newBatchTracker() *batchTracker {
	return &batchTracker{batches: make(map[string]*batchProgress)}
}

// Register opens progress tracking for a batch of the given size.
func (t *batchTracker) Register(batchID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches[batchID] = &batchProgress{
		total:       total,
		submittedAt: time.Now().UTC(),
	}
}

// JobSucceeded implements worker.Tracker.
func (t *batchTracker) JobSucceeded(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.batches[batchID]; ok {
		p.succeeded++
	}
}

// JobFailed implements worker.Tracker.
func (t *batchTracker) JobFailed(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.batches[batchID]; ok {
		p.failed++
	}
}

// Status returns the progress of a batch, or false if unknown.
func (t *batchTracker) Status(batchID string) (BatchStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.batches[batchID]
	if !ok {
		return BatchStatus{}, false
	}

	done := p.succeeded + p.failed
	return BatchStatus{
		BatchID:     batchID,
		Total:       p.total,
		Succeeded:   p.succeeded,
		Failed:      p.failed,
		Pending:     p.total - done,
		Done:        done >= p.total,
		SubmittedAt: p.submittedAt,
	}, true
}

// Count returns the number of tracked batches.
func (t *batchTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.batches)
}
