package db

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonathan/talent-pool/internal/events"
)

// BatchRunWriter persists batch audit records. *DB implements it.
type BatchRunWriter interface {
	RecordBatchRun(ctx context.Context, run BatchRun) error
}

// BatchRecorder is an events.Notifier that writes a BatchRun for every
// batch_finished event. Writes happen off the notifying goroutine.
type BatchRecorder struct {
	w       BatchRunWriter
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewBatchRecorder creates a recorder that gives each write timeout.
func NewBatchRecorder(w BatchRunWriter, timeout time.Duration) *BatchRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BatchRecorder{w: w, timeout: timeout}
}

// Notify implements events.Notifier.
func (r *BatchRecorder) Notify(e events.Event) {
	if e.Type != events.BatchFinished || e.Summary == nil {
		return
	}
	run := NewBatchRun(e.BatchID, e.BatchState, *e.Summary, e.Timestamp)
	run.Message = e.Message

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.w.RecordBatchRun(ctx, run); err != nil {
			log.Printf("[db] %v", err)
		}
	}()
}

// Flush waits for pending writes.
func (r *BatchRecorder) Flush() {
	r.wg.Wait()
}
