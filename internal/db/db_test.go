package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// MockBatchRunWriter records calls through a func field
type MockBatchRunWriter struct {
	mu         sync.Mutex
	runs       []BatchRun
	RecordFunc func(ctx context.Context, run BatchRun) error
}

func (m *MockBatchRunWriter) RecordBatchRun(ctx context.Context, run BatchRun) error {
	m.mu.Lock()
	m.runs = append(m.runs, run)
	m.mu.Unlock()
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, run)
	}
	return nil
}

func TestSchema_DefinesTables(t *testing.T) {
	ddl := Schema()
	for _, table := range []string{"folders", "candidates", "batch_runs"} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, ddl, "REFERENCES folders(id)")
}

func TestNewBatchRun(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := NewBatchRun("b1", types.BatchCompletedWithErrors, types.BatchSummary{
		Total: 5, Succeeded: 3, Failed: 2, AlreadyScreened: 1,
	}, at)

	assert.Equal(t, "b1", run.ID)
	assert.Equal(t, types.BatchCompletedWithErrors, run.State)
	assert.Equal(t, 5, run.Total)
	assert.Equal(t, 3, run.Succeeded)
	assert.Equal(t, 2, run.Failed)
	assert.Equal(t, 0, run.Pending)
	assert.Equal(t, 1, run.AlreadyScreened)
	assert.Equal(t, at, run.FinishedAt)
}

func TestBatchRecorder_RecordsFinishedBatches(t *testing.T) {
	w := &MockBatchRunWriter{}
	r := NewBatchRecorder(w, time.Second)

	r.Notify(events.Event{Type: events.BatchStarted, BatchID: "b1"})
	r.Notify(events.Event{Type: events.BatchFinished, BatchID: "b1"}) // no summary
	r.Notify(events.Event{
		Type:       events.BatchFinished,
		BatchID:    "b2",
		BatchState: types.BatchCancelled,
		Summary:    &types.BatchSummary{Total: 4, Succeeded: 1, Pending: 3},
	})
	r.Flush()

	require.Len(t, w.runs, 1)
	assert.Equal(t, "b2", w.runs[0].ID)
	assert.Equal(t, types.BatchCancelled, w.runs[0].State)
	assert.Equal(t, 3, w.runs[0].Pending)
}

func TestBatchRecorder_WriteErrorsAreLogged(t *testing.T) {
	var deadline bool
	w := &MockBatchRunWriter{RecordFunc: func(ctx context.Context, _ BatchRun) error {
		_, deadline = ctx.Deadline()
		return errors.New("connection refused")
	}}
	r := NewBatchRecorder(w, 0)

	r.Notify(events.Event{Type: events.BatchFinished, BatchID: "b1", Summary: &types.BatchSummary{}})
	r.Flush()

	assert.Len(t, w.runs, 1)
	assert.True(t, deadline, "writes run under a timeout")
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Now()
	require.NotNil(t, nullTime(now))
	assert.Equal(t, now, *nullTime(now))
}
