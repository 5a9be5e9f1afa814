package events

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/jonathan/talent-pool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishAssignsSequence(t *testing.T) {
	bus := NewBus(10)

	first := bus.Publish(Event{Type: FolderCreated, FolderID: "f1"})
	second := bus.Publish(Event{Type: FolderDeleted, FolderID: "f1"})

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, int64(2), bus.LastSeq())
}

func TestBus_SinceReturnsNewerEvents(t *testing.T) {
	bus := NewBus(10)
	for i := 0; i < 3; i++ {
		bus.Publish(Event{Type: CandidatesMoved})
	}

	got := bus.Since(1)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Seq)
	assert.Equal(t, int64(3), got[1].Seq)
	assert.Empty(t, bus.Since(3))
}

func TestBus_TrimsToCapacity(t *testing.T) {
	bus := NewBus(2)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: CandidatesMoved})
	}

	got := bus.Since(0)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].Seq)
	assert.Equal(t, int64(5), got[1].Seq)
}

func TestBus_ChangedClosesOnPublish(t *testing.T) {
	bus := NewBus(2)
	changed := bus.Changed()

	select {
	case <-changed:
		t.Fatal("changed closed before publish")
	default:
	}

	bus.Publish(Event{Type: BatchStarted})

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("changed not closed after publish")
	}
}

func TestFanout_DeliversInOrder(t *testing.T) {
	var got []string
	a := NotifierFunc(func(e Event) { got = append(got, "a:"+string(e.Type)) })
	b := NotifierFunc(func(e Event) { got = append(got, "b:"+string(e.Type)) })

	f := NewFanout(a, nil, b)
	f.Notify(Event{Type: BatchFinished})

	assert.Equal(t, []string{"a:batch_finished", "b:batch_finished"}, got)
}

func TestLogNotifier_Format(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	n.Notify(Event{
		Type:       BatchFinished,
		BatchID:    "b1",
		BatchState: types.BatchCompletedWithErrors,
		Summary:    &types.BatchSummary{Succeeded: 3, Failed: 2},
	})

	assert.Equal(t, "[event] batch_finished batch=b1 state=completed_with_errors succeeded=3 failed=2\n", buf.String())
}
