// Package events defines the structured notifications the talent-pool core
// emits, and the sinks that consume them.
package events

import (
	"sync"
	"time"

	"github.com/jonathan/talent-pool/internal/types"
)

// Type classifies an emitted event.
type Type string

// Event types
const (
	FolderCreated    Type = "folder_created"
	FolderUpdated    Type = "folder_updated"
	FolderDeleted    Type = "folder_deleted"
	CandidatesMoved  Type = "candidates_moved"
	BatchStarted     Type = "batch_started"
	BatchItemFailed  Type = "batch_item_failed"
	BatchFinished    Type = "batch_finished"
	CandidatesLoaded Type = "candidates_loaded"
)

// Event is a sequenced notification. Only the fields relevant to Type are set.
type Event struct {
	Seq          int64               `json:"seq"`
	Timestamp    time.Time           `json:"timestamp"`
	Type         Type                `json:"type"`
	FolderID     string              `json:"folder_id,omitempty"`
	FolderName   string              `json:"folder_name,omitempty"`
	BatchID      string              `json:"batch_id,omitempty"`
	BatchState   types.BatchState    `json:"batch_state,omitempty"`
	CandidateID  string              `json:"candidate_id,omitempty"`
	CandidateIDs []string            `json:"candidate_ids,omitempty"`
	Count        int                 `json:"count,omitempty"`
	Summary      *types.BatchSummary `json:"summary,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// Notifier receives events. Implementations must not block for long: they
// are called synchronously from the emitting component.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

// Discard is a Notifier that drops every event.
var Discard Notifier = NotifierFunc(func(Event) {})

// Fanout delivers each event to every registered notifier in order.
type Fanout struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewFanout creates a fan-out over the given notifiers.
func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{}
	for _, n := range notifiers {
		f.Add(n)
	}
	return f
}

// Add registers another notifier. Nil notifiers are ignored.
func (f *Fanout) Add(n Notifier) {
	if n == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers = append(f.notifiers, n)
}

// Notify stamps the event time if unset and forwards it.
func (f *Fanout) Notify(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	f.mu.RLock()
	notifiers := append([]Notifier(nil), f.notifiers...)
	f.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(e)
	}
}
