// Package selection tracks which candidates are selected in the current view
// and keeps that selection consistent with navigation and batch lifecycle.
package selection

import (
	"sort"
	"sync"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// Querier resolves a view into the ordered ids visible in it.
type Querier interface {
	QueryIDs(filter candidates.Filter, order candidates.Sort) []string
}

// View is the folder, filter and ordering the selection is made against.
type View struct {
	FolderID string                `json:"folder_id,omitempty"`
	Text     string                `json:"text,omitempty"`
	Status   types.ScreeningStatus `json:"status,omitempty"`
	Sort     candidates.Sort       `json:"sort"`
}

func (v View) filter() candidates.Filter {
	return candidates.Filter{Text: v.Text, Status: v.Status, FolderID: v.FolderID}
}

// State is a snapshot of the controller.
type State struct {
	View     View     `json:"view"`
	Selected []string `json:"selected"`
	Visible  int      `json:"visible"`
	Pending  []string `json:"pending_batches,omitempty"`
}

// Controller holds the selection for one view at a time.
type Controller struct {
	mu        sync.Mutex
	q         Querier
	view      View
	selected  map[string]struct{}
	submitted map[string]struct{}
}

// NewController creates a controller showing every candidate, sorted by name.
func NewController(q Querier) *Controller {
	return &Controller{
		q:         q,
		view:      View{Sort: candidates.Sort{Field: candidates.SortByName}},
		selected:  make(map[string]struct{}),
		submitted: make(map[string]struct{}),
	}
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView replaces the view. Changing folder clears the selection; changing
// only the filter or ordering keeps the ids that are still visible.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v.FolderID != c.view.FolderID {
		c.view = v
		c.clearLocked()
		return
	}
	c.view = v
	c.pruneLocked()
}

// NavigateFolder switches to folderID ("" for all folders) and clears the
// selection, keeping the current filter and ordering.
func (c *Controller) NavigateFolder(folderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.FolderID = folderID
	c.clearLocked()
}

// SetFilter changes the text and status filter and prunes the selection to
// what remains visible.
func (c *Controller) SetFilter(text string, status types.ScreeningStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Text = text
	c.view.Status = status
	c.pruneLocked()
}

// Toggle flips the selection of id and reports whether it is now selected.
// Only ids visible in the current view can be selected.
func (c *Controller) Toggle(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false, nil
	}
	if !c.visibleLocked(id) {
		return false, &types.ValidationError{Field: "candidate_id", Message: "candidate " + id + " is not visible in the current view"}
	}
	c.selected[id] = struct{}{}
	return true, nil
}

// SelectAll selects every id in the current view. The view is re-queried on
// each call so newly visible candidates are included.
func (c *Controller) SelectAll() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.q.QueryIDs(c.view.filter(), c.view.Sort)
	for _, id := range ids {
		c.selected[id] = struct{}{}
	}
	return ids
}

// Clear empties the selection.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Selected returns the selected ids in view order. Ids that have left the
// view since they were selected are dropped.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

// MarkSubmitted remembers that batchID was started from the current
// selection. The selection is cleared once that batch finishes.
func (c *Controller) MarkSubmitted(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted[batchID] = struct{}{}
}

// Snapshot returns the view, the selection and the size of the view.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := c.q.QueryIDs(c.view.filter(), c.view.Sort)
	st := State{View: c.view, Selected: c.orderedLocked(visible), Visible: len(visible)}
	for id := range c.submitted {
		st.Pending = append(st.Pending, id)
	}
	sort.Strings(st.Pending)
	return st
}

// Notify implements events.Notifier.
func (c *Controller) Notify(e events.Event) {
	if e.Type != events.BatchFinished {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.submitted[e.BatchID]; !ok {
		return
	}
	delete(c.submitted, e.BatchID)
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.selected = make(map[string]struct{})
}

func (c *Controller) visibleLocked(id string) bool {
	for _, v := range c.q.QueryIDs(c.view.filter(), c.view.Sort) {
		if v == id {
			return true
		}
	}
	return false
}

// pruneLocked drops selected ids that are no longer visible and returns the
// remainder in view order.
func (c *Controller) pruneLocked() []string {
	ordered := c.orderedLocked(c.q.QueryIDs(c.view.filter(), c.view.Sort))
	if len(ordered) != len(c.selected) {
		keep := make(map[string]struct{}, len(ordered))
		for _, id := range ordered {
			keep[id] = struct{}{}
		}
		c.selected = keep
	}
	return ordered
}

func (c *Controller) orderedLocked(visible []string) []string {
	out := make([]string, 0, len(c.selected))
	for _, id := range visible {
		if _, ok := c.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
