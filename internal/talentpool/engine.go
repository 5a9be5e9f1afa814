// Package talentpool wires the candidate store, folder taxonomy, assignment
// service, screening orchestrator and selection controller into one engine.
package talentpool

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jonathan/talent-pool/internal/assignment"
	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/folders"
	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/screening"
	"github.com/jonathan/talent-pool/internal/selection"
	"github.com/jonathan/talent-pool/internal/types"
)

// DefaultEventBufferSize bounds the in-memory event history.
const DefaultEventBufferSize = 500

// Options configures an Engine.
type Options struct {
	Screening       screening.Options
	EventBufferSize int
	// EventLogger receives one line per event when set.
	EventLogger *log.Logger
	// Notifiers are extra sinks appended to the fan-out.
	Notifiers []events.Notifier
}

// Engine is the talent-pool core.
type Engine struct {
	Store     *candidates.Store
	Folders   *folders.Manager
	Assign    *assignment.Service
	Screening *screening.Orchestrator
	Selection *selection.Controller
	Events    *events.Bus

	notifier *events.Fanout
}

// New builds an engine around scorer.
func New(scorer screening.Scorer, opts Options) *Engine {
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = DefaultEventBufferSize
	}

	store := candidates.NewStore()
	bus := events.NewBus(opts.EventBufferSize)
	fanout := events.NewFanout(bus)
	if opts.EventLogger != nil {
		fanout.Add(events.NewLogNotifier(opts.EventLogger))
	}

	mgr := folders.NewManager(store, fanout)
	svc := assignment.NewService(store, mgr, mgr.Locks(), fanout)
	mgr.SetReassigner(svc)

	sel := selection.NewController(store)
	fanout.Add(sel)
	for _, n := range opts.Notifiers {
		fanout.Add(n)
	}

	return &Engine{
		Store:     store,
		Folders:   mgr,
		Assign:    svc,
		Screening: screening.NewOrchestrator(store, scorer, fanout, opts.Screening),
		Selection: sel,
		Events:    bus,
		notifier:  fanout,
	}
}

// IngestResult reports what an ingest call did.
type IngestResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Ingest adds or refreshes candidates. New candidates start pending in
// their requested folder, or the default folder when none is given.
// Existing candidates only get their profile fields refreshed: their folder
// and screening state are left alone. The whole call fails before any write
// if an input is invalid or names an unknown folder.
//
// The shared lock of every folder receiving a new candidate is held from the
// existence check through the write, so a concurrent folder delete either
// finishes first (and the ingest fails) or waits for the new members and
// reassigns them.
func (e *Engine) Ingest(inputs []types.CandidateInput) (IngestResult, error) {
	var res IngestResult
	patches := make([]types.Patch, 0, len(inputs))
	defaultID := e.Folders.DefaultID()
	targets := make(map[string]struct{})

	for i := range inputs {
		in := inputs[i]
		if err := in.Validate(); err != nil {
			return IngestResult{}, &types.ValidationError{Field: "candidates", Message: fmt.Sprintf("candidate %d: %v", i, err)}
		}

		if e.Store.Has(in.ID) {
			p := types.PatchFromCandidate(in.ToCandidate())
			p.FolderID = nil
			p.ScreeningStatus = nil
			patches = append(patches, p)
			res.Updated++
			continue
		}

		if in.FolderID == "" {
			in.FolderID = defaultID
		}
		targets[in.FolderID] = struct{}{}
		patches = append(patches, types.PatchFromCandidate(in.ToCandidate()))
		res.Created++
	}

	// Sorted so two ingests never wait on each other's locks in opposite order
	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		unlock := e.Folders.Locks().RLock(id)
		defer unlock()
	}
	for _, id := range ids {
		if !e.Folders.Exists(id) {
			return IngestResult{}, &types.NotFoundError{Kind: "folder", ID: id}
		}
	}

	if err := e.Store.Upsert(patches); err != nil {
		return IngestResult{}, fmt.Errorf("failed to ingest candidates: %w", err)
	}
	if len(patches) > 0 {
		e.notifier.Notify(events.Event{
			Type:    events.CandidatesLoaded,
			Count:   len(patches),
			Message: fmt.Sprintf("%d created, %d updated", res.Created, res.Updated),
		})
	}
	return res, nil
}

// LoadFeed creates the feed's folders that do not exist yet and ingests its
// candidates, resolving folder names to ids.
func (e *Engine) LoadFeed(feed *ingestion.Feed) (IngestResult, error) {
	ids := make(map[string]string)
	for _, f := range feed.Folders {
		if existing, ok := e.Folders.FindByName(f.Name); ok {
			ids[foldKey(f.Name)] = existing.ID
			continue
		}
		created, err := e.Folders.Create(f.Name, f.Description, f.Color)
		if err != nil {
			return IngestResult{}, fmt.Errorf("failed to create folder %q: %w", f.Name, err)
		}
		ids[foldKey(f.Name)] = created.ID
	}

	inputs := make([]types.CandidateInput, 0, len(feed.Candidates))
	for _, c := range feed.Candidates {
		in := c.CandidateInput
		if c.Folder != "" {
			id, ok := ids[foldKey(c.Folder)]
			if !ok {
				folder, found := e.Folders.FindByName(c.Folder)
				if !found {
					return IngestResult{}, &types.NotFoundError{Kind: "folder", ID: c.Folder}
				}
				id = folder.ID
			}
			in.FolderID = id
		}
		inputs = append(inputs, in)
	}
	return e.Ingest(inputs)
}

// Hydrate replaces the engine's state with previously saved folders and
// candidates.
func (e *Engine) Hydrate(saved []types.Folder, cands []types.Candidate) error {
	if len(saved) > 0 {
		if err := e.Folders.Restore(saved); err != nil {
			return fmt.Errorf("failed to restore folders: %w", err)
		}
	}
	defaultID := e.Folders.DefaultID()

	patches := make([]types.Patch, 0, len(cands))
	for _, c := range cands {
		if c.FolderID == "" || !e.Folders.Exists(c.FolderID) {
			c.FolderID = defaultID
		}
		// A candidate caught mid-screen when the state was saved is screenable again
		if c.ScreeningStatus == types.StatusScreening {
			c.ScreeningStatus = types.StatusPending
		}
		patches = append(patches, types.PatchFromCandidate(c))
	}
	if err := e.Store.Upsert(patches); err != nil {
		return fmt.Errorf("failed to restore candidates: %w", err)
	}
	return e.Folders.CheckInvariants()
}

// Snapshot returns the folders and candidates for persistence.
func (e *Engine) Snapshot() ([]types.Folder, []types.Candidate) {
	return e.Folders.List(), e.Store.All()
}

// Query returns the candidates matching filter in the requested order.
func (e *Engine) Query(filter candidates.Filter, order candidates.Sort) []types.Candidate {
	return e.Store.Query(filter, order)
}

// CountByFolder returns the live member count of a folder.
func (e *Engine) CountByFolder(folderID string) int {
	return e.Store.CountByFolder(folderID)
}

// MoveSelection moves the selected candidates into target.
func (e *Engine) MoveSelection(ctx context.Context, target string) assignment.BatchResult {
	return e.Assign.MoveMany(ctx, e.Selection.Selected(), target)
}

// ScreenSelection starts a batch for the selected candidates. The selection
// is cleared when that batch finishes.
func (e *Engine) ScreenSelection(ctx context.Context) (types.Batch, error) {
	b, err := e.Screening.StartBatch(ctx, e.Selection.Selected())
	if err != nil {
		return types.Batch{}, err
	}
	e.Selection.MarkSubmitted(b.ID)
	// The batch may have finished before it was marked
	if done, err := e.Screening.GetBatchStatus(b.ID); err == nil && done.State.Terminal() {
		e.Selection.Notify(events.Event{Type: events.BatchFinished, BatchID: b.ID, BatchState: done.State})
	}
	return b, nil
}

// ScreenPending starts a batch over every eligible candidate.
func (e *Engine) ScreenPending(ctx context.Context) (types.Batch, error) {
	ids := e.Store.QueryIDs(candidates.Filter{Status: types.StatusPending}, candidates.Sort{Field: candidates.SortByAppliedAt})
	return e.Screening.StartBatch(ctx, ids)
}

// Shutdown stops running batches and waits for them to reconcile.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.Screening.Shutdown(ctx)
}

func foldKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
