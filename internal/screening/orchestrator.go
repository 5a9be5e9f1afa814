package screening

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// Store is the subset of the candidate store the orchestrator needs.
type Store interface {
	Get(id string) (types.Candidate, bool)
	ClaimForScreening(ids []string) candidates.ClaimResult
	Upsert(patches []types.Patch) error
}

// Options tunes an Orchestrator. Zero values fall back to defaults.
type Options struct {
	Concurrency int
	ItemTimeout time.Duration
	HistorySize int
	Policy      Policy
}

// Defaults
const (
	DefaultConcurrency = 4
	DefaultItemTimeout = 30 * time.Second
	DefaultHistorySize = 50
)

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = DefaultItemTimeout
	}
	if o.HistorySize <= 0 {
		o.HistorySize = DefaultHistorySize
	}
	if o.Policy == nil {
		o.Policy = ThresholdPolicy{Shortlist: DefaultShortlistThreshold}
	}
	return o
}

// Orchestrator owns every screening batch: it claims candidates, runs the
// scorer over them with bounded concurrency and merges the results back.
type Orchestrator struct {
	store    Store
	scorer   Scorer
	notifier events.Notifier
	opts     Options

	mu      sync.Mutex
	batches map[string]*batch
	history []string // terminal batch ids, oldest first
	wg      sync.WaitGroup

	now func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(store Store, scorer Scorer, notifier events.Notifier, opts Options) *Orchestrator {
	if notifier == nil {
		notifier = events.Discard
	}
	return &Orchestrator{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		opts:     opts.withDefaults(),
		batches:  make(map[string]*batch),
		now:      time.Now,
	}
}

type batch struct {
	mu              sync.Mutex
	id              string
	state           types.BatchState
	ids             []string
	outcomes        map[string]types.ItemOutcome
	alreadyScreened []string
	cancelRequested bool
	message         string
	createdAt       time.Time
	finishedAt      *time.Time

	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

// validTransitions lists the allowed batch state changes.
var validTransitions = map[types.BatchState][]types.BatchState{
	types.BatchIdle:       {types.BatchSelecting},
	types.BatchSelecting:  {types.BatchInProgress},
	types.BatchInProgress: {types.BatchCompleted, types.BatchCompletedWithErrors, types.BatchCancelled},
}

func isValidTransition(from, to types.BatchState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition must be called with b.mu held.
func (b *batch) transition(to types.BatchState) error {
	if !isValidTransition(b.state, to) {
		return fmt.Errorf("invalid batch transition %s -> %s", b.state, to)
	}
	b.state = to
	return nil
}

func (b *batch) snapshot() types.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := types.Batch{
		ID:              b.id,
		State:           b.state,
		CandidateIDs:    append([]string(nil), b.ids...),
		Outcomes:        make(map[string]types.ItemOutcome, len(b.outcomes)),
		AlreadyScreened: append([]string(nil), b.alreadyScreened...),
		CancelRequested: b.cancelRequested,
		Message:         b.message,
		CreatedAt:       b.createdAt,
	}
	for id, o := range b.outcomes {
		if o.Score != nil {
			v := *o.Score
			o.Score = &v
		}
		out.Outcomes[id] = o
	}
	if b.finishedAt != nil {
		t := *b.finishedAt
		out.FinishedAt = &t
	}
	return out
}

func (b *batch) cancelled() bool {
	select {
	case <-b.cancel:
		return true
	default:
		return false
	}
}

func (b *batch) record(id string, o types.ItemOutcome) {
	b.mu.Lock()
	b.outcomes[id] = o
	b.mu.Unlock()
}

// StartBatch claims the eligible candidates among ids and begins screening
// them in the background. It fails with *types.NotFoundError when any id is
// unknown and *types.EmptyBatchError when none is eligible; in both cases
// nothing is modified and no batch is created.
func (o *Orchestrator) StartBatch(ctx context.Context, ids []string) (types.Batch, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return types.Batch{}, &types.EmptyBatchError{}
	}
	if err := ctx.Err(); err != nil {
		return types.Batch{}, err
	}

	b := &batch{
		id:        uuid.New().String(),
		state:     types.BatchIdle,
		outcomes:  make(map[string]types.ItemOutcome),
		createdAt: o.now(),
		cancel:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	b.mu.Lock()
	_ = b.transition(types.BatchSelecting)
	b.mu.Unlock()

	claim := o.store.ClaimForScreening(ids)
	if len(claim.Missing) > 0 {
		return types.Batch{}, &types.NotFoundError{Kind: "candidate", ID: claim.Missing[0]}
	}
	if len(claim.Claimed) == 0 {
		return types.Batch{}, &types.EmptyBatchError{Requested: len(ids), AlreadyScreened: claim.AlreadyScreened}
	}

	b.mu.Lock()
	b.ids = claim.Claimed
	b.alreadyScreened = claim.AlreadyScreened
	for _, id := range b.ids {
		b.outcomes[id] = types.ItemOutcome{Kind: types.OutcomePending}
	}
	_ = b.transition(types.BatchInProgress)
	b.mu.Unlock()

	o.mu.Lock()
	o.batches[b.id] = b
	o.wg.Add(1)
	o.mu.Unlock()

	log.Printf("[screening] batch %s started: %d claimed, %d already screened", b.id, len(claim.Claimed), len(claim.AlreadyScreened))
	o.notifier.Notify(events.Event{
		Type:         events.BatchStarted,
		BatchID:      b.id,
		BatchState:   types.BatchInProgress,
		CandidateIDs: append([]string(nil), b.ids...),
		Count:        len(b.ids),
	})

	// The batch outlives the request that started it.
	go o.run(context.WithoutCancel(ctx), b)

	return b.snapshot(), nil
}

func (o *Orchestrator) run(ctx context.Context, b *batch) {
	defer o.wg.Done()

	var g errgroup.Group
	sem := make(chan struct{}, o.opts.Concurrency)

launch:
	for _, id := range b.ids {
		select {
		case <-b.cancel:
			break launch
		case sem <- struct{}{}:
		}
		if b.cancelled() {
			<-sem
			break
		}
		g.Go(func() error {
			defer func() { <-sem }()
			o.screenOne(ctx, b, id)
			return nil
		})
	}
	_ = g.Wait()

	o.finish(b)
}

func (o *Orchestrator) screenOne(ctx context.Context, b *batch, id string) {
	candidate, ok := o.store.Get(id)
	if !ok {
		o.fail(b, id, &types.NotFoundError{Kind: "candidate", ID: id})
		return
	}

	itemCtx, cancel := context.WithTimeout(ctx, o.opts.ItemTimeout)
	defer cancel()

	score, err := o.callScorer(itemCtx, candidate)
	if err == nil && itemCtx.Err() != nil {
		err = itemCtx.Err()
	}
	if err != nil {
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", o.opts.ItemTimeout, err)
		}
		o.fail(b, id, &types.ScoringError{CandidateID: id, Cause: err})
		return
	}

	value := score.Value
	b.record(id, types.ItemOutcome{
		Kind:   types.OutcomeSuccess,
		Score:  &value,
		Status: resolveOutcome(score, o.opts.Policy),
	})
}

type scoreResult struct {
	score Score
	err   error
}

// callScorer runs the scorer until it returns or ctx ends, whichever comes
// first. A scorer that ignores ctx is abandoned once the deadline passes; its
// late result is dropped. Panics become ordinary failures.
func (o *Orchestrator) callScorer(ctx context.Context, c types.Candidate) (Score, error) {
	results := make(chan scoreResult, 1)
	go func() {
		var r scoreResult
		defer func() {
			if p := recover(); p != nil {
				r = scoreResult{err: fmt.Errorf("scorer panicked: %v", p)}
			}
			results <- r
		}()
		r.score, r.err = o.scorer.Score(ctx, c)
	}()

	select {
	case r := <-results:
		return r.score, r.err
	case <-ctx.Done():
		return Score{}, ctx.Err()
	}
}

func (o *Orchestrator) fail(b *batch, id string, err error) {
	reason := err.Error()
	b.record(id, types.ItemOutcome{Kind: types.OutcomeFailure, Reason: reason})
	log.Printf("[screening] batch %s: candidate %s failed: %s", b.id, id, reason)
	o.notifier.Notify(events.Event{
		Type:        events.BatchItemFailed,
		BatchID:     b.id,
		CandidateID: id,
		Message:     reason,
	})
}

// finish merges every outcome into the store in one upsert and moves the
// batch to its terminal state.
func (o *Orchestrator) finish(b *batch) {
	b.mu.Lock()
	patches := make([]types.Patch, 0, len(b.ids))
	for _, id := range b.ids {
		out := b.outcomes[id]
		switch out.Kind {
		case types.OutcomeSuccess:
			patches = append(patches, types.ScreeningPatch(id, out.Status, out.Score, nil))
		case types.OutcomeFailure:
			reason := out.Reason
			patches = append(patches, types.ScreeningPatch(id, types.StatusPending, nil, &reason))
		default:
			patches = append(patches, types.ScreeningPatch(id, types.StatusPending, nil, nil))
		}
	}
	b.mu.Unlock()

	var message string
	if err := o.store.Upsert(patches); err != nil {
		message = o.reconcileEach(b, patches, err)
	}

	b.mu.Lock()
	failures := 0
	for _, out := range b.outcomes {
		if out.Kind == types.OutcomeFailure {
			failures++
		}
	}
	next := types.BatchCompleted
	switch {
	case b.cancelRequested:
		next = types.BatchCancelled
	case failures > 0:
		next = types.BatchCompletedWithErrors
	}
	if err := b.transition(next); err != nil {
		log.Printf("[screening] batch %s: %v", b.id, err)
	}
	b.message = message
	finished := o.now()
	b.finishedAt = &finished
	b.mu.Unlock()

	o.retire(b.id)
	// Waiters are released only after the event is out
	defer close(b.done)

	snap := b.snapshot()
	summary := snap.Summary()
	log.Printf("[screening] batch %s finished: %s (%d succeeded, %d failed, %d pending)",
		b.id, snap.State, summary.Succeeded, summary.Failed, summary.Pending)
	o.notifier.Notify(events.Event{
		Type:       events.BatchFinished,
		BatchID:    b.id,
		BatchState: snap.State,
		Count:      summary.Total,
		Summary:    &summary,
		Message:    message,
	})
}

// reconcileEach writes the patches one at a time after the single upsert
// failed. A candidate whose result still cannot be written is put back to
// pending with the write error recorded, and its outcome becomes a failure,
// so no claimed candidate is left in screening. It returns a message for the
// batch.
func (o *Orchestrator) reconcileEach(b *batch, patches []types.Patch, cause error) string {
	log.Printf("[screening] batch %s: failed to reconcile results in one upsert: %v", b.id, cause)

	var lost []string
	for _, p := range patches {
		err := o.store.Upsert([]types.Patch{p})
		if err == nil {
			continue
		}
		reason := fmt.Sprintf("failed to record screening result: %v", err)
		if rerr := o.store.Upsert([]types.Patch{types.ScreeningPatch(p.ID, types.StatusPending, nil, &reason)}); rerr != nil {
			log.Printf("[screening] batch %s: candidate %s could not be reset: %v", b.id, p.ID, rerr)
		}
		b.record(p.ID, types.ItemOutcome{Kind: types.OutcomeFailure, Reason: reason})
		lost = append(lost, p.ID)
	}

	if len(lost) == 0 {
		return fmt.Sprintf("results written one by one after a batched write failed: %v", cause)
	}
	return fmt.Sprintf("results for %s could not be recorded: %v", strings.Join(lost, ", "), cause)
}

// retire records a terminal batch and evicts the oldest ones beyond the
// configured history size.
func (o *Orchestrator) retire(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = append(o.history, id)
	for len(o.history) > o.opts.HistorySize {
		delete(o.batches, o.history[0])
		o.history = o.history[1:]
	}
}

// CancelBatch stops launching new items for the batch. In-flight items are
// allowed to finish and their results are kept; unstarted candidates revert
// to pending. Cancelling a finished batch is a no-op.
func (o *Orchestrator) CancelBatch(id string) (types.Batch, error) {
	b, err := o.lookup(id)
	if err != nil {
		return types.Batch{}, err
	}

	b.mu.Lock()
	terminal := b.state.Terminal()
	if !terminal {
		b.cancelRequested = true
	}
	b.mu.Unlock()

	if !terminal {
		b.cancelOnce.Do(func() { close(b.cancel) })
		log.Printf("[screening] batch %s: cancellation requested", id)
	}
	return b.snapshot(), nil
}

// GetBatchStatus returns a snapshot of the batch.
func (o *Orchestrator) GetBatchStatus(id string) (types.Batch, error) {
	b, err := o.lookup(id)
	if err != nil {
		return types.Batch{}, err
	}
	return b.snapshot(), nil
}

// ListBatches returns every retained batch, oldest first.
func (o *Orchestrator) ListBatches() []types.Batch {
	o.mu.Lock()
	list := make([]*batch, 0, len(o.batches))
	for _, b := range o.batches {
		list = append(list, b)
	}
	o.mu.Unlock()

	out := make([]types.Batch, 0, len(list))
	for _, b := range list {
		out = append(out, b.snapshot())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Wait blocks until the batch reaches a terminal state or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, id string) (types.Batch, error) {
	b, err := o.lookup(id)
	if err != nil {
		return types.Batch{}, err
	}
	select {
	case <-b.done:
		return b.snapshot(), nil
	case <-ctx.Done():
		return b.snapshot(), ctx.Err()
	}
}

// Shutdown cancels every running batch and waits for them to reconcile.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	var running []string
	for id, b := range o.batches {
		select {
		case <-b.done:
		default:
			running = append(running, id)
		}
	}
	o.mu.Unlock()

	for _, id := range running {
		_, _ = o.CancelBatch(id)
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain screening batches: %w", ctx.Err())
	}
}

func (o *Orchestrator) lookup(id string) (*batch, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.batches[id]
	if !ok {
		return nil, &types.NotFoundError{Kind: "batch", ID: id}
	}
	return b, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
