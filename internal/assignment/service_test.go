package assignment

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/folders"
	"github.com/jonathan/talent-pool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *candidates.Store
	folders *folders.Manager
	svc     *Service
	bus     *events.Bus
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	store := candidates.NewStore()
	bus := events.NewBus(100)
	mgr := folders.NewManager(store, bus)
	svc := NewService(store, mgr, mgr.Locks(), bus)
	mgr.SetReassigner(svc)

	patches := make([]types.Patch, 0, len(ids))
	for _, id := range ids {
		patches = append(patches, types.PatchFromCandidate(types.Candidate{
			ID:              id,
			Name:            "Candidate " + id,
			FolderID:        mgr.DefaultID(),
			ScreeningStatus: types.StatusPending,
		}))
	}
	require.NoError(t, store.Upsert(patches))
	return &fixture{store: store, folders: mgr, svc: svc, bus: bus}
}

func (f *fixture) count(t *testing.T, folderID string) int {
	t.Helper()
	folder, err := f.folders.Get(folderID)
	require.NoError(t, err)
	return folder.Count
}

func TestMoveOne_UpdatesCounts(t *testing.T) {
	f := newFixture(t, "c1", "c2")
	referrals, err := f.folders.Create("Referrals", "", "")
	require.NoError(t, err)

	defBefore := f.count(t, f.folders.DefaultID())
	refBefore := f.count(t, referrals.ID)

	res, err := f.svc.MoveOne(context.Background(), "c1", referrals.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMoved, res.Status)
	assert.Equal(t, f.folders.DefaultID(), res.FromFolder)

	assert.Equal(t, defBefore-1, f.count(t, f.folders.DefaultID()))
	assert.Equal(t, refBefore+1, f.count(t, referrals.ID))
	assert.NoError(t, f.folders.CheckInvariants())
}

func TestMoveOne_SecondMoveIsNoOp(t *testing.T) {
	f := newFixture(t, "c1")
	referrals, err := f.folders.Create("Referrals", "", "")
	require.NoError(t, err)

	_, err = f.svc.MoveOne(context.Background(), "c1", referrals.ID)
	require.NoError(t, err)
	eventsAfterFirst := f.bus.LastSeq()

	res, err := f.svc.MoveOne(context.Background(), "c1", referrals.ID)
	var noop *types.NoOpError
	require.ErrorAs(t, err, &noop)
	assert.Equal(t, StatusNoOp, res.Status)
	assert.Equal(t, 1, f.count(t, referrals.ID))
	assert.Equal(t, eventsAfterFirst, f.bus.LastSeq(), "no-op must not emit")
}

func TestMoveOne_NotFound(t *testing.T) {
	f := newFixture(t, "c1")

	_, err := f.svc.MoveOne(context.Background(), "ghost", f.folders.DefaultID())
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "candidate", nf.Kind)

	_, err = f.svc.MoveOne(context.Background(), "c1", "missing-folder")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "folder", nf.Kind)

	got, _ := f.store.Get("c1")
	assert.Equal(t, f.folders.DefaultID(), got.FolderID)
}

func TestMoveMany_FailIndependent(t *testing.T) {
	f := newFixture(t, "c1", "c2", "c3")
	referrals, err := f.folders.Create("Referrals", "", "")
	require.NoError(t, err)

	_, err = f.svc.MoveOne(context.Background(), "c2", referrals.ID)
	require.NoError(t, err)

	res := f.svc.MoveMany(context.Background(), []string{"c1", "ghost", "c2", "c3"}, referrals.ID)

	require.Len(t, res.Results, 4)
	assert.Equal(t, StatusMoved, res.Results[0].Status)
	assert.Equal(t, StatusFailed, res.Results[1].Status)
	assert.Contains(t, res.Results[1].Error, "not found")
	assert.Equal(t, StatusNoOp, res.Results[2].Status)
	assert.Equal(t, StatusMoved, res.Results[3].Status)

	assert.Equal(t, 2, res.Moved)
	assert.Equal(t, 1, res.NoOps)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, f.count(t, referrals.ID))
	assert.Equal(t, 0, f.count(t, f.folders.DefaultID()))
}

func TestMoveMany_UnknownTargetFailsEveryItem(t *testing.T) {
	f := newFixture(t, "c1", "c2")

	res := f.svc.MoveMany(context.Background(), []string{"c1", "c2"}, "missing")
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Moved)
}

func TestMoveMany_CancelledContext(t *testing.T) {
	f := newFixture(t, "c1", "c2")
	referrals, err := f.folders.Create("Referrals", "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.svc.MoveMany(ctx, []string{"c1", "c2"}, referrals.ID)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, f.count(t, referrals.ID))
}

func TestMoveMany_ConcurrentWithDelete(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%02d", i)
	}
	f := newFixture(t, ids...)
	doomed, err := f.folders.Create("Doomed", "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.svc.MoveMany(context.Background(), ids, doomed.ID)
	}()
	go func() {
		defer wg.Done()
		_, _ = f.folders.Delete(doomed.ID)
	}()
	wg.Wait()

	// Whatever the interleaving, nobody points at a removed folder
	require.NoError(t, f.folders.CheckInvariants())
	total := 0
	for _, folder := range f.folders.List() {
		total += folder.Count
	}
	assert.Equal(t, len(ids), total)
}

func TestDeleteFolder_ReassignsThroughService(t *testing.T) {
	f := newFixture(t, "c1", "c2", "c3")
	referrals, err := f.folders.Create("Referrals", "", "")
	require.NoError(t, err)

	res := f.svc.MoveMany(context.Background(), []string{"c1", "c2"}, referrals.ID)
	require.Equal(t, 2, res.Moved)

	defBefore := f.count(t, f.folders.DefaultID())
	del, err := f.folders.Delete(referrals.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, del.Reassigned)
	assert.Equal(t, defBefore+2, f.count(t, f.folders.DefaultID()))

	last := f.bus.Since(0)
	var sawReassign bool
	for _, e := range last {
		if e.Type == events.CandidatesMoved && e.Count == 2 && e.FolderID == f.folders.DefaultID() {
			sawReassign = true
		}
	}
	assert.True(t, sawReassign)
}
