package talentpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/screening"
	"github.com/jonathan/talent-pool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constScorer(v float64) screening.Scorer {
	return screening.ScorerFunc(func(context.Context, types.Candidate) (screening.Score, error) {
		return screening.Score{Value: v}, nil
	})
}

func waitFor(t *testing.T, e *Engine, batchID string) types.Batch {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := e.Screening.Wait(ctx, batchID)
	require.NoError(t, err)
	return b
}

func ingest(t *testing.T, e *Engine, ids ...string) {
	t.Helper()
	inputs := make([]types.CandidateInput, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, types.CandidateInput{ID: id, Name: "Candidate " + id})
	}
	_, err := e.Ingest(inputs)
	require.NoError(t, err)
}

func TestIngest_DefaultsAndUpdates(t *testing.T) {
	e := New(constScorer(1), Options{})
	referrals, err := e.Folders.Create("Referrals", "", "")
	require.NoError(t, err)

	res, err := e.Ingest([]types.CandidateInput{
		{ID: "c1", Name: "Ada"},
		{ID: "c2", Name: "Bob", FolderID: referrals.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, IngestResult{Created: 2}, res)
	assert.Equal(t, 1, e.CountByFolder(e.Folders.DefaultID()))
	assert.Equal(t, 1, e.CountByFolder(referrals.ID))

	// Screen c1 so re-ingest has something to preserve
	b, err := e.Screening.StartBatch(context.Background(), []string{"c1"})
	require.NoError(t, err)
	waitFor(t, e, b.ID)

	res, err = e.Ingest([]types.CandidateInput{{ID: "c1", Name: "Ada Lovelace", FolderID: referrals.ID}})
	require.NoError(t, err)
	assert.Equal(t, IngestResult{Updated: 1}, res)

	c1, ok := e.Store.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", c1.Name)
	assert.Equal(t, e.Folders.DefaultID(), c1.FolderID, "re-ingest never moves")
	assert.Equal(t, types.StatusShortlisted, c1.ScreeningStatus)
	require.NotNil(t, c1.ScreeningScore)
}

func TestIngest_RejectsBeforeWriting(t *testing.T) {
	e := New(constScorer(1), Options{})

	_, err := e.Ingest([]types.CandidateInput{{ID: "c1", Name: "Ada"}, {ID: "c2", Name: "Bob", FolderID: "missing"}})
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = e.Ingest([]types.CandidateInput{{ID: "c3", Name: "Ada"}, {ID: "c4"}})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, e.Store.Len())
}

func TestIngest_WaitsForFolderDelete(t *testing.T) {
	e := New(constScorer(1), Options{})
	target, err := e.Folders.Create("Target", "", "")
	require.NoError(t, err)

	// Hold the folder the way an in-progress delete does
	unlock := e.Folders.Locks().Lock(target.ID)

	done := make(chan error, 1)
	go func() {
		_, err := e.Ingest([]types.CandidateInput{{ID: "c1", Name: "Ada", FolderID: target.ID}})
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("ingest finished while the folder was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, e.Store.Has("c1"))

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ingest did not finish after the folder was released")
	}
	assert.Equal(t, 1, e.CountByFolder(target.ID))
}

func TestIngest_ConcurrentFolderDelete(t *testing.T) {
	e := New(constScorer(1), Options{})

	for i := 0; i < 200; i++ {
		f, err := e.Folders.Create(fmt.Sprintf("Folder %d", i), "", "")
		require.NoError(t, err)

		var wg sync.WaitGroup
		var ingestErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, ingestErr = e.Ingest([]types.CandidateInput{{ID: fmt.Sprintf("c%d", i), Name: "Ada", FolderID: f.ID}})
		}()
		go func() {
			defer wg.Done()
			_, deleteErr = e.Folders.Delete(f.ID)
		}()
		wg.Wait()

		require.NoError(t, deleteErr)
		if ingestErr != nil {
			var nf *types.NotFoundError
			require.ErrorAs(t, ingestErr, &nf)
		}
		require.NoError(t, e.Folders.CheckInvariants(), "iteration %d", i)
	}

	for _, c := range e.Store.All() {
		assert.Equal(t, e.Folders.DefaultID(), c.FolderID, c.ID)
	}
}

func TestLoadFeed(t *testing.T) {
	e := New(constScorer(1), Options{})
	feed, err := ingestion.ParseFeed([]byte(`{
		"folders": [{"name": "Referrals"}],
		"candidates": [
			{"id": "c1", "name": "Ada", "folder": "referrals"},
			{"id": "c2", "name": "Bob"}
		]
	}`))
	require.NoError(t, err)

	res, err := e.LoadFeed(feed)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	referrals, ok := e.Folders.FindByName("Referrals")
	require.True(t, ok)
	assert.Equal(t, 1, referrals.Count)

	// Loading again reuses the folder
	_, err = e.LoadFeed(feed)
	require.NoError(t, err)
	assert.Len(t, e.Folders.List(), 2)

	last := e.Events.Since(0)
	assert.Equal(t, events.CandidatesLoaded, last[len(last)-1].Type)
}

func TestLoadFeed_UnknownFolderName(t *testing.T) {
	e := New(constScorer(1), Options{})
	feed := &ingestion.Feed{Candidates: []ingestion.FeedCandidate{{Folder: "Nope"}}}
	feed.Candidates[0].ID, feed.Candidates[0].Name = "c1", "Ada"

	_, err := e.LoadFeed(feed)
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestScreenSelection_ClearsSelectionWhenBatchFinishes(t *testing.T) {
	release := make(chan struct{})
	scorer := screening.ScorerFunc(func(context.Context, types.Candidate) (screening.Score, error) {
		<-release
		return screening.Score{Value: 0.2}, nil
	})
	e := New(scorer, Options{})
	ingest(t, e, "c1", "c2", "c3")

	e.Selection.SelectAll()
	b, err := e.ScreenSelection(context.Background())
	require.NoError(t, err)
	assert.Len(t, e.Selection.Selected(), 3, "selection stays while the batch runs")

	close(release)
	done := waitFor(t, e, b.ID)
	assert.Equal(t, types.BatchCompleted, done.State)
	assert.Empty(t, e.Selection.Selected())

	for _, c := range e.Query(candidates.Filter{}, candidates.Sort{}) {
		assert.Equal(t, types.StatusRejected, c.ScreeningStatus)
	}
}

func TestScreenSelection_EmptySelection(t *testing.T) {
	e := New(constScorer(1), Options{})
	ingest(t, e, "c1")

	_, err := e.ScreenSelection(context.Background())
	var empty *types.EmptyBatchError
	require.ErrorAs(t, err, &empty)
}

func TestMoveSelection(t *testing.T) {
	e := New(constScorer(1), Options{})
	ingest(t, e, "c1", "c2", "c3")
	referrals, err := e.Folders.Create("Referrals", "", "")
	require.NoError(t, err)

	_, err = e.Selection.Toggle("c1")
	require.NoError(t, err)
	_, err = e.Selection.Toggle("c3")
	require.NoError(t, err)

	res := e.MoveSelection(context.Background(), referrals.ID)
	assert.Equal(t, 2, res.Moved)
	assert.Equal(t, 2, e.CountByFolder(referrals.ID))
	assert.Equal(t, 1, e.CountByFolder(e.Folders.DefaultID()))
}

func TestDeleteFolder_WithSelectionInIt(t *testing.T) {
	e := New(constScorer(1), Options{})
	ingest(t, e, "c1", "c2")
	doomed, err := e.Folders.Create("Doomed", "", "")
	require.NoError(t, err)
	e.Assign.MoveMany(context.Background(), []string{"c1", "c2"}, doomed.ID)

	e.Selection.NavigateFolder(doomed.ID)
	e.Selection.SelectAll()

	_, err = e.Folders.Delete(doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, e.Selection.Selected())
	assert.Equal(t, 2, e.CountByFolder(e.Folders.DefaultID()))
	assert.NoError(t, e.Folders.CheckInvariants())
}

func TestHydrateAndSnapshot(t *testing.T) {
	e := New(constScorer(1), Options{})
	score := 0.4
	require.NoError(t, e.Hydrate(
		[]types.Folder{{ID: "f-default", Name: "All Candidates", IsDefault: true}, {ID: "f-2", Name: "Interns"}},
		[]types.Candidate{
			{ID: "c1", Name: "Ada", FolderID: "f-2", ScreeningStatus: types.StatusScreening},
			{ID: "c2", Name: "Bob", FolderID: "gone", ScreeningStatus: types.StatusRejected, ScreeningScore: &score},
		},
	))

	c1, _ := e.Store.Get("c1")
	assert.Equal(t, types.StatusPending, c1.ScreeningStatus)
	c2, _ := e.Store.Get("c2")
	assert.Equal(t, "f-default", c2.FolderID)

	folders, cands := e.Snapshot()
	assert.Len(t, folders, 2)
	assert.Len(t, cands, 2)
	assert.Equal(t, 1, folders[0].Count)
}

func TestEventLogger(t *testing.T) {
	var buf bytes.Buffer
	e := New(constScorer(1), Options{EventLogger: log.New(&buf, "", 0)})

	_, err := e.Folders.Create("Referrals", "", "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "folder_created")
}

func TestScreenPending_FailuresStayPending(t *testing.T) {
	scorer := screening.ScorerFunc(func(_ context.Context, c types.Candidate) (screening.Score, error) {
		if c.ID == "c2" {
			return screening.Score{}, errors.New("upstream timeout")
		}
		return screening.Score{Value: 0.9}, nil
	})
	e := New(scorer, Options{})
	ingest(t, e, "c1", "c2")

	b, err := e.ScreenPending(context.Background())
	require.NoError(t, err)
	done := waitFor(t, e, b.ID)
	assert.Equal(t, types.BatchCompletedWithErrors, done.State)

	pending := e.Query(candidates.Filter{Status: types.StatusPending}, candidates.Sort{})
	require.Len(t, pending, 1)
	assert.Equal(t, "c2", pending[0].ID)
	require.NotNil(t, pending[0].LastScreeningError)

	// A failed candidate is eligible for the next batch
	_, err = e.ScreenPending(context.Background())
	require.NoError(t, err)
}
