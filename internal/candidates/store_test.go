package candidates

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/talent-pool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newCandidate(id, name, folder string) types.Candidate {
	return types.Candidate{
		ID:              id,
		Name:            name,
		FolderID:        folder,
		ScreeningStatus: types.StatusPending,
		AppliedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func seed(t *testing.T, s *Store, cs ...types.Candidate) {
	t.Helper()
	patches := make([]types.Patch, 0, len(cs))
	for _, c := range cs {
		patches = append(patches, types.PatchFromCandidate(c))
	}
	require.NoError(t, s.Upsert(patches))
}

func TestUpsert_CreatesAndMerges(t *testing.T) {
	s := NewStore()
	seed(t, s, newCandidate("c1", "Ada", "default"))

	// Partial update: only the position changes
	require.NoError(t, s.Upsert([]types.Patch{{ID: "c1", Position: strPtr("Engineer")}}))

	got, ok := s.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "Engineer", got.Position)
	assert.Equal(t, "default", got.FolderID)
	assert.Equal(t, types.StatusPending, got.ScreeningStatus)
}

func TestUpsert_IsIdempotent(t *testing.T) {
	s := NewStore()
	c := newCandidate("c1", "Ada", "default")
	seed(t, s, c)
	seed(t, s, c)

	assert.Equal(t, 1, s.Len())
	got, _ := s.Get("c1")
	assert.Equal(t, c.Name, got.Name)
}

func TestUpsert_NewCandidateRequiresFolder(t *testing.T) {
	s := NewStore()
	err := s.Upsert([]types.Patch{{ID: "c1", Name: strPtr("Ada")}})

	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, s.Len())
}

func TestUpsert_InvalidBatchAppliesNothing(t *testing.T) {
	s := NewStore()
	seed(t, s, newCandidate("c1", "Ada", "default"))

	bad := types.ScreeningStatus("bogus")
	err := s.Upsert([]types.Patch{
		{ID: "c1", Name: strPtr("Changed")},
		{ID: "c1", ScreeningStatus: &bad},
	})
	require.Error(t, err)

	got, _ := s.Get("c1")
	assert.Equal(t, "Ada", got.Name)
}

func TestUpsert_ScreeningPatchLeavesFolderAlone(t *testing.T) {
	s := NewStore()
	seed(t, s, newCandidate("c1", "Ada", "default"))

	_, err := s.SetFolder("c1", "referrals")
	require.NoError(t, err)

	score := 0.9
	require.NoError(t, s.Upsert([]types.Patch{types.ScreeningPatch("c1", types.StatusShortlisted, &score, nil)}))

	got, _ := s.Get("c1")
	assert.Equal(t, "referrals", got.FolderID)
	assert.Equal(t, types.StatusShortlisted, got.ScreeningStatus)
	require.NotNil(t, got.ScreeningScore)
	assert.InDelta(t, 0.9, *got.ScreeningScore, 1e-9)
}

func TestUpsert_ClearsScoreWithExplicitNil(t *testing.T) {
	s := NewStore()
	c := newCandidate("c1", "Ada", "default")
	score := 0.4
	c.ScreeningScore = &score
	seed(t, s, c)

	require.NoError(t, s.Upsert([]types.Patch{types.ScreeningPatch("c1", types.StatusPending, nil, strPtr("timeout"))}))

	got, _ := s.Get("c1")
	assert.Nil(t, got.ScreeningScore)
	require.NotNil(t, got.LastScreeningError)
	assert.Equal(t, "timeout", *got.LastScreeningError)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewStore()
	c := newCandidate("c1", "Ada", "default")
	c.Skills = []string{"go"}
	seed(t, s, c)

	got, _ := s.Get("c1")
	got.Skills[0] = "mutated"
	got.Name = "mutated"

	again, _ := s.Get("c1")
	assert.Equal(t, "Ada", again.Name)
	assert.Equal(t, []string{"go"}, again.Skills)
}

func TestCountByFolder_TracksMembership(t *testing.T) {
	s := NewStore()
	seed(t, s,
		newCandidate("c1", "Ada", "default"),
		newCandidate("c2", "Bob", "default"),
		newCandidate("c3", "Cy", "referrals"),
	)

	assert.Equal(t, 2, s.CountByFolder("default"))
	assert.Equal(t, 1, s.CountByFolder("referrals"))
	assert.Equal(t, 0, s.CountByFolder("missing"))

	_, err := s.SetFolder("c1", "referrals")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CountByFolder("default"))
	assert.Equal(t, 2, s.CountByFolder("referrals"))
	assert.Equal(t, map[string]int{"default": 1, "referrals": 2}, s.CountsByFolder())
}

func TestSetFolder_UnknownCandidate(t *testing.T) {
	s := NewStore()
	_, err := s.SetFolder("nope", "default")

	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "candidate", nf.Kind)
}

func TestReassignFolder(t *testing.T) {
	s := NewStore()
	seed(t, s,
		newCandidate("c1", "Ada", "a"),
		newCandidate("c2", "Bob", "a"),
		newCandidate("c3", "Cy", "b"),
	)

	n := s.ReassignFolder("a", "default")
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.CountByFolder("a"))
	assert.Equal(t, 2, s.CountByFolder("default"))
	assert.Equal(t, 1, s.CountByFolder("b"))
}

func TestClaimForScreening(t *testing.T) {
	s := NewStore()
	scored := newCandidate("c2", "Bob", "default")
	score := 0.5
	scored.ScreeningScore = &score
	scored.ScreeningStatus = types.StatusRejected
	seed(t, s, newCandidate("c1", "Ada", "default"), scored)

	res := s.ClaimForScreening([]string{"c1", "c2"})
	assert.Equal(t, []string{"c1"}, res.Claimed)
	assert.Equal(t, []string{"c2"}, res.AlreadyScreened)
	assert.Empty(t, res.Missing)

	got, _ := s.Get("c1")
	assert.Equal(t, types.StatusScreening, got.ScreeningStatus)

	// A second claim must not pick up a candidate already mid-screening
	res = s.ClaimForScreening([]string{"c1"})
	assert.Empty(t, res.Claimed)
	assert.Equal(t, []string{"c1"}, res.AlreadyScreened)
}

func TestClaimForScreening_MissingClaimsNothing(t *testing.T) {
	s := NewStore()
	seed(t, s, newCandidate("c1", "Ada", "default"))

	res := s.ClaimForScreening([]string{"c1", "ghost"})
	assert.Equal(t, []string{"ghost"}, res.Missing)
	assert.Empty(t, res.Claimed)

	got, _ := s.Get("c1")
	assert.Equal(t, types.StatusPending, got.ScreeningStatus)
}

func TestUpsert_ConcurrentFieldWritersDoNotClobber(t *testing.T) {
	s := NewStore()
	for i := 0; i < 50; i++ {
		seed(t, s, newCandidate(fmt.Sprintf("c%02d", i), "N", "default"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("c%02d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.SetFolder(id, "moved")
		}()
		go func() {
			defer wg.Done()
			score := 0.8
			_ = s.Upsert([]types.Patch{types.ScreeningPatch(id, types.StatusShortlisted, &score, nil)})
		}()
	}
	wg.Wait()

	for _, c := range s.All() {
		assert.Equal(t, "moved", c.FolderID, c.ID)
		assert.Equal(t, types.StatusShortlisted, c.ScreeningStatus, c.ID)
	}
}
