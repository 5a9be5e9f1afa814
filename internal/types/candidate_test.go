package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    ScreeningStatus
		wantErr bool
	}{
		{raw: "pending", want: StatusPending},
		{raw: "  Shortlisted ", want: StatusShortlisted},
		{raw: "INTERVIEWED", want: StatusInterviewed},
		{raw: "hired", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "screening_status", vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidate_Clone(t *testing.T) {
	score := 0.5
	msg := "timeout"
	c := Candidate{ID: "c1", Skills: []string{"Go"}, ScreeningScore: &score, LastScreeningError: &msg}

	clone := c.Clone()
	clone.Skills[0] = "Rust"
	*clone.ScreeningScore = 0.9
	*clone.LastScreeningError = "other"

	assert.Equal(t, "Go", c.Skills[0])
	assert.Equal(t, 0.5, *c.ScreeningScore)
	assert.Equal(t, "timeout", *c.LastScreeningError)
}

func TestCandidate_Eligible(t *testing.T) {
	score := 0.4
	assert.True(t, Candidate{ScreeningStatus: StatusPending}.Eligible())
	assert.False(t, Candidate{ScreeningStatus: StatusScreening}.Eligible())
	assert.False(t, Candidate{ScreeningStatus: StatusRejected, ScreeningScore: &score}.Eligible())
	assert.False(t, Candidate{ScreeningStatus: StatusPending, ScreeningScore: &score}.Eligible())
}

func TestPatch_Apply(t *testing.T) {
	score := 0.8
	msg := "boom"
	c := Candidate{ID: "c1", Name: "Ada", FolderID: "f1", ScreeningStatus: StatusPending, LastScreeningError: &msg}

	ScreeningPatch("c1", StatusShortlisted, &score, nil).Apply(&c)

	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, "f1", c.FolderID)
	assert.Equal(t, StatusShortlisted, c.ScreeningStatus)
	require.NotNil(t, c.ScreeningScore)
	assert.Equal(t, 0.8, *c.ScreeningScore)
	assert.Nil(t, c.LastScreeningError, "a nil inner pointer clears the field")

	score = 0.1
	assert.Equal(t, 0.8, *c.ScreeningScore, "applied values are copied")
}

func TestPatchFromCandidate_RoundTrip(t *testing.T) {
	score := 0.3
	src := Candidate{
		ID:              "c1",
		Name:            "Ada",
		Position:        "Engineer",
		Skills:          []string{"sql", "Go"},
		AppliedAt:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		FolderID:        "f1",
		ScreeningStatus: StatusRejected,
		ScreeningScore:  &score,
	}

	var dst Candidate
	PatchFromCandidate(src).Apply(&dst)

	assert.Equal(t, src.Name, dst.Name)
	assert.Equal(t, []string{"Go", "sql"}, dst.Skills)
	assert.Equal(t, src.AppliedAt, dst.AppliedAt)
	assert.Equal(t, "f1", dst.FolderID)
	assert.Equal(t, StatusRejected, dst.ScreeningStatus)
	require.NotNil(t, dst.ScreeningScore)
	assert.NotSame(t, src.ScreeningScore, dst.ScreeningScore)
}

func TestPatchFromCandidate_LeavesEmptyFolderAlone(t *testing.T) {
	p := PatchFromCandidate(Candidate{ID: "c1"})
	assert.Nil(t, p.FolderID)
	assert.Nil(t, p.ScreeningStatus)
	assert.Nil(t, p.ScreeningScore)
}

func TestNormalizeSkills(t *testing.T) {
	assert.Nil(t, NormalizeSkills(nil))
	assert.Equal(t, []string{"Go", "kubernetes", "SQL"}, NormalizeSkills([]string{" SQL", "Go", "go", "", "kubernetes", "sql "}))
}

func TestBatchState_Terminal(t *testing.T) {
	for _, s := range []BatchState{BatchIdle, BatchSelecting, BatchInProgress} {
		assert.False(t, s.Terminal(), s)
	}
	for _, s := range []BatchState{BatchCompleted, BatchCompletedWithErrors, BatchCancelled} {
		assert.True(t, s.Terminal(), s)
	}
}

func TestBatch_Summary(t *testing.T) {
	b := Batch{
		CandidateIDs: []string{"c1", "c2", "c3", "c4"},
		Outcomes: map[string]ItemOutcome{
			"c1": {Kind: OutcomeSuccess},
			"c2": {Kind: OutcomeFailure},
			"c3": {Kind: OutcomePending},
		},
		AlreadyScreened: []string{"c9"},
	}

	assert.Equal(t, BatchSummary{Total: 4, Succeeded: 1, Failed: 1, Pending: 2, AlreadyScreened: 1}, b.Summary())
}

func TestFolderEdit_Empty(t *testing.T) {
	assert.True(t, FolderEdit{}.Empty())
	name := "x"
	assert.False(t, FolderEdit{Name: &name}.Empty())
}

func TestRequests_Validate(t *testing.T) {
	assert.NoError(t, (&CreateFolderRequest{Name: "Referrals", Color: "#059669"}).Validate())
	assert.Error(t, (&CreateFolderRequest{Name: "Referrals", Color: "green"}).Validate())
	assert.Error(t, (&CreateFolderRequest{}).Validate())

	assert.NoError(t, (&MoveRequest{TargetFolderID: "f1", CandidateIDs: []string{"c1"}}).Validate())
	assert.Error(t, (&MoveRequest{CandidateIDs: []string{"c1"}}).Validate())
	assert.Error(t, (&MoveRequest{TargetFolderID: "f1", CandidateIDs: []string{""}}).Validate())

	assert.NoError(t, (&ViewRequest{Status: "shortlisted", SortBy: "score"}).Validate())
	assert.Error(t, (&ViewRequest{Status: "hired"}).Validate())
	assert.Error(t, (&ViewRequest{SortBy: "salary"}).Validate())

	assert.Error(t, (&CandidateInput{ID: "c1"}).Validate())
}

func TestCandidateInput_ToCandidate(t *testing.T) {
	in := CandidateInput{ID: "c1", Name: "Ada", Skills: []string{"go", "Go"}, FolderID: "f1"}
	c := in.ToCandidate()
	assert.Equal(t, StatusPending, c.ScreeningStatus)
	assert.Equal(t, []string{"go"}, c.Skills)
	assert.Equal(t, "f1", c.FolderID)
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "validation error in name: required", (&ValidationError{Field: "name", Message: "required"}).Error())
	assert.Equal(t, "validation error: bad", (&ValidationError{Message: "bad"}).Error())
	assert.Equal(t, "folder not found: f9", (&NotFoundError{Kind: "folder", ID: "f9"}).Error())
	assert.Equal(t, "no candidates submitted for screening", (&EmptyBatchError{}).Error())
	assert.Contains(t, (&EmptyBatchError{Requested: 2, AlreadyScreened: []string{"a", "b"}}).Error(), "2 already screened")

	cause := errors.New("deadline exceeded")
	err := &ScoringError{CandidateID: "c1", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "scoring failed for c1: deadline exceeded", err.Error())
}
