package candidates

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/talent-pool/internal/types"
)

// Filter selects candidates. Zero-valued fields match everything.
type Filter struct {
	Text     string                // matched against name, position, company and skills
	Status   types.ScreeningStatus // exact status match
	FolderID string                // exact folder match
}

// SortField names the attribute used to order query results.
type SortField string

// Sort fields
const (
	SortByName      SortField = "name"
	SortByAppliedAt SortField = "applied_at"
	SortByScore     SortField = "score"
	SortByStatus    SortField = "status"
)

// Sort orders query results. Ties are always broken by ascending id.
type Sort struct {
	Field SortField `json:"field"`
	Desc  bool      `json:"desc"`
}

// ParseSortField converts a raw string into a SortField, defaulting to name.
func ParseSortField(raw string) (SortField, error) {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortByName:
		return SortByName, nil
	case SortByAppliedAt:
		return SortByAppliedAt, nil
	case SortByScore:
		return SortByScore, nil
	case SortByStatus:
		return SortByStatus, nil
	default:
		return "", &types.ValidationError{Field: "sort", Message: "unknown sort field " + raw}
	}
}

// Matches reports whether c satisfies the filter.
func (f Filter) Matches(c *types.Candidate) bool {
	if f.FolderID != "" && c.FolderID != f.FolderID {
		return false
	}
	if f.Status != "" && c.ScreeningStatus != f.Status {
		return false
	}
	if f.Text == "" {
		return true
	}
	needle := normalizeText(f.Text)
	if needle == "" {
		return true
	}
	if strings.Contains(normalizeText(c.Name), needle) ||
		strings.Contains(normalizeText(c.Position), needle) ||
		strings.Contains(normalizeText(c.Company), needle) {
		return true
	}
	for _, skill := range c.Skills {
		if strings.Contains(normalizeText(skill), needle) {
			return true
		}
	}
	return false
}

// Query returns copies of the candidates matching filter, ordered by sort.
func (s *Store) Query(filter Filter, order Sort) []types.Candidate {
	s.mu.RLock()
	out := make([]types.Candidate, 0)
	for _, c := range s.byID {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	s.mu.RUnlock()

	less := comparator(order.Field)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if cmp := less(a, b); cmp != 0 {
			if order.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return a.ID < b.ID
	})
	return out
}

// QueryIDs is Query without the copies, for callers that only need ids.
func (s *Store) QueryIDs(filter Filter, order Sort) []string {
	results := s.Query(filter, order)
	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}
	return ids
}

// comparator returns a three-way compare for the given field.
func comparator(field SortField) func(a, b *types.Candidate) int {
	switch field {
	case SortByAppliedAt:
		return func(a, b *types.Candidate) int {
			return a.AppliedAt.Compare(b.AppliedAt)
		}
	case SortByScore:
		// Unscored candidates sort before any scored one.
		return func(a, b *types.Candidate) int {
			switch {
			case a.ScreeningScore == nil && b.ScreeningScore == nil:
				return 0
			case a.ScreeningScore == nil:
				return -1
			case b.ScreeningScore == nil:
				return 1
			case *a.ScreeningScore < *b.ScreeningScore:
				return -1
			case *a.ScreeningScore > *b.ScreeningScore:
				return 1
			default:
				return 0
			}
		}
	case SortByStatus:
		return func(a, b *types.Candidate) int {
			return statusRank(a.ScreeningStatus) - statusRank(b.ScreeningStatus)
		}
	default:
		return func(a, b *types.Candidate) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
}

func statusRank(s types.ScreeningStatus) int {
	for i, known := range types.AllStatuses {
		if s == known {
			return i
		}
	}
	return len(types.AllStatuses)
}

// normalizeText applies NFKC normalisation and lowercases for matching.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
