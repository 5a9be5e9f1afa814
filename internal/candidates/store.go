// Package candidates provides the in-memory candidate store: partial-update
// merges, filtered and sorted queries, and live folder membership counts.
package candidates

import (
	"fmt"
	"sync"

	"github.com/jonathan/talent-pool/internal/types"
)

// Store is the canonical, concurrency-safe candidate collection.
// All mutation goes through Upsert or one of the field-scoped writers.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*types.Candidate
	order []string // insertion order, used only for Len/All stability
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*types.Candidate),
	}
}

// Upsert merges patches by id under a single write lock.
// A patch for an unknown id creates the record and must carry a folder id.
// For known ids only the fields set on the patch are written.
// The slice is validated first so either every patch applies or none does.
func (s *Store) Upsert(patches []types.Patch) error {
	if len(patches) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range patches {
		if p.ID == "" {
			return &types.ValidationError{Field: fmt.Sprintf("patches[%d].id", i), Message: "id is required"}
		}
		if p.ScreeningStatus != nil && !p.ScreeningStatus.Valid() {
			return &types.ValidationError{Field: fmt.Sprintf("patches[%d].screening_status", i), Message: fmt.Sprintf("unknown status %q", *p.ScreeningStatus)}
		}
		if _, exists := s.byID[p.ID]; !exists && !createsInThisBatch(patches[:i], p.ID) {
			if p.FolderID == nil || *p.FolderID == "" {
				return &types.ValidationError{Field: fmt.Sprintf("patches[%d].folder_id", i), Message: "new candidates require a folder"}
			}
		}
	}

	for _, p := range patches {
		c, exists := s.byID[p.ID]
		if !exists {
			c = &types.Candidate{ID: p.ID, ScreeningStatus: types.StatusPending}
			s.byID[p.ID] = c
			s.order = append(s.order, p.ID)
		}
		p.Apply(c)
	}
	return nil
}

// createsInThisBatch reports whether an earlier patch in the same call
// already creates id with a folder.
func createsInThisBatch(earlier []types.Patch, id string) bool {
	for _, p := range earlier {
		if p.ID == id && p.FolderID != nil && *p.FolderID != "" {
			return true
		}
	}
	return false
}

// Get returns a copy of the candidate with the given id.
func (s *Store) Get(id string) (types.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return types.Candidate{}, false
	}
	return c.Clone(), true
}

// Has reports whether a candidate exists.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of candidates in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// All returns copies of every candidate in insertion order.
func (s *Store) All() []types.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// CountByFolder counts current members of a folder. It is never cached.
func (s *Store) CountByFolder(folderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.byID {
		if c.FolderID == folderID {
			n++
		}
	}
	return n
}

// CountsByFolder returns member counts for every folder id that has members.
func (s *Store) CountsByFolder() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.byID {
		counts[c.FolderID]++
	}
	return counts
}

// FolderOf returns the candidate's current folder id.
func (s *Store) FolderOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return "", false
	}
	return c.FolderID, true
}

// SetFolder writes only the folder id of an existing candidate and returns
// the previous folder.
func (s *Store) SetFolder(id, folderID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return "", &types.NotFoundError{Kind: "candidate", ID: id}
	}
	prev := c.FolderID
	c.FolderID = folderID
	return prev, nil
}

// ReassignFolder moves every member of from into to and returns how many moved.
func (s *Store) ReassignFolder(from, to string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.byID {
		if c.FolderID == from {
			c.FolderID = to
			n++
		}
	}
	return n
}

// ClaimResult reports how ClaimForScreening partitioned the requested ids.
type ClaimResult struct {
	Claimed         []string
	AlreadyScreened []string
	Missing         []string
}

// ClaimForScreening atomically moves every eligible candidate in ids from
// pending to screening. Ineligible ids are reported, not modified.
// When any id is missing nothing is claimed.
func (s *Store) ClaimForScreening(ids []string) ClaimResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ClaimResult
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			res.Missing = append(res.Missing, id)
		}
	}
	if len(res.Missing) > 0 {
		return res
	}

	for _, id := range ids {
		c := s.byID[id]
		if !c.Eligible() {
			res.AlreadyScreened = append(res.AlreadyScreened, id)
			continue
		}
		c.ScreeningStatus = types.StatusScreening
		c.LastScreeningError = nil
		res.Claimed = append(res.Claimed, id)
	}
	return res
}
