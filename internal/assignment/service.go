// Package assignment moves candidates between folders, one at a time or as
// a fail-independent batch.
package assignment

import (
	"context"
	"errors"

	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// Store is the subset of the candidate store the service writes through.
type Store interface {
	FolderOf(id string) (string, bool)
	SetFolder(id, folderID string) (string, error)
	ReassignFolder(from, to string) int
}

// Folders is the subset of the taxonomy the service needs.
type Folders interface {
	Exists(id string) bool
}

// Locker hands out the shared lock that keeps a target folder alive for the
// duration of a move.
type Locker interface {
	RLock(id string) func()
}

// Status is the outcome of one move.
type Status string

// Move statuses
const (
	StatusMoved  Status = "moved"
	StatusNoOp   Status = "noop"
	StatusFailed Status = "failed"
)

// Result describes a single successful move or no-op.
type Result struct {
	CandidateID string `json:"candidate_id"`
	FromFolder  string `json:"from_folder_id,omitempty"`
	ToFolder    string `json:"to_folder_id"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
}

// BatchResult collects per-candidate results in input order.
type BatchResult struct {
	Results []Result `json:"results"`
	Moved   int      `json:"moved"`
	NoOps   int      `json:"noops"`
	Failed  int      `json:"failed"`
}

// Service is the only writer of candidate folder ids.
type Service struct {
	store    Store
	folders  Folders
	locks    Locker
	notifier events.Notifier
}

// NewService creates an assignment service.
func NewService(store Store, folders Folders, locks Locker, notifier events.Notifier) *Service {
	if notifier == nil {
		notifier = events.Discard
	}
	return &Service{
		store:    store,
		folders:  folders,
		locks:    locks,
		notifier: notifier,
	}
}

// MoveOne moves a candidate into targetFolderID. It returns a *types.NoOpError
// alongside a StatusNoOp result when the candidate is already there.
func (s *Service) MoveOne(ctx context.Context, candidateID, targetFolderID string) (Result, error) {
	res, err := s.move(ctx, candidateID, targetFolderID)
	if err == nil {
		s.notifier.Notify(events.Event{
			Type:         events.CandidatesMoved,
			FolderID:     targetFolderID,
			CandidateIDs: []string{candidateID},
			Count:        1,
		})
	}
	return res, err
}

// MoveMany applies MoveOne to every id independently. A failure on one id
// never stops the others; the per-id outcomes are returned in input order.
func (s *Service) MoveMany(ctx context.Context, candidateIDs []string, targetFolderID string) BatchResult {
	out := BatchResult{Results: make([]Result, 0, len(candidateIDs))}
	var moved []string

	for _, id := range candidateIDs {
		if err := ctx.Err(); err != nil {
			out.Results = append(out.Results, Result{CandidateID: id, ToFolder: targetFolderID, Status: StatusFailed, Error: err.Error()})
			out.Failed++
			continue
		}

		res, err := s.move(ctx, id, targetFolderID)
		var noop *types.NoOpError
		switch {
		case err == nil:
			out.Moved++
			moved = append(moved, id)
		case errors.As(err, &noop):
			out.NoOps++
			res.Error = err.Error()
		default:
			out.Failed++
			res = Result{CandidateID: id, ToFolder: targetFolderID, Status: StatusFailed, Error: err.Error()}
		}
		out.Results = append(out.Results, res)
	}

	if len(moved) > 0 {
		s.notifier.Notify(events.Event{
			Type:         events.CandidatesMoved,
			FolderID:     targetFolderID,
			CandidateIDs: moved,
			Count:        len(moved),
		})
	}
	return out
}

// ReassignAll moves every member of from into to. The caller must hold the
// exclusive lock on from; the target's shared lock is not taken here.
func (s *Service) ReassignAll(from, to string) int {
	n := s.store.ReassignFolder(from, to)
	if n > 0 {
		s.notifier.Notify(events.Event{
			Type:     events.CandidatesMoved,
			FolderID: to,
			Count:    n,
			Message:  "reassigned from deleted folder " + from,
		})
	}
	return n
}

func (s *Service) move(ctx context.Context, candidateID, targetFolderID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Hold the target's shared lock across the existence check and the
	// write so a concurrent delete cannot remove it in between.
	unlock := s.locks.RLock(targetFolderID)
	defer unlock()

	current, ok := s.store.FolderOf(candidateID)
	if !ok {
		return Result{}, &types.NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if !s.folders.Exists(targetFolderID) {
		return Result{}, &types.NotFoundError{Kind: "folder", ID: targetFolderID}
	}
	if current == targetFolderID {
		return Result{CandidateID: candidateID, FromFolder: current, ToFolder: targetFolderID, Status: StatusNoOp},
			&types.NoOpError{CandidateID: candidateID, FolderID: targetFolderID}
	}

	prev, err := s.store.SetFolder(candidateID, targetFolderID)
	if err != nil {
		return Result{}, err
	}
	return Result{CandidateID: candidateID, FromFolder: prev, ToFolder: targetFolderID, Status: StatusMoved}, nil
}
