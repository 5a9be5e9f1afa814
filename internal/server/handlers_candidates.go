package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jonathan/talent-pool/internal/assignment"
	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/types"
)

// queryParams reads the filter and sort shared by candidate listings.
//
//	?q=go&status=pending&folder=<id>&sort=score&order=desc
func queryParams(r *http.Request) (candidates.Filter, candidates.Sort, error) {
	q := r.URL.Query()
	filter := candidates.Filter{Text: q.Get("q"), FolderID: q.Get("folder")}
	if raw := q.Get("status"); raw != "" {
		status, err := types.ParseStatus(raw)
		if err != nil {
			return filter, candidates.Sort{}, err
		}
		filter.Status = status
	}

	field, err := candidates.ParseSortField(q.Get("sort"))
	if err != nil {
		return filter, candidates.Sort{}, err
	}
	order := candidates.Sort{Field: field}
	switch q.Get("order") {
	case "", "asc":
	case "desc":
		order.Desc = true
	default:
		return filter, order, &types.ValidationError{Field: "order", Message: "must be asc or desc"}
	}
	return filter, order, nil
}

func (s *Server) handleQueryCandidates(w http.ResponseWriter, r *http.Request) {
	filter, order, err := queryParams(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := s.engine.Query(filter, order)

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if limit < len(results) {
			results = results[:limit]
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"candidates": results,
		"count":      len(results),
	})
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.engine.Store.Get(id)
	if !ok {
		s.writeError(w, &types.NotFoundError{Kind: "candidate", ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

// handleIngestCandidates accepts a candidate feed document.
func (s *Server) handleIngestCandidates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	feed, err := ingestion.ParseFeed(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.LoadFeed(feed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleMoveOne(w http.ResponseWriter, r *http.Request) {
	var req types.MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.Assign.MoveOne(r.Context(), r.PathValue("id"), req.TargetFolderID)
	var noop *types.NoOpError
	if err != nil && !errors.As(err, &noop) {
		s.writeError(w, err)
		return
	}
	if noop != nil {
		res.Error = noop.Error()
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleMoveMany(w http.ResponseWriter, r *http.Request) {
	var req types.MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.CandidateIDs) == 0 {
		s.writeError(w, &types.ValidationError{Field: "candidate_ids", Message: "at least one candidate id is required"})
		return
	}
	s.moveResponse(w, s.engine.Assign.MoveMany(r.Context(), req.CandidateIDs, req.TargetFolderID))
}

// moveResponse answers 200 unless every move failed.
func (s *Server) moveResponse(w http.ResponseWriter, res assignment.BatchResult) {
	status := http.StatusOK
	if res.Failed > 0 && res.Failed == len(res.Results) {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, res)
}
