package server

import (
	"net/http"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/selection"
	"github.com/jonathan/talent-pool/internal/types"
)

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.engine.Selection.Snapshot())
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req types.ViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if req.FolderID != "" && !s.engine.Folders.Exists(req.FolderID) {
		s.writeError(w, &types.NotFoundError{Kind: "folder", ID: req.FolderID})
		return
	}

	field, err := candidates.ParseSortField(req.SortBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.engine.Selection.SetView(selection.View{
		FolderID: req.FolderID,
		Text:     req.Text,
		Status:   types.ScreeningStatus(req.Status),
		Sort:     candidates.Sort{Field: field, Desc: req.Desc},
	})
	s.jsonResponse(w, http.StatusOK, s.engine.Selection.Snapshot())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	selected, err := s.engine.Selection.Toggle(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"candidate_id": id, "selected": selected})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, _ *http.Request) {
	s.engine.Selection.SelectAll()
	s.jsonResponse(w, http.StatusOK, s.engine.Selection.Snapshot())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.engine.Selection.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetFolderID string `json:"target_folder_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetFolderID == "" {
		s.writeError(w, &types.ValidationError{Field: "target_folder_id", Message: "required"})
		return
	}
	if len(s.engine.Selection.Selected()) == 0 {
		s.writeError(w, &types.ValidationError{Field: "selection", Message: "nothing is selected"})
		return
	}
	s.moveResponse(w, s.engine.MoveSelection(r.Context(), req.TargetFolderID))
}

func (s *Server) handleScreenSelection(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.ScreenSelection(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, b)
}
