package server

import (
	"net/http"

	"github.com/jonathan/talent-pool/internal/types"
)

func (s *Server) handleListFolders(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"folders": s.engine.Folders.List()})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req types.CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	folder, err := s.engine.Folders.Create(req.Name, req.Description, req.Color)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, folder)
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := s.engine.Folders.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, folder)
}

func (s *Server) handleEditFolder(w http.ResponseWriter, r *http.Request) {
	var edit types.FolderEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if edit.Empty() {
		s.errorResponse(w, http.StatusBadRequest, "No fields to update")
		return
	}

	folder, err := s.engine.Folders.Edit(r.PathValue("id"), edit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, folder)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Folders.Delete(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}
