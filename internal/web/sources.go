package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/part66/internal/storage"
)

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

type sourceResponse struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"lastScanned,omitempty"`
}

func toSourceResponse(src storage.Source) sourceResponse {
	resp := sourceResponse{ID: src.ID, Path: src.Path, Type: src.Type}
	if src.LastScanned.Valid {
		t := src.LastScanned.Time
		resp.LastScanned = &t
	}
	return resp
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request, _ string) {
	sources, err := s.db.GetAllSources(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, toSourceResponse(src))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAddSource registers a local directory or git URL. Cards appear after
// the next sync.
func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request, userID string) {
	var req sourceRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, err := s.syncer.AddSource(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("source added", "source_id", src.ID, "path", src.Path, "user_id", userID)
	writeJSON(w, http.StatusCreated, toSourceResponse(*src))
}

// handleDeleteSource deletes a source together with its imported cards.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request, userID string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid source id", errBadRequest))
		return
	}
	found, err := s.db.DeleteSource(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: source %d", errNotFound, id))
		return
	}
	s.logger.Info("source deleted", "source_id", id, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePostSync runs a sync in the foreground and reports what changed.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request, _ string) {
	report, err := s.syncer.RunSync(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
