package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/study"
)

// findModule resolves a module id, number or slug, failing with a not-found
// error when it does not exist.
func (s *Server) findModule(ctx context.Context, ref string) (*domain.Module, error) {
	m, err := s.db.FindModule(ctx, ref)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %q", study.ErrModuleNotFound, ref)
	}
	return m, nil
}

func (s *Server) handleListModules() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modules, err := s.db.ListModules(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, modules)
	}
}

func (s *Server) handleGetModule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.findModule(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// handleListModuleCards lists a module's cards. The optional subModule query
// parameter takes a sub-module id or number. Callers identifying themselves
// also see their own cards awaiting approval.
func (s *Server) handleListModuleCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m, err := s.findModule(ctx, r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		subModuleID := ""
		if ref := r.URL.Query().Get("subModule"); ref != "" {
			sub, err := s.db.FindSubModule(ctx, ref)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if sub == nil || sub.ModuleID != m.ID {
				s.writeError(w, r, fmt.Errorf("%w: sub-module %q of module %s", study.ErrModuleNotFound, ref, m.Number))
				return
			}
			subModuleID = sub.ID
		}
		cards, err := s.db.ListCardsForModule(ctx, m.ID, subModuleID, viewer(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleModuleProgress(w http.ResponseWriter, r *http.Request, userID string) {
	sum, err := s.manager.ProgressSummary(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListUserModules(w http.ResponseWriter, r *http.Request, userID string) {
	modules, err := s.db.ListUserModules(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

type toggleResponse struct {
	ModuleID string `json:"moduleId"`
	Active   bool   `json:"active"`
}

func (s *Server) handleToggleUserModule(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	m, err := s.findModule(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	active, err := s.db.ToggleUserModule(ctx, userID, m.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{ModuleID: m.ID, Active: active})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := s.db.StudyStats(r.Context(), userID, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, userID string) {
	history, err := s.db.StudyHistory(r.Context(), userID, historyLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
