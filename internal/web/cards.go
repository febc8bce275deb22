package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/study"
)

type cardRequest struct {
	ModuleID    string   `json:"moduleId" validate:"required"`
	SubModuleID string   `json:"subModuleId"`
	Question    string   `json:"question" validate:"required,max=2000"`
	Answer      string   `json:"answer" validate:"required,max=4000"`
	Context     string   `json:"context" validate:"max=4000"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
}

// apply resolves the request's module references and copies its fields
// onto card.
func (s *Server) apply(ctx context.Context, req cardRequest, card *domain.Card) error {
	m, err := s.findModule(ctx, req.ModuleID)
	if err != nil {
		return err
	}
	subModuleID := ""
	if req.SubModuleID != "" {
		sub, err := s.db.FindSubModule(ctx, req.SubModuleID)
		if err != nil {
			return err
		}
		if sub == nil || sub.ModuleID != m.ID {
			return fmt.Errorf("%w: sub-module %q of module %s", study.ErrModuleNotFound, req.SubModuleID, m.Number)
		}
		subModuleID = sub.ID
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	card.ModuleID = m.ID
	card.SubModuleID = subModuleID
	card.Question = req.Question
	card.Answer = req.Answer
	card.Context = req.Context
	card.Difficulty = difficulty
	card.Tags = domain.NormalizeTags(req.Tags)
	return nil
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	var req cardRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.now().UTC()
	// Cards written through the API wait for an admin's approval.
	card := domain.Card{ID: s.newID(), AuthorID: userID, CreatedAt: now, UpdatedAt: now}
	if err := s.apply(ctx, req, &card); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.db.InsertCard(ctx, card); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("card created", "card_id", card.ID, "module_id", card.ModuleID, "user_id", userID)
	writeJSON(w, http.StatusCreated, card)
}

// handleGetCard returns a card. Cards awaiting approval are only shown to
// their author and the admins.
func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		card, err := s.findCard(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if userID := viewer(r); !card.VisibleTo(userID) && !s.admins[userID] {
			s.writeError(w, r, fmt.Errorf("%w: card %s", errNotFound, id))
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) findCard(ctx context.Context, id string) (*domain.Card, error) {
	card, err := s.db.FindCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: card %s", errNotFound, id)
	}
	return card, nil
}

// editableCard loads a card the user may change. Imported cards belong to
// their source and are rewritten on every sync.
func (s *Server) editableCard(ctx context.Context, id, userID string) (*domain.Card, error) {
	card, err := s.findCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.SourceID != 0 {
		return nil, fmt.Errorf("%w: card %s is managed by source %d", errConflict, id, card.SourceID)
	}
	if card.AuthorID != userID {
		return nil, fmt.Errorf("%w: card %s belongs to another author", errForbidden, id)
	}
	return card, nil
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	var req cardRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.editableCard(ctx, r.PathValue("id"), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moduleID := card.ModuleID
	if err := s.apply(ctx, req, card); err != nil {
		s.writeError(w, r, err)
		return
	}
	if card.ModuleID != moduleID {
		// Reviewed cards keep their module.
		reviewed, err := s.db.HasProgress(ctx, card.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if reviewed {
			s.writeError(w, r, fmt.Errorf("%w: card %s has been studied and cannot change module", errConflict, card.ID))
			return
		}
	}
	// An edited card goes back to moderation.
	card.Approved = false
	card.UpdatedAt = s.now().UTC()
	found, err := s.db.UpdateCard(ctx, *card)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: card %s", errNotFound, card.ID))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	card, err := s.editableCard(ctx, r.PathValue("id"), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.db.DeleteCard(ctx, card.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("card deleted", "card_id", card.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPendingCards(w http.ResponseWriter, r *http.Request, _ string) {
	cards, err := s.db.ListPendingCards(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleApproveCard(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	id := r.PathValue("id")
	found, err := s.db.ApproveCard(ctx, id, s.now().UTC())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: card %s", errNotFound, id))
		return
	}
	card, err := s.findCard(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("card approved", "card_id", id, "user_id", userID)
	writeJSON(w, http.StatusOK, card)
}
