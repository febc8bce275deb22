package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/study"
)

type startRequest struct {
	ModuleID    string `json:"moduleId" validate:"required"`
	SubModuleID string `json:"subModuleId"`
	TargetCount int    `json:"targetCount" validate:"gte=0,lte=500"`
}

type rateRequest struct {
	CardID      string        `json:"cardId" validate:"required"`
	Rating      domain.Rating `json:"rating"`
	TimeSpentMs int64         `json:"timeSpentMs" validate:"gte=0"`
}

type skipRequest struct {
	CardID string `json:"cardId" validate:"required"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request, userID string) {
	var req startRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	subModuleID := req.SubModuleID
	if subModuleID != "" {
		// Accept a sub-module number as well as its id.
		sub, err := s.db.FindSubModule(ctx, subModuleID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if sub != nil {
			subModuleID = sub.ID
		}
	}
	started, err := s.manager.Start(ctx, study.StartRequest{
		UserID:      userID,
		ModuleID:    req.ModuleID,
		SubModuleID: subModuleID,
		TargetCount: req.TargetCount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// ownSession fails with a not-found error unless the session exists and
// belongs to userID.
func (s *Server) ownSession(ctx context.Context, sessionID, userID string) (*domain.StudySession, error) {
	sess, err := s.db.FindStudySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, fmt.Errorf("%w: %s", study.ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// handleGetSession returns the live view of a running session or the stored
// result of a finished one.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	id := r.PathValue("id")
	stored, err := s.ownSession(ctx, id, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.manager.Current(ctx, id)
	if errors.Is(err, study.ErrSessionNotActive) {
		snap, err := s.storedSnapshot(ctx, *stored)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// storedSnapshot describes a session this process does not hold. Ended
// sessions report their final counts; open ones are detached and report the
// ratings recorded so far.
func (s *Server) storedSnapshot(ctx context.Context, sess domain.StudySession) (study.Snapshot, error) {
	if sess.Ended() {
		return study.Snapshot{
			Session:   sess,
			State:     study.StateCompleted,
			Answered:  sess.CardsStudied,
			Correct:   sess.CorrectCount,
			Incorrect: sess.IncorrectCount,
			Elapsed:   sess.EndTime.Sub(sess.StartTime),
		}, nil
	}
	counts, err := s.db.CountStudyRecords(ctx, sess.ID)
	if err != nil {
		return study.Snapshot{}, err
	}
	return study.Snapshot{
		Session:   sess,
		State:     study.StateDetached,
		Answered:  counts.CardsStudied,
		Correct:   counts.CorrectCount,
		Incorrect: counts.IncorrectCount,
	}, nil
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	var req rateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	if _, err := s.ownSession(ctx, id, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.manager.Rate(ctx, study.RateRequest{
		SessionID: id,
		CardID:    req.CardID,
		Rating:    req.Rating,
		TimeSpent: time.Duration(req.TimeSpentMs) * time.Millisecond,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	var req skipRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	if _, err := s.ownSession(ctx, id, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.manager.Skip(ctx, id, req.CardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, userID string) {
	s.sessionAction(w, r, userID, s.manager.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request, userID string) {
	s.sessionAction(w, r, userID, s.manager.Resume)
}

func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request, userID string, action func(context.Context, string) (*study.Snapshot, error)) {
	ctx := r.Context()
	id := r.PathValue("id")
	if _, err := s.ownSession(ctx, id, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := action(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()
	id := r.PathValue("id")
	if _, err := s.ownSession(ctx, id, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	final, err := s.manager.Complete(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, final)
}
