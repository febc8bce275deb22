package study

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

// memStore is an in-memory Store used by the manager tests.
type memStore struct {
	mu sync.Mutex

	modules    map[string]domain.Module
	subModules map[string]domain.SubModule
	cards      []domain.Card
	progress   map[string]domain.Progress
	sessions   map[string]domain.StudySession
	records    []domain.StudyRecord

	sessionWrites  int
	progressWrites int

	// beforeReview runs before each RecordReview; tests use it to simulate
	// a concurrent writer.
	beforeReview func(s *memStore)
	failWith     error
}

func newMemStore() *memStore {
	return &memStore{
		modules:    make(map[string]domain.Module),
		subModules: make(map[string]domain.SubModule),
		progress:   make(map[string]domain.Progress),
		sessions:   make(map[string]domain.StudySession),
	}
}

func progressKey(userID, cardID string) string { return userID + "/" + cardID }

func (s *memStore) addModule(number string) domain.Module {
	m := domain.Module{ID: domain.ModuleID(number), Number: number, Title: "Module " + number}
	s.modules[m.ID] = m
	return m
}

func (s *memStore) addCard(moduleID, id string, created time.Time) domain.Card {
	c := domain.Card{ID: id, ModuleID: moduleID, Question: "Q " + id, Answer: "A " + id, Difficulty: domain.DifficultyMedium, Approved: true, CreatedAt: created}
	s.cards = append(s.cards, c)
	return c
}

func (s *memStore) addPendingCard(moduleID, id, authorID string, created time.Time) domain.Card {
	c := domain.Card{ID: id, ModuleID: moduleID, Question: "Q " + id, Answer: "A " + id, Difficulty: domain.DifficultyMedium, AuthorID: authorID, CreatedAt: created}
	s.cards = append(s.cards, c)
	return c
}

func (s *memStore) putProgress(p domain.Progress) {
	s.progress[progressKey(p.UserID, p.CardID)] = p
}

func (s *memStore) FindModule(_ context.Context, ref string) (*domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if m, ok := s.modules[ref]; ok {
		return &m, nil
	}
	if n := domain.ModuleNumber(ref); n != "" {
		for _, m := range s.modules {
			if strings.EqualFold(m.Number, n) {
				return &m, nil
			}
		}
	}
	return nil, nil
}

func (s *memStore) FindSubModule(_ context.Context, id string) (*domain.SubModule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sm, ok := s.subModules[id]; ok {
		return &sm, nil
	}
	return nil, nil
}

func (s *memStore) ListCardsForModule(_ context.Context, moduleID, subModuleID, viewerID string) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Card
	for _, c := range s.cards {
		if c.ModuleID == moduleID && (subModuleID == "" || c.SubModuleID == subModuleID) && c.VisibleTo(viewerID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) FindCard(_ context.Context, id string) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindProgress(_ context.Context, userID, cardID string) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[progressKey(userID, cardID)]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *memStore) ListProgressForModule(_ context.Context, userID, moduleID string) ([]domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Progress
	for _, c := range s.cards {
		if c.ModuleID != moduleID {
			continue
		}
		if p, ok := s.progress[progressKey(userID, c.ID)]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) CreateStudySession(_ context.Context, ss domain.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sessionWrites++
	s.sessions[ss.ID] = ss
	return nil
}

func (s *memStore) FindStudySession(_ context.Context, id string) (*domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ss, ok := s.sessions[id]; ok {
		return &ss, nil
	}
	return nil, nil
}

func (s *memStore) FinalizeStudySession(_ context.Context, id string, counts domain.SessionCounts, end time.Time) (*domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if !ss.Ended() {
		s.sessionWrites++
		ss.EndTime = &end
		ss.CardsStudied = counts.CardsStudied
		ss.CorrectCount = counts.CorrectCount
		ss.IncorrectCount = counts.IncorrectCount
		s.sessions[id] = ss
	}
	return &ss, nil
}

func (s *memStore) ListOpenStudySessions(_ context.Context, startedBefore time.Time) ([]domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StudySession
	for _, ss := range s.sessions {
		if !ss.Ended() && ss.StartTime.Before(startedBefore) {
			out = append(out, ss)
		}
	}
	return out, nil
}

func (s *memStore) CountStudyRecords(_ context.Context, sessionID string) (domain.SessionCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c domain.SessionCounts
	for _, r := range s.records {
		if r.SessionID != sessionID {
			continue
		}
		c.CardsStudied++
		if r.IsCorrect {
			c.CorrectCount++
		} else {
			c.IncorrectCount++
		}
	}
	return c, nil
}

func (s *memStore) RecordReview(_ context.Context, p domain.Progress, prev time.Time, rec domain.StudyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeReview != nil {
		s.beforeReview(s)
	}
	if s.failWith != nil {
		return false, s.failWith
	}
	key := progressKey(p.UserID, p.CardID)
	cur, exists := s.progress[key]
	switch {
	case !exists && !prev.IsZero(), exists && !cur.UpdatedAt.Equal(prev):
		return false, nil
	}
	s.progressWrites++
	s.progress[key] = p
	s.records = append(s.records, rec)
	return true, nil
}
