// Package study runs study sessions: it selects a batch of cards for a
// module, applies each rating through the spaced-repetition policy and
// finalizes the session totals.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/srs"
)

// DefaultBatchSize is used when a session is started without a target count.
const DefaultBatchSize = 20

// maxReviewAttempts bounds the optimistic progress update: one attempt plus
// one retry.
const maxReviewAttempts = 2

// Manager owns the in-memory state of every running study session.
type Manager struct {
	store     Store
	policy    *srs.Policy
	batchSize int
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides how session and record identifiers are made.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithBatchSize sets the batch size used when no target count is given.
func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager backed by store. A nil policy means
// srs.DefaultPolicy.
func NewManager(store Store, policy *srs.Policy, opts ...Option) (*Manager, error) {
	if policy == nil {
		policy = srs.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduling policy: %w", err)
	}
	m := &Manager{
		store:     store,
		policy:    policy,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// StartRequest describes a new session.
type StartRequest struct {
	UserID      string
	ModuleID    string
	SubModuleID string
	TargetCount int
}

// Started is the result of Start.
type Started struct {
	Session domain.StudySession `json:"session"`
	Cards   []domain.Card       `json:"cards"`
}

// Start creates a session for a module and selects its batch of cards.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Started, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	module, err := m.store.FindModule(ctx, req.ModuleID)
	if err != nil {
		return nil, wrapStore("find module", err)
	}
	if module == nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, req.ModuleID)
	}
	if req.SubModuleID != "" {
		sub, err := m.store.FindSubModule(ctx, req.SubModuleID)
		if err != nil {
			return nil, wrapStore("find sub-module", err)
		}
		if sub == nil || sub.ModuleID != module.ID {
			return nil, fmt.Errorf("%w: sub-module %q of module %s", ErrModuleNotFound, req.SubModuleID, module.Number)
		}
	}

	cards, err := m.store.ListCardsForModule(ctx, module.ID, req.SubModuleID, req.UserID)
	if err != nil {
		return nil, wrapStore("list cards", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: module %s", ErrNoCardsAvailable, module.Number)
	}

	progress, err := m.store.ListProgressForModule(ctx, req.UserID, module.ID)
	if err != nil {
		return nil, wrapStore("list progress", err)
	}
	byCard := make(map[string]domain.Progress, len(progress))
	for _, p := range progress {
		byCard[p.CardID] = p
	}

	target := req.TargetCount
	if target <= 0 {
		target = m.batchSize
	}
	now := m.now()
	batch := selectBatch(cards, byCard, target, now)

	info := domain.StudySession{
		ID:          m.newID(),
		UserID:      req.UserID,
		ModuleID:    module.ID,
		SubModuleID: req.SubModuleID,
		StartTime:   now,
	}
	if err := m.store.CreateStudySession(ctx, info); err != nil {
		return nil, wrapStore("create study session", err)
	}

	s := newSession(info, batch, now)
	m.mu.Lock()
	m.sessions[info.ID] = s
	m.mu.Unlock()

	m.logger.Info("study session started",
		"session_id", info.ID,
		"user_id", req.UserID,
		"module", module.Number,
		"requested", target,
		"selected", len(batch),
	)
	return &Started{Session: info, Cards: batch}, nil
}

// RateRequest carries one rating.
type RateRequest struct {
	SessionID string
	CardID    string
	Rating    domain.Rating
	TimeSpent time.Duration
}

// RateResult is the outcome of a rating.
type RateResult struct {
	Progress domain.Progress    `json:"progress"`
	Record   domain.StudyRecord `json:"record"`
	Snapshot
}

// Rate applies a rating to a pending card of the session, persists the new
// progress together with a study record and advances the session.
func (m *Manager) Rate(ctx context.Context, req RateRequest) (*RateResult, error) {
	if !req.Rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(req.Rating))
	}
	s, err := m.active(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotActive, req.SessionID)
	}
	slot, err := s.pendingSlot(req.CardID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	progress, rec, err := m.applyReview(ctx, s.info, req, now)
	if err != nil {
		return nil, err
	}

	s.finish(slot, now)
	if req.Rating.Correct() {
		s.correct++
	} else {
		s.incorrect++
	}
	m.logger.Debug("card rated",
		"session_id", req.SessionID,
		"card_id", req.CardID,
		"rating", req.Rating.String(),
		"status", progress.Status,
		"next_review", progress.NextReview,
	)
	return &RateResult{Progress: progress, Record: rec, Snapshot: s.snapshot(now)}, nil
}

func (m *Manager) applyReview(ctx context.Context, info domain.StudySession, req RateRequest, now time.Time) (domain.Progress, domain.StudyRecord, error) {
	for attempt := 1; attempt <= maxReviewAttempts; attempt++ {
		cur, err := m.store.FindProgress(ctx, info.UserID, req.CardID)
		if err != nil {
			return domain.Progress{}, domain.StudyRecord{}, wrapStore("find progress", err)
		}

		var prev time.Time
		base := domain.NewProgress(info.UserID, req.CardID, now)
		if cur != nil {
			base, prev = *cur, cur.UpdatedAt
		} else {
			card, err := m.store.FindCard(ctx, req.CardID)
			if err != nil {
				return domain.Progress{}, domain.StudyRecord{}, wrapStore("find card", err)
			}
			if card == nil {
				return domain.Progress{}, domain.StudyRecord{}, fmt.Errorf("%w: %s", ErrUnknownCard, req.CardID)
			}
		}

		next, err := m.policy.Next(base, req.Rating, now)
		if err != nil {
			return domain.Progress{}, domain.StudyRecord{}, err
		}
		rec := domain.StudyRecord{
			ID:        m.newID(),
			SessionID: info.ID,
			CardID:    req.CardID,
			Rating:    req.Rating.Score(),
			IsCorrect: req.Rating.Correct(),
			TimeSpent: req.TimeSpent,
			CreatedAt: now,
		}

		applied, err := m.store.RecordReview(ctx, next, prev, rec)
		if err != nil {
			return domain.Progress{}, domain.StudyRecord{}, wrapStore("record review", err)
		}
		if applied {
			return next, rec, nil
		}
		m.logger.Warn("progress changed while rating, retrying",
			"session_id", info.ID,
			"card_id", req.CardID,
			"attempt", attempt,
		)
	}
	return domain.Progress{}, domain.StudyRecord{}, fmt.Errorf("%w: card %s", ErrProgressConflict, req.CardID)
}

// Skip passes over a pending card without touching its progress.
func (m *Manager) Skip(ctx context.Context, sessionID, cardID string) (*Snapshot, error) {
	s, err := m.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotActive, sessionID)
	}
	slot, err := s.pendingSlot(cardID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	s.finish(slot, now)
	s.skipped++

	snap := s.snapshot(now)
	return &snap, nil
}

// Pause stops the session clock. Ratings are still accepted while paused.
func (m *Manager) Pause(ctx context.Context, sessionID string) (*Snapshot, error) {
	return m.setClock(ctx, sessionID, StatePaused)
}

// Resume restarts the session clock.
func (m *Manager) Resume(ctx context.Context, sessionID string) (*Snapshot, error) {
	return m.setClock(ctx, sessionID, StateActive)
}

func (m *Manager) setClock(ctx context.Context, sessionID string, to State) (*Snapshot, error) {
	s, err := m.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotActive, sessionID)
	}
	now := m.now()
	switch {
	case to == StatePaused && s.state == StateActive:
		s.elapsed += now.Sub(s.resumedAt)
	case to == StateActive && s.state == StatePaused:
		s.resumedAt = now
	}
	s.state = to
	s.lastActivity = now

	snap := s.snapshot(now)
	return &snap, nil
}

// Current returns the live state of a running session.
func (m *Manager) Current(ctx context.Context, sessionID string) (*Snapshot, error) {
	s, err := m.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot(m.now())
	return &snap, nil
}

// Complete finalizes a session. Calling it again returns the stored result
// without changing it. Sessions this process no longer holds in memory are
// finalized from their persisted study records.
func (m *Manager) Complete(ctx context.Context, sessionID string) (*domain.StudySession, error) {
	m.mu.Lock()
	s := m.sessions[sessionID]
	m.mu.Unlock()

	if s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateCompleted {
			final := s.final
			return &final, nil
		}
		now := m.now()
		counts := domain.SessionCounts{
			CardsStudied:   s.correct + s.incorrect,
			CorrectCount:   s.correct,
			IncorrectCount: s.incorrect,
		}
		final, err := m.store.FinalizeStudySession(ctx, sessionID, counts, now)
		if err != nil {
			return nil, wrapStore("finalize study session", err)
		}
		if s.state == StateActive {
			s.elapsed += now.Sub(s.resumedAt)
		}
		s.state = StateCompleted
		s.final = *final

		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()

		m.logger.Info("study session completed",
			"session_id", sessionID,
			"cards_studied", final.CardsStudied,
			"correct", final.CorrectCount,
			"incorrect", final.IncorrectCount,
			"skipped", s.skipped,
			"elapsed", s.elapsed,
		)
		return final, nil
	}

	stored, err := m.store.FindStudySession(ctx, sessionID)
	if err != nil {
		return nil, wrapStore("find study session", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if stored.Ended() {
		return stored, nil
	}
	counts, err := m.store.CountStudyRecords(ctx, sessionID)
	if err != nil {
		return nil, wrapStore("count study records", err)
	}
	final, err := m.store.FinalizeStudySession(ctx, sessionID, counts, m.now())
	if err != nil {
		return nil, wrapStore("finalize study session", err)
	}
	m.logger.Info("detached study session completed from records",
		"session_id", sessionID,
		"cards_studied", final.CardsStudied,
	)
	return final, nil
}

// SweepAbandoned completes sessions that have seen no activity for idle.
// It returns how many sessions were finalized.
func (m *Manager) SweepAbandoned(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	live := make(map[string]*session, len(m.sessions))
	for id, s := range m.sessions {
		live[id] = s
	}
	m.mu.Unlock()

	var stale []string
	for id, s := range live {
		s.mu.Lock()
		if s.state != StateCompleted && s.lastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}

	open, err := m.store.ListOpenStudySessions(ctx, cutoff)
	if err != nil {
		return 0, wrapStore("list open study sessions", err)
	}
	for _, o := range open {
		if _, ok := live[o.ID]; !ok {
			stale = append(stale, o.ID)
		}
	}

	finalized := 0
	for _, id := range stale {
		if _, err := m.Complete(ctx, id); err != nil {
			return finalized, fmt.Errorf("sweep session %s: %w", id, err)
		}
		finalized++
	}
	return finalized, nil
}

// ProgressSummary counts a user's cards in a module by learning status.
func (m *Manager) ProgressSummary(ctx context.Context, userID, moduleRef string) (*domain.ProgressSummary, error) {
	module, err := m.store.FindModule(ctx, moduleRef)
	if err != nil {
		return nil, wrapStore("find module", err)
	}
	if module == nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, moduleRef)
	}
	cards, err := m.store.ListCardsForModule(ctx, module.ID, "", userID)
	if err != nil {
		return nil, wrapStore("list cards", err)
	}
	progress, err := m.store.ListProgressForModule(ctx, userID, module.ID)
	if err != nil {
		return nil, wrapStore("list progress", err)
	}
	byCard := make(map[string]domain.Progress, len(progress))
	for _, p := range progress {
		byCard[p.CardID] = p
	}

	now := m.now()
	sum := &domain.ProgressSummary{ModuleID: module.ID, Total: len(cards)}
	for _, c := range cards {
		p, ok := byCard[c.ID]
		if !ok {
			p = domain.NewProgress(userID, c.ID, now)
		}
		switch p.Status {
		case domain.StatusMastered:
			sum.Mastered++
		case domain.StatusLearning:
			sum.Learning++
		default:
			sum.New++
		}
		if p.Due(now) {
			sum.Due++
		}
	}
	if sum.Total > 0 {
		sum.Completion = int(math.Round(float64(sum.Mastered) * 100 / float64(sum.Total)))
	}
	return sum, nil
}

// active returns the in-memory session, or explains why there is none.
func (m *Manager) active(ctx context.Context, sessionID string) (*session, error) {
	m.mu.Lock()
	s := m.sessions[sessionID]
	m.mu.Unlock()
	if s != nil {
		return s, nil
	}

	stored, err := m.store.FindStudySession(ctx, sessionID)
	if err != nil {
		return nil, wrapStore("find study session", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotActive, sessionID)
}
