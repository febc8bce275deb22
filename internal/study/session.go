package study

import (
	"fmt"
	"sync"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

// State is the lifecycle stage of a running session.
type State string

const (
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	// StateDetached marks an open session no process holds in memory. It
	// can only be completed.
	StateDetached State = "detached"
)

// Snapshot is a read-only view of a session's progress.
type Snapshot struct {
	Session   domain.StudySession `json:"session"`
	State     State               `json:"state"`
	Total     int                 `json:"total"`
	Answered  int                 `json:"answered"`
	Correct   int                 `json:"correct"`
	Incorrect int                 `json:"incorrect"`
	Skipped   int                 `json:"skipped"`
	Elapsed   time.Duration       `json:"elapsed"`
	Current   *domain.Card        `json:"current,omitempty"`
	Exhausted bool                `json:"exhausted"`
}

type session struct {
	mu sync.Mutex

	info  domain.StudySession
	cards []domain.Card
	done  []bool
	pos   int

	correct, incorrect, skipped int

	state        State
	elapsed      time.Duration
	resumedAt    time.Time
	lastActivity time.Time
	final        domain.StudySession
}

func newSession(info domain.StudySession, cards []domain.Card, now time.Time) *session {
	return &session{
		info:         info,
		cards:        cards,
		done:         make([]bool, len(cards)),
		state:        StateActive,
		resumedAt:    now,
		lastActivity: now,
	}
}

// pendingSlot finds the batch slot of cardID that has not been rated or
// skipped yet.
func (s *session) pendingSlot(cardID string) (int, error) {
	answered := false
	for i, c := range s.cards {
		if c.ID != cardID {
			continue
		}
		if !s.done[i] {
			return i, nil
		}
		answered = true
	}
	if answered {
		return 0, fmt.Errorf("%w: card %s was already answered", ErrCardNotInSession, cardID)
	}
	return 0, fmt.Errorf("%w: card %s", ErrCardNotInSession, cardID)
}

// finish marks a slot handled and moves the pointer to the next pending card.
func (s *session) finish(slot int, now time.Time) {
	s.done[slot] = true
	for s.pos < len(s.cards) && s.done[s.pos] {
		s.pos++
	}
	s.lastActivity = now
}

func (s *session) snapshot(now time.Time) Snapshot {
	elapsed := s.elapsed
	if s.state == StateActive {
		elapsed += now.Sub(s.resumedAt)
	}
	answered := 0
	for _, d := range s.done {
		if d {
			answered++
		}
	}
	snap := Snapshot{
		Session:   s.info,
		State:     s.state,
		Total:     len(s.cards),
		Answered:  answered,
		Correct:   s.correct,
		Incorrect: s.incorrect,
		Skipped:   s.skipped,
		Elapsed:   elapsed,
		Exhausted: s.pos >= len(s.cards),
	}
	if !snap.Exhausted {
		c := s.cards[s.pos]
		snap.Current = &c
	}
	return snap
}
