// Package srs implements the spaced-repetition policy that turns a review
// rating into the next scheduling state of a card.
package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

const day = 24 * time.Hour

// Policy holds the tunable parameters of the scheduler.
type Policy struct {
	// MasteryThreshold is the run of consecutive non-hard ratings that
	// promotes a learning card to mastered.
	MasteryThreshold int
	// Intervals maps the consecutive-success streak to the delay until the
	// next review. Streaks past the end of the curve use the last entry.
	Intervals []time.Duration
}

// DefaultPolicy returns the default policy: mastery after 3 consecutive
// successes and a 1, 3, 7, 14, 30, 60, 120 day curve.
func DefaultPolicy() *Policy {
	return &Policy{
		MasteryThreshold: 3,
		Intervals: []time.Duration{
			1 * day, 3 * day, 7 * day, 14 * day, 30 * day, 60 * day, 120 * day,
		},
	}
}

// Validate checks that the policy can produce a monotonic schedule.
func (p *Policy) Validate() error {
	if p.MasteryThreshold < 1 {
		return fmt.Errorf("mastery threshold must be at least 1, got %d", p.MasteryThreshold)
	}
	if len(p.Intervals) == 0 {
		return errors.New("interval curve is empty")
	}
	for i, d := range p.Intervals {
		if d <= 0 {
			return fmt.Errorf("interval %d must be positive, got %s", i, d)
		}
		if i > 0 && d < p.Intervals[i-1] {
			return fmt.Errorf("interval %d (%s) is shorter than interval %d (%s)", i, d, i-1, p.Intervals[i-1])
		}
	}
	return nil
}

// Interval is the delay before the next review for a given streak.
func (p *Policy) Interval(streak int) time.Duration {
	if streak < 0 {
		streak = 0
	}
	return p.Intervals[min(streak, len(p.Intervals)-1)]
}

// Next computes the progress state that follows rating cur with r at now.
// It never performs I/O; the only failure is an invalid rating.
func (p *Policy) Next(cur domain.Progress, r domain.Rating, now time.Time) (domain.Progress, error) {
	if !r.IsValid() {
		return domain.Progress{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(r))
	}

	next := cur
	next.ReviewCount = cur.ReviewCount + 1
	next.LastRating = r.Score()
	next.LastReviewedAt = now
	next.UpdatedAt = now

	if r.Correct() {
		next.Streak = cur.Streak + 1
	} else {
		next.Streak = 0
	}

	switch cur.Status {
	case domain.StatusNew, "":
		// The first review only ever moves a card into learning.
		next.Status = domain.StatusLearning
	case domain.StatusLearning:
		if next.Streak >= p.MasteryThreshold {
			next.Status = domain.StatusMastered
		}
	case domain.StatusMastered:
		if !r.Correct() {
			next.Status = domain.StatusLearning
		}
	}

	next.NextReview = now.Add(p.Interval(next.Streak))
	return next, nil
}
