package domain

import "time"

// Status is the learning stage of a card for one user.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusMastered Status = "mastered"
)

// Progress is the scheduling state for one (user, card) pair.
type Progress struct {
	UserID         string    `json:"userId"`
	CardID         string    `json:"cardId"`
	Status         Status    `json:"status"`
	NextReview     time.Time `json:"nextReview"`
	ReviewCount    int       `json:"reviewCount"`
	Streak         int       `json:"streak"`
	LastRating     int       `json:"lastRating"`
	LastReviewedAt time.Time `json:"lastReviewedAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

// NewProgress is the state of a card that has never been reviewed. A
// missing row is equivalent to this value.
func NewProgress(userID, cardID string, now time.Time) Progress {
	return Progress{
		UserID:     userID,
		CardID:     cardID,
		Status:     StatusNew,
		NextReview: now,
	}
}

// Due reports whether the card should be studied at now.
func (p Progress) Due(now time.Time) bool {
	return p.Status == StatusNew || !p.NextReview.After(now)
}

// ProgressSummary aggregates a user's progress over one module.
type ProgressSummary struct {
	ModuleID   string `json:"moduleId"`
	Total      int    `json:"total"`
	New        int    `json:"new"`
	Learning   int    `json:"learning"`
	Mastered   int    `json:"mastered"`
	Due        int    `json:"due"`
	Completion int    `json:"completionPercentage"`
}
