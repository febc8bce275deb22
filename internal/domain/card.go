package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Difficulty is the author-assigned difficulty tag of a card. It is
// unrelated to the scheduler's runtime state.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ErrInvalidDifficulty is returned when a difficulty tag is not easy, medium or hard.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// IsValid reports whether d is one of the three known tags.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty normalises s into a Difficulty. An empty string yields medium.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// Card is a single question/answer pair belonging to a module.
type Card struct {
	ID          string     `json:"id"`
	ModuleID    string     `json:"moduleId"`
	SubModuleID string     `json:"subModuleId,omitempty"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Context     string     `json:"context,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Tags        []string   `json:"tags"`
	AuthorID    string     `json:"authorId,omitempty"`
	SourceID    int64      `json:"sourceId,omitempty"`
	Approved    bool       `json:"approved"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// VisibleTo reports whether userID may see the card. Unapproved cards are
// visible to their author only.
func (c Card) VisibleTo(userID string) bool {
	return c.Approved || (userID != "" && c.AuthorID == userID)
}

// NormalizeTags trims tags, drops empty ones and suppresses duplicates
// (case-insensitive). The result is sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
