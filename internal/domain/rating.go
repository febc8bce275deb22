package domain

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRating is returned for ratings outside hard, medium and easy.
var ErrInvalidRating = errors.New("invalid rating")

// Rating is the user's recall feedback for a card. The underlying value is
// the numeric score stored with each review.
type Rating int

const (
	RatingHard   Rating = 1
	RatingMedium Rating = 3
	RatingEasy   Rating = 5
)

var (
	_ fmt.Stringer             = Rating(0)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
	_ json.Unmarshaler         = (*Rating)(nil)
)

// IsValid reports whether r belongs to the closed rating set.
func (r Rating) IsValid() bool {
	switch r {
	case RatingHard, RatingMedium, RatingEasy:
		return true
	}
	return false
}

// Score is the numeric score recorded for the rating.
func (r Rating) Score() int { return int(r) }

// Correct reports whether the rating counts as a correct answer.
func (r Rating) Correct() bool { return r == RatingMedium || r == RatingEasy }

func (r Rating) String() string {
	switch r {
	case RatingHard:
		return "hard"
	case RatingMedium:
		return "medium"
	case RatingEasy:
		return "easy"
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating accepts a rating name or its numeric score.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hard":
		return RatingHard, nil
	case "medium":
		return RatingMedium, nil
	case "easy":
		return RatingEasy, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err == nil && Rating(n).IsValid() {
		return Rating(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// UnmarshalJSON accepts either a JSON string ("easy") or a number (5).
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return r.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	if !Rating(n).IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, n)
	}
	*r = Rating(n)
	return nil
}
