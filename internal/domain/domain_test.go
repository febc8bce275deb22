package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	testCases := []struct {
		in      string
		want    Rating
		wantErr bool
	}{
		{in: "hard", want: RatingHard},
		{in: " Medium ", want: RatingMedium},
		{in: "EASY", want: RatingEasy},
		{in: "1", want: RatingHard},
		{in: "5", want: RatingEasy},
		{in: "2", wantErr: true},
		{in: "", wantErr: true},
		{in: "again", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRating(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRatingJSON(t *testing.T) {
	var v struct {
		Rating Rating `json:"rating"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rating":"easy"}`), &v))
	assert.Equal(t, RatingEasy, v.Rating)
	require.NoError(t, json.Unmarshal([]byte(`{"rating":3}`), &v))
	assert.Equal(t, RatingMedium, v.Rating)
	assert.Error(t, json.Unmarshal([]byte(`{"rating":4}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"rating":true}`), &v))

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":"medium"}`, string(b))

	assert.True(t, RatingMedium.Correct())
	assert.False(t, RatingHard.Correct())
	assert.Equal(t, 5, RatingEasy.Score())
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyMedium, d)

	d, err = ParseDifficulty(" Hard")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("extreme")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"Atoms", "charge"}, NormalizeTags([]string{" charge", "Atoms", "", "atoms", "CHARGE "}))
	assert.NotNil(t, NormalizeTags(nil))
}

func TestModuleIdentifiers(t *testing.T) {
	assert.Equal(t, "module-7a", ModuleID("7A"))
	assert.Equal(t, "submodule-3.1", SubModuleID(" 3.1 "))

	testCases := map[string]string{
		"module-3":  "3",
		"Module-7a": "7A",
		"11B":       "11B",
		"3":         "3",
		"maths":     "",
		"":          "",
	}
	for in, want := range testCases {
		assert.Equal(t, want, ModuleNumber(in), in)
	}
}

func TestProgressDue(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	p := NewProgress("u", "c", now)
	assert.True(t, p.Due(now.Add(-time.Hour)), "new cards are always due")

	p.Status = StatusLearning
	p.NextReview = now.Add(time.Hour)
	assert.False(t, p.Due(now))
	assert.True(t, p.Due(now.Add(time.Hour)))
}

func TestCardVisibleTo(t *testing.T) {
	pending := Card{ID: "c1", AuthorID: "alice"}
	assert.True(t, pending.VisibleTo("alice"))
	assert.False(t, pending.VisibleTo("bob"))
	assert.False(t, pending.VisibleTo(""))
	assert.False(t, Card{ID: "c2"}.VisibleTo(""))

	approved := Card{ID: "c3", AuthorID: "alice", Approved: true}
	assert.True(t, approved.VisibleTo("bob"))
	assert.True(t, approved.VisibleTo(""))
}
