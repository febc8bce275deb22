package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/part66/internal/domain"
)

type sessionRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	ModuleID       string         `db:"module_id"`
	SubModuleID    sql.NullString `db:"sub_module_id"`
	StartTime      time.Time      `db:"start_time"`
	EndTime        sql.NullTime   `db:"end_time"`
	CardsStudied   int            `db:"cards_studied"`
	CorrectCount   int            `db:"correct_count"`
	IncorrectCount int            `db:"incorrect_count"`
}

const sessionColumns = `id, user_id, module_id, sub_module_id, start_time, end_time, cards_studied, correct_count, incorrect_count`

func (r sessionRow) toDomain() domain.StudySession {
	s := domain.StudySession{
		ID:             r.ID,
		UserID:         r.UserID,
		ModuleID:       r.ModuleID,
		SubModuleID:    r.SubModuleID.String,
		StartTime:      r.StartTime,
		CardsStudied:   r.CardsStudied,
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
	}
	if r.EndTime.Valid {
		end := r.EndTime.Time
		s.EndTime = &end
	}
	return s
}

// CreateStudySession inserts a new, open study session.
func (db *DB) CreateStudySession(ctx context.Context, s domain.StudySession) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO study_sessions (id, user_id, module_id, sub_module_id, start_time)
		VALUES (?, ?, ?, ?, ?)
	`), s.ID, s.UserID, s.ModuleID, nullString(s.SubModuleID), ts(s.StartTime))
	if err != nil {
		return fmt.Errorf("failed to create study session %s: %w", s.ID, err)
	}
	return nil
}

// FindStudySession retrieves a study session by id.
func (db *DB) FindStudySession(ctx context.Context, id string) (*domain.StudySession, error) {
	var row sessionRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?
	`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Session not found
		}
		return nil, fmt.Errorf("failed to find study session %s: %w", id, err)
	}
	s := row.toDomain()
	return &s, nil
}

// FinalizeStudySession records the end time and counts of a session that is
// still open and returns the stored row. An already finalized session is
// returned unchanged.
func (db *DB) FinalizeStudySession(ctx context.Context, id string, counts domain.SessionCounts, end time.Time) (*domain.StudySession, error) {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		UPDATE study_sessions
		SET end_time = ?, cards_studied = ?, correct_count = ?, incorrect_count = ?
		WHERE id = ? AND end_time IS NULL
	`), ts(end), counts.CardsStudied, counts.CorrectCount, counts.IncorrectCount, id)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize study session %s: %w", id, err)
	}
	s, err := db.FindStudySession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("failed to finalize study session %s: %w", id, sql.ErrNoRows)
	}
	return s, nil
}

// ListOpenStudySessions returns sessions without an end time that started
// before the given instant.
func (db *DB) ListOpenStudySessions(ctx context.Context, startedBefore time.Time) ([]domain.StudySession, error) {
	var rows []sessionRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE end_time IS NULL AND start_time < ?
		ORDER BY start_time
	`), ts(startedBefore)); err != nil {
		return nil, fmt.Errorf("failed to list open study sessions: %w", err)
	}
	sessions := make([]domain.StudySession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toDomain())
	}
	return sessions, nil
}

// AppendStudyRecord inserts a rating event.
func (db *DB) AppendStudyRecord(ctx context.Context, r domain.StudyRecord) error {
	return appendStudyRecord(ctx, db.conn, r)
}

func appendStudyRecord(ctx context.Context, ex execer, r domain.StudyRecord) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO study_records (id, session_id, card_id, rating, is_correct, time_spent_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), r.ID, r.SessionID, r.CardID, r.Rating, r.IsCorrect, r.TimeSpent.Milliseconds(), ts(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append study record for card %s: %w", r.CardID, err)
	}
	return nil
}

// RecordReview applies a conditional progress write and appends the study
// record in one transaction. Nothing is written when the progress
// condition fails.
func (db *DB) RecordReview(ctx context.Context, p domain.Progress, prev time.Time, rec domain.StudyRecord) (bool, error) {
	var applied bool
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		applied, err = upsertProgress(ctx, tx, p, prev)
		if err != nil || !applied {
			return err
		}
		return appendStudyRecord(ctx, tx, rec)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ListStudyRecords returns the records of a session in insertion order.
func (db *DB) ListStudyRecords(ctx context.Context, sessionID string) ([]domain.StudyRecord, error) {
	var rows []struct {
		ID          string    `db:"id"`
		SessionID   string    `db:"session_id"`
		CardID      string    `db:"card_id"`
		Rating      int       `db:"rating"`
		IsCorrect   bool      `db:"is_correct"`
		TimeSpentMS int64     `db:"time_spent_ms"`
		CreatedAt   time.Time `db:"created_at"`
	}
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT id, session_id, card_id, rating, is_correct, time_spent_ms, created_at
		FROM study_records WHERE session_id = ? ORDER BY created_at, id
	`), sessionID); err != nil {
		return nil, fmt.Errorf("failed to list study records of session %s: %w", sessionID, err)
	}
	records := make([]domain.StudyRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.StudyRecord{
			ID:        r.ID,
			SessionID: r.SessionID,
			CardID:    r.CardID,
			Rating:    r.Rating,
			IsCorrect: r.IsCorrect,
			TimeSpent: time.Duration(r.TimeSpentMS) * time.Millisecond,
			CreatedAt: r.CreatedAt,
		})
	}
	return records, nil
}

// CountStudyRecords aggregates the records of a session into session counts.
func (db *DB) CountStudyRecords(ctx context.Context, sessionID string) (domain.SessionCounts, error) {
	var row struct {
		Total   int `db:"total"`
		Correct int `db:"correct"`
	}
	if err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct
		FROM study_records WHERE session_id = ?
	`), sessionID); err != nil {
		return domain.SessionCounts{}, fmt.Errorf("failed to count study records of session %s: %w", sessionID, err)
	}
	return domain.SessionCounts{
		CardsStudied:   row.Total,
		CorrectCount:   row.Correct,
		IncorrectCount: row.Total - row.Correct,
	}, nil
}

// streakWindow bounds how many days back the study streak is counted.
const streakWindow = 30

// StudyStats summarises a user's completed sessions as of now.
func (db *DB) StudyStats(ctx context.Context, userID string, now time.Time) (*domain.StudyStats, error) {
	var rows []sessionRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = ? AND end_time IS NOT NULL
	`), userID); err != nil {
		return nil, fmt.Errorf("failed to load sessions of user %s: %w", userID, err)
	}

	stats := &domain.StudyStats{SessionCount: len(rows)}
	var studied time.Duration
	var correct int
	days := make(map[string]bool)
	for _, r := range rows {
		studied += r.EndTime.Time.Sub(r.StartTime)
		stats.TotalCardsStudied += r.CardsStudied
		correct += r.CorrectCount
		days[r.EndTime.Time.UTC().Format(time.DateOnly)] = true
	}
	stats.TotalStudyMinutes = int(math.Round(studied.Minutes()))
	if stats.TotalCardsStudied > 0 {
		stats.CorrectPercentage = int(math.Round(float64(correct) * 100 / float64(stats.TotalCardsStudied)))
	}

	day := now.UTC()
	for range streakWindow {
		if !days[day.Format(time.DateOnly)] {
			break
		}
		stats.StreakDays++
		day = day.AddDate(0, 0, -1)
	}

	mastered, err := db.CountMastered(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.CardsMastered = mastered
	return stats, nil
}

// StudyHistory returns the most recent completed sessions of a user.
func (db *DB) StudyHistory(ctx context.Context, userID string, limit int) ([]domain.SessionHistoryEntry, error) {
	var rows []struct {
		sessionRow
		ModuleNumber string `db:"module_number"`
		ModuleTitle  string `db:"module_title"`
	}
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT s.id, s.user_id, s.module_id, s.sub_module_id, s.start_time, s.end_time,
			s.cards_studied, s.correct_count, s.incorrect_count,
			m.number AS module_number, m.title AS module_title
		FROM study_sessions s
		JOIN modules m ON m.id = s.module_id
		WHERE s.user_id = ? AND s.end_time IS NOT NULL
		ORDER BY s.start_time DESC
		LIMIT ?
	`), userID, limit); err != nil {
		return nil, fmt.Errorf("failed to load history of user %s: %w", userID, err)
	}
	history := make([]domain.SessionHistoryEntry, 0, len(rows))
	for _, r := range rows {
		history = append(history, domain.SessionHistoryEntry{
			StudySession: r.sessionRow.toDomain(),
			ModuleNumber: r.ModuleNumber,
			ModuleTitle:  r.ModuleTitle,
		})
	}
	return history, nil
}
