package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

type progressRow struct {
	UserID         string       `db:"user_id"`
	CardID         string       `db:"card_id"`
	Status         string       `db:"status"`
	NextReview     time.Time    `db:"next_review"`
	ReviewCount    int          `db:"review_count"`
	Streak         int          `db:"streak"`
	LastRating     int          `db:"last_rating"`
	LastReviewedAt sql.NullTime `db:"last_reviewed_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

const progressColumns = `user_id, card_id, status, next_review, review_count, streak, last_rating, last_reviewed_at, updated_at`

func (r progressRow) toDomain() domain.Progress {
	return domain.Progress{
		UserID:         r.UserID,
		CardID:         r.CardID,
		Status:         domain.Status(r.Status),
		NextReview:     r.NextReview,
		ReviewCount:    r.ReviewCount,
		Streak:         r.Streak,
		LastRating:     r.LastRating,
		LastReviewedAt: r.LastReviewedAt.Time,
		UpdatedAt:      r.UpdatedAt,
	}
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// FindProgress retrieves the progress of a user on a card.
func (db *DB) FindProgress(ctx context.Context, userID, cardID string) (*domain.Progress, error) {
	var row progressRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT `+progressColumns+` FROM progress WHERE user_id = ? AND card_id = ?
	`), userID, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Never reviewed
		}
		return nil, fmt.Errorf("failed to find progress of user %s on card %s: %w", userID, cardID, err)
	}
	p := row.toDomain()
	return &p, nil
}

// ListProgressForModule returns a user's progress rows for cards of a module.
func (db *DB) ListProgressForModule(ctx context.Context, userID, moduleID string) ([]domain.Progress, error) {
	var rows []progressRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT p.user_id, p.card_id, p.status, p.next_review, p.review_count, p.streak,
			p.last_rating, p.last_reviewed_at, p.updated_at
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND c.module_id = ?
	`), userID, moduleID); err != nil {
		return nil, fmt.Errorf("failed to list progress of user %s in module %s: %w", userID, moduleID, err)
	}
	progress := make([]domain.Progress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, r.toDomain())
	}
	return progress, nil
}

// UpsertProgress writes p when the stored row still carries the updated_at
// value prev. A zero prev means the row must not exist yet. It reports
// whether the write was applied.
func (db *DB) UpsertProgress(ctx context.Context, p domain.Progress, prev time.Time) (bool, error) {
	return upsertProgress(ctx, db.conn, p, prev)
}

func upsertProgress(ctx context.Context, ex execer, p domain.Progress, prev time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if prev.IsZero() {
		res, err = ex.ExecContext(ctx, ex.Rebind(`
			INSERT INTO progress (`+progressColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, card_id) DO NOTHING
		`),
			p.UserID, p.CardID, string(p.Status), ts(p.NextReview), p.ReviewCount,
			p.Streak, p.LastRating, nullTS(p.LastReviewedAt), ts(p.UpdatedAt),
		)
	} else {
		res, err = ex.ExecContext(ctx, ex.Rebind(`
			UPDATE progress
			SET status = ?, next_review = ?, review_count = ?, streak = ?,
				last_rating = ?, last_reviewed_at = ?, updated_at = ?
			WHERE user_id = ? AND card_id = ? AND updated_at = ?
		`),
			string(p.Status), ts(p.NextReview), p.ReviewCount, p.Streak,
			p.LastRating, nullTS(p.LastReviewedAt), ts(p.UpdatedAt),
			p.UserID, p.CardID, ts(prev),
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to write progress of user %s on card %s: %w", p.UserID, p.CardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to write progress of user %s on card %s: %w", p.UserID, p.CardID, err)
	}
	return n == 1, nil
}

// CountMastered counts the cards a user has mastered across all modules.
func (db *DB) CountMastered(ctx context.Context, userID string) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, db.conn.Rebind(`
		SELECT COUNT(*) FROM progress WHERE user_id = ? AND status = ?
	`), userID, string(domain.StatusMastered)); err != nil {
		return 0, fmt.Errorf("failed to count mastered cards of user %s: %w", userID, err)
	}
	return n, nil
}
