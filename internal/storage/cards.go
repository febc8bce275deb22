package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

type cardRow struct {
	ID          string         `db:"id"`
	ModuleID    string         `db:"module_id"`
	SubModuleID sql.NullString `db:"sub_module_id"`
	Question    string         `db:"question"`
	Answer      string         `db:"answer"`
	Context     string         `db:"context"`
	Difficulty  string         `db:"difficulty"`
	Tags        string         `db:"tags"`
	AuthorID    string         `db:"author_id"`
	SourceID    sql.NullInt64  `db:"source_id"`
	Approved    bool           `db:"approved"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

const cardColumns = `id, module_id, sub_module_id, question, answer, context, difficulty, tags, author_id, source_id, approved, created_at, updated_at`

func (r cardRow) toDomain() (domain.Card, error) {
	c := domain.Card{
		ID:          r.ID,
		ModuleID:    r.ModuleID,
		SubModuleID: r.SubModuleID.String,
		Question:    r.Question,
		Answer:      r.Answer,
		Context:     r.Context,
		Difficulty:  domain.Difficulty(r.Difficulty),
		AuthorID:    r.AuthorID,
		SourceID:    r.SourceID.Int64,
		Approved:    r.Approved,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Tags), &c.Tags); err != nil {
		return domain.Card{}, fmt.Errorf("failed to decode tags of card %s: %w", r.ID, err)
	}
	return c, nil
}

func cardsFromRows(rows []cardRow) ([]domain.Card, error) {
	cards := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func encodeTags(tags []string) (string, error) {
	b, err := json.Marshal(domain.NormalizeTags(tags))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// InsertCard inserts a new card. Tags are normalised before storage.
func (db *DB) InsertCard(ctx context.Context, card domain.Card) error {
	tags, err := encodeTags(card.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags of card %s: %w", card.ID, err)
	}
	var sourceID any
	if card.SourceID != 0 {
		sourceID = card.SourceID
	}
	_, err = db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		card.ID,
		card.ModuleID,
		nullString(card.SubModuleID),
		card.Question,
		card.Answer,
		card.Context,
		string(card.Difficulty),
		tags,
		card.AuthorID,
		sourceID,
		card.Approved,
		ts(card.CreatedAt),
		ts(card.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// UpdateCard rewrites the editable fields of a card and its approval. It
// reports whether the card existed.
func (db *DB) UpdateCard(ctx context.Context, card domain.Card) (bool, error) {
	tags, err := encodeTags(card.Tags)
	if err != nil {
		return false, fmt.Errorf("failed to encode tags of card %s: %w", card.ID, err)
	}
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		UPDATE cards
		SET module_id = ?, sub_module_id = ?, question = ?, answer = ?, context = ?,
			difficulty = ?, tags = ?, approved = ?, updated_at = ?
		WHERE id = ?
	`),
		card.ModuleID,
		nullString(card.SubModuleID),
		card.Question,
		card.Answer,
		card.Context,
		string(card.Difficulty),
		tags,
		card.Approved,
		ts(card.UpdatedAt),
		card.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	return n > 0, nil
}

// FindCard retrieves a card by its id.
func (db *DB) FindCard(ctx context.Context, id string) (*domain.Card, error) {
	var row cardRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`SELECT `+cardColumns+` FROM cards WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCardsForModule returns a module's cards oldest first, optionally
// restricted to one sub-module. Only approved cards and the unapproved cards
// authored by viewerID are returned; an empty viewerID sees approved cards
// only.
func (db *DB) ListCardsForModule(ctx context.Context, moduleID, subModuleID, viewerID string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE module_id = ?`
	args := []any{moduleID}
	if viewerID == "" {
		query += ` AND approved = ?`
		args = append(args, true)
	} else {
		query += ` AND (approved = ? OR author_id = ?)`
		args = append(args, true, viewerID)
	}
	if subModuleID != "" {
		query += ` AND sub_module_id = ?`
		args = append(args, subModuleID)
	}
	query += ` ORDER BY created_at, id`

	var rows []cardRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list cards for module %s: %w", moduleID, err)
	}
	return cardsFromRows(rows)
}

// GetCardsBySourceID retrieves all cards imported from a specific source.
func (db *DB) GetCardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	var rows []cardRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT `+cardColumns+` FROM cards WHERE source_id = ?
	`), sourceID); err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return cardsFromRows(rows)
}

// DeleteCard removes a card. Its progress rows and study records go with it.
// It reports whether the card existed.
func (db *DB) DeleteCard(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(`DELETE FROM cards WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return n > 0, nil
}

// ListPendingCards returns the cards awaiting approval, oldest first.
func (db *DB) ListPendingCards(ctx context.Context) ([]domain.Card, error) {
	var rows []cardRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT `+cardColumns+` FROM cards WHERE approved = ? ORDER BY created_at, id
	`), false); err != nil {
		return nil, fmt.Errorf("failed to list pending cards: %w", err)
	}
	return cardsFromRows(rows)
}

// ApproveCard marks a card approved. It reports whether the card existed.
func (db *DB) ApproveCard(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		UPDATE cards SET approved = ?, updated_at = ? WHERE id = ?
	`), true, ts(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to approve card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to approve card %s: %w", id, err)
	}
	return n > 0, nil
}

// HasProgress reports whether any user has reviewed the card.
func (db *DB) HasProgress(ctx context.Context, cardID string) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, db.conn.Rebind(`
		SELECT COUNT(*) FROM progress WHERE card_id = ?
	`), cardID); err != nil {
		return false, fmt.Errorf("failed to check progress of card %s: %w", cardID, err)
	}
	return n > 0, nil
}
