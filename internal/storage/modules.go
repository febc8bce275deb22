package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/part66/internal/domain"
)

type moduleRow struct {
	ID          string `db:"id"`
	Number      string `db:"number"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Position    int    `db:"position"`
}

type subModuleRow struct {
	ID       string `db:"id"`
	ModuleID string `db:"module_id"`
	Number   string `db:"number"`
	Title    string `db:"title"`
	Position int    `db:"position"`
}

func (r moduleRow) toDomain(subs []domain.SubModule) domain.Module {
	return domain.Module{
		ID:          r.ID,
		Number:      r.Number,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		SubModules:  subs,
	}
}

func (r subModuleRow) toDomain() domain.SubModule {
	return domain.SubModule{ID: r.ID, ModuleID: r.ModuleID, Number: r.Number, Title: r.Title}
}

// UpsertModule inserts or updates a module together with its sub-modules.
// position orders modules in listings.
func (db *DB) UpsertModule(ctx context.Context, m domain.Module, position int) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO modules (id, number, title, description, category, position)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				number = excluded.number,
				title = excluded.title,
				description = excluded.description,
				category = excluded.category,
				position = excluded.position
		`), m.ID, m.Number, m.Title, m.Description, m.Category, position)
		if err != nil {
			return fmt.Errorf("failed to upsert module %s: %w", m.Number, err)
		}
		for i, sm := range m.SubModules {
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO sub_modules (id, module_id, number, title, position)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					module_id = excluded.module_id,
					number = excluded.number,
					title = excluded.title,
					position = excluded.position
			`), sm.ID, m.ID, sm.Number, sm.Title, i)
			if err != nil {
				return fmt.Errorf("failed to upsert sub-module %s: %w", sm.Number, err)
			}
		}
		return nil
	})
}

// ListModules returns every module with its sub-modules in syllabus order.
func (db *DB) ListModules(ctx context.Context) ([]domain.Module, error) {
	var rows []moduleRow
	if err := db.conn.SelectContext(ctx, &rows, `
		SELECT id, number, title, description, category, position
		FROM modules ORDER BY position, number
	`); err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	var subRows []subModuleRow
	if err := db.conn.SelectContext(ctx, &subRows, `
		SELECT id, module_id, number, title, position
		FROM sub_modules ORDER BY module_id, position
	`); err != nil {
		return nil, fmt.Errorf("failed to list sub-modules: %w", err)
	}
	subs := make(map[string][]domain.SubModule)
	for _, r := range subRows {
		subs[r.ModuleID] = append(subs[r.ModuleID], r.toDomain())
	}

	modules := make([]domain.Module, 0, len(rows))
	for _, r := range rows {
		modules = append(modules, r.toDomain(subs[r.ID]))
	}
	return modules, nil
}

// FindModule resolves a module by id, number or "module-N" slug.
func (db *DB) FindModule(ctx context.Context, ref string) (*domain.Module, error) {
	var row moduleRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT id, number, title, description, category, position
		FROM modules WHERE id = ?
	`), ref)
	if errors.Is(err, sql.ErrNoRows) {
		number := domain.ModuleNumber(ref)
		if number == "" {
			return nil, nil // Module not found
		}
		err = db.conn.GetContext(ctx, &row, db.conn.Rebind(`
			SELECT id, number, title, description, category, position
			FROM modules WHERE UPPER(number) = ?
		`), strings.ToUpper(number))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Module not found
		}
		return nil, fmt.Errorf("failed to find module %s: %w", ref, err)
	}

	subs, err := db.listSubModules(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	m := row.toDomain(subs)
	return &m, nil
}

func (db *DB) listSubModules(ctx context.Context, moduleID string) ([]domain.SubModule, error) {
	var rows []subModuleRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT id, module_id, number, title, position
		FROM sub_modules WHERE module_id = ? ORDER BY position
	`), moduleID); err != nil {
		return nil, fmt.Errorf("failed to list sub-modules of %s: %w", moduleID, err)
	}
	subs := make([]domain.SubModule, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toDomain())
	}
	return subs, nil
}

// FindSubModule retrieves a sub-module by id or number.
func (db *DB) FindSubModule(ctx context.Context, ref string) (*domain.SubModule, error) {
	var row subModuleRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT id, module_id, number, title, position
		FROM sub_modules WHERE id = ? OR number = ?
		ORDER BY id LIMIT 1
	`), ref, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Sub-module not found
		}
		return nil, fmt.Errorf("failed to find sub-module %s: %w", ref, err)
	}
	sm := row.toDomain()
	return &sm, nil
}

// ToggleUserModule flips whether a module is part of a user's selection
// and returns the new state.
func (db *DB) ToggleUserModule(ctx context.Context, userID, moduleID string) (bool, error) {
	var active bool
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &active, tx.Rebind(`
			SELECT is_active FROM user_modules WHERE user_id = ? AND module_id = ?
		`), userID, moduleID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			active = true
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO user_modules (user_id, module_id, is_active) VALUES (?, ?, ?)
			`), userID, moduleID, active)
		case err == nil:
			active = !active
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE user_modules SET is_active = ? WHERE user_id = ? AND module_id = ?
			`), active, userID, moduleID)
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle module %s for user %s: %w", moduleID, userID, err)
	}
	return active, nil
}

// ListUserModules returns the modules a user has selected.
func (db *DB) ListUserModules(ctx context.Context, userID string) ([]domain.Module, error) {
	var rows []moduleRow
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT m.id, m.number, m.title, m.description, m.category, m.position
		FROM modules m
		JOIN user_modules um ON um.module_id = m.id
		WHERE um.user_id = ? AND um.is_active = ?
		ORDER BY m.position, m.number
	`), userID, true); err != nil {
		return nil, fmt.Errorf("failed to list modules of user %s: %w", userID, err)
	}
	modules := make([]domain.Module, 0, len(rows))
	for _, r := range rows {
		subs, err := db.listSubModules(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		modules = append(modules, r.toDomain(subs))
	}
	return modules, nil
}
