// Package sync reconciles registered deck sources into the card store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/gitsource"
	"github.com/conorfennell/part66/internal/importer"
	"github.com/conorfennell/part66/internal/knol"
	"github.com/conorfennell/part66/internal/parser"
	"github.com/conorfennell/part66/internal/storage"
)

// Errors returned by AddSource.
var (
	ErrSourceExists  = errors.New("source already exists")
	ErrInvalidSource = errors.New("invalid source")
)

// Report summarises one reconciliation run.
type Report struct {
	Sources  int `json:"sources"`
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Errors   int `json:"errors"`
}

func (r *Report) add(o Report) {
	r.Parsed += o.Parsed
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Deleted += o.Deleted
	r.Errors += o.Errors
}

// Syncer walks sources and mirrors their cards into storage.
type Syncer struct {
	db       *storage.DB
	reposDir string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Syncer. Git sources are checked out below reposDir.
func New(db *storage.DB, reposDir string, logger *slog.Logger) *Syncer {
	return &Syncer{
		db:       db,
		reposDir: reposDir,
		logger:   logger,
		now:      time.Now,
	}
}

// AddSource registers a local directory or git URL. Local paths are stored
// in absolute form.
func (s *Syncer) AddSource(ctx context.Context, path string) (*storage.Source, error) {
	sourceType := storage.SourceGit
	if gitsource.IsRemote(path) {
		if _, err := gitsource.LocalPath(s.reposDir, path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
	} else {
		sourceType = storage.SourceLocal
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSource, path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidSource, abs)
		}
		path = abs
	}

	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}

	id, err := s.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// RunSync iterates over all sources and reconciles them. A failing source is
// logged and counted; it does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) (Report, error) {
	var report Report
	s.logger.Info("starting sync process for all sources")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return report, err
	}

	if len(sources) == 0 {
		s.logger.Info("no sources configured, add one with --add-source <path/or/url.git>")
		return report, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Sources++
		s.logger.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			dir, err = s.checkout(ctx, source.Path)
			if err != nil {
				s.logger.Error("error syncing git repo", "url", source.Path, "error", err)
				report.Errors++
				continue
			}
		}

		r, err := s.ReconcileSource(ctx, source, dir)
		report.add(r)
		if err != nil {
			s.logger.Error("error reconciling source", "id", source.ID, "error", err)
			report.Errors++
		}
	}
	s.logger.Info("sync process complete",
		"sources", report.Sources,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"deleted", report.Deleted,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *Syncer) checkout(ctx context.Context, repoURL string) (string, error) {
	if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	localPath, err := gitsource.LocalPath(s.reposDir, repoURL)
	if err != nil {
		return "", err
	}
	if err := gitsource.Sync(ctx, s.logger, repoURL, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

// ReconcileSource parses every deck below dir and brings the cards of source
// in line with it: new cards are inserted, changed metadata is updated and
// cards no longer present are deleted. Deletion is skipped when any file
// failed to parse so a broken file never wipes its cards' progress.
func (s *Syncer) ReconcileSource(ctx context.Context, source storage.Source, dir string) (Report, error) {
	var report Report
	var parseErrors []error
	found := make(map[string]bool)
	knownModules := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		fileCards, parseErr := parseDeck(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, card := range fileCards {
			report.Parsed++
			if err := s.moduleKnown(ctx, knownModules, card.ModuleID); err != nil {
				parseErrors = append(parseErrors, fmt.Errorf("%s: %w", path, err))
				continue
			}
			card.ID = knol.SourceID(source.ID, card)
			card.SourceID = source.ID
			card.Approved = true
			found[card.ID] = true

			changed, err := s.upsert(ctx, card)
			if err != nil {
				parseErrors = append(parseErrors, err)
				continue
			}
			switch changed {
			case inserted:
				report.Inserted++
			case updated:
				report.Updated++
			}
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	report.Errors = len(parseErrors)
	for _, e := range parseErrors {
		s.logger.Warn("card skipped", "source_id", source.ID, "error", e)
	}

	if len(parseErrors) == 0 {
		dbCards, err := s.db.GetCardsBySourceID(ctx, source.ID)
		if err != nil {
			return report, err
		}
		for _, dbCard := range dbCards {
			if found[dbCard.ID] {
				continue
			}
			s.logger.Info("orphaned card, deleting", "card_id", dbCard.ID)
			if _, err := s.db.DeleteCard(ctx, dbCard.ID); err != nil {
				s.logger.Warn("failed to delete orphaned card", "card_id", dbCard.ID, "error", err)
				report.Errors++
				continue
			}
			report.Deleted++
		}
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID, s.now()); err != nil {
		s.logger.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	s.logger.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"orphaned_deleted", report.Deleted,
		"errors", report.Errors,
	)
	return report, nil
}

// ImportFile loads the cards of a single deck file that is not tied to a
// source. Cards already stored are left as they are unless their metadata
// changed.
func (s *Syncer) ImportFile(ctx context.Context, path string) (Report, error) {
	var report Report
	if !isMarkdown(path) && !importer.Supported(path) {
		return report, fmt.Errorf("%w: %s", importer.ErrUnsupportedFormat, path)
	}
	cards, err := parseDeck(path)
	if err != nil {
		return report, fmt.Errorf("parsing %s: %w", path, err)
	}

	knownModules := make(map[string]bool)
	for _, card := range cards {
		report.Parsed++
		if err := s.moduleKnown(ctx, knownModules, card.ModuleID); err != nil {
			s.logger.Warn("card skipped", "path", path, "question", card.Question, "error", err)
			report.Errors++
			continue
		}
		card.ID = knol.ID(card)
		card.Approved = true
		changed, err := s.upsert(ctx, card)
		if err != nil {
			return report, err
		}
		switch changed {
		case inserted:
			report.Inserted++
		case updated:
			report.Updated++
		}
	}
	s.logger.Info("import complete",
		"path", path,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"errors", report.Errors,
	)
	return report, nil
}

func isMarkdown(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".md")
}

// parseDeck reads the cards of a deck file. Files of other types yield none.
func parseDeck(path string) ([]domain.Card, error) {
	switch {
	case isMarkdown(path):
		return parser.ParseFile(path)
	case importer.Supported(path):
		return importer.ParseFile(path)
	}
	return nil, nil
}

func (s *Syncer) moduleKnown(ctx context.Context, cache map[string]bool, moduleID string) error {
	if moduleID == "" {
		return errors.New("card has no module")
	}
	if cache[moduleID] {
		return nil
	}
	m, err := s.db.FindModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("unknown module %s", moduleID)
	}
	cache[moduleID] = true
	return nil
}

type change int

const (
	unchanged change = iota
	inserted
	updated
)

// upsert writes card unless an identical one is stored. The content hash
// pins question, answer and context, so only metadata can differ.
func (s *Syncer) upsert(ctx context.Context, card domain.Card) (change, error) {
	existing, err := s.db.FindCard(ctx, card.ID)
	if err != nil {
		return unchanged, err
	}
	now := s.now().UTC()
	if existing == nil {
		card.CreatedAt, card.UpdatedAt = now, now
		if err := s.db.InsertCard(ctx, card); err != nil {
			return unchanged, err
		}
		return inserted, nil
	}
	if existing.Approved == card.Approved &&
		existing.Difficulty == card.Difficulty &&
		existing.SubModuleID == card.SubModuleID &&
		slices.Equal(existing.Tags, domain.NormalizeTags(card.Tags)) {
		return unchanged, nil
	}
	card.UpdatedAt = now
	if _, err := s.db.UpdateCard(ctx, card); err != nil {
		return unchanged, err
	}
	return updated, nil
}
