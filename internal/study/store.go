package study

import (
	"context"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

// Store is the persistence the Manager depends on. Finders return
// (nil, nil) when the row does not exist.
type Store interface {
	// FindModule resolves a module by id, number or "module-N" slug.
	FindModule(ctx context.Context, ref string) (*domain.Module, error)
	FindSubModule(ctx context.Context, id string) (*domain.SubModule, error)
	// ListCardsForModule returns the module's cards visible to viewerID in
	// card order.
	ListCardsForModule(ctx context.Context, moduleID, subModuleID, viewerID string) ([]domain.Card, error)
	FindCard(ctx context.Context, id string) (*domain.Card, error)

	FindProgress(ctx context.Context, userID, cardID string) (*domain.Progress, error)
	ListProgressForModule(ctx context.Context, userID, moduleID string) ([]domain.Progress, error)

	CreateStudySession(ctx context.Context, s domain.StudySession) error
	FindStudySession(ctx context.Context, id string) (*domain.StudySession, error)
	// FinalizeStudySession sets the end time and counts of a session that
	// has not ended yet and returns the stored row. Finalizing an ended
	// session leaves it unchanged.
	FinalizeStudySession(ctx context.Context, id string, counts domain.SessionCounts, end time.Time) (*domain.StudySession, error)
	ListOpenStudySessions(ctx context.Context, startedBefore time.Time) ([]domain.StudySession, error)
	CountStudyRecords(ctx context.Context, sessionID string) (domain.SessionCounts, error)

	// RecordReview atomically writes p and appends rec. The progress write
	// only applies when the stored row's UpdatedAt still equals prev, or
	// when no row exists and prev is zero. applied is false otherwise and
	// nothing is written.
	RecordReview(ctx context.Context, p domain.Progress, prev time.Time, rec domain.StudyRecord) (applied bool, err error)
}
