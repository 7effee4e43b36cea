package service

import (
	"context"

	"github.com/gamestracker/internal/domain"
)

// Catalog is the game metadata provider
type Catalog interface {
	UpcomingReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.ReleaseRecord, error)
	RecentReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.RawGame, error)
	GameByID(ctx context.Context, id int64) (*domain.RawGame, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
	Studios(ctx context.Context) ([]domain.Studio, error)
}

// ReviewSource is the review aggregation provider
type ReviewSource interface {
	ReviewedThisWeek(ctx context.Context) ([]domain.ReviewRecord, error)
	RecentlyReleased(ctx context.Context) ([]domain.TrendingGame, error)
}

// ReviewEnricher adds catalog data to review records. It never fails.
type ReviewEnricher interface {
	EnrichReviews(ctx context.Context, reviews []domain.ReviewRecord) []domain.ReviewRecord
	EnrichTrending(ctx context.Context, games []domain.TrendingGame) []domain.TrendingGame
}

// SnapshotStore keeps last-known-good payloads
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
	LoadSnapshot(ctx context.Context, key string) (*domain.Snapshot, error)
}

// NoteStore persists game notes
type NoteStore interface {
	GetNote(ctx context.Context, gameID int64) (*domain.Note, error)
	ListNotes(ctx context.Context, limit, offset int) ([]domain.Note, error)
	UpsertNote(ctx context.Context, sub domain.NoteSubmission) (*domain.Note, error)
	BatchUpsertNotes(ctx context.Context, subs []domain.NoteSubmission) error
	DeleteNote(ctx context.Context, gameID int64) error
}
