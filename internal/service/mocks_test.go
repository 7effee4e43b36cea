package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/gamestracker/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) UpcomingReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.ReleaseRecord, error) {
	args := m.Called(ctx, filter, windowDays)
	records, _ := args.Get(0).([]domain.ReleaseRecord)
	return records, args.Error(1)
}

func (m *mockCatalog) RecentReleases(ctx context.Context, filter domain.ReleaseFilter, windowDays int) ([]domain.RawGame, error) {
	args := m.Called(ctx, filter, windowDays)
	games, _ := args.Get(0).([]domain.RawGame)
	return games, args.Error(1)
}

func (m *mockCatalog) GameByID(ctx context.Context, id int64) (*domain.RawGame, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*domain.RawGame)
	return game, args.Error(1)
}

func (m *mockCatalog) Genres(ctx context.Context) ([]domain.Genre, error) {
	args := m.Called(ctx)
	genres, _ := args.Get(0).([]domain.Genre)
	return genres, args.Error(1)
}

func (m *mockCatalog) Studios(ctx context.Context) ([]domain.Studio, error) {
	args := m.Called(ctx)
	studios, _ := args.Get(0).([]domain.Studio)
	return studios, args.Error(1)
}

type mockReviews struct {
	mock.Mock
}

func (m *mockReviews) ReviewedThisWeek(ctx context.Context) ([]domain.ReviewRecord, error) {
	args := m.Called(ctx)
	reviews, _ := args.Get(0).([]domain.ReviewRecord)
	return reviews, args.Error(1)
}

func (m *mockReviews) RecentlyReleased(ctx context.Context) ([]domain.TrendingGame, error) {
	args := m.Called(ctx)
	games, _ := args.Get(0).([]domain.TrendingGame)
	return games, args.Error(1)
}

// passthroughEnricher leaves records untouched
type passthroughEnricher struct{}

func (passthroughEnricher) EnrichReviews(_ context.Context, reviews []domain.ReviewRecord) []domain.ReviewRecord {
	return reviews
}

func (passthroughEnricher) EnrichTrending(_ context.Context, games []domain.TrendingGame) []domain.TrendingGame {
	return games
}

type mockNotes struct {
	mock.Mock
}

func (m *mockNotes) GetNote(ctx context.Context, gameID int64) (*domain.Note, error) {
	args := m.Called(ctx, gameID)
	note, _ := args.Get(0).(*domain.Note)
	return note, args.Error(1)
}

func (m *mockNotes) ListNotes(ctx context.Context, limit, offset int) ([]domain.Note, error) {
	args := m.Called(ctx, limit, offset)
	notes, _ := args.Get(0).([]domain.Note)
	return notes, args.Error(1)
}

func (m *mockNotes) UpsertNote(ctx context.Context, sub domain.NoteSubmission) (*domain.Note, error) {
	args := m.Called(ctx, sub)
	note, _ := args.Get(0).(*domain.Note)
	return note, args.Error(1)
}

func (m *mockNotes) BatchUpsertNotes(ctx context.Context, subs []domain.NoteSubmission) error {
	args := m.Called(ctx, subs)
	return args.Error(0)
}

func (m *mockNotes) DeleteNote(ctx context.Context, gameID int64) error {
	args := m.Called(ctx, gameID)
	return args.Error(0)
}
