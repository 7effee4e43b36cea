package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
)

// Repository stores personal game notes in PostgreSQL
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger.With("component", "postgres"),
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS game_notes (
			game_id BIGINT PRIMARY KEY,
			hype_level VARCHAR(32),
			content TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_notes_updated ON game_notes(updated_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// GetNote retrieves the note of a game
func (r *Repository) GetNote(ctx context.Context, gameID int64) (*domain.Note, error) {
	query := `
		SELECT game_id, COALESCE(hype_level, ''), content, tags, updated_at
		FROM game_notes
		WHERE game_id = $1
	`
	var note domain.Note
	err := r.pool.QueryRow(ctx, query, gameID).Scan(
		&note.GameID,
		&note.HypeLevel,
		&note.Content,
		&note.Tags,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return &note, nil
}

// ListNotes retrieves notes ordered by most recently updated
func (r *Repository) ListNotes(ctx context.Context, limit, offset int) ([]domain.Note, error) {
	query := `
		SELECT game_id, COALESCE(hype_level, ''), content, tags, updated_at
		FROM game_notes
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		err := rows.Scan(
			&note.GameID,
			&note.HypeLevel,
			&note.Content,
			&note.Tags,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

const upsertNoteQuery = `
	INSERT INTO game_notes (game_id, hype_level, content, tags, created_at, updated_at)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $5)
	ON CONFLICT (game_id)
	DO UPDATE SET hype_level = NULLIF($2, ''), content = $3, tags = $4, updated_at = $5
`

// UpsertNote creates or replaces the note of a game
func (r *Repository) UpsertNote(ctx context.Context, sub domain.NoteSubmission) (*domain.Note, error) {
	now := time.Now().UTC()
	tags := sub.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.pool.Exec(ctx, upsertNoteQuery, sub.GameID, sub.HypeLevel, sub.Content, tags, now)
	if err != nil {
		return nil, fmt.Errorf("upserting note: %w", err)
	}

	return &domain.Note{
		GameID:    sub.GameID,
		HypeLevel: sub.HypeLevel,
		Content:   sub.Content,
		Tags:      tags,
		UpdatedAt: now,
	}, nil
}

// BatchUpsertNotes creates or replaces multiple notes in one round trip
func (r *Repository) BatchUpsertNotes(ctx context.Context, subs []domain.NoteSubmission) error {
	if len(subs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()

	for _, sub := range subs {
		tags := sub.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(upsertNoteQuery, sub.GameID, sub.HypeLevel, sub.Content, tags, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range subs {
		_, err := br.Exec()
		if err != nil {
			return fmt.Errorf("batch upserting notes: %w", err)
		}
	}
	return nil
}

// DeleteNote removes the note of a game
func (r *Repository) DeleteNote(ctx context.Context, gameID int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM game_notes WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
