package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gamestracker/internal/domain"
)

const maxListNotes = 100

// NoteService manages personal game notes
type NoteService struct {
	store  NoteStore
	logger *slog.Logger
}

// NewNoteService creates a new note service. A nil store disables notes.
func NewNoteService(store NoteStore, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:  store,
		logger: logger.With("component", "note_service"),
	}
}

// Enabled reports whether a notes store is configured
func (s *NoteService) Enabled() bool {
	return s.store != nil
}

// GetNote returns the note of a game
func (s *NoteService) GetNote(ctx context.Context, gameID int64) (*domain.Note, error) {
	if s.store == nil {
		return nil, domain.ErrNotesDisabled
	}
	if gameID <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.GetNote(ctx, gameID)
}

// ListNotes returns the most recently updated notes
func (s *NoteService) ListNotes(ctx context.Context, limit, offset int) ([]domain.Note, error) {
	if s.store == nil {
		return nil, domain.ErrNotesDisabled
	}
	if limit <= 0 || limit > maxListNotes {
		limit = maxListNotes
	}
	if offset < 0 {
		offset = 0
	}
	notes, err := s.store.ListNotes(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return notes, nil
}

// SubmitNote validates and stores a note
func (s *NoteService) SubmitNote(ctx context.Context, sub domain.NoteSubmission) (*domain.Note, error) {
	if s.store == nil {
		return nil, domain.ErrNotesDisabled
	}
	if !sub.Valid() {
		return nil, domain.ErrInvalidRequest
	}
	note, err := s.store.UpsertNote(ctx, normalize(sub))
	if err != nil {
		return nil, fmt.Errorf("storing note: %w", err)
	}
	return note, nil
}

// SubmitNoteBatch stores a batch of notes. Invalid submissions are skipped and
// logged; the number of stored notes is returned.
func (s *NoteService) SubmitNoteBatch(ctx context.Context, batch domain.BatchNoteSubmission) (int, error) {
	if s.store == nil {
		return 0, domain.ErrNotesDisabled
	}

	valid := make([]domain.NoteSubmission, 0, len(batch.Notes))
	for _, sub := range batch.Notes {
		if !sub.Valid() {
			s.logger.Warn("skipping invalid note submission", "game_id", sub.GameID)
			continue
		}
		valid = append(valid, normalize(sub))
	}

	if err := s.store.BatchUpsertNotes(ctx, valid); err != nil {
		return 0, fmt.Errorf("storing note batch: %w", err)
	}
	return len(valid), nil
}

// DeleteNote removes the note of a game
func (s *NoteService) DeleteNote(ctx context.Context, gameID int64) error {
	if s.store == nil {
		return domain.ErrNotesDisabled
	}
	if gameID <= 0 {
		return domain.ErrInvalidRequest
	}
	return s.store.DeleteNote(ctx, gameID)
}

func normalize(sub domain.NoteSubmission) domain.NoteSubmission {
	sub.HypeLevel = strings.TrimSpace(sub.HypeLevel)
	sub.Content = strings.TrimSpace(sub.Content)
	tags := make([]string, 0, len(sub.Tags))
	for _, t := range sub.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	sub.Tags = tags
	return sub
}
