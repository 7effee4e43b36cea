package domain

import "time"

// Note is a personal note attached to a game
type Note struct {
	GameID    int64     `json:"game_id"`
	HypeLevel string    `json:"hype_level,omitempty"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteSubmission represents a request to create or replace a note
type NoteSubmission struct {
	GameID    int64    `json:"game_id"`
	HypeLevel string   `json:"hype_level,omitempty"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
}

// Valid reports whether the submission can be stored
func (s NoteSubmission) Valid() bool {
	return s.GameID > 0
}

// BatchNoteSubmission represents multiple note submissions
type BatchNoteSubmission struct {
	Notes []NoteSubmission `json:"notes"`
}
