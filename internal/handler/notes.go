package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gamestracker/internal/domain"
)

// GetNote returns the note of a game
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseGameID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := h.notes.GetNote(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get_note", err)
		return
	}

	h.writeSuccess(w, note)
}

// PutNote creates or replaces the note of a game
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseGameID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var sub domain.NoteSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	sub.GameID = id

	note, err := h.notes.SubmitNote(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, "put_note", err)
		return
	}

	h.writeSuccess(w, note)
}

// DeleteNote removes the note of a game
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseGameID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.notes.DeleteNote(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete_note", err)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// ListNotes returns notes ordered by last update
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	notes, err := h.notes.ListNotes(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, "list_notes", err)
		return
	}

	h.writeSuccess(w, notes)
}
