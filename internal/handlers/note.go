package handlers

import (
	"encoding/json"
	"net/http"

	"lovehour-backend/internal/middleware"
	"lovehour-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// NoteHandler handles shared-note HTTP requests
type NoteHandler struct {
	noteService *services.NoteService
	userService *services.UserService
	wsHub       *services.WSHub
	pusher      *services.Pusher
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(
	noteService *services.NoteService,
	userService *services.UserService,
	wsHub *services.WSHub,
	pusher *services.Pusher,
) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		userService: userService,
		wsHub:       wsHub,
		pusher:      pusher,
	}
}

// GetNotes handles GET /api/v1/notes
func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	notes, err := h.noteService.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get notes")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
	})
}

// CreateNoteRequest represents the request body for adding a note
type CreateNoteRequest struct {
	Body string `json:"body"`
}

// CreateNote handles POST /api/v1/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Body == "" {
		respondError(w, "body is required", http.StatusBadRequest)
		return
	}

	note, partnerID, err := h.noteService.Add(ctx, userID, req.Body)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create note")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("note_id", note.ID).
		Msg("Note created")

	if h.wsHub.IsOnline(partnerID) {
		if err := h.wsHub.NotifyNoteAdded(partnerID, note); err != nil {
			log.Debug().Err(err).Str("partner_id", partnerID).Msg("Failed to notify partner about note")
		}
	}
	user, uerr := h.userService.GetByID(ctx, userID)
	partner, perr := h.userService.GetByID(ctx, partnerID)
	if uerr == nil && perr == nil && partner.Awake && partner.PushToken != nil {
		h.pusher.NoteAdded(ctx, *partner.PushToken, user.Name)
	}

	respondJSON(w, http.StatusOK, note)
}
