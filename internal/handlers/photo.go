package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lovehour-backend/internal/middleware"
	"lovehour-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
	userService  *services.UserService
	wsHub        *services.WSHub
	pusher       *services.Pusher
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(
	photoService *services.PhotoService,
	userService *services.UserService,
	wsHub *services.WSHub,
	pusher *services.Pusher,
) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		userService:  userService,
		wsHub:        wsHub,
		pusher:       pusher,
	}
}

// GetPhotos handles GET /api/v1/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsedOffset
		}
	}

	photos, total, err := h.photoService.Feed(ctx, userID, limit, offset)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to get photos")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
		"total":  total,
	})
}

// GetGate handles GET /api/v1/photos/gate
func (h *PhotoHandler) GetGate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	gate, err := h.photoService.Gate(ctx, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to compute upload gate")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, gate)
}

// UploadPhoto handles POST /api/v1/photos/upload
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	response, err := h.photoService.Upload(ctx, userID, req.Caption, req.ContentType)
	if err != nil {
		if errors.Is(err, services.ErrGateClosed) {
			// Tell the client when to come back.
			gate, gerr := h.photoService.Gate(ctx, userID)
			if gerr == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":           err.Error(),
					"next_allowed_at": gate.NextAllowedAt,
				})
				return
			}
		}
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to create photo upload")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("photo_id", response.Photo.ID).
		Msg("Photo upload created")

	// Tell the partner, best-effort.
	user, err := h.userService.GetByID(ctx, userID)
	if err == nil && user.PartnerID != nil {
		if h.wsHub.IsOnline(*user.PartnerID) {
			if err := h.wsHub.NotifyPhotoPosted(*user.PartnerID, response.Photo); err != nil {
				log.Debug().Err(err).Str("partner_id", *user.PartnerID).Msg("Failed to notify partner about photo")
			}
		}
		partner, perr := h.userService.GetByID(ctx, *user.PartnerID)
		if perr == nil && partner.Awake && partner.PushToken != nil {
			h.pusher.PhotoPosted(ctx, *partner.PushToken, user.Name)
		}
	}

	respondJSON(w, http.StatusOK, response)
}
