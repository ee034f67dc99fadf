package handlers

import (
	"encoding/json"
	"net/http"

	"lovehour-backend/internal/middleware"
	"lovehour-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MatchHandler handles matching-related HTTP requests
type MatchHandler struct {
	matchService *services.MatchService
	userService  *services.UserService
	wsHub        *services.WSHub
	pusher       *services.Pusher
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(
	matchService *services.MatchService,
	userService *services.UserService,
	wsHub *services.WSHub,
	pusher *services.Pusher,
) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		userService:  userService,
		wsHub:        wsHub,
		pusher:       pusher,
	}
}

// CreateMatchRequest represents the request body for creating a match
type CreateMatchRequest struct {
	PartnerCode string `json:"partner_code"`
}

// CreateMatch handles POST /api/v1/match
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PartnerCode == "" {
		respondError(w, "partner_code is required", http.StatusBadRequest)
		return
	}

	partner, err := h.matchService.Match(ctx, userID, req.PartnerCode)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("partner_code", req.PartnerCode).
			Msg("Failed to create match")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("partner_id", partner.ID).
		Msg("Match created")

	// Notify both sides; the match is committed either way.
	if h.wsHub.IsOnline(userID) {
		if err := h.wsHub.NotifyMatched(userID, partner); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to notify user about match")
		}
	}
	user, err := h.userService.GetByID(ctx, userID)
	if err == nil {
		if h.wsHub.IsOnline(partner.ID) {
			if err := h.wsHub.NotifyMatched(partner.ID, user); err != nil {
				log.Debug().Err(err).Str("partner_id", partner.ID).Msg("Failed to notify partner about match")
			}
		}
		if partner.PushToken != nil {
			h.pusher.Matched(ctx, *partner.PushToken, user.Name)
		}
	}

	respondJSON(w, http.StatusOK, partner)
}

// DeleteMatch handles DELETE /api/v1/match
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	partner, err := h.matchService.Unmatch(ctx, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to delete match")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("partner_id", partner.ID).
		Msg("Match deleted")

	if h.wsHub.IsOnline(userID) {
		if err := h.wsHub.NotifyUnmatched(userID); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to notify user about unmatch")
		}
	}
	if h.wsHub.IsOnline(partner.ID) {
		if err := h.wsHub.NotifyUnmatched(partner.ID); err != nil {
			log.Debug().Err(err).Str("partner_id", partner.ID).Msg("Failed to notify partner about unmatch")
		}
	}
	if partner.PushToken != nil {
		h.pusher.Unmatched(ctx, *partner.PushToken)
	}

	w.WriteHeader(http.StatusNoContent)
}
