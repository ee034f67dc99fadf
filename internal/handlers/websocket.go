package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lovehour-backend/internal/middleware"
	"lovehour-backend/internal/models"
	"lovehour-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients connect from app webviews, no origin check
	},
}

// userDirectory is the slice of the user service the websocket session
// needs: token validation at connect, fresh user reads during the
// session.
type userDirectory interface {
	ValidateJWT(token string) (string, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub   *services.WSHub
	users userDirectory
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, users userDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		users: users,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.users)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for WebSocket session")
		return
	}

	// Tell this client whether the partner is online, and the partner
	// that this user came online. The partner is re-read at teardown
	// since the match can change while the session is open.
	if user.PartnerID != nil {
		partnerID := *user.PartnerID
		online := h.hub.IsOnline(partnerID)
		statusMsg := services.WSMessage{
			Type:   "partner_status",
			Online: &online,
		}
		if err := h.hub.SendToUser(userID, statusMsg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to send partner_status message")
		}
		h.hub.NotifyPartnerStatus(partnerID, true)
	}
	defer h.notifyPartnerOffline(userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(conn, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(conn, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages. The user is
// re-read per message so match changes made during the session are
// answered from current state.
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "ping":
		return h.hub.SendToUser(userID, services.WSMessage{Type: "pong"})
	case "partner_status":
		user, err := h.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.PartnerID == nil {
			return h.sendErrorToUser(userID, "You are not matched")
		}
		online := h.hub.IsOnline(*user.PartnerID)
		return h.hub.SendToUser(userID, services.WSMessage{
			Type:   "partner_status",
			Online: &online,
		})
	default:
		return h.sendErrorToUser(userID, "Unknown message type")
	}
}

// notifyPartnerOffline tells the current partner, if any, that this
// user went offline.
func (h *WebSocketHandler) notifyPartnerOffline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil || user.PartnerID == nil {
		return
	}
	h.hub.NotifyPartnerStatus(*user.PartnerID, false)
}

// sendError sends an error message to the WebSocket connection
func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	data, _ := json.Marshal(msg)
	conn.WriteMessage(websocket.TextMessage, data)
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) error {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	return h.hub.SendToUser(userID, msg)
}
