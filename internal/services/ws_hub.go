package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"lovehour-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket event sent to a client
type WSMessage struct {
	Type    string      `json:"type"`
	Online  *bool       `json:"online,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections keyed by user ID
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a user, closing any
// previous connection for the same user.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existingConn, exists := h.connections[userID]; exists {
		existingConn.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's WebSocket connection. A non-nil conn only
// removes the entry while it still belongs to that connection, so the
// teardown of a session kicked by a reconnect cannot evict the new one.
// A nil conn removes whatever is registered.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, exists := h.connections[userID]
	if !exists {
		return
	}
	if conn != nil && current != conn {
		return
	}
	current.Close()
	delete(h.connections, userID)
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// NotifyPartnerStatus notifies a user about their partner's presence
func (h *WSHub) NotifyPartnerStatus(partnerID string, online bool) {
	if partnerID == "" {
		return
	}

	message := WSMessage{
		Type:   "partner_status",
		Online: &online,
	}

	if err := h.SendToUser(partnerID, message); err != nil {
		log.Debug().
			Err(err).
			Str("user_id", partnerID).
			Msg("Failed to notify partner status")
	}
}

// NotifyMatched notifies a user that a match was formed
func (h *WSHub) NotifyMatched(userID string, partner *models.User) error {
	return h.SendToUser(userID, WSMessage{
		Type: "matched",
		Data: map[string]interface{}{
			"partner_id":   partner.ID,
			"partner_name": partner.Name,
		},
	})
}

// NotifyUnmatched notifies a user that their match was dissolved
func (h *WSHub) NotifyUnmatched(userID string) error {
	return h.SendToUser(userID, WSMessage{Type: "unmatched"})
}

// NotifyPhotoPosted notifies the partner about a new photo update
func (h *WSHub) NotifyPhotoPosted(partnerID string, photo *models.Photo) error {
	return h.SendToUser(partnerID, WSMessage{
		Type: "photo_posted",
		Data: photo,
	})
}

// NotifyNoteAdded notifies the partner about a new shared note
func (h *WSHub) NotifyNoteAdded(partnerID string, note *models.Note) error {
	return h.SendToUser(partnerID, WSMessage{
		Type: "note_added",
		Data: note,
	})
}

// NotifyGateUnlocked notifies a user that their upload gate opened
func (h *WSHub) NotifyGateUnlocked(userID string) error {
	return h.SendToUser(userID, WSMessage{Type: "gate_unlocked"})
}
