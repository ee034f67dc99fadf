package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lovehour-backend/internal/models"
	"lovehour-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDirectory is an in-memory userDirectory whose match state can be
// flipped while a session is open.
type stubDirectory struct {
	mu   sync.Mutex
	user models.User
}

func (s *stubDirectory) ValidateJWT(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.ID, nil
}

func (s *stubDirectory) GetByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user
	return &u, nil
}

func (s *stubDirectory) setPartner(partnerID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.PartnerID = partnerID
}

func dialWS(t *testing.T, h *WebSocketHandler) *websocket.Conn {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWebSocket)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=test"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func readWS(t *testing.T, client *websocket.Conn) services.WSMessage {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var msg services.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketPartnerStatusTracksMatchChanges(t *testing.T) {
	hub := services.NewWSHub()
	dir := &stubDirectory{user: models.User{ID: "u1", Name: "Alex"}}
	handler := NewWebSocketHandler(hub, dir)

	client := dialWS(t, handler)
	require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 10*time.Millisecond)

	// Unmatched: the in-session query must say so.
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"partner_status"}`)))
	msg := readWS(t, client)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "You are not matched", msg.Message)

	// A match lands mid-session: the same query must now answer from
	// current state, not from what was true at connect.
	partnerID := "u2"
	dir.setPartner(&partnerID)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"partner_status"}`)))
	msg = readWS(t, client)
	assert.Equal(t, "partner_status", msg.Type)
	require.NotNil(t, msg.Online)
	assert.False(t, *msg.Online)
}

func TestWebSocketPing(t *testing.T) {
	hub := services.NewWSHub()
	dir := &stubDirectory{user: models.User{ID: "u1"}}
	handler := NewWebSocketHandler(hub, dir)

	client := dialWS(t, handler)
	require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readWS(t, client).Type)
}
