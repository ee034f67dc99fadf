package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub spins up a websocket endpoint that registers the server side
// of the connection in the hub, and returns both ends.
func dialHub(t *testing.T, hub *WSHub, userID string) (client, server *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(userID, conn)
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-connCh:
	case <-time.After(time.Second):
		t.Fatal("server side never registered")
	}
	return client, server
}

func readMessage(t *testing.T, client *websocket.Conn) WSMessage {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSHubSendToUser(t *testing.T) {
	hub := NewWSHub()

	assert.False(t, hub.IsOnline("u1"))
	assert.Error(t, hub.SendToUser("u1", WSMessage{Type: "gate_unlocked"}))

	client, _ := dialHub(t, hub, "u1")
	require.True(t, hub.IsOnline("u1"))

	require.NoError(t, hub.NotifyGateUnlocked("u1"))
	assert.Equal(t, "gate_unlocked", readMessage(t, client).Type)
}

func TestWSHubUnregister(t *testing.T) {
	hub := NewWSHub()

	_, server := dialHub(t, hub, "u1")
	require.True(t, hub.IsOnline("u1"))

	hub.Unregister("u1", server)
	assert.False(t, hub.IsOnline("u1"))
	assert.Error(t, hub.SendToUser("u1", WSMessage{Type: "unmatched"}))
}

func TestWSHubReconnectSurvivesStaleTeardown(t *testing.T) {
	hub := NewWSHub()

	_, oldServer := dialHub(t, hub, "u1")
	require.True(t, hub.IsOnline("u1"))

	// Reconnect: Register kicks the old connection, and the old
	// session's read loop tears down with its own conn.
	client2, newServer := dialHub(t, hub, "u1")
	hub.Unregister("u1", oldServer)

	// The reconnected session must still be live and reachable.
	assert.True(t, hub.IsOnline("u1"))
	require.NoError(t, hub.NotifyGateUnlocked("u1"))
	assert.Equal(t, "gate_unlocked", readMessage(t, client2).Type)

	// The current session's own teardown still works.
	hub.Unregister("u1", newServer)
	assert.False(t, hub.IsOnline("u1"))
}

func TestWSHubUnregisterNilConnForces(t *testing.T) {
	hub := NewWSHub()

	dialHub(t, hub, "u1")
	require.True(t, hub.IsOnline("u1"))

	hub.Unregister("u1", nil)
	assert.False(t, hub.IsOnline("u1"))
}

func TestWSHubPartnerStatus(t *testing.T) {
	hub := NewWSHub()

	client, _ := dialHub(t, hub, "partner")
	require.True(t, hub.IsOnline("partner"))

	hub.NotifyPartnerStatus("partner", true)

	msg := readMessage(t, client)
	assert.Equal(t, "partner_status", msg.Type)
	require.NotNil(t, msg.Online)
	assert.True(t, *msg.Online)
}
