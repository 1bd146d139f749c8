package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlspress/hlspress/internal/logging"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logging.NewNop())
	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Emit("job-progress", map[string]interface{}{"jobId": 7, "percent": 42.5})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "job-progress", frame.Event)

	payload, ok := frame.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), payload["jobId"])
	assert.Equal(t, 42.5, payload["percent"])
}

func TestHubUnregistersClosedClient(t *testing.T) {
	hub := NewHub(logging.NewNop())
	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// emitting with no clients is a no-op, not a panic
	hub.Emit("videos", nil)
}
