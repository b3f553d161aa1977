package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, hub *Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub(nil)
	var connected int64
	hub.OnConnectionChange(func(delta int) { atomic.AddInt64(&connected, int64(delta)) })
	url := newHubServer(t, hub)

	a1 := dial(t, url+"?user=alice")
	a2 := dial(t, url+"?user=alice")
	b := dial(t, url+"?user=bob")

	require.Eventually(t, func() bool { return hub.Connections("alice") == 2 && hub.Connections("bob") == 1 }, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 3, atomic.LoadInt64(&connected))

	delivered := hub.Publish("alice", Envelope{Type: "chat_message", Payload: map[string]string{"content": "hi"}})
	assert.Equal(t, 2, delivered)

	for _, conn := range []*websocket.Conn{a1, a2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var got Envelope
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "chat_message", got.Type)
	}

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 0, hub.Publish("nobody", Envelope{Type: "chat_message"}))
}

func TestHubUnregistersOnDisconnectAndClose(t *testing.T) {
	hub := NewHub(nil)
	url := newHubServer(t, hub)

	conn := dial(t, url+"?user=alice")
	require.Eventually(t, func() bool { return hub.Connections("alice") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections("alice") == 0 }, time.Second, 10*time.Millisecond)

	dial(t, url+"?user=bob")
	require.Eventually(t, func() bool { return hub.Connections("bob") == 1 }, time.Second, 10*time.Millisecond)
	hub.Close()
	assert.Equal(t, 0, hub.Connections("bob"))
}
