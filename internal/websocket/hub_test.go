package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func (h *Hub) clientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func registerClient(t *testing.T, h *Hub, sessionID string, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: h, SessionID: sessionID, Send: make(chan []byte, buffer)}
	h.register <- c
	require.Eventually(t, func() bool {
		return h.clientCount(sessionID) > 0
	}, time.Second, 5*time.Millisecond)
	return c
}

func TestHubBroadcastDeliversToAllSessions(t *testing.T) {
	h := NewHub(nil, noopLogger{})
	go h.Run()

	a := registerClient(t, h, "alpha", 4)
	b := registerClient(t, h, "beta", 4)

	h.Broadcast("VERSE_CREATED", map[string]string{"line": "one"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), "VERSE_CREATED")
		case <-time.After(time.Second):
			t.Fatalf("client %s got no broadcast", c.SessionID)
		}
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	h := NewHub(nil, noopLogger{})
	go h.Run()

	slow := registerClient(t, h, "alpha", 1)
	slow.Send <- []byte("stale") // fill the buffer so the next send overflows

	h.Broadcast("VERSE_CREATED", map[string]string{"line": "one"})

	require.Eventually(t, func() bool {
		return h.clientCount("alpha") == 0
	}, time.Second, 5*time.Millisecond)

	// A second broadcast after the drop must not touch the closed channel.
	h.Broadcast("VERSE_CREATED", map[string]string{"line": "two"})

	_, open := <-slow.Send // drain the stale message
	assert.True(t, open)
	_, open = <-slow.Send
	assert.False(t, open, "Send should be closed exactly once by the hub")
}

func TestHubSendToSessionDropsSlowClient(t *testing.T) {
	h := NewHub(nil, noopLogger{})
	go h.Run()

	slow := registerClient(t, h, "alpha", 1)
	other := registerClient(t, h, "beta", 1)
	slow.Send <- []byte("stale")

	h.SendToSession("alpha", "RENDER_COMPLETED", map[string]string{"path": "song.mp3"})

	require.Eventually(t, func() bool {
		return h.clientCount("alpha") == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.clientCount("beta"))
	assert.Empty(t, other.Send, "other sessions must not receive the message")
}
