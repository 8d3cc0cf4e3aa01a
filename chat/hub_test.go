package chat

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

func startHub(t *testing.T, size int) (*Hub, string) {
	t.Helper()
	h := NewHub(size)
	go h.Run()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(func() {
		h.Stop()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one of the given type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == typ {
			return env.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, username, text string) {
	t.Helper()
	data, err := json.Marshal(Message{Username: username, Message: text})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(envelope{Type: TypeAddMessage, Data: data}))
}

func TestHub_ConnectReceivesEmptyHistory(t *testing.T) {
	_, url := startHub(t, 10)
	conn := dial(t, url)

	var msgs []Message
	require.NoError(t, json.Unmarshal(next(t, conn, TypeFullHistory), &msgs))
	assert.Empty(t, msgs)

	var sys string
	require.NoError(t, json.Unmarshal(next(t, conn, TypeSystem), &sys))
	assert.Contains(t, sys, "joined")
}

func TestHub_MessagesAreBroadcast(t *testing.T) {
	_, url := startHub(t, 10)
	alice := dial(t, url)
	next(t, alice, TypeFullHistory)
	bob := dial(t, url)
	next(t, bob, TypeFullHistory)

	send(t, alice, "alice", "rolling 6 dice")

	for _, conn := range []*websocket.Conn{alice, bob} {
		var msgs []Message
		require.NoError(t, json.Unmarshal(next(t, conn, TypeFullHistory), &msgs))
		require.Len(t, msgs, 1)
		assert.Equal(t, Message{Username: "alice", Message: "rolling 6 dice"}, msgs[0])
	}
}

func TestHub_HistoryIsBounded(t *testing.T) {
	h, url := startHub(t, 2)
	conn := dial(t, url)
	next(t, conn, TypeFullHistory)

	for _, text := range []string{"one", "two", "three"} {
		require.True(t, h.Post(Message{Username: "gm", Message: text}))
	}

	var msgs []Message
	for len(msgs) == 0 || msgs[len(msgs)-1].Message != "three" {
		require.NoError(t, json.Unmarshal(next(t, conn, TypeFullHistory), &msgs))
	}
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Message)
}

func TestHub_PostRejectsEmpty(t *testing.T) {
	h := NewHub(5)
	assert.False(t, h.Post(Message{Username: " ", Message: "hi"}))
	assert.False(t, h.Post(Message{Username: "gm", Message: ""}))
}

func TestHub_ClientsCount(t *testing.T) {
	h, url := startHub(t, 5)
	conn := dial(t, url)
	next(t, conn, TypeFullHistory)

	assert.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
