// Package chat runs the table chat: a websocket hub that keeps a bounded
// message log and pushes it to every connected player.
package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Message is one chat line.
type Message struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Client → server envelope types.
const TypeAddMessage = "AddMessage"

// Server → client envelope types.
const (
	TypeFullHistory = "FullHistory"
	TypeSystem      = "System"
)

// envelope is the {"type": ..., "data": ...} frame used in both directions.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client is one websocket connection attached to the hub.
type client struct {
	id   string
	send chan []byte
}

// Hub serialises all chat state through a single goroutine.
type Hub struct {
	historySize int
	history     []Message

	register   chan *client
	unregister chan *client
	incoming   chan Message
	done       chan struct{}
	stopOnce   sync.Once

	connected atomic.Int64
}

// NewHub creates a Hub replaying at most historySize messages. Call Run to
// start it.
func NewHub(historySize int) *Hub {
	return &Hub{
		historySize: historySize,
		register:    make(chan *client),
		unregister:  make(chan *client),
		incoming:    make(chan Message),
		done:        make(chan struct{}),
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

// Stop terminates Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Run processes registrations and messages until Stop is called.
func (h *Hub) Run() {
	clients := make(map[*client]bool)
	defer func() {
		for c := range clients {
			close(c.send)
		}
	}()

	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			clients[c] = true
			deliver(clients, c, h.fullHistory())
			h.broadcast(clients, systemFrame(fmt.Sprintf("a player joined the table (%d online)", len(clients))))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.broadcast(clients, systemFrame(fmt.Sprintf("a player left the table (%d online)", len(clients))))
			}

		case m := <-h.incoming:
			h.history = append(h.history, m)
			if over := len(h.history) - h.historySize; over > 0 {
				h.history = h.history[over:]
			}
			h.broadcast(clients, h.fullHistory())
		}
		h.connected.Store(int64(len(clients)))
	}
}

// Post adds a message as if a client had sent it. Empty messages are ignored.
func (h *Hub) Post(m Message) bool {
	m.Username = strings.TrimSpace(m.Username)
	m.Message = strings.TrimSpace(m.Message)
	if m.Username == "" || m.Message == "" {
		return false
	}
	select {
	case h.incoming <- m:
		return true
	case <-h.done:
		return false
	}
}

// attach registers a new client and returns it.
func (h *Hub) attach() (*client, bool) {
	c := &client{id: uuid.NewString(), send: make(chan []byte, 256)}
	select {
	case h.register <- c:
		return c, true
	case <-h.done:
		return nil, false
	}
}

// detach unregisters c. It is safe to call after Stop.
func (h *Hub) detach(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// handleFrame decodes one client frame and posts it.
func (h *Hub) handleFrame(c *client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Debug("chat frame is not an envelope", "client", c.id, "error", err)
		return
	}
	if env.Type != TypeAddMessage {
		slog.Debug("chat frame type ignored", "client", c.id, "type", env.Type)
		return
	}
	var m Message
	if err := json.Unmarshal(env.Data, &m); err != nil {
		slog.Debug("chat message malformed", "client", c.id, "error", err)
		return
	}
	h.Post(m)
}

func (h *Hub) broadcast(clients map[*client]bool, msg []byte) {
	for c := range clients {
		if !deliver(clients, c, msg) {
			slog.Warn("chat client too slow, dropping", "client", c.id)
		}
	}
}

// deliver queues msg for c, dropping the client when its buffer is full.
func deliver(clients map[*client]bool, c *client, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		delete(clients, c)
		close(c.send)
		return false
	}
}

func (h *Hub) fullHistory() []byte {
	msgs := h.history
	if msgs == nil {
		msgs = []Message{}
	}
	return frame(TypeFullHistory, msgs)
}

func systemFrame(text string) []byte {
	return frame(TypeSystem, text)
}

func frame(typ string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("chat frame marshal failed", "type", typ, "error", err)
		payload = []byte("null")
	}
	out, _ := json.Marshal(envelope{Type: typ, Data: payload})
	return out
}
