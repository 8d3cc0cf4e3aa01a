package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventRollCompleted   = "roll.completed"
	EventRerollCompleted = "reroll.completed"
)

// SignatureHeader carries the HMAC of the body when a secret is configured.
const SignatureHeader = "X-Dicepool-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Sign returns the "sha256=<hex>" signature of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Dicepool-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier publishes events to one configured endpoint. A Notifier with an
// empty URL, or a nil Notifier, drops every event.
type Notifier struct {
	url    string
	secret string
	delays []time.Duration
}

// NewNotifier creates a Notifier retrying after 1s, 5s and 30s.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Enabled reports whether events are delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Publish delivers an event asynchronously with retries.
func (n *Notifier) Publish(eventType, userID string, data any) {
	if !n.Enabled() {
		return
	}
	event := &Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	go n.deliverWithRetry(event)
}

func (n *Notifier) deliverWithRetry(event *Event) {
	for attempt, delay := range n.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, n.url, n.secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", n.url,
				"event", event.Type,
				"user_id", event.UserID,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", n.url,
			"event", event.Type,
			"user_id", event.UserID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", n.url,
		"event", event.Type,
		"user_id", event.UserID,
	)
}
