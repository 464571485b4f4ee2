package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notification is the minimal payload handed to the push collaborator
// when a message could not be delivered over a live connection.
type Notification struct {
	UserID    string `json:"userId"`
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	Preview   string `json:"preview,omitempty"`
}

// Sender delivers push notifications to offline recipients. Failures are
// the caller's to log; they must never block or roll back delivery state.
type Sender interface {
	Notify(ctx context.Context, n Notification) error
}

// HTTPSender posts notifications to an FCM-style HTTP endpoint.
type HTTPSender struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewHTTPSender(endpoint, serverKey string) *HTTPSender {
	return &HTTPSender{
		endpoint:  endpoint,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSender) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(map[string]interface{}{
		"to":   "/users/" + n.UserID,
		"data": n,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}

// Nop discards notifications. Used when no push endpoint is configured
// and in tests.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
