// Package notify delivers best-effort chat notifications about portal events.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Notifier posts a one-line message to an external channel. Implementations
// must not block the caller and never report delivery failures.
type Notifier interface {
	Notify(content string)
}

// Noop discards every message
type Noop struct{}

// Notify does nothing
func (Noop) Notify(string) {}

// WebhookNotifier posts {"content": "..."} to a chat webhook
type WebhookNotifier struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// New returns a webhook notifier, or Noop when url is empty
func New(url string, timeout time.Duration) Notifier {
	url = strings.TrimSpace(url)
	if url == "" {
		return Noop{}
	}
	return NewWebhookNotifier(url, timeout, nil)
}

// NewWebhookNotifier creates a webhook notifier; a nil client uses http.DefaultClient
func NewWebhookNotifier(url string, timeout time.Duration, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{url: url, timeout: timeout, httpClient: httpClient}
}

// Notify sends content in a background goroutine
func (n *WebhookNotifier) Notify(content string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.Send(ctx, content); err != nil {
			slog.Warn("Webhook notification failed", "error", err)
		}
	}()
}

type payload struct {
	Content string `json:"content"`
}

// Send posts content and waits for the response
func (n *WebhookNotifier) Send(ctx context.Context, content string) error {
	body, err := json.Marshal(payload{Content: content})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	slog.Debug("Webhook notification delivered", "status", resp.StatusCode)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
