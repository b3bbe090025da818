package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewWithoutURLIsNoop(t *testing.T) {
	if _, ok := New("  ", time.Second).(Noop); !ok {
		t.Error("Expected Noop notifier when no URL is configured")
	}
}

func TestSendPostsContent(t *testing.T) {
	received := make(chan payload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, time.Second, server.Client())
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := <-received; got.Content != "hello" {
		t.Errorf("Expected content %q, got %q", "hello", got.Content)
	}
}

func TestSendReportsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, time.Second, server.Client())
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Error("Expected an error for a 502 response")
	}
}

func TestNotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		close(done)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, 5*time.Second, server.Client())

	returned := make(chan struct{})
	go func() {
		n.Notify("slow")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow webhook")
	}
	close(release)
	<-done
}
