package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNotifyFiltersEvents(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier([]Sender{s}, []string{EventSessionFallback}, 0, discard())

	_ = n.Notify(context.Background(), EventFetchFailed, "fetch", "x")
	_ = n.Notify(context.Background(), EventSessionFallback, "fallback", "x")

	if s.count() != 1 || s.titles[0] != "fallback" {
		t.Errorf("titles = %v, want [fallback]", s.titles)
	}
}

func TestNotifyCooldown(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier([]Sender{s}, nil, time.Minute, discard())
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = n.Notify(ctx, EventFetchFailed, "a", "")
	_ = n.Notify(ctx, EventFetchFailed, "b", "")
	_ = n.Notify(ctx, EventSessionFallback, "c", "")
	clock = clock.Add(61 * time.Second)
	_ = n.Notify(ctx, EventFetchFailed, "d", "")

	if got := s.count(); got != 3 {
		t.Errorf("sent %d (%v), want 3", got, s.titles)
	}
}

func TestNotifyCollectsSenderErrors(t *testing.T) {
	bad := &recordingSender{err: errors.New("down")}
	good := &recordingSender{}
	n := NewNotifier([]Sender{bad, good}, nil, 0, discard())

	if err := n.Notify(context.Background(), EventStartup, "t", "m"); err == nil {
		t.Fatal("expected combined error")
	}
	if good.count() != 1 {
		t.Error("healthy sender skipped after a failure")
	}
}

func TestNotifyAsyncWaits(t *testing.T) {
	s := &recordingSender{}
	n := NewNotifier([]Sender{s}, nil, 0, discard())
	ctx, cancel := context.WithCancel(context.Background())
	n.NotifyAsync(ctx, EventSessionFallback, "t", "m")
	cancel()
	n.Wait()
	if s.count() != 1 {
		t.Errorf("count = %d, want 1", s.count())
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	if err := n.Notify(context.Background(), EventStartup, "t", "m"); err != nil {
		t.Errorf("err = %v", err)
	}
	n.NotifyAsync(context.Background(), EventStartup, "t", "m")
	n.Wait()
}

func TestDiscordSenderPostsEmbed(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL, "marketsbot")
	if err := d.Send(context.Background(), "Session fallback", "market 42"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["username"] != "marketsbot" {
		t.Errorf("username = %v", got["username"])
	}
	embeds, _ := got["embeds"].([]any)
	if len(embeds) != 1 {
		t.Fatalf("embeds = %v", got["embeds"])
	}
	e := embeds[0].(map[string]any)
	if e["title"] != "Session fallback" || e["description"] != "market 42" {
		t.Errorf("embed = %v", e)
	}
}

func TestDiscordSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	if err := NewDiscordSender(srv.URL, "").Send(context.Background(), "t", "m"); err == nil {
		t.Fatal("expected error")
	}
}
