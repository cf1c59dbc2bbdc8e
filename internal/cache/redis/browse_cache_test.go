package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*BrowseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), ClientConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return NewBrowseCache(c, ttl), mr
}

func TestBrowseCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	bc, _ := newTestCache(t, time.Minute)

	key := domain.BrowseKey{UserID: "u1", Label: "NBA Spread"}
	in := domain.BrowseEntry{
		Label:    "NBA Spread",
		Category: domain.CategoryBasketball,
		SubType:  domain.SubTypeSpread,
		Keyword:  "lakers",
		Markets: []domain.Market{{
			ID:            "1",
			Question:      "Lakers vs Celtics",
			Outcomes:      []string{"Lakers", "Celtics"},
			OutcomePrices: []float64{0.4, 0.6},
			GameStartTime: domain.Timestamp{Raw: "2025-06-12T00:30:00Z", Time: time.Date(2025, 6, 12, 0, 30, 0, 0, time.UTC), Valid: true},
		}},
	}
	if err := bc.Put(ctx, key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := bc.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Label != in.Label || got.SubType != in.SubType || got.Keyword != "lakers" {
		t.Errorf("got %+v", got)
	}
	if len(got.Markets) != 1 || got.Markets[0].OutcomePrices[1] != 0.6 {
		t.Errorf("markets = %+v", got.Markets)
	}
	if !got.Markets[0].GameStartTime.Time.Equal(in.Markets[0].GameStartTime.Time) {
		t.Errorf("game start = %v", got.Markets[0].GameStartTime.Time)
	}
	if got.StoredAt.IsZero() {
		t.Error("StoredAt not set")
	}
}

func TestBrowseCacheLatestFollowsLastWrite(t *testing.T) {
	ctx := context.Background()
	bc, _ := newTestCache(t, time.Minute)

	_ = bc.Put(ctx, domain.BrowseKey{UserID: "u", Label: "NBA Moneyline"}, domain.BrowseEntry{Label: "NBA Moneyline"})
	_ = bc.Put(ctx, domain.BrowseKey{UserID: "u", Label: "NBA Overunder"}, domain.BrowseEntry{Label: "NBA Overunder"})

	got, err := bc.Latest(ctx, "u")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Label != "NBA Overunder" {
		t.Errorf("label = %q, want NBA Overunder", got.Label)
	}
}

func TestBrowseCacheMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	bc, mr := newTestCache(t, time.Minute)

	if _, err := bc.Latest(ctx, "ghost"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}

	key := domain.BrowseKey{UserID: "u", Label: "MLB"}
	_ = bc.Put(ctx, key, domain.BrowseEntry{Label: "MLB"})
	if ttl := mr.TTL(browseKey(key)); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := bc.Get(ctx, key); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after ttl", err)
	}
	if _, err := bc.Latest(ctx, "u"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("latest err = %v, want ErrCacheMiss after ttl", err)
	}
}

func TestNewFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, ClientConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}); err == nil {
		t.Fatal("expected ping error")
	}
}
