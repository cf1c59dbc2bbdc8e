package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(url string, pageSize int) *GammaClient {
	return NewGammaClient(GammaConfig{
		BaseURL:     url,
		PageSize:    pageSize,
		MaxAttempts: 2,
		RetryDelay:  0,
		PageDelay:   0,
	}, quietLogger())
}

func marketsJSON(start, n int) []byte {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"id":            strconv.Itoa(start + i),
			"question":      fmt.Sprintf("Team %d vs Team %d", start+i, start+i+1),
			"conditionId":   fmt.Sprintf("0x%d", start+i),
			"outcomes":      `["Yes","No"]`,
			"outcomePrices": `["0.6","0.4"]`,
		}
	}
	b, _ := json.Marshal(out)
	return b
}

func TestFetchAllMarketsStopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("tag_id") != "745" || q.Get("closed") != "false" || q.Get("active") != "true" || q.Get("archived") != "false" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("offset") == "0" {
			w.Write(marketsJSON(0, 3))
			return
		}
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 3).FetchAllMarkets(context.Background(), "745")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d markets, want 3", len(got))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetchAllMarketsStopsOnShortPage(t *testing.T) {
	var (
		mu      sync.Mutex
		offsets []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		off := r.URL.Query().Get("offset")
		mu.Lock()
		offsets = append(offsets, off)
		mu.Unlock()
		switch off {
		case "0":
			w.Write(marketsJSON(0, 2))
		case "2":
			w.Write(marketsJSON(2, 1))
		default:
			t.Errorf("unexpected offset %s", off)
			w.Write([]byte("[]"))
		}
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 2).FetchAllMarkets(context.Background(), "64")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d markets, want 3", len(got))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(offsets) != 2 {
		t.Errorf("offsets = %v, want [0 2]", offsets)
	}
}

func TestFetchAllMarketsFirstPageFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 10).FetchAllMarkets(context.Background(), "745")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	if got != nil {
		t.Errorf("got %d markets, want nil", len(got))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 attempts", calls.Load())
	}
}

func TestFetchAllMarketsPartialOnLaterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			w.Write(marketsJSON(0, 2))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 2).FetchAllMarkets(context.Background(), "745")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d markets, want 2", len(got))
	}
}

func TestFetchAllMarketsRetriesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write(marketsJSON(0, 1))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 5).FetchAllMarkets(context.Background(), "899")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d markets, want 1", len(got))
	}
}

func TestGetMarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 10).GetMarket(context.Background(), "42")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetMarketDecodesNativeArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "7",
			"question": "Lakers vs. Celtics",
			"conditionId": "0xabc",
			"outcomes": ["Lakers", "Celtics"],
			"outcomePrices": [0.55, "0.45"],
			"spread": "0.01",
			"volume": 125000.5,
			"gameStartTime": "2025-06-12 00:30:00+00",
			"endDate": "2025-06-19T12:00:00Z",
			"sportsMarketType": "moneyline"
		}`))
	}))
	defer srv.Close()

	m, err := testClient(srv.URL, 10).GetMarket(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	if len(m.Outcomes) != 2 || m.Outcomes[0] != "Lakers" {
		t.Errorf("outcomes = %v", m.Outcomes)
	}
	if len(m.OutcomePrices) != 2 || m.OutcomePrices[0] != 0.55 || m.OutcomePrices[1] != 0.45 {
		t.Errorf("prices = %v", m.OutcomePrices)
	}
	if m.Spread != 0.01 {
		t.Errorf("spread = %v", m.Spread)
	}
	if m.Volume != 125000.5 {
		t.Errorf("volume = %v", m.Volume)
	}
	if !m.GameStartTime.Valid || m.GameStartTime.Time.Hour() != 0 || m.GameStartTime.Time.Minute() != 30 {
		t.Errorf("game start = %+v", m.GameStartTime)
	}
	if !m.EndDate.Valid {
		t.Errorf("end date not parsed: %+v", m.EndDate)
	}
}

func TestFetchAllMarketsPausesBetweenPages(t *testing.T) {
	const (
		serve = 60 * time.Millisecond
		delay = 80 * time.Millisecond
	)
	var (
		mu     sync.Mutex
		starts []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		time.Sleep(serve)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		n := 2
		if offset >= 4 {
			n = 1
		}
		w.Write(marketsJSON(offset, n))
	}))
	defer srv.Close()

	c := NewGammaClient(GammaConfig{
		BaseURL:     srv.URL,
		PageSize:    2,
		MaxAttempts: 1,
		PageDelay:   delay,
	}, quietLogger())

	got, err := c.FetchAllMarkets(context.Background(), "745")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d markets, want 5", len(got))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(starts) != 3 {
		t.Fatalf("requests = %d, want 3", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < serve+delay {
			t.Errorf("request %d started %v after the previous one, want >= %v", i, gap, serve+delay)
		}
	}
}

func TestFetchAllMarketsPacingHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(marketsJSON(0, 2))
	}))
	defer srv.Close()

	c := NewGammaClient(GammaConfig{BaseURL: srv.URL, PageSize: 2, MaxAttempts: 1, PageDelay: time.Hour}, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got, err := c.FetchAllMarkets(ctx, "745")
	if err == nil {
		t.Fatal("expected pacing to give up on the context deadline")
	}
	if len(got) != 2 {
		t.Errorf("got %d markets, want the first page", len(got))
	}
}

func TestFetchAllMarketsDropsClosedRecords(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("offset") {
		case "0":
			w.Write([]byte(`[
				{"id": "1", "question": "A vs B", "outcomes": ["A","B"], "outcomePrices": ["0.5","0.5"]},
				{"id": "2", "question": "C vs D", "closed": true, "outcomes": ["C","D"], "outcomePrices": ["0.5","0.5"]}
			]`))
		case "2":
			w.Write([]byte(`[
				{"id": "3", "question": "E vs F", "active": "false", "outcomes": ["E","F"], "outcomePrices": ["0.5","0.5"]},
				{"id": "4", "question": "G vs H", "active": true, "outcomes": ["G","H"], "outcomePrices": ["0.5","0.5"]}
			]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 2).FetchAllMarkets(context.Background(), "745")
	if err != nil {
		t.Fatalf("FetchAllMarkets: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("markets = %+v, want ids 1 and 4", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}
