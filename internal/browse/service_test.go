package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/cache/memory"
	"github.com/alanyoungcy/marketsbot/internal/domain"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type mockSource struct {
	markets   []domain.Market
	fetchErr  error
	fetched   []string
	byID      map[string]domain.Market
	getErr    error
	getCalled int
}

func (m *mockSource) FetchAllMarkets(_ context.Context, tagID string) ([]domain.Market, error) {
	m.fetched = append(m.fetched, tagID)
	return m.markets, m.fetchErr
}

func (m *mockSource) GetMarket(_ context.Context, id string) (domain.Market, error) {
	m.getCalled++
	if m.getErr != nil {
		return domain.Market{}, m.getErr
	}
	mk, ok := m.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return mk, nil
}

type mockSessions struct {
	last domain.SessionRequest
}

func (m *mockSessions) CreateSession(_ context.Context, req domain.SessionRequest) string {
	m.last = req
	return "https://bet.example.com/bet/" + req.MarketID
}

type mockAlerts struct{ events []string }

func (m *mockAlerts) NotifyAsync(_ context.Context, event, _, _ string) {
	m.events = append(m.events, event)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func upcoming(id, question string) domain.Market {
	start := testNow.Add(3 * time.Hour)
	return domain.Market{
		ID:            id,
		Question:      question,
		Outcomes:      []string{"A", "B"},
		OutcomePrices: []float64{0.5, 0.5},
		Spread:        0.01,
		GameStartTime: domain.Timestamp{Raw: start.Format(time.RFC3339), Time: start, Valid: true},
	}
}

func newTestService(src MarketSource, cache domain.BrowseCache, pageSize int) (*Service, *mockSessions, *mockAlerts) {
	sessions := &mockSessions{}
	alerts := &mockAlerts{}
	s := NewService(Config{PageSize: pageSize}, src, cache, sessions, alerts, quiet())
	s.now = func() time.Time { return testNow }
	return s, sessions, alerts
}

func manyMarkets(n int) []domain.Market {
	out := make([]domain.Market, n)
	for i := range out {
		out[i] = upcoming(fmt.Sprint(i), fmt.Sprintf("Team %d vs Team %d", i, i+100))
	}
	return out
}

func TestAfterCategory(t *testing.T) {
	s, _, _ := newTestService(&mockSource{}, memory.NewBrowseCache(0, 0), 5)
	if step, _ := s.AfterCategory(domain.CategoryBasketball); step != StepSubTypeSelect {
		t.Errorf("basketball step = %v", step)
	}
	for _, c := range []domain.Category{domain.CategoryBaseball, domain.CategoryHockey, domain.CategorySoccer, domain.CategoryMMA, domain.CategoryEsports} {
		if step, _ := s.AfterCategory(c); step != StepKeywordPrompt {
			t.Errorf("%s step = %v", c, step)
		}
	}
	if _, err := s.AfterCategory(domain.Category(42)); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("err = %v", err)
	}
	if len(s.Categories()) != 6 {
		t.Errorf("categories = %d", len(s.Categories()))
	}
}

func TestBrowseCachesBeforeFirstPage(t *testing.T) {
	src := &mockSource{markets: manyMarkets(23)}
	cache := memory.NewBrowseCache(time.Hour, 100)
	s, _, _ := newTestService(src, cache, 10)

	page, err := s.Browse(context.Background(), "u1", Selection{Category: domain.CategoryHockey})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if src.fetched[0] != "899" {
		t.Errorf("fetched tag %v, want 899", src.fetched)
	}
	if page.Index != 0 || page.TotalPages != 3 || page.Total != 23 || len(page.Markets) != 10 {
		t.Errorf("page = %+v", page)
	}
	if page.HasPrev() || !page.HasNext() {
		t.Error("first page navigation flags wrong")
	}

	entry, err := cache.Get(context.Background(), domain.BrowseKey{UserID: "u1", Label: "NHL"})
	if err != nil {
		t.Fatalf("cache entry missing: %v", err)
	}
	if len(entry.Markets) != 23 {
		t.Errorf("cached %d markets, want 23", len(entry.Markets))
	}
}

func TestPaginateReadsOnlyCache(t *testing.T) {
	src := &mockSource{markets: manyMarkets(23)}
	s, _, _ := newTestService(src, memory.NewBrowseCache(time.Hour, 100), 10)
	ctx := context.Background()

	if _, err := s.Browse(ctx, "u1", Selection{Category: domain.CategoryMMA}); err != nil {
		t.Fatal(err)
	}

	p, err := s.Paginate(ctx, "u1", Next, 1)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if p.Index != 2 || p.Start != 20 || len(p.Markets) != 3 || p.Markets[0].ID != "20" {
		t.Errorf("last page = index %d start %d len %d", p.Index, p.Start, len(p.Markets))
	}
	if p.HasNext() {
		t.Error("last page should not have next")
	}

	p, _ = s.Paginate(ctx, "u1", Next, 2)
	if p.Index != 2 {
		t.Errorf("next from last page moved to %d", p.Index)
	}
	p, _ = s.Paginate(ctx, "u1", Prev, 0)
	if p.Index != 0 {
		t.Errorf("prev from first page moved to %d", p.Index)
	}

	if len(src.fetched) != 1 {
		t.Errorf("pagination re-fetched: %v", src.fetched)
	}
}

func TestPaginateUsesLatestResultSet(t *testing.T) {
	src := &mockSource{markets: manyMarkets(12)}
	s, _, _ := newTestService(src, memory.NewBrowseCache(time.Hour, 100), 5)
	ctx := context.Background()

	if _, err := s.Browse(ctx, "u1", Selection{Category: domain.CategoryBaseball}); err != nil {
		t.Fatal(err)
	}
	src.markets = manyMarkets(3)
	if _, err := s.Browse(ctx, "u1", Selection{Category: domain.CategoryEsports}); err != nil {
		t.Fatal(err)
	}

	p, err := s.Paginate(ctx, "u1", Next, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "ESPORTS" || p.TotalPages != 1 {
		t.Errorf("paged %q with %d pages, want ESPORTS with 1", p.Label, p.TotalPages)
	}
}

func TestPaginateCacheMiss(t *testing.T) {
	s, _, _ := newTestService(&mockSource{}, memory.NewBrowseCache(time.Hour, 100), 5)
	_, err := s.Paginate(context.Background(), "nobody", Next, 0)
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestBrowseBasketballSubTypeAndKeyword(t *testing.T) {
	ml := upcoming("ml", "Lakers vs Celtics")
	tot := upcoming("tot", "Lakers vs Celtics: O/U 215.5")
	tot.SportsMarketType = "totals"
	spr := upcoming("spr", "Nets vs Bulls: Spread")
	spr.SportsMarketType = "spreads"
	src := &mockSource{markets: []domain.Market{ml, tot, spr}}
	cache := memory.NewBrowseCache(time.Hour, 100)
	s, _, _ := newTestService(src, cache, 5)
	ctx := context.Background()

	p, err := s.Browse(ctx, "u", Selection{Category: domain.CategoryBasketball, SubType: domain.SubTypeOverUnder, Keyword: "lakers"})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if p.Label != "NBA Overunder" || len(p.Markets) != 1 || p.Markets[0].ID != "tot" {
		t.Errorf("page = %+v", p)
	}
	if src.fetched[0] != "745" {
		t.Errorf("tag = %v", src.fetched)
	}

	p, err = s.Browse(ctx, "u", Selection{Category: domain.CategoryBasketball, SubType: domain.SubTypeMoneyline, Keyword: "all"})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(p.Markets) != 1 || p.Markets[0].ID != "ml" || p.Keyword != "" {
		t.Errorf("moneyline page = %+v", p)
	}
}

func TestBrowseNoMarkets(t *testing.T) {
	wide := upcoming("wide", "X vs Y")
	wide.Spread = 0.3
	src := &mockSource{markets: []domain.Market{wide}}
	cache := memory.NewBrowseCache(time.Hour, 100)
	s, _, _ := newTestService(src, cache, 5)

	_, err := s.Browse(context.Background(), "u", Selection{Category: domain.CategorySoccer})
	if !errors.Is(err, domain.ErrNoMarkets) {
		t.Fatalf("err = %v, want ErrNoMarkets", err)
	}
	if _, err := cache.Latest(context.Background(), "u"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Error("empty result should not be cached")
	}

	src.markets = manyMarkets(2)
	_, err = s.Browse(context.Background(), "u", Selection{Category: domain.CategorySoccer, Keyword: "nomatch"})
	if !errors.Is(err, domain.ErrNoMarkets) {
		t.Fatalf("keyword err = %v, want ErrNoMarkets", err)
	}
}

func TestBrowseFetchFailureAlerts(t *testing.T) {
	src := &mockSource{fetchErr: fmt.Errorf("gamma: %w", domain.ErrFetchFailed)}
	s, _, alerts := newTestService(src, memory.NewBrowseCache(time.Hour, 100), 5)

	_, err := s.Browse(context.Background(), "u", Selection{Category: domain.CategoryBaseball})
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	if len(alerts.events) != 1 || alerts.events[0] != "fetch_failed" {
		t.Errorf("alerts = %v", alerts.events)
	}
}

func TestBrowseRejectsBadSelection(t *testing.T) {
	s, _, _ := newTestService(&mockSource{}, memory.NewBrowseCache(time.Hour, 100), 5)
	if _, err := s.Browse(context.Background(), "u", Selection{Category: domain.Category(-1)}); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("err = %v", err)
	}
	if _, err := s.Browse(context.Background(), "u", Selection{Category: domain.CategoryHockey, SubType: domain.SubTypeSpread}); err == nil {
		t.Error("expected error for sub-type on hockey")
	}
}

func TestBetDetailLive(t *testing.T) {
	m := upcoming("77", "Lakers vs Celtics")
	m.OutcomePrices = []float64{0.6, 0.4}
	src := &mockSource{byID: map[string]domain.Market{"77": m}}
	s, sessions, _ := newTestService(src, memory.NewBrowseCache(time.Hour, 100), 5)

	d := s.BetDetail(context.Background(), BetRequest{
		MarketID: "77",
		User:     domain.ChatUser{ID: "u", Username: "alice"},
		Guild:    domain.Guild{ID: "g", Name: "Hoops"},
	})
	if !d.Live || len(d.Odds) != 2 || d.Odds[0].American != "-150" {
		t.Errorf("detail = %+v", d)
	}
	if d.URL != "https://bet.example.com/bet/77" {
		t.Errorf("url = %q", d.URL)
	}
	if sessions.last.Question != "Lakers vs Celtics" || sessions.last.Guild.Name != "Hoops" {
		t.Errorf("session request = %+v", sessions.last)
	}
	if src.getCalled != 1 {
		t.Errorf("GetMarket called %d times", src.getCalled)
	}
}

func TestBetDetailLookupFailureStillLinks(t *testing.T) {
	src := &mockSource{getErr: errors.New("timeout")}
	s, sessions, _ := newTestService(src, memory.NewBrowseCache(time.Hour, 100), 5)

	d := s.BetDetail(context.Background(), BetRequest{MarketID: "9"})
	if d.Live || d.Odds != nil {
		t.Errorf("detail = %+v, want not live", d)
	}
	if d.URL == "" {
		t.Error("URL must always be set")
	}
	if sessions.last.Question != "Unknown Market" {
		t.Errorf("question = %q", sessions.last.Question)
	}
}
