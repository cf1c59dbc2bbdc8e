// Package browse drives a user's walk from category selection through paged
// results to a bet link. Result sets live in an injected domain.BrowseCache
// so paging never re-fetches; the bet step always reads the market live.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/alanyoungcy/marketsbot/internal/market"
	"github.com/alanyoungcy/marketsbot/internal/notify"
)

// MarketSource is the upstream market API.
type MarketSource interface {
	FetchAllMarkets(ctx context.Context, tagID string) ([]domain.Market, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
}

// SessionCreator turns a market choice into a betting URL. It must always
// return a usable URL.
type SessionCreator interface {
	CreateSession(ctx context.Context, req domain.SessionRequest) string
}

// Alerter receives operator alerts.
type Alerter interface {
	NotifyAsync(ctx context.Context, event, title, message string)
}

// Step is what the user is asked for next after picking a category.
type Step int

const (
	StepSubTypeSelect Step = iota + 1
	StepKeywordPrompt
)

// Direction moves between result pages.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Selection is a complete filter choice.
type Selection struct {
	Category domain.Category
	SubType  domain.SubType
	Keyword  string
}

// Label names the result set, e.g. "MLB" or "NBA Moneyline".
func (s Selection) Label() string {
	if s.SubType != domain.SubTypeNone {
		return s.Category.Label() + " " + s.SubType.Title()
	}
	return s.Category.Label()
}

// Page is one window of a cached result set.
type Page struct {
	Label      string
	Category   domain.Category
	SubType    domain.SubType
	Keyword    string
	Markets    []domain.Market
	Index      int // zero-based
	TotalPages int
	Total      int
	Start      int // position of Markets[0] in the full set
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Index < p.TotalPages-1 }

// BetRequest identifies who wants to bet on what, and where they asked.
type BetRequest struct {
	MarketID string
	User     domain.ChatUser
	Guild    domain.Guild
	Channel  domain.Channel
}

// BetDetail is the live view of a market plus the link to bet on it.
type BetDetail struct {
	MarketID string
	Market   domain.Market
	// Live is false when the fresh lookup failed; Market is then zero.
	Live bool
	Odds []market.OddsLine
	URL  string
}

// Config tunes the Service.
type Config struct {
	PageSize int
}

// Service is the interaction state machine.
type Service struct {
	source   MarketSource
	cache    domain.BrowseCache
	sessions SessionCreator
	alerts   Alerter
	pageSize int
	now      func() time.Time
	logger   *slog.Logger
}

// NewService wires a Service. alerts may be nil.
func NewService(cfg Config, source MarketSource, cache domain.BrowseCache, sessions SessionCreator, alerts Alerter, logger *slog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   source,
		cache:    cache,
		sessions: sessions,
		alerts:   alerts,
		pageSize: cfg.PageSize,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "browse")),
	}
}

// PageSize returns the number of markets per page.
func (s *Service) PageSize() int { return s.pageSize }

// Categories returns the browsable categories in menu order.
func (s *Service) Categories() []domain.Category {
	return domain.Categories()
}

// AfterCategory returns the next step once cat has been picked.
func (s *Service) AfterCategory(cat domain.Category) (Step, error) {
	if !cat.Valid() {
		return 0, fmt.Errorf("browse: %w: %d", domain.ErrUnknownCategory, int(cat))
	}
	if cat == domain.CategoryBasketball {
		return StepSubTypeSelect, nil
	}
	return StepKeywordPrompt, nil
}

// Browse fetches, filters, and caches the result set for sel and returns its
// first page. The cache entry is written before the page is returned.
func (s *Service) Browse(ctx context.Context, userID string, sel Selection) (Page, error) {
	if !sel.Category.Valid() {
		return Page{}, fmt.Errorf("browse: %w: %d", domain.ErrUnknownCategory, int(sel.Category))
	}
	pipeline, err := market.NewPipeline(sel.Category, sel.SubType, s.now())
	if err != nil {
		return Page{}, fmt.Errorf("browse: %w", err)
	}

	label := sel.Label()
	log := s.logger.With(
		slog.String("user_id", userID),
		slog.String("label", label),
	)

	raw, err := s.source.FetchAllMarkets(ctx, sel.Category.TagID())
	if err != nil {
		log.ErrorContext(ctx, "market fetch failed", slog.String("error", err.Error()))
		if s.alerts != nil && !errors.Is(err, context.Canceled) {
			s.alerts.NotifyAsync(ctx, notify.EventFetchFailed,
				"Market fetch failed",
				fmt.Sprintf("%s (tag %s): %v", label, sel.Category.TagID(), err))
		}
		return Page{}, fmt.Errorf("browse: fetch %s: %w", label, err)
	}

	filtered := pipeline.Run(raw, func(stage string, in, out int) {
		log.DebugContext(ctx, "filter stage",
			slog.String("stage", stage),
			slog.Int("in", in),
			slog.Int("out", out),
		)
	})
	filtered = market.FilterKeyword(filtered, sel.Keyword)

	if len(filtered) == 0 {
		log.InfoContext(ctx, "no qualifying markets",
			slog.Int("fetched", len(raw)),
			slog.String("keyword", sel.Keyword),
		)
		return Page{}, fmt.Errorf("browse: %s: %w", label, domain.ErrNoMarkets)
	}

	keyword := sel.Keyword
	if market.IsAllKeyword(keyword) {
		keyword = ""
	}
	entry := domain.BrowseEntry{
		Label:    label,
		Category: sel.Category,
		SubType:  sel.SubType,
		Keyword:  keyword,
		Markets:  filtered,
		StoredAt: s.now(),
	}
	if err := s.cache.Put(ctx, domain.BrowseKey{UserID: userID, Label: label}, entry); err != nil {
		return Page{}, fmt.Errorf("browse: cache %s: %w", label, err)
	}

	log.InfoContext(ctx, "result set cached",
		slog.Int("fetched", len(raw)),
		slog.Int("kept", len(filtered)),
	)
	return s.page(entry, 0), nil
}

// Paginate moves from page current in the user's latest result set. It never
// re-fetches; a missing entry is domain.ErrCacheMiss.
func (s *Service) Paginate(ctx context.Context, userID string, dir Direction, current int) (Page, error) {
	entry, err := s.cache.Latest(ctx, userID)
	if err != nil {
		return Page{}, fmt.Errorf("browse: paginate: %w", err)
	}
	return s.page(entry, current+int(dir)), nil
}

// BetDetail reads the market live and asks the session bridge for a link.
// A failed lookup gives a detail with Live=false rather than an error.
func (s *Service) BetDetail(ctx context.Context, req BetRequest) BetDetail {
	detail := BetDetail{MarketID: req.MarketID}

	m, err := s.source.GetMarket(ctx, req.MarketID)
	if err != nil {
		s.logger.WarnContext(ctx, "live market lookup failed",
			slog.String("market_id", req.MarketID),
			slog.String("error", err.Error()),
		)
	} else {
		detail.Market = m
		detail.Live = true
		detail.Odds = market.LiveOdds(m)
	}

	question := m.Question
	if question == "" && m.Title == "" {
		question = "Unknown Market"
	}
	detail.URL = s.sessions.CreateSession(ctx, domain.SessionRequest{
		User:     req.User,
		Guild:    req.Guild,
		Channel:  req.Channel,
		MarketID: req.MarketID,
		Question: question,
		Title:    m.Title,
	})
	return detail
}

func (s *Service) page(entry domain.BrowseEntry, index int) Page {
	n := len(entry.Markets)
	total := TotalPages(n, s.pageSize)
	index = Clamp(index, total)
	start, end := Bounds(index, n, s.pageSize)
	return Page{
		Label:      entry.Label,
		Category:   entry.Category,
		SubType:    entry.SubType,
		Keyword:    entry.Keyword,
		Markets:    entry.Markets[start:end],
		Index:      index,
		TotalPages: total,
		Total:      n,
		Start:      start,
	}
}
