package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/alanyoungcy/marketsbot/internal/retry"
)

// DefaultGammaURL is the public Gamma API root.
const DefaultGammaURL = "https://gamma-api.polymarket.com"

// GammaConfig tunes the Gamma client. Zero values fall back to the defaults
// used in production.
type GammaConfig struct {
	BaseURL     string
	Timeout     time.Duration // per HTTP call, default 10s
	PageSize    int           // default 1000
	MaxAttempts int           // per page, default 2
	RetryDelay  time.Duration // default 1s
	PageDelay   time.Duration // pause between pages, default 500ms
}

func (c GammaConfig) withDefaults() GammaConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultGammaURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 1000
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	return c
}

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	policy     retry.Policy
	pageDelay  time.Duration
	logger     *slog.Logger
}

// NewGammaClient creates a new Gamma API client.
func NewGammaClient(cfg GammaConfig, logger *slog.Logger) *GammaClient {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &GammaClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		pageSize:  cfg.PageSize,
		policy:    retry.Fixed(cfg.MaxAttempts, cfg.RetryDelay),
		pageDelay: cfg.PageDelay,
		logger:    logger.With(slog.String("component", "gamma")),
	}
}

// PageSize returns the number of markets requested per page.
func (g *GammaClient) PageSize() int { return g.pageSize }

// GetMarketsPage returns one page of open, active, unarchived markets for a
// tag.
func (g *GammaClient) GetMarketsPage(ctx context.Context, tagID string, limit, offset int) ([]domain.Market, error) {
	markets, _, err := g.getPage(ctx, tagID, limit, offset)
	return markets, err
}

// getPage also reports how many records the API sent, so pagination is not
// cut short by records dropped locally.
func (g *GammaClient) getPage(ctx context.Context, tagID string, limit, offset int) ([]domain.Market, int, error) {
	params := url.Values{}
	params.Set("tag_id", tagID)
	params.Set("closed", "false")
	params.Set("active", "true")
	params.Set("archived", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	path := "/markets?" + params.Encode()

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, 0, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, 0, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		if !apiMarkets[i].Open() {
			continue
		}
		markets = append(markets, apiMarkets[i].ToDomainMarket())
	}

	return markets, len(apiMarkets), nil
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	return apiMarket.ToDomainMarket(), nil
}

// FetchAllMarkets pages through every market for tagID. A page that keeps
// failing after retries aborts the walk: on the first page that is an error
// wrapping domain.ErrFetchFailed, on a later page the markets gathered so far
// are returned.
func (g *GammaClient) FetchAllMarkets(ctx context.Context, tagID string) ([]domain.Market, error) {
	var (
		all    []domain.Market
		offset int
		page   int
	)

	for {
		var (
			batch []domain.Market
			sent  int
		)
		err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
			var err error
			batch, sent, err = g.getPage(ctx, tagID, g.pageSize, offset)
			return err
		}, func(attempt int, err error, wait time.Duration) {
			g.logger.Warn("market page attempt failed",
				slog.String("tag_id", tagID),
				slog.Int("offset", offset),
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", wait),
				slog.String("error", err.Error()),
			)
		})
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("polymarket/gamma: fetch tag %s: %w: %w", tagID, domain.ErrFetchFailed, err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			g.logger.Warn("returning partial market list",
				slog.String("tag_id", tagID),
				slog.Int("offset", offset),
				slog.Int("markets", len(all)),
				slog.String("error", err.Error()),
			)
			return all, nil
		}

		all = append(all, batch...)
		page++
		if sent < g.pageSize {
			break
		}
		offset += sent

		if err := g.pause(ctx); err != nil {
			return all, fmt.Errorf("polymarket/gamma: page pacing: %w", err)
		}
	}

	g.logger.Debug("fetched markets",
		slog.String("tag_id", tagID),
		slog.Int("pages", page),
		slog.Int("markets", len(all)),
	)
	return all, nil
}

// pause blocks for the full page delay counted from the moment it is called.
// Allow takes the fresh limiter's only token, so Wait sleeps a whole interval.
func (g *GammaClient) pause(ctx context.Context) error {
	if g.pageDelay <= 0 {
		return nil
	}
	l := rate.NewLimiter(rate.Every(g.pageDelay), 1)
	l.Allow()
	return l.Wait(ctx)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
