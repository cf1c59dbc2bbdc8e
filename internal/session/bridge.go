// Package session exchanges a chosen market and the requesting user for a
// one-time betting link from the external session service.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/alanyoungcy/marketsbot/internal/notify"
)

// Defaults for the session service and bet UI.
const (
	DefaultAPIURL   = "http://localhost:3000"
	DefaultUIDomain = "http://localhost:3000"
	FallbackBaseURL = "https://polymarket.com/event/"

	unknownGuild = "Unknown Guild"
)

// Config configures a Bridge. Zero values take the defaults.
type Config struct {
	APIURL        string
	UIDomain      string
	CreateTimeout time.Duration // default 10s
	LookupTimeout time.Duration // validate and status, default 5s
}

// Alerter receives operator alerts. *notify.Notifier implements it.
type Alerter interface {
	NotifyAsync(ctx context.Context, event, title, message string)
}

// Bridge talks to the session service.
type Bridge struct {
	apiURL       string
	uiDomain     string
	createClient *http.Client
	lookupClient *http.Client
	alerts       Alerter
	logger       *slog.Logger
}

// NewBridge creates a Bridge. alerts may be nil.
func NewBridge(cfg Config, alerts Alerter, logger *slog.Logger) *Bridge {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.UIDomain == "" {
		cfg.UIDomain = DefaultUIDomain
	}
	if cfg.CreateTimeout <= 0 {
		cfg.CreateTimeout = 10 * time.Second
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		uiDomain:     strings.TrimRight(cfg.UIDomain, "/"),
		createClient: &http.Client{Timeout: cfg.CreateTimeout},
		lookupClient: &http.Client{Timeout: cfg.LookupTimeout},
		alerts:       alerts,
		logger:       logger.With(slog.String("component", "session_bridge")),
	}
}

type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

type marketRef struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Title    string `json:"title"`
}

type createRequest struct {
	UserID      string      `json:"userId"`
	MarketID    string      `json:"marketId"`
	DiscordUser discordUser `json:"discordUser"`
	GuildName   string      `json:"guildName"`
	GuildID     string      `json:"guildId,omitempty"`
	ChannelID   string      `json:"channelId,omitempty"`
	ChannelName string      `json:"channelName,omitempty"`
	Market      marketRef   `json:"market"`
}

type createResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// lookupResponse covers both validate and status replies.
type lookupResponse struct {
	Success bool            `json:"success"`
	Valid   bool            `json:"valid"`
	Data    json.RawMessage `json:"data"`
}

func newCreateRequest(req domain.SessionRequest) createRequest {
	guildName := req.Guild.Name
	if guildName == "" {
		guildName = unknownGuild
	}
	question, title := req.Question, req.Title
	if question == "" {
		question = title
	}
	if title == "" {
		title = question
	}
	return createRequest{
		UserID:   req.User.ID,
		MarketID: req.MarketID,
		DiscordUser: discordUser{
			ID:            req.User.ID,
			Username:      req.User.Username,
			Discriminator: req.User.Discriminator,
			Avatar:        req.User.Avatar,
		},
		GuildName:   guildName,
		GuildID:     req.Guild.ID,
		ChannelID:   req.Channel.ID,
		ChannelName: req.Channel.Name,
		Market: marketRef{
			ID:       req.MarketID,
			Question: question,
			Title:    title,
		},
	}
}

// FallbackURL is the public market page used whenever no session can be
// created.
func FallbackURL(marketID string) string {
	return FallbackBaseURL + url.PathEscape(marketID)
}

// CreateSession returns a betting URL for req. It never fails: any problem
// with the session service yields FallbackURL(req.MarketID).
func (b *Bridge) CreateSession(ctx context.Context, req domain.SessionRequest) string {
	token, err := b.create(ctx, req)
	if err != nil {
		b.logger.WarnContext(ctx, "session create failed, using fallback",
			slog.String("market_id", req.MarketID),
			slog.String("user_id", req.User.ID),
			slog.String("error", err.Error()),
		)
		if b.alerts != nil {
			b.alerts.NotifyAsync(ctx, notify.EventSessionFallback,
				"Session bridge fallback",
				fmt.Sprintf("market %s: %v", req.MarketID, err))
		}
		return FallbackURL(req.MarketID)
	}
	b.logger.InfoContext(ctx, "session created",
		slog.String("market_id", req.MarketID),
		slog.String("user_id", req.User.ID),
	)
	return b.uiDomain + "/bet/" + url.PathEscape(token)
}

func (b *Bridge) create(ctx context.Context, req domain.SessionRequest) (string, error) {
	body, err := json.Marshal(newCreateRequest(req))
	if err != nil {
		return "", fmt.Errorf("session: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL+"/api/session/create", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("session: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, status, err := do(b.createClient, httpReq)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("session: unexpected status %d: %s", status, truncate(respBody))
	}

	var cr createResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("session: decode response: %w", err)
	}
	if !cr.Success || cr.Token == "" {
		return "", fmt.Errorf("session: service declined: %s", truncate(respBody))
	}
	return cr.Token, nil
}

// Validate returns the session payload for a token the service reports as
// valid, or domain.ErrNotFound.
func (b *Bridge) Validate(ctx context.Context, token string) (json.RawMessage, error) {
	lr, err := b.lookup(ctx, "/api/session/validate/"+url.PathEscape(token))
	if err != nil {
		return nil, fmt.Errorf("session: validate: %w", err)
	}
	if !lr.Success || !lr.Valid {
		return nil, fmt.Errorf("session: validate: %w", domain.ErrNotFound)
	}
	return lr.Data, nil
}

// Status returns the session status without consuming the token, or
// domain.ErrNotFound.
func (b *Bridge) Status(ctx context.Context, token string) (json.RawMessage, error) {
	lr, err := b.lookup(ctx, "/api/session/status/"+url.PathEscape(token))
	if err != nil {
		return nil, fmt.Errorf("session: status: %w", err)
	}
	if !lr.Success {
		return nil, fmt.Errorf("session: status: %w", domain.ErrNotFound)
	}
	return lr.Data, nil
}

func (b *Bridge) lookup(ctx context.Context, path string) (lookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+path, nil)
	if err != nil {
		return lookupResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := do(b.lookupClient, req)
	if err != nil {
		return lookupResponse{}, err
	}
	if status == http.StatusNotFound {
		return lookupResponse{}, domain.ErrNotFound
	}
	if status < 200 || status >= 300 {
		return lookupResponse{}, fmt.Errorf("unexpected status %d: %s", status, truncate(body))
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return lookupResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return lr, nil
}

func do(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
