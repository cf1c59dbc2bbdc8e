package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/marketsbot/internal/browse"
	"github.com/alanyoungcy/marketsbot/internal/cache/memory"
	rediscache "github.com/alanyoungcy/marketsbot/internal/cache/redis"
	"github.com/alanyoungcy/marketsbot/internal/config"
	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/alanyoungcy/marketsbot/internal/notify"
	"github.com/alanyoungcy/marketsbot/internal/platform/polymarket"
	"github.com/alanyoungcy/marketsbot/internal/session"
)

// Dependencies bundles everything the bot and the ops server share. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Markets  *polymarket.GammaClient
	Cache    domain.BrowseCache
	Redis    *rediscache.Client // nil unless the redis backend is selected
	Sessions *session.Bridge
	Notifier *notify.Notifier
	Browse   *browse.Service
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, cfg.Notify.Username))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.Cooldown.Duration, logger)
	closers = append(closers, deps.Notifier.Wait)

	// --- Browse cache ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		client, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			MaxRetries:  cfg.Redis.MaxRetries,
			DialTimeout: cfg.Redis.DialTimeout.Duration,
			TLSEnabled:  cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Redis = client
		deps.Cache = rediscache.NewBrowseCache(client, cfg.Cache.MaxAge.Duration)
	default:
		deps.Cache = memory.NewBrowseCache(cfg.Cache.MaxAge.Duration, cfg.Cache.MaxEntries)
	}

	// --- Upstream services ---
	deps.Markets = polymarket.NewGammaClient(polymarket.GammaConfig{
		BaseURL:     cfg.Polymarket.BaseURL,
		Timeout:     cfg.Polymarket.Timeout.Duration,
		PageSize:    cfg.Polymarket.PageSize,
		MaxAttempts: cfg.Polymarket.MaxAttempts,
		RetryDelay:  cfg.Polymarket.RetryDelay.Duration,
		PageDelay:   cfg.Polymarket.PageDelay.Duration,
	}, logger)

	deps.Sessions = session.NewBridge(session.Config{
		APIURL:        cfg.Session.APIURL,
		UIDomain:      cfg.Session.UIDomain,
		CreateTimeout: cfg.Session.CreateTimeout.Duration,
		LookupTimeout: cfg.Session.LookupTimeout.Duration,
	}, deps.Notifier, logger)

	deps.Browse = browse.NewService(browse.Config{PageSize: cfg.Browse.PageSize},
		deps.Markets, deps.Cache, deps.Sessions, deps.Notifier, logger)

	return deps, cleanup, nil
}
