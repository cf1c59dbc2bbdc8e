// Package app provides the top-level application lifecycle for the markets
// bot. It wires the market client, browse cache, session bridge, and
// notifications, then runs the Discord gateway and the ops HTTP server
// side by side.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketsbot/internal/config"
	"github.com/alanyoungcy/marketsbot/internal/discord"
	"github.com/alanyoungcy/marketsbot/internal/notify"
	"github.com/alanyoungcy/marketsbot/internal/server"
	"github.com/alanyoungcy/marketsbot/internal/server/handler"
)

const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

func (a *App) botConfig() discord.BotConfig {
	return discord.BotConfig{
		Token:              a.cfg.Discord.Token,
		AppID:              a.cfg.Discord.ClientID,
		GuildID:            a.cfg.Discord.GuildID,
		RegisterOnStart:    a.cfg.Discord.RegisterOnStart,
		InteractionTimeout: a.cfg.Browse.InteractionTimeout.Duration,
	}
}

// Run wires all dependencies, starts the bot and (if enabled) the ops
// server, and blocks until the context is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("cache_backend", a.cfg.Cache.Backend),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	bot, err := discord.NewBot(a.botConfig(), deps.Browse, a.logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	deps.Notifier.NotifyAsync(ctx, notify.EventStartup, "Markets bot started",
		fmt.Sprintf("cache=%s page_size=%d", a.cfg.Cache.Backend, deps.Browse.PageSize()))

	return g.Wait()
}

// Register overwrites the bot's slash commands and exits.
func (a *App) Register(ctx context.Context) error {
	bot, err := discord.NewBot(a.botConfig(), nil, a.logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	cmds, err := bot.Register()
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	for _, c := range cmds {
		a.logger.InfoContext(ctx, "registered command",
			slog.String("name", c.Name),
			slog.String("id", c.ID),
		)
	}
	return nil
}

// startHTTPServer adds the ops server to g and shuts it down gracefully when
// ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	checks := map[string]handler.Pinger{}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	srv := server.NewServer(server.Config{Addr: a.cfg.Server.Addr}, server.Handlers{
		Health:     handler.NewHealthHandler(checks, a.logger),
		Categories: handler.NewCategoriesHandler(deps.Browse.Categories),
		Status:     handler.NewStatusHandler(strings.ToLower(a.cfg.Cache.Backend), deps.Browse.PageSize()),
		Sessions:   handler.NewSessionHandler(deps.Sessions, a.logger),
	}, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
