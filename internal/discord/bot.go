// Package discord is the chat presentation layer: the /markets command,
// component and modal routing, and embed rendering.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

var errNoToken = errors.New("discord: bot token is required")

// BotConfig holds the gateway credentials.
type BotConfig struct {
	Token string
	// AppID defaults to the logged-in bot user.
	AppID string
	// GuildID scopes command registration; empty means global.
	GuildID string
	// RegisterOnStart overwrites the command set after connecting.
	RegisterOnStart bool
	// InteractionTimeout bounds each interaction.
	InteractionTimeout time.Duration
}

// Bot owns the gateway session.
type Bot struct {
	cfg     BotConfig
	session *discordgo.Session
	handler *Handler
	logger  *slog.Logger
}

// NewBot creates a gateway session whose interactions are served by svc.
// It does not connect. A nil svc gives a bot that only registers commands.
func NewBot(cfg BotConfig, svc Browser, logger *slog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errNoToken
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		cfg:     cfg,
		session: s,
		logger:  logger.With(slog.String("component", "discord_bot")),
	}
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("discord connected",
			slog.String("user", r.User.Username),
			slog.Int("guilds", len(r.Guilds)),
		)
		if err := s.UpdateWatchStatus(0, "Polymarket odds"); err != nil {
			b.logger.Warn("set presence failed", slog.String("error", err.Error()))
		}
	})
	if svc != nil {
		b.handler = NewHandler(svc, b.resolve, cfg.InteractionTimeout, logger)
		s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
			b.handler.Handle(s, ic.Interaction)
		})
	}
	return b, nil
}

// Run connects and serves interactions until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Warn("gateway close failed", slog.String("error", err.Error()))
		}
	}()

	if b.cfg.RegisterOnStart {
		if _, err := b.RegisterCommands(); err != nil {
			return err
		}
	}

	<-ctx.Done()
	b.logger.Info("discord bot stopping")
	return nil
}

// Register overwrites the command set without serving interactions. When
// no AppID is configured it logs in briefly to learn the bot user's ID.
func (b *Bot) Register() ([]*discordgo.ApplicationCommand, error) {
	if b.cfg.AppID == "" {
		if err := b.session.Open(); err != nil {
			return nil, fmt.Errorf("discord: open gateway: %w", err)
		}
		defer b.session.Close()
	}
	return b.RegisterCommands()
}

// RegisterCommands overwrites the application's command set, in the
// configured guild or globally. The session need not be open when AppID is
// set.
func (b *Bot) RegisterCommands() ([]*discordgo.ApplicationCommand, error) {
	appID := b.cfg.AppID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	if appID == "" {
		return nil, errors.New("discord: register commands: application id unknown")
	}
	cmds, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, Commands())
	if err != nil {
		return nil, fmt.Errorf("discord: register commands: %w", err)
	}
	scope := "global"
	if b.cfg.GuildID != "" {
		scope = "guild:" + b.cfg.GuildID
	}
	b.logger.Info("commands registered",
		slog.String("scope", scope),
		slog.Int("count", len(cmds)),
	)
	return cmds, nil
}

// resolve looks guild and channel names up in the gateway state cache.
func (b *Bot) resolve(guildID, channelID string) (domain.Guild, domain.Channel) {
	guild, channel := idsOnly(guildID, channelID)
	st := b.session.State
	if st == nil {
		return guild, channel
	}
	if guildID != "" {
		if g, err := st.Guild(guildID); err == nil {
			guild.Name = g.Name
		}
	}
	if channelID != "" {
		if c, err := st.Channel(channelID); err == nil {
			channel.Name = c.Name
		}
	}
	return guild, channel
}
