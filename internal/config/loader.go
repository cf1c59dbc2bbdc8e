package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges, in order: the built-in defaults, the TOML file at path (if
// path is non-empty and the file exists), a .env file in the working
// directory, and environment variables. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSBOT_* environment variables, and
// the unprefixed names the bot has always been deployed with, and overwrites
// the corresponding Config fields when a variable is set. Prefixed names win.
func applyEnvOverrides(cfg *Config) {
	// ── Legacy names ──
	setStr(&cfg.Discord.Token, "DISCORD_TOKEN")
	setStr(&cfg.Discord.ClientID, "DISCORD_CLIENT_ID")
	setStr(&cfg.Discord.GuildID, "DISCORD_GUILD_ID")
	setStr(&cfg.Polymarket.BaseURL, "POLYMARKET_API_URL")
	setStr(&cfg.Session.APIURL, "SESSION_API_URL")
	setStr(&cfg.Session.UIDomain, "UI_DOMAIN")

	// ── Discord ──
	setStr(&cfg.Discord.Token, "MARKETSBOT_DISCORD_TOKEN")
	setStr(&cfg.Discord.ClientID, "MARKETSBOT_DISCORD_CLIENT_ID")
	setStr(&cfg.Discord.GuildID, "MARKETSBOT_DISCORD_GUILD_ID")
	setBool(&cfg.Discord.RegisterOnStart, "MARKETSBOT_DISCORD_REGISTER_ON_START")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.BaseURL, "MARKETSBOT_POLYMARKET_BASE_URL")
	setDuration(&cfg.Polymarket.Timeout, "MARKETSBOT_POLYMARKET_TIMEOUT")
	setInt(&cfg.Polymarket.PageSize, "MARKETSBOT_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxAttempts, "MARKETSBOT_POLYMARKET_MAX_ATTEMPTS")
	setDuration(&cfg.Polymarket.RetryDelay, "MARKETSBOT_POLYMARKET_RETRY_DELAY")
	setDuration(&cfg.Polymarket.PageDelay, "MARKETSBOT_POLYMARKET_PAGE_DELAY")

	// ── Session ──
	setStr(&cfg.Session.APIURL, "MARKETSBOT_SESSION_API_URL")
	setStr(&cfg.Session.UIDomain, "MARKETSBOT_SESSION_UI_DOMAIN")
	setDuration(&cfg.Session.CreateTimeout, "MARKETSBOT_SESSION_CREATE_TIMEOUT")
	setDuration(&cfg.Session.LookupTimeout, "MARKETSBOT_SESSION_LOOKUP_TIMEOUT")

	// ── Browse ──
	setInt(&cfg.Browse.PageSize, "MARKETSBOT_BROWSE_PAGE_SIZE")
	setDuration(&cfg.Browse.InteractionTimeout, "MARKETSBOT_BROWSE_INTERACTION_TIMEOUT")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "MARKETSBOT_CACHE_BACKEND")
	setDuration(&cfg.Cache.MaxAge, "MARKETSBOT_CACHE_MAX_AGE")
	setInt(&cfg.Cache.MaxEntries, "MARKETSBOT_CACHE_MAX_ENTRIES")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETSBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETSBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETSBOT_REDIS_MAX_RETRIES")
	setDuration(&cfg.Redis.DialTimeout, "MARKETSBOT_REDIS_DIAL_TIMEOUT")
	setBool(&cfg.Redis.TLSEnabled, "MARKETSBOT_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETSBOT_SERVER_ENABLED")
	setStr(&cfg.Server.Addr, "MARKETSBOT_SERVER_ADDR")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETSBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.Username, "MARKETSBOT_NOTIFY_USERNAME")
	setStringSlice(&cfg.Notify.Events, "MARKETSBOT_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Cooldown, "MARKETSBOT_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MARKETSBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
