// Package config defines the top-level configuration for the markets bot
// and provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from an
// optional TOML file and then overridden by MARKETSBOT_* environment variables.
type Config struct {
	Discord    DiscordConfig    `toml:"discord"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Session    SessionConfig    `toml:"session"`
	Browse     BrowseConfig     `toml:"browse"`
	Cache      CacheConfig      `toml:"cache"`
	Redis      RedisConfig      `toml:"redis"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// DiscordConfig holds the bot credentials and command registration scope.
type DiscordConfig struct {
	Token    string `toml:"token"`
	ClientID string `toml:"client_id"`
	// GuildID limits command registration to one guild; empty is global.
	GuildID         string `toml:"guild_id"`
	RegisterOnStart bool   `toml:"register_on_start"`
}

// PolymarketConfig holds the Gamma market API endpoint and fetch pacing.
type PolymarketConfig struct {
	BaseURL     string   `toml:"base_url"`
	Timeout     duration `toml:"timeout"`
	PageSize    int      `toml:"page_size"`
	MaxAttempts int      `toml:"max_attempts"`
	RetryDelay  duration `toml:"retry_delay"`
	PageDelay   duration `toml:"page_delay"`
}

// SessionConfig points at the external betting-session service.
type SessionConfig struct {
	APIURL        string   `toml:"api_url"`
	UIDomain      string   `toml:"ui_domain"`
	CreateTimeout duration `toml:"create_timeout"`
	LookupTimeout duration `toml:"lookup_timeout"`
}

// BrowseConfig tunes the interactive flow.
type BrowseConfig struct {
	PageSize           int      `toml:"page_size"`
	InteractionTimeout duration `toml:"interaction_timeout"`
}

// CacheConfig selects where result sets are kept between interactions.
type CacheConfig struct {
	Backend    string   `toml:"backend"` // memory | redis
	MaxAge     duration `toml:"max_age"`
	MaxEntries int      `toml:"max_entries"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	DialTimeout duration `toml:"dial_timeout"`
	TLSEnabled  bool     `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds ops HTTP server parameters.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// NotifyConfig holds operator alert settings.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Username          string   `toml:"username"`
	Events            []string `toml:"events"`
	Cooldown          duration `toml:"cooldown"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			BaseURL:     "https://gamma-api.polymarket.com",
			Timeout:     duration{10 * time.Second},
			PageSize:    1000,
			MaxAttempts: 2,
			RetryDelay:  duration{time.Second},
			PageDelay:   duration{500 * time.Millisecond},
		},
		Session: SessionConfig{
			APIURL:        "http://localhost:3000",
			UIDomain:      "http://localhost:3000",
			CreateTimeout: duration{10 * time.Second},
			LookupTimeout: duration{5 * time.Second},
		},
		Browse: BrowseConfig{
			PageSize:           5,
			InteractionTimeout: duration{60 * time.Second},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxAge:     duration{30 * time.Minute},
			MaxEntries: 10000,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			PoolSize:    10,
			MaxRetries:  3,
			DialTimeout: duration{5 * time.Second},
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Notify: NotifyConfig{
			Username: "Markets Bot",
			Events:   []string{"session_fallback", "fetch_failed", "startup"},
			Cooldown: duration{5 * time.Minute},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. requireToken is false for
// commands that never connect to the gateway.
func (c *Config) Validate(requireToken bool) error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Discord
	if requireToken && c.Discord.Token == "" {
		errs = append(errs, "discord: token must be set (DISCORD_TOKEN)")
	}

	// Polymarket
	if err := checkURL(c.Polymarket.BaseURL); err != nil {
		errs = append(errs, "polymarket: base_url "+err.Error())
	}
	if c.Polymarket.PageSize < 1 {
		errs = append(errs, "polymarket: page_size must be >= 1")
	}
	if c.Polymarket.MaxAttempts < 1 {
		errs = append(errs, "polymarket: max_attempts must be >= 1")
	}
	if c.Polymarket.Timeout.Duration <= 0 {
		errs = append(errs, "polymarket: timeout must be > 0")
	}
	if c.Polymarket.RetryDelay.Duration < 0 || c.Polymarket.PageDelay.Duration < 0 {
		errs = append(errs, "polymarket: retry_delay and page_delay must be >= 0")
	}

	// Session
	if err := checkURL(c.Session.APIURL); err != nil {
		errs = append(errs, "session: api_url "+err.Error())
	}
	if err := checkURL(c.Session.UIDomain); err != nil {
		errs = append(errs, "session: ui_domain "+err.Error())
	}

	// Browse
	if c.Browse.PageSize < 1 || c.Browse.PageSize > 25 {
		errs = append(errs, fmt.Sprintf("browse: page_size must be 1-25, got %d", c.Browse.PageSize))
	}

	// Cache
	if !validBackends[strings.ToLower(c.Cache.Backend)] {
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.MaxAge.Duration <= 0 {
		errs = append(errs, "cache: max_age must be > 0")
	}

	// Redis
	if strings.EqualFold(c.Cache.Backend, "redis") {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty when enabled")
	}

	// Notify
	if c.Notify.DiscordWebhookURL != "" {
		if err := checkURL(c.Notify.DiscordWebhookURL); err != nil {
			errs = append(errs, "notify: discord_webhook_url "+err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL, got %q", raw)
	}
	return nil
}
