// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string `yaml:"token"`
	InboundMode string `yaml:"inbound_mode"` // polling | webhook
	WebhookPath string `yaml:"webhook_path"`
	Workers     int    `yaml:"workers"` // inbound update workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DestinationAlias is a statically configured chat target.
type DestinationAlias struct {
	ChatID   int64  `yaml:"chat_id"`
	ThreadID int    `yaml:"thread_id"`
	Name     string `yaml:"name"`
}

type NotifyConfig struct {
	// SendDelay is the minimum gap between consecutive Telegram API calls.
	// The Bot API rate limit is per bot across all chats, so dispatch is
	// fully serialized with this delay between calls.
	SendDelay time.Duration `yaml:"send_delay"`
	// RetryBackoff is used for a single 429 retry when the API response
	// carries no retry_after advisory.
	RetryBackoff      time.Duration               `yaml:"retry_backoff"`
	CallTimeout       time.Duration               `yaml:"call_timeout"`
	MaxPhotosPerGroup int                         `yaml:"max_photos_per_group"`
	QueueSize         int                         `yaml:"queue_size"`
	StatsInterval     time.Duration               `yaml:"stats_interval"`
	ReplyLimitPerMin  int                         `yaml:"reply_limit_per_min"`
	Destinations      map[string]DestinationAlias `yaml:"destinations"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Web      WebConfig      `yaml:"web"`
	Notify   NotifyConfig   `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.InboundMode == "" {
		cfg.Bot.InboundMode = "polling"
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/telegram/webhook"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.TokenTTL <= 0 {
		cfg.Web.TokenTTL = 30 * time.Minute
	}
	if cfg.Notify.SendDelay <= 0 {
		cfg.Notify.SendDelay = 2 * time.Second
	}
	if cfg.Notify.RetryBackoff <= 0 {
		cfg.Notify.RetryBackoff = 5 * time.Second
	}
	if cfg.Notify.CallTimeout <= 0 {
		cfg.Notify.CallTimeout = 15 * time.Second
	}
	if cfg.Notify.MaxPhotosPerGroup <= 0 || cfg.Notify.MaxPhotosPerGroup > 10 {
		cfg.Notify.MaxPhotosPerGroup = 10
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 256
	}
	if cfg.Notify.StatsInterval <= 0 {
		cfg.Notify.StatsInterval = time.Minute
	}
	if cfg.Notify.ReplyLimitPerMin <= 0 {
		cfg.Notify.ReplyLimitPerMin = 20
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Bot.InboundMode != "polling" && cfg.Bot.InboundMode != "webhook" {
		return nil, fmt.Errorf("bot.inbound_mode must be polling or webhook, got %q", cfg.Bot.InboundMode)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
