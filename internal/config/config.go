// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"`    // polling | webhook (future)
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`

	// RequiredChannels are checked in order on every sensitive action.
	// ChannelLinks is a parallel optional list of join links for display.
	RequiredChannels []string `yaml:"required_channels"`
	ChannelLinks     []string `yaml:"channel_links"`

	OwnerHandle string `yaml:"owner_handle"`
}

// IsAdmin reports whether the Telegram id is on the admin allow-list.
func (b *BotConfig) IsAdmin(tgID int64) bool {
	for _, id := range b.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

// RequiredChannel pairs a channel identifier with its optional join link.
type RequiredChannel struct {
	Chat string
	Link string
}

// Channels zips required_channels with channel_links. Channels beyond the
// link list get a derived https://t.me/ link when the chat is an @username.
func (b *BotConfig) Channels() []RequiredChannel {
	out := make([]RequiredChannel, 0, len(b.RequiredChannels))
	for i, ch := range b.RequiredChannels {
		rc := RequiredChannel{Chat: ch}
		if i < len(b.ChannelLinks) {
			rc.Link = b.ChannelLinks[i]
		}
		if rc.Link == "" && strings.HasPrefix(ch, "@") {
			rc.Link = "https://t.me/" + ch[1:]
		}
		out = append(out, rc)
	}
	return out
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APISecret  string        `yaml:"api_secret"` // HMAC secret for admin API sessions
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config file. The result is an
// immutable value constructed once at process start and passed explicitly
// to the components that need it.
func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}

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
	if len(cfg.Bot.ChannelLinks) > len(cfg.Bot.RequiredChannels) {
		return nil, errors.New("bot.channel_links is longer than bot.required_channels")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
