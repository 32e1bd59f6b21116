package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. PLOTSYNC_DATABASE_DSN.
const EnvPrefix = "PLOTSYNC"

// Config represents the plotsync configuration file.
type Config struct {
	Discord  DiscordConfig           `mapstructure:"discord" yaml:"discord"`
	Webhook  WebhookConfig           `mapstructure:"webhook" yaml:"webhook"`
	Showcase WebhookConfig           `mapstructure:"showcase_webhook" yaml:"showcase_webhook"`
	Database DatabaseConfig          `mapstructure:"database" yaml:"database"`
	Statuses map[string]StatusConfig `mapstructure:"statuses" yaml:"statuses"`
	Layout   LayoutConfig            `mapstructure:"layout" yaml:"layout"`
	Remote   RemoteConfig            `mapstructure:"remote" yaml:"remote"`
	Tags     TagsConfig              `mapstructure:"tags" yaml:"tags"`
	Archive  ArchiveConfig           `mapstructure:"archive" yaml:"archive"`
	Plots    PlotsConfig             `mapstructure:"plots" yaml:"plots"`
}

// DiscordConfig holds the bot account settings.
type DiscordConfig struct {
	Token             string `mapstructure:"token" yaml:"token"`
	ForumChannelID    string `mapstructure:"forum_channel_id" yaml:"forum_channel_id"`
	ShowcaseChannelID string `mapstructure:"showcase_channel_id" yaml:"showcase_channel_id"`
}

// WebhookConfig holds the webhook that owns layout messages.
type WebhookConfig struct {
	ID      string `mapstructure:"id" yaml:"id"`
	Token   string `mapstructure:"token" yaml:"token"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// DatabaseConfig selects the tracking store.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// StatusConfig binds one status to a forum tag and its display settings.
type StatusConfig struct {
	Tag     string `mapstructure:"tag" yaml:"tag"`         // tag id or tag name
	Color   string `mapstructure:"color" yaml:"color"`     // #RRGGBB
	Message string `mapstructure:"message" yaml:"message"` // display string
}

// LayoutConfig bounds the layout content.
type LayoutConfig struct {
	HistoryMax int `mapstructure:"history_max" yaml:"history_max"`
}

// RemoteConfig tunes remote calls.
type RemoteConfig struct {
	RetryDelay string `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// TagsConfig tunes the tag catalog cache.
type TagsConfig struct {
	CacheTTL string `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// ArchiveConfig controls the archive rename.
type ArchiveConfig struct {
	Prefix             string `mapstructure:"prefix" yaml:"prefix"`
	AutoArchiveMinutes int    `mapstructure:"auto_archive_minutes" yaml:"auto_archive_minutes"`
}

// PlotsConfig holds links shown by status message buttons.
type PlotsConfig struct {
	MapURL  string `mapstructure:"map_url" yaml:"map_url"` // %d is replaced by the plot id
	HelpURL string `mapstructure:"help_url" yaml:"help_url"`
}

var defaultTags = map[string]string{
	"on_going":  "On Going",
	"finished":  "Finished",
	"rejected":  "Rejected",
	"approved":  "Approved",
	"archived":  "Archived",
	"abandoned": "Abandoned",
}

// Default returns the configuration written by `plotsync init`.
func Default() *Config {
	statuses := make(map[string]StatusConfig, len(defaultTags))
	for status, tag := range defaultTags {
		statuses[status] = StatusConfig{Tag: tag}
	}
	path, _ := DefaultDatabasePath()
	return &Config{
		Database: DatabaseConfig{DSN: path},
		Statuses: statuses,
		Layout:   LayoutConfig{HistoryMax: 3000},
		Remote:   RemoteConfig{RetryDelay: "5s"},
		Tags:     TagsConfig{CacheTTL: "10s"},
		Archive:  ArchiveConfig{Prefix: "[Archived] ", AutoArchiveMinutes: 60},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.forum_channel_id", "")
	v.SetDefault("discord.showcase_channel_id", "")
	v.SetDefault("webhook.id", "")
	v.SetDefault("webhook.token", "")
	v.SetDefault("webhook.base_url", "")
	v.SetDefault("showcase_webhook.id", "")
	v.SetDefault("showcase_webhook.token", "")
	v.SetDefault("showcase_webhook.base_url", "")
	v.SetDefault("database.dsn", d.Database.DSN)
	for status, sc := range d.Statuses {
		v.SetDefault("statuses."+status+".tag", sc.Tag)
		v.SetDefault("statuses."+status+".color", "")
		v.SetDefault("statuses."+status+".message", "")
	}
	v.SetDefault("layout.history_max", d.Layout.HistoryMax)
	v.SetDefault("remote.retry_delay", d.Remote.RetryDelay)
	v.SetDefault("tags.cache_ttl", d.Tags.CacheTTL)
	v.SetDefault("archive.prefix", d.Archive.Prefix)
	v.SetDefault("archive.auto_archive_minutes", d.Archive.AutoArchiveMinutes)
	v.SetDefault("plots.map_url", "")
	v.SetDefault("plots.help_url", "")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration at path (DefaultPath if empty). A missing file
// yields the defaults; environment variables override both.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return read(newViper(path))
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Watch reloads the configuration whenever the file at path changes and
// hands the result to onChange.
func Watch(path string, onChange func(*Config, error)) {
	v := newViper(path)
	_ = v.ReadInConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(read(v))
	})
	v.WatchConfig()
}

// Save writes cfg as YAML to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.plotsync/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".plotsync", "config.yml"), nil
}

// DefaultDatabasePath returns ~/.plotsync/plotsync.db.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".plotsync", "plotsync.db"), nil
}

// RetryDelay returns the parsed retry delay, zero if unset or invalid.
func (c *Config) RetryDelay() time.Duration {
	return parseDuration(c.Remote.RetryDelay)
}

// TagCacheTTL returns the parsed tag cache TTL, zero if unset or invalid.
func (c *Config) TagCacheTTL() time.Duration {
	return parseDuration(c.Tags.CacheTTL)
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d
}

// ErrInvalidColor is returned for colors outside #RRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses a #RRGGBB color into its RGB integer.
func ParseColor(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return 0, fmt.Errorf("%w %q: expected #RRGGBB", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidColor, s, err)
	}
	return int(v), nil
}
