// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinScrapeInterval is the lowest allowed scrape interval.
const MinScrapeInterval = 600 * time.Second

// Database engines.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// Messenger types.
const (
	MessengerDiscord  = "discord"
	MessengerTelegram = "telegram"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Database   DatabaseConfig             `yaml:"database"`
	Scrape     ScrapeConfig               `yaml:"scrape"`
	Heartbeat  HeartbeatConfig            `yaml:"heartbeat"`
	Sources    []SourceConfig             `yaml:"sources"`
	Messengers map[string]MessengerConfig `yaml:"messengers"`
	Tracing    TracingConfig              `yaml:"tracing"`
	Logging    LoggingConfig              `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects the ledger backend. SQLite needs only a path;
// PostgreSQL uses the connection fields.
type DatabaseConfig struct {
	Engine   string `yaml:"engine"` // sqlite, postgres
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns the SQLite path or a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	if d.Engine != EnginePostgres {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// ScrapeConfig defines the polling cycle and collector behavior.
type ScrapeConfig struct {
	Interval           time.Duration   `yaml:"interval"`
	MaxRetryAttempts   int             `yaml:"max_retry_attempts"`
	RetryBackoffFactor float64         `yaml:"retry_backoff_factor"`
	RequestTimeout     time.Duration   `yaml:"request_timeout"`
	MaxRedirects       int             `yaml:"max_redirects"`
	NotifyFirstRun     *bool           `yaml:"notify_first_run"` // default: true
	UserAgents         []string        `yaml:"user_agents"`
	RateLimit          RateLimitConfig `yaml:"rate_limit"`
}

// ShouldNotifyFirstRun reports whether first-run New events are sent.
func (s *ScrapeConfig) ShouldNotifyFirstRun() bool {
	return s.NotifyFirstRun == nil || *s.NotifyFirstRun
}

// RateLimitConfig defines per-host request pacing.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// HeartbeatConfig defines the periodic status broadcast.
type HeartbeatConfig struct {
	Enabled  *bool         `yaml:"enabled"` // default: true
	Interval time.Duration `yaml:"interval"`
}

// IsEnabled reports whether the heartbeat runs.
func (h *HeartbeatConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// SourceConfig defines one polled source. An entry with only an id uses
// the built-in definition of that source.
type SourceConfig struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	Pages          []string          `yaml:"pages"`
	Params         map[string]string `yaml:"params"`
	Selectors      SelectorConfig    `yaml:"selectors"`
	InStockText    string            `yaml:"in_stock_text"`
	OutOfStockText string            `yaml:"out_of_stock_text"`
	SkipOutOfStock bool              `yaml:"skip_out_of_stock"`
}

// SelectorConfig holds the CSS selectors of a custom source.
type SelectorConfig struct {
	Item      string `yaml:"item"`
	Title     string `yaml:"title"`
	Price     string `yaml:"price"`
	Link      string `yaml:"link"`
	Image     string `yaml:"image"`
	ImageAttr string `yaml:"image_attr"`
	Stock     string `yaml:"stock"`
}

// MessengerConfig defines one notification target.
type MessengerConfig struct {
	Type       string   `yaml:"type"` // discord, telegram
	Active     bool     `yaml:"active"`
	WebhookURL string   `yaml:"webhook_url"`
	BotToken   string   `yaml:"bot_token"`
	ChatID     string   `yaml:"chat_id"`
	Sources    []string `yaml:"sources"` // empty: every source
}

// TracingConfig defines OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SourceIDs returns the configured source ids in file order.
func (c *Config) SourceIDs() []string {
	ids := make([]string, len(c.Sources))
	for i := range c.Sources {
		ids[i] = c.Sources[i].ID
	}
	return ids
}

// Routes returns messenger name to subscribed sources for active messengers.
func (c *Config) Routes() map[string][]string {
	routes := make(map[string][]string, len(c.Messengers))
	for name, m := range c.Messengers {
		if m.Active {
			routes[name] = m.Sources
		}
	}
	return routes
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyScrapeDefaults(&cfg.Scrape)
	applyHeartbeatDefaults(&cfg.Heartbeat)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Engine == "" {
		d.Engine = EngineSQLite
	}
	if d.Path == "" {
		d.Path = "amiibot.db"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.Interval == 0 {
		s.Interval = MinScrapeInterval
	}
	if s.MaxRetryAttempts == 0 {
		s.MaxRetryAttempts = 3
	}
	if s.RetryBackoffFactor == 0 {
		s.RetryBackoffFactor = 2
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 10 * time.Second
	}
	if s.MaxRedirects == 0 {
		s.MaxRedirects = 10
	}
	if s.RateLimit.PerSecond == 0 {
		s.RateLimit.PerSecond = 1
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 1
	}
}

func applyHeartbeatDefaults(h *HeartbeatConfig) {
	if h.Interval == 0 {
		h.Interval = 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateScrape(&cfg.Scrape)...)

	known := make(map[string]struct{}, len(cfg.Sources))
	if len(cfg.Sources) == 0 {
		errs = append(errs, fmt.Errorf("at least one source is required"))
	}
	for i, s := range cfg.Sources {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("sources[%d].id is required", i))
			continue
		}
		if _, dup := known[s.ID]; dup {
			errs = append(errs, fmt.Errorf("source %q is configured more than once", s.ID))
		}
		known[s.ID] = struct{}{}
	}

	names := make([]string, 0, len(cfg.Messengers))
	for name := range cfg.Messengers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := cfg.Messengers[name]
		errs = append(errs, validateMessenger(name, &m, known)...)
	}

	return errors.Join(errs...)
}

func validateDatabase(d *DatabaseConfig) []error {
	var errs []error
	switch d.Engine {
	case EngineSQLite:
	case EnginePostgres:
		if d.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required for postgres"))
		}
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required for postgres"))
		}
		if d.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"database.engine must be one of: sqlite, postgres (got %q)", d.Engine,
		))
	}
	return errs
}

func validateScrape(s *ScrapeConfig) []error {
	var errs []error
	if s.Interval < MinScrapeInterval {
		errs = append(errs, fmt.Errorf(
			"scrape.interval must be at least %s, play nice and don't get banned (got %s)",
			MinScrapeInterval, s.Interval,
		))
	}
	if s.MaxRetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("scrape.max_retry_attempts must be at least 1"))
	}
	if s.RetryBackoffFactor < 1 {
		errs = append(errs, fmt.Errorf("scrape.retry_backoff_factor must be at least 1"))
	}
	return errs
}

func validateMessenger(name string, m *MessengerConfig, sources map[string]struct{}) []error {
	var errs []error
	switch m.Type {
	case MessengerDiscord:
		if !IsDiscordWebhook(m.WebhookURL) {
			errs = append(errs, fmt.Errorf(
				"messengers.%s.webhook_url must be a Discord webhook URL", name,
			))
		}
	case MessengerTelegram:
		if m.BotToken == "" {
			errs = append(errs, fmt.Errorf("messengers.%s.bot_token is required", name))
		}
		if m.ChatID == "" {
			errs = append(errs, fmt.Errorf("messengers.%s.chat_id is required", name))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"messengers.%s.type must be one of: discord, telegram (got %q)", name, m.Type,
		))
	}

	for _, src := range m.Sources {
		if _, ok := sources[src]; !ok {
			errs = append(errs, fmt.Errorf(
				"messengers.%s routes unconfigured source %q", name, src,
			))
		}
	}
	return errs
}

// IsDiscordWebhook reports whether url looks like a Discord webhook.
func IsDiscordWebhook(url string) bool {
	return strings.Contains(url, "discord.com/api/webhooks/") ||
		strings.Contains(url, "discordapp.com/api/webhooks/")
}
