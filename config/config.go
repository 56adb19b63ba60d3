package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mohammad-safakhou/memedex/models"
)

// Config holds all configuration for the resolution engine. Everything is
// read once at startup and treated as read-only afterwards.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug            bool          `mapstructure:"debug"`
	DefaultSource    models.Source `mapstructure:"default_source"`
	ResolveTimeout   time.Duration `mapstructure:"resolve_timeout"`
	SummaryMaxLength int           `mapstructure:"summary_max_length"`
}

func (g GeneralConfig) Validate() error {
	if !g.DefaultSource.Valid() {
		return fmt.Errorf("general.default_source must be %q or %q", models.SourceKYM, models.SourceMemepedia)
	}
	if g.ResolveTimeout <= 0 {
		return fmt.Errorf("general.resolve_timeout must be > 0")
	}
	if g.SummaryMaxLength <= 0 {
		return fmt.Errorf("general.summary_max_length must be > 0")
	}
	return nil
}

// ServerConfig contains the HTTP event gateway settings.
type ServerConfig struct {
	Address    string `mapstructure:"address"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// FetchConfig bounds every outbound page request.
type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	UserAgent  string        `mapstructure:"user_agent"`
}

func (f FetchConfig) Validate() error {
	if f.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if f.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if f.Backoff < 0 {
		return fmt.Errorf("fetch.backoff must be >= 0")
	}
	return nil
}

// MatchingConfig holds the similarity thresholds and display caps. Source
// material disagrees on the "right" values, so all of them stay tunable.
type MatchingConfig struct {
	DiscoveryThreshold float64 `mapstructure:"discovery_threshold"`
	SelectionThreshold float64 `mapstructure:"selection_threshold"`
	SuggestionCap      int     `mapstructure:"suggestion_cap"`
	ListingCap         int     `mapstructure:"listing_cap"`
}

func (m MatchingConfig) Validate() error {
	if m.DiscoveryThreshold < 0 || m.DiscoveryThreshold > 1 {
		return fmt.Errorf("matching.discovery_threshold must be in [0,1]")
	}
	if m.SelectionThreshold < 0 || m.SelectionThreshold > 1 {
		return fmt.Errorf("matching.selection_threshold must be in [0,1]")
	}
	if m.SuggestionCap <= 0 {
		return fmt.Errorf("matching.suggestion_cap must be > 0")
	}
	if m.ListingCap <= 0 {
		return fmt.Errorf("matching.listing_cap must be > 0")
	}
	return nil
}

// SourceConfig describes one knowledge source: where to search and which
// parts of its pages carry listings and detail content. SearchURL contains a
// {query} placeholder expanded per request.
type SourceConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	SearchURL        string `mapstructure:"search_url"`
	ListingSelector  string `mapstructure:"listing_selector"`
	TitleSelector    string `mapstructure:"title_selector"`
	ContentSelector  string `mapstructure:"content_selector"`
	AbsoluteListings bool   `mapstructure:"absolute_listings"`
}

func (s SourceConfig) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("base_url required")
	}
	if !strings.Contains(s.SearchURL, "{query}") {
		return fmt.Errorf("search_url must contain a {query} placeholder")
	}
	if s.ListingSelector == "" || s.TitleSelector == "" || s.ContentSelector == "" {
		return fmt.Errorf("listing_selector, title_selector and content_selector required")
	}
	return nil
}

// SourcesConfig carries both knowledge sources.
type SourcesConfig struct {
	KYM       SourceConfig `mapstructure:"kym"`
	Memepedia SourceConfig `mapstructure:"memepedia"`
}

// For returns the configuration of the given source.
func (s SourcesConfig) For(src models.Source) SourceConfig {
	if src == models.SourceMemepedia {
		return s.Memepedia
	}
	return s.KYM
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"` // inmemory or redis
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

func (s SessionConfig) Validate() error {
	switch s.Backend {
	case "inmemory":
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("session.backend must be inmemory or redis")
	}
	if s.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	return nil
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("session.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("session.redis.port required")
	}
	return nil
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.default_source", string(models.SourceKYM))
	viper.SetDefault("general.resolve_timeout", "45s")
	viper.SetDefault("general.summary_max_length", 500)

	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("server.webhook_url", "")

	viper.SetDefault("fetch.timeout", "10s")
	viper.SetDefault("fetch.max_retries", 3)
	viper.SetDefault("fetch.backoff", "1s")
	viper.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	viper.SetDefault("matching.discovery_threshold", 0.2)
	viper.SetDefault("matching.selection_threshold", 0.7)
	viper.SetDefault("matching.suggestion_cap", 5)
	viper.SetDefault("matching.listing_cap", 10)

	viper.SetDefault("sources.kym.base_url", "https://knowyourmeme.com")
	viper.SetDefault("sources.kym.search_url", "https://knowyourmeme.com/search?q={query}")
	viper.SetDefault("sources.kym.listing_selector", ".entry_list a")
	viper.SetDefault("sources.kym.title_selector", "h1")
	viper.SetDefault("sources.kym.content_selector", ".bodycopy")
	viper.SetDefault("sources.kym.absolute_listings", false)

	viper.SetDefault("sources.memepedia.base_url", "https://memepedia.ru")
	viper.SetDefault("sources.memepedia.search_url", "https://memepedia.ru/?s={query}")
	viper.SetDefault("sources.memepedia.listing_selector", ".entry-title a")
	viper.SetDefault("sources.memepedia.title_selector", "h1")
	viper.SetDefault("sources.memepedia.content_selector", ".entry-content")
	viper.SetDefault("sources.memepedia.absolute_listings", true)

	viper.SetDefault("session.backend", "inmemory")
	viper.SetDefault("session.ttl", "30m")
	viper.SetDefault("session.redis.host", "localhost")
	viper.SetDefault("session.redis.port", "6379")
	viper.SetDefault("session.redis.db", 0)
	viper.SetDefault("session.redis.timeout", "5s")

	viper.SetDefault("telemetry.enabled", true)
}

// LoadConfig reads configuration from the given file (JSON), falling back to
// ./config and the working directory when path is empty. Environment
// variables prefixed MEMEDEX_ override file values.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MEMEDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults cover every key, so a missing file is fine; an explicit
		// path that cannot be read is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.General.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Matching.Validate(); err != nil {
		return err
	}
	if err := c.Sources.KYM.Validate(); err != nil {
		return fmt.Errorf("sources.kym: %w", err)
	}
	if err := c.Sources.Memepedia.Validate(); err != nil {
		return fmt.Errorf("sources.memepedia: %w", err)
	}
	return c.Session.Validate()
}
