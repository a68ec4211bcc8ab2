// Package config loads seminar-cal settings from a YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/seminar-cal/internal/categorize"
	"github.com/pfrederiksen/seminar-cal/internal/dedup"
	"github.com/pfrederiksen/seminar-cal/internal/source"
)

// Environment variables that override file values.
const (
	EnvDatabaseURL  = "SEMINARCAL_DATABASE_URL"
	EnvDataDir      = "SEMINARCAL_DATA_DIR"
	EnvSearchAPIKey = "SEMINARCAL_SEARCH_API_KEY"
)

const (
	DefaultDataDir         = "~/.seminar-cal"
	DefaultPolitenessDelay = 2 * time.Second
	DefaultTimeout         = 30 * time.Second
	DefaultSchedule        = "0 */6 * * *"
	DefaultRetries         = 2
)

// Source describes one event listing to scrape.
type Source struct {
	// Name is a label used in logs.
	Name string `yaml:"name"`
	// URL is the listing page, feed, or search endpoint.
	URL string `yaml:"url"`
	// Kind selects the adapter: feed, html, jsonld or search.
	Kind source.Kind `yaml:"kind"`
	// Query is the search phrase for search sources.
	Query string `yaml:"query,omitempty"`
	// Keywords score search hits; defaults to the words of Query.
	Keywords []string `yaml:"keywords,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	Sources []Source `yaml:"sources"`

	// DataDir holds the JSON snapshot when DatabaseURL is empty.
	DataDir string `yaml:"data_dir"`
	// DatabaseURL selects the Postgres store when set.
	DatabaseURL string `yaml:"database_url,omitempty"`

	SearchAPIKey string `yaml:"search_api_key,omitempty"`

	PolitenessDelay time.Duration `yaml:"politeness_delay"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`

	// Retries is how many times a failed fetch is retried.
	Retries uint64 `yaml:"retries"`

	// Schedule is the cron spec used by the watch command.
	Schedule string `yaml:"schedule"`

	// Enrich enables detail-page backfill of generic fields.
	Enrich bool `yaml:"enrich"`

	// RecentLimit bounds the in-run similarity set.
	RecentLimit int `yaml:"recent_limit"`

	// Categories replaces the built-in keyword dictionaries when non-empty.
	Categories []categorize.Dictionary `yaml:"categories,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources:         []Source{},
		DataDir:         DefaultDataDir,
		PolitenessDelay: DefaultPolitenessDelay,
		Timeout:         DefaultTimeout,
		Retries:         DefaultRetries,
		Schedule:        DefaultSchedule,
		Enrich:          true,
		RecentLimit:     dedup.DefaultRecentLimit,
		LogLevel:        "info",
	}
}

// Normalize fills zero values with defaults and derives search keywords.
func (c *Config) Normalize() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.PolitenessDelay < 0 {
		c.PolitenessDelay = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = dedup.DefaultRecentLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Sources == nil {
		c.Sources = []Source{}
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.URL = strings.TrimSpace(s.URL)
		if s.Kind == "" {
			s.Kind = source.KindHTML
		}
		if s.Name == "" {
			s.Name = s.URL
		}
		if s.Kind == source.KindSearch && len(s.Keywords) == 0 {
			s.Keywords = strings.Fields(strings.ToLower(s.Query))
		}
	}
}

// Validate reports configuration that cannot run.
func (c *Config) Validate() error {
	var errs []error
	for i, s := range c.Sources {
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: url is required", i))
		}
		switch s.Kind {
		case source.KindFeed, source.KindHTML, source.KindJSONLD:
		case source.KindSearch:
			if s.Query == "" {
				errs = append(errs, fmt.Errorf("sources[%d]: query is required for search sources", i))
			}
		default:
			errs = append(errs, fmt.Errorf("sources[%d]: unknown kind %q", i, s.Kind))
		}
	}
	return errors.Join(errs...)
}

// Load reads path (a missing file yields the defaults), applies a .env
// file from the working directory if present, then environment overrides,
// and normalizes the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvSearchAPIKey); v != "" {
		c.SearchAPIKey = v
	}
}

// Save writes cfg to path as YAML with 0600 permissions.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
