// Package config loads and validates the service configuration from YAML.
// Unknown fields are rejected so that typos fail at startup instead of
// silently running with defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
	Providers ProvidersConfig `yaml:"providers"`
	Inventory InventoryConfig `yaml:"inventory"`
	Cache     CacheConfig     `yaml:"cache"`
	Matcher   MatcherConfig   `yaml:"matcher"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
}

// ProvidersConfig selects the external backends.
type ProvidersConfig struct {
	Embeddings ProviderEntry `yaml:"embeddings"`
}

// ProviderEntry configures one provider instance. Which fields apply depends
// on Type: "openai" uses APIKeyEnv and Model, "ollama" uses BaseURL, Model
// and Dimensions.
type ProviderEntry struct {
	// Type names the registered provider implementation.
	Type string `yaml:"type"`

	// Model is the backend model identifier.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key. The key
	// itself never appears in the config file.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the backend endpoint.
	BaseURL string `yaml:"base_url"`

	// Dimensions is the vector width, for backends that cannot report it.
	Dimensions int `yaml:"dimensions"`
}

// InventoryConfig selects the phrase inventory.
type InventoryConfig struct {
	// Path points at a YAML inventory definition. Empty means the embedded
	// default inventory.
	Path string `yaml:"path"`
}

// CacheConfig configures vector persistence.
type CacheConfig struct {
	// Dir is the directory for the local file artifact.
	Dir string `yaml:"dir"`

	// PostgresDSN, when set, switches the vector cache to a shared
	// PostgreSQL store and Dir is ignored.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// MatcherConfig tunes the matching pipeline. Zero values mean the engine
// defaults.
type MatcherConfig struct {
	// GroupTopK is how many groups survive the coarse centroid search.
	GroupTopK int `yaml:"group_top_k"`

	// CorrectionThreshold is the fuzzy correction acceptance ratio (0-100).
	CorrectionThreshold float64 `yaml:"correction_threshold"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		LogLevel: "info",
		Providers: ProvidersConfig{
			Embeddings: ProviderEntry{
				Type:      "openai",
				APIKeyEnv: "OPENAI_API_KEY",
			},
		},
		Cache: CacheConfig{Dir: "./cache"},
	}
}

// Load reads the configuration at path, applies it over the defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the default configuration and
// validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and aggregates every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Providers.Embeddings.Type == "" {
		errs = append(errs, errors.New("config: providers.embeddings.type is required"))
	}
	if c.Cache.Dir == "" && c.Cache.PostgresDSN == "" {
		errs = append(errs, errors.New("config: cache.dir or cache.postgres_dsn is required"))
	}
	if c.Matcher.GroupTopK < 0 {
		errs = append(errs, fmt.Errorf("config: matcher.group_top_k must not be negative, got %d", c.Matcher.GroupTopK))
	}
	if t := c.Matcher.CorrectionThreshold; t < 0 || t > 100 {
		errs = append(errs, fmt.Errorf("config: matcher.correction_threshold %.1f out of range [0, 100]", t))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
}
