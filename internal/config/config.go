package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"omnibox/internal/domain"
)

const (
	DefaultLimitPerGroup = 5
	MaxLimitPerGroup     = 100
	DefaultDebounce      = 250 * time.Millisecond
	DefaultSearchTimeout = 8 * time.Second
	DefaultCRUDTimeout   = 5 * time.Second
)

// Config represents the application configuration
type Config struct {
	Version   int             `toml:"version"`
	Search    SearchConfig    `toml:"search"`
	CRUD      CRUDConfig      `toml:"crud"`
	Analytics AnalyticsConfig `toml:"analytics"`
	BFF       BFFConfig       `toml:"bff"`
	Log       LogConfig       `toml:"log"`
}

// SearchConfig configures the omnibox and its search service
type SearchConfig struct {
	Endpoint      string   `toml:"endpoint"`
	LimitPerGroup int      `toml:"limit_per_group"`
	Debounce      Duration `toml:"debounce"`
	Timeout       Duration `toml:"timeout"`
	BypassCache   bool     `toml:"bypass_cache"`
	CacheSize     int      `toml:"cache_size"`
	KindOrder     []string `toml:"kind_order,omitempty"`
	Placeholder   string   `toml:"placeholder"`
}

// CRUDConfig configures the write/CRUD service used for label lookups
type CRUDConfig struct {
	Endpoint       string   `toml:"endpoint"`
	Timeout        Duration `toml:"timeout"`
	LabelCacheSize int      `toml:"label_cache_size"`
}

// AnalyticsConfig configures the pick analytics sink
type AnalyticsConfig struct {
	Enabled    bool   `toml:"enabled"`
	Endpoint   string `toml:"endpoint"`
	BufferSize int    `toml:"buffer_size"`
}

// BFFConfig configures the analytics backend-for-frontend server
type BFFConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration is a time.Duration written as a Go duration string ("250ms")
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service rooted in the user config directory
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceAt creates a config service bound to a specific file
func NewConfigServiceAt(path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{filePath: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/omnibox/config.toml or a home-relative fallback
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "omnibox", "config.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file. A missing file yields the defaults.
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Values absent from
// the file keep their defaults.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Endpoint:      "http://localhost:4001/graphql",
			LimitPerGroup: DefaultLimitPerGroup,
			Debounce:      Duration{DefaultDebounce},
			Timeout:       Duration{DefaultSearchTimeout},
			BypassCache:   true,
			CacheSize:     128,
			Placeholder:   "Search contacts, listings, transactions…",
		},
		CRUD: CRUDConfig{
			Endpoint:       "http://localhost:4002/graphql",
			Timeout:        Duration{DefaultCRUDTimeout},
			LabelCacheSize: 256,
		},
		Analytics: AnalyticsConfig{
			Enabled:    true,
			Endpoint:   "http://localhost:4000",
			BufferSize: 64,
		},
		BFF: BFFConfig{
			Addr: ":4000",
		},
		Log: LogConfig{
			Level: "info",
			File:  "omnibox.log",
		},
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error

	if c.Search.LimitPerGroup < 1 || c.Search.LimitPerGroup > MaxLimitPerGroup {
		errs = append(errs, fmt.Errorf("search.limit_per_group must be between 1 and %d, got %d", MaxLimitPerGroup, c.Search.LimitPerGroup))
	}
	if c.Search.Debounce.Duration < 0 {
		errs = append(errs, fmt.Errorf("search.debounce must not be negative"))
	}
	if c.Search.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout must be positive"))
	}
	if c.Search.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("search.cache_size must not be negative"))
	}
	for _, k := range c.Search.KindOrder {
		if _, err := domain.ParseKind(k); err != nil {
			errs = append(errs, fmt.Errorf("search.kind_order: %w", err))
		}
	}
	if c.CRUD.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("crud.timeout must be positive"))
	}
	if c.CRUD.LabelCacheSize < 0 {
		errs = append(errs, fmt.Errorf("crud.label_cache_size must not be negative"))
	}
	if c.Analytics.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("analytics.buffer_size must be at least 1"))
	}

	return errors.Join(errs...)
}

// KindOrder returns the configured kind precedence
func (c *Config) KindOrder() []domain.Kind {
	override := make([]domain.Kind, 0, len(c.Search.KindOrder))
	for _, s := range c.Search.KindOrder {
		if k, err := domain.ParseKind(s); err == nil {
			override = append(override, k)
		}
	}
	return domain.Order(override)
}
