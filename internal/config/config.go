package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
)

// EnvPrefix is prepended to every environment override, e.g. SHARPPAD_SEARCH_MIN_INTERVAL_MS
const EnvPrefix = "SHARPPAD"

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version" ignored:"true"`
	Search  SearchSettings `toml:"search"`
	Editor  EditorSettings `toml:"editor"`
	Log     LogSettings    `toml:"log"`
}

// SearchSettings tune the find engine
type SearchSettings struct {
	MinIntervalMS     int    `toml:"min_interval_ms" split_words:"true"`
	RetryBackoffMS    int    `toml:"retry_backoff_ms" split_words:"true"`
	CheckpointBatch   int    `toml:"checkpoint_batch" split_words:"true"`
	ProgressThreshold int    `toml:"progress_threshold" split_words:"true"`
	Locale            string `toml:"locale"`
	MatchCase         bool   `toml:"match_case" split_words:"true"`
	WholeWord         bool   `toml:"whole_word" split_words:"true"`
	UseRegex          bool   `toml:"use_regex" split_words:"true"`
}

// EditorSettings represents UI-related configuration
type EditorSettings struct {
	LineNumbers     bool `toml:"line_numbers" split_words:"true"`
	WatchFile       bool `toml:"watch_file" split_words:"true"`
	WatchDebounceMS int  `toml:"watch_debounce_ms" split_words:"true"`
}

// LogSettings control the log file
type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`
}

// MinInterval is the spacing between search passes
func (s SearchSettings) MinInterval() time.Duration {
	return time.Duration(s.MinIntervalMS) * time.Millisecond
}

// RetryBackoff is the pause before an invalidated pass restarts
func (s SearchSettings) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffMS) * time.Millisecond
}

// DefaultQuery is the query a new find bar starts with
func (s SearchSettings) DefaultQuery() domain.SearchQuery {
	return domain.SearchQuery{
		MatchCase: s.MatchCase,
		WholeWord: s.WholeWord && !s.UseRegex,
		UseRegex:  s.UseRegex,
	}
}

// LocaleTag is the language used for case-insensitive matching
func (s SearchSettings) LocaleTag() language.Tag {
	if s.Locale == "" {
		return language.Und
	}
	tag, err := language.Parse(s.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// WatchDebounce is how long file events settle before a reload
func (s EditorSettings) WatchDebounce() time.Duration {
	return time.Duration(s.WatchDebounceMS) * time.Millisecond
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Search.MinIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("search.min_interval_ms must not be negative"))
	}
	if c.Search.RetryBackoffMS < 0 {
		errs = append(errs, fmt.Errorf("search.retry_backoff_ms must not be negative"))
	}
	if c.Search.CheckpointBatch <= 0 {
		errs = append(errs, fmt.Errorf("search.checkpoint_batch must be positive"))
	}
	if c.Search.ProgressThreshold < 0 {
		errs = append(errs, fmt.Errorf("search.progress_threshold must not be negative"))
	}
	if c.Search.Locale != "" {
		if _, err := language.Parse(c.Search.Locale); err != nil {
			errs = append(errs, fmt.Errorf("search.locale: %w", err))
		}
	}
	if c.Editor.WatchDebounceMS < 0 {
		errs = append(errs, fmt.Errorf("editor.watch_debounce_ms must not be negative"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
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
	bus      eventbus.EventBus
	filePath string
}

// DefaultPath returns $XDG_CONFIG_HOME/sharppad/config.toml or the platform equivalent
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "sharppad", "config.toml")
}

// NewConfigService creates a config service for the default location
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceWithBus creates a config service with event bus support.
// An empty path selects the default location.
func NewConfigServiceWithBus(bus eventbus.EventBus, path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{bus: bus, filePath: path}
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration file, falling back to defaults when it
// does not exist, and applies environment overrides
func (cs *configService) Load() (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(cs.filePath); err == nil {
		loaded, err := cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Publish ConfigLoaded event if bus is available
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}

	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	// Publish ConfigSaved event if bus is available
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}

	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing
// from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	// Ensure config directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes config as TOML
func Marshal(config *Config) ([]byte, error) {
	data, err := toml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// ApplyEnv overrides fields from SHARPPAD_* environment variables.
// Unset variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to apply environment: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchSettings{
			MinIntervalMS:     150,
			RetryBackoffMS:    50,
			CheckpointBatch:   100,
			ProgressThreshold: 1000,
			Locale:            "und",
		},
		Editor: EditorSettings{
			LineNumbers:     true,
			WatchFile:       true,
			WatchDebounceMS: 200,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}
