package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Storage backends for the ledger record.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Extraction providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Corrupt ledger policies.
const (
	CorruptReject = "reject"
	CorruptReset  = "reset"
)

// Config holds all application configuration
type Config struct {
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Display    DisplayConfig    `mapstructure:"display"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// LedgerConfig selects where the ledger record lives
type LedgerConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	Key           string `mapstructure:"key"`
	CorruptPolicy string `mapstructure:"corrupt_policy"`
}

// DatabaseConfig holds SQLite pool settings
type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ExtractionConfig holds receipt extraction settings
type ExtractionConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	PDFDPI      float64       `mapstructure:"pdf_dpi"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	BaseURL   string `mapstructure:"base_url"`
}

// DisplayConfig controls terminal output
type DisplayConfig struct {
	Currency string `mapstructure:"currency"`
	Style    string `mapstructure:"style"`
	Width    int    `mapstructure:"width"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// DotEnvFile is loaded into the environment, if present, before the
// configuration is read. Variables already set are not overridden.
var DotEnvFile = ".env"

// Load loads configuration from an optional YAML file and the environment.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("RECEIPT")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Ledger defaults
	v.SetDefault("ledger.backend", BackendSQLite)
	v.SetDefault("ledger.path", "")
	v.SetDefault("ledger.key", "expenses")
	v.SetDefault("ledger.corrupt_policy", CorruptReject)

	// Database defaults
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Extraction defaults
	v.SetDefault("extraction.provider", ProviderGemini)
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.model", "gemini-2.5-flash")
	v.SetDefault("extraction.timeout", 60*time.Second)
	v.SetDefault("extraction.temperature", 0.1)
	v.SetDefault("extraction.pdf_dpi", 150)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.max_tokens", 512)
	v.SetDefault("openai.base_url", "")

	// Display defaults
	v.SetDefault("display.currency", "JPY")
	v.SetDefault("display.style", "auto")
	v.SetDefault("display.width", 100)

	// Logger defaults
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds credentials to their conventional variable names
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"extraction.api_key": {"GEMINI_API_KEY", "API_KEY"},
		"openai.api_key":     {"OPENAI_API_KEY"},
	}
	for key, names := range bindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// applyDerivedDefaults fills settings whose default depends on others.
func (c *Config) applyDerivedDefaults() {
	if c.Ledger.Path != "" {
		return
	}
	switch c.Ledger.Backend {
	case BackendSQLite:
		c.Ledger.Path = "data/receipts.db"
	case BackendFile:
		c.Ledger.Path = "data"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("ledger.backend must be one of sqlite, file, memory (got %q)", c.Ledger.Backend)
	}
	if c.Ledger.Key == "" {
		return fmt.Errorf("ledger.key is required")
	}
	switch c.Ledger.CorruptPolicy {
	case CorruptReject, CorruptReset:
	default:
		return fmt.Errorf("ledger.corrupt_policy must be reject or reset (got %q)", c.Ledger.CorruptPolicy)
	}

	switch c.Extraction.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("extraction.provider must be gemini or openai (got %q)", c.Extraction.Provider)
	}
	if c.Extraction.Timeout < 0 {
		return fmt.Errorf("extraction.timeout must not be negative")
	}
	if c.Extraction.Temperature < 0 || c.Extraction.Temperature > 2 {
		return fmt.Errorf("extraction.temperature must be between 0 and 2")
	}

	if c.Database.ConnMaxLifetime < 0 {
		return fmt.Errorf("database.conn_max_lifetime must not be negative")
	}
	if c.Display.Currency == "" {
		return fmt.Errorf("display.currency is required")
	}

	return nil
}
