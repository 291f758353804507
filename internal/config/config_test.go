package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := DotEnvFile
	DotEnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { DotEnvFile = old })

	for _, name := range []string{"GEMINI_API_KEY", "API_KEY", "OPENAI_API_KEY", "RECEIPT_LEDGER_BACKEND"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, "data/receipts.db", cfg.Ledger.Path)
	assert.Equal(t, "expenses", cfg.Ledger.Key)
	assert.Equal(t, CorruptReject, cfg.Ledger.CorruptPolicy)
	assert.Equal(t, ProviderGemini, cfg.Extraction.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Extraction.Model)
	assert.Equal(t, 60*time.Second, cfg.Extraction.Timeout)
	assert.Empty(t, cfg.Extraction.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "JPY", cfg.Display.Currency)
	assert.Equal(t, "stderr", cfg.Logger.OutputPath)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ledger:
  backend: file
  corrupt_policy: reset
extraction:
  provider: openai
  timeout: 15s
display:
  currency: USD
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Ledger.Backend)
	assert.Equal(t, "data", cfg.Ledger.Path)
	assert.Equal(t, CorruptReset, cfg.Ledger.CorruptPolicy)
	assert.Equal(t, ProviderOpenAI, cfg.Extraction.Provider)
	assert.Equal(t, 15*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, "USD", cfg.Display.Currency)
}

func TestLoad_Credentials(t *testing.T) {
	isolate(t)
	t.Setenv("API_KEY", "from-api-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.Extraction.APIKey)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)

	t.Setenv("GEMINI_API_KEY", "from-gemini")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", cfg.Extraction.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(DotEnvFile, []byte("GEMINI_API_KEY=dotenv-key\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Extraction.APIKey)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("RECEIPT_LEDGER_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.Empty(t, cfg.Ledger.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Ledger:     LedgerConfig{Backend: BackendMemory, Key: "expenses", CorruptPolicy: CorruptReject},
			Extraction: ExtractionConfig{Provider: ProviderGemini, Timeout: time.Second},
			Display:    DisplayConfig{Currency: "JPY"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "redis" }},
		{"empty key", func(c *Config) { c.Ledger.Key = "" }},
		{"unknown policy", func(c *Config) { c.Ledger.CorruptPolicy = "ignore" }},
		{"unknown provider", func(c *Config) { c.Extraction.Provider = "claude" }},
		{"negative timeout", func(c *Config) { c.Extraction.Timeout = -time.Second }},
		{"temperature", func(c *Config) { c.Extraction.Temperature = 3 }},
		{"currency", func(c *Config) { c.Display.Currency = "" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
