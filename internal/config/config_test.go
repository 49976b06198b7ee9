package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTPPort)
	assert.Equal(t, []string{ProviderGDELT}, cfg.Providers)
	assert.Equal(t, time.Second, cfg.RequestDelay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, FilterLanguage, cfg.FilterStrategy)
	assert.Equal(t, EmptyPolicyEmpty, cfg.EmptyResultPolicy)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CREDNEWS_APP_ENV", "Production")
	t.Setenv("CREDNEWS_HTTP_PORT", "8080")
	t.Setenv("CREDNEWS_FILTER_STRATEGY", "keyword")
	t.Setenv("CREDNEWS_FILTER_KEYWORDS", "Open Badge, credential")
	t.Setenv("CREDNEWS_EMPTY_RESULT_POLICY", "error")
	t.Setenv("CREDNEWS_REQUEST_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, FilterKeyword, cfg.FilterStrategy)
	assert.Equal(t, []string{"open badge", "credential"}, cfg.FilterKeywords)
	assert.Equal(t, EmptyPolicyError, cfg.EmptyResultPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:          3000,
			FilterStrategy:    FilterLanguage,
			EmptyResultPolicy: EmptyPolicyEmpty,
			Summarizer:        SummarizerNone,
			DBDriver:          DriverSQLite,
			DBDSN:             "news.db",
			Providers:         []string{ProviderGDELT},
			RequestTimeout:    time.Second,
			ScrapeConcurrency: 2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTPPort = 0 }, wantErr: true},
		{name: "unknown filter", mutate: func(c *Config) { c.FilterStrategy = "regex" }, wantErr: true},
		{name: "keyword filter without keywords", mutate: func(c *Config) { c.FilterStrategy = FilterKeyword }, wantErr: true},
		{name: "unknown empty policy", mutate: func(c *Config) { c.EmptyResultPolicy = "panic" }, wantErr: true},
		{name: "unknown summarizer", mutate: func(c *Config) { c.Summarizer = "claude" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: true},
		{name: "no providers", mutate: func(c *Config) { c.Providers = nil }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Providers = []string{"bing"} }, wantErr: true},
		{name: "newsapi without key", mutate: func(c *Config) { c.Providers = []string{ProviderNewsAPI} }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus_Mons"}
	assert.Equal(t, time.UTC, cfg.Location())
}
