// Package config loads runtime settings from defaults, HCL files, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CREDNEWS"

const (
	EnvProduction = "production"

	FilterLanguage = "language"
	FilterKeyword  = "keyword"

	EmptyPolicyEmpty = "empty"
	EmptyPolicyError = "error"

	SummarizerNone        = "none"
	SummarizerHuggingFace = "huggingface"
	SummarizerGemini      = "gemini"
	SummarizerOpenAI      = "openai"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	ProviderGDELT      = "gdelt"
	ProviderNewsAPI    = "newsapi"
	ProviderGoogleNews = "googlenews"
)

type Config struct {
	// App settings
	AppEnv   string `hcl:"app_env" env:"APP_ENV" default:"development"`
	HTTPPort int    `hcl:"http_port" env:"HTTP_PORT" default:"3000"`
	LogLevel string `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	Timezone string `hcl:"timezone" env:"TIMEZONE" default:"Asia/Seoul"`
	Schedule string `hcl:"schedule" env:"SCHEDULE"`

	// Storage
	DBDriver string `hcl:"db_driver" env:"DB_DRIVER" default:"sqlite3"`
	DBDSN    string `hcl:"db_dsn" env:"DB_DSN" default:"news.db"`

	// Upstream providers
	Providers       []string `hcl:"providers" env:"PROVIDERS" default:"gdelt"`
	QueriesPath     string   `hcl:"queries_path" env:"QUERIES_PATH" default:"configs/queries.yaml"`
	GDELTURL        string   `hcl:"gdelt_url" env:"GDELT_URL" default:"https://api.gdeltproject.org/api/v2/doc/doc"`
	GDELTPageSize   int      `hcl:"gdelt_page_size" env:"GDELT_PAGE_SIZE" default:"50"`
	NewsAPIURL      string   `hcl:"newsapi_url" env:"NEWSAPI_URL" default:"https://newsapi.org/v2/everything"`
	NewsAPIKey      string   `hcl:"newsapi_key" env:"NEWSAPI_KEY"`
	NewsAPIPageSize int      `hcl:"newsapi_page_size" env:"NEWSAPI_PAGE_SIZE" default:"100"`
	GoogleNewsURL   string   `hcl:"google_news_url" env:"GOOGLE_NEWS_URL" default:"https://news.google.com/rss/search"`

	// Fetch policy
	RequestDelay   time.Duration `hcl:"request_delay" env:"REQUEST_DELAY" default:"1s"`
	RequestTimeout time.Duration `hcl:"request_timeout" env:"REQUEST_TIMEOUT" default:"10s"`
	MaxRetries     int           `hcl:"max_retries" env:"MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `hcl:"retry_delay" env:"RETRY_DELAY" default:"2s"`

	// Filtering and response policy
	FilterStrategy    string   `hcl:"filter_strategy" env:"FILTER_STRATEGY" default:"language"`
	FilterKeywords    []string `hcl:"filter_keywords" env:"FILTER_KEYWORDS"`
	EmptyResultPolicy string   `hcl:"empty_result_policy" env:"EMPTY_RESULT_POLICY" default:"empty"`
	IncludeAnalysis   bool     `hcl:"include_analysis" env:"INCLUDE_ANALYSIS" default:"true"`

	// Summarization
	Summarizer        string        `hcl:"summarizer" env:"SUMMARIZER" default:"huggingface"`
	HFAPIKey          string        `hcl:"hf_api_key" env:"HF_API_KEY"`
	HFModelURL        string        `hcl:"hf_model_url" env:"HF_MODEL_URL" default:"https://api-inference.huggingface.co/models/facebook/bart-large-cnn"`
	GeminiAPIKey      string        `hcl:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel       string        `hcl:"gemini_model" env:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	OpenAIKey         string        `hcl:"openai_key" env:"OPENAI_API_KEY"`
	OpenAIModel       string        `hcl:"openai_model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	MaxRemoteRequests int           `hcl:"max_remote_requests" env:"MAX_REMOTE_REQUESTS" default:"40"`
	SummaryCacheTTL   time.Duration `hcl:"summary_cache_ttl" env:"SUMMARY_CACHE_TTL" default:"24h"`

	// Scraper settings
	Enrich            bool          `hcl:"enrich" env:"ENRICH" default:"true"`
	ScrapeConcurrency int           `hcl:"scrape_concurrency" env:"SCRAPE_CONCURRENCY" default:"5"`
	ScrapeMaxArticles int           `hcl:"scrape_max_articles" env:"SCRAPE_MAX_ARTICLES" default:"20"`
	ScrapeTimeout     time.Duration `hcl:"scrape_timeout" env:"SCRAPE_TIMEOUT" default:"15s"`
	ScrapeRPS         float64       `hcl:"scrape_rps" env:"SCRAPE_RPS" default:"4"`

	// Telegram settings
	TelegramToken  string `hcl:"telegram_token" env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `hcl:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Load reads .env (if present), config.hcl / config.local.hcl and the
// CREDNEWS_* environment on top of the defaults, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		EnvPrefix:          EnvPrefix,
		Files:              []string{"./config.hcl", "./config.local.hcl"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.normalize()
	return &cfg, cfg.Validate()
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.FilterStrategy = strings.ToLower(strings.TrimSpace(c.FilterStrategy))
	c.EmptyResultPolicy = strings.ToLower(strings.TrimSpace(c.EmptyResultPolicy))
	c.Summarizer = strings.ToLower(strings.TrimSpace(c.Summarizer))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.Providers = cleanList(c.Providers, true)
	c.FilterKeywords = cleanList(c.FilterKeywords, true)
}

func cleanList(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramEnabled reports whether digests should be published.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.FilterStrategy {
	case FilterLanguage:
	case FilterKeyword:
		if len(c.FilterKeywords) == 0 {
			return fmt.Errorf("FILTER_KEYWORDS is required when FILTER_STRATEGY is %q", FilterKeyword)
		}
	default:
		return fmt.Errorf("FILTER_STRATEGY must be %q or %q", FilterLanguage, FilterKeyword)
	}
	if c.EmptyResultPolicy != EmptyPolicyEmpty && c.EmptyResultPolicy != EmptyPolicyError {
		return fmt.Errorf("EMPTY_RESULT_POLICY must be %q or %q", EmptyPolicyEmpty, EmptyPolicyError)
	}
	switch c.Summarizer {
	case SummarizerNone, SummarizerHuggingFace, SummarizerGemini, SummarizerOpenAI:
	default:
		return fmt.Errorf("SUMMARIZER must be one of none, huggingface, gemini, openai")
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverSQLite, DriverPostgres)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("PROVIDERS must name at least one provider")
	}
	for _, p := range c.Providers {
		switch p {
		case ProviderGDELT, ProviderGoogleNews:
		case ProviderNewsAPI:
			if c.NewsAPIKey == "" {
				return fmt.Errorf("NEWSAPI_KEY is required when the newsapi provider is enabled")
			}
		default:
			return fmt.Errorf("unknown provider %q", p)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.RequestDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("REQUEST_DELAY and RETRY_DELAY must not be negative")
	}
	if c.ScrapeConcurrency <= 0 {
		c.ScrapeConcurrency = 1
	}
	return nil
}
