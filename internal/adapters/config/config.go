package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"custintel/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	Pipeline      PipelineConfig
	Data          DataConfig
	Output        OutputConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"custintel"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type AIConfig struct {
	GeminiKey  string `envconfig:"GEMINI_API_KEY"`
	OpenAIKey  string `envconfig:"OPENAI_API_KEY"`
	ClaudeKey  string `envconfig:"CLAUDE_API_KEY"`
	OllamaHost string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`

	// Comma-separated provider order; first reachable one wins.
	ProviderOrder string `envconfig:"AI_PROVIDER_ORDER" default:"gemini,openai,claude,ollama"`

	// ForceMock skips probing entirely and runs on the deterministic generator.
	ForceMock bool `envconfig:"AI_FORCE_MOCK" default:"false"`

	RequestTimeout time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`
	RatePerSecond  float64       `envconfig:"AI_RATE_PER_SECOND" default:"2"`
	RateBurst      int           `envconfig:"AI_RATE_BURST" default:"4"`
}

// Providers returns the configured provider order as a slice.
func (c AIConfig) Providers() []string {
	parts := strings.Split(c.ProviderOrder, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type PipelineConfig struct {
	StageTimeout        time.Duration `envconfig:"PIPELINE_STAGE_TIMEOUT" default:"2m"`
	SentimentSampleSize int           `envconfig:"PIPELINE_SENTIMENT_SAMPLE_SIZE" default:"50"`
	PatternSampleSize   int           `envconfig:"PIPELINE_PATTERN_SAMPLE_SIZE" default:"30"`
}

type DataConfig struct {
	// Directory holding per-source feedback files (reviews.json,
	// support_tickets.json, surveys.json or <source>.csv).
	SampleDir string `envconfig:"DATA_SAMPLE_DIR" default:"data"`
}

type OutputConfig struct {
	ReportDir string `envconfig:"OUTPUT_REPORT_DIR" default:"reports"`
	EvalDir   string `envconfig:"OUTPUT_EVAL_DIR" default:"reports/evaluations"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
