// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	DBURL  string `env:"DB_URL" validate:"required"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY" validate:"required"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	// EnhancerModel and JudgeModel are the two logical chat models; they may
	// point at the same underlying model.
	EnhancerModel string `env:"ENHANCER_MODEL" envDefault:"openai/gpt-4o-mini"`
	JudgeModel    string `env:"JUDGE_MODEL" envDefault:"openai/gpt-4o-mini"`

	SerpAPIKey     string `env:"SERPAPI_API_KEY" validate:"required"`
	SerpAPIBaseURL string `env:"SERPAPI_BASE_URL" envDefault:"https://serpapi.com/search"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Workers     int    `env:"WORKERS" envDefault:"10"`
	CostLogPath string `env:"COST_LOG_PATH" envDefault:"costs.json"`

	// Pipeline knobs; defaults match the production tuning.
	InitialQueries          int `env:"INITIAL_QUERIES" envDefault:"2"`
	ResultsPerQuery         int `env:"RESULTS_PER_QUERY" envDefault:"10"`
	MaxTotalResults         int `env:"MAX_TOTAL_RESULTS" envDefault:"30"`
	MaxRefinementIterations int `env:"MAX_REFINEMENT_ITERATIONS" envDefault:"1"`

	// InvalidReasoningKeywordsPath overrides the embedded keyword list used
	// by the pre-filter's reasoning scan.
	InvalidReasoningKeywordsPath string `env:"INVALID_REASONING_KEYWORDS_PATH"`

	WorkerIdleSleep  time.Duration `env:"WORKER_IDLE_SLEEP" envDefault:"10s"`
	WorkerErrorSleep time.Duration `env:"WORKER_ERROR_SLEEP" envDefault:"5s"`

	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"prediction-validator"`
}

// Load parses environment variables into a Config and validates that the
// required keys are present. A missing required key is a fatal start-up
// error for the caller.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Validate: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }
