package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External provider configurations
	EmbeddingCfg  EmbeddingConnectorConfig  `envPrefix:"EMBEDDING_"`
	CompletionCfg CompletionConnectorConfig `envPrefix:"COMPLETION_"`

	// Static bearer token callers must present on /api routes
	APIBearerToken string `env:"API_BEARER_TOKEN,notEmpty"`

	// Rate limiting (fixed windows, keyed by client IP)
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Retrieval parameters
	MatchCount     int     `env:"MATCH_COUNT" envDefault:"5"`
	MatchThreshold float64 `env:"MATCH_THRESHOLD" envDefault:"0.78"`

	// Context assembly budget in characters; lowest-ranked matches are
	// dropped first once exceeded.
	MaxContextChars int `env:"MAX_CONTEXT_CHARS" envDefault:"24000"`

	// Documentation crawl configuration (ingest CLI only)
	CrawlCfg CrawlConfig `envPrefix:"CRAWL_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// System prompt for the answer generator (loaded from a text file)
	SystemPrompt string

	// Environment (set from flag, not from env var)
	Environment string
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Endpoint   string `env:"ENDPOINT" envDefault:"/v1/embeddings"`
	Model      string `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimensions int    `env:"DIMENSIONS" envDefault:"1536"`
}

type CompletionConnectorConfig struct {
	HTTPClientConfig
	Endpoint    string  `env:"ENDPOINT" envDefault:"/v1/chat/completions"`
	Model       string  `env:"MODEL" envDefault:"gpt-4"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"500"`
}

type CrawlConfig struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://doc.mapeditor.org/en/stable/"`
	MaxPages    int    `env:"MAX_PAGES" envDefault:"200"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"4"`
	ChunkSize   int    `env:"CHUNK_SIZE" envDefault:"5000"`
}

type RateLimitConfig struct {
	PerWindow int           `env:"PER_MINUTE" envDefault:"60"`
	Window    time.Duration `env:"WINDOW" envDefault:"1m"`
	PerDay    int           `env:"PER_DAY" envDefault:"1000"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := loadSystemPrompt(cfg); err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.MatchCount < 1 || cfg.MatchCount > 50 {
		errs = append(errs, fmt.Sprintf("MATCH_COUNT must be between 1 and 50, got %d", cfg.MatchCount))
	}

	if cfg.MatchThreshold < 0 || cfg.MatchThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("MATCH_THRESHOLD must be in [0, 1), got %v", cfg.MatchThreshold))
	}

	if cfg.EmbeddingCfg.Dimensions < 1 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_DIMENSIONS must be positive, got %d", cfg.EmbeddingCfg.Dimensions))
	}

	if cfg.MaxContextChars < 1000 {
		errs = append(errs, fmt.Sprintf("MAX_CONTEXT_CHARS must be at least 1000, got %d", cfg.MaxContextChars))
	}

	if cfg.RateLimitCfg.Window <= 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_WINDOW must be positive, got %v", cfg.RateLimitCfg.Window))
	}

	if cfg.RateLimitCfg.PerWindow < 1 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitCfg.PerWindow))
	}

	if cfg.RateLimitCfg.PerDay < cfg.RateLimitCfg.PerWindow {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_PER_DAY (%d) must not be lower than RATE_LIMIT_PER_MINUTE (%d)",
			cfg.RateLimitCfg.PerDay, cfg.RateLimitCfg.PerWindow))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

const defaultSystemPrompt = `You are an expert at Tiled Map Editor and its ecosystem.
You help users understand how to use Tiled to create and edit maps for their games and applications.
Always be specific and provide step-by-step instructions when explaining how to do something.
If you're not sure about something, say so rather than making assumptions.`

func loadSystemPrompt(cfg *Config) error {
	promptPath := filepath.Join("internal", "config", "system_prompt.txt")

	if _, err := os.Stat(promptPath); os.IsNotExist(err) {
		fmt.Printf("Warning: system prompt file not found at %s, using default prompt\n", promptPath)
		cfg.SystemPrompt = defaultSystemPrompt
		return nil
	}

	data, err := os.ReadFile(promptPath)
	if err != nil {
		return fmt.Errorf("read system prompt file: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return fmt.Errorf("system prompt file is empty: %s", promptPath)
	}

	cfg.SystemPrompt = prompt
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
