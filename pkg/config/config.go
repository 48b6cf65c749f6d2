package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env      string
	Server   ServerConfig
	Redis    RedisConfig
	Cache    CacheConfig
	ICD      ICDConfig
	OpenFDA  OpenFDAConfig
	Pipeline PipelineConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig controls lookup result caching.
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
	LocalSize  int
}

// ICDConfig holds WHO ICD-11 API configuration
type ICDConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	SearchURL    string
	Scope        string
	TokenTimeout time.Duration
}

// OpenFDAConfig holds openFDA drug label API configuration
type OpenFDAConfig struct {
	APIKey         string
	BaseURL        string
	RateLimitRPM   int
	AliasTablePath string
}

// PipelineConfig holds coding pipeline tuning
type PipelineConfig struct {
	MaxResults  int
	Concurrency int
	CallTimeout time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

const (
	DefaultICDTokenURL  = "https://icdaccessmanagement.who.int/connect/token"
	DefaultICDSearchURL = "https://id.who.int/icd/release/11/2024-01/mms/search"
	DefaultICDScope     = "icdapi_access"
	DefaultOpenFDAURL   = "https://api.fda.gov/drug/label.json"
)

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL_SECONDS", 24*60*60)
	v.SetDefault("CACHE_LOCAL_SIZE", 1024)
	v.SetDefault("ICD_CLIENT_ID", "")
	v.SetDefault("ICD_CLIENT_SECRET", "")
	v.SetDefault("ICD_TOKEN_URL", DefaultICDTokenURL)
	v.SetDefault("ICD_SEARCH_URL", DefaultICDSearchURL)
	v.SetDefault("ICD_SCOPE", DefaultICDScope)
	v.SetDefault("TOKEN_TIMEOUT_SECONDS", 20)
	v.SetDefault("OPENFDA_API_KEY", "")
	v.SetDefault("OPENFDA_BASE_URL", DefaultOpenFDAURL)
	v.SetDefault("OPENFDA_RATE_LIMIT_RPM", 240)
	v.SetDefault("OPENFDA_ALIAS_TABLE_PATH", "")
	v.SetDefault("PIPELINE_MAX_RESULTS", 5)
	v.SetDefault("PIPELINE_CONCURRENCY", 4)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("OTEL_SERVICE_NAME", "clinical-coding")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)

	// Missing .env is fine; the environment is the primary source.
	_ = v.ReadInConfig()

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled:    v.GetBool("CACHE_ENABLED"),
			TTLSeconds: v.GetInt("CACHE_TTL_SECONDS"),
			LocalSize:  v.GetInt("CACHE_LOCAL_SIZE"),
		},
		ICD: ICDConfig{
			ClientID:     strings.TrimSpace(v.GetString("ICD_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(v.GetString("ICD_CLIENT_SECRET")),
			TokenURL:     v.GetString("ICD_TOKEN_URL"),
			SearchURL:    v.GetString("ICD_SEARCH_URL"),
			Scope:        v.GetString("ICD_SCOPE"),
			TokenTimeout: time.Duration(v.GetInt("TOKEN_TIMEOUT_SECONDS")) * time.Second,
		},
		OpenFDA: OpenFDAConfig{
			APIKey:         strings.TrimSpace(v.GetString("OPENFDA_API_KEY")),
			BaseURL:        v.GetString("OPENFDA_BASE_URL"),
			RateLimitRPM:   v.GetInt("OPENFDA_RATE_LIMIT_RPM"),
			AliasTablePath: v.GetString("OPENFDA_ALIAS_TABLE_PATH"),
		},
		Pipeline: PipelineConfig{
			MaxResults:  v.GetInt("PIPELINE_MAX_RESULTS"),
			Concurrency: v.GetInt("PIPELINE_CONCURRENCY"),
			CallTimeout: time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with. Missing ICD credentials
// are not rejected here: they surface as an auth failure on first lookup.
func (c *Config) Validate() error {
	if c.Pipeline.MaxResults <= 0 {
		return fmt.Errorf("PIPELINE_MAX_RESULTS must be positive, got %d", c.Pipeline.MaxResults)
	}
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 8 {
		return fmt.Errorf("PIPELINE_CONCURRENCY must be between 1 and 8, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.CallTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.OpenFDA.RateLimitRPM < 0 {
		return fmt.Errorf("OPENFDA_RATE_LIMIT_RPM must not be negative")
	}
	return nil
}

// Configured reports whether both client credentials are present.
func (c *ICDConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
