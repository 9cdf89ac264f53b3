package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Ownership OwnershipConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Content   ContentConfig
	Analysis  AnalysisConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type OwnershipConfig struct {
	Mode     string
	Secret   string
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type RedisConfig struct {
	URL string
}

type ContentConfig struct {
	Store      string
	BucketName string
	BaseURL    string
}

type AnalysisConfig struct {
	APIKey string
	Model  string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates the config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5001"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20<<20)),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "decentra_research"),
			SQLitePath: getEnv("SQLITE_PATH", "decentra_research.db"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Ownership: OwnershipConfig{
			Mode:     getEnv("OWNERSHIP_MODE", "token"),
			Secret:   getEnv("OWNER_TOKEN_SECRET", ""),
			TokenTTL: getEnvAsDuration("OWNER_TOKEN_TTL", 30*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Content: ContentConfig{
			Store:      getEnv("CONTENT_STORE", "memory"),
			BucketName: getEnv("GCS_BUCKET_NAME", ""),
			BaseURL:    getEnv("CONTENT_BASE_URL", ""),
		},
		Analysis: AnalysisConfig{
			APIKey: getEnv("GOOGLE_AI_STUDIO_API_KEY", ""),
			Model:  getEnv("GENAI_MODEL", "gemini-1.5-flash"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
	case "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}

	switch c.Ownership.Mode {
	case "token":
		if len(c.Ownership.Secret) < 16 {
			return fmt.Errorf("OWNER_TOKEN_SECRET must be at least 16 characters in token ownership mode")
		}
		if c.Ownership.TokenTTL <= 0 {
			return fmt.Errorf("OWNER_TOKEN_TTL must be positive")
		}
	case "legacy":
	default:
		return fmt.Errorf("OWNERSHIP_MODE must be token or legacy, got %q", c.Ownership.Mode)
	}

	switch c.Content.Store {
	case "memory":
	case "gcs":
		if c.Content.BucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME is required when CONTENT_STORE=gcs")
		}
	default:
		return fmt.Errorf("CONTENT_STORE must be memory or gcs, got %q", c.Content.Store)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("Invalid integer, using default")
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("Invalid number, using default")
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("Invalid duration, using default")
		return defaultValue
	}

	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
