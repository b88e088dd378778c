package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	App        AppConfig
	Firebase   FirebaseConfig
	GitHub     GitHubConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Redis      RedisConfig
	Stagnation StagnationConfig
	Store      StoreConfig
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type FirebaseConfig struct {
	ProjectID          string
	CredentialsPath    string
	ServiceAccountJSON string
}

type GitHubConfig struct {
	// BaseURL overrides the API endpoint; empty selects api.github.com.
	BaseURL string
	Token   string
	Timeout time.Duration
}

type CORSConfig struct {
	Origins []string
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

type RedisConfig struct {
	// Addr is optional; when empty the rate limiter falls back to an
	// in-process limiter.
	Addr     string
	Password string
	DB       int
}

type StagnationConfig struct {
	// ThresholdDays is the inactivity window after which an ACTIVE project
	// with a known last commit is forced to STAGNANT.
	ThresholdDays int
	// CronExpr is evaluated in UTC.
	CronExpr string
}

type StoreConfig struct {
	// Driver selects the document store: "firestore" or "memory".
	Driver string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Firebase: FirebaseConfig{
			ProjectID:          getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath:    getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		},
		GitHub: GitHubConfig{
			BaseURL: getEnv("GITHUB_API_BASE_URL", ""),
			Token:   getEnv("GITHUB_TOKEN", ""),
			Timeout: getEnvAsMillis("GITHUB_TIMEOUT_MS", 8000),
		},
		CORS: CORSConfig{
			Origins: splitOrigins(getEnv("CORS_ORIGIN", "*")),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvAsMillis("RATE_LIMIT_WINDOW_MS", 15*60*1000),
			MaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 120),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Stagnation: StagnationConfig{
			ThresholdDays: getEnvAsInt("STAGNATION_DAYS_THRESHOLD", 30),
			CronExpr:      getEnv("STAGNATION_CRON", "0 2 * * *"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "firestore"),
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

	switch c.Store.Driver {
	case "firestore":
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be firestore or memory, got %q", c.Store.Driver)
	}

	if c.Stagnation.ThresholdDays <= 0 {
		return fmt.Errorf("STAGNATION_DAYS_THRESHOLD must be positive")
	}
	if c.Stagnation.CronExpr == "" {
		return fmt.Errorf("STAGNATION_CRON is required")
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("GITHUB_TIMEOUT_MS must be positive")
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window and max requests must be positive")
	}

	return nil
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
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}

func splitOrigins(raw string) []string {
	if raw == "*" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
