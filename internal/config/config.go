package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	// HTTP server
	Server ServerConfig

	// Market data provider
	MarketData MarketDataConfig

	// News provider
	News NewsConfig

	// AI sentiment provider
	Sentiment SentimentConfig

	// Redis (only used when Cache.Backend is "redis")
	Redis RedisConfig

	// TTL sub-caches
	Cache CacheConfig

	// Hot-set refresh
	Refresh RefreshConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimitRPS int
	PingInterval time.Duration
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	Provider  string // "alpaca" or "mock"
	APIKey    string
	APISecret string
	DataURL   string
	BrokerURL string
	Feed      string
	Timeout   time.Duration
}

// NewsConfig holds news provider configuration
type NewsConfig struct {
	APIKey   string
	BaseURL  string
	Lookback time.Duration
	Limit    int
	Timeout  time.Duration
}

// SentimentConfig holds AI sentiment provider configuration
type SentimentConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// CacheConfig holds TTL sub-cache configuration
type CacheConfig struct {
	Backend      string // "memory" or "redis"
	NewsTTL      time.Duration
	SentimentTTL time.Duration
}

// RefreshConfig holds hot-set refresh configuration
type RefreshConfig struct {
	HotSymbols     []string
	Interval       time.Duration
	CycleTimeout   time.Duration
	MaxColdWorkers int
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory or parent directories
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RateLimitRPS: getEnvAsInt("SERVER_RATE_LIMIT_RPS", 100),
			PingInterval: getEnvAsDuration("SERVER_WS_PING_INTERVAL", 30*time.Second),
		},
		MarketData: MarketDataConfig{
			Provider:  getEnv("MARKET_DATA_PROVIDER", "alpaca"),
			APIKey:    getEnv("ALPACA_API_KEY", ""),
			APISecret: getEnv("ALPACA_SECRET_KEY", ""),
			DataURL:   getEnv("ALPACA_DATA_URL", "https://data.alpaca.markets"),
			BrokerURL: getEnv("ALPACA_BROKER_URL", "https://paper-api.alpaca.markets"),
			Feed:      getEnv("ALPACA_FEED", "iex"),
			Timeout:   getEnvAsDuration("MARKET_DATA_TIMEOUT", 10*time.Second),
		},
		News: NewsConfig{
			APIKey:   getEnv("POLYGON_API_KEY", ""),
			BaseURL:  getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			Lookback: getEnvAsDuration("NEWS_LOOKBACK", 7*24*time.Hour),
			Limit:    getEnvAsInt("NEWS_LIMIT", 50),
			Timeout:  getEnvAsDuration("NEWS_TIMEOUT", 10*time.Second),
		},
		Sentiment: SentimentConfig{
			APIKey:  getEnv("GROK_API_KEY", ""),
			BaseURL: getEnv("GROK_BASE_URL", "https://api.x.ai"),
			Model:   getEnv("GROK_MODEL", "grok-beta"),
			Timeout: getEnvAsDuration("GROK_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Cache: CacheConfig{
			Backend:      getEnv("CACHE_BACKEND", "memory"),
			NewsTTL:      getEnvAsDuration("NEWS_CACHE_TTL", 600*time.Second),
			SentimentTTL: getEnvAsDuration("SENTIMENT_CACHE_TTL", 1800*time.Second),
		},
		Refresh: RefreshConfig{
			HotSymbols: getEnvAsStringSlice("REFRESH_HOT_SYMBOLS",
				[]string{"TSLA", "AAPL", "GOOGL", "MSFT", "AMZN", "NVDA", "META", "NFLX", "AMD", "COIN"}),
			Interval:       getEnvAsDuration("REFRESH_INTERVAL", 5*time.Second),
			CycleTimeout:   getEnvAsDuration("REFRESH_CYCLE_TIMEOUT", 60*time.Second),
			MaxColdWorkers: getEnvAsInt("REFRESH_MAX_COLD_WORKERS", 4),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be positive")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if len(c.Refresh.HotSymbols) == 0 {
		return fmt.Errorf("REFRESH_HOT_SYMBOLS must contain at least one symbol")
	}
	if c.MarketData.Provider == "alpaca" && c.MarketData.APIKey == "" {
		return fmt.Errorf("ALPACA_API_KEY is required for the alpaca provider")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("CACHE_BACKEND must be \"memory\" or \"redis\"")
	}
	if c.Cache.Backend == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required for the redis cache backend")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
