package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
// Load is the only place environment variables are read.
type Config struct {
	Env string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	Database   DatabaseConfig
	Redis      RedisConfig
	MarketData MarketDataConfig
	Scan       ScanConfig
	Backtest   BacktestConfig
	Notify     NotifyConfig
	Kafka      KafkaConfig

	// Store selects where signals are persisted: postgres or memory
	Store string

	// API server
	Port string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MarketDataConfig holds the chart API configuration
type MarketDataConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration // 0 disables the Redis cache
}

// ScanConfig holds live scan configuration
type ScanConfig struct {
	Symbols        []string
	HistoryDays    int
	Profile        string // preset name
	ProfilePath    string // YAML profile, overrides Profile
	Workers        int
	HighConfidence float64
	DigestSize     int
	SentimentFile  string
	SignalTTL      time.Duration
	Schedule       string // cron spec with seconds
}

// BacktestConfig holds threshold backtest configuration
type BacktestConfig struct {
	Symbols            []string
	HistoryDays        int
	Thresholds         []float64
	ReferenceThreshold float64
	Lookback           int
	HoldDays           int
	SuccessReturn      float64
	Profile            string
	ProfilePath        string
	Workers            int
	Schedule           string
}

// NotifyConfig holds digest delivery configuration
type NotifyConfig struct {
	WebhookURL string // empty logs digests instead
	Timeout    time.Duration
}

// KafkaConfig holds signal event publishing configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

var (
	defaultScanSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN", "NVDA", "META", "SPY", "QQQ"}

	defaultBacktestSymbols = []string{
		"AAPL", "GOOGL", "MSFT", "AMZN", "META", "TSLA", "NVDA", "NFLX",
		"ADBE", "CRM", "ORCL", "INTC", "AMD", "QCOM",
		"JPM", "BAC", "GS", "V", "MA",
		"SPY", "QQQ", "IWM", "XLF", "XLK",
		"PLTR", "SNOW", "COIN", "ROKU", "SHOP",
	}
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		MarketData: MarketDataConfig{
			BaseURL:           getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			UserAgent:         getEnv("MARKET_DATA_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
			Timeout:           getEnvAsDuration("MARKET_DATA_TIMEOUT", "15s"),
			MaxRetries:        getEnvAsInt("MARKET_DATA_MAX_RETRIES", 3),
			RequestsPerSecond: getEnvAsFloat("MARKET_DATA_RPS", 2),
			Burst:             getEnvAsInt("MARKET_DATA_BURST", 2),
			CacheTTL:          getEnvAsDuration("MARKET_DATA_CACHE_TTL", "15m"),
		},

		Scan: ScanConfig{
			Symbols:        getEnvAsSymbols("SCAN_SYMBOLS", defaultScanSymbols),
			HistoryDays:    getEnvAsInt("SCAN_HISTORY_DAYS", 30),
			Profile:        getEnv("SCAN_PROFILE", "sentiment"),
			ProfilePath:    getEnv("SCAN_PROFILE_PATH", ""),
			Workers:        getEnvAsInt("SCAN_WORKERS", 4),
			HighConfidence: getEnvAsFloat("SCAN_HIGH_CONFIDENCE", 80),
			DigestSize:     getEnvAsInt("SCAN_DIGEST_SIZE", 3),
			SentimentFile:  getEnv("SENTIMENT_FILE", ""),
			SignalTTL:      getEnvAsDuration("SIGNAL_TTL", "168h"),
			Schedule:       getEnv("SCAN_SCHEDULE", "0 */30 * * * 1-5"),
		},

		Backtest: BacktestConfig{
			Symbols:            getEnvAsSymbols("BACKTEST_SYMBOLS", defaultBacktestSymbols),
			HistoryDays:        getEnvAsInt("BACKTEST_HISTORY_DAYS", 365),
			Thresholds:         getEnvAsFloatList("BACKTEST_THRESHOLDS", []float64{60, 70, 80, 90}),
			ReferenceThreshold: getEnvAsFloat("BACKTEST_REFERENCE_THRESHOLD", 70),
			Lookback:           getEnvAsInt("BACKTEST_LOOKBACK", 50),
			HoldDays:           getEnvAsInt("BACKTEST_HOLD_DAYS", 5),
			SuccessReturn:      getEnvAsFloat("BACKTEST_SUCCESS_RETURN", 2.0),
			Profile:            getEnv("BACKTEST_PROFILE", "base"),
			ProfilePath:        getEnv("BACKTEST_PROFILE_PATH", ""),
			Workers:            getEnvAsInt("BACKTEST_WORKERS", 4),
			Schedule:           getEnv("BACKTEST_SCHEDULE", "0 0 6 * * 6"),
		},

		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("NOTIFY_TIMEOUT", "10s"),
		},

		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "trading-signals"),
		},

		Store: getEnv("SIGNAL_STORE", StoreMemory),

		Port: getEnv("PORT", "8080"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SIGNAL_STORE=postgres")
		}
	default:
		return fmt.Errorf("SIGNAL_STORE must be one of: %s, %s", StorePostgres, StoreMemory)
	}

	if len(c.Scan.Symbols) == 0 {
		return fmt.Errorf("SCAN_SYMBOLS must not be empty")
	}
	if c.Scan.HistoryDays < 10 {
		return fmt.Errorf("SCAN_HISTORY_DAYS must be >= 10")
	}
	if len(c.Backtest.Thresholds) == 0 {
		return fmt.Errorf("BACKTEST_THRESHOLDS must not be empty")
	}
	if c.Backtest.HoldDays <= 0 {
		return fmt.Errorf("BACKTEST_HOLD_DAYS must be > 0")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
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
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsSymbols is getEnvAsList with tickers upper-cased
func getEnvAsSymbols(key string, defaultValue []string) []string {
	out := getEnvAsList(key, defaultValue)
	for i := range out {
		out[i] = strings.ToUpper(out[i])
	}
	return out
}

func getEnvAsFloatList(key string, defaultValue []float64) []float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]float64(nil), defaultValue...)
	}

	var out []float64
	for _, part := range strings.Split(valueStr, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return append([]float64(nil), defaultValue...)
		}
		out = append(out, value)
	}
	return out
}
