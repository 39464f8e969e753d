package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	Directory DirectoryConfig
	Query     QueryConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Slack     SlackConfig
	JWT       JWTConfig
	RefData   RefDataConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DirectoryConfig holds remote directory service connection settings.
type DirectoryConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string //nolint:gosec // G117: OAuth client secret config
	Scopes       []string

	RequestsPerSecond float64
	Burst             int
}

// QueryConfig holds audit-query defaults.
type QueryConfig struct {
	MaxLookback         time.Duration
	DefaultMaxWait      time.Duration
	DefaultPollInterval time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// SlackConfig holds Slack notification settings. An empty BotToken
// disables notifications.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// JWTConfig holds API authentication settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// RefDataConfig holds reference-data settings.
type RefDataConfig struct {
	ProductNamesCSV string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only; required values with
// no usable default are enforced by validate.
func Load() (*Config, error) {
	readTimeout, err := getEnvDuration("KESTREL_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	// Write timeout must cover the longest audit-query wait, since the
	// submit endpoint holds the connection until the job completes.
	writeTimeout, err := getEnvDuration("KESTREL_SERVER_WRITE_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("KESTREL_DIRECTORY_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("KESTREL_DIRECTORY_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxLookback, err := getEnvDuration("KESTREL_QUERY_MAX_LOOKBACK", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxWait, err := getEnvDuration("KESTREL_QUERY_MAX_WAIT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollInterval, err := getEnvDuration("KESTREL_QUERY_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("KESTREL_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("KESTREL_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("KESTREL_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("KESTREL_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("KESTREL_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Directory: DirectoryConfig{
			BaseURL:           getEnv("KESTREL_DIRECTORY_BASE_URL", ""),
			TokenURL:          getEnv("KESTREL_DIRECTORY_TOKEN_URL", ""),
			ClientID:          getEnv("KESTREL_DIRECTORY_CLIENT_ID", ""),
			ClientSecret:      getEnv("KESTREL_DIRECTORY_CLIENT_SECRET", ""),
			Scopes:            getEnvList("KESTREL_DIRECTORY_SCOPES", nil),
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		Query: QueryConfig{
			MaxLookback:         maxLookback,
			DefaultMaxWait:      maxWait,
			DefaultPollInterval: pollInterval,
		},
		Database: DatabaseConfig{
			Host:     getEnv("KESTREL_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("KESTREL_DB_USER", "kestrel"),
			Password: getEnv("KESTREL_DB_PASSWORD", ""),
			DBName:   getEnv("KESTREL_DB_NAME", "kestrel_dev"),
			SSLMode:  getEnv("KESTREL_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("KESTREL_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("KESTREL_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Slack: SlackConfig{
			BotToken: getEnv("KESTREL_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("KESTREL_SLACK_CHANNEL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("KESTREL_JWT_SECRET", ""),
		},
		RefData: RefDataConfig{
			ProductNamesCSV: getEnv("KESTREL_PRODUCT_NAMES_CSV", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("KESTREL_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("KESTREL_JWT_SECRET must be at least 32 characters")
	}

	if c.Directory.BaseURL == "" {
		return errors.New("KESTREL_DIRECTORY_BASE_URL is required")
	}
	if c.Directory.TokenURL == "" {
		return errors.New("KESTREL_DIRECTORY_TOKEN_URL is required")
	}
	if c.Directory.ClientID == "" {
		return errors.New("KESTREL_DIRECTORY_CLIENT_ID is required")
	}
	if c.Directory.ClientSecret == "" {
		return errors.New("KESTREL_DIRECTORY_CLIENT_SECRET is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("KESTREL_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("KESTREL_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("KESTREL_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("KESTREL_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Query.MaxLookback <= 0 {
		return fmt.Errorf("KESTREL_QUERY_MAX_LOOKBACK must be positive, got %s", c.Query.MaxLookback)
	}
	if c.Query.DefaultPollInterval <= 0 {
		return fmt.Errorf("KESTREL_QUERY_POLL_INTERVAL must be positive, got %s", c.Query.DefaultPollInterval)
	}
	if c.Query.DefaultMaxWait < c.Query.DefaultPollInterval {
		return fmt.Errorf("KESTREL_QUERY_MAX_WAIT must be >= poll interval, got %s", c.Query.DefaultMaxWait)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
