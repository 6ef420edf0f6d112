// Package config provides configuration management for the relay.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBodySizeLimit caps inbound JSON bodies (1MB).
	DefaultBodySizeLimit int64 = 1 << 20

	// DefaultFetchTimeout bounds the single outbound GET.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultFetchMaxBytes caps the size of a fetched resource (50MB).
	DefaultFetchMaxBytes int64 = 50 << 20

	// DefaultOpenAIBaseURL is the public OpenAI API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAITimeout bounds each call to the OpenAI API.
	DefaultOpenAITimeout = 120 * time.Second
)

// Config holds the application configuration.
// It is built once by Load and treated as read-only afterwards.
type Config struct {
	Server    ServerConfig
	Relay     RelayConfig
	OpenAI    OpenAIConfig
	Log       LogConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// RelayToken is the bearer secret callers must present. Empty means open mode.
	RelayToken    string
	BodySizeLimit int64
}

// RelayConfig holds the fetch-side settings.
type RelayConfig struct {
	// AllowedHosts are hostname fragments; empty allows every host.
	AllowedHosts  []string
	FetchTimeout  time.Duration
	FetchMaxBytes int64
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Format is one of "auto", "text" or "json".
	Format string
	Level  string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// RateLimitConfig controls the optional per-caller limiter.
type RateLimitConfig struct {
	Enabled  bool
	Requests int64
	Window   time.Duration
	// RedisURL selects the shared Redis backend; empty keeps counters in process.
	RedisURL string
}

// AuditConfig controls the request audit log.
type AuditConfig struct {
	Enabled       bool
	RetentionDays int
	BufferSize    int
	// FlushInterval is in seconds.
	FlushInterval int
}

// StorageConfig selects the audit log backend.
type StorageConfig struct {
	Type       string
	SQLite     SQLiteStorageConfig
	PostgreSQL PostgreSQLStorageConfig
	MongoDB    MongoDBStorageConfig
}

// SQLiteStorageConfig holds SQLite settings.
type SQLiteStorageConfig struct {
	Path string
}

// PostgreSQLStorageConfig holds PostgreSQL settings.
type PostgreSQLStorageConfig struct {
	URL      string
	MaxConns int
}

// MongoDBStorageConfig holds MongoDB settings.
type MongoDBStorageConfig struct {
	URL      string
	Database string
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BODY_SIZE_LIMIT", DefaultBodySizeLimit)
	viper.SetDefault("FETCH_MAX_BYTES", DefaultFetchMaxBytes)
	viper.SetDefault("OPENAI_BASE_URL", DefaultOpenAIBaseURL)
	viper.SetDefault("LOG_FORMAT", "auto")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("AUDIT_LOG_RETENTION_DAYS", 30)
	viper.SetDefault("AUDIT_LOG_BUFFER_SIZE", 1000)
	viper.SetDefault("AUDIT_LOG_FLUSH_INTERVAL", 5)
	viper.SetDefault("STORAGE_TYPE", "sqlite")
	viper.SetDefault("SQLITE_PATH", "data/relay.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("MONGODB_DATABASE", "relay")

	viper.AutomaticEnv()

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", DefaultFetchTimeout)
	if err != nil {
		return nil, err
	}
	openAITimeout, err := parseDuration("OPENAI_TIMEOUT", DefaultOpenAITimeout)
	if err != nil {
		return nil, err
	}
	window, err := parseDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          viper.GetString("PORT"),
			RelayToken:    viper.GetString("RELAY_TOKEN"),
			BodySizeLimit: viper.GetInt64("BODY_SIZE_LIMIT"),
		},
		Relay: RelayConfig{
			AllowedHosts:  SplitHosts(viper.GetString("ALLOWED_HOSTS")),
			FetchTimeout:  fetchTimeout,
			FetchMaxBytes: viper.GetInt64("FETCH_MAX_BYTES"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("OPENAI_API_KEY"),
			BaseURL: strings.TrimRight(viper.GetString("OPENAI_BASE_URL"), "/"),
			Timeout: openAITimeout,
		},
		Log: LogConfig{
			Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
			Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  viper.GetBool("RATE_LIMIT_ENABLED"),
			Requests: viper.GetInt64("RATE_LIMIT_REQUESTS"),
			Window:   window,
			RedisURL: viper.GetString("REDIS_URL"),
		},
		Audit: AuditConfig{
			Enabled:       viper.GetBool("AUDIT_LOG_ENABLED"),
			RetentionDays: viper.GetInt("AUDIT_LOG_RETENTION_DAYS"),
			BufferSize:    viper.GetInt("AUDIT_LOG_BUFFER_SIZE"),
			FlushInterval: viper.GetInt("AUDIT_LOG_FLUSH_INTERVAL"),
		},
		Storage: StorageConfig{
			Type: strings.ToLower(viper.GetString("STORAGE_TYPE")),
			SQLite: SQLiteStorageConfig{
				Path: viper.GetString("SQLITE_PATH"),
			},
			PostgreSQL: PostgreSQLStorageConfig{
				URL:      viper.GetString("POSTGRES_URL"),
				MaxConns: viper.GetInt("POSTGRES_MAX_CONNS"),
			},
			MongoDB: MongoDBStorageConfig{
				URL:      viper.GetString("MONGODB_URL"),
				Database: viper.GetString("MONGODB_DATABASE"),
			},
		},
	}

	if cfg.Server.BodySizeLimit <= 0 {
		cfg.Server.BodySizeLimit = DefaultBodySizeLimit
	}
	if cfg.Relay.FetchMaxBytes <= 0 {
		cfg.Relay.FetchMaxBytes = DefaultFetchMaxBytes
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive when rate limiting is enabled, got %d", cfg.RateLimit.Requests)
	}

	return cfg, nil
}

// SplitHosts turns the comma-separated ALLOWED_HOSTS value into trimmed,
// non-empty fragments, preserving their order.
func SplitHosts(raw string) []string {
	var hosts []string
	for _, part := range strings.Split(raw, ",") {
		if h := strings.TrimSpace(part); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// parseDuration reads a duration key. Plain integers are seconds,
// anything else must be a Go duration string (e.g. "90s", "2m").
func parseDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(viper.GetString(key))
	if val == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %q", key, val)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, val)
	}
	return d, nil
}
