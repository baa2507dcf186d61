package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// PublicBaseURL prefixes every shareable product link.
	PublicBaseURL string

	Observability ObservabilityConfig

	Blob BlobConfig

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	DBPath     string

	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisURL string
	BoltPath string

	AWS AWSConfig

	Notify    NotifyConfig
	Assistant AssistantConfig
	RateLimit RateLimitConfig

	MetricsPush MetricsPushConfig

	RulesPath  string
	RulesWatch bool

	// SeedFile is imported at startup when the collection is empty.
	SeedFile string
}

// ObservabilityConfig drives logging, tracing and OTel metrics.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	OtelEnabled   bool
	OtelEndpoint  string
	OtelProtocol  string
	SamplingRatio float64
}

type BlobConfig struct {
	Backend     string
	Key         string
	MaxBytes    int64
	Compression string
}

type AWSConfig struct {
	Region          string
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

type NotifyConfig struct {
	Interval        time.Duration
	DisplayTimeout  time.Duration
	RefreshInterval time.Duration
}

type AssistantConfig struct {
	APIKey       string
	BaseURL      string
	TextModel    string
	VideoModel   string
	PollInterval time.Duration
	Workers      int
}

// RateLimitConfig throttles the assistant endpoints per client through a
// Redis token bucket.
type RateLimitConfig struct {
	Enabled bool
	Rate    float64
	Burst   int
}

// MetricsPushConfig ships catalog gauges to a Pushgateway or remote_write
// endpoint. An empty Exporter disables pushing.
type MetricsPushConfig struct {
	Exporter   string
	Endpoint   string
	AuthToken  string
	StoreLabel string
	Interval   time.Duration
}

const (
	BlobBackendSQL   = "sql"
	BlobBackendRedis = "redis"
	BlobBackendBolt  = "bolt"
	BlobBackendS3    = "s3"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "scanprice"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimSpace(getenv("PUBLIC_BASE_URL", "http://localhost:8080/")),
		Observability: ObservabilityConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			LogFile:       strings.TrimSpace(getenv("LOG_FILE", "")),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtelEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			OtelProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		Blob: BlobConfig{
			Backend:     normalizeBackend(getenv("BLOB_BACKEND", BlobBackendSQL)),
			Key:         strings.TrimSpace(getenv("BLOB_KEY", "scanprice_products")),
			MaxBytes:    getenvInt64("BLOB_MAX_BYTES", 5<<20),
			Compression: strings.ToLower(strings.TrimSpace(getenv("BLOB_COMPRESSION", "none"))),
		},
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scanprice"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "scanprice.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 10)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		RedisURL:          getenv("REDIS_URL", "redis://localhost:6379/0"),
		BoltPath:          getenv("BOLT_PATH", "scanprice.bolt"),
		AWS: AWSConfig{
			Region:          getenv("AWS_REGION", "us-east-1"),
			Endpoint:        strings.TrimSpace(getenv("AWS_ENDPOINT", "")),
			Bucket:          strings.TrimSpace(getenv("AWS_S3_BUCKET", "scanprice")),
			AccessKeyID:     strings.TrimSpace(getenv("AWS_ACCESS_KEY_ID", "")),
			SecretAccessKey: strings.TrimSpace(getenv("AWS_SECRET_ACCESS_KEY", "")),
		},
		Notify: NotifyConfig{
			Interval:        getenvDuration("NOTIFY_INTERVAL", time.Minute),
			DisplayTimeout:  getenvDuration("NOTIFY_DISPLAY_TIMEOUT", 5*time.Second),
			RefreshInterval: getenvDuration("STORE_REFRESH_INTERVAL", 0),
		},
		Assistant: AssistantConfig{
			APIKey:       strings.TrimSpace(getenv("GEMINI_API_KEY", "")),
			BaseURL:      strings.TrimRight(getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
			TextModel:    getenv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
			VideoModel:   getenv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
			PollInterval: getenvDuration("ASSISTANT_POLL_INTERVAL", 10*time.Second),
			Workers:      int(getenvInt64("ASSISTANT_WORKERS", 4)),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("ASSISTANT_RATE_LIMIT_ENABLED", false),
			Rate:    getenvFloat("ASSISTANT_RATE_LIMIT_RATE", 0.2),
			Burst:   int(getenvInt64("ASSISTANT_RATE_LIMIT_BURST", 5)),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:   strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", "")),
			Endpoint:   strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken:  strings.TrimSpace(getenv("METRICS_PUSH_TOKEN", "")),
			StoreLabel: strings.TrimSpace(getenv("METRICS_PUSH_STORE", "")),
			Interval:   getenvDuration("METRICS_PUSH_INTERVAL", 5*time.Minute),
		},
		RulesPath:  strings.TrimSpace(getenv("RULES_PATH", "")),
		RulesWatch: getenvBool("RULES_WATCH", true),
		SeedFile:   strings.TrimSpace(getenv("SEED_FILE", "")),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case BlobBackendRedis, BlobBackendBolt, BlobBackendS3:
		return value
	default:
		return BlobBackendSQL
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
