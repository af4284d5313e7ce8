package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Ingest       IngestConfig
	Rates        RatesConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// IngestConfig tunes the webhook ingestion pipeline.
type IngestConfig struct {
	// SalesGroupID restricts processing to one WhatsApp group when set.
	SalesGroupID string
	// ProofWindowMinutes bounds the temporal-proximity proof fallback.
	ProofWindowMinutes int
	// DedupTTLMinutes bounds the redelivery guard on message ids.
	DedupTTLMinutes int
	// RulesPath optionally points at a YAML file with extra label synonyms.
	RulesPath string
	// ReprocessBatchSize caps how many history entries a reprocess scans.
	ReprocessBatchSize int
}

// RatesConfig holds the ad hoc USD conversion factors. These are
// approximate business constants tuned via env, not live exchange rates.
type RatesConfig struct {
	ARSPerUSD  decimal.Decimal
	EURUSDRate decimal.Decimal
}

// NotificationConfig holds the outgoing webhook endpoint.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	arsPerUSD, err := decimal.NewFromString(getEnv("RATE_ARS_PER_USD", "1000"))
	if err != nil || !arsPerUSD.IsPositive() {
		return nil, fmt.Errorf("invalid RATE_ARS_PER_USD")
	}
	eurRate, err := decimal.NewFromString(getEnv("RATE_EUR_USD", "1.1"))
	if err != nil || !eurRate.IsPositive() {
		return nil, fmt.Errorf("invalid RATE_EUR_USD")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sales-tracker"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ingest: IngestConfig{
			SalesGroupID:       os.Getenv("SALES_GROUP_JID"),
			ProofWindowMinutes: getEnvAsInt("PROOF_WINDOW_MINUTES", 10),
			DedupTTLMinutes:    getEnvAsInt("INGEST_DEDUP_TTL_MINUTES", 60),
			RulesPath:          os.Getenv("PARSER_RULES_PATH"),
			ReprocessBatchSize: getEnvAsInt("REPROCESS_BATCH_SIZE", 200),
		},
		Rates: RatesConfig{
			ARSPerUSD:  arsPerUSD,
			EURUSDRate: eurRate,
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("OUTGOING_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("OUTGOING_WEBHOOK_TIMEOUT_SECONDS", 10),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ProofWindow returns the proof fallback window duration.
func (i IngestConfig) ProofWindow() time.Duration {
	if i.ProofWindowMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(i.ProofWindowMinutes) * time.Minute
}

// DedupTTL returns how long a message id stays in the redelivery guard.
func (i IngestConfig) DedupTTL() time.Duration {
	if i.DedupTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(i.DedupTTLMinutes) * time.Minute
}

// Timeout returns the outbound webhook timeout.
func (n NotificationConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
