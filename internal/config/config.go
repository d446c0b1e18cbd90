package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AdminJWTSecret string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Webhook   WebhookConfig
	RateLimit RateLimitConfig
	Quota     QuotaConfig
	Sweep     SweepConfig
	Seed      SeedConfig
}

// WebhookConfig carries per-provider shared secrets for signature checks.
type WebhookConfig struct {
	OrangeMoneySecret string
	MTNMoMoSecret     string
}

// Secret returns the shared secret for a provider, empty when unknown.
func (w WebhookConfig) Secret(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "orange_money":
		return w.OrangeMoneySecret
	case "mtn_momo":
		return w.MTNMoMoSecret
	default:
		return ""
	}
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	UsageRate     float64
	UsageBurst    int
}

// QuotaConfig is the pay-per-use credit cost table, keyed by feature.
type QuotaConfig struct {
	CVViewCost     int64
	MatchingAICost int64
	ExportCost     int64
}

type SweepConfig struct {
	Interval time.Duration
}

// SeedConfig controls startup bootstrap of reference data.
type SeedConfig struct {
	DefaultCatalog bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "emploihub"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AdminJWTSecret: strings.TrimSpace(getenv("ADMIN_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "emploihub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Webhook: WebhookConfig{
			OrangeMoneySecret: strings.TrimSpace(getenv("WEBHOOK_ORANGE_MONEY_SECRET", "")),
			MTNMoMoSecret:     strings.TrimSpace(getenv("WEBHOOK_MTN_MOMO_SECRET", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			UsageRate:     getenvFloat("RATE_LIMIT_USAGE_RATE", 10),
			UsageBurst:    getenvInt("RATE_LIMIT_USAGE_BURST", 20),
		},
		Quota: QuotaConfig{
			CVViewCost:     getenvInt64("QUOTA_CV_VIEW_COST", 1),
			MatchingAICost: getenvInt64("QUOTA_MATCHING_AI_COST", 5),
			ExportCost:     getenvInt64("QUOTA_EXPORT_COST", 2),
		},
		Sweep: SweepConfig{
			Interval: time.Duration(getenvInt("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		},
		Seed: SeedConfig{
			DefaultCatalog: getenvBool("SEED_DEFAULT_CATALOG", true),
		},
	}
}

// Module provides the configuration to the fx graph.
var Module = fx.Module("config", fx.Provide(Load))

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
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
