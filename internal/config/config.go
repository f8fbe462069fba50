package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the loaded configuration to the fx graph.
var Module = fx.Provide(Load)

// ExhaustAction decides where a past_due subscription lands once retries run out.
type ExhaustAction string

const (
	ExhaustActionCancel ExhaustAction = "canceled"
	ExhaustActionUnpaid ExhaustAction = "unpaid"
)

// RetryPolicy governs past-due payment retries.
type RetryPolicy struct {
	MaxRetries        int
	RetryIntervalDays int
	ExhaustAction     ExhaustAction
}

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string
	Livemode   bool

	DefaultCurrency string
	GracePeriodDays int
	Retry           RetryPolicy

	// MaxSafeAmount is the overflow ceiling for money arithmetic, in minor units.
	MaxSafeAmount int64

	SchedulerPollSeconds int

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
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:    getenv("APP_SERVICE", "qzpay"),
		AppVersion: getenv("APP_VERSION", "0.1.0"),
		Livemode:   getenvBool("LIVEMODE", false),

		DefaultCurrency: strings.ToLower(getenv("DEFAULT_CURRENCY", "usd")),
		GracePeriodDays: getenvInt("GRACE_PERIOD_DAYS", 3),
		Retry: RetryPolicy{
			MaxRetries:        getenvInt("RETRY_MAX_RETRIES", 3),
			RetryIntervalDays: getenvInt("RETRY_INTERVAL_DAYS", 3),
			ExhaustAction:     normalizeExhaustAction(getenv("RETRY_EXHAUST_ACTION", string(ExhaustActionCancel))),
		},

		MaxSafeAmount: getenvInt64("MAX_SAFE_AMOUNT", 100_000_000_000),

		SchedulerPollSeconds: getenvInt("SCHEDULER_POLL_SECONDS", 60),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}
}

func normalizeExhaustAction(raw string) ExhaustAction {
	switch ExhaustAction(strings.ToLower(strings.TrimSpace(raw))) {
	case ExhaustActionUnpaid:
		return ExhaustActionUnpaid
	default:
		return ExhaustActionCancel
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
