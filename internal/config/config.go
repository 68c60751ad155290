// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	ProviderStripe = "stripe"
	ProviderFake   = "fake"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	LogFormat          string

	MongoURI    string
	MongoDBName string

	CatalogBackend       string
	SQLitePath           string
	SQLiteMigrationsPath string

	OrderBackend           string
	DBHost                 string
	DBPort                 int
	DBUser                 string
	DBPassword             string
	DBName                 string
	PostgresMigrationsPath string

	RedisAddr       string
	RedisPassword   string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration

	KafkaBrokers     []string
	OrderEventsTopic string
	ConsumerGroupID  string

	PaymentProvider    string
	StripeSecretKey    string
	Currency           string
	PaymentTimeout     time.Duration
	CheckoutAttemptTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "storefront"),

		CatalogBackend:       getEnv("CATALOG_BACKEND", BackendMongo),
		SQLitePath:           getEnv("SQLITE_PATH", "./catalog.db"),
		SQLiteMigrationsPath: getEnv("SQLITE_MIGRATIONS_PATH", "./internal/repository/migrations/sqlite"),

		OrderBackend:           getEnv("ORDER_BACKEND", BackendMongo),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnvInt("DB_PORT", 5432),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", "postgres"),
		DBName:                 getEnv("DB_NAME", "storefront"),
		PostgresMigrationsPath: getEnv("POSTGRES_MIGRATIONS_PATH", "./internal/repository/migrations/postgres"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		SessionTTL:      getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 15*time.Minute),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		ConsumerGroupID:  getEnv("KAFKA_GROUP_ID", "storefront-orders"),

		PaymentProvider:    getEnv("PAYMENT_PROVIDER", ProviderFake),
		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		Currency:           getEnv("CURRENCY", "jpy"),
		PaymentTimeout:     getEnvDuration("PAYMENT_TIMEOUT", 10*time.Second),
		CheckoutAttemptTTL: getEnvDuration("CHECKOUT_ATTEMPT_TTL", 30*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CatalogBackend != BackendMongo && c.CatalogBackend != BackendSQLite {
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendMongo, BackendSQLite, c.CatalogBackend)
	}
	if c.OrderBackend != BackendMongo && c.OrderBackend != BackendPostgres {
		return fmt.Errorf("ORDER_BACKEND must be %q or %q, got %q", BackendMongo, BackendPostgres, c.OrderBackend)
	}
	switch c.PaymentProvider {
	case ProviderFake:
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER is %q", ProviderStripe)
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be %q or %q, got %q", ProviderStripe, ProviderFake, c.PaymentProvider)
	}
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
		{"PAYMENT_TIMEOUT", c.PaymentTimeout},
		{"CHECKOUT_ATTEMPT_TTL", c.CheckoutAttemptTTL},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
	}
	return nil
}

// NeedsMongo reports whether any backend is served by MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.CatalogBackend == BackendMongo || c.OrderBackend == BackendMongo
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
