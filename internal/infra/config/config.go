package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config concentra tudo que vem do ambiente (.env em dev).
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	RabbitMQURL string

	EncryptionKey       string
	FallbackSecret      string
	AllowFallbackSecret bool

	ChatwootTimeout  time.Duration
	ChatwootMaxConns int

	DedupTTL          time.Duration
	SyncWorkers       int
	SyncQueueCapacity int

	WebhookRateLimit int

	CORSAllowedOrigins []string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		FallbackSecret:      getEnv("CHATWOOT_WEBHOOK_FALLBACK_SECRET", ""),
		AllowFallbackSecret: getEnvAsBool("ALLOW_FALLBACK_SECRET", false),

		ChatwootTimeout:  getEnvAsDuration("CHATWOOT_HTTP_TIMEOUT", 10*time.Second),
		ChatwootMaxConns: getEnvAsInt("CHATWOOT_MAX_CONNS", 20),

		DedupTTL:          getEnvAsDuration("DEDUP_TTL", 15*time.Second),
		SyncWorkers:       getEnvAsInt("SYNC_WORKERS", 4),
		SyncQueueCapacity: getEnvAsInt("SYNC_QUEUE_CAPACITY", 256),

		WebhookRateLimit: getEnvAsInt("WEBHOOK_RATE_LIMIT", 600),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// WebhookFallbackSecret devolve o segredo compartilhado só quando ele pode ser usado.
// Em produção ele fica desligado, a menos que ALLOW_FALLBACK_SECRET=true.
func (c *Config) WebhookFallbackSecret() string {
	if c.IsProduction() && !c.AllowFallbackSecret {
		return ""
	}
	return c.FallbackSecret
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
