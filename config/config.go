package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Payments
	WebhookSecret string
	TicketFee     decimal.Decimal

	// Rate limiting (requests per window, per client)
	RegistrationRateLimit int
	WebhookRateLimit      int
	RateLimitWindow       time.Duration

	// Notifications
	NotifyBreakerThreshold int
	NotifyBreakerCooldown  time.Duration

	// Monitoring
	EnableMetrics   bool
	MetricsInterval time.Duration
}

// LoadConfig reads the environment, after loading an optional .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Payments
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		TicketFee:     getEnvAsDecimal("TICKET_FEE", "25.00"),

		// Rate limiting
		RegistrationRateLimit: getEnvAsInt("REGISTRATION_RATE_LIMIT", 10),
		WebhookRateLimit:      getEnvAsInt("WEBHOOK_RATE_LIMIT", 120),
		RateLimitWindow:       getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		// Notifications
		NotifyBreakerThreshold: getEnvAsInt("NOTIFY_BREAKER_THRESHOLD", 5),
		NotifyBreakerCooldown:  getEnvAsDuration("NOTIFY_BREAKER_COOLDOWN", "30s"),

		// Monitoring
		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		MetricsInterval: getEnvAsDuration("METRICS_INTERVAL", "30s"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	if value, err := decimal.NewFromString(valueStr); err == nil && !value.IsNegative() {
		return value
	}
	return decimal.RequireFromString(defaultValue)
}
