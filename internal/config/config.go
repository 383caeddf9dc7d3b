package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Log       LogConfig
	Auth      AuthConfig
	Payments  PaymentsConfig
	Paystack  PaystackConfig
	Messaging MessagingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Migrate  bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig controls the logrus output.
type LogConfig struct {
	Level string
	JSON  bool
}

// AuthConfig holds admin token settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// PaymentsConfig holds checkout and auto-completion settings.
type PaymentsConfig struct {
	DefaultCurrency     string
	AutoComplete        bool
	AutoCompleteEvery   time.Duration
	AutoCompleteAfter   time.Duration
	SuccessRate         float64
	AutoCompleteBatch   int
	AutoCompleteSandbox bool
}

// PaystackConfig holds the Paystack gateway credentials.
type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// MessagingConfig controls the payment event pipeline.
type MessagingConfig struct {
	Enabled       bool
	ConsumerGroup string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			CORSOrigins:  getListEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tours"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Migrate:  getBoolEnv("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "tours-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getBoolEnv("LOG_JSON", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getDurationEnv("JWT_TTL", 12*time.Hour),
		},
		Payments: PaymentsConfig{
			DefaultCurrency:     getEnv("PAYMENTS_DEFAULT_CURRENCY", "GHS"),
			AutoComplete:        getBoolEnv("PAYMENTS_AUTOCOMPLETE", false),
			AutoCompleteEvery:   getDurationEnv("PAYMENTS_AUTOCOMPLETE_INTERVAL", 10*time.Second),
			AutoCompleteAfter:   getDurationEnv("PAYMENTS_AUTOCOMPLETE_TIMEOUT", 30*time.Second),
			SuccessRate:         getFloatEnv("PAYMENTS_AUTOCOMPLETE_SUCCESS_RATE", 0.9),
			AutoCompleteBatch:   getIntEnv("PAYMENTS_AUTOCOMPLETE_BATCH", 50),
			AutoCompleteSandbox: getBoolEnv("PAYMENTS_AUTOCOMPLETE_SANDBOX_ONLY", true),
		},
		Paystack: PaystackConfig{
			BaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
			Timeout:   getDurationEnv("PAYSTACK_TIMEOUT", 15*time.Second),
		},
		Messaging: MessagingConfig{
			Enabled:       getBoolEnv("MESSAGING_ENABLED", true),
			ConsumerGroup: getEnv("MESSAGING_CONSUMER_GROUP", "tours"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return parseCSV(value)
	}
	return defaultValue
}
