package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	App      AppConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Invoice  InvoiceConfig
	Jobs     JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS connection configuration
type NATSConfig struct {
	URL string
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment string
	LogLevel    string
}

// SMTPConfig holds the mail transport configuration for invoice emails
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// AuthConfig holds admin authentication configuration.
// AdminPasswordHash (bcrypt) takes precedence over the plain AdminPassword,
// which remains supported for local development and for the legacy
// x-admin-secret header during migration.
type AuthConfig struct {
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	TokenExpiryHours  int
}

// InvoiceConfig holds invoice defaults
type InvoiceConfig struct {
	DefaultDueDays int
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	OverdueSweepMinutes     int // interval for marking sent invoices overdue
	ValidationRetentionDays int // retention window for license validation logs
	ValidationPruneHours    int // interval for the validation log prune job
}

// New creates a new configuration instance
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port: getEnvWithDefault("SERVER_PORT", "8090"),
		},
		Database: DatabaseConfig{
			Host:     getEnvWithDefault("DB_HOST", "localhost"),
			Port:     getEnvWithDefault("DB_PORT", "5432"),
			User:     getEnvWithDefault("DB_USER", "postgres"),
			Password: getEnvWithDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvWithDefault("DB_NAME", "license_db"),
			SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			Password: getEnvWithDefault("REDIS_PASSWORD", ""),
			DB:       getEnvAsIntWithDefault("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
		},
		App: AppConfig{
			Environment: getEnvWithDefault("APP_ENV", "development"),
			LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		},
		SMTP: SMTPConfig{
			Host:     getEnvWithDefault("SMTP_HOST", ""),
			Port:     getEnvWithDefault("SMTP_PORT", "587"),
			User:     getEnvWithDefault("SMTP_USER", ""),
			Password: getEnvWithDefault("SMTP_PASSWORD", ""),
			From:     getEnvWithDefault("SMTP_FROM", ""),
			FromName: getEnvWithDefault("SMTP_FROM_NAME", "Arena Fakturering"),
		},
		Auth: AuthConfig{
			AdminPassword:     getEnvWithDefault("ADMIN_PASSWORD", ""),
			AdminPasswordHash: getEnvWithDefault("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:         getEnvWithDefault("JWT_SECRET", ""),
			TokenExpiryHours:  getEnvAsIntWithDefault("TOKEN_EXPIRY_HOURS", 12),
		},
		Invoice: InvoiceConfig{
			DefaultDueDays: getEnvAsIntWithDefault("INVOICE_DEFAULT_DUE_DAYS", 14),
		},
		Jobs: JobsConfig{
			OverdueSweepMinutes:     getEnvAsIntWithDefault("OVERDUE_SWEEP_MINUTES", 60),
			ValidationRetentionDays: getEnvAsIntWithDefault("VALIDATION_RETENTION_DAYS", 90),
			ValidationPruneHours:    getEnvAsIntWithDefault("VALIDATION_PRUNE_HOURS", 24),
		},
	}
}

// getEnvWithDefault gets environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault gets environment variable as integer with default fallback
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
