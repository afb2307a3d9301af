package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port                string
	DBConn              string
	LogLevel            string
	JWTSecret           string
	RedisAddr           string
	DefaultDailyLateFee float64
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	SenderEmail         string
	AdminEmail          string
	AdminPasswordHash   string
	MaterializeSpec     string
	ReminderSpec        string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	defaultRate, err := getEnvFloat("DEFAULT_DAILY_LATE_FEE", 120)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DBConn:              getEnv("DB_CONN", "host=localhost port=5432 user=rental password=rental dbname=rental sslmode=disable"),
		LogLevel:            getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:           getEnv("JWT_SECRET", "secret"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		DefaultDailyLateFee: defaultRate,
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnv("SMTP_PORT", "587"),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SenderEmail:         getEnv("SENDER_EMAIL", "billing@rental.local"),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@rental.local"),
		AdminPasswordHash:   getEnv("ADMIN_PASSWORD_HASH", ""),
		// First of the month at 06:00: materialize records for the month
		// that just closed. Daily at 08:00: overdue reminders.
		MaterializeSpec: getEnv("MATERIALIZE_CRON", "0 6 1 * *"),
		ReminderSpec:    getEnv("REMINDER_CRON", "0 8 * * *"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DefaultDailyLateFee < 0 {
		return nil, fmt.Errorf("DEFAULT_DAILY_LATE_FEE must not be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}
