package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/worklane/attendance-backend-go/internal/pkg/validator"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// AttendanceConfig holds the office-hours defaults applied to new records and
// the retention window for closed ones.
type AttendanceConfig struct {
	ExpectedCheckIn  string
	ExpectedCheckOut string
	RetentionDays    int
}

func Load() (*Config, error) {
	// A missing .env file is fine in deployed environments; env vars win.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance configuration
	retentionDays, err := strconv.Atoi(getEnv("ATTENDANCE_RETENTION_DAYS", "365"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_RETENTION_DAYS: %w", err)
	}

	config.Attendance = AttendanceConfig{
		ExpectedCheckIn:  getEnv("ATTENDANCE_EXPECTED_CHECK_IN", "09:00"),
		ExpectedCheckOut: getEnv("ATTENDANCE_EXPECTED_CHECK_OUT", "18:00"),
		RetentionDays:    retentionDays,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if !validator.IsValidClock(c.Attendance.ExpectedCheckIn) {
		return fmt.Errorf("ATTENDANCE_EXPECTED_CHECK_IN must be HH:MM")
	}
	if !validator.IsValidClock(c.Attendance.ExpectedCheckOut) {
		return fmt.Errorf("ATTENDANCE_EXPECTED_CHECK_OUT must be HH:MM")
	}
	if c.Attendance.RetentionDays <= 0 {
		return fmt.Errorf("ATTENDANCE_RETENTION_DAYS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
