package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the bridge application configuration
type AppConfig struct {
	Port           string `validate:"required,numeric"`
	Environment    string `validate:"required"`
	OpenSearchURL  string `validate:"omitempty,url"`
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string        `validate:"oneof=debug info warn error critical"`
	RequestTimeout time.Duration `validate:"gt=0"`
	ConfigDBPath   string
}

var (
	instance          *Config
	appConfigInstance *AppConfig
)

func App() *Config {
	if instance == nil {
		instance = &Config{
			Validator: validator.New(),
		}
	}
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:           GetEnv("APP_PORT", "9999"),
			Environment:    GetEnv("ENVIRONMENT", "development"),
			OpenSearchURL:  GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser: GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass: GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:  GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:   GetEnv("LOGGING_LEVEL", "info"),
			RequestTimeout: time.Duration(GetIntEnv("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			ConfigDBPath:   GetEnv("CONFIG_DB_PATH", ""),
		}
	}
	return appConfigInstance
}

// Validate checks the application configuration with the shared validator
func (c *AppConfig) Validate() error {
	return App().Validator.Struct(c)
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
