package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp(t *testing.T) {
	config1 := App()
	config2 := App()

	require.NotNil(t, config1)
	assert.Same(t, config1, config2, "App() should return singleton instance")
	assert.NotNil(t, config1.Validator, "Validator should be initialized")
}

func TestGetAppConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected AppConfig
	}{
		{
			name:    "default_values",
			envVars: map[string]string{},
			expected: AppConfig{
				Port:           "9999",
				Environment:    "development",
				OpenSearchURL:  "http://localhost:9200",
				EnableLogging:  false,
				LoggingLevel:   "info",
				RequestTimeout: 30 * time.Second,
			},
		},
		{
			name: "custom_values",
			envVars: map[string]string{
				"APP_PORT":                  "8080",
				"ENVIRONMENT":               "production",
				"OPENSEARCH_URL":            "https://search.example.com:9200",
				"OPENSEARCH_USER":           "testuser",
				"OPENSEARCH_PASSWORD":       "testpass",
				"ENABLE_OPENSEARCH_LOGGING": "true",
				"LOGGING_LEVEL":             "debug",
				"REQUEST_TIMEOUT_SECONDS":   "5",
				"CONFIG_DB_PATH":            "/var/lib/saferpay/config.db",
			},
			expected: AppConfig{
				Port:           "8080",
				Environment:    "production",
				OpenSearchURL:  "https://search.example.com:9200",
				OpenSearchUser: "testuser",
				OpenSearchPass: "testpass",
				EnableLogging:  true,
				LoggingLevel:   "debug",
				RequestTimeout: 5 * time.Second,
				ConfigDBPath:   "/var/lib/saferpay/config.db",
			},
		},
		{
			name: "invalid_values_fall_back_to_defaults",
			envVars: map[string]string{
				"ENABLE_OPENSEARCH_LOGGING": "invalid",
				"REQUEST_TIMEOUT_SECONDS":   "invalid",
			},
			expected: AppConfig{
				Port:           "9999",
				Environment:    "development",
				OpenSearchURL:  "http://localhost:9200",
				EnableLogging:  false,
				LoggingLevel:   "info",
				RequestTimeout: 30 * time.Second,
			},
		},
	}

	keys := []string{
		"APP_PORT", "ENVIRONMENT", "OPENSEARCH_URL", "OPENSEARCH_USER", "OPENSEARCH_PASSWORD",
		"ENABLE_OPENSEARCH_LOGGING", "LOGGING_LEVEL", "REQUEST_TIMEOUT_SECONDS", "CONFIG_DB_PATH",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			appConfigInstance = nil
			defer func() { appConfigInstance = nil }()

			config := GetAppConfig()
			require.NotNil(t, config)
			assert.Equal(t, tt.expected, *config)
			assert.NoError(t, config.Validate())

			assert.Same(t, config, GetAppConfig(), "GetAppConfig() should return singleton instance")
		})
	}
}

func TestAppConfig_Validate(t *testing.T) {
	config := AppConfig{
		Port:           "not-a-port",
		Environment:    "development",
		LoggingLevel:   "verbose",
		RequestTimeout: time.Second,
	}

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "LoggingLevel")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom")
	t.Setenv("EMPTY_VAR", "")

	assert.Equal(t, "custom", GetEnv("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", GetEnv("EMPTY_VAR", "default"))
	assert.Equal(t, "default", GetEnv("NON_EXISTENT_VAR_FOR_TEST", "default"))
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		expected     bool
	}{
		{"true_string", false, "true", true},
		{"false_string", true, "false", false},
		{"1_string", false, "1", true},
		{"0_string", true, "0", false},
		{"invalid_string_returns_default", true, "invalid", true},
		{"empty_returns_default", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.envValue)
			assert.Equal(t, tt.expected, GetBoolEnv("TEST_BOOL_VAR", tt.defaultValue))
		})
	}
}

func TestGetIntEnv(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue int
		envValue     string
		expected     int
	}{
		{"valid_int", 1, "42", 42},
		{"negative_int", 1, "-3", -3},
		{"invalid_returns_default", 7, "seven", 7},
		{"empty_returns_default", 7, "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_VAR", tt.envValue)
			assert.Equal(t, tt.expected, GetIntEnv("TEST_INT_VAR", tt.defaultValue))
		})
	}
}
