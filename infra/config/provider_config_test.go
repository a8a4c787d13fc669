package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderConfig(t *testing.T) {
	config := NewProviderConfig()

	assert.NotNil(t, config)
	assert.NotNil(t, config.configs)
	assert.Empty(t, config.GetAvailableProviders())
}

func TestProviderConfig_SetConfig(t *testing.T) {
	tests := []struct {
		name         string
		providerName string
		configData   map[string]string
		expectError  bool
		errorMsg     string
	}{
		{
			name:         "valid_saferpay_config",
			providerName: "saferpay",
			configData: map[string]string{
				"accountId":   "99867-94913159",
				"environment": "sandbox",
			},
		},
		{
			name:         "empty_provider_name",
			providerName: "",
			configData:   map[string]string{"accountId": "1"},
			expectError:  true,
			errorMsg:     "provider name cannot be empty",
		},
		{
			name:         "empty_config",
			providerName: "saferpay",
			configData:   map[string]string{},
			expectError:  true,
			errorMsg:     "config cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewProviderConfig()
			err := config.SetConfig(tt.providerName, tt.configData)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}

			require.NoError(t, err)
			stored, err := config.GetConfig(tt.providerName)
			require.NoError(t, err)
			assert.Equal(t, tt.configData, stored)
		})
	}
}

func TestProviderConfig_GetConfigReturnsCopy(t *testing.T) {
	config := NewProviderConfig()
	require.NoError(t, config.SetConfig("Saferpay", map[string]string{"accountId": "1"}))

	stored, err := config.GetConfig("saferpay")
	require.NoError(t, err)
	stored["accountId"] = "changed"

	again, err := config.GetConfig("SAFERPAY")
	require.NoError(t, err)
	assert.Equal(t, "1", again["accountId"])
}

func TestProviderConfig_GetConfigMissing(t *testing.T) {
	config := NewProviderConfig()

	_, err := config.GetConfig("saferpay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration found")
}

func TestProviderConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("SAFERPAY_ACCOUNT_ID", "99867-94913159")
	t.Setenv("SAFERPAY_CUSTOMER_ID", "99867")
	t.Setenv("SAFERPAY_TERMINAL_ID", "94913159")
	t.Setenv("SAFERPAY_ENVIRONMENT", "")
	t.Setenv("OTHER_ACCOUNT_ID", "")

	config := NewProviderConfig()
	config.LoadFromEnv("saferpay", "other")

	assert.Equal(t, []string{"saferpay"}, config.GetAvailableProviders())

	stored, err := config.GetConfig("saferpay")
	require.NoError(t, err)
	assert.Equal(t, "99867-94913159", stored["accountId"])
	assert.Equal(t, "99867", stored["customerId"])
	assert.Equal(t, "94913159", stored["terminalId"])
	assert.Equal(t, "sandbox", stored["environment"], "environment defaults to sandbox")
}

func TestProviderConfig_DeleteConfig(t *testing.T) {
	config := NewProviderConfig()
	require.NoError(t, config.SetConfig("saferpay", map[string]string{"accountId": "1"}))

	require.NoError(t, config.DeleteConfig("saferpay"))

	_, err := config.GetConfig("saferpay")
	assert.Error(t, err)
}

func TestProviderConfig_Persistent(t *testing.T) {
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer storage.Close()

	first := NewPersistentProviderConfig(storage)
	require.NoError(t, first.SetConfig("Saferpay", map[string]string{
		"accountId":   "99867-94913159",
		"environment": "sandbox",
	}))

	second := NewPersistentProviderConfig(storage)
	loaded, err := second.LoadFromStorage()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	conf, err := second.GetConfig("saferpay")
	require.NoError(t, err)
	assert.Equal(t, "99867-94913159", conf["accountId"])

	require.NoError(t, second.DeleteConfig("saferpay"))
	stored, err := storage.LoadAllConfigs()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProviderConfig_EnvNotPersisted(t *testing.T) {
	t.Setenv("SAFERPAY_ACCOUNT_ID", "99867-94913159")

	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer storage.Close()

	config := NewPersistentProviderConfig(storage)
	config.LoadFromEnv("saferpay")

	stored, err := storage.LoadAllConfigs()
	require.NoError(t, err)
	assert.Empty(t, stored)

	// nothing stored for an env-only provider is fine
	require.NoError(t, config.DeleteConfig("saferpay"))
}
