package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// providerEnvKeys maps environment variables to provider config keys
var providerEnvKeys = map[string]string{
	"ACCOUNT_ID":      "accountId",
	"CUSTOMER_ID":     "customerId",
	"TERMINAL_ID":     "terminalId",
	"API_USERNAME":    "apiUsername",
	"API_PASSWORD":    "apiPassword",
	"SP_PASSWORD":     "spPassword",
	"ENVIRONMENT":     "environment",
	"BASE_URL":        "baseUrl",
	"TIMEOUT_SECONDS": "timeoutSeconds",
}

// ConfigStorage persists configurations set through SetConfig. *SQLiteStorage implements it.
type ConfigStorage interface {
	SaveConfig(providerName string, config map[string]string) error
	LoadAllConfigs() (map[string]map[string]string, error)
	DeleteConfig(providerName string) error
}

// ProviderConfig manages payment provider configurations
type ProviderConfig struct {
	configs map[string]map[string]string
	storage ConfigStorage
	mu      sync.RWMutex
}

// NewProviderConfig creates a memory-only provider configuration
func NewProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		configs: make(map[string]map[string]string),
	}
}

// NewPersistentProviderConfig creates a provider configuration backed by storage
func NewPersistentProviderConfig(storage ConfigStorage) *ProviderConfig {
	c := NewProviderConfig()
	c.storage = storage
	return c
}

// LoadFromStorage copies every stored configuration into memory, replacing
// what is there. It returns the number of providers loaded.
func (c *ProviderConfig) LoadFromStorage() (int, error) {
	if c.storage == nil {
		return 0, nil
	}

	stored, err := c.storage.LoadAllConfigs()
	if err != nil {
		return 0, fmt.Errorf("failed to load stored provider configs: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, conf := range stored {
		c.configs[strings.ToLower(name)] = copyConfig(conf)
	}
	return len(stored), nil
}

// LoadFromEnv reads <PROVIDER>_<KEY> variables for the given providers,
// e.g. SAFERPAY_ACCOUNT_ID. Providers without any variable set are skipped.
func (c *ProviderConfig) LoadFromEnv(providerNames ...string) {
	for _, name := range providerNames {
		prefix := strings.ToUpper(name) + "_"
		conf := make(map[string]string)
		for envKey, confKey := range providerEnvKeys {
			if value := os.Getenv(prefix + envKey); value != "" {
				conf[confKey] = value
			}
		}
		if len(conf) == 0 {
			continue
		}
		if _, ok := conf["environment"]; !ok {
			conf["environment"] = "sandbox"
		}
		c.mu.Lock()
		c.configs[strings.ToLower(name)] = conf
		c.mu.Unlock()
	}
}

// SetConfig stores the configuration for a provider
func (c *ProviderConfig) SetConfig(providerName string, config map[string]string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if len(config) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	name := strings.ToLower(providerName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveConfig(name, config); err != nil {
			return fmt.Errorf("failed to persist config for provider %s: %w", name, err)
		}
	}

	c.configs[name] = copyConfig(config)
	return nil
}

// GetConfig returns configuration for a specific provider
func (c *ProviderConfig) GetConfig(providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, exists := c.configs[strings.ToLower(providerName)]
	if !exists {
		return nil, fmt.Errorf("no configuration found for provider: %s", providerName)
	}

	// Return a copy to prevent external modification
	return copyConfig(config), nil
}

// GetAvailableProviders returns all providers that have configurations
func (c *ProviderConfig) GetAvailableProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers := make([]string, 0, len(c.configs))
	for provider := range c.configs {
		providers = append(providers, provider)
	}
	return providers
}

// DeleteConfig removes a provider configuration. Configurations that only came
// from the environment have nothing stored, which is not an error.
func (c *ProviderConfig) DeleteConfig(providerName string) error {
	name := strings.ToLower(providerName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.DeleteConfig(name); err != nil && !errors.Is(err, ErrConfigNotFound) {
			return fmt.Errorf("failed to delete stored config for provider %s: %w", name, err)
		}
	}

	delete(c.configs, name)
	return nil
}

func copyConfig(config map[string]string) map[string]string {
	configCopy := make(map[string]string, len(config))
	for k, v := range config {
		configCopy[k] = v
	}
	return configCopy
}
