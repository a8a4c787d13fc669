package saferpay

import (
	"fmt"
	"strconv"
	"time"

	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/provider"
)

const (
	defaultSpecVersion = "1.7"
	defaultOrderID     = "1"
)

// Config carries the merchant credentials and endpoint settings of a client
type Config struct {
	Environment    string        `validate:"omitempty,oneof=sandbox test production"`
	AccountID      string        `validate:"omitempty,saferpay=ns[..15]"`
	CustomerID     string        `validate:"omitempty,numeric"`
	TerminalID     string        `validate:"omitempty,numeric"`
	APIUsername    string        `validate:"required_with=APIPassword"`
	APIPassword    string        `validate:"required_with=APIUsername"`
	SPPassword     string        // used for complete calls that get no password of their own
	BaseURL        string        `validate:"omitempty,url"`
	SpecVersion    string        `validate:"omitempty"`
	DefaultOrderID string        `validate:"omitempty,saferpay=ans[..80]"`
	Timeout        time.Duration `validate:"gte=0"`
}

// IsProduction reports whether the client talks to the live JSON API
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) withDefaults() Config {
	if c.Environment == "" {
		c.Environment = "sandbox"
	}
	if c.SpecVersion == "" {
		c.SpecVersion = defaultSpecVersion
	}
	if c.DefaultOrderID == "" {
		c.DefaultOrderID = defaultOrderID
	}
	return c
}

// Validate checks the config with the shared validator
func (c Config) Validate() error {
	if err := config.App().Validator.Struct(c); err != nil {
		return fmt.Errorf("saferpay: invalid config: %w", err)
	}
	return nil
}

// GetRequiredConfig returns the configuration fields understood by the Saferpay client
func GetRequiredConfig(environment string) []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "customerId",
			Required:    true,
			Type:        "number",
			Description: "Saferpay customer id (JSON API)",
			Example:     "401860",
			MaxLength:   20,
		},
		{
			Key:         "terminalId",
			Required:    true,
			Type:        "number",
			Description: "Saferpay terminal id (JSON API)",
			Example:     "17795278",
			MaxLength:   20,
		},
		{
			Key:         "apiUsername",
			Required:    environment == "production",
			Type:        "string",
			Description: "JSON API basic auth user",
			Example:     "API_401860_80003225",
		},
		{
			Key:         "apiPassword",
			Required:    environment == "production",
			Type:        "string",
			Description: "JSON API basic auth password",
			Example:     "C-y*bv8346Ze5-T8",
		},
		{
			Key:         "accountId",
			Required:    false,
			Type:        "string",
			Description: "Hosting account id",
			Example:     TestAccountID,
			Pattern:     `^[0-9-]{1,15}$`,
		},
		{
			Key:         "spPassword",
			Required:    false,
			Type:        "string",
			Description: "Password for non-settlement complete actions on live accounts",
			Example:     TestAccountSPPassword,
		},
		{
			Key:         "baseUrl",
			Required:    false,
			Type:        "url",
			Description: "Overrides the gateway host, e.g. for a local stub",
			Example:     sandboxHost,
		},
		{
			Key:         "timeoutSeconds",
			Required:    false,
			Type:        "number",
			Description: "HTTP timeout in seconds",
			Example:     "30",
		},
		{
			Key:         "environment",
			Required:    true,
			Type:        "string",
			Description: "Environment setting (sandbox, test or production)",
			Example:     "sandbox",
			Pattern:     "^(sandbox|test|production)$",
		},
	}
}

// ValidateConfig validates a configuration map against GetRequiredConfig
func ValidateConfig(conf map[string]string) error {
	return provider.ValidateConfigFields("saferpay", conf, GetRequiredConfig(conf["environment"]))
}

// ConfigFromMap builds a Config from a provider configuration map
func ConfigFromMap(conf map[string]string) (Config, error) {
	if err := ValidateConfig(conf); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment: conf["environment"],
		AccountID:   conf["accountId"],
		CustomerID:  conf["customerId"],
		TerminalID:  conf["terminalId"],
		APIUsername: conf["apiUsername"],
		APIPassword: conf["apiPassword"],
		SPPassword:  conf["spPassword"],
		BaseURL:     conf["baseUrl"],
	}

	if s := conf["timeoutSeconds"]; s != "" {
		seconds, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("saferpay: invalid timeoutSeconds %q: %w", s, err)
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
