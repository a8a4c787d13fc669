package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/horo42/saferpay/infra/response"
	"github.com/horo42/saferpay/provider"
)

// ConfigStore holds provider configuration maps. *config.ProviderConfig implements it.
type ConfigStore interface {
	GetConfig(providerName string) (map[string]string, error)
	SetConfig(providerName string, config map[string]string) error
	DeleteConfig(providerName string) error
}

// GatewayInvalidator drops cached gateway clients. *provider.PaymentService implements it.
type GatewayInvalidator interface {
	Invalidate(providerName string)
}

// ConfigHandler handles configuration related HTTP requests
type ConfigHandler struct {
	providerConfig ConfigStore
	gateways       GatewayInvalidator
	registry       *provider.ProviderRegistry
}

// NewConfigHandler creates a new config handler. A nil registry means provider.DefaultRegistry.
func NewConfigHandler(providerConfig ConfigStore, gateways GatewayInvalidator, registry *provider.ProviderRegistry) *ConfigHandler {
	if registry == nil {
		registry = provider.DefaultRegistry
	}
	return &ConfigHandler{
		providerConfig: providerConfig,
		gateways:       gateways,
		registry:       registry,
	}
}

// GetFields lists the configuration fields of a provider for the environment query parameter
func (h *ConfigHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	environment := r.URL.Query().Get("environment")
	if environment == "" {
		environment = "sandbox"
	}

	fields, err := h.registry.ConfigFields(providerName, environment)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Provider not found", err)
		return
	}

	response.Success(w, http.StatusOK, "Configuration fields retrieved", map[string]any{
		"provider":    providerName,
		"environment": environment,
		"fields":      fields,
	})
}

// SetConfig validates and stores the configuration of a provider
func (h *ConfigHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	var conf map[string]string
	if err := json.NewDecoder(r.Body).Decode(&conf); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if len(conf) == 0 {
		response.Error(w, http.StatusBadRequest, "Configuration cannot be empty", nil)
		return
	}
	if conf["environment"] == "" {
		conf["environment"] = "sandbox"
	}

	if err := h.registry.ValidateConfig(providerName, conf); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, provider.ErrUnknownProvider) {
			status = http.StatusNotFound
		}
		response.Error(w, status, "Invalid configuration", err)
		return
	}

	if err := h.providerConfig.SetConfig(providerName, conf); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}
	h.gateways.Invalidate(providerName)

	response.Success(w, http.StatusOK, "Configuration saved", map[string]any{
		"provider": providerName,
		"config":   maskConfig(conf),
	})
}

// GetConfig returns the stored configuration of a provider with secrets masked
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	conf, err := h.providerConfig.GetConfig(providerName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Configuration not found", err)
		return
	}

	response.Success(w, http.StatusOK, "Configuration retrieved", map[string]any{
		"provider": providerName,
		"config":   maskConfig(conf),
	})
}

// DeleteConfig removes the configuration of a provider
func (h *ConfigHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	if _, err := h.providerConfig.GetConfig(providerName); err != nil {
		response.Error(w, http.StatusNotFound, "Configuration not found", err)
		return
	}

	if err := h.providerConfig.DeleteConfig(providerName); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to delete configuration", err)
		return
	}
	h.gateways.Invalidate(providerName)

	response.Success(w, http.StatusOK, "Configuration deleted", map[string]any{
		"provider": providerName,
	})
}

func maskConfig(conf map[string]string) map[string]string {
	public := make(map[string]string, len(conf))
	for key, value := range conf {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "key") && !strings.Contains(lower, "password") && !strings.Contains(lower, "secret") {
			public[key] = value
			continue
		}
		if len(value) > 8 {
			public[key] = value[:4] + "****" + value[len(value)-4:]
		} else {
			public[key] = "****"
		}
	}
	return public
}
