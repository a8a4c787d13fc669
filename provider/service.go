package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/horo42/saferpay/infra/logger"
)

// ConfigSource supplies provider configuration maps. *config.ProviderConfig implements it.
type ConfigSource interface {
	GetConfig(providerName string) (map[string]string, error)
}

// PaymentService resolves configured gateway clients by provider name and runs operations on them
type PaymentService struct {
	registry  *ProviderRegistry
	configs   ConfigSource
	transport Transport
	log       Logger
	gateways  *LRUCache[Gateway]
}

// NewPaymentService creates a payment service. A nil registry means DefaultRegistry.
func NewPaymentService(registry *ProviderRegistry, configs ConfigSource, transport Transport, log Logger) *PaymentService {
	if registry == nil {
		registry = DefaultRegistry
	}
	if log == nil {
		log = NopLogger{}
	}

	return &PaymentService{
		registry:  registry,
		configs:   configs,
		transport: transport,
		log:       log,
		gateways:  NewLRUCache[Gateway](32, time.Hour),
	}
}

// Gateway returns the configured client for providerName, building it on first use.
// Unregistered providers fail with ErrUnknownProvider before any config lookup.
func (s *PaymentService) Gateway(providerName string) (Gateway, error) {
	if _, err := s.registry.Get(providerName); err != nil {
		return nil, err
	}

	conf, err := s.configs.GetConfig(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	key := GatewayCacheKey(providerName, conf["environment"])
	if gw, ok := s.gateways.Get(key); ok {
		return gw, nil
	}

	gw, err := s.registry.CreateGateway(providerName, conf, s.transport, s.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", providerName, err)
	}

	s.gateways.Set(key, gw)
	s.log.Log(logger.LevelInfo, "gateway client created", logger.LogContext{
		Provider: providerName,
		Fields:   map[string]any{"environment": conf["environment"]},
	})

	return gw, nil
}

// Invalidate drops cached clients of providerName, e.g. after a config change
func (s *PaymentService) Invalidate(providerName string) {
	s.gateways.DeleteByPrefix(GatewayCacheKey(providerName, ""))
}

// CacheStats reports the gateway client cache
func (s *PaymentService) CacheStats() CacheStats {
	return s.gateways.Stats()
}

// NewCollection creates an empty collection of a registered schema
func (s *PaymentService) NewCollection(name string) (*Collection, error) {
	return s.registry.NewCollection(name)
}

// CreatePayInit initializes a payment on providerName
func (s *PaymentService) CreatePayInit(ctx context.Context, providerName string, params *Collection) (string, error) {
	gw, err := s.Gateway(providerName)
	if err != nil {
		return "", err
	}
	return gw.CreatePayInit(ctx, params)
}

// VerifyPayConfirm verifies a confirm message on providerName
func (s *PaymentService) VerifyPayConfirm(ctx context.Context, providerName, xmlBody, signature string, out *Collection) (*Collection, error) {
	gw, err := s.Gateway(providerName)
	if err != nil {
		return nil, err
	}
	return gw.VerifyPayConfirm(ctx, xmlBody, signature, out)
}

// PayComplete completes a confirmed transaction on providerName
func (s *PaymentService) PayComplete(ctx context.Context, providerName string, confirmed *Collection, action, spPassword string, completeParams, responseOut *Collection) (*Collection, error) {
	gw, err := s.Gateway(providerName)
	if err != nil {
		return nil, err
	}
	return gw.PayCompleteV2(ctx, confirmed, action, spPassword, completeParams, responseOut)
}
