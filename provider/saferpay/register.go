package saferpay

import (
	"github.com/horo42/saferpay/provider"
)

// NewGateway builds a client from a provider configuration map. A nil transport or a
// provider.TransportWrapper gets an HTTP client honouring the config's timeout.
func NewGateway(conf map[string]string, transport provider.Transport, log provider.Logger) (provider.Gateway, error) {
	cfg, err := ConfigFromMap(conf)
	if err != nil {
		return nil, err
	}

	switch t := transport.(type) {
	case nil:
		transport = newHTTPClient(cfg)
	case provider.TransportWrapper:
		transport = t.Wrap(newHTTPClient(cfg))
	}

	return New(Options{Transport: transport, Logger: log, Config: cfg})
}

func newHTTPClient(cfg Config) *provider.ProviderHTTPClient {
	return provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(cfg.BaseURL, cfg.IsProduction(), cfg.Timeout))
}

// Register Saferpay and its collections with the gateway registry
func init() {
	provider.Register("saferpay", NewGateway)
	provider.RegisterConfigFields("saferpay", GetRequiredConfig)

	for _, schema := range []*provider.Schema{
		PayInitParameterSchema,
		PayConfirmParameterSchema,
		PayCompleteParameterSchema,
		PayCompleteResponseSchema,
		BillpayPayInitParameterSchema,
		BillpayPayCompleteParameterSchema,
	} {
		provider.RegisterSchema(schema)
	}
}
