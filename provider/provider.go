package provider

import (
	"context"
	"net/http"

	"github.com/horo42/saferpay/infra/logger"
)

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport performs the network call for a gateway client.
// Implementations must not return an error for non-2xx statuses; the caller inspects StatusCode.
type Transport interface {
	Send(ctx context.Context, method, url string, body []byte, headers map[string]string) (*HTTPResponse, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, method, url string, body []byte, headers map[string]string) (*HTTPResponse, error)

// Send calls f
func (f TransportFunc) Send(ctx context.Context, method, url string, body []byte, headers map[string]string) (*HTTPResponse, error) {
	return f(ctx, method, url, body, headers)
}

// TransportWrapper decorates another transport. Gateway factories that build their
// own HTTP client pass it to Wrap so the client keeps its per-provider settings.
type TransportWrapper interface {
	Transport
	Wrap(next Transport) Transport
}

// Logger is the diagnostic sink of a gateway client. *logger.SystemLogger satisfies it.
type Logger interface {
	Log(level logger.LogLevel, message string, ctx ...logger.LogContext)
}

// NopLogger discards everything
type NopLogger struct{}

// Log does nothing
func (NopLogger) Log(logger.LogLevel, string, ...logger.LogContext) {}

// ConfigField represents a required configuration field for a payment provider
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url", "email", "boolean"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`   // regex pattern for validation
	MinLength   int    `json:"minLength,omitempty"` // minimum length for string fields
	MaxLength   int    `json:"maxLength,omitempty"` // maximum length for string fields
}

// Gateway defines the operations a payment gateway client offers
type Gateway interface {
	// CreatePayInit initializes a payment page and returns the raw gateway answer
	CreatePayInit(ctx context.Context, params *Collection) (string, error)

	// VerifyPayConfirm reads the confirm message into out and registers it with the gateway
	VerifyPayConfirm(ctx context.Context, xmlBody, signature string, out *Collection) (*Collection, error)

	// PayCompleteV2 settles, cancels or closes a confirmed transaction
	PayCompleteV2(ctx context.Context, confirmed *Collection, action, spPassword string, completeParams, responseOut *Collection) (*Collection, error)
}

// GatewayFactory builds a gateway client from a provider configuration map
type GatewayFactory func(conf map[string]string, transport Transport, log Logger) (Gateway, error)
