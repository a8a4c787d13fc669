package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransportNotConfigured is returned when a gateway client is built without a transport
	ErrTransportNotConfigured = errors.New("saferpay: no http transport configured")

	// ErrPrecondition is returned when complete is called before confirm produced an ID
	ErrPrecondition = errors.New("saferpay: call confirm before complete")

	// ErrNoPasswordGiven is returned for non-settlement actions on live accounts without spPassword
	ErrNoPasswordGiven = errors.New("saferpay: no spPassword given")

	// ErrSchemaViolation is returned when a collection is given a field it does not declare
	ErrSchemaViolation = errors.New("saferpay: schema violation")

	// ErrInvalidCondition is returned for malformed field conditions such as "an[..]"
	ErrInvalidCondition = errors.New("saferpay: invalid condition")

	// ErrUnknownProvider is returned for provider or collection names nothing registered
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrNotConfigured is returned when a registered provider has no configuration
	ErrNotConfigured = errors.New("payment provider not configured")
)

// TransportError reports a failed round trip: a transport failure or a non-200 status
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saferpay: request failed: %v", e.Err)
	}
	return fmt.Sprintf("saferpay: request failed with statuscode: %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GatewayError is returned when the gateway answers 200 with an ERROR marker in the body
type GatewayError struct {
	Body string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("saferpay: request failed: %s", e.Body)
}

// MalformedResponseError is returned when a confirm or complete payload is not valid XML
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saferpay: invalid xml received from saferpay: %v", e.Err)
	}
	return "saferpay: invalid xml received from saferpay"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// FieldError describes a single field that failed its condition
type FieldError struct {
	Field     string
	Condition string
	Value     string
}

// ValidationError lists every field of a collection that failed validation
type ValidationError struct {
	Collection string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s must match %s", f.Field, f.Condition))
	}
	return fmt.Sprintf("saferpay: %s: invalid fields: %s", e.Collection, strings.Join(parts, "; "))
}
