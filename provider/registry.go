package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderRegistry manages gateway factories and the collection schemas they use
type ProviderRegistry struct {
	providers    map[string]GatewayFactory
	schemas      map[string]*Schema
	configFields map[string]ConfigFieldsFunc
	mu           sync.RWMutex
}

// ConfigFieldsFunc lists the configuration fields a provider understands in an environment
type ConfigFieldsFunc func(environment string) []ConfigField

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers:    make(map[string]GatewayFactory),
		schemas:      make(map[string]*Schema),
		configFields: make(map[string]ConfigFieldsFunc),
	}
}

// Register adds a gateway factory to the registry
func (r *ProviderRegistry) Register(name string, factory GatewayFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(name)] = factory
}

// Get retrieves a gateway factory by name
func (r *ProviderRegistry) Get(name string) (GatewayFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.providers[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("%w: payment provider '%s' is not registered", ErrUnknownProvider, name)
	}

	return factory, nil
}

// CreateGateway builds a gateway client for a registered provider
func (r *ProviderRegistry) CreateGateway(name string, conf map[string]string, transport Transport, log Logger) (Gateway, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(conf, transport, log)
}

// GetProviderNames returns a sorted list of all registered provider names
func (r *ProviderRegistry) GetProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// RegisterConfigFields attaches the configuration field list of a provider
func (r *ProviderRegistry) RegisterConfigFields(name string, fields ConfigFieldsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configFields[strings.ToLower(name)] = fields
}

// ConfigFields returns the configuration fields of a registered provider
func (r *ProviderRegistry) ConfigFields(name, environment string) ([]ConfigField, error) {
	r.mu.RLock()
	fields, exists := r.configFields[strings.ToLower(name)]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: payment provider '%s' has no configuration fields", ErrUnknownProvider, name)
	}
	return fields(environment), nil
}

// ValidateConfig checks conf against the configuration fields of a registered provider
func (r *ProviderRegistry) ValidateConfig(name string, conf map[string]string) error {
	fields, err := r.ConfigFields(name, conf["environment"])
	if err != nil {
		return err
	}
	return ValidateConfigFields(strings.ToLower(name), conf, fields)
}

// RegisterSchema makes a collection schema available by its name
func (r *ProviderRegistry) RegisterSchema(schema *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.Name()] = schema
}

// Schema retrieves a registered schema by name
func (r *ProviderRegistry) Schema(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	if !exists {
		return nil, fmt.Errorf("%w: collection '%s' is not registered", ErrUnknownProvider, name)
	}

	return schema, nil
}

// NewCollection creates an empty collection of a registered schema
func (r *ProviderRegistry) NewCollection(name string) (*Collection, error) {
	schema, err := r.Schema(name)
	if err != nil {
		return nil, err
	}
	return NewCollection(schema), nil
}

// DefaultRegistry is the global default provider registry
var DefaultRegistry = NewProviderRegistry()

// Register registers a gateway factory with the default registry
func Register(name string, factory GatewayFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get retrieves a gateway factory from the default registry
func Get(name string) (GatewayFactory, error) {
	return DefaultRegistry.Get(name)
}

// CreateGateway builds a gateway client from the default registry
func CreateGateway(name string, conf map[string]string, transport Transport, log Logger) (Gateway, error) {
	return DefaultRegistry.CreateGateway(name, conf, transport, log)
}

// RegisterConfigFields attaches configuration fields in the default registry
func RegisterConfigFields(name string, fields ConfigFieldsFunc) {
	DefaultRegistry.RegisterConfigFields(name, fields)
}

// RegisterSchema registers a schema with the default registry
func RegisterSchema(schema *Schema) {
	DefaultRegistry.RegisterSchema(schema)
}

// NewCollectionByName creates a collection of a schema registered with the default registry
func NewCollectionByName(name string) (*Collection, error) {
	return DefaultRegistry.NewCollection(name)
}
