package provider

import (
	"fmt"
	"maps"
	"strconv"
)

// Field declares one gateway field and its optional condition
type Field struct {
	Name      string
	Condition string
	pattern   *Pattern
}

// Pattern returns the compiled condition, nil when the field is unconstrained
func (f Field) Pattern() *Pattern { return f.pattern }

// Schema is the fixed field set and endpoint of one collection type
type Schema struct {
	name     string
	endpoint string
	fields   []Field
	index    map[string]int
}

// NewSchema builds a schema, compiling every field condition
func NewSchema(name, endpoint string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:     name,
		endpoint: endpoint,
		fields:   make([]Field, 0, len(fields)),
		index:    make(map[string]int, len(fields)),
	}
	if err := s.add(fields); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewSchema is like NewSchema but panics on error. Use it for package-level schema tables.
func MustNewSchema(name, endpoint string, fields ...Field) *Schema {
	s, err := NewSchema(name, endpoint, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extend returns a new schema with the receiver's fields followed by fields.
// An empty endpoint keeps the receiver's endpoint.
func (s *Schema) Extend(name, endpoint string, fields ...Field) (*Schema, error) {
	if endpoint == "" {
		endpoint = s.endpoint
	}

	ext := &Schema{
		name:     name,
		endpoint: endpoint,
		fields:   make([]Field, len(s.fields), len(s.fields)+len(fields)),
		index:    maps.Clone(s.index),
	}
	copy(ext.fields, s.fields)

	if err := ext.add(fields); err != nil {
		return nil, err
	}
	return ext, nil
}

// MustExtend is like Extend but panics on error
func (s *Schema) MustExtend(name, endpoint string, fields ...Field) *Schema {
	ext, err := s.Extend(name, endpoint, fields...)
	if err != nil {
		panic(err)
	}
	return ext
}

func (s *Schema) add(fields []Field) error {
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s: empty field name", ErrSchemaViolation, s.name)
		}
		if _, dup := s.index[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %s", ErrSchemaViolation, s.name, f.Name)
		}
		if f.Condition != "" {
			p, err := CompileCondition(f.Condition)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", s.name, f.Name, err)
			}
			f.pattern = p
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return nil
}

// Name returns the registry name of the schema
func (s *Schema) Name() string { return s.name }

// Endpoint returns the gateway URL the collection is sent to
func (s *Schema) Endpoint() string { return s.endpoint }

// FieldNames returns the declared field names in declaration order
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a declared field
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is declared
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Collection holds the values of one request or response, restricted to its schema.
// A collection is meant for a single round trip and is not safe for concurrent use.
type Collection struct {
	schema *Schema
	values map[string]any
}

// NewCollection creates an empty collection for schema
func NewCollection(schema *Schema) *Collection {
	return &Collection{
		schema: schema,
		values: make(map[string]any, len(schema.fields)),
	}
}

// Schema returns the collection's schema
func (c *Collection) Schema() *Schema { return c.schema }

// Name returns the schema name
func (c *Collection) Name() string { return c.schema.name }

// Endpoint returns the gateway URL this collection targets
func (c *Collection) Endpoint() string { return c.schema.endpoint }

// FieldNames returns the declared field names
func (c *Collection) FieldNames() []string { return c.schema.FieldNames() }

// Set stores value under name. Only declared names and string or integer values are accepted.
func (c *Collection) Set(name string, value any) error {
	if !c.schema.Has(name) {
		return fmt.Errorf("%w: %s does not declare field %q", ErrSchemaViolation, c.schema.name, name)
	}
	if !isScalar(value) {
		return fmt.Errorf("%w: %s.%s: unsupported value type %T", ErrSchemaViolation, c.schema.name, name, value)
	}

	c.values[name] = value
	return nil
}

// Merge sets every entry of values, stopping at the first rejected one
func (c *Collection) Merge(values map[string]any) error {
	for name, value := range values {
		if err := c.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored value, ok is false when the field was never set
func (c *Collection) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// GetString returns the stored value formatted as a string, "" when unset
func (c *Collection) GetString(name string) string {
	v, ok := c.values[name]
	if !ok {
		return ""
	}
	return formatScalar(v)
}

// Data returns a copy of all set fields
func (c *Collection) Data() map[string]any {
	return maps.Clone(c.values)
}

// StringData returns all set fields formatted as strings
func (c *Collection) StringData() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = formatScalar(v)
	}
	return out
}

// Validate checks every set field against its condition
func (c *Collection) Validate() error {
	var invalid []FieldError

	for _, f := range c.schema.fields {
		if f.pattern == nil {
			continue
		}
		v, ok := c.values[f.Name]
		if !ok {
			continue
		}
		s := formatScalar(v)
		if !f.pattern.MatchString(s) {
			invalid = append(invalid, FieldError{Field: f.Name, Condition: f.Condition, Value: s})
		}
	}

	if len(invalid) > 0 {
		return &ValidationError{Collection: c.schema.name, Fields: invalid}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
