package provider

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/horo42/saferpay/infra/config"
)

// ConditionTag is the struct tag that checks a field against a gateway condition,
// e.g. `validate:"required,saferpay=an[..50]"`
const ConditionTag = "saferpay"

func init() {
	if err := RegisterValidation(config.App().Validator); err != nil {
		panic(err)
	}
}

// RegisterValidation installs the condition tag on v
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation(ConditionTag, validateCondition)
}

func validateCondition(fl validator.FieldLevel) bool {
	p, err := CompileCondition(fl.Param())
	if err != nil {
		return false
	}

	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		return p.MatchString(field.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return p.MatchString(strconv.FormatInt(field.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return p.MatchString(strconv.FormatUint(field.Uint(), 10))
	default:
		return false
	}
}

// ValidateConfigFields validates configuration against provided field definitions
func ValidateConfigFields(providerName string, config map[string]string, requiredFields []ConfigField) error {
	for _, field := range requiredFields {
		value, exists := config[field.Key]
		if !field.Required && (!exists || value == "") {
			continue
		}

		if !exists {
			return fmt.Errorf("%s: required field '%s' is missing", providerName, field.Key)
		}

		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: required field '%s' cannot be empty", providerName, field.Key)
		}

		if err := validateFieldType(providerName, field, value); err != nil {
			return err
		}

		if err := validateFieldPattern(providerName, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(providerName, field, value); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldType validates field based on its type
func validateFieldType(providerName string, field ConfigField, value string) error {
	switch field.Type {
	case "number":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s: field '%s' must be a number", providerName, field.Key)
		}
	case "url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("%s: field '%s' must be an http(s) url", providerName, field.Key)
		}
	case "boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("%s: field '%s' must be 'true' or 'false'", providerName, field.Key)
		}
	}
	return nil
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(providerName string, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}

	if field.Key == "environment" {
		validEnvs := []string{"sandbox", "test", "production"}
		for _, env := range validEnvs {
			if value == env {
				return nil
			}
		}
		return fmt.Errorf("%s: environment must be one of: %s", providerName, strings.Join(validEnvs, ", "))
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return fmt.Errorf("%s: invalid pattern for field '%s': %v", providerName, field.Key, err)
	}

	if !matched {
		return fmt.Errorf("%s: field '%s' does not match required pattern", providerName, field.Key)
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(providerName string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("%s: field '%s' must be at least %d characters", providerName, field.Key, field.MinLength)
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("%s: field '%s' must not exceed %d characters", providerName, field.Key, field.MaxLength)
	}

	return nil
}
