package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every section against its struct tags, then checks that
// the taxonomy builds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}

		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, formatFieldError(e))
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	if _, err := c.Taxonomy.Table(); err != nil {
		return fmt.Errorf("configuration validation failed:\n  - %w", err)
	}
	return nil
}

// formatFieldError formats a single validation error with its field path,
// e.g. "render.min_transitions must be at least 0 (got: -1)".
func formatFieldError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", field, e.Param(), e.Value())
	case "len":
		return fmt.Sprintf("%s must be exactly %s character(s) (got: %q)", field, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", field, e.Param(), e.Value())
	case "hexcolor":
		return fmt.Sprintf("%s must be a #RRGGBB colour (got: %v)", field, e.Value())
	case "hostname|ip":
		return fmt.Sprintf("%s must be a hostname or IP address (got: %v)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", field, e.Tag(), e.Value())
	}
}

// fieldPath drops the root struct name: "Config.render.width" -> "render.width".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
