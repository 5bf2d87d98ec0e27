package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields under their YAML names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

const capabilitiesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["browserName"],
    "properties": {
      "browserName": {"type": "string", "minLength": 1}
    }
  }
}`

var capabilities = jsonschema.MustCompileString("capabilities.schema.json", capabilitiesSchema)

// ParseCapabilities decodes a JSON array of remote capability descriptors.
func ParseCapabilities(raw string) ([]map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if err := validateCapabilities([]byte(raw)); err != nil {
		return nil, err
	}

	var caps []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &caps); err != nil {
		return nil, fmt.Errorf("invalid capabilities: %w", err)
	}
	return caps, nil
}

func validateCapabilities(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid capabilities JSON: %w", err)
	}

	err := capabilities.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("invalid capabilities: %w", err)
	}

	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	return errs
}

func collectSchemaErrors(err *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(err.Causes) == 0 {
		errs.Add("capabilities"+err.InstanceLocation, err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// Validate checks the configuration.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), describe(fe))
		}
	}

	if c.ScriptTimeout <= 0 {
		errs.Add("scriptTimeout", "must be positive")
	}

	if len(c.Capabilities) > 0 {
		if c.Server == "" {
			errs.Add("capabilities", "capabilities require a server")
		}
		data, err := json.Marshal(c.Capabilities)
		if err != nil {
			errs.Add("capabilities", err.Error())
		} else if err := validateCapabilities(data); err != nil {
			var schemaErrs *ValidationErrors
			if errors.As(err, &schemaErrs) {
				errs.Errors = append(errs.Errors, schemaErrs.Errors...)
			} else {
				errs.Add("capabilities", err.Error())
			}
		}
	}

	if c.Custom != "" && len(c.BuildCommand) == 0 {
		errs.Add("buildCommand", "a build command is required to build a custom location")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("must be a valid URL, got %q", fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// HasTargets reports whether any browser or capability is configured.
func (c *Config) HasTargets() bool {
	return len(c.Browsers) > 0 || len(c.Capabilities) > 0
}
