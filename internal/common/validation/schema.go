// Package validation checks job payloads against JSON Schema documents.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors as "field: message" pairs.
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateDocument validates a Go value (marshalled as JSON) against schema.
// An empty schema accepts everything.
func ValidateDocument(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewGoLoader(doc))
}

// ValidateJSON validates raw JSON text, such as job variables, against schema.
func ValidateJSON(schema map[string]interface{}, doc string) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewStringLoader(doc))
}

// CompileSchema reports whether schema is itself a valid JSON Schema.
func CompileSchema(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

func validate(schema map[string]interface{}, docLoader gojsonschema.JSONLoader) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), docLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		// Required errors are reported against the parent object.
		if prop, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = prop
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}
