package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed processing_rules.schema.json
var ruleSchema string

// ValidationError reports why a stage's rule configuration was rejected.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single validation failure at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("rule config validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ParseConfig parses and validates a stage's rule configuration JSON.
// The document is checked against the embedded JSON Schema before
// unmarshaling so malformed configs are rejected with field-level detail.
func ParseConfig(raw []byte) ([]Rule, error) {
	schemaLoader := gojsonschema.NewStringLoader(ruleSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate rule config: %w", err)
	}

	if !result.Valid() {
		validationErr := &ValidationError{
			Errors: make([]FieldError, 0, len(result.Errors())),
		}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			validationErr.Errors = append(validationErr.Errors, FieldError{
				Field:   field,
				Message: desc.Description(),
			})
		}
		return nil, validationErr
	}

	var ruleList []Rule
	if err := json.Unmarshal(raw, &ruleList); err != nil {
		return nil, fmt.Errorf("failed to parse rule config: %w", err)
	}
	return ruleList, nil
}
