package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "house-price-api/internal/common/errors"
)

// FieldTypes are the JSON types a feature value may arrive as. Coercion to
// float64 happens later; anything else (object, array, null) is rejected here.
var FieldTypes = []string{"number", "string", "boolean"}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RecordValidator checks a decoded Feature Record against a JSON schema built
// from the ordered feature names. Unknown fields are allowed.
type RecordValidator struct {
	schema   *gojsonschema.Schema
	document map[string]interface{}
}

// NewRecordValidator compiles the schema once. When requireAll is set every
// field is listed under "required".
func NewRecordValidator(fields []string, requireAll bool) (*RecordValidator, error) {
	doc := BuildSchema(fields, requireAll)
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile feature schema: %w", err)
	}
	return &RecordValidator{schema: schema, document: doc}, nil
}

// BuildSchema returns the JSON schema document for a Feature Record.
func BuildSchema(fields []string, requireAll bool) map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		props[f] = map[string]interface{}{"type": FieldTypes}
	}
	doc := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if requireAll && len(fields) > 0 {
		req := make([]interface{}, len(fields))
		for i, f := range fields {
			req[i] = f
		}
		doc["required"] = req
	}
	return doc
}

// Schema returns the schema document the validator was compiled from.
func (v *RecordValidator) Schema() map[string]interface{} {
	return v.document
}

// Validate runs the schema and collects every failure.
func (v *RecordValidator) Validate(record map[string]interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

// Check is Validate folded into a single error suitable for the HTTP layer.
func (v *RecordValidator) Check(record map[string]interface{}) error {
	res, err := v.Validate(record)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if res.Valid {
		return nil
	}
	return apperrors.NewSchemaValidationError(res.GetErrorMessages())
}

// required errors are reported against the parent; the missing name lives in
// the details.
func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	return desc.Field()
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
