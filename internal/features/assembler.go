package features

import (
	apperrors "house-price-api/internal/common/errors"
)

// Record is the unordered field map decoded from a request body.
type Record map[string]interface{}

// MissingPolicy decides what happens when a schema field is absent.
type MissingPolicy int

const (
	// DefaultZero substitutes 0.0 for an absent field.
	DefaultZero MissingPolicy = iota
	// Strict rejects the record with MISSING_FEATURE.
	Strict
)

// ParseMissingPolicy maps the config string onto a policy.
func ParseMissingPolicy(s string) MissingPolicy {
	if s == "strict" {
		return Strict
	}
	return DefaultZero
}

func (p MissingPolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "default_zero"
}

// Assembler projects records through a fixed schema.
type Assembler struct {
	schema Schema
	policy MissingPolicy
}

func NewAssembler(schema Schema, policy MissingPolicy) *Assembler {
	return &Assembler{schema: schema, policy: policy}
}

// Schema returns the schema the assembler projects through.
func (a *Assembler) Schema() Schema {
	return a.schema
}

// Policy returns the configured missing-field policy.
func (a *Assembler) Policy() MissingPolicy {
	return a.policy
}

// Assemble returns one value per schema field, in schema order. Keys not in
// the schema are ignored. The result always has length a.Schema().Len().
func (a *Assembler) Assemble(record Record) ([]float64, error) {
	vec := make([]float64, a.schema.Len())
	for i, name := range a.schema.Names {
		raw, ok := record[name]
		if !ok {
			if a.policy == Strict {
				return nil, apperrors.NewMissingFeatureError(name)
			}
			continue
		}
		f, err := Coerce(raw)
		if err != nil {
			return nil, apperrors.NewInvalidFeatureValueError(name, err)
		}
		vec[i] = f
	}
	return vec, nil
}

// Missing lists schema fields absent from record, in schema order.
func (a *Assembler) Missing(record Record) []string {
	var out []string
	for _, name := range a.schema.Names {
		if _, ok := record[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
