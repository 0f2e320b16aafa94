// Package schema validates upstream compile outcomes before they reach clients.
//
// The upstream compiler is trusted for transport only; its JSON is checked
// against the Success/Failure contract and anything else is rejected.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrInvalid is returned when a payload does not match the outcome schema.
var ErrInvalid = errors.New("invalid compile outcome")

// Validator checks JSON payloads against the outcome schema.
// It is safe for concurrent use.
type Validator struct {
	resolved *jsonschema.Resolved
}

// New resolves the outcome schema.
func New() (*Validator, error) {
	resolved, err := Outcome().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve outcome schema: %w", err)
	}
	return &Validator{resolved: resolved}, nil
}

// MustNew is like New but panics on error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate parses data and checks it against the schema.
// Both parse and schema failures wrap ErrInvalid.
func (v *Validator) Validate(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := v.resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Outcome returns the schema of a compile outcome: exactly one of the
// success and failure shapes.
func Outcome() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{successSchema(), failureSchema()},
	}
}

func successSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"success", "modules", "package_metadata_bcs", "compiler_stdout"},
		Properties: map[string]*jsonschema.Schema{
			"type":    {Type: "string"},
			"success": {Const: constant(true)},
			"modules": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"name", "bytecode_base64"},
					Properties: map[string]*jsonschema.Schema{
						"name":            {Type: "string"},
						"bytecode_base64": {Type: "string"},
					},
				},
			},
			"package_metadata_bcs": {Types: []string{"string", "null"}},
			"compiler_stdout":      {Type: "string"},
			"metadata": {
				Types: []string{"object", "null"},
				Properties: map[string]*jsonschema.Schema{
					"module_count": {Type: "integer", Minimum: ptr(0.0)},
					"has_metadata": {Type: "boolean"},
				},
			},
		},
	}
}

func failureSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"success", "error_count", "errors"},
		Properties: map[string]*jsonschema.Schema{
			"type":        {Type: "string"},
			"success":     {Const: constant(false)},
			"error_count": {Type: "integer", Minimum: ptr(0.0)},
			"errors": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"message"},
					Properties: map[string]*jsonschema.Schema{
						"message":     {Type: "string"},
						"file":        {Type: "string"},
						"line":        {Type: "integer"},
						"column":      {Type: "integer"},
						"source_line": {Type: "string"},
						"type":        {Type: "string"},
					},
				},
			},
		},
	}
}

func constant(v any) *any { return &v }

func ptr[T any](v T) *T { return &v }
