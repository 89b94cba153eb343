// Package schema validates JSON documents from external collaborators against
// embedded JSON Schemas before they are decoded into Go types.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator holds a compiled schema. The zero value is not usable; build one
// with MustCompile or Compile.
type Validator struct {
	id       string
	compiled *jsonschema.Schema
}

// Compile parses and compiles a schema document.
func Compile(id string, schema []byte) (*Validator, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("schema %s is empty", id)
	}
	resourceID := schemaID(id)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{id: id, compiled: compiled}, nil
}

// Lazy compiles the schema on first use and panics if the embedded document
// is malformed, which is a programming error.
func Lazy(id string, schema []byte) func() *Validator {
	return sync.OnceValue(func() *Validator {
		v, err := Compile(id, schema)
		if err != nil {
			panic(err)
		}
		return v
	})
}

// ValidateBytes decodes raw JSON and validates it.
func (v *Validator) ValidateBytes(data []byte) error {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return v.Validate(payload)
}

// Validate checks an already-decoded value (maps, slices, and scalars as
// produced by encoding/json).
func (v *Validator) Validate(value any) error {
	if err := v.compiled.Validate(value); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", v.id, err)
	}
	return nil
}

func schemaID(id string) string {
	if id == "" {
		id = "schema"
	}
	return "inmemory://" + id
}
