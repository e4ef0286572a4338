// Package schema validates data against the embedded CUE contracts in
// schema.cue before it crosses a package boundary: a project config file
// before it is applied, and design facts before they reach the lint
// policies or are printed.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

// Definitions in schema.cue.
const (
	ConfigDef = "#Config"
	FactsDef  = "#Facts"
)

// Validator checks Go values against one compiled schema. It is safe for
// concurrent use; a cue.Context is not, so calls are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	src, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(src)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{ctx: ctx, schema: schema}, nil
}

// ValidateConfig checks a decoded config document.
func (v *Validator) ValidateConfig(data any) error {
	return v.validate(ConfigDef, data)
}

// ValidateFacts checks extracted design facts.
func (v *Validator) ValidateFacts(data any) error {
	return v.validate(FactsDef, data)
}

// unify marshals data to JSON, compiles it as CUE and unifies it with def.
func (v *Validator) unify(def string, data any) (cue.Value, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return cue.Value{}, fmt.Errorf("marshaling data to JSON: %w", err)
	}

	value := v.ctx.CompileBytes(raw)
	if value.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling data as CUE: %w", value.Err())
	}

	schema := v.schema.LookupPath(cue.ParsePath(def))
	if schema.Err() != nil {
		return cue.Value{}, fmt.Errorf("looking up %s definition: %w", def, schema.Err())
	}

	return schema.Unify(value), nil
}

func (v *Validator) validate(def string, data any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	unified, err := v.unify(def, data)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s validation failed: %w", def, err)
	}
	return nil
}

// Errors returns every validation error of data against def, one message
// per error, or nil if data is valid.
func (v *Validator) Errors(def string, data any) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	unified, err := v.unify(def, data)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}
