// Package schema validates remote API payloads against embedded JSON schemas.
// file: internal/schema/validator.go
//
// The validator follows a load, parse, compile, validate sequence:
// the embedded ClickUp schema (or an override supplied with WithSchemaSource)
// is parsed once, every definition under "$defs" is compiled, and payloads are
// then checked by definition name before they are decoded into typed values.
package schema

import (
	"bytes"
	"context"
	_ "embed" // Required for go:embed.
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed clickup.schema.json
var embeddedSchemaContent []byte

const resourceID = "taskdash://clickup.schema.json"

// Definition names in the embedded schema.
const (
	Task                 = "task"
	TaskList             = "task_list"
	Comments             = "comments"
	CommentCreated       = "comment_created"
	TimeEntries          = "time_entries"
	TimeEntryCreated     = "time_entry_created"
	Members              = "members"
	UserResponse         = "user_response"
	List                 = "list"
	ChecklistCreated     = "checklist_created"
	ChecklistItemCreated = "checklist_item_created"
	ErrorBody            = "error_body"
)

// ValidatorInterface is what the remote client needs from a validator.
type ValidatorInterface interface {
	Validate(ctx context.Context, name string, data []byte) error
	HasSchema(name string) bool
}

// Validator compiles schema definitions and validates payloads against them.
type Validator struct {
	source     []byte
	sourceName string

	compiler            *jsonschema.Compiler
	schemas             map[string]*jsonschema.Schema
	mu                  sync.RWMutex
	initialized         bool
	logger              logging.Logger
	lastCompileDuration time.Duration
}

var _ ValidatorInterface = (*Validator)(nil)

// Option configures a Validator.
type Option func(*Validator)

// WithSchemaSource replaces the embedded schema document.
func WithSchemaSource(data []byte, name string) Option {
	return func(v *Validator) {
		v.source = data
		v.sourceName = name
	}
}

// NewValidator creates a validator over the embedded schema. Call Initialize before use.
func NewValidator(logger logging.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	v := &Validator{
		source:     embeddedSchemaContent,
		sourceName: "embedded",
		schemas:    make(map[string]*jsonschema.Schema),
		logger:     logger.WithField("component", "schema_validator"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MustNewValidator returns an initialized validator over the embedded schema and
// panics if it does not compile.
func MustNewValidator(logger logging.Logger) *Validator {
	v := NewValidator(logger)
	if err := v.Initialize(context.Background()); err != nil {
		panic(fmt.Sprintf("embedded schema does not compile: %v", err))
	}
	return v
}

// Initialize parses and compiles every schema definition. Calling it again is a no-op.
func (v *Validator) Initialize(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.initialized {
		return nil
	}
	if len(v.source) == 0 {
		return NewValidationError(ErrSchemaLoadFailed, "Schema source is empty", nil).
			WithContext("source", v.sourceName)
	}

	var doc map[string]any
	if err := json.Unmarshal(v.source, &doc); err != nil {
		v.logger.Error("Failed to parse schema JSON.", "source", v.sourceName, "error", err)
		return NewValidationError(ErrSchemaLoadFailed, "Failed to parse schema JSON", errors.Wrap(err, "json.Unmarshal failed")).
			WithContext("source", v.sourceName)
	}

	v.compiler = jsonschema.NewCompiler()
	v.compiler.Draft = jsonschema.Draft2020
	if err := v.compiler.AddResource(resourceID, bytes.NewReader(v.source)); err != nil {
		return NewValidationError(ErrSchemaLoadFailed, "Failed to add schema resource", errors.Wrap(err, "compiler.AddResource failed")).
			WithContext("schemaSize", len(v.source))
	}

	start := time.Now()
	defs, _ := doc["$defs"].(map[string]any)
	if len(defs) == 0 {
		return NewValidationError(ErrSchemaLoadFailed, "Schema has no $defs section", nil).
			WithContext("source", v.sourceName)
	}
	compiled := make(map[string]*jsonschema.Schema, len(defs))
	for name := range defs {
		pointer := resourceID + "#/$defs/" + name
		s, err := v.compiler.Compile(pointer)
		if err != nil {
			v.logger.Error("Failed to compile schema definition.", "name", name, "error", err)
			return NewValidationError(ErrSchemaCompileFailed,
				fmt.Sprintf("Failed to compile schema definition '%s'", name),
				errors.Wrap(err, "compiler.Compile failed")).WithContext("pointer", pointer)
		}
		compiled[name] = s
	}
	v.lastCompileDuration = time.Since(start)
	v.schemas = compiled
	v.initialized = true

	v.logger.Debug("Schema validator initialized.",
		"source", v.sourceName,
		"compileDuration", v.lastCompileDuration,
		"schemasCompiled", len(compiled))
	return nil
}

// IsInitialized returns whether Initialize has succeeded.
func (v *Validator) IsInitialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// HasSchema checks if a definition with the given name was compiled.
func (v *Validator) HasSchema(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.schemas[name]
	return ok
}

// SchemaNames lists the compiled definitions in sorted order.
func (v *Validator) SchemaNames() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.schemas))
	for k := range v.schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GetCompileDuration returns how long the last compile took.
func (v *Validator) GetCompileDuration() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastCompileDuration
}

// Validate checks data against the named definition.
func (v *Validator) Validate(_ context.Context, name string, data []byte) error {
	v.mu.RLock()
	initialized := v.initialized
	s, ok := v.schemas[name]
	v.mu.RUnlock()

	if !initialized {
		return NewValidationError(ErrSchemaNotFound, "Schema validator not initialized", nil)
	}
	if !ok {
		return NewValidationError(ErrSchemaNotFound,
			fmt.Sprintf("Schema definition not found for '%s'", name), nil).
			WithContext("availableSchemas", v.SchemaNames())
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return NewValidationError(ErrInvalidJSONFormat, "Invalid JSON format", errors.Wrap(err, "json.Unmarshal failed")).
			WithContext("schema", name).
			WithContext("dataPreview", calculatePreview(data))
	}

	if err := s.Validate(instance); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			v.logger.Debug("Schema validation failed.", "schema", name, "error", valErr.Message)
			return convertValidationError(valErr, name, data)
		}
		return NewValidationError(ErrValidationFailed, "Schema validation failed with unexpected error",
			errors.Wrap(err, "schema.Validate failed")).WithContext("schema", name)
	}
	return nil
}
