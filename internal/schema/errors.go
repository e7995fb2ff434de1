// file: internal/schema/errors.go
package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrorCode classifies payload validation failures.
type ErrorCode int

const (
	ErrSchemaNotFound ErrorCode = iota + 1000
	ErrSchemaLoadFailed
	ErrSchemaCompileFailed
	ErrValidationFailed
	ErrInvalidJSONFormat
)

var codeNames = map[ErrorCode]string{
	ErrSchemaNotFound:      "schema_not_found",
	ErrSchemaLoadFailed:    "schema_load_failed",
	ErrSchemaCompileFailed: "schema_compile_failed",
	ErrValidationFailed:    "payload_invalid",
	ErrInvalidJSONFormat:   "payload_not_json",
}

// String returns the short name used in logs.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// ValidationError reports a payload that does not match its definition, or a
// schema document that could not be prepared.
type ValidationError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// SchemaPath is the keyword location of the most specific failure.
	SchemaPath string
	// InstancePath is the JSON pointer into the payload, e.g. "/assignees/0".
	InstancePath string
	Context      map[string]interface{}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.InstancePath != "" {
		b.WriteString(" at ")
		b.WriteString(e.InstancePath)
	}
	if e.SchemaPath != "" {
		b.WriteString(" (rule ")
		b.WriteString(e.SchemaPath)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// WithContext records a key/value pair and returns e for chaining.
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError builds a ValidationError, attaching a stack to cause.
func NewValidationError(code ErrorCode, message string, cause error) *ValidationError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &ValidationError{Code: code, Message: message, Cause: cause}
}

// convertValidationError flattens a jsonschema failure into a ValidationError
// pointing at the deepest failing location.
func convertValidationError(valErr *jsonschema.ValidationError, definition string, data []byte) *ValidationError {
	out := &ValidationError{
		Code:    ErrValidationFailed,
		Message: definition + " payload does not match its schema",
	}
	out.WithContext("schema", definition).WithContext("dataPreview", calculatePreview(data))

	basic := valErr.BasicOutput()
	var failures []string
	for _, unit := range basic.Errors {
		if unit.Error == "" {
			continue
		}
		failures = append(failures, unit.InstanceLocation+": "+unit.Error)
		out.SchemaPath = unit.KeywordLocation
		out.InstancePath = unit.InstanceLocation
	}
	if out.InstancePath == "" {
		out.InstancePath = valErr.InstanceLocation
		out.SchemaPath = valErr.KeywordLocation
	}
	if len(failures) > 0 {
		out.WithContext("failures", failures)
	}
	return out
}
