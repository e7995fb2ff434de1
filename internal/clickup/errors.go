// file: internal/clickup/errors.go
package clickup

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorCode categorizes client errors.
type ErrorCode int

// Error codes for the ClickUp client.
const (
	// --- Configuration Errors (1000-1999) ---.
	ErrConfigMissing ErrorCode = 1000 + iota
	ErrConfigInvalid
)

const (
	// --- Remote API Errors (2000-2999) ---.
	ErrRemoteRequest ErrorCode = 2000 + iota
	ErrRemoteStatus
	ErrRemoteDecode
	ErrRemoteInvalidResponse
	ErrRemoteFieldUpdate
)

// BaseError is the common base for client error types.
type BaseError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key-value pair to the error's context map.
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ConfigurationError reports missing or invalid client settings. It is returned
// before any network attempt.
type ConfigurationError struct {
	BaseError
	Missing []string
}

// NewConfigurationError lists the missing settings.
func NewConfigurationError(missing ...string) *ConfigurationError {
	return &ConfigurationError{
		BaseError: BaseError{
			Code:    ErrConfigMissing,
			Message: "ClickUp client is not configured: missing " + strings.Join(missing, ", "),
		},
		Missing: missing,
	}
}

// RemoteError is any failure talking to the remote API: transport, non-2xx status,
// or an unusable payload.
type RemoteError struct {
	BaseError
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Response is the raw response body, when one was read.
	Response []byte
	// ECode is the remote's machine-readable error code, if it sent one.
	ECode string
}

// Error implements the error interface. Only the message is shown; Cause is
// available through Unwrap.
func (e *RemoteError) Error() string {
	return e.Message
}

// NewRemoteError creates a RemoteError, capturing a stack on cause.
func NewRemoteError(code ErrorCode, message string, status int, cause error) *RemoteError {
	return &RemoteError{
		BaseError: BaseError{
			Code:    code,
			Message: message,
			Cause:   errors.WithStack(cause),
		},
		StatusCode: status,
	}
}

// FieldUpdateError explains a 404 from the custom field endpoint.
type FieldUpdateError struct {
	BaseError
	TaskID    string
	FieldID   string
	FieldName string
	FieldType string
	// FieldFound reports whether the task carries the field at all.
	FieldFound bool
}

// Error implements the error interface.
func (e *FieldUpdateError) Error() string {
	return e.Message
}

func newFieldNotFoundError(taskID, fieldID string, cause *RemoteError) *FieldUpdateError {
	return &FieldUpdateError{
		BaseError: BaseError{
			Code:    ErrRemoteFieldUpdate,
			Message: fmt.Sprintf("Custom field with ID %s not found on task %s", fieldID, taskID),
			Cause:   cause,
		},
		TaskID:  taskID,
		FieldID: fieldID,
	}
}

func newFieldNotEditableError(taskID string, field CustomField, cause *RemoteError) *FieldUpdateError {
	return &FieldUpdateError{
		BaseError: BaseError{
			Code: ErrRemoteFieldUpdate,
			Message: fmt.Sprintf("Failed to update field %q (%s): This field type may not be editable via API, "+
				"or the field ID format may be incorrect. Status: 404 Not Found", field.Name, field.Type),
			Cause: cause,
		},
		TaskID:     taskID,
		FieldID:    field.ID,
		FieldName:  field.Name,
		FieldType:  field.Type,
		FieldFound: true,
	}
}

// errRateLimited drives the 429 retry loop and never leaves the package.
var errRateLimited = errors.New("remote rate limit exceeded")

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// isContextError reports whether err comes from ctx being done.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
