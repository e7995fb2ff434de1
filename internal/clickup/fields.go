// file: internal/clickup/fields.go
package clickup

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// timestampDigits is the length above which an all-digit string is read as a
// millisecond timestamp rather than a plain number.
const timestampDigits = 10

// CoerceFieldValue converts a caller-supplied custom field value into the
// representation the remote expects:
//   - nil becomes "" (clears the field);
//   - an all-digit string longer than 10 characters becomes an int64 timestamp;
//   - any other string that parses as a number becomes a number, integral
//     values as int64;
//   - everything else is sent unchanged.
func CoerceFieldValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return v
		}
		if len(s) > timestampDigits && isDigits(s) {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return v
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case json.Number:
		return CoerceFieldValue(v.String())
	default:
		return v
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UpdateProjectField sets a custom field on a task. Custom fields use POST on
// their own endpoint. A 404 is diagnosed by re-reading the task: the result is a
// *FieldUpdateError saying whether the field id is unknown on the task or the
// field exists but cannot be written this way. The diagnosis is best effort.
func (c *Client) UpdateProjectField(ctx context.Context, taskID, fieldID string, value any) error {
	payload := map[string]any{"value": CoerceFieldValue(value)}
	c.logger.Debug("Updating custom field.", "taskID", taskID, "fieldID", fieldID, "value", payload["value"])

	_, err := do[noContent](ctx, c, request{
		op:       "UpdateProjectField",
		method:   http.MethodPost,
		segments: []string{"task", taskID, "field", fieldID},
		body:     payload,
	})
	if err == nil {
		c.invalidateTask(taskID)
		return nil
	}

	var remote *RemoteError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusNotFound {
		return err
	}
	return c.diagnoseFieldNotFound(ctx, taskID, fieldID, remote)
}

func (c *Client) diagnoseFieldNotFound(ctx context.Context, taskID, fieldID string, original *RemoteError) error {
	task, err := c.getProject(ctx, taskID, true)
	if err != nil {
		c.logger.Warn("Could not re-read task to diagnose custom field 404.",
			"taskID", taskID, "fieldID", fieldID, "error", err)
		return errors.WithDetailf(original, "re-reading task %s failed: %v", taskID, err)
	}

	field, ok := task.FindCustomField(fieldID)
	if !ok {
		return newFieldNotFoundError(taskID, fieldID, original)
	}
	c.logger.Warn("Custom field exists but the update returned 404.",
		"taskID", taskID, "fieldID", fieldID, "fieldName", field.Name, "fieldType", field.Type)
	return newFieldNotEditableError(taskID, field, original)
}
