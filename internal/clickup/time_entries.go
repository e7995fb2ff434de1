// file: internal/clickup/time_entries.go
package clickup

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/schema"
)

// GetTimeEntries lists the time tracked on a task.
func (c *Client) GetTimeEntries(ctx context.Context, taskID string) ([]TimeEntry, error) {
	resp, err := do[timeEntriesResponse](ctx, c, request{
		op:       "GetTimeEntries",
		method:   http.MethodGet,
		segments: []string{"task", taskID, "time"},
		schema:   schema.TimeEntries,
		cacheKey: "time:" + taskID,
		ttl:      timeTTL,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []TimeEntry{}, nil
	}
	return cloneSlice(resp.Data, TimeEntry.clone), nil
}

// timeEntryPayload builds the creation body. Optional keys are omitted, not zeroed.
func timeEntryPayload(in TimeEntryInput) map[string]any {
	payload := map[string]any{
		"tid":         in.TaskID,
		"duration":    in.Duration.Milliseconds(),
		"description": in.Description,
	}
	if in.Start != nil {
		payload["start"] = in.Start.UnixMilli()
	}
	if in.Billable != nil {
		payload["billable"] = *in.Billable
	}
	return payload
}

// CreateTimeEntry records time against a task in the configured team.
func (c *Client) CreateTimeEntry(ctx context.Context, in TimeEntryInput) (*TimeEntry, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, NewRemoteError(ErrRemoteRequest, "ClickUp API error: task id is required", 0, nil)
	}
	resp, err := do[timeEntryCreatedResponse](ctx, c, request{
		op:       "CreateTimeEntry",
		method:   http.MethodPost,
		segments: []string{"team", c.cfg.TeamID, "time_entries"},
		body:     timeEntryPayload(in),
		schema:   schema.TimeEntryCreated,
	})
	if err != nil {
		var rerr *RemoteError
		if errors.As(err, &rerr) {
			c.logger.Error("Failed to create time entry.",
				"taskID", in.TaskID, "teamID", c.cfg.TeamID, "duration", in.Duration, "error", err)
			rerr.Message = "ClickUp API error: " + rerr.Message
		}
		return nil, err
	}
	c.cache.InvalidatePattern("time:" + in.TaskID + "*")
	c.cache.InvalidatePattern("project:" + in.TaskID + "*")

	if resp.Data == nil {
		return nil, NewRemoteError(ErrRemoteInvalidResponse,
			"Failed to create time entry: No data returned", http.StatusOK, nil)
	}
	return resp.Data, nil
}
