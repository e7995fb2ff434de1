// file: internal/clickup/tasks.go
package clickup

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dkoosis/taskdash/internal/schema"
)

// GetProjects lists the tasks of the configured list.
func (c *Client) GetProjects(ctx context.Context, archived bool) ([]Task, error) {
	resp, err := do[taskListResponse](ctx, c, request{
		op:       "GetProjects",
		method:   http.MethodGet,
		segments: []string{"list", c.cfg.ListID, "task"},
		query:    url.Values{"archived": {strconv.FormatBool(archived)}},
		schema:   schema.TaskList,
		cacheKey: "projects:" + c.cfg.ListID + ":" + strconv.FormatBool(archived),
		ttl:      projectsTTL,
	})
	if err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		return []Task{}, nil
	}
	return cloneSlice(resp.Tasks, Task.clone), nil
}

// GetProject fetches a single task.
func (c *Client) GetProject(ctx context.Context, taskID string) (*Task, error) {
	return c.getProject(ctx, taskID, false)
}

// getProject fetches a task; refresh bypasses the cache lookup and stores the result.
func (c *Client) getProject(ctx context.Context, taskID string, refresh bool) (*Task, error) {
	task, err := do[*Task](ctx, c, request{
		op:       "GetProject",
		method:   http.MethodGet,
		segments: []string{"task", taskID},
		schema:   schema.Task,
		cacheKey: "project:" + taskID,
		ttl:      projectTTL,
		refresh:  refresh,
	})
	if err != nil {
		return nil, err
	}
	if task == nil || task.ID == "" || task.Name == "" {
		// An empty or anonymous payload is treated as a missing task; drop it
		// so the next read asks again.
		c.cache.Delete("project:" + taskID)
		rerr := NewRemoteError(ErrRemoteInvalidResponse, "Project not found", http.StatusNotFound, nil)
		rerr.WithContext("taskID", taskID)
		return nil, rerr
	}
	cp := task.clone()
	return &cp, nil
}

// updateTask sends a partial task update and drops cached copies.
func (c *Client) updateTask(ctx context.Context, op, taskID string, body map[string]any) error {
	_, err := do[noContent](ctx, c, request{
		op:       op,
		method:   http.MethodPut,
		segments: []string{"task", taskID},
		body:     body,
	})
	if err != nil {
		return err
	}
	c.invalidateTask(taskID)
	return nil
}

// UpdateProjectStatus moves a task to another status.
func (c *Client) UpdateProjectStatus(ctx context.Context, taskID, status string) error {
	return c.updateTask(ctx, "UpdateProjectStatus", taskID, map[string]any{"status": status})
}

// UpdateProjectName renames a task.
func (c *Client) UpdateProjectName(ctx context.Context, taskID, name string) error {
	return c.updateTask(ctx, "UpdateProjectName", taskID, map[string]any{"name": name})
}

// UpdateProjectDescription replaces a task's description.
func (c *Client) UpdateProjectDescription(ctx context.Context, taskID, description string) error {
	return c.updateTask(ctx, "UpdateProjectDescription", taskID, map[string]any{"description": description})
}

// UpdateProjectAssignees sets the assignee list.
func (c *Client) UpdateProjectAssignees(ctx context.Context, taskID string, userIDs []string) error {
	if userIDs == nil {
		userIDs = []string{}
	}
	return c.updateTask(ctx, "UpdateProjectAssignees", taskID, map[string]any{"assignees": userIDs})
}

// AssignProjectToUser makes userID the task's assignee.
func (c *Client) AssignProjectToUser(ctx context.Context, taskID, userID string) error {
	return c.updateTask(ctx, "AssignProjectToUser", taskID, map[string]any{"assignees": []string{userID}})
}

// UpdateProjectDates sets start and due dates, in Unix milliseconds. A nil
// pointer leaves that date unchanged.
func (c *Client) UpdateProjectDates(ctx context.Context, taskID string, start, due *int64) error {
	body := map[string]any{}
	if start != nil {
		body["start_date"] = *start
	}
	if due != nil {
		body["due_date"] = *due
	}
	return c.updateTask(ctx, "UpdateProjectDates", taskID, body)
}

// GetTaskChecklists returns the task's checklists. Failures are logged and
// yield an empty slice.
func (c *Client) GetTaskChecklists(ctx context.Context, taskID string) []Checklist {
	task, err := c.GetProject(ctx, taskID)
	if err != nil {
		c.logger.Warn("Failed to fetch task checklists.", "taskID", taskID, "error", err)
		return []Checklist{}
	}
	if task.Checklists == nil {
		return []Checklist{}
	}
	return task.Checklists
}
