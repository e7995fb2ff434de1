// file: internal/clickup/checklists.go
package clickup

import (
	"context"
	"net/http"

	"github.com/dkoosis/taskdash/internal/schema"
)

// CreateChecklist adds an empty checklist to a task.
func (c *Client) CreateChecklist(ctx context.Context, taskID, name string) (*Checklist, error) {
	resp, err := do[checklistCreatedResponse](ctx, c, request{
		op:       "CreateChecklist",
		method:   http.MethodPost,
		segments: []string{"task", taskID, "checklist"},
		body:     map[string]any{"name": name},
		schema:   schema.ChecklistCreated,
	})
	if err != nil {
		c.logger.Error("Failed to create checklist.", "taskID", taskID, "name", name, "error", err)
		return nil, err
	}
	c.cache.InvalidatePattern("project:" + taskID + "*")
	return resp.Checklist, nil
}

// AddChecklistItem appends an item to a checklist.
func (c *Client) AddChecklistItem(ctx context.Context, taskID, checklistID, name string) (*ChecklistItem, error) {
	resp, err := do[checklistItemCreatedResponse](ctx, c, request{
		op:       "AddChecklistItem",
		method:   http.MethodPost,
		segments: []string{"task", taskID, "checklist", checklistID, "item"},
		body:     map[string]any{"name": name},
		schema:   schema.ChecklistItemCreated,
	})
	if err != nil {
		c.logger.Error("Failed to add checklist item.",
			"taskID", taskID, "checklistID", checklistID, "name", name, "error", err)
		return nil, err
	}
	c.cache.InvalidatePattern("project:" + taskID + "*")

	if resp.ChecklistItem != nil {
		return resp.ChecklistItem, nil
	}
	// The remote usually returns the whole checklist; the new item is the last
	// one with the requested name.
	if resp.Checklist != nil {
		for i := len(resp.Checklist.Items) - 1; i >= 0; i-- {
			if resp.Checklist.Items[i].Name == name {
				item := resp.Checklist.Items[i]
				return &item, nil
			}
		}
	}
	return nil, NewRemoteError(ErrRemoteInvalidResponse, "Failed to add checklist item: no item returned", http.StatusOK, nil)
}

// UpdateChecklistItem checks or unchecks an item.
func (c *Client) UpdateChecklistItem(ctx context.Context, taskID, checklistID, itemID string, checked bool) error {
	_, err := do[noContent](ctx, c, request{
		op:       "UpdateChecklistItem",
		method:   http.MethodPut,
		segments: []string{"task", taskID, "checklist", checklistID, "item", itemID},
		body:     map[string]any{"resolved": checked},
	})
	if err != nil {
		c.logger.Error("Failed to update checklist item.",
			"taskID", taskID, "checklistID", checklistID, "itemID", itemID, "error", err)
		return err
	}
	c.cache.InvalidatePattern("project:" + taskID + "*")
	return nil
}
