// file: internal/clickup/comments.go
package clickup

import (
	"context"
	"net/http"

	"github.com/dkoosis/taskdash/internal/schema"
)

// AddProjectNote posts a comment on a task.
func (c *Client) AddProjectNote(ctx context.Context, taskID, text string) (*Comment, error) {
	resp, err := do[commentCreatedResponse](ctx, c, request{
		op:       "AddProjectNote",
		method:   http.MethodPost,
		segments: []string{"task", taskID, "comment"},
		body:     map[string]any{"comment_text": text},
		schema:   schema.CommentCreated,
	})
	if err != nil {
		return nil, err
	}
	c.invalidateTask(taskID)
	c.cache.InvalidatePattern("notes:" + taskID + "*")

	switch {
	case resp.Data != nil:
		return resp.Data, nil
	case resp.ID != "":
		// The remote answers with just the new id and date.
		return &Comment{ID: resp.ID, CommentText: text, Date: resp.Date}, nil
	default:
		return nil, NewRemoteError(ErrRemoteInvalidResponse, "Failed to create comment", http.StatusOK, nil)
	}
}

// GetProjectNotes lists a task's comments.
func (c *Client) GetProjectNotes(ctx context.Context, taskID string) ([]Comment, error) {
	resp, err := do[commentsResponse](ctx, c, request{
		op:       "GetProjectNotes",
		method:   http.MethodGet,
		segments: []string{"task", taskID, "comment"},
		schema:   schema.Comments,
		cacheKey: "notes:" + taskID,
		ttl:      notesTTL,
	})
	if err != nil {
		return nil, err
	}
	switch {
	case resp.Comments != nil:
		return cloneSlice(resp.Comments, Comment.clone), nil
	case resp.Data != nil:
		return cloneSlice(resp.Data, Comment.clone), nil
	default:
		return []Comment{}, nil
	}
}

// LatestComment returns the comment with the greatest date, or nil.
func LatestComment(comments []Comment) *Comment {
	var latest *Comment
	for i := range comments {
		if latest == nil || comments[i].Date > latest.Date {
			latest = &comments[i]
		}
	}
	return latest
}
