// file: internal/clickup/users.go
package clickup

import (
	"context"
	"net/http"
	"slices"

	"github.com/dkoosis/taskdash/internal/schema"
)

// GetUsers lists the team's members. When the members endpoint fails the roster
// is rebuilt from the assignees of the configured list's tasks; when that fails
// too the result is empty. A *ConfigurationError is still returned as is.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	users, err := c.getTeamMembers(ctx)
	if err == nil {
		return users, nil
	}
	if isContextError(err) {
		return nil, err
	}
	c.logger.Warn("Team members endpoint failed, deriving users from task assignees.",
		"teamID", c.cfg.TeamID, "error", err)

	tasks, err := c.GetProjects(ctx, false)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		c.logger.Warn("Could not derive users from task assignees.", "listID", c.cfg.ListID, "error", err)
		return []User{}, nil
	}
	return uniqueAssignees(tasks), nil
}

func (c *Client) getTeamMembers(ctx context.Context) ([]User, error) {
	resp, err := do[membersResponse](ctx, c, request{
		op:       "GetUsers",
		method:   http.MethodGet,
		segments: []string{"team", c.cfg.TeamID, "member"},
		schema:   schema.Members,
		cacheKey: "users:" + c.cfg.TeamID,
		ttl:      usersTTL,
	})
	if err != nil {
		return nil, err
	}
	if resp.Members != nil {
		users := make([]User, 0, len(resp.Members))
		for _, m := range resp.Members {
			if m.User != nil {
				users = append(users, *m.User)
			}
		}
		return users, nil
	}
	if resp.Users != nil {
		return slices.Clone(resp.Users), nil
	}
	return []User{}, nil
}

// uniqueAssignees collects assignees in first-seen order, one per user id.
func uniqueAssignees(tasks []Task) []User {
	seen := make(map[ID]struct{})
	users := []User{}
	for _, t := range tasks {
		for _, u := range t.Assignees {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			users = append(users, u)
		}
	}
	return users
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	resp, err := do[userResponse](ctx, c, request{
		op:       "GetUser",
		method:   http.MethodGet,
		segments: []string{"user", userID},
		schema:   schema.UserResponse,
		cacheKey: "user:" + userID,
		ttl:      userTTL,
	})
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		c.cache.Delete("user:" + userID)
		return nil, NewRemoteError(ErrRemoteInvalidResponse, "User not found", http.StatusNotFound, nil)
	}
	u := *resp.User
	return &u, nil
}
