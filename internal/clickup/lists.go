// file: internal/clickup/lists.go
package clickup

import (
	"context"
	"net/http"

	"github.com/dkoosis/taskdash/internal/schema"
)

// GetList fetches the configured list's metadata.
func (c *Client) GetList(ctx context.Context) (*List, error) {
	list, err := do[*List](ctx, c, request{
		op:       "GetList",
		method:   http.MethodGet,
		segments: []string{"list", c.cfg.ListID},
		schema:   schema.List,
		cacheKey: "list:" + c.cfg.ListID,
		ttl:      listTTL,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		c.cache.Delete("list:" + c.cfg.ListID)
		rerr := NewRemoteError(ErrRemoteInvalidResponse, "List not found", http.StatusNotFound, nil)
		rerr.WithContext("listID", c.cfg.ListID)
		return nil, rerr
	}
	cp := list.clone()
	return &cp, nil
}
