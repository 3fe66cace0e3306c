// ABOUTME: User administration operations
// ABOUTME: Listing, inspection, status changes and deletion of dashboard users

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const usersPath = "/admin/users"

// ListUsers returns a page of users.
func (c *Client) ListUsers(ctx context.Context, page Page) (*List, error) {
	return c.list(ctx, usersPath, page.query())
}

// GetUser returns a single user record.
func (c *Client) GetUser(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.GetJSON(ctx, usersPath+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUserStatus changes a user's status (e.g. "active", "suspended").
func (c *Client) UpdateUserStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.session.DoJSON(ctx, http.MethodPatch, usersPath+"/"+url.PathEscape(id), body, nil)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.session.DoJSON(ctx, http.MethodDelete, usersPath+"/"+url.PathEscape(id), nil, nil)
}
