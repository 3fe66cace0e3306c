// ABOUTME: Script administration operations
// ABOUTME: CRUD for the bot scripts managed from the console

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const scriptsPath = "/admin/scripts"

// ListScripts returns a page of scripts.
func (c *Client) ListScripts(ctx context.Context, page Page) (*List, error) {
	return c.list(ctx, scriptsPath, page.query())
}

// GetScript returns a single script.
func (c *Client) GetScript(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.GetJSON(ctx, scriptsPath+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateScript creates a script from an opaque payload and returns the
// created record.
func (c *Client) CreateScript(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.DoJSON(ctx, http.MethodPost, scriptsPath, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateScript replaces a script's payload.
func (c *Client) UpdateScript(ctx context.Context, id string, payload json.RawMessage) error {
	return c.session.DoJSON(ctx, http.MethodPut, scriptsPath+"/"+url.PathEscape(id), payload, nil)
}

// DeleteScript removes a script.
func (c *Client) DeleteScript(ctx context.Context, id string) error {
	return c.session.DoJSON(ctx, http.MethodDelete, scriptsPath+"/"+url.PathEscape(id), nil, nil)
}
