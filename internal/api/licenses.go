// ABOUTME: License administration operations
// ABOUTME: Listing, issuing and revoking licenses

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const licensesPath = "/admin/licenses"

// ListLicenses returns a page of licenses.
func (c *Client) ListLicenses(ctx context.Context, page Page) (*List, error) {
	return c.list(ctx, licensesPath, page.query())
}

// GetLicense returns a single license record.
func (c *Client) GetLicense(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.GetJSON(ctx, licensesPath+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IssueLicense creates a license from an opaque payload and returns the
// issued record.
func (c *Client) IssueLicense(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.DoJSON(ctx, http.MethodPost, licensesPath, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeLicense revokes a license.
func (c *Client) RevokeLicense(ctx context.Context, id string) error {
	return c.session.DoJSON(ctx, http.MethodDelete, licensesPath+"/"+url.PathEscape(id), nil, nil)
}
