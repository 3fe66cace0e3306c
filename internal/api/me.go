// ABOUTME: Identity lookup for the signed-in administrator
// ABOUTME: Backs the console's status and me commands

package api

import (
	"context"
	"encoding/json"
)

const mePath = "/admin/me"

// Me describes the authenticated administrator.
type Me struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`

	// Raw keeps the full payload for fields the console does not model.
	Raw json.RawMessage `json:"-"`
}

// GetMe returns the authenticated administrator's identity.
func (c *Client) GetMe(ctx context.Context) (*Me, error) {
	var raw json.RawMessage
	if err := c.session.GetJSON(ctx, mePath, &raw); err != nil {
		return nil, err
	}

	var me Me
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, err
	}
	me.Raw = raw
	return &me, nil
}
