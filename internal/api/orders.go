// ABOUTME: Order administration operations
// ABOUTME: Listing, inspection and refunds

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const ordersPath = "/admin/orders"

// ListOrders returns a page of orders.
func (c *Client) ListOrders(ctx context.Context, page Page) (*List, error) {
	return c.list(ctx, ordersPath, page.query())
}

// GetOrder returns a single order record.
func (c *Client) GetOrder(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.GetJSON(ctx, ordersPath+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RefundOrder issues a refund for an order and returns the updated record.
func (c *Client) RefundOrder(ctx context.Context, id, reason string) (json.RawMessage, error) {
	body := map[string]string{"reason": reason}
	var out json.RawMessage
	if err := c.session.DoJSON(ctx, http.MethodPost, ordersPath+"/"+url.PathEscape(id)+"/refund", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
