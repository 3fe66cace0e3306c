// ABOUTME: Conversation administration operations
// ABOUTME: Listing conversations and fetching full transcripts

package api

import (
	"context"
	"encoding/json"
	"net/url"
)

const conversationsPath = "/admin/conversations"

// ListConversations returns a page of conversations, optionally filtered
// by user.
func (c *Client) ListConversations(ctx context.Context, page Page, userID string) (*List, error) {
	q := page.query()
	if userID != "" {
		q.Set("user_id", userID)
	}
	return c.list(ctx, conversationsPath, q)
}

// GetTranscript returns the full transcript of a conversation.
func (c *Client) GetTranscript(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.session.GetJSON(ctx, conversationsPath+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}
