package api

import (
	"context"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/models"
)

// FetchMessages retrieves the flat, chronologically ordered message log
// for a conversation. The result feeds the history reconciler.
func (c *Client) FetchMessages(ctx context.Context, conversationID string) ([]models.StoredMessage, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id cannot be empty")
	}

	endpoint := c.baseURL + fmt.Sprintf(models.PathConversationMessages, conversationID)
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// The endpoint returns either a bare array or {"messages": [...]}.
	items := gjson.ParseBytes(body)
	if !items.IsArray() {
		items = items.Get("messages")
	}
	if !items.IsArray() {
		return nil, apierrors.NewParseError("no message list in response", "messages")
	}

	var messages []models.StoredMessage
	items.ForEach(func(_, item gjson.Result) bool {
		messages = append(messages, models.StoredMessage{
			ID:         item.Get("id").String(),
			Role:       item.Get("role").String(),
			Content:    item.Get("content").String(),
			Model:      item.Get("model").String(),
			TokensUsed: int(item.Get("tokens_used").Int()),
			CreatedAt:  parseTime(item.Get("created_at").String()),
		})
		return true
	})

	return messages, nil
}

// ListConversations retrieves the user's conversation listing, most
// recent first as ordered by the backend.
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationInfo, error) {
	endpoint := c.baseURL + models.PathConversations
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	items := gjson.ParseBytes(body)
	if !items.IsArray() {
		items = items.Get("conversations")
	}
	if !items.IsArray() {
		return nil, apierrors.NewParseError("no conversation list in response", "conversations")
	}

	var conversations []models.ConversationInfo
	items.ForEach(func(_, item gjson.Result) bool {
		conversations = append(conversations, models.ConversationInfo{
			ID:        item.Get("id").String(),
			Title:     item.Get("title").String(),
			CreatedAt: parseTime(item.Get("created_at").String()),
		})
		return true
	})

	return conversations, nil
}

// getJSON performs an authenticated GET and returns the response body.
func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.setHeaders(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("fetch", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != 200 {
		snippet := readLimited(resp.Body, 4096)
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint,
			statusMessage(snippet, resp.StatusCode), snippet)
	}

	return io.ReadAll(resp.Body)
}

// parseTime accepts the backend's ISO timestamps, with or without zone.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
