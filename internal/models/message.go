package models

import "time"

// StoredMessage is one entry of the flat, chronologically ordered message
// log the backend keeps per conversation. Assistant messages carry the
// model id and final token count; user messages leave both zero.
type StoredMessage struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Model      string    `json:"model,omitempty"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationInfo is the listing entry returned by the conversations
// endpoint.
type ConversationInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
