package models

// API paths relative to the configured base URL.
const (
	PathStreamChat           = "/stream/chat"
	PathConversations        = "/conversations/"
	PathConversationMessages = "/conversations/%s/messages"
)

// Request defaults, matching the backend's own fallbacks.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)
