package models

// WebhookPayload is the top-level body delivered by the LINE platform
type WebhookPayload struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

// WebhookEvent is one platform event inside a webhook delivery
type WebhookEvent struct {
	Type       string          `json:"type"`
	Timestamp  int64           `json:"timestamp"`
	ReplyToken string          `json:"replyToken,omitempty"`
	Source     WebhookSource   `json:"source"`
	Message    *WebhookMessage `json:"message,omitempty"`
}

// WebhookSource identifies where an event originated
type WebhookSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

// WebhookMessage is the nested message object of a message event
type WebhookMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
