package models

import "time"

// EventType classifies an inbound platform event
type EventType string

const (
	EventMessage EventType = "message"
	EventFollow  EventType = "follow"
)

// MessageType is the nested type of a message event
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageSticker  MessageType = "sticker"
	MessageLocation MessageType = "location"
)

// InboundEvent is the engine's view of one LINE platform event
type InboundEvent struct {
	Type        EventType   `json:"type"`
	Text        string      `json:"text,omitempty"`
	MessageType MessageType `json:"message_type,omitempty"`
}

// UserProfile is a friend of the official account
type UserProfile struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tags   []string `json:"tags,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// HasTag reports whether the user carries the given tag
func (u *UserProfile) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// InGroup reports whether the user belongs to the given group
func (u *UserProfile) InGroup(group string) bool {
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// ActivityRecord is one audit entry for a rule firing attempt
type ActivityRecord struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}
