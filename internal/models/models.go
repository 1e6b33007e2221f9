package models

import (
	"time"
)

// RuleRow is the persisted form of an auto-reply rule. Trigger, response,
// condition and limit payloads are stored as JSON text columns.
type RuleRow struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	Priority       int       `gorm:"default:8" json:"priority"`
	TriggerType    string    `gorm:"type:varchar(50);not null" json:"trigger_type"`
	TriggerConfig  string    `gorm:"type:text" json:"trigger_config"`
	ResponseConfig string    `gorm:"type:text" json:"response_config"`
	UserConditions string    `gorm:"type:text" json:"user_conditions"`
	Limits         string    `gorm:"type:text" json:"limits"`
	Statistics     string    `gorm:"type:text" json:"statistics"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RuleRow) TableName() string {
	return "auto_reply_rules"
}

// FriendRow is a friend of the official account
type FriendRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // LINE user id
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Tags      string    `gorm:"type:text" json:"tags"`   // JSON array
	Groups    string    `gorm:"type:text" json:"groups"` // JSON array
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FriendRow) TableName() string {
	return "friends"
}

// ActivityRow is one persisted rule-firing audit entry
type ActivityRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RuleID    string    `gorm:"index;type:varchar(64)" json:"rule_id"`
	RuleName  string    `gorm:"type:varchar(255)" json:"rule_name"`
	UserID    string    `gorm:"type:varchar(64)" json:"user_id"`
	UserName  string    `gorm:"type:varchar(255)" json:"user_name"`
	Message   string    `gorm:"type:text" json:"message"`
	Success   bool      `json:"success"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

func (ActivityRow) TableName() string {
	return "activity_logs"
}
