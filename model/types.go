// Package model provides domain types shared across packages.
package model

import (
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Priority is an optional tag a user can attach to a turn.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority maps a loose string to a Priority. Unknown values map to PriorityNone.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	default:
		return PriorityNone
	}
}

// TimestampLayout is the ISO-8601 layout used for conversation timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Attachment is a named binary blob carried by a user turn.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// ToolInvocation records a tool that was executed for a turn.
type ToolInvocation struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ConversationMessage is one turn of the conversation log.
// Messages are never mutated after creation.
type ConversationMessage struct {
	Role            Role             `json:"role"`
	Text            string           `json:"text"`
	Timestamp       string           `json:"timestamp"`
	Priority        Priority         `json:"priority,omitempty"`
	Attachments     []Attachment     `json:"attachments,omitempty"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
}

// Now returns the current time formatted with TimestampLayout in UTC.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// NewUserMessage creates a user turn stamped with the current time.
func NewUserMessage(text string, attachments ...Attachment) ConversationMessage {
	return ConversationMessage{
		Role:        RoleUser,
		Text:        text,
		Timestamp:   Now(),
		Attachments: attachments,
	}
}

// NewModelMessage creates a model turn stamped with the current time.
func NewModelMessage(text string, invocations []ToolInvocation) ConversationMessage {
	return ConversationMessage{
		Role:            RoleModel,
		Text:            text,
		Timestamp:       Now(),
		ToolInvocations: invocations,
	}
}

// Time parses the message timestamp. Returns the zero time if unparseable.
func (m ConversationMessage) Time() time.Time {
	t, err := time.Parse(TimestampLayout, m.Timestamp)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, m.Timestamp)
	}
	return t
}
