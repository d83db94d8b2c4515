package domain

import (
	"time"
)

type Notification struct {
	ID             string               `json:"id"`
	Kind           NotificationKind     `json:"kind"`
	Title          string               `json:"title"`
	Body           string               `json:"body"`
	SenderID       string               `json:"sender_id,omitempty"`
	SenderName     string               `json:"sender_name,omitempty"`
	ConversationID string               `json:"conversation_id,omitempty"`
	MessageID      string               `json:"message_id,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
	Read           bool                 `json:"read"`
	Priority       NotificationPriority `json:"priority"`
}
