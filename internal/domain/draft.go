package domain

import (
	"time"
)

// Draft is locally held compose state for one conversation. A draft with
// ScheduledFor set is a scheduled entry: it has left the compose lifecycle
// and waits to be sent once its trigger time elapses.
type Draft struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Body           string       `json:"body"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	ReplyToID      *string      `json:"reply_to_id,omitempty"`
	ScheduledFor   *time.Time   `json:"scheduled_for,omitempty"`
	IsDraft        bool         `json:"is_draft"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Scheduled reports whether the draft is a scheduled entry.
func (d Draft) Scheduled() bool {
	return d.ScheduledFor != nil
}
