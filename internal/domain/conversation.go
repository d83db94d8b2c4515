package domain

import (
	"time"
)

type Conversation struct {
	ID           string           `json:"id"`
	Name         *string          `json:"name,omitempty"`
	Kind         ConversationKind `json:"kind"`
	Participants []Participant    `json:"participants,omitempty"`
	LastMessage  *MessageSummary  `json:"last_message,omitempty"`
	UnreadCount  int              `json:"unread_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type Participant struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// MessageSummary is the compact last-message view carried on a conversation.
type MessageSummary struct {
	MessageID string      `json:"message_id"`
	AuthorID  string      `json:"author_id"`
	Body      string      `json:"body"`
	Kind      MessageKind `json:"kind"`
	SentAt    time.Time   `json:"sent_at"`
}

// Summarize builds the conversation-level summary for a message.
func Summarize(msg Message) *MessageSummary {
	return &MessageSummary{
		MessageID: msg.ID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		Kind:      msg.Kind,
		SentAt:    msg.CreatedAt,
	}
}
