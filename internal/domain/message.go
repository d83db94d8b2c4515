package domain

import (
	"time"
)

type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	AuthorID       string       `json:"author_id"`
	Body           string       `json:"body"`
	Kind           MessageKind  `json:"kind"`
	ReplyToID      *string      `json:"reply_to_id,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Reactions      []Reaction   `json:"reactions,omitempty"`
	DeliveredAt    *time.Time   `json:"delivered_at,omitempty"`
	ReadAt         *time.Time   `json:"read_at,omitempty"`
	Edited         bool         `json:"edited"`
	EditedAt       *time.Time   `json:"edited_at,omitempty"`
	Pinned         bool         `json:"pinned"`
	CreatedAt      time.Time    `json:"created_at"`
}

type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}
