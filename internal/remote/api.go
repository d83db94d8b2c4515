package remote

import (
	"context"

	"deskwire-chat/internal/domain"
)

// SendMessageRequest is the payload for a message send.
type SendMessageRequest struct {
	Body        string              `json:"body"`
	Kind        domain.MessageKind  `json:"kind"`
	ReplyToID   *string             `json:"reply_to_id,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
}

// CreateConversationRequest is the payload for conversation creation.
type CreateConversationRequest struct {
	Name           *string                 `json:"name,omitempty"`
	Kind           domain.ConversationKind `json:"kind"`
	ParticipantIDs []string                `json:"participant_ids"`
}

// ListMessagesOptions narrows a message history fetch. Before is a message
// id or RFC3339 timestamp; results are the page strictly older than it.
type ListMessagesOptions struct {
	Before string
	Limit  int
}

// SearchOptions narrows a message search to one conversation when set.
type SearchOptions struct {
	ConversationID string
}

// API is the remote message store consumed by the engine. Every call may
// fail with a transport error, an authorization error or a validation
// error; implementations map those onto the shared sentinel errors.
type API interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	CreateConversation(ctx context.Context, req CreateConversationRequest) (domain.Conversation, error)
	MarkConversationRead(ctx context.Context, conversationID string) error

	ListMessages(ctx context.Context, conversationID string, opts ListMessagesOptions) ([]domain.Message, error)
	SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (domain.Message, error)
	EditMessage(ctx context.Context, conversationID, messageID, body string) (domain.Message, error)
	DeleteMessage(ctx context.Context, conversationID, messageID string) error
	PinMessage(ctx context.Context, conversationID, messageID string) (domain.Message, error)
	AddReaction(ctx context.Context, conversationID, messageID, emoji string) (domain.Message, error)
	SearchMessages(ctx context.Context, query string, opts SearchOptions) ([]domain.Message, error)

	SetTypingIndicator(ctx context.Context, conversationID string, isTyping bool) error
}
