// Package remotetest provides an in-memory remote.API double for tests.
package remotetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/remote"
)

// Fake is a scriptable in-memory chat backend. Zero value is usable.
type Fake struct {
	mu sync.Mutex

	Conversations []domain.Conversation
	History       map[string][]domain.Message // per conversation, oldest first
	Pages         map[string][]domain.Message // returned for Before != ""

	ListConversationsErr error
	ListMessagesErr      error
	SendErr              error
	EditErr              error
	DeleteErr            error
	PinErr               error
	ReactionErr          error
	SearchErr            error
	TypingErr            error
	MarkReadErr          error

	SendCalls     int
	TypingCalls   []bool
	MarkReadCalls []string

	nextID int
}

var _ remote.API = (*Fake)(nil)

func (f *Fake) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListConversationsErr != nil {
		return nil, f.ListConversationsErr
	}
	out := make([]domain.Conversation, len(f.Conversations))
	copy(out, f.Conversations)
	return out, nil
}

func (f *Fake) CreateConversation(ctx context.Context, req remote.CreateConversationRequest) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := domain.Conversation{
		ID:        f.genID("conv"),
		Name:      req.Name,
		Kind:      req.Kind,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.Conversations = append(f.Conversations, conv)
	return conv, nil
}

func (f *Fake) MarkConversationRead(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MarkReadCalls = append(f.MarkReadCalls, conversationID)
	return f.MarkReadErr
}

func (f *Fake) ListMessages(ctx context.Context, conversationID string, opts remote.ListMessagesOptions) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListMessagesErr != nil {
		return nil, f.ListMessagesErr
	}
	if opts.Before != "" {
		return f.Pages[conversationID], nil
	}
	return f.History[conversationID], nil
}

func (f *Fake) SendMessage(ctx context.Context, conversationID string, req remote.SendMessageRequest) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendCalls++
	if f.SendErr != nil {
		return domain.Message{}, f.SendErr
	}
	msg := domain.Message{
		ID:             f.genID("msg"),
		ConversationID: conversationID,
		AuthorID:       "me",
		Body:           req.Body,
		Kind:           req.Kind,
		ReplyToID:      req.ReplyToID,
		Attachments:    req.Attachments,
		CreatedAt:      time.Now(),
	}
	if f.History == nil {
		f.History = make(map[string][]domain.Message)
	}
	f.History[conversationID] = append(f.History[conversationID], msg)
	return msg, nil
}

func (f *Fake) EditMessage(ctx context.Context, conversationID, messageID, body string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EditErr != nil {
		return domain.Message{}, f.EditErr
	}
	now := time.Now()
	return domain.Message{ID: messageID, ConversationID: conversationID, Body: body, Edited: true, EditedAt: &now}, nil
}

func (f *Fake) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	return f.DeleteErr
}

func (f *Fake) PinMessage(ctx context.Context, conversationID, messageID string) (domain.Message, error) {
	if f.PinErr != nil {
		return domain.Message{}, f.PinErr
	}
	return domain.Message{ID: messageID, ConversationID: conversationID, Pinned: true}, nil
}

func (f *Fake) AddReaction(ctx context.Context, conversationID, messageID, emoji string) (domain.Message, error) {
	if f.ReactionErr != nil {
		return domain.Message{}, f.ReactionErr
	}
	return domain.Message{
		ID:             messageID,
		ConversationID: conversationID,
		Reactions:      []domain.Reaction{{Emoji: emoji, UserID: "me", Count: 1}},
	}, nil
}

func (f *Fake) SearchMessages(ctx context.Context, query string, opts remote.SearchOptions) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	var out []domain.Message
	for convID, msgs := range f.History {
		if opts.ConversationID != "" && opts.ConversationID != convID {
			continue
		}
		for _, m := range msgs {
			if strings.Contains(m.Body, query) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *Fake) SetTypingIndicator(ctx context.Context, conversationID string, isTyping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TypingCalls = append(f.TypingCalls, isTyping)
	return f.TypingErr
}

func (f *Fake) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}
