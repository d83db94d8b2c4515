package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/remote"
	deskwire_errors "deskwire-chat/pkg/errors"
	"deskwire-chat/pkg/logger"
)

// Recorder is the conversation-directory side of the send path.
type Recorder interface {
	RecordOutgoing(conversationID string, msg domain.Message)
}

// MessageCache holds per-conversation ordered message lists and owns the
// send/mutate path. Every mutation is remote-confirmed before the local
// list changes; there is no optimistic insert.
type MessageCache struct {
	mu       sync.Mutex
	api      remote.API
	log      *logger.Logger
	recorder Recorder
	messages map[string][]domain.Message
	lastErr  string
	clock    func() time.Time
}

func New(api remote.API, log *logger.Logger) *MessageCache {
	return &MessageCache{
		api:      api,
		log:      log,
		messages: make(map[string][]domain.Message),
		clock:    time.Now,
	}
}

func (c *MessageCache) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Load fetches a page of history. With before set the page is prepended
// (older-history pagination, newer entries untouched); without it the
// conversation's cached list is replaced outright.
func (c *MessageCache) Load(ctx context.Context, conversationID, before string) error {
	page, err := c.api.ListMessages(ctx, conversationID, remote.ListMessagesOptions{Before: before})
	if err != nil {
		c.setErr(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	if before == "" {
		c.messages[conversationID] = page
		return nil
	}
	c.messages[conversationID] = append(page, c.messages[conversationID]...)
	return nil
}

// Send validates, sends remotely, then appends the confirmed message and
// records it on the conversation summary. Whitespace-only bodies are
// rejected before any remote call.
func (c *MessageCache) Send(ctx context.Context, conversationID, body string, kind domain.MessageKind, replyTo *string, attachments []domain.Attachment) (domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Message{}, deskwire_errors.ErrEmptyBody
	}
	if err := c.validateReplyTo(conversationID, replyTo); err != nil {
		return domain.Message{}, err
	}

	msg, err := c.api.SendMessage(ctx, conversationID, remote.SendMessageRequest{
		Body:        body,
		Kind:        kind,
		ReplyToID:   replyTo,
		Attachments: attachments,
	})
	if err != nil {
		c.setErr(err.Error())
		return domain.Message{}, err
	}

	c.mu.Lock()
	c.lastErr = ""
	c.messages[conversationID] = append(c.messages[conversationID], msg)
	recorder := c.recorder
	c.mu.Unlock()

	if recorder != nil {
		recorder.RecordOutgoing(conversationID, msg)
	}
	return msg, nil
}

// validateReplyTo rejects replies that would reference a message from a
// different conversation or one timestamped after the reply itself.
func (c *MessageCache) validateReplyTo(conversationID string, replyTo *string) error {
	if replyTo == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for convID, msgs := range c.messages {
		for i := range msgs {
			if msgs[i].ID != *replyTo {
				continue
			}
			if convID != conversationID {
				return deskwire_errors.ErrInvalidInput
			}
			if msgs[i].CreatedAt.After(c.clock()) {
				return deskwire_errors.ErrReplyOutOfOrder
			}
			return nil
		}
	}
	// Not cached locally; the remote store is the final arbiter.
	return nil
}

// Edit replaces the message body after remote confirmation and flags the
// entry as edited.
func (c *MessageCache) Edit(ctx context.Context, messageID, newBody string) error {
	conversationID, ok := c.conversationOf(messageID)
	if !ok {
		return deskwire_errors.ErrNotFound
	}
	updated, err := c.api.EditMessage(ctx, conversationID, messageID, newBody)
	if err != nil {
		c.setErr(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	c.replace(conversationID, messageID, func(m *domain.Message) {
		m.Body = updated.Body
		m.Edited = true
		if updated.EditedAt != nil {
			m.EditedAt = updated.EditedAt
		} else {
			m.EditedAt = deskwire_errors.NowPtr()
		}
	})
	return nil
}

// Delete removes the entry entirely after remote confirmation. Hard
// removal, not a tombstone.
func (c *MessageCache) Delete(ctx context.Context, messageID string) error {
	conversationID, ok := c.conversationOf(messageID)
	if !ok {
		return deskwire_errors.ErrNotFound
	}
	if err := c.api.DeleteMessage(ctx, conversationID, messageID); err != nil {
		c.setErr(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	msgs := c.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			c.messages[conversationID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}

// Pin marks the message pinned after remote confirmation.
func (c *MessageCache) Pin(ctx context.Context, messageID string) error {
	conversationID, ok := c.conversationOf(messageID)
	if !ok {
		return deskwire_errors.ErrNotFound
	}
	updated, err := c.api.PinMessage(ctx, conversationID, messageID)
	if err != nil {
		c.setErr(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	c.replace(conversationID, messageID, func(m *domain.Message) {
		m.Pinned = updated.Pinned
	})
	return nil
}

// AddReaction records a reaction after remote confirmation.
func (c *MessageCache) AddReaction(ctx context.Context, messageID, emoji string) error {
	conversationID, ok := c.conversationOf(messageID)
	if !ok {
		return deskwire_errors.ErrNotFound
	}
	updated, err := c.api.AddReaction(ctx, conversationID, messageID, emoji)
	if err != nil {
		c.setErr(err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	c.replace(conversationID, messageID, func(m *domain.Message) {
		m.Reactions = updated.Reactions
	})
	return nil
}

// Search is advisory: any failure yields an empty result, never an error.
func (c *MessageCache) Search(ctx context.Context, query, conversationID string) []domain.Message {
	results, err := c.api.SearchMessages(ctx, query, remote.SearchOptions{ConversationID: conversationID})
	if err != nil {
		c.log.Warnf("message search %q: %v", query, err)
		return nil
	}
	return results
}

// Receive appends a message delivered from outside the send path (refetch
// or external push). Duplicate ids are dropped.
func (c *MessageCache) Receive(msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.messages[msg.ConversationID] {
		if existing.ID == msg.ID {
			return
		}
	}
	c.messages[msg.ConversationID] = append(c.messages[msg.ConversationID], msg)
}

// Messages returns a copy of the conversation's cached list.
func (c *MessageCache) Messages(conversationID string) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages[conversationID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Err returns the component's current error, replaced on each attempt.
func (c *MessageCache) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *MessageCache) setErr(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func (c *MessageCache) conversationOf(messageID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for convID, msgs := range c.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				return convID, true
			}
		}
	}
	return "", false
}

// replace applies fn to the cached entry in place. Caller must hold c.mu.
func (c *MessageCache) replace(conversationID, messageID string, fn func(*domain.Message)) {
	msgs := c.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			fn(&msgs[i])
			return
		}
	}
}
