package directory

import (
	"context"
	"sync"
	"time"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/remote"
	deskwire_errors "deskwire-chat/pkg/errors"
	"deskwire-chat/pkg/logger"
)

// HistoryLoader is the message-cache side of conversation selection:
// selecting a conversation triggers a fresh history load.
type HistoryLoader interface {
	Load(ctx context.Context, conversationID, before string) error
}

// Directory holds the authoritative local view of the conversations the
// current user participates in.
type Directory struct {
	mu            sync.Mutex
	api           remote.API
	log           *logger.Logger
	history       HistoryLoader
	conversations []domain.Conversation
	activeID      string
	visible       bool
	lastErr       string
	clock         func() time.Time
}

func New(api remote.API, log *logger.Logger) *Directory {
	return &Directory{
		api:     api,
		log:     log,
		visible: true,
		clock:   time.Now,
	}
}

// SetHistoryLoader wires the message cache in after construction; the two
// components reference each other only through narrow interfaces.
func (d *Directory) SetHistoryLoader(h HistoryLoader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = h
}

// Refresh replaces the local list wholesale from the remote store. A
// forbidden/unauthenticated response resolves to an empty list with no
// error: an unauthenticated session is an expected state, not a fault.
func (d *Directory) Refresh(ctx context.Context) error {
	conversations, err := d.api.ListConversations(ctx)
	if err != nil {
		if deskwire_errors.IsAuthError(err) {
			d.mu.Lock()
			d.conversations = nil
			d.lastErr = ""
			d.mu.Unlock()
			return nil
		}
		d.setErr(err.Error())
		return err
	}

	d.mu.Lock()
	d.conversations = conversations
	d.lastErr = ""
	d.mu.Unlock()
	return nil
}

// Select makes a conversation active, loads its history and marks it read.
func (d *Directory) Select(ctx context.Context, conversationID string) error {
	d.mu.Lock()
	idx := d.indexOf(conversationID)
	if idx < 0 {
		d.mu.Unlock()
		return deskwire_errors.ErrNotFound
	}
	d.activeID = conversationID
	history := d.history
	d.mu.Unlock()

	if history != nil {
		if err := history.Load(ctx, conversationID, ""); err != nil {
			return err
		}
	}
	d.MarkRead(ctx, conversationID)
	return nil
}

// MarkRead resets the unread count to zero and forwards the acknowledgment
// to the remote store. The local reset always happens; the remote call is
// best-effort and logged on failure.
func (d *Directory) MarkRead(ctx context.Context, conversationID string) {
	d.mu.Lock()
	if idx := d.indexOf(conversationID); idx >= 0 {
		d.conversations[idx].UnreadCount = 0
	}
	d.mu.Unlock()

	if err := d.api.MarkConversationRead(ctx, conversationID); err != nil {
		d.log.Warnf("mark conversation %s read: %v", conversationID, err)
	}
}

// RecordOutgoing updates the conversation summary for a message sent by
// the current user. Outgoing messages are never unread to their author.
func (d *Directory) RecordOutgoing(conversationID string, msg domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexOf(conversationID)
	if idx < 0 {
		return
	}
	d.conversations[idx].LastMessage = domain.Summarize(msg)
	d.conversations[idx].UpdatedAt = d.clock()
}

// RecordIncoming updates the summary and bumps the unread count, unless
// the conversation is active and the host view is visible.
func (d *Directory) RecordIncoming(conversationID string, msg domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexOf(conversationID)
	if idx < 0 {
		return
	}
	d.conversations[idx].LastMessage = domain.Summarize(msg)
	d.conversations[idx].UpdatedAt = d.clock()
	if conversationID == d.activeID && d.visible {
		return
	}
	d.conversations[idx].UnreadCount++
}

// Create asks the remote store for a new conversation and appends it.
func (d *Directory) Create(ctx context.Context, req remote.CreateConversationRequest) (domain.Conversation, error) {
	conv, err := d.api.CreateConversation(ctx, req)
	if err != nil {
		d.setErr(err.Error())
		return domain.Conversation{}, err
	}

	d.mu.Lock()
	d.conversations = append(d.conversations, conv)
	d.lastErr = ""
	d.mu.Unlock()
	return conv, nil
}

// SetVisible records whether the host view is in the foreground.
func (d *Directory) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = visible
}

// Active returns the currently selected conversation id.
func (d *Directory) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeID
}

// Conversations returns a copy of the current list.
func (d *Directory) Conversations() []domain.Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Conversation, len(d.conversations))
	copy(out, d.conversations)
	return out
}

// Get returns one conversation by id.
func (d *Directory) Get(conversationID string) (domain.Conversation, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if idx := d.indexOf(conversationID); idx >= 0 {
		return d.conversations[idx], true
	}
	return domain.Conversation{}, false
}

// Err returns the component's current error, replaced on each attempt.
func (d *Directory) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

func (d *Directory) setErr(msg string) {
	d.mu.Lock()
	d.lastErr = msg
	d.mu.Unlock()
}

// indexOf returns the position of a conversation. Caller must hold d.mu.
func (d *Directory) indexOf(conversationID string) int {
	for i := range d.conversations {
		if d.conversations[i].ID == conversationID {
			return i
		}
	}
	return -1
}
