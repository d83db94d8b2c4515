package engine

import (
	"context"

	"deskwire-chat/internal/cache"
	"deskwire-chat/internal/directory"
	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/drafts"
	"deskwire-chat/internal/notify"
	"deskwire-chat/internal/scheduler"
	"deskwire-chat/internal/typing"
	"deskwire-chat/pkg/logger"
)

// Engine is the per-session composition root. Each component is an owned
// instance constructed once and handed to consumers by reference; nothing
// lives in package-level state.
type Engine struct {
	log           *logger.Logger
	currentUserID string

	Directory     *directory.Directory
	Cache         *cache.MessageCache
	Drafts        *drafts.Store
	Scheduler     *scheduler.Scheduler
	Typing        *typing.Coordinator
	Notifications *notify.Dispatcher
}

// Deps are the already-constructed components the engine wires together.
type Deps struct {
	Directory     *directory.Directory
	Cache         *cache.MessageCache
	Drafts        *drafts.Store
	Scheduler     *scheduler.Scheduler
	Typing        *typing.Coordinator
	Notifications *notify.Dispatcher
}

func New(currentUserID string, deps Deps, log *logger.Logger) *Engine {
	deps.Directory.SetHistoryLoader(deps.Cache)
	deps.Cache.SetRecorder(deps.Directory)

	return &Engine{
		log:           log,
		currentUserID: currentUserID,
		Directory:     deps.Directory,
		Cache:         deps.Cache,
		Drafts:        deps.Drafts,
		Scheduler:     deps.Scheduler,
		Typing:        deps.Typing,
		Notifications: deps.Notifications,
	}
}

// Start refreshes the conversation list and arms the scheduled-send
// timer. The timer's first pass runs immediately, covering entries whose
// trigger time elapsed while the process was down.
func (e *Engine) Start(ctx context.Context) error {
	err := e.Directory.Refresh(ctx)
	e.Scheduler.Start(ctx)
	return err
}

// ReceiveRemoteMessage feeds a message delivered by the host's refetch or
// push boundary into the engine: cache append, conversation bookkeeping,
// and a notification when it came from someone else.
func (e *Engine) ReceiveRemoteMessage(msg domain.Message) {
	e.Cache.Receive(msg)

	if msg.AuthorID == e.currentUserID {
		e.Directory.RecordOutgoing(msg.ConversationID, msg)
		return
	}

	e.Directory.RecordIncoming(msg.ConversationID, msg)

	title := "New message"
	if conv, ok := e.Directory.Get(msg.ConversationID); ok && conv.Name != nil {
		title = *conv.Name
	}
	senderName := msg.AuthorID
	if conv, ok := e.Directory.Get(msg.ConversationID); ok {
		for _, p := range conv.Participants {
			if p.UserID == msg.AuthorID {
				senderName = p.DisplayName
				break
			}
		}
	}

	e.Notifications.Add(notify.Draft{
		Kind:           domain.NotificationKindMessage,
		Title:          title,
		Body:           msg.Body,
		SenderID:       msg.AuthorID,
		SenderName:     senderName,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Priority:       domain.NotificationPriorityMedium,
	})
}

// SetForeground records host-view visibility. Regaining the foreground
// auto-reads message-kind notifications.
func (e *Engine) SetForeground(visible bool) {
	e.Directory.SetVisible(visible)
	if visible {
		e.Notifications.HandleFocus()
	}
}

// Logout wipes compose state and stops background work.
func (e *Engine) Logout() {
	e.Drafts.ClearAll()
	e.Notifications.ClearAll()
	e.Close()
}

// Close cancels the scheduler loop and all typing expiry timers.
func (e *Engine) Close() {
	e.Scheduler.Stop()
	e.Typing.Close()
}
