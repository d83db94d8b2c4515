package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"deskwire-chat/internal/cache"
	"deskwire-chat/internal/directory"
	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/drafts"
	"deskwire-chat/internal/notify"
	"deskwire-chat/internal/remote/remotetest"
	"deskwire-chat/internal/scheduler"
	"deskwire-chat/internal/typing"
	"deskwire-chat/pkg/logger"
)

type channelAlerter struct {
	alerts chan domain.Notification
}

func (a *channelAlerter) RequestPermission(ctx context.Context) (notify.Permission, error) {
	return notify.PermissionGranted, nil
}

func (a *channelAlerter) Alert(ctx context.Context, n domain.Notification) error {
	a.alerts <- n
	return nil
}

type testRig struct {
	engine  *Engine
	api     *remotetest.Fake
	alerter *channelAlerter
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	api := &remotetest.Fake{Conversations: []domain.Conversation{
		{ID: "c1", Kind: domain.ConversationKindDirect, Participants: []domain.Participant{
			{UserID: "me", DisplayName: "Me"},
			{UserID: "u2", DisplayName: "Dana"},
		}},
		{ID: "c2", Kind: domain.ConversationKindGroup},
	}}

	store, err := drafts.NewStore(db, log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	dir := directory.New(api, log)
	messages := cache.New(api, log)
	alerter := &channelAlerter{alerts: make(chan domain.Notification, 16)}
	dispatcher := notify.NewDispatcher(alerter, "me", log)
	coordinator := typing.NewCoordinator(typing.NewAPIForwarder(api), time.Second, time.Second, log)
	sendTimer := scheduler.New(store, messages, time.Hour, log)

	eng := New("me", Deps{
		Directory:     dir,
		Cache:         messages,
		Drafts:        store,
		Scheduler:     sendTimer,
		Typing:        coordinator,
		Notifications: dispatcher,
	}, log)
	t.Cleanup(eng.Close)

	if err := eng.Directory.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return &testRig{engine: eng, api: api, alerter: alerter}
}

func TestIncomingMessageScenario(t *testing.T) {
	rig := newTestRig(t)
	rig.engine.Notifications.RequestPermission(context.Background())

	// c1 is not active; a message arrives from another user
	incoming := domain.Message{
		ID:             "m1",
		ConversationID: "c1",
		AuthorID:       "u2",
		Body:           "quarterly numbers are in",
		Kind:           domain.MessageKindText,
		CreatedAt:      time.Now(),
	}
	rig.engine.ReceiveRemoteMessage(incoming)

	conv, _ := rig.engine.Directory.Get("c1")
	if conv.UnreadCount != 1 {
		t.Fatalf("expected unread 1, got %d", conv.UnreadCount)
	}

	notes := rig.engine.Notifications.Notifications()
	if len(notes) != 1 || notes[0].Kind != domain.NotificationKindMessage {
		t.Fatalf("expected one message notification, got %+v", notes)
	}
	if notes[0].SenderName != "Dana" {
		t.Fatalf("sender name not resolved from participants: %q", notes[0].SenderName)
	}

	select {
	case <-rig.alerter.alerts:
	case <-time.After(time.Second):
		t.Fatalf("expected one platform alert")
	}

	if got := rig.engine.Cache.Messages("c1"); len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("incoming message not cached: %+v", got)
	}
}

func TestOwnMessageDoesNotNotify(t *testing.T) {
	rig := newTestRig(t)
	rig.engine.Notifications.RequestPermission(context.Background())

	rig.engine.ReceiveRemoteMessage(domain.Message{
		ID:             "m1",
		ConversationID: "c1",
		AuthorID:       "me",
		Body:           "sent from another device",
		Kind:           domain.MessageKindText,
		CreatedAt:      time.Now(),
	})

	conv, _ := rig.engine.Directory.Get("c1")
	if conv.UnreadCount != 0 {
		t.Fatalf("own messages are never unread, got %d", conv.UnreadCount)
	}
	if len(rig.engine.Notifications.Notifications()) != 0 {
		t.Fatalf("own messages must not notify")
	}
	if conv.LastMessage == nil || conv.LastMessage.MessageID != "m1" {
		t.Fatalf("summary must still update: %+v", conv.LastMessage)
	}
}

func TestScheduledMessageFiresThroughSendPath(t *testing.T) {
	rig := newTestRig(t)

	rig.engine.Drafts.ScheduleMessage("c1", "hi", time.Now().Add(-time.Second), nil, nil)
	rig.engine.Scheduler.CheckDue(context.Background())

	if len(rig.engine.Drafts.ScheduledEntries()) != 0 {
		t.Fatalf("fired entry must be removed")
	}
	got := rig.engine.Cache.Messages("c1")
	if len(got) != 1 || got[0].Body != "hi" {
		t.Fatalf("scheduled message not appended to cache: %+v", got)
	}
	conv, _ := rig.engine.Directory.Get("c1")
	if conv.LastMessage == nil || conv.LastMessage.Body != "hi" {
		t.Fatalf("send path must record the outgoing summary: %+v", conv.LastMessage)
	}
}

func TestForegroundAutoReadsMessageNotifications(t *testing.T) {
	rig := newTestRig(t)
	rig.engine.SetForeground(false)

	rig.engine.ReceiveRemoteMessage(domain.Message{
		ID: "m1", ConversationID: "c1", AuthorID: "u2", Body: "ping",
		Kind: domain.MessageKindText, CreatedAt: time.Now(),
	})
	if rig.engine.Notifications.UnreadCount() != 1 {
		t.Fatalf("expected one unread notification")
	}

	rig.engine.SetForeground(true)
	if rig.engine.Notifications.UnreadCount() != 0 {
		t.Fatalf("regaining foreground must auto-read message notifications")
	}
}

func TestLogoutWipesComposeState(t *testing.T) {
	rig := newTestRig(t)

	rig.engine.Drafts.SaveDraft("c1", "half-typed", nil, nil)
	rig.engine.Drafts.ScheduleMessage("c2", "later", time.Now().Add(time.Hour), nil, nil)
	rig.engine.Logout()

	if len(rig.engine.Drafts.Drafts()) != 0 || len(rig.engine.Drafts.ScheduledEntries()) != 0 {
		t.Fatalf("logout must wipe drafts and scheduled entries")
	}
	if len(rig.engine.Notifications.Notifications()) != 0 {
		t.Fatalf("logout must clear notifications")
	}
}
