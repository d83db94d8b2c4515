package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"deskwire-chat/internal/domain"
	"deskwire-chat/pkg/logger"
)

// maxNotifications caps the retained list; eviction is strictly by age.
const maxNotifications = 50

// Permission is the platform alert permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Alerter is the host platform's alert-display facility. The platform
// owns the permission prompt; the dispatcher caches the decision.
type Alerter interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Alert(ctx context.Context, n domain.Notification) error
}

// Draft is the caller-supplied part of a notification; the dispatcher
// assigns identity and timestamp.
type Draft struct {
	Kind           domain.NotificationKind
	Title          string
	Body           string
	SenderID       string
	SenderName     string
	ConversationID string
	MessageID      string
	Priority       domain.NotificationPriority
}

// Dispatcher surfaces new-message events outside the active view. All
// operations are best-effort and never propagate errors to the caller.
type Dispatcher struct {
	mu            sync.Mutex
	alerter       Alerter
	log           *logger.Logger
	currentUserID string
	permission    Permission
	notifications []domain.Notification
	clock         func() time.Time
}

func NewDispatcher(alerter Alerter, currentUserID string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		alerter:       alerter,
		log:           log,
		currentUserID: currentUserID,
		permission:    PermissionDefault,
		clock:         time.Now,
	}
}

// RequestPermission is idempotent: once the platform has decided, the
// cached answer is returned without re-prompting.
func (d *Dispatcher) RequestPermission(ctx context.Context) Permission {
	d.mu.Lock()
	if d.permission != PermissionDefault {
		p := d.permission
		d.mu.Unlock()
		return p
	}
	d.mu.Unlock()

	if d.alerter == nil {
		return PermissionDefault
	}
	p, err := d.alerter.RequestPermission(ctx)
	if err != nil {
		d.log.Warnf("request alert permission: %v", err)
		return PermissionDefault
	}

	d.mu.Lock()
	d.permission = p
	d.mu.Unlock()
	return p
}

// Add assigns identity and timestamp, prepends to the bounded list and,
// when the event came from someone else and permission is granted, fires
// the platform alert.
func (d *Dispatcher) Add(draft Draft) domain.Notification {
	if draft.Priority == "" {
		draft.Priority = domain.NotificationPriorityMedium
	}
	n := domain.Notification{
		ID:             uuid.New().String(),
		Kind:           draft.Kind,
		Title:          draft.Title,
		Body:           draft.Body,
		SenderID:       draft.SenderID,
		SenderName:     draft.SenderName,
		ConversationID: draft.ConversationID,
		MessageID:      draft.MessageID,
		Timestamp:      d.clock(),
		Priority:       draft.Priority,
	}

	d.mu.Lock()
	d.notifications = append([]domain.Notification{n}, d.notifications...)
	if len(d.notifications) > maxNotifications {
		d.notifications = d.notifications[:maxNotifications]
	}
	shouldAlert := d.permission == PermissionGranted && draft.SenderID != d.currentUserID
	d.mu.Unlock()

	if shouldAlert && d.alerter != nil {
		go d.deliver(n)
	}
	return n
}

func (d *Dispatcher) deliver(n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.alerter.Alert(ctx, n); err != nil {
		d.log.Warnf("platform alert %s: %v", n.ID, err)
	}
}

func (d *Dispatcher) MarkRead(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.notifications {
		if d.notifications[i].ID == id {
			d.notifications[i].Read = true
			return
		}
	}
}

func (d *Dispatcher) MarkAllRead() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.notifications {
		d.notifications[i].Read = true
	}
}

func (d *Dispatcher) Clear(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.notifications {
		if d.notifications[i].ID == id {
			d.notifications = append(d.notifications[:i], d.notifications[i+1:]...)
			return
		}
	}
}

func (d *Dispatcher) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = nil
}

// HandleFocus marks unread message-kind notifications read when the host
// view regains the foreground. Mentions, reactions and system notices are
// left for explicit dismissal.
func (d *Dispatcher) HandleFocus() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.notifications {
		if !d.notifications[i].Read && d.notifications[i].Kind == domain.NotificationKindMessage {
			d.notifications[i].Read = true
		}
	}
}

// Notifications returns a copy of the list, most recent first.
func (d *Dispatcher) Notifications() []domain.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Notification, len(d.notifications))
	copy(out, d.notifications)
	return out
}

// UnreadCount returns the number of unread notifications.
func (d *Dispatcher) UnreadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for i := range d.notifications {
		if !d.notifications[i].Read {
			count++
		}
	}
	return count
}
