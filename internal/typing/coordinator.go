package typing

import (
	"context"
	"sync"
	"time"

	"deskwire-chat/pkg/logger"
)

// Forwarder mirrors a typing signal to the remote store. Forwarding is
// best-effort: errors are logged and never block composing.
type Forwarder interface {
	ForwardTyping(ctx context.Context, conversationID string, isTyping bool) error
}

type convState struct {
	active      bool
	expire      *time.Timer
	lastForward time.Time
}

// Coordinator keeps a self-expiring per-conversation typing signal.
// Each SetTyping(true) resets the local expiry window; the remote forward
// is debounced so rapid keystrokes coalesce into one call.
type Coordinator struct {
	mu       sync.Mutex
	fwd      Forwarder
	log      *logger.Logger
	expiry   time.Duration
	debounce time.Duration
	states   map[string]*convState
	closed   bool
}

func NewCoordinator(fwd Forwarder, expiry, debounce time.Duration, log *logger.Logger) *Coordinator {
	if expiry <= 0 {
		expiry = 3 * time.Second
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Coordinator{
		fwd:      fwd,
		log:      log,
		expiry:   expiry,
		debounce: debounce,
		states:   make(map[string]*convState),
	}
}

// SetTyping updates the local signal and forwards it. true re-arms the
// expiry timer; false cancels it and forwards immediately.
func (c *Coordinator) SetTyping(ctx context.Context, conversationID string, isTyping bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	st, ok := c.states[conversationID]
	if !ok {
		st = &convState{}
		c.states[conversationID] = st
	}

	if !isTyping {
		st.active = false
		if st.expire != nil {
			st.expire.Stop()
			st.expire = nil
		}
		st.lastForward = time.Time{}
		c.mu.Unlock()
		c.forward(ctx, conversationID, false)
		return
	}

	st.active = true
	if st.expire != nil {
		st.expire.Stop()
	}
	st.expire = time.AfterFunc(c.expiry, func() {
		c.expire(conversationID)
	})

	now := time.Now()
	shouldForward := st.lastForward.IsZero() || now.Sub(st.lastForward) >= c.debounce
	if shouldForward {
		st.lastForward = now
	}
	c.mu.Unlock()

	if shouldForward {
		c.forward(ctx, conversationID, true)
	}
}

// IsTyping reports the current local signal for a conversation.
func (c *Coordinator) IsTyping(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[conversationID]
	return ok && st.active
}

// Close stops every pending expiry timer; used on teardown/logout.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, st := range c.states {
		if st.expire != nil {
			st.expire.Stop()
			st.expire = nil
		}
		st.active = false
	}
}

// expire forces the signal back to false once the window elapses with no
// refresh.
func (c *Coordinator) expire(conversationID string) {
	c.mu.Lock()
	st, ok := c.states[conversationID]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}
	st.active = false
	st.expire = nil
	st.lastForward = time.Time{}
	c.mu.Unlock()

	c.forward(context.Background(), conversationID, false)
}

func (c *Coordinator) forward(ctx context.Context, conversationID string, isTyping bool) {
	if c.fwd == nil {
		return
	}
	if err := c.fwd.ForwardTyping(ctx, conversationID, isTyping); err != nil {
		c.log.Warnf("forward typing signal for %s: %v", conversationID, err)
	}
}
