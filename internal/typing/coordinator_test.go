package typing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deskwire-chat/pkg/logger"
)

type recordingForwarder struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (f *recordingForwarder) ForwardTyping(ctx context.Context, conversationID string, isTyping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, isTyping)
	return f.err
}

func (f *recordingForwarder) snapshot() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestTypingExpiresWithoutRefresh(t *testing.T) {
	fwd := &recordingForwarder{}
	c := NewCoordinator(fwd, 30*time.Millisecond, 10*time.Millisecond, logger.NewNop())
	defer c.Close()

	c.SetTyping(context.Background(), "c1", true)
	if !c.IsTyping("c1") {
		t.Fatalf("signal must be true right after SetTyping(true)")
	}

	deadline := time.After(time.Second)
	for c.IsTyping("c1") {
		select {
		case <-deadline:
			t.Fatalf("signal did not expire")
		case <-time.After(5 * time.Millisecond):
		}
	}

	for {
		calls := fwd.snapshot()
		if len(calls) >= 2 && calls[len(calls)-1] == false {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expiry must forward false, calls=%v", calls)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTypingStaysTrueWhenRefreshed(t *testing.T) {
	fwd := &recordingForwarder{}
	c := NewCoordinator(fwd, 60*time.Millisecond, 5*time.Millisecond, logger.NewNop())
	defer c.Close()

	c.SetTyping(context.Background(), "c1", true)
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		if !c.IsTyping("c1") {
			t.Fatalf("signal expired despite refresh %d", i)
		}
		c.SetTyping(context.Background(), "c1", true)
	}
}

func TestRapidTrueCallsAreDebounced(t *testing.T) {
	fwd := &recordingForwarder{}
	c := NewCoordinator(fwd, time.Second, time.Second, logger.NewNop())
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.SetTyping(context.Background(), "c1", true)
	}

	if calls := fwd.snapshot(); len(calls) != 1 {
		t.Fatalf("rapid repeats must coalesce into one forward, got %d", len(calls))
	}
}

func TestSetTypingFalseForwardsImmediately(t *testing.T) {
	fwd := &recordingForwarder{}
	c := NewCoordinator(fwd, time.Second, time.Second, logger.NewNop())
	defer c.Close()

	c.SetTyping(context.Background(), "c1", true)
	c.SetTyping(context.Background(), "c1", false)

	if c.IsTyping("c1") {
		t.Fatalf("signal must be false")
	}
	calls := fwd.snapshot()
	if len(calls) != 2 || calls[1] != false {
		t.Fatalf("false must be forwarded immediately, calls=%v", calls)
	}
}

func TestForwardFailureNeverBlocksComposing(t *testing.T) {
	fwd := &recordingForwarder{err: errors.New("network unreachable")}
	c := NewCoordinator(fwd, time.Second, 0, logger.NewNop())
	defer c.Close()

	c.SetTyping(context.Background(), "c1", true)
	if !c.IsTyping("c1") {
		t.Fatalf("local signal must be set regardless of forward failure")
	}
}

func TestCloseStopsExpiryTimers(t *testing.T) {
	fwd := &recordingForwarder{}
	c := NewCoordinator(fwd, 20*time.Millisecond, 0, logger.NewNop())

	c.SetTyping(context.Background(), "c1", true)
	c.Close()

	before := len(fwd.snapshot())
	time.Sleep(60 * time.Millisecond)
	if after := len(fwd.snapshot()); after != before {
		t.Fatalf("no forwards may happen after Close: %d -> %d", before, after)
	}
	if c.IsTyping("c1") {
		t.Fatalf("closed coordinator must report false")
	}
}
