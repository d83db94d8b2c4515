package scheduler

import (
	"context"
	"sync"
	"time"

	"deskwire-chat/internal/domain"
	"deskwire-chat/internal/drafts"
	"deskwire-chat/pkg/logger"
)

// Sender is the message-cache send path the scheduler hands due entries to.
type Sender interface {
	Send(ctx context.Context, conversationID, body string, kind domain.MessageKind, replyTo *string, attachments []domain.Attachment) (domain.Message, error)
}

// State of the timer loop.
type State string

const (
	StateIdle   State = "idle"
	StateArmed  State = "armed"
	StateFiring State = "firing"
)

// Scheduler promotes scheduled drafts into sent messages. Delivery is
// at-least-once: a failed send stays in the store for the next tick, and
// an attempted marker prevents dispatching the same entry twice within
// one pass.
type Scheduler struct {
	store    *drafts.Store
	sender   Sender
	log      *logger.Logger
	clock    func() time.Time
	interval time.Duration

	mu       sync.Mutex
	state    State
	attempts map[string]int
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(store *drafts.Store, sender Sender, interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    store,
		sender:   sender,
		log:      log,
		clock:    time.Now,
		interval: interval,
		state:    StateIdle,
		attempts: make(map[string]int),
	}
}

// Start arms the timer. An immediate pass runs first so entries whose
// trigger time elapsed while the process was down are sent without
// waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateArmed
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.CheckDue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDue(ctx)
		}
	}
}

// Stop cancels the timer loop and returns it to idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// State reports the current loop state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckDue runs one firing pass over the scheduled collection.
func (s *Scheduler) CheckDue(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateFiring {
		s.mu.Unlock()
		return
	}
	s.state = StateFiring
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateArmed
		s.mu.Unlock()
	}()

	now := s.clock()
	dispatched := make(map[string]bool)
	for _, entry := range s.store.ScheduledEntries() {
		if entry.ScheduledFor == nil || entry.ScheduledFor.After(now) {
			continue
		}
		if dispatched[entry.ID] {
			continue
		}
		dispatched[entry.ID] = true
		s.fire(ctx, entry)
	}
}

func (s *Scheduler) fire(ctx context.Context, entry domain.Draft) {
	_, err := s.sender.Send(ctx, entry.ConversationID, entry.Body, domain.MessageKindText, entry.ReplyToID, entry.Attachments)
	if err != nil {
		s.mu.Lock()
		s.attempts[entry.ID]++
		attempt := s.attempts[entry.ID]
		s.mu.Unlock()
		s.log.Warnf("scheduled send %s (attempt %d): %v", entry.ID, attempt, err)
		return
	}

	s.store.CancelScheduled(entry.ID)
	s.mu.Lock()
	delete(s.attempts, entry.ID)
	s.mu.Unlock()
	s.log.Infof("scheduled message %s sent to conversation %s", entry.ID, entry.ConversationID)
}
