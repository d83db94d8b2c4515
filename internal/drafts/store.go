package drafts

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"deskwire-chat/internal/domain"
	"deskwire-chat/pkg/logger"
)

// Pebble keys holding the serialized collections. Both collections are
// re-persisted wholesale on every mutation so a crash loses at most the
// operation in flight.
const (
	draftsKey    = "drafts"
	scheduledKey = "scheduled"
)

// Store keeps unsent drafts and scheduled messages, backed by an embedded
// pebble database. In-memory state stays authoritative for the process
// lifetime; persistence failures are logged, not propagated.
type Store struct {
	mu        sync.Mutex
	db        *pebble.DB
	log       *logger.Logger
	drafts    map[string]domain.Draft // by draft id
	scheduled map[string]domain.Draft // by draft id
	clock     func() time.Time
}

func NewStore(db *pebble.DB, log *logger.Logger) (*Store, error) {
	s := &Store{
		db:        db,
		log:       log,
		drafts:    make(map[string]domain.Draft),
		scheduled: make(map[string]domain.Draft),
		clock:     time.Now,
	}
	if err := s.loadCollection(draftsKey, s.drafts); err != nil {
		return nil, err
	}
	if err := s.loadCollection(scheduledKey, s.scheduled); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadCollection(key string, into map[string]domain.Draft) error {
	data, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	defer closer.Close()

	var entries []domain.Draft
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	for _, d := range entries {
		into[d.ID] = d
	}
	return nil
}

// SaveDraft upserts the draft for a conversation. An existing draft keeps
// its identity and creation time; only body, attachments and updated_at
// change.
func (s *Store) SaveDraft(conversationID, body string, attachments []domain.Attachment, replyTo *string) domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for id, d := range s.drafts {
		if d.ConversationID == conversationID {
			d.Body = body
			d.Attachments = attachments
			d.ReplyToID = replyTo
			d.UpdatedAt = now
			s.drafts[id] = d
			s.persist()
			return d
		}
	}

	d := domain.Draft{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Body:           body,
		Attachments:    attachments,
		ReplyToID:      replyTo,
		IsDraft:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.drafts[d.ID] = d
	s.persist()
	return d
}

// UpdateDraft mutates a draft by identity. Unknown ids are a no-op.
func (s *Store) UpdateDraft(draftID, body string, attachments []domain.Attachment) (domain.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return domain.Draft{}, false
	}
	d.Body = body
	d.Attachments = attachments
	d.UpdatedAt = s.clock()
	s.drafts[draftID] = d
	s.persist()
	return d, true
}

func (s *Store) DeleteDraft(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[draftID]; !ok {
		return
	}
	delete(s.drafts, draftID)
	s.persist()
}

// DraftForConversation returns the conversation's ordinary draft, if any.
func (s *Store) DraftForConversation(conversationID string) (domain.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drafts {
		if d.ConversationID == conversationID {
			return d, true
		}
	}
	return domain.Draft{}, false
}

// ScheduleMessage creates a scheduled entry with a fresh identity and
// removes any ordinary draft for the conversation. Scheduling again for
// the same conversation replaces the previous scheduled entry: at most
// one pending compose-state exists per conversation.
func (s *Store) ScheduleMessage(conversationID, body string, scheduledFor time.Time, attachments []domain.Attachment, replyTo *string) domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, d := range s.drafts {
		if d.ConversationID == conversationID {
			delete(s.drafts, id)
		}
	}
	for id, d := range s.scheduled {
		if d.ConversationID == conversationID {
			delete(s.scheduled, id)
		}
	}

	now := s.clock()
	d := domain.Draft{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Body:           body,
		Attachments:    attachments,
		ReplyToID:      replyTo,
		ScheduledFor:   &scheduledFor,
		IsDraft:        false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.scheduled[d.ID] = d
	s.persist()
	return d
}

// CancelScheduled removes a scheduled entry before it fires. Removing an
// entry that already fired is a no-op.
func (s *Store) CancelScheduled(draftID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scheduled[draftID]; !ok {
		return false
	}
	delete(s.scheduled, draftID)
	s.persist()
	return true
}

// Drafts returns all ordinary drafts, most recently updated first.
func (s *Store) Drafts() []domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// ScheduledEntries returns all scheduled entries ordered by trigger time.
func (s *Store) ScheduledEntries() []domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Draft, 0, len(s.scheduled))
	for _, d := range s.scheduled {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(*out[j].ScheduledFor) })
	return out
}

// ClearAll wipes both collections and their durable backing, for
// logout/reset.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts = make(map[string]domain.Draft)
	s.scheduled = make(map[string]domain.Draft)
	s.persist()
}

// persist writes both collections back to pebble with fsync. Caller must
// hold s.mu.
func (s *Store) persist() {
	s.persistCollection(draftsKey, s.drafts)
	s.persistCollection(scheduledKey, s.scheduled)
}

func (s *Store) persistCollection(key string, coll map[string]domain.Draft) {
	entries := make([]domain.Draft, 0, len(coll))
	for _, d := range coll {
		entries = append(entries, d)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	data, err := json.Marshal(entries)
	if err != nil {
		s.log.Errorf("marshal %s collection: %v", key, err)
		return
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		s.log.Errorf("persist %s collection: %v", key, err)
	}
}
