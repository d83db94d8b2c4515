package drafts

import (
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"deskwire-chat/internal/domain"
	"deskwire-chat/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *pebble.DB) {
	t.Helper()
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db, logger.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, db
}

func TestSaveDraftRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	atts := []domain.Attachment{{ID: "a1", Name: "report.pdf", Size: 2048, MimeType: "application/pdf"}}
	saved := s.SaveDraft("conv-1", "half-written reply", atts, nil)

	got, ok := s.DraftForConversation("conv-1")
	if !ok {
		t.Fatalf("expected draft for conv-1")
	}
	if got.ID != saved.ID {
		t.Fatalf("identity mismatch: %s vs %s", got.ID, saved.ID)
	}
	if got.Body != "half-written reply" {
		t.Fatalf("body mismatch: %q", got.Body)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "report.pdf" {
		t.Fatalf("attachments not round-tripped: %+v", got.Attachments)
	}
	if !got.IsDraft {
		t.Fatalf("expected IsDraft")
	}
}

func TestSaveDraftUpsertsByConversation(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.SaveDraft("conv-1", "v1", nil, nil)
	second := s.SaveDraft("conv-1", "v2", nil, nil)

	if second.ID != first.ID {
		t.Fatalf("upsert must preserve identity: %s vs %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert must preserve creation time")
	}
	if len(s.Drafts()) != 1 {
		t.Fatalf("expected exactly one draft, got %d", len(s.Drafts()))
	}
	got, _ := s.DraftForConversation("conv-1")
	if got.Body != "v2" {
		t.Fatalf("body not updated: %q", got.Body)
	}
}

func TestUpdateDraftUnknownIDIsNoop(t *testing.T) {
	s, _ := newTestStore(t)

	if _, ok := s.UpdateDraft("missing", "body", nil); ok {
		t.Fatalf("update of unknown id must be a no-op")
	}
}

func TestScheduleRemovesOrdinaryDraft(t *testing.T) {
	s, _ := newTestStore(t)

	s.SaveDraft("conv-1", "draft text", nil, nil)
	entry := s.ScheduleMessage("conv-1", "send me later", time.Now().Add(time.Hour), nil, nil)

	if _, ok := s.DraftForConversation("conv-1"); ok {
		t.Fatalf("scheduling must remove the ordinary draft")
	}
	scheduled := s.ScheduledEntries()
	if len(scheduled) != 1 || scheduled[0].ID != entry.ID {
		t.Fatalf("expected exactly the scheduled entry, got %+v", scheduled)
	}
	if scheduled[0].IsDraft {
		t.Fatalf("scheduled entry must not be flagged as draft")
	}
}

func TestScheduleAgainReplacesPriorEntry(t *testing.T) {
	s, _ := newTestStore(t)

	s.ScheduleMessage("conv-1", "first", time.Now().Add(time.Hour), nil, nil)
	second := s.ScheduleMessage("conv-1", "second", time.Now().Add(2*time.Hour), nil, nil)

	scheduled := s.ScheduledEntries()
	if len(scheduled) != 1 {
		t.Fatalf("re-scheduling must replace, got %d entries", len(scheduled))
	}
	if scheduled[0].ID != second.ID || scheduled[0].Body != "second" {
		t.Fatalf("wrong surviving entry: %+v", scheduled[0])
	}
}

func TestCancelScheduled(t *testing.T) {
	s, _ := newTestStore(t)

	entry := s.ScheduleMessage("conv-1", "later", time.Now().Add(time.Hour), nil, nil)
	if !s.CancelScheduled(entry.ID) {
		t.Fatalf("cancel of live entry must succeed")
	}
	if s.CancelScheduled(entry.ID) {
		t.Fatalf("second cancel must be a no-op")
	}
	if len(s.ScheduledEntries()) != 0 {
		t.Fatalf("entry not removed")
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	s, db := newTestStore(t)

	s.SaveDraft("conv-1", "survives restarts", nil, nil)
	s.ScheduleMessage("conv-2", "scheduled text", time.Now().Add(time.Hour), nil, nil)

	reopened, err := NewStore(db, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if d, ok := reopened.DraftForConversation("conv-1"); !ok || d.Body != "survives restarts" {
		t.Fatalf("draft lost across restart: %+v ok=%v", d, ok)
	}
	if entries := reopened.ScheduledEntries(); len(entries) != 1 || entries[0].Body != "scheduled text" {
		t.Fatalf("scheduled entry lost across restart: %+v", entries)
	}
}

func TestClearAll(t *testing.T) {
	s, db := newTestStore(t)

	s.SaveDraft("conv-1", "a", nil, nil)
	s.ScheduleMessage("conv-2", "b", time.Now().Add(time.Hour), nil, nil)
	s.ClearAll()

	if len(s.Drafts()) != 0 || len(s.ScheduledEntries()) != 0 {
		t.Fatalf("ClearAll left entries behind")
	}

	reopened, err := NewStore(db, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if len(reopened.Drafts()) != 0 || len(reopened.ScheduledEntries()) != 0 {
		t.Fatalf("ClearAll did not reach durable storage")
	}
}

func TestDeleteDraft(t *testing.T) {
	s, _ := newTestStore(t)

	d := s.SaveDraft("conv-1", "bye", nil, nil)
	s.DeleteDraft(d.ID)
	if _, ok := s.DraftForConversation("conv-1"); ok {
		t.Fatalf("draft not deleted")
	}
	// unknown id is a no-op
	s.DeleteDraft("missing")
}
