package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hyeon/campus-notices/internal/models"
)

// memStorage is an in-memory Storage for tests. writeErr/readErr simulate
// quota or disabled-storage failures.
type memStorage struct {
	data     []byte
	writes   int
	readErr  error
	writeErr error
}

func (m *memStorage) Read() ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.data, nil
}

func (m *memStorage) Write(data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

func kst(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.FixedZone("KST", 9*60*60))
}

func TestAddEvent_Idempotent(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	start := kst(2025, time.December, 17, 23, 59)

	first := store.AddEvent(AddEventInput{NoticeID: "42", Title: "장학금 신청 마감", StartAt: start})
	if first.Status != StatusAdded {
		t.Fatalf("expected added, got %s", first.Status)
	}
	if first.Event.ID == "" || first.Event.Source != models.EventSourceManual {
		t.Fatalf("unexpected event: %+v", first.Event)
	}

	// Same identity, different title: still a duplicate.
	second := store.AddEvent(AddEventInput{NoticeID: "42", Title: "다른 제목", StartAt: start})
	if second.Status != StatusDuplicate {
		t.Fatalf("expected duplicate, got %s", second.Status)
	}
	if second.Event.ID != first.Event.ID {
		t.Fatal("duplicate must return the existing event")
	}

	if got := len(store.Events()); got != 1 {
		t.Fatalf("expected exactly one persisted event, got %d", got)
	}
	if storage.writes != 1 {
		t.Fatalf("duplicate must not write, got %d writes", storage.writes)
	}
}

func TestAddEvent_DifferentStartIsNotDuplicate(t *testing.T) {
	store := NewStore(&memStorage{})
	defer store.Close()

	store.AddEvent(AddEventInput{NoticeID: "42", Title: "마감", StartAt: kst(2025, time.December, 17, 23, 59)})
	res := store.AddEvent(AddEventInput{NoticeID: "42", Title: "면접", StartAt: kst(2025, time.December, 20, 14, 0)})
	if res.Status != StatusAdded {
		t.Fatalf("expected added for different start, got %s", res.Status)
	}
	if got := len(store.Events()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
}

func TestRemoveEvent(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	res := store.AddEvent(AddEventInput{NoticeID: "1", Title: "마감", StartAt: kst(2025, time.November, 3, 23, 59)})
	store.RemoveEvent(res.Event.ID)
	if got := len(store.Events()); got != 0 {
		t.Fatalf("expected empty store, got %d", got)
	}

	// Unknown id: silent no-op, no extra write.
	writes := storage.writes
	store.RemoveEvent("no-such-id")
	if storage.writes != writes {
		t.Fatal("removing an unknown id must not write")
	}
}

func TestSyncNoticeEvents(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	start := kst(2025, time.November, 3, 23, 59)
	end := kst(2025, time.November, 30, 23, 59)

	notices := []models.Notice{
		{ID: 1, Title: "장학금", StartAtAI: &start, EndAtAI: &end},
		{ID: 1, Title: "장학금 (중복)", StartAtAI: &start}, // same identity within the batch
		{ID: 2, Title: "기숙사"},                          // no timestamps: skipped
		{ID: 3, Title: "교환학생", EndAtAI: &end},          // falls back to end timestamp
	}

	store.SyncNoticeEvents(notices)

	events := store.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 net-new events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Source != models.EventSourceAuto {
			t.Fatalf("sync must create auto-sourced events, got %q", ev.Source)
		}
	}
	if storage.writes != 1 {
		t.Fatalf("batch must persist in one write, got %d", storage.writes)
	}

	// Re-running the same batch stages nothing and writes nothing.
	store.SyncNoticeEvents(notices)
	if storage.writes != 1 {
		t.Fatalf("re-sync must be a no-op, got %d writes", storage.writes)
	}
}

func TestSyncSkipsIdentitiesAlreadyInStorage(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	start := kst(2025, time.November, 3, 23, 59)
	store.AddEvent(AddEventInput{NoticeID: "7", Title: "수동 저장", StartAt: start})

	store.SyncNoticeEvents([]models.Notice{{ID: 7, Title: "공지", StartAtAI: &start}})
	if got := len(store.Events()); got != 1 {
		t.Fatalf("expected manual event to block auto duplicate, got %d", got)
	}
}

func TestHydrateRoundTrip(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	end := kst(2025, time.December, 1, 9, 0)
	res := store.AddEvent(AddEventInput{
		NoticeID: "42",
		Title:    "장학금 신청 마감",
		StartAt:  kst(2025, time.November, 3, 23, 59),
		EndAt:    &end,
		Source:   models.EventSourceManual,
	})

	// A second store over the same storage sees the identical event.
	other := NewStore(storage)
	defer other.Close()
	events := other.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event after rehydrate, got %d", len(events))
	}

	got := events[0]
	want := res.Event
	if got.ID != want.ID || got.NoticeID != want.NoticeID || got.Title != want.Title || got.Source != want.Source {
		t.Fatalf("round-trip mismatch: %+v vs %+v", got, want)
	}
	if !got.StartAt.Equal(want.StartAt) || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("timestamp mismatch: %+v vs %+v", got, want)
	}
	if got.EndAt == nil || !got.EndAt.Equal(*want.EndAt) {
		t.Fatalf("end date mismatch: %v vs %v", got.EndAt, want.EndAt)
	}
}

func TestHydrateDegradesOnFailure(t *testing.T) {
	store := NewStore(&memStorage{readErr: errors.New("storage disabled")})
	defer store.Close()
	if got := len(store.Events()); got != 0 {
		t.Fatalf("read failure must degrade to empty list, got %d", got)
	}

	corrupt := NewStore(&memStorage{data: []byte("{{not json")})
	defer corrupt.Close()
	if got := len(corrupt.Events()); got != 0 {
		t.Fatalf("corrupt document must degrade to empty list, got %d", got)
	}
}

func TestWriteFailureKeepsOptimisticState(t *testing.T) {
	storage := &memStorage{writeErr: errors.New("quota exceeded")}
	store := NewStore(storage)
	defer store.Close()

	res := store.AddEvent(AddEventInput{NoticeID: "1", Title: "마감", StartAt: kst(2025, time.November, 3, 23, 59)})
	if res.Status != StatusAdded {
		t.Fatalf("add must report success even when persistence fails, got %s", res.Status)
	}
	if got := len(store.Events()); got != 1 {
		t.Fatalf("optimistic state must keep the event, got %d", got)
	}

	// A later hydrate reconciles with durable state, which never saw it.
	store.Hydrate()
	if got := len(store.Events()); got != 0 {
		t.Fatalf("hydrate must reflect durable state, got %d", got)
	}
}

func TestExternalChangeTriggersRehydrate(t *testing.T) {
	storage := &memStorage{}
	store := NewStore(storage)
	defer store.Close()

	// Simulate another process writing directly to storage.
	external := []models.CalendarEvent{{
		ID:        "ext-1",
		NoticeID:  "9",
		Title:     "외부 저장",
		StartAt:   kst(2025, time.November, 3, 23, 59),
		CreatedAt: time.Now(),
		Source:    models.EventSourceManual,
	}}
	data, err := json.Marshal(external)
	if err != nil {
		t.Fatal(err)
	}
	storage.data = data

	store.Hydrate()
	events := store.Events()
	if len(events) != 1 || events[0].ID != "ext-1" {
		t.Fatalf("expected external event after rehydrate, got %+v", events)
	}
}
