// Package calendar maintains the user's locally saved notice deadlines: one
// durable JSON document of events, shared with other processes through the
// storage layer's change notifications.
package calendar

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyeon/campus-notices/internal/models"
)

// Storage is the persistence collaborator: one logical document, read and
// written in full. Implementations that can observe external writers also
// implement Watcher.
type Storage interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// Watcher delivers a signal whenever another context mutates the document.
// The signal carries no payload; receivers always re-read in full.
type Watcher interface {
	Watch(onChange func()) (stop func(), err error)
}

// AddStatus classifies the outcome of AddEvent. Duplicate submission is a
// first-class successful outcome, not an error.
type AddStatus string

const (
	StatusAdded     AddStatus = "added"
	StatusDuplicate AddStatus = "duplicate"
)

// AddResult reports what AddEvent did. On StatusDuplicate, Event is the
// pre-existing event the input collided with.
type AddResult struct {
	Status AddStatus            `json:"status"`
	Event  models.CalendarEvent `json:"event"`
}

// AddEventInput describes an event to save. NoticeID plus the ISO form of
// StartAt is the identity used for duplicate detection.
type AddEventInput struct {
	NoticeID string
	Title    string
	StartAt  time.Time
	EndAt    *time.Time
	Source   string
}

// Store is the single source of truth for saved events within this process.
// It hydrates from storage on construction and re-hydrates whenever the
// storage layer reports an external write.
//
// Known limitation: the duplicate check runs against the last hydrated
// snapshot, so two processes adding the same event concurrently can both
// pass it and both write. This is accepted for a personal convenience
// feature; the store adds no cross-process locking.
type Store struct {
	mu      sync.Mutex
	storage Storage
	events  []models.CalendarEvent

	subs    map[int]func()
	nextSub int

	stopWatch func()
}

// NewStore builds a store over the given storage and hydrates it. If the
// storage supports watching, external changes trigger re-hydration and
// subscriber notification for the store's lifetime (until Close).
func NewStore(storage Storage) *Store {
	s := &Store{
		storage: storage,
		subs:    map[int]func(){},
	}
	s.Hydrate()

	if w, ok := storage.(Watcher); ok {
		stop, err := w.Watch(func() {
			s.Hydrate()
			s.notify()
		})
		if err != nil {
			log.Printf("calendar: storage watch unavailable: %v", err)
		} else {
			s.stopWatch = stop
		}
	}

	return s
}

// Close tears the store down, unregistering the storage watcher.
func (s *Store) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

// Subscribe registers a callback invoked after any change to the event list,
// local or external. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Hydrate replaces the in-memory working set with the persisted state.
// Read or decode failures degrade to an empty list.
func (s *Store) Hydrate() {
	events := []models.CalendarEvent{}

	data, err := s.storage.Read()
	if err != nil {
		log.Printf("calendar: storage read failed, starting empty: %v", err)
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &events); err != nil {
			log.Printf("calendar: corrupt event document, starting empty: %v", err)
			events = []models.CalendarEvent{}
		}
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
}

// Events returns a copy of the current working set in insertion order.
func (s *Store) Events() []models.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CalendarEvent, len(s.events))
	copy(out, s.events)
	return out
}

// AddEvent appends a new event unless one with the same notice id and start
// timestamp already exists. Calling twice with identical input never creates
// two rows; the second call reports the existing event as a duplicate.
func (s *Store) AddEvent(input AddEventInput) AddResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	startISO := input.StartAt.Format(time.RFC3339)
	for _, ev := range s.events {
		if ev.NoticeID == input.NoticeID && ev.StartAt.Format(time.RFC3339) == startISO {
			return AddResult{Status: StatusDuplicate, Event: ev}
		}
	}

	source := input.Source
	if source == "" {
		source = models.EventSourceManual
	}

	event := models.CalendarEvent{
		ID:        uuid.NewString(),
		NoticeID:  input.NoticeID,
		Title:     input.Title,
		StartAt:   input.StartAt,
		EndAt:     input.EndAt,
		CreatedAt: time.Now(),
		Source:    source,
	}

	s.events = append(s.events, event)
	s.persistLocked()
	s.notifyLocked()

	return AddResult{Status: StatusAdded, Event: event}
}

// RemoveEvent deletes the event with the given id. Unknown ids are a silent
// no-op.
func (s *Store) RemoveEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	removed := false
	for _, ev := range s.events {
		if ev.ID == id {
			removed = true
			continue
		}
		kept = append(kept, ev)
	}
	if !removed {
		return
	}

	s.events = kept
	s.persistLocked()
	s.notifyLocked()
}

// SyncNoticeEvents bulk-reconciles auto-sourced events from notices carrying
// AI-derived timestamps. Notices without a resolvable start (falling back to
// the end timestamp) are skipped, as is any (notice, start) identity already
// present in storage or staged earlier in the same batch. All net-new events
// are persisted in one write.
func (s *Store) SyncNoticeEvents(notices []models.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	for _, ev := range s.events {
		seen[ev.NoticeID+"|"+ev.StartAt.Format(time.RFC3339)] = true
	}

	added := 0
	for _, n := range notices {
		start := n.StartAtAI
		if start == nil {
			start = n.EndAtAI
		}
		if start == nil {
			continue
		}

		noticeID := strconv.FormatInt(n.ID, 10)
		key := noticeID + "|" + start.Format(time.RFC3339)
		if seen[key] {
			continue
		}
		seen[key] = true

		s.events = append(s.events, models.CalendarEvent{
			ID:        uuid.NewString(),
			NoticeID:  noticeID,
			Title:     n.Title,
			StartAt:   *start,
			EndAt:     n.EndAtAI,
			CreatedAt: time.Now(),
			Source:    models.EventSourceAuto,
		})
		added++
	}

	if added == 0 {
		return
	}

	s.persistLocked()
	s.notifyLocked()
}

// persistLocked writes the full working set back to storage. Write failures
// are not retried: the in-memory state stays optimistic and a later hydrate
// reconciles it with whatever is actually durable.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.events)
	if err != nil {
		log.Printf("calendar: encode failed, change not persisted: %v", err)
		return
	}
	if err := s.storage.Write(data); err != nil {
		log.Printf("calendar: storage write failed, change not persisted: %v", err)
	}
}

// notifyLocked schedules subscriber callbacks for a local write. Callbacks
// run outside the lock so subscribers may call back into the store.
func (s *Store) notifyLocked() {
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	go func() {
		for _, fn := range fns {
			fn()
		}
	}()
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
