// Package notify is the tab-wide notification and session-tracking store:
// unread entries for the bell dropdown, the "recently mutated" badge sets,
// and the toast-shown record. Every mutation is written through the kv port
// so a reload resumes where the previous load left off.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/bekzodm/murojaat-desk/internal/domain"
	"github.com/bekzodm/murojaat-desk/internal/repository/kv"
)

const (
	keyGeneral    = "notify:general"
	keyEscalated  = "notify:escalated"
	keyToastShown = "notify:toast_shown"

	keyAssignedSet  = "notify:assigned_sessions"
	keyClosedSet    = "notify:closed_sessions"
	keyEscalatedSet = "notify:escalated_sessions"
)

// TrackKind selects one of the "recently mutated, show a badge" sets.
type TrackKind string

const (
	TrackAssigned  TrackKind = "assigned"
	TrackClosed    TrackKind = "closed"
	TrackEscalated TrackKind = "escalated"
)

// Store holds all notification state. Mutations only ever happen through its
// methods, which keeps the in-memory state and the persisted blobs in step.
type Store struct {
	mu    sync.Mutex
	store kv.Store
	cap   int

	general    []domain.Notification
	escalated  []domain.Notification
	sets       map[TrackKind]map[string]struct{}
	toastShown map[string]struct{}
}

// NewStore rehydrates persisted state. Missing or corrupt blobs fall back to
// empty state; rehydration never fails.
func NewStore(store kv.Store, capacity int) *Store {
	s := &Store{
		store: store,
		cap:   capacity,
		sets: map[TrackKind]map[string]struct{}{
			TrackAssigned:  {},
			TrackClosed:    {},
			TrackEscalated: {},
		},
		toastShown: make(map[string]struct{}),
	}

	ctx := context.Background()
	s.loadList(ctx, keyGeneral, &s.general)
	s.loadList(ctx, keyEscalated, &s.escalated)
	s.loadSet(ctx, keyAssignedSet, s.sets[TrackAssigned])
	s.loadSet(ctx, keyClosedSet, s.sets[TrackClosed])
	s.loadSet(ctx, keyEscalatedSet, s.sets[TrackEscalated])
	s.loadSet(ctx, keyToastShown, s.toastShown)
	return s
}

func (s *Store) loadList(ctx context.Context, key string, dst *[]domain.Notification) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return
	}
	var list []domain.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Printf("[NOTIFY] Corrupt blob for %s, starting empty: %v", key, err)
		return
	}
	*dst = list
}

func (s *Store) loadSet(ctx context.Context, key string, dst map[string]struct{}) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("[NOTIFY] Corrupt blob for %s, starting empty: %v", key, err)
		return
	}
	for _, item := range items {
		dst[item] = struct{}{}
	}
}

// Add inserts a notification at the head of the general list unless an
// unread entry for the same session already exists, in which case the event
// is dropped. Returns whether the notification was kept.
func (s *Store) Add(ctx context.Context, n domain.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.insert(&s.general, n) {
		return false
	}
	s.persistList(ctx, keyGeneral, s.general)
	return true
}

// AddEscalated is Add for the escalation feed's own list.
func (s *Store) AddEscalated(ctx context.Context, n domain.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.insert(&s.escalated, n) {
		return false
	}
	s.persistList(ctx, keyEscalated, s.escalated)
	return true
}

// insert applies the dedup rule: at most one unread entry per session_uuid.
func (s *Store) insert(list *[]domain.Notification, n domain.Notification) bool {
	for _, existing := range *list {
		if !existing.Read && existing.SessionUUID == n.SessionUUID {
			return false
		}
	}
	n.Read = false
	*list = append([]domain.Notification{n}, *list...)
	if len(*list) > s.cap {
		*list = (*list)[:s.cap]
	}
	return true
}

// MarkAllRead flips read on every entry in both lists. History stays
// visible, just de-emphasized.
func (s *Store) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.general {
		s.general[i].Read = true
	}
	for i := range s.escalated {
		s.escalated[i].Read = true
	}
	s.persistList(ctx, keyGeneral, s.general)
	s.persistList(ctx, keyEscalated, s.escalated)
}

// UnreadCount sums unread entries across the general and escalated lists.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.general {
		if !n.Read {
			count++
		}
	}
	for _, n := range s.escalated {
		if !n.Read {
			count++
		}
	}
	return count
}

// Notifications returns a snapshot of the general list, newest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.general))
	copy(out, s.general)
	return out
}

// EscalatedNotifications returns a snapshot of the escalated list.
func (s *Store) EscalatedNotifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.escalated))
	copy(out, s.escalated)
	return out
}

// Track adds a session to the given badge set.
func (s *Store) Track(ctx context.Context, kind TrackKind, sessionUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[kind][sessionUUID] = struct{}{}
	s.persistSet(ctx, kind)
}

// Untrack removes one session from the given set.
func (s *Store) Untrack(ctx context.Context, kind TrackKind, sessionUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets[kind], sessionUUID)
	s.persistSet(ctx, kind)
}

// IsTracked reports whether one session is in the set.
func (s *Store) IsTracked(kind TrackKind, sessionUUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sets[kind][sessionUUID]
	return ok
}

// HasTracked reports whether the set is non-empty (drives the badge).
func (s *Store) HasTracked(kind TrackKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets[kind]) > 0
}

// ClearTracked empties a set. Called when the matching list view opens:
// visiting the view is what marks these as seen, independent of the
// notification read flag.
func (s *Store) ClearTracked(ctx context.Context, kind TrackKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[kind] = make(map[string]struct{})
	s.persistSet(ctx, kind)
}

// MarkToastShown records that a toast was shown for this session. Returns
// true only the first time, so a session triggers at most one toast even
// across reloads.
func (s *Store) MarkToastShown(ctx context.Context, sessionUUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, shown := s.toastShown[sessionUUID]; shown {
		return false
	}
	s.toastShown[sessionUUID] = struct{}{}
	s.persistStringSet(ctx, keyToastShown, s.toastShown)
	return true
}

func (s *Store) persistList(ctx context.Context, key string, list []domain.Notification) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, string(raw)); err != nil {
		log.Printf("[NOTIFY] Warning: failed to persist %s: %v", key, err)
	}
}

func (s *Store) persistSet(ctx context.Context, kind TrackKind) {
	key := keyAssignedSet
	switch kind {
	case TrackClosed:
		key = keyClosedSet
	case TrackEscalated:
		key = keyEscalatedSet
	}
	s.persistStringSet(ctx, key, s.sets[kind])
}

// persistStringSet serializes a set as a JSON array of its members.
func (s *Store) persistStringSet(ctx context.Context, key string, set map[string]struct{}) {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, string(raw)); err != nil {
		log.Printf("[NOTIFY] Warning: failed to persist %s: %v", key, err)
	}
}
