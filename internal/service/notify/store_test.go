package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bekzodm/murojaat-desk/internal/domain"
	"github.com/bekzodm/murojaat-desk/internal/repository/kv"
)

func notification(sessionUUID string) domain.Notification {
	return domain.Notification{
		ID:          "n-" + sessionUUID,
		SessionUUID: sessionUUID,
		CitizenName: "Aziz",
		CreatedAt:   time.Now(),
	}
}

func TestAdd_DedupBySessionUUID(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	if !store.Add(ctx, notification("s-1")) {
		t.Fatal("first notification should be kept")
	}
	if store.Add(ctx, notification("s-1")) {
		t.Error("second event for an unread session must be dropped")
	}
	if got := len(store.Notifications()); got != 1 {
		t.Errorf("list length = %d, want 1", got)
	}
}

func TestAdd_AllowedAgainAfterRead(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	store.Add(ctx, notification("s-1"))
	store.MarkAllRead(ctx)

	if !store.Add(ctx, notification("s-1")) {
		t.Error("dedup only guards unread entries; a read session may notify again")
	}
	if got := len(store.Notifications()); got != 2 {
		t.Errorf("list length = %d, want 2 (history is kept)", got)
	}
}

func TestAdd_NewestFirst(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	store.Add(ctx, notification("s-1"))
	store.Add(ctx, notification("s-2"))

	list := store.Notifications()
	if list[0].SessionUUID != "s-2" {
		t.Errorf("head = %s, want the newest entry first", list[0].SessionUUID)
	}
}

func TestAdd_CapBoundsStorage(t *testing.T) {
	store := NewStore(kv.NewMemory(), 5)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		store.Add(ctx, notification(fmt.Sprintf("s-%d", i)))
	}

	list := store.Notifications()
	if len(list) != 5 {
		t.Fatalf("list length = %d, want the cap of 5", len(list))
	}
	if list[0].SessionUUID != "s-9" {
		t.Errorf("head = %s, the most recent entries must survive the cap", list[0].SessionUUID)
	}
}

func TestMarkAllRead_KeepsHistory(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	store.Add(ctx, notification("s-1"))
	store.AddEscalated(ctx, notification("s-2"))
	if got := store.UnreadCount(); got != 2 {
		t.Fatalf("UnreadCount = %d, want 2", got)
	}

	store.MarkAllRead(ctx)

	if got := store.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d, want 0", got)
	}
	if len(store.Notifications()) != 1 || len(store.EscalatedNotifications()) != 1 {
		t.Error("MarkAllRead must not delete entries")
	}
}

func TestUnreadCount_SumsBothLists(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	store.Add(ctx, notification("s-1"))
	store.Add(ctx, notification("s-2"))
	store.AddEscalated(ctx, notification("s-3"))

	if got := store.UnreadCount(); got != 3 {
		t.Errorf("UnreadCount = %d, want 3 across general + escalated", got)
	}
}

func TestTrackingSets(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	store.Track(ctx, TrackAssigned, "s-1")
	store.Track(ctx, TrackAssigned, "s-2")
	store.Track(ctx, TrackClosed, "s-3")

	if !store.HasTracked(TrackAssigned) {
		t.Error("assigned set should be non-empty")
	}
	if !store.IsTracked(TrackAssigned, "s-1") {
		t.Error("s-1 should be tracked as assigned")
	}
	if store.IsTracked(TrackEscalated, "s-1") {
		t.Error("sets must be independent")
	}

	store.Untrack(ctx, TrackAssigned, "s-1")
	if store.IsTracked(TrackAssigned, "s-1") {
		t.Error("untracked session should be gone")
	}

	// Visiting the list view clears the whole set; the closed set stays.
	store.ClearTracked(ctx, TrackAssigned)
	if store.HasTracked(TrackAssigned) {
		t.Error("assigned set should be empty after clear")
	}
	if !store.HasTracked(TrackClosed) {
		t.Error("clearing one set must not touch the others")
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()

	first := NewStore(mem, 100)
	first.Add(ctx, notification("s-1"))
	first.AddEscalated(ctx, notification("s-2"))
	first.Track(ctx, TrackEscalated, "s-2")
	first.MarkToastShown(ctx, "s-1")

	second := NewStore(mem, 100)
	if len(second.Notifications()) != 1 {
		t.Error("general list should survive reload")
	}
	if len(second.EscalatedNotifications()) != 1 {
		t.Error("escalated list should survive reload")
	}
	if !second.IsTracked(TrackEscalated, "s-2") {
		t.Error("tracking sets should survive reload")
	}
	if second.MarkToastShown(ctx, "s-1") {
		t.Error("toast-shown record should survive reload")
	}
}

func TestRehydration_CorruptStorageFallsBackToEmpty(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	mem.Set(ctx, "notify:general", `{this is not json`)
	mem.Set(ctx, "notify:assigned_sessions", `42`)

	store := NewStore(mem, 100) // must not panic
	if got := len(store.Notifications()); got != 0 {
		t.Errorf("list length = %d, want empty on corrupt storage", got)
	}
	if store.HasTracked(TrackAssigned) {
		t.Error("corrupt set blob should rehydrate empty")
	}

	// The store must stay usable afterwards.
	if !store.Add(ctx, notification("s-1")) {
		t.Error("store should accept notifications after corrupt rehydration")
	}
}

func TestMarkToastShown_OncePerSession(t *testing.T) {
	store := NewStore(kv.NewMemory(), 100)
	ctx := context.Background()

	if !store.MarkToastShown(ctx, "abc") {
		t.Fatal("first event for a session should show a toast")
	}
	if store.MarkToastShown(ctx, "abc") {
		t.Error("second event for the same session must not show another toast")
	}
	if !store.MarkToastShown(ctx, "def") {
		t.Error("other sessions are unaffected")
	}
}
