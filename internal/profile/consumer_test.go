package profile

import (
	"context"
	"testing"

	"github.com/chvishal182/finance-panorama/shared/events"
)

func profileEvent(userID string, version int64, fields events.ProfileUpsertedEvent) events.Event {
	fields.UserID = userID
	// Data arrives as a generic map after JSON transport; the typed struct
	// round-trips identically through the handler's re-marshal.
	return events.Event{
		Type:    events.ProfileUpserted,
		Key:     userID,
		Version: version,
		Data:    fields,
	}
}

func TestHandleUserEventCreatesProfile(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	ev := profileEvent("usr-e1", 100, events.ProfileUpsertedEvent{FirstName: "Ann", Email: "ann@example.com"})
	if err := svc.HandleUserEvent(ctx, ev); err != nil {
		t.Fatalf("handle: %v", err)
	}

	stored, ok := store.stored("usr-e1")
	if !ok {
		t.Fatal("profile not created")
	}
	if stored.FirstName != "Ann" || stored.Version != 100 {
		t.Errorf("unexpected stored profile: %+v", stored)
	}
}

func TestHandleUserEventIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	ev := profileEvent("usr-e2", 50, events.ProfileUpsertedEvent{FirstName: "Bea", LastName: "Cole"})
	if err := svc.HandleUserEvent(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	first, _ := store.stored("usr-e2")
	store.resetCounters()

	// At-least-once redelivery of the identical event.
	if err := svc.HandleUserEvent(ctx, ev); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	second, _ := store.stored("usr-e2")

	if first != second {
		t.Errorf("redelivery changed state: %+v vs %+v", first, second)
	}
	if store.creates != 0 || store.updates != 0 {
		t.Errorf("redelivery must not write: creates=%d updates=%d", store.creates, store.updates)
	}
}

func TestHandleUserEventDiscardsStaleVersion(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.HandleUserEvent(ctx, profileEvent("usr-e3", 200, events.ProfileUpsertedEvent{FirstName: "New"})); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	// An older event arriving late must not roll the record back.
	if err := svc.HandleUserEvent(ctx, profileEvent("usr-e3", 150, events.ProfileUpsertedEvent{FirstName: "Old"})); err != nil {
		t.Fatalf("stale event: %v", err)
	}

	stored, _ := store.stored("usr-e3")
	if stored.FirstName != "New" || stored.Version != 200 {
		t.Errorf("stale event overwrote newer state: %+v", stored)
	}
}

func TestHandleUserEventMergesIntoExisting(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	svc.HandleUserEvent(ctx, profileEvent("usr-e4", 10, events.ProfileUpsertedEvent{FirstName: "Dana", Email: "dana@example.com"}))
	svc.HandleUserEvent(ctx, profileEvent("usr-e4", 20, events.ProfileUpsertedEvent{LastName: "Lee"}))

	stored, _ := store.stored("usr-e4")
	if stored.FirstName != "Dana" || stored.LastName != "Lee" || stored.Email != "dana@example.com" {
		t.Errorf("event merge corrupted record: %+v", stored)
	}
	if stored.Version != 20 {
		t.Errorf("version not advanced: %d", stored.Version)
	}
}

func TestHandleUserEventRefreshesCache(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.HandleUserEvent(ctx, profileEvent("usr-e5", 5, events.ProfileUpsertedEvent{FirstName: "Eve"})); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// The consumer wrote through to the cache: a read must not hit the store.
	store.resetCounters()
	got, err := svc.Get(ctx, "usr-e5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.reads != 0 {
		t.Errorf("expected cache-served read after event apply, got %d store reads", store.reads)
	}
	if got.FirstName != "Eve" {
		t.Errorf("cache holds stale value: %+v", got)
	}
}

func TestHandleUserEventMalformedLeavesStoreUnchanged(t *testing.T) {
	svc, store, _ := newTestService(t)

	// Missing user_id: the event cannot be applied to any record.
	ev := events.Event{Type: events.ProfileUpserted, Version: 1, Data: map[string]any{"first_name": "Ghost"}}
	if err := svc.HandleUserEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed event")
	}

	if len(store.profiles) != 0 || store.creates != 0 || store.updates != 0 {
		t.Errorf("malformed event mutated the store: %+v", store.profiles)
	}
}

func TestHandleUserEventIgnoresOtherTypes(t *testing.T) {
	svc, store, _ := newTestService(t)

	ev := events.Event{Type: events.ExpenseCreated, Key: "x", Version: 1, Data: map[string]any{}}
	if err := svc.HandleUserEvent(context.Background(), ev); err != nil {
		t.Fatalf("unrelated event must be a no-op, got %v", err)
	}
	if store.reads != 0 {
		t.Errorf("unrelated event touched the store")
	}
}
