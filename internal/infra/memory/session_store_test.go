package memory

import (
	"errors"
	"testing"

	"trivia-live-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session, err := store.Create("room-1", "ABC123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.ID() != "room-1" || session.Code() != "ABC123" {
		t.Fatalf("unexpected session %s/%s", session.ID(), session.Code())
	}
	if got, ok := store.Get("room-1"); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if _, err := store.Create("room-1", "ABC123"); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	store.Delete("room-1")
	if _, ok := store.Get("room-1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", store.Len())
	}
}
