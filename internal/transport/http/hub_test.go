package http

import (
	"testing"

	"trivia-live-service/internal/app"
)

func TestHubRoutesByRoom(t *testing.T) {
	hub := NewHub(1)
	a := hub.Register("a")
	b := hub.Register("b")
	hub.JoinRoom("room-1", "a")
	hub.JoinRoom("room-2", "b")

	hub.ToRoom("room-1", app.Event{Type: "ping"})
	if got := (<-a).Type; got != "ping" {
		t.Fatalf("expected ping, got %s", got)
	}
	if len(b) != 0 {
		t.Fatalf("client b must not receive room-1 events")
	}

	// full queues drop instead of blocking
	hub.ToClient("b", app.Event{Type: "one"})
	hub.ToClient("b", app.Event{Type: "two"})
	if got := (<-b).Type; got != "one" {
		t.Fatalf("expected first event, got %s", got)
	}

	hub.Unregister("a")
	if _, open := <-a; open {
		t.Fatalf("expected closed queue")
	}
	hub.ToRoom("room-1", app.Event{Type: "ignored"})
	if clients, rooms := hub.Stats(); clients != 1 || rooms != 1 {
		t.Fatalf("unexpected stats clients=%d rooms=%d", clients, rooms)
	}
}
