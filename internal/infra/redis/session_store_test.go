package redis

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := NewSessionStore(client, time.Minute)

	if _, err := store.Create("room-1", "ABC123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, _ := mr.Get("trivia:session:room-1"); got != "ABC123" {
		t.Fatalf("expected marker with room code, got %q", got)
	}
	if _, err := store.Create("room-1", "ABC123"); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	mr.FastForward(30 * time.Second)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ttl := mr.TTL("trivia:session:room-1"); ttl != time.Minute {
		t.Fatalf("expected refreshed ttl, got %v", ttl)
	}

	store.Delete("room-1")
	if mr.Exists("trivia:session:room-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("room-1"); ok {
		t.Fatalf("expected session removed")
	}
}

// silentListener accepts connections and never answers them.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().String()
}

func TestSlowRedisDoesNotBlockLookups(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:                  silentListener(t),
		ReadTimeout:           300 * time.Millisecond,
		WriteTimeout:          300 * time.Millisecond,
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
	defer client.Close()
	store := NewSessionStore(client, time.Minute)
	store.writeTimeout = 300 * time.Millisecond
	store.sessions["room-other"] = app.NewRoomSession("room-other", "OTHER1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := store.Create("room-new", "NEW123"); err != nil {
			t.Errorf("create: %v", err)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := store.Get("room-new"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never became visible")
		}
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	if _, ok := store.Get("room-other"); !ok {
		t.Fatalf("expected unrelated session")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("lookup waited %v on a redis write", elapsed)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("create did not give up on the unresponsive server")
	}
	store.Delete("room-new")
	if _, ok := store.Get("room-new"); ok {
		t.Fatalf("expected session removed even when the marker cannot be cleared")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
