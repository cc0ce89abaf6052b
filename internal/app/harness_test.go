package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
	"trivia-live-service/internal/infra/memory"
)

// manualScheduler collects timers and fires them only when a test asks for it.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	live := !t.stopped && !t.fired
	t.stopped = true
	return live
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) app.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) live() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext runs the oldest live timer and returns its delay.
func (s *manualScheduler) fireNext(t *testing.T) time.Duration {
	t.Helper()
	live := s.live()
	require.NotEmpty(t, live, "no timer armed")
	next := live[0]
	next.fired = true
	next.fn()
	return next.delay
}

type sentEvent struct {
	room   string
	client string
	event  app.Event
}

// recorder is a Broadcaster that keeps every event it was asked to deliver.
type recorder struct {
	mu      sync.Mutex
	sent    []sentEvent
	members map[string]map[string]bool
}

func newRecorder() *recorder {
	return &recorder{members: make(map[string]map[string]bool)}
}

func (r *recorder) JoinRoom(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[roomID] == nil {
		r.members[roomID] = make(map[string]bool)
	}
	r.members[roomID][clientID] = true
}

func (r *recorder) LeaveRoom(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[roomID], clientID)
}

func (r *recorder) ToRoom(roomID string, event app.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEvent{room: roomID, event: event})
}

func (r *recorder) ToClient(clientID string, event app.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEvent{client: clientID, event: event})
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.event.Type == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(t *testing.T, eventType string) sentEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].event.Type == eventType {
			return r.sent[i]
		}
	}
	t.Fatalf("no %s event sent", eventType)
	return sentEvent{}
}

type harness struct {
	svc      *app.GameService
	store    *memory.RoomStore
	sessions *memory.SessionStore
	source   *mockSource
	sched    *manualScheduler
	out      *recorder
}

func newHarness(t *testing.T, store app.RoomStore, mutate ...func(*app.Timings)) *harness {
	t.Helper()
	h := &harness{
		store:    memory.NewRoomStore(),
		sessions: memory.NewSessionStore(),
		source:   &mockSource{},
		sched:    &manualScheduler{},
		out:      newRecorder(),
	}
	if store == nil {
		store = h.store
	}
	timings := app.DefaultTimings()
	timings.FinishedTTL = 0
	for _, m := range mutate {
		m(&timings)
	}
	codes := []string{"ABCDEF", "GHJKLM", "NPQRST"}
	next := 0
	h.svc = app.NewGameService(store, h.sessions, h.source, h.out,
		app.WithScheduler(h.sched),
		app.WithTimings(timings),
		app.WithClock(func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }),
		app.WithCodeGenerator(func() string {
			code := codes[next%len(codes)]
			next++
			return code
		}),
	)
	return h
}

func (h *harness) host(t *testing.T, id string) domain.Room {
	t.Helper()
	res, err := h.svc.JoinOrCreate(context.Background(), app.JoinRequest{ClientID: id, Username: "host-" + id, Avatar: "a1", IsHost: true})
	require.NoError(t, err)
	return res.Room
}

func (h *harness) join(t *testing.T, code, id string) {
	t.Helper()
	_, err := h.svc.JoinOrCreate(context.Background(), app.JoinRequest{ClientID: id, Username: "player-" + id, Avatar: "a2", RoomCode: code})
	require.NoError(t, err)
}

func (h *harness) session(t *testing.T, roomID string) app.SessionSnapshot {
	t.Helper()
	s, ok := h.sessions.Get(roomID)
	require.True(t, ok, "session missing")
	return s.Snapshot()
}
