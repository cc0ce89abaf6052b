package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRegistry.
// Sessions hold timers and locks, so they live in a local map; Redis only
// carries a liveness marker (room id -> room code) that other instances and
// operators can inspect.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	// writeTimeout bounds each marker write.
	writeTimeout time.Duration
	mu           sync.RWMutex
	sessions     map[string]*app.RoomSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:       client,
		ttl:          ttl,
		writeTimeout: 2 * time.Second,
		sessions:     make(map[string]*app.RoomSession),
	}
}

func (s *SessionStore) Create(roomID, code string) (*app.RoomSession, error) {
	s.mu.Lock()
	if _, ok := s.sessions[roomID]; ok {
		s.mu.Unlock()
		return nil, domain.ErrSessionExists
	}
	session := app.NewRoomSession(roomID, code)
	s.sessions[roomID] = session
	s.mu.Unlock()

	// best-effort liveness marker, written outside the registry lock
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(roomID), code, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("set session marker")
	}
	return session, nil
}

func (s *SessionStore) Get(roomID string) (*app.RoomSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[roomID]
	return session, ok
}

func (s *SessionStore) Delete(roomID string) {
	s.mu.Lock()
	_, ok := s.sessions[roomID]
	delete(s.sessions, roomID)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(roomID)).Err(); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("clear session marker")
	}
}

// Refresh extends the liveness markers of every local session.
func (s *SessionStore) Refresh(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	s.mu.RLock()
	keys := make([]string, 0, len(s.sessions))
	for roomID := range s.sessions {
		keys = append(keys, s.key(roomID))
	}
	s.mu.RUnlock()
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) key(roomID string) string {
	return "trivia:session:" + roomID
}
