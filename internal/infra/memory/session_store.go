package memory

import (
	"sync"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRegistry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.RoomSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.RoomSession),
	}
}

func (s *SessionStore) Create(roomID, code string) (*app.RoomSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[roomID]; ok {
		return nil, domain.ErrSessionExists
	}
	session := app.NewRoomSession(roomID, code)
	s.sessions[roomID] = session
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
	defer s.mu.Unlock()
	delete(s.sessions, roomID)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
