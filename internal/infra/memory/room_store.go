package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

// RoomStore keeps rooms and players in process memory. Players keep their insertion order.
type RoomStore struct {
	clock func() time.Time

	mu      sync.RWMutex
	rooms   map[string]domain.Room
	codes   map[string]string
	players map[string]domain.Player
	order   []string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		clock:   time.Now,
		rooms:   make(map[string]domain.Room),
		codes:   make(map[string]string),
		players: make(map[string]domain.Player),
	}
}

func (s *RoomStore) CreateRoom(_ context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[room.Code]; taken {
		return domain.Room{}, domain.ErrRoomCodeTaken
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.clock()
	}
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	s.codes[room.Code] = room.ID
	return room, nil
}

func (s *RoomStore) FindRoomByCode(_ context.Context, code string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return s.rooms[id], nil
}

func (s *RoomStore) FindRoomByID(_ context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomStore) UpdateRoom(_ context.Context, id string, update domain.RoomUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	update.Apply(&room)
	room.UpdatedAt = s.clock()
	s.rooms[id] = room
	return nil
}

func (s *RoomStore) CreatePlayer(_ context.Context, player domain.Player) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[player.RoomID]; !ok {
		return domain.Player{}, domain.ErrRoomNotFound
	}
	if _, exists := s.players[player.ID]; exists {
		return domain.Player{}, domain.ErrAlreadyJoined
	}
	if player.JoinedAt.IsZero() {
		player.JoinedAt = s.clock()
	}
	s.players[player.ID] = player
	s.order = append(s.order, player.ID)
	return player, nil
}

func (s *RoomStore) FindPlayerByID(_ context.Context, id string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (s *RoomStore) FindPlayersByRoom(_ context.Context, roomID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomPlayersLocked(roomID), nil
}

func (s *RoomStore) RankPlayersByRoom(_ context.Context, roomID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := s.roomPlayersLocked(roomID)
	slices.SortStableFunc(players, func(a, b domain.Player) int { return cmp.Compare(b.Score, a.Score) })
	return players, nil
}

func (s *RoomStore) IncrementPlayerScore(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.Score += delta
	s.players[id] = player
	return nil
}

func (s *RoomStore) SetRoomScores(_ context.Context, roomID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, player := range s.players {
		if player.RoomID == roomID {
			player.Score = value
			s.players[id] = player
		}
	}
	return nil
}

func (s *RoomStore) DeletePlayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return domain.ErrPlayerNotFound
	}
	delete(s.players, id)
	s.order = lo.Without(s.order, id)
	return nil
}

func (s *RoomStore) roomPlayersLocked(roomID string) []domain.Player {
	players := make([]domain.Player, 0)
	for _, id := range s.order {
		if p := s.players[id]; p.RoomID == roomID {
			players = append(players, p)
		}
	}
	return players
}
