package app

import (
	"context"
	"time"

	"trivia-live-service/internal/domain"
)

// RoomStore is the durable Room/Player store.
// Lookups return domain.ErrRoomNotFound / domain.ErrPlayerNotFound when nothing matches.
type RoomStore interface {
	CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	FindRoomByCode(ctx context.Context, code string) (domain.Room, error)
	FindRoomByID(ctx context.Context, id string) (domain.Room, error)
	UpdateRoom(ctx context.Context, id string, update domain.RoomUpdate) error

	CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error)
	FindPlayerByID(ctx context.Context, id string) (domain.Player, error)
	// FindPlayersByRoom returns the room's players in insertion order.
	FindPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error)
	// RankPlayersByRoom returns the room's players ordered by score, highest first.
	RankPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error)
	IncrementPlayerScore(ctx context.Context, id string, delta int) error
	SetRoomScores(ctx context.Context, roomID string, value int) error
	DeletePlayer(ctx context.Context, id string) error
}

// SessionRegistry owns every live RoomSession of the process.
// Implementations must tolerate concurrent use from different rooms.
type SessionRegistry interface {
	// Create fails with domain.ErrSessionExists if the room already has a session.
	Create(roomID, code string) (*RoomSession, error)
	Get(roomID string) (*RoomSession, bool)
	Delete(roomID string)
}

// QuestionSource produces candidate questions. Its output is untrusted.
type QuestionSource interface {
	Generate(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error)
}

// Broadcaster delivers outbound events to connected clients.
type Broadcaster interface {
	JoinRoom(roomID, clientID string)
	LeaveRoom(roomID, clientID string)
	ToRoom(roomID string, event Event)
	ToClient(clientID string, event Event)
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms timers. The production scheduler is backed by time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
