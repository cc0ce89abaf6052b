package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"trivia-live-service/internal/domain"
)

const uniqueViolation = "23505"

type roomModel struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID              string    `bun:"id,pk"`
	Code            string    `bun:"code,notnull"`
	HostID          string    `bun:"host_id,notnull"`
	Status          string    `bun:"status,notnull"`
	Category        string    `bun:"category,notnull"`
	Difficulty      string    `bun:"difficulty,notnull"`
	CurrentQuestion int       `bun:"current_question,notnull"`
	TotalQuestions  int       `bun:"total_questions,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (m roomModel) toDomain() domain.Room {
	return domain.Room{
		ID:              m.ID,
		Code:            m.Code,
		HostID:          m.HostID,
		Status:          domain.Phase(m.Status),
		Category:        m.Category,
		Difficulty:      m.Difficulty,
		CurrentQuestion: m.CurrentQuestion,
		TotalQuestions:  m.TotalQuestions,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// playerModel is ordered by the table's seq column, which the model never writes.
type playerModel struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID       string    `bun:"id,pk"`
	Username string    `bun:"username,notnull"`
	Avatar   string    `bun:"avatar,notnull"`
	Score    int       `bun:"score,notnull"`
	RoomID   string    `bun:"room_id,notnull"`
	IsHost   bool      `bun:"is_host,notnull"`
	JoinedAt time.Time `bun:"joined_at,notnull"`
}

func (m playerModel) toDomain() domain.Player {
	return domain.Player{
		ID:       m.ID,
		Username: m.Username,
		Avatar:   m.Avatar,
		Score:    m.Score,
		RoomID:   m.RoomID,
		IsHost:   m.IsHost,
		JoinedAt: m.JoinedAt,
	}
}

// RoomStore persists rooms and players in Postgres through bun.
type RoomStore struct {
	db    *bun.DB
	clock func() time.Time
}

func NewRoomStore(db *bun.DB) *RoomStore {
	return &RoomStore{db: db, clock: time.Now}
}

func (s *RoomStore) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	now := s.clock().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = room.CreatedAt
	m := roomModel{
		ID:              room.ID,
		Code:            room.Code,
		HostID:          room.HostID,
		Status:          string(room.Status),
		Category:        room.Category,
		Difficulty:      room.Difficulty,
		CurrentQuestion: room.CurrentQuestion,
		TotalQuestions:  room.TotalQuestions,
		CreatedAt:       room.CreatedAt,
		UpdatedAt:       room.UpdatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.Room{}, domain.ErrRoomCodeTaken
		}
		return domain.Room{}, fmt.Errorf("insert room: %w", err)
	}
	return m.toDomain(), nil
}

func (s *RoomStore) FindRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	var m roomModel
	if err := s.db.NewSelect().Model(&m).Where("r.code = ?", code).Scan(ctx); err != nil {
		return domain.Room{}, notFound(err, domain.ErrRoomNotFound, "select room")
	}
	return m.toDomain(), nil
}

func (s *RoomStore) FindRoomByID(ctx context.Context, id string) (domain.Room, error) {
	var m roomModel
	if err := s.db.NewSelect().Model(&m).Where("r.id = ?", id).Scan(ctx); err != nil {
		return domain.Room{}, notFound(err, domain.ErrRoomNotFound, "select room")
	}
	return m.toDomain(), nil
}

func (s *RoomStore) UpdateRoom(ctx context.Context, id string, update domain.RoomUpdate) error {
	q := s.db.NewUpdate().
		Model((*roomModel)(nil)).
		Set("updated_at = ?", s.clock().UTC()).
		Where("id = ?", id)
	if update.Status != nil {
		q = q.Set("status = ?", string(*update.Status))
	}
	if update.Category != nil {
		q = q.Set("category = ?", *update.Category)
	}
	if update.Difficulty != nil {
		q = q.Set("difficulty = ?", *update.Difficulty)
	}
	if update.CurrentQuestion != nil {
		q = q.Set("current_question = ?", *update.CurrentQuestion)
	}
	if update.TotalQuestions != nil {
		q = q.Set("total_questions = ?", *update.TotalQuestions)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return requireRow(res, domain.ErrRoomNotFound)
}

func (s *RoomStore) CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	if player.JoinedAt.IsZero() {
		player.JoinedAt = s.clock().UTC()
	}
	m := playerModel{
		ID:       player.ID,
		Username: player.Username,
		Avatar:   player.Avatar,
		Score:    player.Score,
		RoomID:   player.RoomID,
		IsHost:   player.IsHost,
		JoinedAt: player.JoinedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.Player{}, domain.ErrAlreadyJoined
		}
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}
	return m.toDomain(), nil
}

func (s *RoomStore) FindPlayerByID(ctx context.Context, id string) (domain.Player, error) {
	var m playerModel
	if err := s.db.NewSelect().Model(&m).Where("p.id = ?", id).Scan(ctx); err != nil {
		return domain.Player{}, notFound(err, domain.ErrPlayerNotFound, "select player")
	}
	return m.toDomain(), nil
}

func (s *RoomStore) FindPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error) {
	return s.selectPlayers(ctx, roomID, "p.seq ASC")
}

func (s *RoomStore) RankPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error) {
	return s.selectPlayers(ctx, roomID, "p.score DESC, p.seq ASC")
}

func (s *RoomStore) selectPlayers(ctx context.Context, roomID, order string) ([]domain.Player, error) {
	var models []playerModel
	if err := s.db.NewSelect().Model(&models).Where("p.room_id = ?", roomID).OrderExpr(order).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	players := make([]domain.Player, 0, len(models))
	for _, m := range models {
		players = append(players, m.toDomain())
	}
	return players, nil
}

func (s *RoomStore) IncrementPlayerScore(ctx context.Context, id string, delta int) error {
	res, err := s.db.NewUpdate().
		Model((*playerModel)(nil)).
		Set("score = score + ?", delta).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	return requireRow(res, domain.ErrPlayerNotFound)
}

func (s *RoomStore) SetRoomScores(ctx context.Context, roomID string, value int) error {
	if _, err := s.db.NewUpdate().
		Model((*playerModel)(nil)).
		Set("score = ?", value).
		Where("room_id = ?", roomID).
		Exec(ctx); err != nil {
		return fmt.Errorf("reset scores: %w", err)
	}
	return nil
}

func (s *RoomStore) DeletePlayer(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*playerModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return requireRow(res, domain.ErrPlayerNotFound)
}

func notFound(err, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
