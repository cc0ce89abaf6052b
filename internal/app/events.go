package app

import (
	"time"

	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

// Outbound event types.
const (
	EventRoomUpdate   = "room_update"
	EventRoomJoined   = "room_joined"
	EventGameStarting = "game_starting"
	EventNewQuestion  = "new_question"
	EventAnswerReveal = "answer_reveal"
	EventGameEnded    = "game_ended"
	EventGameReset    = "game_reset"
	EventChatMessage  = "chat_message"
	EventError        = "error"
)

// Reasons attached to game_ended.
const (
	ReasonCompleted = "Game completed"
	ReasonHostLeft  = "Host left the game"
)

// Event is the envelope written to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type RoomUpdatePayload struct {
	Room    *domain.Room    `json:"room,omitempty"`
	Players []domain.Player `json:"players"`
}

type RoomJoinedPayload struct {
	Room     domain.Room     `json:"room"`
	Players  []domain.Player `json:"players"`
	PlayerID string          `json:"playerId"`
}

type RoomBrief struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type GameStartingPayload struct {
	Message        string    `json:"message"`
	Room           RoomBrief `json:"room"`
	TotalQuestions int       `json:"totalQuestions"`
}

// NewQuestionPayload never carries the correct answer.
type NewQuestionPayload struct {
	QuestionNumber int             `json:"questionNumber"`
	TotalQuestions int             `json:"totalQuestions"`
	Question       string          `json:"question"`
	Options        []domain.Option `json:"options"`
	TimeLimit      int             `json:"timeLimit"`
}

type AnswerRevealPayload struct {
	CorrectAnswer  string                   `json:"correctAnswer"`
	Explanation    string                   `json:"explanation"`
	PlayerAnswers  map[string]domain.Answer `json:"playerAnswers"`
	UpdatedPlayers []domain.Player          `json:"updatedPlayers"`
}

type GameEndedPayload struct {
	Reason      string          `json:"reason"`
	Leaderboard []domain.Player `json:"leaderboard,omitempty"`
	RoomCode    string          `json:"roomCode,omitempty"`
}

type GameResetPayload struct {
	Room    domain.Room     `json:"room"`
	Players []domain.Player `json:"players"`
}

type ChatMessagePayload struct {
	PlayerID  string    `json:"playerId"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEvent builds the room-scoped error notice.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}

// playersFromRefs converts session refs into the player shape clients expect.
func playersFromRefs(roomID string, refs []domain.PlayerRef) []domain.Player {
	return lo.Map(refs, func(r domain.PlayerRef, _ int) domain.Player {
		return domain.Player{
			ID:       r.ID,
			Username: r.Username,
			Avatar:   r.Avatar,
			Score:    r.Score,
			RoomID:   roomID,
			IsHost:   r.IsHost,
		}
	})
}
