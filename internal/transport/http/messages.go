package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"trivia-live-service/internal/domain"
)

// Inbound message types.
const (
	msgJoinRoom     = "join_room"
	msgStartGame    = "start_game"
	msgSubmitAnswer = "submit_answer"
	msgChatMessage  = "chat_message"
	msgPlayAgain    = "play_again"
)

var validate = validator.New()

var errInvalidPayload = errors.New("invalid payload")

type inboundMessage struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type joinRoomRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Avatar   string `json:"avatar" validate:"max=512"`
	RoomCode string `json:"roomCode" validate:"omitempty,len=6,alphanum"`
	IsHost   bool   `json:"isHost"`
}

type startGameRequest struct {
	RoomID         string `json:"roomId" validate:"required"`
	Category       string `json:"category" validate:"max=64"`
	Difficulty     string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TotalQuestions int    `json:"totalQuestions" validate:"min=0,max=50"`
}

// Label problems are left to the game service, which drops them silently.
type submitAnswerRequest struct {
	RoomID     string   `json:"roomId" validate:"required"`
	Answer     string   `json:"answer" validate:"max=8"`
	AnswerTime *float64 `json:"answerTime" validate:"omitempty,min=0"`
}

type chatMessageRequest struct {
	RoomID  string `json:"roomId" validate:"required"`
	Message string `json:"message" validate:"required,max=500"`
}

type playAgainRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// decodePayload unmarshals and validates an inbound payload.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return out, nil
}

func (r joinRoomRequest) check() error {
	if !r.IsHost && r.RoomCode == "" {
		return fmt.Errorf("%w: roomCode is required to join a room", errInvalidPayload)
	}
	return nil
}

// clientMessage turns an error into the text shown to the initiating client.
// Only known conditions are described; anything else becomes "Failed to <action>".
func clientMessage(err error, action string) string {
	switch {
	case errors.Is(err, errInvalidPayload):
		return "Invalid " + action + " request"
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrGameInProgress):
		return "Game already in progress"
	case errors.Is(err, domain.ErrNotHost):
		return "Not authorized"
	case errors.Is(err, domain.ErrAlreadyJoined):
		return "Already joined a room"
	case errors.Is(err, domain.ErrQuestionsUnavailable):
		return "Failed to generate questions"
	default:
		return "Failed to " + action
	}
}
