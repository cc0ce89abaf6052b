package domain

import "time"

// Phase is the lifecycle state of a room.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Labels lists the only option labels a question may use.
var Labels = []string{"A", "B", "C", "D"}

// IsLabel reports whether s is one of the option labels.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if s == l {
			return true
		}
	}
	return false
}

// Option is one of the four possible answers of a question.
type Option struct {
	Label string `json:"key"`
	Text  string `json:"text"`
}

// Question is immutable once it has been accepted into a room's queue.
type Question struct {
	Text          string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// HasCorrectOption reports whether the correct answer label is among the options.
func (q Question) HasCorrectOption() bool {
	if q.CorrectAnswer == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt.Label == q.CorrectAnswer {
			return true
		}
	}
	return false
}

// Room is the durable record of one trivia session instance.
type Room struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	HostID          string    `json:"hostId"`
	Status          Phase     `json:"status"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
	CurrentQuestion int       `json:"currentQuestion"`
	TotalQuestions  int       `json:"totalQuestions"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RoomUpdate carries the fields to change on a Room; nil fields are left untouched.
type RoomUpdate struct {
	Status          *Phase
	Category        *string
	Difficulty      *string
	CurrentQuestion *int
	TotalQuestions  *int
}

// Apply copies the set fields of u onto room.
func (u RoomUpdate) Apply(room *Room) {
	if u.Status != nil {
		room.Status = *u.Status
	}
	if u.Category != nil {
		room.Category = *u.Category
	}
	if u.Difficulty != nil {
		room.Difficulty = *u.Difficulty
	}
	if u.CurrentQuestion != nil {
		room.CurrentQuestion = *u.CurrentQuestion
	}
	if u.TotalQuestions != nil {
		room.TotalQuestions = *u.TotalQuestions
	}
}

// Player is the durable record of a connected participant. Its ID is the connection ID.
type Player struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Score    int       `json:"score"`
	RoomID   string    `json:"roomId"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PlayerRef is the session-local projection of a Player.
type PlayerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"isHost"`
}

// Ref projects a durable player into its session copy.
func (p Player) Ref() PlayerRef {
	return PlayerRef{
		ID:       p.ID,
		Username: p.Username,
		Avatar:   p.Avatar,
		Score:    p.Score,
		IsHost:   p.IsHost,
	}
}

// Answer is a player's single submission for the current question.
type Answer struct {
	PlayerID      string `json:"playerId"`
	Label         string `json:"answer"`
	LatencyMillis int64  `json:"answerTime"`
	Correct       bool   `json:"isCorrect"`
}
