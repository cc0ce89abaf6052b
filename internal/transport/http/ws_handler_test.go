package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewRoomStore()
	bank := memory.NewQuestionBank(memory.NewStaticBankLoader(memory.SampleBanks()), time.Minute)
	hub := NewHub(64)
	service := app.NewGameService(store, memory.NewSessionStore(), bank, hub,
		app.WithTimings(app.Timings{
			QuestionTimeout: 2 * time.Second,
			RevealDelay:     20 * time.Millisecond,
			AnnounceDelay:   20 * time.Millisecond,
			SkipDelay:       10 * time.Millisecond,
			StoreTimeout:    time.Second,
		}),
	)
	router := NewRouter(
		NewWSHandler(service, hub, WSOptions{}),
		NewAPIHandler(service, Catalog{Avatars: []string{"a1"}, Categories: []string{"General"}}),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages until one of the expected type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	for i := 0; i < 50; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message", expect)
	return nil
}

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)

	host := dial(t, server)
	send(t, host, "join_room", map[string]any{"username": "Ann", "avatar": "a1", "isHost": true})
	joined := readUntil(t, host, app.EventRoomJoined)
	room := joined["room"].(map[string]any)
	roomID := room["id"].(string)
	code := room["code"].(string)
	if len(code) != 6 {
		t.Fatalf("unexpected room code %q", code)
	}

	player := dial(t, server)
	send(t, player, "join_room", map[string]any{"username": "Bob", "avatar": "a2", "roomCode": strings.ToLower(code)})
	readUntil(t, player, app.EventRoomJoined)
	update := readUntil(t, host, app.EventRoomUpdate)
	if players := update["players"].([]any); len(players) != 2 {
		t.Fatalf("expected 2 players in roster, got %d", len(players))
	}

	send(t, player, "start_game", map[string]any{"roomId": roomID})
	if msg := readUntil(t, player, app.EventError)["message"]; msg != "Not authorized" {
		t.Fatalf("expected authorization error, got %v", msg)
	}

	send(t, host, "start_game", map[string]any{"roomId": roomID, "category": "General", "difficulty": "easy", "totalQuestions": 2})
	starting := readUntil(t, player, app.EventGameStarting)
	if starting["totalQuestions"].(float64) != 2 {
		t.Fatalf("expected 2 questions, got %v", starting["totalQuestions"])
	}

	for round := 1; round <= 2; round++ {
		question := readUntil(t, host, app.EventNewQuestion)
		readUntil(t, player, app.EventNewQuestion)
		if _, leaked := question["correctAnswer"]; leaked {
			t.Fatalf("question leaked the correct answer")
		}
		send(t, host, "submit_answer", map[string]any{"roomId": roomID, "answer": "A", "answerTime": 1200})
		send(t, player, "submit_answer", map[string]any{"roomId": roomID, "answer": "B", "answerTime": 900})
		reveal := readUntil(t, player, app.EventAnswerReveal)
		if answers := reveal["playerAnswers"].(map[string]any); len(answers) != 2 {
			t.Fatalf("round %d: expected 2 answers, got %d", round, len(answers))
		}
		readUntil(t, host, app.EventAnswerReveal)
	}

	ended := readUntil(t, host, app.EventGameEnded)
	if ended["reason"] != app.ReasonCompleted || ended["roomCode"] != code {
		t.Fatalf("unexpected game_ended payload %v", ended)
	}
	readUntil(t, player, app.EventGameEnded)

	send(t, player, "chat_message", map[string]any{"roomId": roomID, "message": "gg"})
	chat := readUntil(t, host, app.EventChatMessage)
	if chat["message"] != "gg" || chat["username"] != "Bob" {
		t.Fatalf("unexpected chat payload %v", chat)
	}

	host.Close()
	left := readUntil(t, player, app.EventGameEnded)
	if left["reason"] != app.ReasonHostLeft {
		t.Fatalf("expected host left, got %v", left["reason"])
	}
}

func TestWebSocketRejectsMalformedRequests(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	send(t, conn, "join_room", map[string]any{"username": "Ann"})
	if msg := readUntil(t, conn, app.EventError)["message"]; msg != "Invalid join room request" {
		t.Fatalf("unexpected error %v", msg)
	}

	send(t, conn, "join_room", map[string]any{"username": "Ann", "roomCode": "ZZZZZZ"})
	if msg := readUntil(t, conn, app.EventError)["message"]; msg != "Room not found" {
		t.Fatalf("unexpected error %v", msg)
	}

	send(t, conn, "dance", nil)
	if msg := readUntil(t, conn, app.EventError)["message"]; msg != "Unsupported message type" {
		t.Fatalf("unexpected error %v", msg)
	}
}
