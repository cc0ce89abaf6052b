package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"trivia-live-service/internal/app"
)

const (
	maxMessageBytes = 8 << 10
	writeWait       = 10 * time.Second
)

// GameService is the part of the orchestrator the websocket protocol drives.
type GameService interface {
	JoinOrCreate(ctx context.Context, req app.JoinRequest) (app.JoinResult, error)
	StartGame(ctx context.Context, req app.StartRequest) error
	SubmitAnswer(ctx context.Context, roomID, playerID, label string, latencyMillis int64) bool
	Chat(ctx context.Context, roomID, playerID, message string) error
	PlayAgain(ctx context.Context, roomID, callerID string) error
	Disconnect(ctx context.Context, playerID string) error
}

// WSOptions tunes per-connection behaviour.
type WSOptions struct {
	MessagesPerSecond float64
	Burst             int
	// RequestTimeout bounds the handling of one inbound message.
	RequestTimeout time.Duration
}

type WSHandler struct {
	service  GameService
	hub      *Hub
	opts     WSOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(service GameService, hub *Hub, opts WSOptions) *WSHandler {
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 45 * time.Second
	}
	return &WSHandler{
		service: service,
		hub:     hub,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
// The connection id doubles as the player id for everything the client does.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	logger := log.With().Str("client", clientID).Logger()
	events := h.hub.Register(clientID)
	logger.Debug().Str("remote", r.RemoteAddr).Msg("client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for event := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	conn.SetReadLimit(maxMessageBytes)
	limiter := rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.Burst)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("ws read error")
			}
			break
		}
		if !limiter.Allow() {
			h.hub.ToClient(clientID, app.ErrorEvent("Too many messages"))
			continue
		}
		h.dispatch(clientID, inbound)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.RequestTimeout)
	if err := h.service.Disconnect(ctx, clientID); err != nil {
		logger.Error().Err(err).Msg("disconnect")
	}
	cancel()
	h.hub.Unregister(clientID)
	<-writerDone
	logger.Debug().Msg("client disconnected")
}

func (h *WSHandler) dispatch(clientID string, inbound inboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.RequestTimeout)
	defer cancel()

	switch inbound.Type {
	case msgJoinRoom:
		req, err := decodePayload[joinRoomRequest](inbound.Payload)
		if err == nil {
			err = req.check()
		}
		if err == nil {
			_, err = h.service.JoinOrCreate(ctx, app.JoinRequest{
				ClientID: clientID,
				Username: req.Username,
				Avatar:   req.Avatar,
				RoomCode: req.RoomCode,
				IsHost:   req.IsHost,
			})
		}
		h.fail(clientID, err, "join room")

	case msgStartGame:
		req, err := decodePayload[startGameRequest](inbound.Payload)
		if err == nil {
			err = h.service.StartGame(ctx, app.StartRequest{
				RoomID:         req.RoomID,
				CallerID:       clientID,
				Category:       req.Category,
				Difficulty:     req.Difficulty,
				TotalQuestions: req.TotalQuestions,
			})
		}
		h.fail(clientID, err, "start game")

	case msgSubmitAnswer:
		req, err := decodePayload[submitAnswerRequest](inbound.Payload)
		if err != nil {
			h.fail(clientID, err, "submit answer")
			return
		}
		latency := int64(-1)
		if req.AnswerTime != nil {
			latency = int64(*req.AnswerTime)
		}
		h.service.SubmitAnswer(ctx, req.RoomID, clientID, req.Answer, latency)

	case msgChatMessage:
		req, err := decodePayload[chatMessageRequest](inbound.Payload)
		if err == nil {
			err = h.service.Chat(ctx, req.RoomID, clientID, req.Message)
		}
		h.fail(clientID, err, "send message")

	case msgPlayAgain:
		req, err := decodePayload[playAgainRequest](inbound.Payload)
		if err == nil {
			err = h.service.PlayAgain(ctx, req.RoomID, clientID)
		}
		h.fail(clientID, err, "reset game")

	default:
		h.hub.ToClient(clientID, app.ErrorEvent("Unsupported message type"))
	}
}

// fail reports err to the initiating client only.
func (h *WSHandler) fail(clientID string, err error, action string) {
	if err == nil {
		return
	}
	log.Info().Err(err).Str("client", clientID).Str("action", action).Msg("request rejected")
	h.hub.ToClient(clientID, app.ErrorEvent(clientMessage(err, action)))
}
