package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts  = 5
)

// Timings controls every delay of the game loop.
type Timings struct {
	QuestionTimeout time.Duration
	RevealDelay     time.Duration
	AnnounceDelay   time.Duration
	SkipDelay       time.Duration
	// FinishedTTL removes a finished session from the registry; zero keeps it until the host leaves.
	FinishedTTL time.Duration
	// StoreTimeout bounds store calls made from timer callbacks.
	StoreTimeout time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		QuestionTimeout: 10 * time.Second,
		RevealDelay:     5 * time.Second,
		AnnounceDelay:   3 * time.Second,
		SkipDelay:       time.Second,
		FinishedTTL:     30 * time.Minute,
		StoreTimeout:    5 * time.Second,
	}
}

// QuestionLimits holds the round defaults applied by StartGame.
type QuestionLimits struct {
	Default    int
	Min        int
	Max        int
	Category   string
	Difficulty string
}

func DefaultQuestionLimits() QuestionLimits {
	return QuestionLimits{
		Default:    5,
		Min:        2,
		Max:        20,
		Category:   "General",
		Difficulty: "medium",
	}
}

func (l QuestionLimits) clamp(requested int) int {
	n := requested
	if n <= 0 {
		n = l.Default
	}
	if n < l.Min {
		n = l.Min
	}
	if l.Max > 0 && n > l.Max {
		n = l.Max
	}
	return n
}

// Option customises a GameService.
type Option func(*GameService)

func WithTimings(t Timings) Option {
	return func(g *GameService) { g.timings = t }
}

func WithQuestionLimits(l QuestionLimits) Option {
	return func(g *GameService) { g.limits = l }
}

func WithScheduler(s Scheduler) Option {
	return func(g *GameService) { g.sched = s }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *GameService) { g.now = now }
}

func WithCodeGenerator(codes func() string) Option {
	return func(g *GameService) { g.codes = codes }
}

// GameService is the session orchestrator: it drives every room through
// waiting -> playing -> finished and serialises all work on a room behind its session lock.
type GameService struct {
	store     RoomStore
	sessions  SessionRegistry
	questions QuestionSource
	out       Broadcaster

	sched   Scheduler
	now     func() time.Time
	codes   func() string
	timings Timings
	limits  QuestionLimits
}

func NewGameService(store RoomStore, sessions SessionRegistry, questions QuestionSource, out Broadcaster, opts ...Option) *GameService {
	g := &GameService{
		store:     store,
		sessions:  sessions,
		questions: questions,
		out:       out,
		sched:     realScheduler{},
		now:       time.Now,
		codes:     randomRoomCode,
		timings:   DefaultTimings(),
		limits:    DefaultQuestionLimits(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// JoinRequest is a join-or-create request from one connection.
type JoinRequest struct {
	ClientID string
	Username string
	Avatar   string
	RoomCode string
	IsHost   bool
}

// JoinResult is what the joining client is acknowledged with.
type JoinResult struct {
	Room     domain.Room
	Players  []domain.Player
	PlayerID string
}

// JoinOrCreate opens a new room for a host or adds a player to a waiting room.
func (g *GameService) JoinOrCreate(ctx context.Context, req JoinRequest) (res JoinResult, err error) {
	if _, err := g.store.FindPlayerByID(ctx, req.ClientID); err == nil {
		return JoinResult{}, domain.ErrAlreadyJoined
	} else if !errors.Is(err, domain.ErrPlayerNotFound) {
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}

	var (
		room    domain.Room
		session *RoomSession
	)
	if req.IsHost {
		room, session, err = g.openRoom(ctx, req.ClientID)
	} else {
		room, session, err = g.joinableRoom(ctx, req.RoomCode)
	}
	if err != nil {
		return JoinResult{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	defer g.guard(session, &err)

	if session.closed {
		return JoinResult{}, domain.ErrRoomNotFound
	}
	if !req.IsHost && session.phase != domain.PhaseWaiting {
		return JoinResult{}, domain.ErrGameInProgress
	}

	player, err := g.store.CreatePlayer(ctx, domain.Player{
		ID:       req.ClientID,
		Username: req.Username,
		Avatar:   req.Avatar,
		RoomID:   room.ID,
		IsHost:   req.IsHost,
		JoinedAt: g.now(),
	})
	if err != nil {
		if req.IsHost {
			g.abandonLocked(ctx, session)
		}
		return JoinResult{}, fmt.Errorf("create player: %w", err)
	}
	session.addPlayerLocked(player.Ref())
	g.out.JoinRoom(room.ID, player.ID)

	players := g.rosterLocked(ctx, session)
	g.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Payload: RoomUpdatePayload{Room: &room, Players: players}})
	g.out.ToClient(player.ID, Event{Type: EventRoomJoined, Payload: RoomJoinedPayload{Room: room, Players: players, PlayerID: player.ID}})

	log.Info().
		Str("room", room.ID).
		Str("code", room.Code).
		Str("player", player.ID).
		Bool("host", player.IsHost).
		Msg("player joined")
	return JoinResult{Room: room, Players: players, PlayerID: player.ID}, nil
}

func (g *GameService) openRoom(ctx context.Context, hostID string) (domain.Room, *RoomSession, error) {
	var (
		room domain.Room
		err  error
	)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		now := g.now()
		room, err = g.store.CreateRoom(ctx, domain.Room{
			ID:             uuid.NewString(),
			Code:           g.codes(),
			HostID:         hostID,
			Status:         domain.PhaseWaiting,
			Category:       g.limits.Category,
			Difficulty:     g.limits.Difficulty,
			TotalQuestions: g.limits.Default,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if !errors.Is(err, domain.ErrRoomCodeTaken) {
			break
		}
	}
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("create room: %w", err)
	}
	session, err := g.sessions.Create(room.ID, room.Code)
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("create session: %w", err)
	}
	return room, session, nil
}

func (g *GameService) joinableRoom(ctx context.Context, code string) (domain.Room, *RoomSession, error) {
	room, err := g.store.FindRoomByCode(ctx, NormalizeRoomCode(code))
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("find room: %w", err)
	}
	if room.Status != domain.PhaseWaiting {
		return domain.Room{}, nil, domain.ErrGameInProgress
	}
	session, ok := g.sessions.Get(room.ID)
	if !ok {
		return domain.Room{}, nil, domain.ErrRoomNotFound
	}
	return room, session, nil
}

// StartRequest asks to start a round in a waiting room.
type StartRequest struct {
	RoomID         string
	CallerID       string
	Category       string
	Difficulty     string
	TotalQuestions int
}

// StartGame loads and validates a question queue, then announces the round.
// On a question source failure the room is left waiting so the host can retry.
func (g *GameService) StartGame(ctx context.Context, req StartRequest) (err error) {
	room, session, err := g.hostedRoom(ctx, req.RoomID, req.CallerID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	defer g.guard(session, &err)

	if session.closed {
		return domain.ErrRoomNotFound
	}
	if session.phase == domain.PhasePlaying {
		return domain.ErrGameInProgress
	}

	count := g.limits.clamp(req.TotalQuestions)
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = g.limits.Category
	}
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if difficulty == "" {
		difficulty = g.limits.Difficulty
	}

	playing := domain.PhasePlaying
	zero := 0
	if err := g.store.UpdateRoom(ctx, room.ID, domain.RoomUpdate{
		Status:          &playing,
		Category:        &category,
		Difficulty:      &difficulty,
		CurrentQuestion: &zero,
		TotalQuestions:  &count,
	}); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	session.resetRoundLocked()
	session.phase = domain.PhasePlaying

	logger := log.With().Str("room", room.ID).Str("category", category).Str("difficulty", difficulty).Logger()
	logger.Info().Int("count", count).Msg("generating questions")

	batch, genErr := g.questions.Generate(ctx, category, difficulty, count)
	var accepted []domain.Question
	if genErr == nil {
		var rejected int
		accepted, rejected = ValidateBatch(batch)
		logger.Info().Int("accepted", len(accepted)).Int("rejected", rejected).Msg("questions validated")
	}
	if genErr != nil || len(accepted) == 0 {
		cause := genErr
		if cause == nil {
			cause = domain.ErrNoValidQuestions
		}
		logger.Error().Err(cause).Msg("start aborted")
		g.rollbackStartLocked(ctx, session)
		return fmt.Errorf("%w: %w", domain.ErrQuestionsUnavailable, cause)
	}
	if len(accepted) > count {
		accepted = accepted[:count]
	}
	if len(accepted) != count {
		total := len(accepted)
		if err := g.store.UpdateRoom(ctx, room.ID, domain.RoomUpdate{TotalQuestions: &total}); err != nil {
			logger.Warn().Err(err).Msg("update total questions")
		}
	}

	session.questions = accepted
	session.stage = StageAnnouncing
	g.out.ToRoom(room.ID, Event{Type: EventGameStarting, Payload: GameStartingPayload{
		Message:        "Game is starting!",
		Room:           RoomBrief{ID: room.ID, Code: room.Code},
		TotalQuestions: len(accepted),
	}})
	g.armLocked(session, timerAnnounce, g.timings.AnnounceDelay)
	return nil
}

func (g *GameService) rollbackStartLocked(ctx context.Context, session *RoomSession) {
	session.resetRoundLocked()
	session.phase = domain.PhaseWaiting
	waiting := domain.PhaseWaiting
	zero := 0
	if err := g.store.UpdateRoom(ctx, session.id, domain.RoomUpdate{Status: &waiting, CurrentQuestion: &zero}); err != nil {
		log.Error().Err(err).Str("room", session.id).Msg("reset room to waiting")
	}
}

// SubmitAnswer records the first answer of a player for the open question and
// reveals early once every listed player has answered. A negative latency means
// the client did not report one and the server-measured delay is used.
// It reports whether the answer was recorded.
func (g *GameService) SubmitAnswer(ctx context.Context, roomID, playerID, label string, latencyMillis int64) bool {
	session, ok := g.sessions.Get(roomID)
	if !ok {
		return false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	defer g.guard(session, nil)

	if session.closed || session.stage != StageQuestion {
		return false
	}
	question, ok := session.currentQuestionLocked()
	if !ok {
		return false
	}
	if label != "" && !domain.IsLabel(label) {
		log.Debug().Str("room", roomID).Str("player", playerID).Str("answer", label).Msg("invalid answer label dropped")
		return false
	}
	if _, member := session.playerLocked(playerID); !member {
		return false
	}
	if _, dup := session.answers[playerID]; dup {
		return false
	}
	if latencyMillis < 0 {
		latencyMillis = g.now().Sub(session.questionStartedAt).Milliseconds()
	}

	session.answers[playerID] = domain.Answer{
		PlayerID:      playerID,
		Label:         label,
		LatencyMillis: latencyMillis,
		Correct:       label != "" && label == question.CorrectAnswer,
	}
	if session.allAnsweredLocked() {
		g.revealLocked(ctx, session)
	}
	return true
}

// Chat relays a message to the sender's room.
func (g *GameService) Chat(ctx context.Context, roomID, playerID, message string) error {
	player, err := g.store.FindPlayerByID(ctx, playerID)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if player.RoomID != roomID {
		return nil
	}
	g.out.ToRoom(roomID, Event{Type: EventChatMessage, Payload: ChatMessagePayload{
		PlayerID:  player.ID,
		Username:  player.Username,
		Avatar:    player.Avatar,
		Message:   message,
		Timestamp: g.now(),
	}})
	return nil
}

// PlayAgain resets a room to waiting with zeroed scores.
func (g *GameService) PlayAgain(ctx context.Context, roomID, callerID string) (err error) {
	room, err := g.store.FindRoomByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("play again: %w", err)
	}
	if room.HostID != callerID {
		return domain.ErrNotHost
	}
	session, ok := g.sessions.Get(room.ID)
	if !ok {
		session, err = g.sessions.Create(room.ID, room.Code)
		if errors.Is(err, domain.ErrSessionExists) {
			if session, ok = g.sessions.Get(room.ID); !ok {
				return domain.ErrRoomNotFound
			}
		} else if err != nil {
			return fmt.Errorf("play again: %w", err)
		}
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	defer g.guard(session, &err)

	if session.closed {
		return domain.ErrRoomNotFound
	}
	if err := g.store.SetRoomScores(ctx, room.ID, 0); err != nil {
		return fmt.Errorf("play again: %w", err)
	}
	waiting := domain.PhaseWaiting
	zero := 0
	if err := g.store.UpdateRoom(ctx, room.ID, domain.RoomUpdate{Status: &waiting, CurrentQuestion: &zero}); err != nil {
		return fmt.Errorf("play again: %w", err)
	}
	players, err := g.store.FindPlayersByRoom(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("play again: %w", err)
	}
	// The durable room is reset; only now does the session follow.
	session.resetRoundLocked()
	session.phase = domain.PhaseWaiting
	session.players = lo.Map(players, func(p domain.Player, _ int) *domain.PlayerRef {
		ref := p.Ref()
		return &ref
	})

	room.Status = domain.PhaseWaiting
	room.CurrentQuestion = 0
	g.out.ToRoom(room.ID, Event{Type: EventGameReset, Payload: GameResetPayload{Room: room, Players: players}})
	log.Info().Str("room", room.ID).Int("players", len(players)).Msg("room reset")
	return nil
}

// Disconnect removes a player. A departing host terminates the room.
func (g *GameService) Disconnect(ctx context.Context, playerID string) (err error) {
	player, err := g.store.FindPlayerByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return nil
		}
		return fmt.Errorf("disconnect: %w", err)
	}
	roomID := player.RoomID
	g.out.LeaveRoom(roomID, playerID)

	session, live := g.sessions.Get(roomID)
	if live {
		session.mu.Lock()
		defer session.mu.Unlock()
		defer g.guard(session, &err)
		session.removePlayerLocked(playerID)
	}
	if err := g.store.DeletePlayer(ctx, playerID); err != nil {
		log.Error().Err(err).Str("room", roomID).Str("player", playerID).Msg("delete player")
	}

	if player.IsHost {
		finished := domain.PhaseFinished
		if err := g.store.UpdateRoom(ctx, roomID, domain.RoomUpdate{Status: &finished}); err != nil {
			log.Error().Err(err).Str("room", roomID).Msg("finish room")
		}
		g.out.ToRoom(roomID, Event{Type: EventGameEnded, Payload: GameEndedPayload{Reason: ReasonHostLeft}})
		if live {
			g.closeLocked(session)
		}
		log.Info().Str("room", roomID).Msg("host left, room closed")
		return nil
	}

	var players []domain.Player
	if live {
		players = g.rosterLocked(ctx, session)
	} else if players, err = g.store.FindPlayersByRoom(ctx, roomID); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("load roster")
		players = nil
	}
	g.out.ToRoom(roomID, Event{Type: EventRoomUpdate, Payload: RoomUpdatePayload{Players: players}})

	if live && !session.closed && session.stage == StageQuestion && session.allAnsweredLocked() {
		g.revealLocked(ctx, session)
	}
	return nil
}

// LookupRoom returns a room and its players by code.
func (g *GameService) LookupRoom(ctx context.Context, code string) (domain.Room, []domain.Player, error) {
	room, err := g.store.FindRoomByCode(ctx, NormalizeRoomCode(code))
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("lookup room: %w", err)
	}
	players, err := g.store.FindPlayersByRoom(ctx, room.ID)
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("lookup room: %w", err)
	}
	return room, players, nil
}

func (g *GameService) hostedRoom(ctx context.Context, roomID, callerID string) (domain.Room, *RoomSession, error) {
	room, err := g.store.FindRoomByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, nil, fmt.Errorf("find room: %w", err)
	}
	if room.HostID != callerID {
		return domain.Room{}, nil, domain.ErrNotHost
	}
	session, ok := g.sessions.Get(room.ID)
	if !ok {
		return domain.Room{}, nil, domain.ErrRoomNotFound
	}
	return room, session, nil
}

// rosterLocked reads the durable roster, falling back to the session copy.
func (g *GameService) rosterLocked(ctx context.Context, session *RoomSession) []domain.Player {
	players, err := g.store.FindPlayersByRoom(ctx, session.id)
	if err != nil {
		log.Warn().Err(err).Str("room", session.id).Msg("load roster, using session copy")
		return playersFromRefs(session.id, session.refsLocked())
	}
	return players
}

// abandonLocked tears down a room whose host could not be registered.
func (g *GameService) abandonLocked(ctx context.Context, session *RoomSession) {
	g.closeLocked(session)
	finished := domain.PhaseFinished
	if err := g.store.UpdateRoom(ctx, session.id, domain.RoomUpdate{Status: &finished}); err != nil {
		log.Error().Err(err).Str("room", session.id).Msg("finish abandoned room")
	}
}

// NormalizeRoomCode upper-cases and trims a client supplied code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomRoomCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}
