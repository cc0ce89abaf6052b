package app

import (
	"cmp"
	"context"
	"runtime/debug"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

// armLocked replaces the room's single timer slot.
func (g *GameService) armLocked(s *RoomSession, kind timerKind, d time.Duration) {
	s.disarmLocked()
	seq := s.timerSeq
	s.pending = kind
	s.timer = g.sched.AfterFunc(d, func() { g.fire(s, seq, kind) })
}

// fire re-enters a room from a timer. The room is looked up again so that a
// callback outliving its session, or superseded by a newer timer, does nothing.
func (g *GameService) fire(owner *RoomSession, seq uint64, kind timerKind) {
	s, ok := g.sessions.Get(owner.id)
	if !ok || s != owner {
		log.Debug().Str("room", owner.id).Stringer("timer", kind).Msg("timer fired for a removed session")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.timerSeq != seq {
		return
	}
	s.timer = nil
	s.pending = timerNone

	ctx, cancel := context.WithTimeout(context.Background(), g.timings.StoreTimeout)
	defer cancel()
	defer g.guard(s, nil)

	switch kind {
	case timerAnnounce, timerSkip:
		g.sendNextLocked(ctx, s)
	case timerQuestion:
		g.revealLocked(ctx, s)
	case timerAdvance:
		s.stage = StageAnnouncing
		g.sendNextLocked(ctx, s)
	case timerExpire:
		g.expireLocked(s)
	}
}

// sendNextLocked broadcasts the question at the cursor or ends the game when the queue is drained.
func (g *GameService) sendNextLocked(ctx context.Context, s *RoomSession) {
	if s.phase != domain.PhasePlaying {
		return
	}
	if s.index >= len(s.questions) {
		g.endGameLocked(ctx, s)
		return
	}
	question := s.questions[s.index]
	if !question.HasCorrectOption() {
		log.Error().Str("room", s.id).Int("index", s.index).Msg("question has no matching correct option, skipping")
		g.skipLocked(s)
		return
	}

	s.answers = make(map[string]domain.Answer)
	s.stage = StageQuestion
	s.questionStartedAt = g.now()

	number := s.index + 1
	if err := g.store.UpdateRoom(ctx, s.id, domain.RoomUpdate{CurrentQuestion: &number}); err != nil {
		log.Warn().Err(err).Str("room", s.id).Msg("mirror current question")
	}
	g.out.ToRoom(s.id, Event{Type: EventNewQuestion, Payload: NewQuestionPayload{
		QuestionNumber: number,
		TotalQuestions: len(s.questions),
		Question:       question.Text,
		Options:        slices.Clone(question.Options),
		TimeLimit:      int(g.timings.QuestionTimeout / time.Second),
	}})
	g.armLocked(s, timerQuestion, g.timings.QuestionTimeout)
}

func (g *GameService) skipLocked(s *RoomSession) {
	s.index++
	s.stage = StageAnnouncing
	g.armLocked(s, timerSkip, g.timings.SkipDelay)
}

// revealLocked scores the open question and schedules the next one.
// It runs at most once per question: the revealing stage turns later calls into no-ops.
func (g *GameService) revealLocked(ctx context.Context, s *RoomSession) {
	if s.stage == StageRevealing {
		return
	}
	s.disarmLocked()
	s.stage = StageRevealing

	question, ok := s.currentQuestionLocked()
	if !ok {
		log.Error().Str("room", s.id).Int("index", s.index).Msg("reveal without a current question, skipping")
		g.skipLocked(s)
		return
	}
	// Move past the question before scoring so a failed reveal never re-asks it.
	s.index++

	for playerID, answer := range s.answers {
		if !answer.Correct {
			continue
		}
		points := Score(answer.LatencyMillis)
		if err := g.store.IncrementPlayerScore(ctx, playerID, points); err != nil {
			log.Error().Err(err).Str("room", s.id).Str("player", playerID).Msg("increment score")
			continue
		}
		if ref, ok := s.playerLocked(playerID); ok {
			ref.Score += points
		}
	}

	players, err := g.store.FindPlayersByRoom(ctx, s.id)
	if err != nil {
		log.Warn().Err(err).Str("room", s.id).Msg("load roster for reveal, using session copy")
		players = playersFromRefs(s.id, s.refsLocked())
	}

	g.out.ToRoom(s.id, Event{Type: EventAnswerReveal, Payload: AnswerRevealPayload{
		CorrectAnswer:  question.CorrectAnswer,
		Explanation:    question.Explanation,
		PlayerAnswers:  lo.Assign(s.answers),
		UpdatedPlayers: players,
	}})
	g.armLocked(s, timerAdvance, g.timings.RevealDelay)
}

func (g *GameService) endGameLocked(ctx context.Context, s *RoomSession) {
	s.disarmLocked()
	s.phase = domain.PhaseFinished
	s.stage = StageIdle

	finished := domain.PhaseFinished
	if err := g.store.UpdateRoom(ctx, s.id, domain.RoomUpdate{Status: &finished}); err != nil {
		log.Error().Err(err).Str("room", s.id).Msg("finish room")
	}
	leaderboard, err := g.store.RankPlayersByRoom(ctx, s.id)
	if err != nil || len(leaderboard) == 0 {
		log.Warn().Err(err).Str("room", s.id).Msg("rank players, using session copy")
		refs := s.refsLocked()
		slices.SortStableFunc(refs, func(a, b domain.PlayerRef) int { return cmp.Compare(b.Score, a.Score) })
		leaderboard = playersFromRefs(s.id, refs)
	}

	g.out.ToRoom(s.id, Event{Type: EventGameEnded, Payload: GameEndedPayload{
		Reason:      ReasonCompleted,
		Leaderboard: leaderboard,
		RoomCode:    s.code,
	}})
	log.Info().Str("room", s.id).Int("questions", len(s.questions)).Msg("game finished")

	if g.timings.FinishedTTL > 0 {
		g.armLocked(s, timerExpire, g.timings.FinishedTTL)
	}
}

func (g *GameService) expireLocked(s *RoomSession) {
	if s.phase != domain.PhaseFinished {
		return
	}
	g.closeLocked(s)
	log.Info().Str("room", s.id).Msg("finished session expired")
}

func (g *GameService) closeLocked(s *RoomSession) {
	s.disarmLocked()
	s.closed = true
	s.phase = domain.PhaseFinished
	s.stage = StageIdle
	g.sessions.Delete(s.id)
}

// guard recovers a panicking handler so that one room cannot take the process
// down, and makes sure a playing room still has a timer pending afterwards.
// Deferred while the session lock is held.
func (g *GameService) guard(s *RoomSession, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	log.Error().
		Str("room", s.id).
		Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("room handler panicked")
	if errp != nil {
		*errp = domain.ErrInternal
	}
	g.out.ToRoom(s.id, ErrorEvent("Something went wrong in this room"))
	g.ensureProgressLocked(s)
}

func (g *GameService) ensureProgressLocked(s *RoomSession) {
	if s.closed || s.phase != domain.PhasePlaying || s.timer != nil {
		return
	}
	switch s.stage {
	case StageRevealing:
		g.armLocked(s, timerAdvance, g.timings.RevealDelay)
	case StageQuestion:
		g.armLocked(s, timerQuestion, g.timings.QuestionTimeout)
	default:
		g.armLocked(s, timerSkip, g.timings.SkipDelay)
	}
}
