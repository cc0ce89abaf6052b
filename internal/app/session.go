package app

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

// Stage is the position of a playing room inside the current question cycle.
type Stage int

const (
	// StageIdle covers the waiting and finished phases.
	StageIdle Stage = iota
	// StageAnnouncing is the gap before a question is broadcast (start delay or skip).
	StageAnnouncing
	// StageQuestion means a question is open for answers.
	StageQuestion
	// StageRevealing gates the single reveal-and-advance cycle of a question.
	StageRevealing
)

func (s Stage) String() string {
	switch s {
	case StageAnnouncing:
		return "announcing"
	case StageQuestion:
		return "question"
	case StageRevealing:
		return "revealing"
	default:
		return "idle"
	}
}

type timerKind int

const (
	timerNone timerKind = iota
	timerAnnounce
	timerQuestion
	timerAdvance
	timerSkip
	timerExpire
)

func (k timerKind) String() string {
	switch k {
	case timerAnnounce:
		return "announce"
	case timerQuestion:
		return "question_timeout"
	case timerAdvance:
		return "advance"
	case timerSkip:
		return "skip"
	case timerExpire:
		return "expire"
	default:
		return "none"
	}
}

// RoomSession is the in-memory state driving one room's live progression.
// Every field is guarded by mu; the registry is the only long-lived owner.
type RoomSession struct {
	id   string
	code string

	mu                sync.Mutex
	phase             domain.Phase
	stage             Stage
	players           []*domain.PlayerRef
	questions         []domain.Question
	index             int
	answers           map[string]domain.Answer
	questionStartedAt time.Time
	timer             Timer
	pending           timerKind
	timerSeq          uint64
	closed            bool
}

// NewRoomSession is exported for registry implementations.
func NewRoomSession(roomID, code string) *RoomSession {
	return &RoomSession{
		id:      roomID,
		code:    code,
		phase:   domain.PhaseWaiting,
		answers: make(map[string]domain.Answer),
	}
}

// ID returns the room identifier.
func (s *RoomSession) ID() string { return s.id }

// Code returns the room code.
func (s *RoomSession) Code() string { return s.code }

// SessionSnapshot is a consistent read-only copy of a RoomSession.
type SessionSnapshot struct {
	RoomID       string
	Phase        domain.Phase
	Stage        Stage
	Players      []domain.PlayerRef
	Questions    int
	Index        int
	Answers      map[string]domain.Answer
	TimerPending bool
	Closed       bool
}

// Revealing reports whether the snapshot was taken inside a reveal cycle.
func (s SessionSnapshot) Revealing() bool { return s.Stage == StageRevealing }

// Snapshot copies the session state under its lock.
func (s *RoomSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		RoomID:       s.id,
		Phase:        s.phase,
		Stage:        s.stage,
		Players:      s.refsLocked(),
		Questions:    len(s.questions),
		Index:        s.index,
		Answers:      lo.Assign(s.answers),
		TimerPending: s.timer != nil,
		Closed:       s.closed,
	}
}

func (s *RoomSession) refsLocked() []domain.PlayerRef {
	return lo.Map(s.players, func(p *domain.PlayerRef, _ int) domain.PlayerRef { return *p })
}

func (s *RoomSession) addPlayerLocked(ref domain.PlayerRef) {
	if _, ok := s.playerLocked(ref.ID); ok {
		return
	}
	s.players = append(s.players, &ref)
}

func (s *RoomSession) playerLocked(id string) (*domain.PlayerRef, bool) {
	return lo.Find(s.players, func(p *domain.PlayerRef) bool { return p.ID == id })
}

func (s *RoomSession) removePlayerLocked(id string) {
	s.players = lo.Reject(s.players, func(p *domain.PlayerRef, _ int) bool { return p.ID == id })
	delete(s.answers, id)
}

func (s *RoomSession) currentQuestionLocked() (domain.Question, bool) {
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// allAnsweredLocked reports full consensus: every listed player has an answer on record.
func (s *RoomSession) allAnsweredLocked() bool {
	if len(s.players) == 0 {
		return false
	}
	return lo.EveryBy(s.players, func(p *domain.PlayerRef) bool {
		_, ok := s.answers[p.ID]
		return ok
	})
}

func (s *RoomSession) resetRoundLocked() {
	s.disarmLocked()
	s.questions = nil
	s.index = 0
	s.answers = make(map[string]domain.Answer)
	s.questionStartedAt = time.Time{}
	s.stage = StageIdle
}

// disarmLocked cancels the outstanding timer. Bumping the sequence turns a
// callback that already fired but has not yet acquired the lock into a no-op.
func (s *RoomSession) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = timerNone
	s.timerSeq++
}
