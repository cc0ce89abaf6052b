package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// BankLoader fetches the question bank of a category from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionBank caches category banks with TTL to avoid repeated store hits
// and samples rounds out of them. It implements app.QuestionSource.
type QuestionBank struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader BankLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (b *QuestionBank) Generate(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error) {
	bank, err := b.Bank(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("category %q: %w", category, domain.ErrNoValidQuestions)
	}
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return app.SampleQuestions(bank, difficulty, count, b.rnd), nil
}

// Bank returns the cached bank of a category, loading it on a miss.
func (b *QuestionBank) Bank(ctx context.Context, category string) ([]domain.Question, error) {
	key := strings.ToLower(category)
	if bank, ok := b.cached(key); ok {
		return bank, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		if bank, ok := b.cached(key); ok {
			return bank, nil
		}
		bank, err := b.loader.LoadBank(ctx, category)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.cache[key] = cachedBank{
			questions: bank,
			expiresAt: b.clock().Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load bank %q: %w", category, err)
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) cached(key string) ([]domain.Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.cache[key]
	if !ok || !entry.expiresAt.After(b.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[string][]domain.Question
}

func NewStaticBankLoader(banks map[string][]domain.Question) *StaticBankLoader {
	normalized := make(map[string][]domain.Question, len(banks))
	for category, questions := range banks {
		normalized[strings.ToLower(category)] = questions
	}
	return &StaticBankLoader{banks: normalized}
}

// LoadBank returns an empty bank for unknown categories.
func (l *StaticBankLoader) LoadBank(_ context.Context, category string) ([]domain.Question, error) {
	return l.banks[strings.ToLower(category)], nil
}
