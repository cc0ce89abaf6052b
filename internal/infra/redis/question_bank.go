package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// BankLoader fetches the question bank of a category from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionBank caches category banks in Redis and falls back to a loader on cache miss.
// A bank is stored as a JSON array: SET questions:bank:{category} [...] EX ttl
type QuestionBank struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader BankLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
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
	b.mu.Lock()
	defer b.mu.Unlock()
	return app.SampleQuestions(bank, difficulty, count, b.rnd), nil
}

// Bank returns the bank of a category from Redis, loading and caching it on a miss.
func (b *QuestionBank) Bank(ctx context.Context, category string) ([]domain.Question, error) {
	key := b.key(category)
	if bank, ok := b.cached(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := b.cached(ctx, key); ok {
			return bank, nil
		}
		bank, err := b.loader.LoadBank(ctx, category)
		if err != nil {
			return nil, err
		}
		if len(bank) > 0 {
			raw, err := json.Marshal(bank)
			if err != nil {
				return nil, err
			}
			if err := b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err(); err != nil {
				log.Warn().Err(err).Str("category", category).Msg("cache question bank")
			}
		}
		return bank, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load bank %q: %w", category, err)
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("read question bank cache")
		}
		return nil, false
	}
	var bank []domain.Question
	if err := json.Unmarshal(raw, &bank); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt question bank cache")
		return nil, false
	}
	return bank, len(bank) > 0
}

func (b *QuestionBank) key(category string) string {
	return "questions:bank:" + strings.ToLower(category)
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
