package app

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"trivia-live-service/internal/domain"
)

// SampleQuestions picks up to count questions from a bank, preferring the requested
// difficulty and falling back to the whole bank when nothing matches it.
// The bank is not modified.
func SampleQuestions(bank []domain.Question, difficulty string, count int, rnd *rand.Rand) []domain.Question {
	pool := lo.Filter(bank, func(q domain.Question, _ int) bool {
		return strings.EqualFold(q.Difficulty, difficulty)
	})
	if len(pool) == 0 {
		pool = append([]domain.Question(nil), bank...)
	}
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if count > 0 && count < len(pool) {
		pool = pool[:count]
	}
	return pool
}

// FallbackSource asks each source in turn and returns the first batch with at
// least one question that passes validation. Only the valid questions are returned.
type FallbackSource []QuestionSource

func (f FallbackSource) Generate(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error) {
	var errs []error
	for i, source := range f {
		batch, err := source.Generate(ctx, category, difficulty, count)
		if err != nil {
			log.Warn().Err(err).Int("source", i).Str("category", category).Msg("question source failed")
			errs = append(errs, err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		accepted, rejected := ValidateBatch(batch)
		if len(accepted) > 0 {
			return accepted, nil
		}
		log.Warn().Int("source", i).Int("rejected", rejected).Str("category", category).Msg("question source returned no valid questions")
	}
	if len(errs) == 0 {
		return nil, domain.ErrNoValidQuestions
	}
	return nil, errors.Join(errs...)
}
