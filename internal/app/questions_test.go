package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Generate(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error) {
	args := m.Called(ctx, category, difficulty, count)
	questions, _ := args.Get(0).([]domain.Question)
	return questions, args.Error(1)
}

func TestSampleQuestionsPrefersDifficulty(t *testing.T) {
	bank := []domain.Question{
		question("q1", "B", "easy"),
		question("q2", "B", "hard"),
		question("q3", "B", "hard"),
		question("q4", "B", "medium"),
	}
	rnd := rand.New(rand.NewSource(1))

	picked := app.SampleQuestions(bank, "HARD", 5, rnd)
	require.Len(t, picked, 2)
	for _, q := range picked {
		require.Equal(t, "hard", q.Difficulty)
	}

	picked = app.SampleQuestions(bank, "expert", 3, rnd)
	require.Len(t, picked, 3)
	require.Equal(t, "q1", bank[0].Text, "bank must not be reordered")
}

func TestFallbackSourceUsesFirstNonEmptyBatch(t *testing.T) {
	ctx := context.Background()
	failing := &mockSource{}
	failing.On("Generate", ctx, "Science", "easy", 3).Return(nil, errors.New("upstream down")).Once()
	empty := &mockSource{}
	empty.On("Generate", ctx, "Science", "easy", 3).Return([]domain.Question{}, nil).Once()
	good := &mockSource{}
	good.On("Generate", ctx, "Science", "easy", 3).Return([]domain.Question{question("q1", "A", "easy")}, nil).Once()
	unused := &mockSource{}

	batch, err := app.FallbackSource{failing, empty, good, unused}.Generate(ctx, "Science", "easy", 3)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	failing.AssertExpectations(t)
	empty.AssertExpectations(t)
	good.AssertExpectations(t)
	unused.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFallbackSourceReportsFailures(t *testing.T) {
	ctx := context.Background()
	down := errors.New("upstream down")
	failing := &mockSource{}
	failing.On("Generate", ctx, "General", "medium", 5).Return(nil, down)

	_, err := app.FallbackSource{failing}.Generate(ctx, "General", "medium", 5)
	require.ErrorIs(t, err, down)

	empty := &mockSource{}
	empty.On("Generate", ctx, "General", "medium", 5).Return(nil, nil)
	_, err = app.FallbackSource{empty}.Generate(ctx, "General", "medium", 5)
	require.ErrorIs(t, err, domain.ErrNoValidQuestions)
}

func question(text, correct, difficulty string) domain.Question {
	return domain.Question{
		Text: text,
		Options: []domain.Option{
			{Label: "A", Text: "alpha"},
			{Label: "B", Text: "bravo"},
			{Label: "C", Text: "charlie"},
			{Label: "D", Text: "delta"},
		},
		CorrectAnswer: correct,
		Explanation:   "because " + correct,
		Difficulty:    difficulty,
	}
}

func TestFallbackSourceSkipsBatchWithoutValidQuestions(t *testing.T) {
	ctx := context.Background()
	broken := question("q1", "E", "easy")
	malformed := &mockSource{}
	malformed.On("Generate", ctx, "Science", "easy", 2).
		Return([]domain.Question{broken, {Text: "no options", CorrectAnswer: "A"}}, nil).Once()
	bank := &mockSource{}
	bank.On("Generate", ctx, "Science", "easy", 2).
		Return([]domain.Question{question("q2", "B", "easy"), broken}, nil).Once()

	batch, err := app.FallbackSource{malformed, bank}.Generate(ctx, "Science", "easy", 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "q2", batch[0].Text)
	malformed.AssertExpectations(t)
	bank.AssertExpectations(t)

	onlyMalformed := &mockSource{}
	onlyMalformed.On("Generate", ctx, "Science", "easy", 2).Return([]domain.Question{broken}, nil)
	_, err = app.FallbackSource{onlyMalformed}.Generate(ctx, "Science", "easy", 2)
	require.ErrorIs(t, err, domain.ErrNoValidQuestions)
}
