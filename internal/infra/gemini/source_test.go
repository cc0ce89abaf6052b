package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reply = "Here you go:\n```json\n" + `[
  {
    "question": "What is the capital of France?",
    "options": [
      {"key": "a", "text": "Paris"},
      {"key": "b", "text": "Lyon"},
      {"key": "c", "text": "Nice"},
      {"key": "d", "text": "Lille"}
    ],
    "correctAnswer": "A",
    "explanation": "Paris is the capital."
  },
  {
    "question": "How many legs does a spider have?",
    "options": [
      {"key": "A", "text": 6},
      {"key": "B", "text": 8},
      {"key": "C", "text": 10},
      {"key": "D", "text": 12}
    ],
    "correctAnswer": 2,
    "explanation": "Spiders have eight legs."
  }
]` + "\n```"

func TestGenerateParsesReply(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply}}}},
			},
		})
	}))
	defer srv.Close()

	source := NewQuestionSource(Config{APIKey: "secret", BaseURL: srv.URL})
	questions, err := source.Generate(context.Background(), "Geography", "easy", 2)
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotPrompt, "Create 2 quiz questions")
	assert.Contains(t, gotPrompt, "Category: Geography")

	require.Len(t, questions, 2)
	assert.Equal(t, "A", questions[0].Options[0].Label)
	assert.Equal(t, "A", questions[0].CorrectAnswer)
	assert.True(t, questions[0].HasCorrectOption())
	assert.Equal(t, "Geography", questions[0].Category)
	assert.Equal(t, "8", questions[1].Options[1].Text)
	// numeric answers are coerced but still fail validation later
	assert.Equal(t, "2", questions[1].CorrectAnswer)
	assert.False(t, questions[1].HasCorrectOption())
}

func TestGenerateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewQuestionSource(Config{BaseURL: srv.URL}).Generate(context.Background(), "General", "medium", 5)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestParseQuestionsWithoutArray(t *testing.T) {
	_, err := ParseQuestions("I cannot help with that.")
	assert.True(t, errors.Is(err, ErrNoJSON))
}
