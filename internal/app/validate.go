package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"trivia-live-service/internal/domain"
)

// Check names reported when a candidate question is rejected, in the order they run.
const (
	CheckText          = "question_text"
	CheckOptionCount   = "option_count"
	CheckOptionFormat  = "option_format"
	CheckUniqueLabels  = "unique_labels"
	CheckCorrectAnswer = "correct_answer"
)

// ValidateBatch filters a candidate batch down to the questions that are safe to play.
// It never fails: rejected questions are logged with the first check they failed.
func ValidateBatch(batch []domain.Question) ([]domain.Question, int) {
	accepted := make([]domain.Question, 0, len(batch))
	rejected := 0
	for i, q := range batch {
		if failed := checkQuestion(q); failed != "" {
			rejected++
			log.Warn().
				Int("index", i).
				Str("check", failed).
				Str("question", q.Text).
				Str("correctAnswer", q.CorrectAnswer).
				Msg("question rejected")
			continue
		}
		accepted = append(accepted, q)
	}
	return accepted, rejected
}

func checkQuestion(q domain.Question) string {
	if strings.TrimSpace(q.Text) == "" {
		return CheckText
	}
	if len(q.Options) != len(domain.Labels) {
		return CheckOptionCount
	}
	for _, opt := range q.Options {
		if !domain.IsLabel(opt.Label) || strings.TrimSpace(opt.Text) == "" {
			return CheckOptionFormat
		}
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt.Label]; dup {
			return CheckUniqueLabels
		}
		seen[opt.Label] = struct{}{}
	}
	if !q.HasCorrectOption() {
		return CheckCorrectAnswer
	}
	return ""
}
