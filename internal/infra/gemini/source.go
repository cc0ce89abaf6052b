package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"trivia-live-service/internal/domain"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	ErrNoJSON      = errors.New("model reply contains no question array")
	ErrEmptyReply  = errors.New("model reply is empty")
	jsonArrayMatch = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// Config configures the Gemini question source.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// QuestionSource asks a Gemini model for quiz questions. It implements app.QuestionSource;
// its output still has to go through the validator.
type QuestionSource struct {
	cfg    Config
	client *http.Client
}

func NewQuestionSource(cfg Config) *QuestionSource {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &QuestionSource{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (s *QuestionSource) Generate(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt(category, difficulty, count)}}}},
		GenerationConfig: generationConfig{Temperature: 0.7},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model, url.QueryEscape(s.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gemini decode: %w", err)
	}
	var text strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyReply
	}

	questions, err := ParseQuestions(text.String())
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Category = category
		questions[i].Difficulty = difficulty
	}
	log.Debug().
		Str("category", category).
		Int("count", len(questions)).
		Dur("took", time.Since(started)).
		Msg("gemini questions generated")
	return questions, nil
}

type rawQuestion struct {
	Question string `json:"question"`
	Options  []struct {
		Key  any `json:"key"`
		Text any `json:"text"`
	} `json:"options"`
	CorrectAnswer any    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// ParseQuestions extracts the first JSON question array from a model reply.
// Option keys are upper-cased and a numeric correctAnswer becomes a string;
// nothing else is checked here.
func ParseQuestions(reply string) ([]domain.Question, error) {
	match := jsonArrayMatch.FindString(reply)
	if match == "" {
		return nil, ErrNoJSON
	}
	var raws []rawQuestion
	if err := json.Unmarshal([]byte(match), &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	questions := make([]domain.Question, 0, len(raws))
	for _, r := range raws {
		q := domain.Question{
			Text:          r.Question,
			CorrectAnswer: strings.ToUpper(strings.TrimSpace(stringify(r.CorrectAnswer))),
			Explanation:   r.Explanation,
		}
		for _, opt := range r.Options {
			q.Options = append(q.Options, domain.Option{
				Label: strings.ToUpper(strings.TrimSpace(stringify(opt.Key))),
				Text:  stringify(opt.Text),
			})
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func prompt(category, difficulty string, count int) string {
	return fmt.Sprintf(`Create %d quiz questions as a STRICT JSON array.
- Category: %s
- Difficulty: %s

Rules:
1. Every question has exactly 4 options with the keys A, B, C, D.
2. correctAnswer is the string "A", "B", "C" or "D", never a number.
3. correctAnswer matches one of the option keys.
4. Every option is relevant to the question and exactly one is correct.
5. Answers are factually accurate.

Format:
[
  {
    "question": "A clear, specific question?",
    "options": [
      {"key": "A", "text": "Option A"},
      {"key": "B", "text": "Option B"},
      {"key": "C", "text": "Option C"},
      {"key": "D", "text": "Option D"}
    ],
    "correctAnswer": "A",
    "explanation": "Why A is correct"
  }
]

Reply with the JSON array only.`, count, category, difficulty)
}
