package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quizzify-service/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus/hooks/test"
)

// scriptedModel replays one reply per call; an empty reply means a call error.
type scriptedModel struct {
	replies []string
	calls   int
	prompts []string
}

func (m *scriptedModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if text, ok := parts[0].(genai.Text); ok {
			m.prompts = append(m.prompts, string(text))
		}
	}
	i := m.calls
	m.calls++
	if i >= len(m.replies) || m.replies[i] == "" {
		return nil, errors.New("unavailable")
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(m.replies[i])}},
	}}}, nil
}

func newTestClient(questions, analysis contentGenerator) *Client {
	logger, _ := test.NewNullLogger()
	c := newClient(questions, analysis, 0, logger)
	c.retryDelay = 0
	return c
}

func TestGenerateQuestionsDecodesFencedJSON(t *testing.T) {
	model := &scriptedModel{replies: []string{"```json\n" + `[
		{"text":"2+2?","type":"mcq","options":["3","4"],"correctAnswer":"4","explanation":"sum","difficulty":"easy","marks":1.6},
		{"text":"Sky is blue.","type":"TRUE_FALSE","correctAnswer":"True","marks":1}
	]` + "\n```"}}
	c := newTestClient(model, nil)

	questions, err := c.GenerateQuestions(context.Background(), "Math", 2, domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	q := questions[0]
	if q.Type != domain.QuestionMCQ || q.Difficulty != domain.DifficultyEasy || q.Marks != 2 {
		t.Fatalf("unexpected normalization %+v", q)
	}
	if !q.CorrectAnswer.Equal(domain.SingleAnswer("4")) {
		t.Fatalf("unexpected answer %v", q.CorrectAnswer)
	}
	if !strings.Contains(model.prompts[0], `"Math"`) || !strings.Contains(model.prompts[0], "Include 2 questions") {
		t.Fatalf("prompt missing topic or count: %s", model.prompts[0])
	}
}

func TestGenerateQuestionsRetriesMalformedOutput(t *testing.T) {
	model := &scriptedModel{replies: []string{"", "not json at all", `[{"text":"Q","correctAnswer":"A"}]`}}
	c := newTestClient(model, nil)

	questions, err := c.GenerateQuestions(context.Background(), "Go", 1, domain.DifficultyMedium)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if model.calls != 3 || len(questions) != 1 {
		t.Fatalf("expected 3 calls and 1 question, got %d calls %d questions", model.calls, len(questions))
	}
}

func TestGenerateQuestionsGivesUp(t *testing.T) {
	model := &scriptedModel{replies: []string{"[]", `{"oops":true}`, "[1, 2]"}}
	c := newTestClient(model, nil)

	_, err := c.GenerateQuestions(context.Background(), "Go", 1, domain.DifficultyMedium)
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if model.calls != maxAttempts {
		t.Fatalf("expected %d calls, got %d", maxAttempts, model.calls)
	}
}

func TestAnalyzeAttempt(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"feedback":"Good pace.","weakTopics":["Matching"],"improvementTips":["Review pairs"]}`}}
	c := newTestClient(nil, model)
	quiz := domain.Quiz{Topic: "Geo", TimeLimit: 1, Questions: []domain.Question{{ID: "q1", Text: "Capital?", CorrectAnswer: domain.SingleAnswer("Paris"), Marks: 1}}}
	attempt := domain.QuizAttempt{Score: 1, TotalMarks: 1, TimeTaken: 20, Answers: map[string]domain.Answer{"q1": domain.SingleAnswer("Paris")}}

	analysis, err := c.AnalyzeAttempt(context.Background(), quiz, attempt)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Feedback != "Good pace." || len(analysis.WeakTopics) != 1 {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if !strings.Contains(model.prompts[0], `"timeLimitSeconds":60`) || !strings.Contains(model.prompts[0], `"correct":true`) {
		t.Fatalf("prompt missing performance data: %s", model.prompts[0])
	}
}

func TestAnalyzeAttemptRejectsEmptyFeedback(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"feedback":""}`, `{"feedback":"  "}`, `{}`}}
	c := newTestClient(nil, model)
	if _, err := c.AnalyzeAttempt(context.Background(), domain.Quiz{}, domain.QuizAttempt{}); !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{in: `[{"a":1}]`, want: `[{"a":1}]`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n[1]\n```", want: `[1]`},
		{in: "Here you go: {\"a\":1} hope it helps", want: `{"a":1}`},
		{in: "no json here", want: ""},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}
