package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/memory"
)

const sampleCode = "ABC123"

var fixedNow = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

// sampleQuiz has marks [1, 1, 2] and a one minute limit.
func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Capitals",
		Topic:     "Geography",
		Code:      sampleCode,
		TimeLimit: 1,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionMCQ, Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: domain.SingleAnswer("Paris"), Marks: 1},
			{ID: "q2", Type: domain.QuestionTrueFalse, Text: "Rome is in Italy.", Options: []string{"True", "False"}, CorrectAnswer: domain.SingleAnswer("True"), Marks: 1},
			{ID: "q3", Type: domain.QuestionMatching, Text: "Order these.", CorrectAnswer: domain.MultiAnswer("x", "y"), Marks: 2},
		},
	}
}

func seededStore(t *testing.T) *memory.RecordStore {
	t.Helper()
	store := memory.NewRecordStore()
	if err := store.SaveQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return store
}

func loadedSession(t *testing.T, store app.RecordStore) *app.Session {
	t.Helper()
	s := app.NewSessionWithClock("s1", "user-1", store, nil, nil, func() time.Time { return fixedNow })
	if err := s.Load(context.Background(), sampleCode); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func attemptCount(t *testing.T, store app.RecordStore) int {
	t.Helper()
	attempts, err := store.LoadAttempts(context.Background())
	if err != nil {
		t.Fatalf("load attempts: %v", err)
	}
	return len(attempts)
}

// failingAttempts rejects every attempt write.
type failingAttempts struct {
	*memory.RecordStore
}

func (failingAttempts) SaveAttempt(context.Context, domain.QuizAttempt) error {
	return errors.New("disk full")
}

// slowReads delays the plain reads so an unguarded read-then-write would
// overlap with its neighbours.
type slowReads struct {
	*memory.RecordStore
}

func (s slowReads) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	time.Sleep(time.Millisecond)
	return s.RecordStore.FindQuizByCode(ctx, code)
}

func (s slowReads) LoadUser(ctx context.Context) (domain.User, error) {
	time.Sleep(time.Millisecond)
	return s.RecordStore.LoadUser(ctx)
}

type fakeGenerator struct {
	questions []domain.Question
	err       error
	calls     int
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, _ string, count int, _ domain.Difficulty) ([]domain.Question, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.questions != nil {
		return f.questions, nil
	}
	out := make([]domain.Question, count)
	for i := range out {
		out[i] = domain.Question{Text: "Generated?", Options: []string{"a", "b"}, CorrectAnswer: domain.SingleAnswer("a")}
	}
	return out, nil
}

type fakeAnalyzer struct {
	analysis domain.Analysis
	err      error
}

func (f fakeAnalyzer) AnalyzeAttempt(context.Context, domain.Quiz, domain.QuizAttempt) (domain.Analysis, error) {
	return f.analysis, f.err
}
