package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/memory"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Capitals",
		Topic:     "Geography",
		Code:      "ABC123",
		TimeLimit: 1,
		Theme:     domain.ThemeRoyal,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionMCQ, Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: domain.SingleAnswer("Paris"), Marks: 1},
			{ID: "q2", Type: domain.QuestionTrueFalse, Text: "Rome is in Italy.", Options: []string{"True", "False"}, CorrectAnswer: domain.SingleAnswer("True"), Marks: 1},
			{ID: "q3", Type: domain.QuestionMatching, Text: "Order these.", CorrectAnswer: domain.MultiAnswer("x", "y"), Marks: 2},
		},
	}
}

type testServer struct {
	*httptest.Server
	store *memory.RecordStore
	clock *clockwork.FakeClock
}

func newTestServer(t *testing.T, analyzer app.AttemptAnalyzer) *testServer {
	t.Helper()
	store := memory.NewRecordStore()
	if err := store.SaveQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	logger, _ := test.NewNullLogger()
	service := app.NewQuizService(app.Deps{
		Store:    store,
		Finder:   memory.NewQuizCache(store, time.Minute),
		Sessions: memory.NewSessionStore(),
		Analyzer: analyzer,
		Logger:   logger,
	})
	clock := clockwork.NewFakeClock()
	router := NewRouter(NewAPI(service, logger), NewWSHandler(service, clock, logger))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, clock: clock}
}

type fakeAnalyzer struct {
	analysis domain.Analysis
	err      error
}

func (f fakeAnalyzer) AnalyzeAttempt(context.Context, domain.Quiz, domain.QuizAttempt) (domain.Analysis, error) {
	return f.analysis, f.err
}
