package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestFindQuizByCodeIgnoresCase(t *testing.T) {
	quizzes := []Quiz{{ID: "q1", Code: "ABC123"}, {ID: "q2", Code: "ZZZ999"}}
	got, ok := FindQuizByCode(quizzes, "abc123")
	if !ok || got.ID != "q1" {
		t.Fatalf("expected q1, got %+v (ok=%v)", got, ok)
	}
	if _, ok := FindQuizByCode(quizzes, "NOPE00"); ok {
		t.Fatalf("expected no match")
	}
}

func TestUpsertQuizReplacesInPlace(t *testing.T) {
	quizzes := []Quiz{{ID: "q1", AttemptsCount: 0}, {ID: "q2"}}
	quizzes = UpsertQuiz(quizzes, Quiz{ID: "q1", AttemptsCount: 3})
	if len(quizzes) != 2 || quizzes[0].AttemptsCount != 3 {
		t.Fatalf("expected in-place replace, got %+v", quizzes)
	}
	quizzes = UpsertQuiz(quizzes, Quiz{ID: "q3"})
	if len(quizzes) != 3 || quizzes[2].ID != "q3" {
		t.Fatalf("expected append, got %+v", quizzes)
	}
}

func TestAppendAttemptRefusesDuplicates(t *testing.T) {
	attempts, err := AppendAttempt(nil, QuizAttempt{ID: "a1"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	attempts, err = AppendAttempt(attempts, QuizAttempt{ID: "a1", Score: 9})
	if !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if len(attempts) != 1 || attempts[0].Score != 0 {
		t.Fatalf("existing attempt must be unchanged, got %+v", attempts)
	}
}

func TestIncrementAttempts(t *testing.T) {
	quizzes := []Quiz{{ID: "q1"}, {ID: "q2", AttemptsCount: 4}}
	quizzes, err := IncrementAttempts(quizzes, "q2")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if quizzes[0].AttemptsCount != 0 || quizzes[1].AttemptsCount != 5 {
		t.Fatalf("unexpected counts %+v", quizzes)
	}
	if _, err := IncrementAttempts(quizzes, "missing"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewLocalUserDefaults(t *testing.T) {
	u := NewLocalUser()
	if !strings.HasPrefix(u.ID, "user_") || len(u.ID) != len("user_")+8 {
		t.Fatalf("unexpected id %q", u.ID)
	}
	if u.Level != 1 || u.XP != 0 || u.Role != RoleStudent || u.IsOnboarded {
		t.Fatalf("unexpected defaults %+v", u)
	}
	if u.Badges == nil {
		t.Fatalf("badges should encode as an empty list")
	}
}
