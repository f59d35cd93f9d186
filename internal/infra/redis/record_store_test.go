package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"quizzify-service/internal/domain"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRecordStore(client, "")
	ctx := context.Background()

	quizzes, err := store.LoadQuizzes(ctx)
	if err != nil || len(quizzes) != 0 {
		t.Fatalf("expected empty quizzes, got %v %v", quizzes, err)
	}
	quiz := domain.Quiz{ID: "q1", Code: "ABC123", Questions: []domain.Question{{ID: "x", CorrectAnswer: domain.MultiAnswer("a", "b"), Marks: 2}}}
	if err := store.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	if !mr.Exists("quizzify:quizzes") {
		t.Fatalf("expected default prefix key")
	}
	quiz.AttemptsCount = 1
	if err := store.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("upsert quiz: %v", err)
	}
	got, err := store.FindQuizByCode(ctx, "abc123")
	if err != nil || got.AttemptsCount != 1 {
		t.Fatalf("expected upserted quiz, got %+v %v", got, err)
	}
	if _, err := store.FindQuizByCode(ctx, "NOPE00"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a1"}); err != nil {
		t.Fatalf("save attempt: %v", err)
	}
	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a1"}); !errors.Is(err, domain.ErrDuplicateRecord) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if err := store.SaveUser(ctx, domain.User{ID: "user_1", XP: 40, Level: 1}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	user, _ := store.LoadUser(ctx)
	if user.XP != 40 {
		t.Fatalf("expected saved user, got %+v", user)
	}
}

func TestRecordStoreConcurrentAppendsUnderWatch(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewRecordStore(client, "test")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.SaveAttempt(ctx, domain.QuizAttempt{ID: fmt.Sprintf("a%d", i)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("save attempt: %v", err)
		}
	}
	attempts, _ := store.LoadAttempts(ctx)
	if len(attempts) != 5 {
		t.Fatalf("expected 5 attempts, got %d", len(attempts))
	}
}

func TestRecordStoreAtomicUpdatesUnderWatch(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewRecordStore(client, "test")
	ctx := context.Background()
	if err := store.SaveQuiz(ctx, domain.Quiz{ID: "q1", Code: "ABC123"}); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.IncrementAttempts(ctx, "q1")
			_, err := store.UpdateUser(ctx, func(u domain.User) domain.User {
				u.Streak++
				return u
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	quiz, _ := store.FindQuizByCode(ctx, "ABC123")
	user, _ := store.LoadUser(ctx)
	if quiz.AttemptsCount != 5 || user.Streak != 5 {
		t.Fatalf("lost updates: attemptsCount=%d streak=%d", quiz.AttemptsCount, user.Streak)
	}
	if err := store.IncrementAttempts(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCorruptKeyIsIsolated(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRecordStore(client, "test")
	ctx := context.Background()
	if err := mr.Set("test:quizzes", "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.LoadQuizzes(ctx); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a1"}); err != nil {
		t.Fatalf("attempts must be unaffected: %v", err)
	}
}
