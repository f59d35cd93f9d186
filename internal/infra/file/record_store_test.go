package file

import (
	"context"
	"errors"
	"sync"
	"testing"

	"quizzify-service/internal/domain"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T, fs afero.Fs) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(fs, "data")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestRecordStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)

	quiz := domain.Quiz{ID: "q1", Code: "ABC123", Theme: domain.ThemeCyber, Questions: []domain.Question{{ID: "x", CorrectAnswer: domain.SingleAnswer("A"), Marks: 1}}}
	if err := store.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	attempt := domain.QuizAttempt{ID: "a1", QuizID: "q1", Score: 1, TotalMarks: 1, Answers: map[string]domain.Answer{"x": domain.SingleAnswer("A")}}
	if err := store.SaveAttempt(ctx, attempt); err != nil {
		t.Fatalf("save attempt: %v", err)
	}
	if err := store.SaveUser(ctx, domain.User{ID: "user_1", XP: 10, Level: 1}); err != nil {
		t.Fatalf("save user: %v", err)
	}

	reopened := newTestStore(t, fs)
	got, err := reopened.FindQuizByCode(ctx, "abc123")
	if err != nil || got.Theme != domain.ThemeCyber {
		t.Fatalf("expected persisted quiz, got %+v %v", got, err)
	}
	attempts, _ := reopened.LoadAttempts(ctx)
	if len(attempts) != 1 || !attempts[0].Answers["x"].Equal(domain.SingleAnswer("A")) {
		t.Fatalf("expected persisted attempt, got %+v", attempts)
	}
	user, _ := reopened.LoadUser(ctx)
	if user.ID != "user_1" || user.XP != 10 {
		t.Fatalf("expected persisted user, got %+v", user)
	}
	if ok, _ := afero.Exists(fs, "data/quizzes.json.tmp"); ok {
		t.Fatalf("temp file left behind")
	}
}

func TestRecordStoreAtomicUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, afero.NewMemMapFs())
	if err := store.SaveQuiz(ctx, domain.Quiz{ID: "q1", Code: "ABC123"}); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.IncrementAttempts(ctx, "q1")
			_, _ = store.UpdateUser(ctx, func(u domain.User) domain.User {
				u.XP += 10
				return u
			})
		}()
	}
	wg.Wait()

	quiz, _ := store.FindQuizByCode(ctx, "ABC123")
	user, _ := store.LoadUser(ctx)
	if quiz.AttemptsCount != 10 || user.XP != 100 {
		t.Fatalf("lost updates: attemptsCount=%d xp=%d", quiz.AttemptsCount, user.XP)
	}
	if err := store.IncrementAttempts(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMissingFilesReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, afero.NewMemMapFs())
	quizzes, err := store.LoadQuizzes(ctx)
	if err != nil || len(quizzes) != 0 {
		t.Fatalf("expected empty quizzes, got %v %v", quizzes, err)
	}
	user, err := store.LoadUser(ctx)
	if err != nil || user.Level != 1 || user.Role != domain.RoleStudent {
		t.Fatalf("expected default profile, got %+v %v", user, err)
	}
}

func TestCorruptCollectionIsIsolated(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := newTestStore(t, fs)
	if err := afero.WriteFile(fs, "data/quizzes.json", []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	if _, err := store.LoadQuizzes(ctx); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := store.SaveQuiz(ctx, domain.Quiz{ID: "q1"}); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("save over corrupt collection should fail, got %v", err)
	}
	raw, _ := afero.ReadFile(fs, "data/quizzes.json")
	if string(raw) != "{not json" {
		t.Fatalf("corrupt file should be left as is, got %q", raw)
	}

	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a1"}); err != nil {
		t.Fatalf("attempts must be unaffected: %v", err)
	}
	attempts, err := store.LoadAttempts(ctx)
	if err != nil || len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %v %v", attempts, err)
	}
}

func TestFailedWriteKeepsPreviousCollection(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	store := newTestStore(t, base)
	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a1"}); err != nil {
		t.Fatalf("save attempt: %v", err)
	}

	store.fs = afero.NewReadOnlyFs(base)
	if err := store.SaveAttempt(ctx, domain.QuizAttempt{ID: "a2"}); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	attempts, err := store.LoadAttempts(ctx)
	if err != nil || len(attempts) != 1 || attempts[0].ID != "a1" {
		t.Fatalf("expected the original attempt only, got %v %v", attempts, err)
	}
}
