package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NormalizeCode folds a join code for case-insensitive comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(code)
}

// FindQuizByCode returns the first quiz whose code matches case-insensitively.
func FindQuizByCode(quizzes []Quiz, code string) (Quiz, bool) {
	want := NormalizeCode(code)
	for _, q := range quizzes {
		if NormalizeCode(q.Code) == want {
			return q, true
		}
	}
	return Quiz{}, false
}

// UpsertQuiz replaces the quiz with the same id or appends it, preserving order.
func UpsertQuiz(quizzes []Quiz, quiz Quiz) []Quiz {
	for i := range quizzes {
		if quizzes[i].ID == quiz.ID {
			quizzes[i] = quiz
			return quizzes
		}
	}
	return append(quizzes, quiz)
}

// IncrementAttempts bumps AttemptsCount of the quiz with id in place.
func IncrementAttempts(quizzes []Quiz, id string) ([]Quiz, error) {
	for i := range quizzes {
		if quizzes[i].ID == id {
			quizzes[i].AttemptsCount++
			return quizzes, nil
		}
	}
	return quizzes, ErrQuizNotFound
}

// AppendAttempt appends an attempt, refusing to overwrite an existing id.
func AppendAttempt(attempts []QuizAttempt, attempt QuizAttempt) ([]QuizAttempt, error) {
	for _, a := range attempts {
		if a.ID == attempt.ID {
			return attempts, fmt.Errorf("%w: attempt %s", ErrDuplicateRecord, attempt.ID)
		}
	}
	return append(attempts, attempt), nil
}

// NewLocalUser returns the profile used before anything has been saved.
func NewLocalUser() User {
	return User{
		ID:     "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Role:   RoleStudent,
		Level:  1,
		Badges: []string{},
	}
}
