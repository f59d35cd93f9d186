package app

import (
	"context"

	"quizzify-service/internal/domain"
)

// RecordStore persists the three record collections. Every mutation is a
// whole-collection read-modify-write; implementations must not interleave
// two writes to the same collection.
type RecordStore interface {
	LoadQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// SaveQuiz appends a new quiz or replaces the stored quiz with the same id.
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	// FindQuizByCode returns domain.ErrQuizNotFound when nothing matches.
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
	LoadAttempts(ctx context.Context) ([]domain.QuizAttempt, error)
	// SaveAttempt appends; an existing id yields domain.ErrDuplicateRecord.
	SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	// IncrementAttempts bumps AttemptsCount of the quiz with quizID in one
	// atomic step; an unknown id yields domain.ErrQuizNotFound.
	IncrementAttempts(ctx context.Context, quizID string) error
	LoadUser(ctx context.Context) (domain.User, error)
	SaveUser(ctx context.Context, user domain.User) error
	// UpdateUser applies mutate to the stored profile and saves the result
	// with no other profile write in between.
	UpdateUser(ctx context.Context, mutate func(domain.User) domain.User) (domain.User, error)
}

// UserStore is the slice of RecordStore the progression updater needs.
type UserStore interface {
	UpdateUser(ctx context.Context, mutate func(domain.User) domain.User) (domain.User, error)
}

// QuizFinder resolves join codes, possibly through a cache.
type QuizFinder interface {
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
}

// CacheInvalidator is implemented by finders that keep copies of quizzes.
type CacheInvalidator interface {
	Invalidate(code string)
}

// SessionRegistry tracks sessions that are currently attached to a client.
type SessionRegistry interface {
	Register(session *Session)
	Get(sessionID string) (*Session, bool)
	Remove(sessionID string)
}

// QuestionGenerator is the AI collaborator that drafts questions for a topic.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error)
}

// AttemptAnalyzer is the AI collaborator that narrates feedback on an attempt.
type AttemptAnalyzer interface {
	AnalyzeAttempt(ctx context.Context, quiz domain.Quiz, attempt domain.QuizAttempt) (domain.Analysis, error)
}
