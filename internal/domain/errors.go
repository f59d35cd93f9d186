package domain

import "errors"

var (
	// ErrQuizNotFound is returned when no quiz matches a join code or id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates an answer referenced a question outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when a session id is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotLoaded is returned when submitting a session that never loaded a quiz.
	ErrSessionNotLoaded = errors.New("quiz session not loaded")
	// ErrValidation wraps authoring input problems; nothing is persisted when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrGeneration indicates the AI collaborator failed or returned malformed data.
	ErrGeneration = errors.New("generation failed")
	// ErrPersistence indicates the record store could not be read or written.
	ErrPersistence = errors.New("record store failure")
	// ErrCodeExhausted is returned when no unused join code could be drawn.
	ErrCodeExhausted = errors.New("could not allocate a unique join code")
)

// ErrDuplicateRecord is returned when an append-only record id is written twice.
var ErrDuplicateRecord = errors.New("record already exists")
