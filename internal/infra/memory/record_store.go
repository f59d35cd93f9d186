package memory

import (
	"context"
	"sync"

	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/codec"
)

// RecordStore keeps each collection as an encoded JSON document, mirroring
// the whole-collection semantics of the durable stores. Decoding on every
// read hands callers independent copies.
type RecordStore struct {
	quizMu    sync.Mutex
	quizzes   []byte
	attemptMu sync.Mutex
	attempts  []byte
	userMu    sync.Mutex
	user      []byte

	defaultUser domain.User
}

func NewRecordStore() *RecordStore {
	return &RecordStore{defaultUser: domain.NewLocalUser()}
}

func (s *RecordStore) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	return codec.DecodeList[domain.Quiz](s.quizzes)
}

func (s *RecordStore) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	quizzes, err := codec.DecodeList[domain.Quiz](s.quizzes)
	if err != nil {
		return err
	}
	raw, err := codec.Encode(domain.UpsertQuiz(quizzes, quiz))
	if err != nil {
		return err
	}
	s.quizzes = raw
	return nil
}

func (s *RecordStore) IncrementAttempts(_ context.Context, quizID string) error {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	quizzes, err := codec.DecodeList[domain.Quiz](s.quizzes)
	if err != nil {
		return err
	}
	if quizzes, err = domain.IncrementAttempts(quizzes, quizID); err != nil {
		return err
	}
	raw, err := codec.Encode(quizzes)
	if err != nil {
		return err
	}
	s.quizzes = raw
	return nil
}

func (s *RecordStore) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	quizzes, err := s.LoadQuizzes(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz, ok := domain.FindQuizByCode(quizzes, code); ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *RecordStore) LoadAttempts(_ context.Context) ([]domain.QuizAttempt, error) {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	return codec.DecodeList[domain.QuizAttempt](s.attempts)
}

func (s *RecordStore) SaveAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	attempts, err := codec.DecodeList[domain.QuizAttempt](s.attempts)
	if err != nil {
		return err
	}
	attempts, err = domain.AppendAttempt(attempts, attempt)
	if err != nil {
		return err
	}
	raw, err := codec.Encode(attempts)
	if err != nil {
		return err
	}
	s.attempts = raw
	return nil
}

func (s *RecordStore) LoadUser(_ context.Context) (domain.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return codec.DecodeUser(s.user, s.defaultUser)
}

func (s *RecordStore) SaveUser(_ context.Context, user domain.User) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return s.putUser(user)
}

func (s *RecordStore) UpdateUser(_ context.Context, mutate func(domain.User) domain.User) (domain.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	user, err := codec.DecodeUser(s.user, s.defaultUser)
	if err != nil {
		return domain.User{}, err
	}
	user = mutate(user)
	if err := s.putUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *RecordStore) putUser(user domain.User) error {
	raw, err := codec.Encode(user)
	if err != nil {
		return err
	}
	s.user = raw
	return nil
}
