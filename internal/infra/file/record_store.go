package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/codec"

	"github.com/spf13/afero"
)

const (
	quizzesFile  = "quizzes.json"
	attemptsFile = "attempts.json"
	userFile     = "user.json"
)

// RecordStore persists each collection as its own JSON file under dir.
// Writes go to a temp file that is renamed over the target, so a failed
// write never truncates a collection and never touches the other two.
type RecordStore struct {
	fs  afero.Fs
	dir string

	quizMu    sync.Mutex
	attemptMu sync.Mutex
	userMu    sync.Mutex

	defaultUser domain.User
}

// NewRecordStore creates dir if needed.
func NewRecordStore(fs afero.Fs, dir string) (*RecordStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", domain.ErrPersistence, err)
	}
	return &RecordStore{fs: fs, dir: dir, defaultUser: domain.NewLocalUser()}, nil
}

func (s *RecordStore) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	return loadList[domain.Quiz](s, quizzesFile)
}

func (s *RecordStore) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	quizzes, err := loadList[domain.Quiz](s, quizzesFile)
	if err != nil {
		return err
	}
	return s.write(quizzesFile, domain.UpsertQuiz(quizzes, quiz))
}

func (s *RecordStore) IncrementAttempts(_ context.Context, quizID string) error {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	quizzes, err := loadList[domain.Quiz](s, quizzesFile)
	if err != nil {
		return err
	}
	if quizzes, err = domain.IncrementAttempts(quizzes, quizID); err != nil {
		return err
	}
	return s.write(quizzesFile, quizzes)
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
	return loadList[domain.QuizAttempt](s, attemptsFile)
}

func (s *RecordStore) SaveAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	attempts, err := loadList[domain.QuizAttempt](s, attemptsFile)
	if err != nil {
		return err
	}
	attempts, err = domain.AppendAttempt(attempts, attempt)
	if err != nil {
		return err
	}
	return s.write(attemptsFile, attempts)
}

func (s *RecordStore) LoadUser(_ context.Context) (domain.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return s.loadUser()
}

func (s *RecordStore) UpdateUser(_ context.Context, mutate func(domain.User) domain.User) (domain.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	user, err := s.loadUser()
	if err != nil {
		return domain.User{}, err
	}
	user = mutate(user)
	if err := s.write(userFile, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *RecordStore) loadUser() (domain.User, error) {
	raw, err := s.read(userFile)
	if err != nil {
		return domain.User{}, err
	}
	return codec.DecodeUser(raw, s.defaultUser)
}

func (s *RecordStore) SaveUser(_ context.Context, user domain.User) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return s.write(userFile, user)
}

func loadList[T any](s *RecordStore, name string) ([]T, error) {
	raw, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return codec.DecodeList[T](raw)
}

// read returns nil for a collection that has never been written.
func (s *RecordStore) read(name string) ([]byte, error) {
	raw, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, name, err)
	}
	return raw, nil
}

func (s *RecordStore) write(name string, v any) error {
	raw, err := codec.Encode(v)
	if err != nil {
		return err
	}
	target := filepath.Join(s.dir, name)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, name, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", domain.ErrPersistence, name, err)
	}
	return nil
}
