package redis

import (
	"context"
	"errors"
	"fmt"

	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/codec"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 8

// RecordStore keeps each collection as one JSON string key. Mutations run
// under WATCH so two writers of the same collection never interleave.
//
//	{prefix}:quizzes   JSON array of quizzes
//	{prefix}:attempts  JSON array of attempts
//	{prefix}:user      JSON profile
type RecordStore struct {
	client      *redis.Client
	prefix      string
	defaultUser domain.User
}

func NewRecordStore(client *redis.Client, prefix string) *RecordStore {
	if prefix == "" {
		prefix = "quizzify"
	}
	return &RecordStore{client: client, prefix: prefix, defaultUser: domain.NewLocalUser()}
}

func (s *RecordStore) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	raw, err := s.get(ctx, s.client, s.quizzesKey())
	if err != nil {
		return nil, err
	}
	return codec.DecodeList[domain.Quiz](raw)
}

func (s *RecordStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.update(ctx, s.quizzesKey(), func(raw []byte) (any, error) {
		quizzes, err := codec.DecodeList[domain.Quiz](raw)
		if err != nil {
			return nil, err
		}
		return domain.UpsertQuiz(quizzes, quiz), nil
	})
}

func (s *RecordStore) IncrementAttempts(ctx context.Context, quizID string) error {
	return s.update(ctx, s.quizzesKey(), func(raw []byte) (any, error) {
		quizzes, err := codec.DecodeList[domain.Quiz](raw)
		if err != nil {
			return nil, err
		}
		return domain.IncrementAttempts(quizzes, quizID)
	})
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

func (s *RecordStore) LoadAttempts(ctx context.Context) ([]domain.QuizAttempt, error) {
	raw, err := s.get(ctx, s.client, s.attemptsKey())
	if err != nil {
		return nil, err
	}
	return codec.DecodeList[domain.QuizAttempt](raw)
}

func (s *RecordStore) SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	return s.update(ctx, s.attemptsKey(), func(raw []byte) (any, error) {
		attempts, err := codec.DecodeList[domain.QuizAttempt](raw)
		if err != nil {
			return nil, err
		}
		return domain.AppendAttempt(attempts, attempt)
	})
}

func (s *RecordStore) LoadUser(ctx context.Context) (domain.User, error) {
	raw, err := s.get(ctx, s.client, s.userKey())
	if err != nil {
		return domain.User{}, err
	}
	return codec.DecodeUser(raw, s.defaultUser)
}

func (s *RecordStore) SaveUser(ctx context.Context, user domain.User) error {
	return s.update(ctx, s.userKey(), func([]byte) (any, error) {
		return user, nil
	})
}

// UpdateUser reruns mutate on the fresh profile whenever the watch fails.
func (s *RecordStore) UpdateUser(ctx context.Context, mutate func(domain.User) domain.User) (domain.User, error) {
	var user domain.User
	err := s.update(ctx, s.userKey(), func(raw []byte) (any, error) {
		current, err := codec.DecodeUser(raw, s.defaultUser)
		if err != nil {
			return nil, err
		}
		user = mutate(current)
		return user, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *RecordStore) quizzesKey() string  { return s.prefix + ":quizzes" }
func (s *RecordStore) attemptsKey() string { return s.prefix + ":attempts" }
func (s *RecordStore) userKey() string     { return s.prefix + ":user" }

// getter is satisfied by both the client and a watched transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RecordStore) get(ctx context.Context, c getter, key string) ([]byte, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrPersistence, key, err)
	}
	return raw, nil
}

// update reads key, applies mutate and writes the result in one optimistic
// transaction, retrying when another writer touched the key.
func (s *RecordStore) update(ctx context.Context, key string, mutate func(raw []byte) (any, error)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := mutate(raw)
		if err != nil {
			return err
		}
		encoded, err := codec.Encode(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrPersistence) && !errors.Is(err, domain.ErrDuplicateRecord) && !errors.Is(err, domain.ErrQuizNotFound) {
			return fmt.Errorf("%w: update %s: %v", domain.ErrPersistence, key, err)
		}
		return err
	}
	return fmt.Errorf("%w: update %s: too much contention", domain.ErrPersistence, key)
}
