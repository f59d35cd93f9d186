package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizzify-service/internal/domain"
	"quizzify-service/internal/infra/codec"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	profileRowID     = "local"
	uniqueViolation  = "23505"
	selectQuizzesSQL = `SELECT data FROM quizzes ORDER BY seq`
)

// RecordStore keeps one JSONB row per record. Each write touches a single
// row, which is equivalent to rewriting the collection with that record
// replaced, and Postgres serializes concurrent writers per row.
type RecordStore struct {
	pool        *pgxpool.Pool
	defaultUser domain.User
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool, defaultUser: domain.NewLocalUser()}
}

func (s *RecordStore) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return queryList[domain.Quiz](ctx, s.pool, selectQuizzesSQL)
}

func (s *RecordStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	raw, err := codec.Encode(quiz)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, code, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, data = EXCLUDED.data`,
		quiz.ID, quiz.Code, string(raw))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: join code %s", domain.ErrDuplicateRecord, quiz.Code)
		}
		return fmt.Errorf("%w: save quiz: %v", domain.ErrPersistence, err)
	}
	return nil
}

// IncrementAttempts bumps the counter inside the stored document so
// concurrent submissions serialize on the row.
func (s *RecordStore) IncrementAttempts(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes
		SET data = jsonb_set(data, '{attemptsCount}', to_jsonb(COALESCE((data->>'attemptsCount')::int, 0) + 1))
		WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("%w: increment attempts: %v", domain.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *RecordStore) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE upper(code) = upper($1)`, code).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: find quiz: %v", domain.ErrPersistence, err)
	}
	return codec.DecodeRecord[domain.Quiz](raw)
}

func (s *RecordStore) LoadAttempts(ctx context.Context) ([]domain.QuizAttempt, error) {
	return queryList[domain.QuizAttempt](ctx, s.pool, `SELECT data FROM attempts ORDER BY seq`)
}

func (s *RecordStore) SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	raw, err := codec.Encode(attempt)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO attempts (id, quiz_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.QuizID, string(raw))
	if err != nil {
		return fmt.Errorf("%w: save attempt: %v", domain.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: attempt %s", domain.ErrDuplicateRecord, attempt.ID)
	}
	return nil
}

func (s *RecordStore) LoadUser(ctx context.Context) (domain.User, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM profile WHERE id = $1`, profileRowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaultUser, nil
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: load user: %v", domain.ErrPersistence, err)
	}
	return codec.DecodeUser(raw, s.defaultUser)
}

func (s *RecordStore) SaveUser(ctx context.Context, user domain.User) error {
	raw, err := codec.Encode(user)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO profile (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		profileRowID, string(raw))
	if err != nil {
		return fmt.Errorf("%w: save user: %v", domain.ErrPersistence, err)
	}
	return nil
}

// UpdateUser seeds the profile row if missing, then locks it for the
// duration of mutate.
func (s *RecordStore) UpdateUser(ctx context.Context, mutate func(domain.User) domain.User) (domain.User, error) {
	seed, err := codec.Encode(s.defaultUser)
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO profile (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			profileRowID, string(seed)); err != nil {
			return fmt.Errorf("%w: seed user: %v", domain.ErrPersistence, err)
		}
		var raw []byte
		if err := tx.QueryRow(ctx, `SELECT data FROM profile WHERE id = $1 FOR UPDATE`, profileRowID).Scan(&raw); err != nil {
			return fmt.Errorf("%w: lock user: %v", domain.ErrPersistence, err)
		}
		current, err := codec.DecodeUser(raw, s.defaultUser)
		if err != nil {
			return err
		}
		user = mutate(current)
		next, err := codec.Encode(user)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE profile SET data = $2 WHERE id = $1`, profileRowID, string(next)); err != nil {
			return fmt.Errorf("%w: update user: %v", domain.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: update user: %v", domain.ErrPersistence, err)
		}
		return domain.User{}, err
	}
	return user, nil
}

func queryList[T any](ctx context.Context, pool *pgxpool.Pool, query string) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrPersistence, err)
		}
		item, err := codec.DecodeRecord[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", domain.ErrPersistence, err)
	}
	return out, nil
}
