package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"quizzify-service/internal/app"
	"quizzify-service/internal/config"
	"quizzify-service/internal/infra/file"
	"quizzify-service/internal/infra/gemini"
	"quizzify-service/internal/infra/memory"
	pgstore "quizzify-service/internal/infra/postgres"
	pgmigrations "quizzify-service/internal/infra/postgres/migrations"
	redisstore "quizzify-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// runtime holds the wired components for one process.
type runtime struct {
	cfg      config.Config
	log      *logrus.Logger
	store    app.RecordStore
	sessions app.SessionRegistry
	service  *app.QuizService
	closers  []func()
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func newRuntime(ctx context.Context, cfg config.Config) (_ *runtime, err error) {
	rt := &runtime{cfg: cfg, log: newLogger(cfg)}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		rt.store = memory.NewRecordStore()
	case config.DriverFile:
		store, err := file.NewRecordStore(afero.NewOsFs(), cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		rt.store = store
	case config.DriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store driver redis requires redis.addr")
		}
		rt.store = redisstore.NewRecordStore(redisClient, cfg.Redis.Prefix)
	case config.DriverPostgres:
		if _, err := pgmigrations.Apply(ctx, cfg.Postgres.URL); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.store = pgstore.NewRecordStore(pool)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if redisClient != nil {
		rt.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		rt.sessions = memory.NewSessionStore()
	}

	deps := app.Deps{
		Store:    rt.store,
		Finder:   memory.NewQuizCache(rt.store, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)),
		Sessions: rt.sessions,
		Logger:   rt.log,
	}
	if cfg.AI.APIKey != "" {
		ai, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:        cfg.AI.APIKey,
			QuestionModel: cfg.AI.QuestionModel,
			AnalysisModel: cfg.AI.AnalysisModel,
			Timeout:       config.TTLDuration(cfg.AI.Timeout, 2*time.Minute),
		}, rt.log)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = ai.Close() })
		deps.Generator = ai
		deps.Analyzer = ai
	} else {
		rt.log.Info("no AI api key configured; generation and analysis disabled")
	}
	rt.service = app.NewQuizService(deps)
	return rt, nil
}

// Close releases connections in reverse order of creation.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newRuntime(ctx, cfg)
}
