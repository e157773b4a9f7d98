package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
	"github.com/ssism/dhammi/internal/ledger"
	"github.com/ssism/dhammi/internal/llm"
	"github.com/ssism/dhammi/internal/metrics"
	"github.com/ssism/dhammi/internal/news"
	"github.com/ssism/dhammi/internal/store"
)

// app is the process-wide wiring shared by the commands that run the
// pipeline locally.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	db      *store.DB
	backend *ledger.Backend
	redis   *ledger.RedisCache
	facts   *cttm.Accessor
	metrics *metrics.Metrics
	engine  *engine.Engine
}

// openApp opens the store and ledger and builds the engine. A generator
// that cannot be built is a warning: chats then answer with an error
// message instead of failing.
func openApp(ctx context.Context, c config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: c, log: log, metrics: metrics.New()}

	dbPath := c.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	backend, err := ledger.Open(ctx, c.Ledger, db, log)
	if err != nil {
		log.Warn("ledger unavailable, serving without facts", zap.Error(err))
		backend = &ledger.Backend{Name: ledger.BackendNone, Table: cttm.DefaultTable("", c.Ledger.Worksheet)}
	}
	a.backend = backend

	opts := []cttm.Option{
		cttm.WithTTL(c.Ledger.CacheTTL),
		cttm.WithTimeout(c.Ledger.Timeout),
		cttm.WithObserver(a.metrics.ObserveFetch),
		cttm.WithLogger(log.Named("cttm")),
	}
	if c.Cache.RedisAddr != "" {
		a.redis = ledger.NewRedisCache(c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB, c.Cache.Key, log)
		if err := a.redis.Ping(ctx); err != nil {
			log.Warn("redis unreachable, shared cache will miss", zap.String("addr", c.Cache.RedisAddr), zap.Error(err))
		}
		opts = append(opts, cttm.WithSharedCache(a.redis))
	}
	a.facts = backend.Accessor(opts...)

	gen, err := llm.NewClient(ctx, c.LLM)
	if err != nil {
		log.Warn("generator not configured, replies will report the error", zap.Error(err))
		gen = nil
	} else {
		log.Info("generator ready", zap.String("provider", c.LLM.Provider), zap.String("model", c.LLM.Model))
	}

	a.engine = engine.New(a.facts, db, gen, c, log.Named("engine"))
	a.engine.Metrics = a.metrics
	return a, nil
}

// updater builds the headline feed over the app's ledger.
func (a *app) updater() *news.Updater {
	var file news.FactSetter
	if a.backend.File != nil {
		file = a.backend.File
	}
	return news.NewUpdater(a.facts, file, a.cfg.News.Timeout, a.log.Named("news"))
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
