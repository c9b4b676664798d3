package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/config"
	"github.com/fwojciec/analyst/coordinator"
	"github.com/fwojciec/analyst/history"
	"github.com/fwojciec/analyst/intent"
	analystjson "github.com/fwojciec/analyst/json"
	"github.com/fwojciec/analyst/memory"
	"github.com/fwojciec/analyst/specialist"
	"github.com/fwojciec/analyst/sqlite"
	"github.com/fwojciec/analyst/synth"
	"go.uber.org/zap"
)

// app holds the flags, configuration and open resources of one invocation.
type app struct {
	configPath string
	verbose    bool
	provider   string
	offline    bool

	cfg    *config.Config
	logger *zap.Logger

	dbs     map[string]*sqlite.DB
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	a.dbs = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// db opens the SQLite database at path once per invocation.
func (a *app) db(path string) (*sqlite.DB, error) {
	key := filepath.Clean(path)
	if db, ok := a.dbs[key]; ok {
		return db, nil
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if a.dbs == nil {
		a.dbs = make(map[string]*sqlite.DB)
	}
	a.dbs[key] = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) tableStore() (analyst.TableStore, error) {
	switch a.cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := a.db(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewTableStore(db), nil
	case config.DriverMemory:
		return memory.NewTableStore(nil), nil
	}
	return nil, fmt.Errorf("unknown store driver %q: %w", a.cfg.Store.Driver, analyst.ErrValidation)
}

// messageLog is implemented by every configured log driver.
type messageLog interface {
	analyst.MessageLog
	analyst.SessionIndex
}

func (a *app) messageLog() (messageLog, error) {
	switch a.cfg.Log.Driver {
	case config.DriverSQLite:
		db, err := a.db(a.cfg.Log.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewMessageLog(db, sqlite.WithMaxHistory(a.cfg.Log.MaxHistory)), nil
	case config.DriverJSON:
		return analystjson.NewMessageLog(a.cfg.Log.Path, analystjson.WithMaxHistory(a.cfg.Log.MaxHistory)), nil
	case config.DriverMemory:
		return memory.NewMessageLog(a.cfg.Log.MaxHistory), nil
	}
	return nil, fmt.Errorf("unknown log driver %q: %w", a.cfg.Log.Driver, analyst.ErrValidation)
}

func (a *app) completer(ctx context.Context) analyst.Completer {
	if a.offline {
		a.logger.Info("running offline")
		return offlineCompleter{}
	}
	c, err := resolveProvider(ctx, a.cfg.LLM.Provider, a.cfg.LLM.Model, a.cfg.APIKey())
	if errors.Is(err, errNoAPIKey) {
		a.logger.Warn("no API key configured, running offline", zap.String("provider", a.cfg.LLM.Provider))
		return offlineCompleter{}
	}
	if err != nil {
		a.logger.Warn("completion provider unavailable, running offline", zap.Error(err))
		return offlineCompleter{}
	}
	return c
}

// stack is the wired conversation pipeline.
type stack struct {
	coordinator *coordinator.Coordinator
	log         messageLog
}

func (a *app) stack(ctx context.Context) (*stack, error) {
	store, err := a.tableStore()
	if err != nil {
		return nil, err
	}
	log, err := a.messageLog()
	if err != nil {
		return nil, err
	}
	cfg := a.cfg
	completer := a.completer(ctx)

	registry := specialist.NewDefault(store, cfg.Specialists.PeriodEnabled,
		specialist.WithTimeout(cfg.QueryTimeout()),
		specialist.WithDefaultLimit(cfg.Store.DefaultLimit),
		specialist.WithMaxLimit(cfg.Store.MaxLimit),
		specialist.WithLogger(a.logger.Named("specialist")),
	)
	classifier := intent.New(completer, registry.Catalog(),
		intent.WithModel(cfg.LLM.Model),
		intent.WithTimeout(cfg.LLMTimeout()),
		intent.WithTemperature(cfg.LLM.Classify.Temperature),
		intent.WithMaxTokens(cfg.LLM.Classify.MaxTokens),
		intent.WithLogger(a.logger.Named("intent")),
	)
	synthesizer := synth.New(completer,
		synth.WithModel(cfg.LLM.Model),
		synth.WithTimeout(cfg.LLMTimeout()),
		synth.WithNarrative(cfg.LLM.Synthesize.Temperature, cfg.LLM.Synthesize.MaxTokens),
		synth.WithChat(cfg.LLM.Chat.Temperature, cfg.LLM.Chat.MaxTokens),
		synth.WithLogger(a.logger.Named("synth")),
	)
	assembler := history.New(log,
		history.NewCache(cfg.Context.CacheSessions, cfg.Context.CacheMessages),
		history.WithTimeout(cfg.LogTimeout()),
		history.WithLogger(a.logger.Named("history")),
	)
	c := coordinator.New(assembler, classifier, registry, synthesizer,
		coordinator.WithWindowSize(cfg.Context.WindowSize),
		coordinator.WithLogger(a.logger.Named("coordinator")),
	)
	return &stack{coordinator: c, log: log}, nil
}
