package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"timscompare/internal/core/ports"
	"timscompare/internal/core/watcher"
	"timscompare/internal/engine/model"
	"timscompare/internal/shared/observability"
	"timscompare/internal/shared/util"
)

var excludedWatchDirs = []string{".git", ".svn", "*.d"}

// WatchOptions carries the extra parameters re-applied after every reload.
type WatchOptions struct {
	Requested []*model.Definition
	Source    string
}

// WatchService reloads a method path when its document or auxiliary stores
// change and publishes each result to subscribers.
type WatchService struct {
	engine  *Engine
	path    string
	opts    WatchOptions
	limiter *util.Limiter
	logger  *slog.Logger

	mu          sync.RWMutex
	current     ports.WatchUpdate
	hasCurrent  bool
	subscribers []func(ports.WatchUpdate)

	reloadMu sync.Mutex
	watcher  *watcher.Watcher
}

var _ ports.WatchService = (*WatchService)(nil)

func NewWatchService(engine *Engine, path string, opts WatchOptions) *WatchService {
	return &WatchService{
		engine:  engine,
		path:    path,
		opts:    opts,
		limiter: util.NewLimiter(engine.cfg.Watch.ReloadRate, engine.cfg.Watch.ReloadBurst),
		logger:  engine.logger,
	}
}

// Start loads the path once and then watches it until ctx is done.
func (s *WatchService) Start(ctx context.Context) error {
	s.reload(ctx, nil)

	cfg := s.engine.cfg
	include := make([]string, 0, len(cfg.Method.FileNames)+len(cfg.Aux.DiaPatterns)+len(cfg.Aux.DiagonalPatterns))
	include = append(include, cfg.Method.FileNames...)
	include = append(include, cfg.Aux.DiaPatterns...)
	include = append(include, cfg.Aux.DiagonalPatterns...)

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, include, excludedWatchDirs, func(paths []string) {
		s.reload(ctx, paths)
	})
	if err != nil {
		return err
	}
	if err := w.Watch([]string{s.path}); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w

	go func() {
		<-ctx.Done()
		if err := w.Close(); err != nil {
			s.logger.Warn("failed to close watcher", "error", err)
		}
	}()
	s.logger.Info("watching method", "path", s.path, "debounce", cfg.Watch.Debounce)
	return nil
}

// Current returns the latest reload result.
func (s *WatchService) Current() (ports.WatchUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.hasCurrent
}

// Subscribe registers handler for every later reload.
func (s *WatchService) Subscribe(handler func(ports.WatchUpdate)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, handler)
	s.mu.Unlock()
}

func (s *WatchService) reload(ctx context.Context, changed []string) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if err := s.limiter.Wait(ctx, 1); err != nil {
		return
	}
	if len(changed) > 0 {
		s.logger.Info("method files changed", "files", changed)
	}

	started := time.Now()
	ds, err := s.engine.Load(ctx, s.path)
	if err == nil && (len(s.opts.Requested) > 0 || s.opts.Source != "") {
		err = s.engine.ResolveAdditional(ctx, ds, s.opts.Requested, s.opts.Source)
	}
	update := ports.WatchUpdate{
		Path:     s.path,
		Dataset:  ds,
		Err:      err,
		Duration: time.Since(started),
	}
	if err != nil {
		observability.WatcherReloadsTotal.WithLabelValues("error").Inc()
	} else {
		observability.WatcherReloadsTotal.WithLabelValues("ok").Inc()
	}

	s.mu.Lock()
	s.current = update
	s.hasCurrent = true
	subscribers := append([]func(ports.WatchUpdate){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(update)
	}
}
