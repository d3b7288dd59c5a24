package auxstore

import (
	"context"
	"sync"
	"time"

	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/core/ports"
	"timscompare/internal/engine/model"
)

var (
	DefaultDiaPatterns      = []string{"diasettings.diasqlite"}
	DefaultDiagonalPatterns = []string{"synchroSettings.syncsqlite"}
)

// Options configures where the side tables are searched for.
type Options struct {
	DiaPatterns      []string
	DiagonalPatterns []string
	BusyTimeout      time.Duration
}

// Source serves the side tables of one load folder. Each table is read at
// most once; results, errors included, are reused by later segments.
type Source struct {
	folder  string
	locator ports.FileLocator
	opts    Options

	mu          sync.Mutex
	diaDone     bool
	dia         []model.DiaWindow
	diaErr      error
	diagDone    bool
	diagonal    model.DiagonalTemplate
	diagonalErr error
}

// NewSource returns a Source searching below folder.
func NewSource(folder string, locator ports.FileLocator, opts Options) *Source {
	if len(opts.DiaPatterns) == 0 {
		opts.DiaPatterns = DefaultDiaPatterns
	}
	if len(opts.DiagonalPatterns) == 0 {
		opts.DiagonalPatterns = DefaultDiagonalPatterns
	}
	return &Source{folder: folder, locator: locator, opts: opts}
}

// Factory binds opts into a ports.AuxStoreFactory.
func Factory(opts Options) ports.AuxStoreFactory {
	return func(folder string, locator ports.FileLocator) ports.AuxStore {
		return NewSource(folder, locator, opts)
	}
}

func (s *Source) DiaWindows(ctx context.Context) ([]model.DiaWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.diaDone {
		s.dia, s.diaErr = s.readDia(ctx)
		s.diaDone = true
	}
	return s.dia, s.diaErr
}

func (s *Source) DiagonalTemplate(ctx context.Context) (model.DiagonalTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.diagDone {
		s.diagonal, s.diagonalErr = s.readDiagonal(ctx)
		s.diagDone = true
	}
	return s.diagonal, s.diagonalErr
}

func (s *Source) readDia(ctx context.Context) ([]model.DiaWindow, error) {
	path, err := s.find(s.opts.DiaPatterns)
	if err != nil {
		return nil, err
	}
	rows, err := ReadDiaWindows(ctx, path, s.opts.BusyTimeout)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeParsing, "read dia-PASEF windows"),
			domainerrors.CtxPath, path)
	}
	return rows, nil
}

func (s *Source) readDiagonal(ctx context.Context) (model.DiagonalTemplate, error) {
	path, err := s.find(s.opts.DiagonalPatterns)
	if err != nil {
		return model.DiagonalTemplate{}, err
	}
	tpl, err := ReadDiagonalTemplate(ctx, path, s.opts.BusyTimeout)
	if err != nil {
		return model.DiagonalTemplate{}, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeParsing, "read diagonal-PASEF template"),
			domainerrors.CtxPath, path)
	}
	return tpl, nil
}

func (s *Source) find(patterns []string) (string, error) {
	if s.locator == nil {
		return "", domainerrors.New(domainerrors.CodeInternal, "no file locator configured")
	}
	path, ok := s.locator.Find(s.folder, patterns)
	if !ok {
		return "", domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "auxiliary store not found"),
			domainerrors.CtxPath, s.folder)
	}
	return path, nil
}
