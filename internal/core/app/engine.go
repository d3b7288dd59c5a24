// Package app wires the engine packages into the load and lookup use cases.
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"timscompare/internal/core/config"
	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/core/ports"
	"timscompare/internal/data/auxstore"
	"timscompare/internal/data/locator"
	"timscompare/internal/engine/method"
	"timscompare/internal/engine/model"
	"timscompare/internal/engine/segment"
	"timscompare/internal/shared/observability"
)

// Engine loads method documents into datasets and answers value lookups.
// Loads are serialized; the file-location cache is cleared at the start of
// each one.
type Engine struct {
	cfg        *config.Config
	catalog    ports.ParameterCatalog
	builder    *segment.Builder
	locator    ports.FileLocator
	auxFactory ports.AuxStoreFactory
	fs         afs.Service
	logger     *slog.Logger

	loadMu sync.Mutex

	statusMu sync.RWMutex
	last     LoadStatus
}

var _ ports.EngineService = (*Engine)(nil)

// LoadStatus describes the most recent load.
type LoadStatus struct {
	Path     string        `json:"path,omitempty"`
	ID       string        `json:"id,omitempty"`
	At       time.Time     `json:"at,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Segments int           `json:"segments"`
	Err      string        `json:"error,omitempty"`
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithLocator(l ports.FileLocator) Option {
	return func(e *Engine) {
		if l != nil {
			e.locator = l
		}
	}
}

func WithAuxStoreFactory(f ports.AuxStoreFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.auxFactory = f
		}
	}
}

func NewEngine(cfg *config.Config, catalog ports.ParameterCatalog, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{
		cfg:     cfg,
		catalog: catalog,
		locator: locator.New(),
		auxFactory: auxstore.Factory(auxstore.Options{
			DiaPatterns:      cfg.Aux.DiaPatterns,
			DiagonalPatterns: cfg.Aux.DiagonalPatterns,
			BusyTimeout:      cfg.Aux.BusyTimeout,
		}),
		fs:     afs.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.builder = segment.NewBuilder(catalog, e.logger)
	return e
}

// Catalog returns the parameter catalog the engine resolves against.
func (e *Engine) Catalog() ports.ParameterCatalog { return e.catalog }

// Load reads the method document at path, which may be the document itself
// or a folder containing it, and builds its dataset.
func (e *Engine) Load(ctx context.Context, path string) (*model.Dataset, error) {
	ctx, span := observability.Tracer.Start(ctx, "Engine.Load", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	started := time.Now()
	id := uuid.NewString()
	span.SetAttributes(attribute.String("load.id", id))

	ds, err := e.load(ctx, id, path)
	elapsed := time.Since(started)

	status := LoadStatus{Path: path, ID: id, At: started, Duration: elapsed}
	if err != nil {
		status.Err = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.LoadDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		e.logger.Error("load failed", "path", path, "load_id", id, "error", err)
	} else {
		status.Path = ds.Path
		status.Segments = len(ds.Segments)
		observability.LoadDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
		observability.SegmentsResolved.Observe(float64(len(ds.Segments)))
		e.logger.Info("method loaded",
			"path", ds.Path,
			"load_id", id,
			"segments", len(ds.Segments),
			"duration", elapsed)
	}
	e.statusMu.Lock()
	e.last = status
	e.statusMu.Unlock()

	return ds, err
}

func (e *Engine) load(ctx context.Context, id, path string) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.locator.Reset()

	methodPath, err := e.locateMethod(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(methodPath)
	if err != nil {
		return nil, domainerrors.MethodFileNotFound(methodPath)
	}
	data, err := e.fs.DownloadWithURL(ctx, methodPath)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeInternal, "read method file"),
			domainerrors.CtxPath, methodPath)
	}

	doc, err := method.Parse(data, methodPath, method.Options{
		Encoding: e.cfg.Method.Encoding,
		ModTime:  info.ModTime(),
	})
	if err != nil {
		return nil, err
	}

	folder := filepath.Dir(methodPath)
	aux := e.auxFactory(folder, e.locator)
	segments, err := e.builder.Build(ctx, doc, aux, nil)
	if err != nil {
		return nil, err
	}
	defaults, optional := e.builder.Discover(doc)

	ds := &model.Dataset{
		ID:               id,
		Path:             methodPath,
		FolderPath:       folder,
		Segments:         segments,
		Metadata:         doc.Metadata,
		AvailableSources: doc.Sources(),
		Defaults:         defaults,
		Optional:         optional,
		Supplied:         make(map[model.Name]*model.Definition),
		Document:         doc,
		LoadedAt:         time.Now(),
	}
	e.summarize(ds)
	return ds, nil
}

// locateMethod accepts the method file itself or a folder to search below.
func (e *Engine) locateMethod(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domainerrors.MethodFileNotFound(path)
	}
	if !info.IsDir() {
		return path, nil
	}
	found, ok := e.locator.Find(path, e.cfg.Method.FileNames)
	if !ok {
		return "", domainerrors.MethodFileNotFound(path)
	}
	return found, nil
}

// ResolveAdditional grows the dataset's requested parameters by defs and
// re-resolves every segment in place under the ion-source context. Calling it
// again with the same arguments leaves the dataset unchanged.
func (e *Engine) ResolveAdditional(ctx context.Context, ds *model.Dataset, defs []*model.Definition, source string) error {
	ctx, span := observability.Tracer.Start(ctx, "Engine.ResolveAdditional",
		trace.WithAttributes(attribute.Int("definitions", len(defs)), attribute.String("source", source)))
	defer span.End()

	doc, err := documentOf(ds)
	if err != nil {
		return err
	}
	started := time.Now()

	if ds.Supplied == nil {
		ds.Supplied = make(map[model.Name]*model.Definition)
	}
	names := make([]model.Name, 0, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			continue
		}
		names = append(names, def.Name)
		if e.catalog.Definition(def.Name) == nil {
			ds.Supplied[def.Name] = def
		}
	}
	ds.AddRequested(names...)

	e.loadMu.Lock()
	aux := e.auxFactory(ds.FolderPath, e.locator)
	e.builder.Reresolve(ctx, doc, ds, source, aux)
	e.loadMu.Unlock()

	observability.ResolveAdditionalDuration.Observe(time.Since(started).Seconds())
	e.logger.Debug("additional parameters resolved",
		"path", ds.Path,
		"requested", len(ds.Requested),
		"source", source)
	return nil
}

// GetValue looks up name in segment segmentIndex; a negative index selects
// the active segment.
func (e *Engine) GetValue(ds *model.Dataset, name model.Name, segmentIndex int) (model.Value, bool) {
	return ds.Value(name, segmentIndex)
}

// ValueForSource resolves name for the active segment under an ion-source
// context without changing the dataset.
func (e *Engine) ValueForSource(ds *model.Dataset, name model.Name, source string) (model.Value, bool) {
	doc, err := documentOf(ds)
	if err != nil {
		return model.Absent, false
	}
	if len(ds.Segments) == 0 {
		return model.Absent, false
	}
	active := ds.Active
	if active < 0 || active >= len(ds.Segments) {
		active = 0
	}
	v := e.builder.Lookup(doc, ds.Segments, active, e.builder.Definition(name, ds.Supplied), source)
	return v, v.Present()
}

// LastLoad reports the most recent load.
func (e *Engine) LastLoad() LoadStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.last
}

func documentOf(ds *model.Dataset) (*method.Document, error) {
	if ds == nil {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "dataset is required")
	}
	doc, ok := ds.Document.(*method.Document)
	if !ok || doc == nil {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "dataset has no parsed method document"),
			domainerrors.CtxPath, ds.Path)
	}
	return doc, nil
}

// summarize logs per-segment resolution counts and records derivation
// outcomes.
func (e *Engine) summarize(ds *model.Dataset) {
	total := len(e.catalog.Definitions())
	for i := range ds.Segments {
		seg := &ds.Segments[i]
		resolved := 0
		for _, def := range e.catalog.Definitions() {
			if seg.Raw.Get(def.Name).Present() {
				resolved++
			}
		}
		for _, o := range seg.Outcomes {
			observability.DerivationOutcomes.WithLabelValues(string(o.Family), string(o.Status)).Inc()
		}
		e.logger.Debug("segment resolved",
			"path", ds.Path,
			"segment", i,
			"workflow", seg.Workflow,
			"scan_mode", seg.ScanModeID,
			"resolved", resolved,
			"catalog", total,
			"shown", len(seg.Params))
	}
}
