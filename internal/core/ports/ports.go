package ports

import (
	"context"
	"time"

	"timscompare/internal/engine/model"
)

// ParameterCatalog supplies static parameter definitions and the parameter
// layouts of each workflow.
type ParameterCatalog interface {
	Definitions() []*model.Definition
	Definition(name model.Name) *model.Definition
	// Layout lists the parameters legitimate for workflow. The "__GENERAL__"
	// layout applies to every workflow.
	Layout(workflow string) []model.Name
	Workflows() []string
}

// FileLocator finds files below a folder by filename pattern. Instances cache
// lookups and must be reset or replaced between loads.
type FileLocator interface {
	Find(root string, patterns []string) (string, bool)
	Reset()
}

// AuxStore reads the auxiliary geometry tables next to one method document.
type AuxStore interface {
	DiaWindows(ctx context.Context) ([]model.DiaWindow, error)
	DiagonalTemplate(ctx context.Context) (model.DiagonalTemplate, error)
}

// AuxStoreFactory opens the auxiliary stores for a load folder.
type AuxStoreFactory func(folder string, locator FileLocator) AuxStore

// EngineService is the driving-port surface over load and lookup use cases.
type EngineService interface {
	Load(ctx context.Context, path string) (*model.Dataset, error)
	ResolveAdditional(ctx context.Context, ds *model.Dataset, defs []*model.Definition, source string) error
	GetValue(ds *model.Dataset, name model.Name, segmentIndex int) (model.Value, bool)
	ValueForSource(ds *model.Dataset, name model.Name, source string) (model.Value, bool)
}

// WatchUpdate is emitted to driving adapters after a watched method reloads.
type WatchUpdate struct {
	Path     string
	Dataset  *model.Dataset
	Err      error
	Duration time.Duration
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Current() (WatchUpdate, bool)
	Subscribe(handler func(WatchUpdate))
}
