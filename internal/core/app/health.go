package app

import (
	"context"
	"fmt"
	"time"

	"timscompare/internal/engine/model"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
	LastLoad   *LoadStatus       `json:"last_load,omitempty"`
}

type HealthService struct {
	engine *Engine
}

func NewHealthService(engine *Engine) *HealthService {
	return &HealthService{engine: engine}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.engine == nil || s.engine.catalog == nil {
		status.Status = "down"
		status.Components["catalog"] = "missing"
		return status
	}

	defs := s.engine.catalog.Definitions()
	switch {
	case len(defs) == 0:
		status.Status = "degraded"
		status.Components["catalog"] = "empty"
	case s.engine.catalog.Definition(model.ScanMode) == nil:
		status.Status = "degraded"
		status.Components["catalog"] = fmt.Sprintf("no %s definition", model.ScanMode)
	default:
		status.Components["catalog"] = fmt.Sprintf("ok (%d definitions, %d workflows)", len(defs), len(s.engine.catalog.Workflows()))
	}

	last := s.engine.LastLoad()
	switch {
	case last.At.IsZero():
		status.Components["load"] = "none"
	case last.Err != "":
		status.Status = "degraded"
		status.Components["load"] = "failed"
		status.LastLoad = &last
	default:
		status.Components["load"] = fmt.Sprintf("ok (%d segments)", last.Segments)
		status.LastLoad = &last
	}
	return status
}

// Probe adapts Check to the observability server.
func (s *HealthService) Probe(ctx context.Context) (any, bool) {
	st := s.Check(ctx)
	return st, st.Status != "down"
}
