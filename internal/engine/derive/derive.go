// Package derive computes segment fields that do not exist literally in a
// method document: time window labels, collision-energy summaries and
// scan-mode specific geometry.
package derive

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"timscompare/internal/engine/model"
)

// AuxSource reads the auxiliary geometry stores next to a method document.
// Errors are reported as unavailable outcomes, never propagated.
type AuxSource interface {
	DiaWindows(ctx context.Context) ([]model.DiaWindow, error)
	DiagonalTemplate(ctx context.Context) (model.DiagonalTemplate, error)
}

// Definitions looks up catalog metadata used for unit-aware formatting.
type Definitions interface {
	Definition(name model.Name) *model.Definition
}

// Calculator runs the derivation families for one segment at a time. It is
// stateless between calls.
type Calculator struct {
	defs   Definitions
	logger *slog.Logger
}

func New(defs Definitions, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{defs: defs, logger: logger}
}

func (c *Calculator) definition(name model.Name) *model.Definition {
	if c.defs == nil {
		return nil
	}
	return c.defs.Definition(name)
}

// EndTimeDisplay renders a segment end time.
func EndTimeDisplay(end float64) string {
	if end < 0 {
		return model.OpenEnd
	}
	return fmt.Sprintf("%.2f min", end)
}

// Derive replaces every calculated field of seg.Params and the geometry
// artifacts. seg.Workflow, ScanModeID and the time window must already be
// set. aux may be nil.
func (c *Calculator) Derive(ctx context.Context, seg *model.Segment, aux AuxSource) {
	p := seg.Params
	for name := range p {
		if model.IsCalculated(name) {
			delete(p, name)
		}
	}
	seg.Polygon, seg.Windows, seg.Diagonal, seg.Outcomes = nil, nil, nil, nil

	p.SetScalar(model.CalcScanMode, seg.Workflow)
	p.SetScalar(model.CalcSegmentStart, fmt.Sprintf("%.2f min", seg.StartTime))
	p.SetScalar(model.CalcSegmentEnd, EndTimeDisplay(seg.EndTime))

	seg.Outcomes = append(seg.Outcomes, c.ceRamping(p), c.stepping(p))

	switch seg.ScanModeID {
	case model.ScanModePASEF:
		seg.Outcomes = append(seg.Outcomes, c.pasef(seg))
	case model.ScanModeDiaPASEF:
		seg.Outcomes = append(seg.Outcomes, c.diaPASEF(ctx, seg, aux))
	case model.ScanModeDiagonalPASEF:
		seg.Outcomes = append(seg.Outcomes, c.diagonalPASEF(ctx, seg, aux))
	}

	for _, o := range seg.Outcomes {
		if o.Status == model.StatusUnavailable {
			c.logger.Debug("derivation unavailable",
				"family", o.Family,
				"reason", o.Reason,
				"segment", seg.Index)
		}
	}
}

// ApplyConditional overrides values the instrument decides at runtime. A
// locked duty cycle forces accumulation time to the ramp time; an active
// ion-current-control mode turns accumulation time, duty-cycle lock and
// cycle time into "variable" where present.
func ApplyConditional(p model.Params) {
	if lock, _ := p.ScalarOf(model.DutyCycleLock); lock == "1" {
		if ramp := p.Get(model.RampTime); ramp.Present() {
			p.Set(model.AccumulationTime, ramp)
		}
	}

	icc, ok := p.ScalarOf(model.ICCMode)
	if !ok || icc == "" || icc == "0" {
		return
	}
	for _, name := range []model.Name{model.AccumulationTime, model.DutyCycleLock, model.CalcCycleTime} {
		if p.Get(name).Present() {
			p.SetScalar(name, model.Variable)
		}
	}
}

// number reads a scalar parameter as a float. Absent or empty values count
// as zero; lists and non-numeric strings are errors.
func number(p model.Params, name model.Name) (float64, error) {
	v := p.Get(name)
	if v.IsAbsent() {
		return 0, nil
	}
	s, ok := v.Scalar()
	if !ok {
		return 0, fmt.Errorf("%s is a list", name)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func integer(p model.Params, name model.Name) (int, error) {
	v := p.Get(name)
	if v.IsAbsent() {
		return 0, nil
	}
	s, ok := v.Scalar()
	if !ok {
		return 0, fmt.Errorf("%s is a list", name)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// requiredNumber parses a scalar that must be present.
func requiredNumber(p model.Params, name model.Name) (float64, bool) {
	s, ok := p.ScalarOf(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// items treats a scalar as a one-item list.
func items(v model.Value) []string {
	if list, ok := v.List(); ok {
		return list
	}
	if s, ok := v.Scalar(); ok {
		return []string{s}
	}
	return nil
}

func floats(raw []string) ([]float64, error) {
	out := make([]float64, 0, len(raw))
	for _, s := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		out = append(out, f)
	}
	return out, nil
}

// cycleTime is total × (ramp + quench) / 1000 seconds.
func cycleTime(p model.Params, totalScans int) string {
	ramp, err := number(p, model.RampTime)
	if err != nil {
		return model.NotAvailable
	}
	quench, err := number(p, model.QuenchTime)
	if err != nil {
		return model.NotAvailable
	}
	return fmt.Sprintf("%.2f s", float64(totalScans)*(ramp+quench)/1000)
}
