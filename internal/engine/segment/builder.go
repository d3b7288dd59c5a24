// Package segment folds a parsed method document into resolved segments.
package segment

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/core/ports"
	"timscompare/internal/engine/derive"
	"timscompare/internal/engine/method"
	"timscompare/internal/engine/model"
	"timscompare/internal/engine/scope"
)

// GeneralLayout names the layout shared by every workflow.
const GeneralLayout = "__GENERAL__"

const unknownPolarity = "unknown"

// Builder turns documents into segments. A Builder holds no per-document
// state; concurrent builds must use separate aux sources.
type Builder struct {
	catalog  ports.ParameterCatalog
	resolver *scope.Resolver
	calc     *derive.Calculator
	logger   *slog.Logger
}

func NewBuilder(catalog ports.ParameterCatalog, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		catalog:  catalog,
		resolver: scope.New(),
		calc:     derive.New(catalog, logger),
		logger:   logger,
	}
}

// step is the input of one fold step.
type step struct {
	index      int
	scope      *method.Scope
	start, end float64
	prev       model.Params
}

// Build resolves every catalog definition for each segment of doc. Segment N
// starts from segment N-1's effective raw values with its own scope applied
// on top; the first segment starts from the document-level values. A
// document without segments yields one open-ended segment over the method
// scope.
func (b *Builder) Build(ctx context.Context, doc *method.Document, aux derive.AuxSource, requested []model.Name) ([]model.Segment, error) {
	defs := b.catalog.Definitions()

	if len(doc.Segments) == 0 {
		seg, err := b.buildStep(ctx, doc, defs, step{
			scope: doc.Method,
			end:   model.OpenEndTime,
			prev:  model.Params{},
		})
		if err != nil {
			return nil, err
		}
		b.finish(ctx, &seg, aux, requested)
		return []model.Segment{seg}, nil
	}

	prev := b.documentLevel(doc, defs, "")
	segments := make([]model.Segment, 0, len(doc.Segments))
	lastEnd := 0.0
	for i, ss := range doc.Segments {
		seg, err := b.buildStep(ctx, doc, defs, step{
			index: i,
			scope: ss.Scope,
			start: lastEnd,
			end:   ss.EndTime,
			prev:  prev,
		})
		if err != nil {
			return nil, err
		}
		b.finish(ctx, &seg, aux, requested)
		segments = append(segments, seg)

		if ss.EndTime >= 0 {
			lastEnd = ss.EndTime
		}
		prev = seg.Raw
	}
	return segments, nil
}

// documentLevel resolves defs against the method scope with the method-level
// polarity, which defaults to code "0".
func (b *Builder) documentLevel(doc *method.Document, defs []*model.Definition, source string) model.Params {
	raw := "0"
	if s, ok := scope.Extract(doc.Method.Lookup(string(model.IonPolarity)), -1).Scalar(); ok && s != "" {
		raw = s
	}
	ctx := scope.Context{Polarity: b.polarity(raw), Source: source}
	return b.resolver.ResolveAll(defs, doc.Method, doc.Instrument, ctx)
}

func (b *Builder) buildStep(ctx context.Context, doc *method.Document, defs []*model.Definition, in step) (model.Segment, error) {
	effective := in.prev.Clone()
	polRaw := b.polarityCode(in.scope, effective)

	found := b.resolver.ResolveAll(defs, in.scope, doc.Instrument, scope.Context{Polarity: b.polarity(polRaw)})
	effective.Merge(found)
	b.resolver.ApplyDriverIndexes(effective, defs)

	code, _ := effective.ScalarOf(model.ScanMode)
	workflow, ok := b.catalog.Definition(model.ScanMode).Decode(code)
	if !ok {
		b.logger.Error("unsupported scan mode",
			"scan_mode", code,
			"segment", in.index,
			"path", doc.Path)
		return model.Segment{}, domainerrors.AddContext(
			domainerrors.UnsupportedScanMode(code, in.start, derive.EndTimeDisplay(in.end)),
			domainerrors.CtxPath, doc.Path)
	}

	id, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		id = model.NoScanMode
	}

	seg := model.Segment{
		Index:      in.index,
		StartTime:  in.start,
		EndTime:    in.end,
		Raw:        effective,
		Workflow:   workflow,
		ScanModeID: id,
	}
	b.annotate(&seg)
	return seg, nil
}

// polarityCode prefers an explicit polarity in sc over the inherited one.
func (b *Builder) polarityCode(sc *method.Scope, inherited model.Params) string {
	if el := sc.Lookup(string(model.IonPolarity)); el != nil {
		if s, ok := scope.Extract(el, -1).Scalar(); ok {
			return s
		}
	}
	s, _ := inherited.ScalarOf(model.IonPolarity)
	return s
}

// polarity decodes a polarity code into the label that conditional scopes
// carry. Unknown codes yield "".
func (b *Builder) polarity(code string) string {
	label, _ := b.catalog.Definition(model.IonPolarity).Decode(code)
	return label
}

func (b *Builder) annotate(seg *model.Segment) {
	mark, _ := seg.Raw.ScalarOf(model.CalibrationMark)
	seg.Calibration = mark == "1"

	code, _ := seg.Raw.ScalarOf(model.IonPolarity)
	if label := b.polarity(code); label != "" {
		seg.IonPolarity = strings.ToLower(label)
	} else {
		seg.IonPolarity = unknownPolarity
	}
}

// finish derives calculated fields from the raw snapshot, applies the
// runtime conditional overrides and filters to the workflow's parameters.
func (b *Builder) finish(ctx context.Context, seg *model.Segment, aux derive.AuxSource, requested []model.Name) {
	seg.Params = seg.Raw.Clone()
	b.calc.Derive(ctx, seg, aux)
	derive.ApplyConditional(seg.Params)
	b.filter(seg, requested)
}

// filter keeps the parameters of the general and workflow layouts, the
// requested names and every calculated field.
func (b *Builder) filter(seg *model.Segment, requested []model.Name) {
	allowed := make(map[model.Name]bool)
	for _, n := range b.catalog.Layout(GeneralLayout) {
		allowed[n] = true
	}
	for _, n := range b.catalog.Layout(seg.Workflow) {
		allowed[n] = true
	}
	for _, n := range requested {
		allowed[n] = true
	}
	for name := range seg.Params {
		if !allowed[name] && !model.IsCalculated(name) {
			delete(seg.Params, name)
		}
	}
}
