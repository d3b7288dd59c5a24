package segment

import (
	"context"

	"timscompare/internal/engine/derive"
	"timscompare/internal/engine/method"
	"timscompare/internal/engine/model"
	"timscompare/internal/engine/scope"
)

// Reresolve resolves the dataset's default and requested parameters again
// under the ion-source context and merges them into every segment in place.
// Values found in a segment's own scope win, others are inherited from the
// previous segment; values of names outside the checked set are kept.
// Derivation, conditional overrides and filtering are re-applied afterwards.
// Repeated calls with the same requested set give the same result.
func (b *Builder) Reresolve(ctx context.Context, doc *method.Document, ds *model.Dataset, source string, aux derive.AuxSource) {
	names := make([]model.Name, 0, len(ds.Defaults)+len(ds.Requested))
	names = append(names, ds.Defaults...)
	names = append(names, ds.Requested...)
	check := b.definitionsFor(names, ds.Supplied)
	catalogDefs := b.catalog.Definitions()
	indexed := make([]*model.Definition, 0, len(catalogDefs)+len(check))
	indexed = append(indexed, catalogDefs...)
	indexed = append(indexed, check...)

	seed := model.Params{}
	if len(doc.Segments) > 0 {
		seed = b.documentLevel(doc, check, source)
	}

	for i := range ds.Segments {
		seg := &ds.Segments[i]
		sc := doc.ScopeForSegment(seg.Index)
		if sc == nil {
			continue
		}
		if seg.Raw == nil {
			seg.Raw = model.Params{}
		}

		ctxScope := scope.Context{
			Polarity: b.polarity(b.polarityCode(sc, seg.Raw)),
			Source:   source,
		}
		found := b.resolver.ResolveAll(check, sc, doc.Instrument, ctxScope)
		for _, def := range check {
			if v := found.Get(def.Name); v.Present() {
				seg.Raw.Set(def.Name, v)
			} else if v := seed.Get(def.Name); v.Present() {
				seg.Raw.Set(def.Name, v)
			}
		}
		b.resolver.ApplyDriverIndexes(seg.Raw, indexed)
		b.annotate(seg)
		b.finish(ctx, seg, aux, ds.Requested)

		seed = seg.Raw
	}
}

// Lookup resolves one definition for segments[i] with the given source
// context. A segment whose scope does not carry the parameter inherits it
// from the nearest earlier segment that does, and the first segment from the
// method scope. Each segment's raw values supply its polarity and the driver
// of dependent parameters.
func (b *Builder) Lookup(doc *method.Document, segments []model.Segment, i int, def *model.Definition, source string) model.Value {
	if i < 0 || i >= len(segments) {
		return model.Absent
	}
	for j := i; j >= 0; j-- {
		seg := &segments[j]
		sc := doc.ScopeForSegment(seg.Index)
		if sc == nil {
			continue
		}
		ctx := scope.Context{Polarity: b.polarity(b.polarityCode(sc, seg.Raw)), Source: source}
		if v := b.resolver.Resolve(def, sc, doc.Instrument, ctx, seg.Raw); v.Present() {
			return v
		}
		if sc == doc.Method {
			return model.Absent
		}
	}
	first := &segments[0]
	ctx := scope.Context{Polarity: b.polarity(b.polarityCode(doc.Method, first.Raw)), Source: source}
	return b.resolver.Resolve(def, doc.Method, doc.Instrument, ctx, first.Raw)
}

// definitionsFor maps names to definitions: catalog first, then supplied,
// else a bare method-scope definition. Calculated names are skipped.
func (b *Builder) definitionsFor(names []model.Name, supplied map[model.Name]*model.Definition) []*model.Definition {
	seen := make(map[model.Name]bool, len(names))
	out := make([]*model.Definition, 0, len(names))
	for _, n := range names {
		if seen[n] || model.IsCalculated(n) {
			continue
		}
		seen[n] = true
		out = append(out, b.Definition(n, supplied))
	}
	return out
}

// Definition returns the catalog definition of name, falling back to
// supplied and then to a bare definition.
func (b *Builder) Definition(name model.Name, supplied map[model.Name]*model.Definition) *model.Definition {
	if d := b.catalog.Definition(name); d != nil {
		return d
	}
	if d, ok := supplied[name]; ok && d != nil {
		return d
	}
	return &model.Definition{Name: name}
}

// Discover lists the parameters named by any workflow layout and the
// catalog parameters outside every layout that the document contains, both
// in catalog order.
func (b *Builder) Discover(doc *method.Document) (defaults, optional []model.Name) {
	inLayout := make(map[model.Name]bool)
	for _, wf := range b.catalog.Workflows() {
		for _, n := range b.catalog.Layout(wf) {
			inLayout[n] = true
		}
	}
	for _, def := range b.catalog.Definitions() {
		switch {
		case inLayout[def.Name]:
			defaults = append(defaults, def.Name)
		case doc.HasParameter(string(def.Name)):
			optional = append(optional, def.Name)
		}
	}
	return defaults, optional
}
