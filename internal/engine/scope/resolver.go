// Package scope resolves parameter values against method document scopes.
package scope

import (
	"sort"
	"strings"

	"timscompare/internal/engine/method"
	"timscompare/internal/engine/model"
	"timscompare/internal/shared/xmltree"
)

const attrValue = "value"

// Context carries the polarity and ion-source strings that select
// conditional override scopes. Empty strings match nothing.
type Context struct {
	Polarity string
	Source   string
}

// DriverIndex maps a driver parameter's raw value to an array index of its
// dependents.
var DriverIndex = map[string]int{"0": 0, "1": 1, "2": 2, "3": 3, "4": 4}

// Resolver finds raw values for parameter definitions. It holds no per-call
// state and is safe for concurrent use.
type Resolver struct {
	driverIndex map[string]int
}

func New() *Resolver {
	return &Resolver{driverIndex: DriverIndex}
}

// IndexFor maps a driver value to a dependent array index.
func (r *Resolver) IndexFor(driver model.Value) (int, bool) {
	raw, ok := driver.Scalar()
	if !ok {
		return 0, false
	}
	idx, ok := r.driverIndex[strings.TrimSpace(raw)]
	return idx, ok
}

// Resolve returns the value of def as seen from primary. known holds values
// already resolved in the current pass and is consulted only for the
// definition's driver parameter.
func (r *Resolver) Resolve(def *model.Definition, primary, instrument *method.Scope, ctx Context, known model.Params) model.Value {
	if def == nil {
		return model.Absent
	}
	name := string(def.Name)
	location := def.EffectiveLocation()

	base := primary
	if location == model.LocationInstrument {
		base = instrument
	}
	if base == nil {
		return model.Absent
	}

	index := -1
	if def.IsDependent() {
		if idx, ok := r.IndexFor(known.Get(def.DrivenBy)); ok {
			index = idx
		}
	}

	found := lookupConditional(base, name, ctx)
	if found == nil {
		found = base.Lookup(name)
	}
	if found == nil && location == model.LocationMethod && instrument != nil {
		found = instrument.Lookup(name)
	}
	return Extract(found, index)
}

// ResolveAll resolves defs in one pass, independent definitions before
// dependent ones so drivers are known when their dependents are looked up.
// Only present values are returned.
func (r *Resolver) ResolveAll(defs []*model.Definition, primary, instrument *method.Scope, ctx Context) model.Params {
	results := make(model.Params, len(defs))
	dependents := make([]*model.Definition, 0)
	for _, def := range defs {
		if def == nil {
			continue
		}
		if def.IsDependent() {
			dependents = append(dependents, def)
			continue
		}
		results.Set(def.Name, r.Resolve(def, primary, instrument, ctx, results))
	}
	for _, def := range dependents {
		results.Set(def.Name, r.Resolve(def, primary, instrument, ctx, results))
	}
	return results
}

// ApplyDriverIndexes narrows dependent parameters that are still arrays to
// the entry selected by their driver's value in params.
func (r *Resolver) ApplyDriverIndexes(params model.Params, defs []*model.Definition) {
	for _, def := range defs {
		if !def.IsDependent() {
			continue
		}
		v := params.Get(def.Name)
		if !v.IsList() {
			continue
		}
		idx, ok := r.IndexFor(params.Get(def.DrivenBy))
		if !ok {
			continue
		}
		if item, ok := v.At(idx); ok {
			params.SetScalar(def.Name, item)
		}
	}
}

type rankedScope struct {
	rank  int
	order int
	scope *method.Scope
}

// lookupConditional searches matching override scopes, most specific first:
// polarity and source, then polarity only, then source only.
func lookupConditional(base *method.Scope, name string, ctx Context) *xmltree.Element {
	conds := base.Conditionals()
	if len(conds) == 0 {
		return nil
	}
	ranked := make([]rankedScope, 0, len(conds))
	for i, c := range conds {
		polMatch := c.HasPolarity && ctx.Polarity != "" && strings.EqualFold(c.Polarity, ctx.Polarity)
		srcMatch := c.HasSource && ctx.Source != "" && strings.EqualFold(c.Source, ctx.Source)
		rank := 0
		switch {
		case polMatch && srcMatch:
			rank = 3
		case polMatch:
			rank = 2
		case srcMatch:
			rank = 1
		}
		if rank > 0 {
			ranked = append(ranked, rankedScope{rank: rank, order: i, scope: c.Scope})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].rank != ranked[j].rank {
			return ranked[i].rank > ranked[j].rank
		}
		return ranked[i].order < ranked[j].order
	})
	for _, rs := range ranked {
		if el := rs.scope.Lookup(name); el != nil {
			return el
		}
	}
	return nil
}

// Extract reads a value from a parameter element. index >= 0 selects one
// child entry of an array-valued element.
func Extract(el *xmltree.Element, index int) model.Value {
	if el == nil {
		return model.Absent
	}
	if index >= 0 && len(el.Children) > 0 {
		if index >= len(el.Children) {
			return model.Absent
		}
		return model.Scalar(entryValue(el.Children[index], true))
	}
	if v, ok := el.Attr(attrValue); ok {
		return model.Scalar(v)
	}
	if len(el.Children) > 0 {
		_, useAttr := el.Children[0].Attr(attrValue)
		items := make([]string, 0, len(el.Children))
		for _, c := range el.Children {
			items = append(items, entryValue(c, useAttr))
		}
		return model.List(items)
	}
	return model.Absent
}

func entryValue(el *xmltree.Element, useAttr bool) string {
	if useAttr {
		if v, ok := el.Attr(attrValue); ok {
			return v
		}
	}
	return el.TrimmedText()
}
