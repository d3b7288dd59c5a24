// Package catalog supplies parameter definitions parsed from vendor .cfg files
// together with the workflow layouts that decide which parameters a workflow
// shows.
package catalog

import (
	"timscompare/internal/engine/model"
	"timscompare/internal/shared/util"
)

// Catalog is an immutable ParameterCatalog.
type Catalog struct {
	defs      []*model.Definition
	byName    map[model.Name]*model.Definition
	layouts   map[string][]model.Name
	workflows []string
}

// New builds a catalog over defs, keeping their order. The first definition
// of a duplicated name wins.
func New(defs []*model.Definition, layouts map[string][]model.Name) *Catalog {
	c := &Catalog{
		byName:  make(map[model.Name]*model.Definition, len(defs)),
		layouts: make(map[string][]model.Name, len(layouts)),
	}
	for _, d := range defs {
		if d == nil || d.Name == "" {
			continue
		}
		if _, dup := c.byName[d.Name]; dup {
			continue
		}
		c.byName[d.Name] = d
		c.defs = append(c.defs, d)
	}
	for wf, names := range layouts {
		c.layouts[wf] = append([]model.Name(nil), names...)
	}
	c.workflows = util.SortedStringKeys(c.layouts)
	return c
}

// Definitions returns every definition in catalog order. Callers must not
// modify the slice.
func (c *Catalog) Definitions() []*model.Definition { return c.defs }

func (c *Catalog) Definition(name model.Name) *model.Definition {
	return c.byName[name]
}

func (c *Catalog) Layout(workflow string) []model.Name {
	return c.layouts[workflow]
}

// Workflows lists layout names in lexical order.
func (c *Catalog) Workflows() []string { return c.workflows }

// Categories groups definition names by category, in catalog order.
func (c *Catalog) Categories() map[string][]model.Name {
	out := make(map[string][]model.Name)
	for _, d := range c.defs {
		out[d.Category] = append(out[d.Category], d.Name)
	}
	return out
}
