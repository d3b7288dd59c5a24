package method

import (
	"timscompare/internal/shared/xmltree"
)

const (
	attrPermName = "permname"
	attrPolarity = "polarity"
	attrSource   = "source"
	tagDependent = "dependent"
)

// Scope is a document subtree with its parameter elements indexed by
// permanent name. The index keeps the first element in document order for
// each name, which matches a depth-first ".//*[@permname=...]" search.
type Scope struct {
	Element      *xmltree.Element
	index        map[string]*xmltree.Element
	conditionals []*Conditional
}

// Conditional is a polarity and/or source dependent override sub-scope.
type Conditional struct {
	Polarity    string
	HasPolarity bool
	Source      string
	HasSource   bool
	Scope       *Scope
}

// NewScope indexes el and every conditional override found inside it.
func NewScope(el *xmltree.Element) *Scope {
	if el == nil {
		return nil
	}
	s := &Scope{Element: el, index: indexParameters(el)}
	for _, dep := range el.Iter(tagDependent) {
		pol, hasPol := dep.Attr(attrPolarity)
		src, hasSrc := dep.Attr(attrSource)
		s.conditionals = append(s.conditionals, &Conditional{
			Polarity:    pol,
			HasPolarity: hasPol && pol != "",
			Source:      src,
			HasSource:   hasSrc && src != "",
			Scope:       &Scope{Element: dep, index: indexParameters(dep)},
		})
	}
	return s
}

func indexParameters(el *xmltree.Element) map[string]*xmltree.Element {
	index := make(map[string]*xmltree.Element)
	for _, child := range el.Children {
		child.Walk(func(e *xmltree.Element) bool {
			if name, ok := e.Attr(attrPermName); ok {
				if _, seen := index[name]; !seen {
					index[name] = e
				}
			}
			return true
		})
	}
	return index
}

// Lookup returns the first parameter element named name below the scope root.
func (s *Scope) Lookup(name string) *xmltree.Element {
	if s == nil {
		return nil
	}
	return s.index[name]
}

// Has reports whether name occurs anywhere in the scope.
func (s *Scope) Has(name string) bool {
	return s.Lookup(name) != nil
}

// Conditionals returns the override sub-scopes in encounter order.
func (s *Scope) Conditionals() []*Conditional {
	if s == nil {
		return nil
	}
	return s.conditionals
}
