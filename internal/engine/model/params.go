package model

import "sort"

// Name is a parameter's permanent name.
type Name string

// Params maps parameter names to resolved values. Absent values are never
// stored; a missing key means absent.
type Params map[Name]Value

// Get returns the value for name, or Absent.
func (p Params) Get(name Name) Value {
	if p == nil {
		return Absent
	}
	return p[name]
}

// ScalarOf returns name's scalar string.
func (p Params) ScalarOf(name Name) (string, bool) {
	return p.Get(name).Scalar()
}

// Set stores v, deleting the key when v is absent.
func (p Params) Set(name Name, v Value) {
	if v.IsAbsent() {
		delete(p, name)
		return
	}
	p[name] = v
}

func (p Params) SetScalar(name Name, s string) {
	p[name] = Scalar(s)
}

// Clone returns an independent copy. Values are immutable so a shallow copy
// of the map suffices.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies every present value from other over p.
func (p Params) Merge(other Params) {
	for k, v := range other {
		p.Set(k, v)
	}
}

// Names returns the keys in sorted order.
func (p Params) Names() []Name {
	names := make([]Name, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
