package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags which branch of a Value is populated.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindScalar
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a resolved parameter value: a scalar string, an ordered list of
// strings, or absent. The zero Value is absent.
type Value struct {
	kind   Kind
	scalar string
	list   []string
}

// Absent is the "not found in this scope" value.
var Absent = Value{}

func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// List copies items into a list value. A nil slice still yields a list.
func List(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) IsScalar() bool { return v.kind == KindScalar }
func (v Value) IsList() bool   { return v.kind == KindList }
func (v Value) Present() bool  { return v.kind != KindAbsent }

// Scalar returns the scalar string and whether the value is scalar.
func (v Value) Scalar() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	return v.scalar, true
}

// List returns a copy of the list items and whether the value is a list.
func (v Value) List() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Len is the number of list items, 1 for a scalar and 0 when absent.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindScalar:
		return 1
	default:
		return 0
	}
}

// At returns list item i.
func (v Value) At(i int) (string, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return "", false
	}
	return v.list[i], true
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		return "[" + strings.Join(v.list, ", ") + "]"
	default:
		return "<absent>"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Absent
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list value: %w", err)
		}
		*v = List(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode scalar value: %w", err)
	}
	*v = Scalar(s)
	return nil
}
