// Package format turns raw parameter values into display strings.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"timscompare/internal/engine/model"
)

var polygonParams = map[model.Name]bool{
	model.PolygonMass:     true,
	model.PolygonMobility: true,
}

// Value formats v for display using def's value map, type, precision and
// unit. def may be nil; name is used for name-based rules in that case.
// Formatting never mutates def and is stable under repeated calls.
func Value(name model.Name, def *model.Definition, v model.Value) string {
	if def != nil && name == "" {
		name = def.Name
	}
	switch v.Kind() {
	case model.KindAbsent:
		return model.NotAvailable
	case model.KindList:
		if polygonParams[name] {
			return fmt.Sprintf("Polygon (%d points)", v.Len())
		}
		return fmt.Sprintf("List (%d items)", v.Len())
	}
	s, _ := v.Scalar()
	return Scalar(name, def, s)
}

// Scalar formats one raw scalar string.
func Scalar(name model.Name, def *model.Definition, raw string) string {
	if raw == "" {
		return model.NotAvailable
	}
	if label, ok := def.Decode(raw); ok {
		return label
	}
	if (def != nil && def.Bool) || strings.HasSuffix(string(name), "Switch") {
		if isTrue(raw) {
			return "On"
		}
		return "Off"
	}

	out := raw
	if def != nil && def.Precision != nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			out = strconv.FormatFloat(f, 'f', *def.Precision, 64)
		}
	}
	if def != nil && def.Unit != "" {
		return out + " " + def.Unit
	}
	return out
}

func isTrue(raw string) bool {
	switch raw {
	case "1", "true", "True":
		return true
	}
	return false
}

// Lines expands a value into display lines: one per list item, or the
// formatted scalar.
func Lines(name model.Name, def *model.Definition, v model.Value) []string {
	if items, ok := v.List(); ok {
		return items
	}
	return []string{Value(name, def, v)}
}
