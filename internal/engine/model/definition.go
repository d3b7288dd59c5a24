package model

import "strings"

// Location is where a parameter lives in the method document.
type Location string

const (
	LocationMethod     Location = "method"
	LocationInstrument Location = "instrument"
)

// Definition is the static catalog metadata of one parameter. Definitions are
// owned by the catalog and shared by reference.
type Definition struct {
	Name     Name
	Label    string
	Category string
	Unit     string
	// Precision is the rounding precision taken from VALUEFORMAT, nil when unset.
	Precision *int
	// ValueMap decodes raw codes into labels.
	ValueMap map[string]string
	Location Location
	// DrivenBy names the driver parameter whose value selects an index into
	// this parameter's array value.
	DrivenBy          Name
	PolarityDependent bool
	Bool              bool
	// Source is the catalog file the definition came from.
	Source string
}

// Decode maps a raw code through the value-code table.
func (d *Definition) Decode(code string) (string, bool) {
	if d == nil || d.ValueMap == nil {
		return "", false
	}
	label, ok := d.ValueMap[code]
	return label, ok
}

// IsDependent reports whether the definition has a driver parameter.
func (d *Definition) IsDependent() bool {
	return d != nil && d.DrivenBy != ""
}

// EffectiveLocation defaults to the method scope.
func (d *Definition) EffectiveLocation() Location {
	if d == nil || strings.TrimSpace(string(d.Location)) == "" {
		return LocationMethod
	}
	if strings.EqualFold(string(d.Location), string(LocationInstrument)) {
		return LocationInstrument
	}
	return LocationMethod
}

// IsCalculated reports whether name is a derived field rather than a
// document parameter.
func IsCalculated(name Name) bool {
	return strings.HasPrefix(string(name), CalcPrefix)
}
