package catalog

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"timscompare/internal/engine/model"
	"timscompare/internal/shared/xmltree"
)

const defaultCategory = "General"

var precisionPattern = regexp.MustCompile(`%\.(\d+)f`)

// DefaultLinks are the dependent parameters indexed by the imeX mode.
var DefaultLinks = map[model.Name]model.Name{
	model.RampStart: model.ImeXMode,
	model.RampEnd:   model.ImeXMode,
	model.RampTime:  model.ImeXMode,
}

// ParseCfg reads the definitions of one .cfg document. source names the file
// the definitions are attributed to; links assigns driver parameters.
func ParseCfg(data []byte, source string, links map[model.Name]model.Name) ([]*model.Definition, error) {
	root, err := xmltree.ParseBytes(data, xmltree.Options{})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	category := defaultCategory
	for _, g := range root.Iter("GROUP") {
		if dn := g.Child("DISPLAYNAME"); dn != nil {
			if name := dn.TrimmedText(); name != "" {
				category = name
			}
			break
		}
	}

	var (
		defs    []*model.Definition
		skipped int
	)
	for _, vars := range root.Iter("VARIABLES") {
		if vars == root {
			continue
		}
		for _, el := range vars.Children {
			def := parseVariable(el, category, source, links)
			if def == nil {
				skipped++
				continue
			}
			defs = append(defs, def)
		}
	}
	slog.Debug("parsed catalog file", "path", source, "definitions", len(defs), "skipped", skipped)
	return defs, nil
}

func parseVariable(el *xmltree.Element, category, source string, links map[model.Name]model.Name) *model.Definition {
	permname := el.Child("PERMANENTNAME").TrimmedText()
	if permname == "" {
		return nil
	}
	def := &model.Definition{
		Name:     model.Name(permname),
		Label:    permname,
		Category: category,
		Source:   source,
		DrivenBy: links[model.Name(permname)],
	}
	if label := el.Child("DISPLAYNAME").TrimmedText(); label != "" {
		def.Label = label
	}
	def.Unit = el.Child("UNIT").TrimmedText()
	if m := precisionPattern.FindStringSubmatch(el.Child("VALUEFORMAT").TrimmedText()); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			def.Precision = &n
		}
	}
	if strings.Contains(el.Child("DEPENDENCY").TrimmedText(), "P") {
		def.PolarityDependent = true
	}
	if use := el.Child("USE").TrimmedText(); use != "" {
		def.Location = model.Location(use)
	}
	if text := el.Child("VALUETEXT").TrimmedText(); text != "" {
		def.ValueMap = ParseValueText(text)
	}
	switch strings.ToLower(el.Child("TYPE").TrimmedText()) {
	case "bool", "boolean":
		def.Bool = true
	}
	return def
}

// ParseValueText parses a code table written either as "0:Off;1:On" or as
// "0|Off,1|On". Pairs without a separator are ignored; nil means no pairs.
func ParseValueText(text string) map[string]string {
	sep, delim := ",", "|"
	if strings.Contains(text, ";") {
		sep, delim = ";", ":"
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(text, sep) {
		key, value, ok := strings.Cut(pair, delim)
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
