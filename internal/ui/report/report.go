// Package report renders datasets for the command line.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"timscompare/internal/core/ports"
	"timscompare/internal/engine/format"
	"timscompare/internal/engine/model"
)

type Format string

const (
	FormatText Format = "text"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat accepts the format names case-insensitively; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, tsv or json)", s)
	}
}

// Options selects what to render.
type Options struct {
	Format Format
	// Segment renders one segment; negative renders all of them.
	Segment int
}

// Render writes ds to w in the requested format.
func Render(w io.Writer, ds *model.Dataset, catalog ports.ParameterCatalog, opts Options) error {
	if ds == nil {
		return fmt.Errorf("no dataset to render")
	}
	segments, err := selectSegments(ds, opts.Segment)
	if err != nil {
		return err
	}
	switch opts.Format {
	case FormatJSON:
		return renderJSON(w, ds, segments)
	case FormatTSV:
		return renderTSV(w, segments, catalog)
	case FormatText, "":
		return renderText(w, ds, segments, catalog)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

func selectSegments(ds *model.Dataset, index int) ([]model.Segment, error) {
	if index < 0 {
		return ds.Segments, nil
	}
	if index >= len(ds.Segments) {
		return nil, fmt.Errorf("segment %d out of range (dataset has %d)", index+1, len(ds.Segments))
	}
	return ds.Segments[index : index+1], nil
}

// row is one displayable parameter of a segment.
type row struct {
	Category string
	Name     model.Name
	Label    string
	Value    string
	// Items holds the entries of list values, one display line each.
	Items []string
}

const calculatedCategory = "Calculated"

var calcLabels = map[model.Name]string{
	model.CalcScanMode:       "Scan Mode",
	model.CalcSegmentStart:   "Segment Start",
	model.CalcSegmentEnd:     "Segment End",
	model.CalcCERampingStart: "CE Ramping Start",
	model.CalcCERampingEnd:   "CE Ramping End",
	model.CalcAdvancedCERamp: "Advanced CE Ramping",
	model.CalcSteppingList:   "MS/MS Stepping",
	model.CalcCycleTime:      "Cycle Time",
	model.CalcMS1Scans:       "MS1 Scans",
	model.CalcRamps:          "Ramps",
	model.CalcSteps:          "Steps",
	model.CalcMzWidth:        "Isolation Width",
	model.CalcScanAreaMz:     "Scan Area m/z",
	model.CalcScanAreaIm:     "Scan Area 1/K0",
	model.CalcImStart:        "Mobility Start",
	model.CalcImEnd:          "Mobility End",
}

// rows orders a segment's parameters by catalog position; calculated fields
// follow, then names the catalog does not know.
func rows(seg *model.Segment, catalog ports.ParameterCatalog) []row {
	order := make(map[model.Name]int)
	if catalog != nil {
		for i, d := range catalog.Definitions() {
			order[d.Name] = i
		}
	}
	names := seg.Params.Names()
	rank := func(n model.Name) int {
		if i, ok := order[n]; ok {
			return i
		}
		if model.IsCalculated(n) {
			return len(order)
		}
		return len(order) + 1
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})

	out := make([]row, 0, len(names))
	for _, n := range names {
		var def *model.Definition
		if catalog != nil {
			def = catalog.Definition(n)
		}
		v := seg.Params.Get(n)
		r := row{Name: n, Label: string(n), Value: format.Value(n, def, v)}
		if v.Kind() == model.KindList {
			r.Items = format.Lines(n, def, v)
		}
		switch {
		case def != nil:
			r.Category = def.Category
			if def.Label != "" {
				r.Label = def.Label
			}
		case model.IsCalculated(n):
			r.Category = calculatedCategory
			if label, ok := calcLabels[n]; ok {
				r.Label = label
			}
		default:
			r.Category = "Other"
		}
		out = append(out, r)
	}
	return out
}

func segmentTitle(seg *model.Segment) string {
	end := "Open End"
	if !seg.OpenEnded() {
		end = fmt.Sprintf("%.2f min", seg.EndTime)
	}
	return fmt.Sprintf("Segment %d  %.2f min - %s  %s", seg.Index+1, seg.StartTime, end, seg.Workflow)
}
