// Package method parses instrument method documents into indexed scopes.
package method

import (
	"sort"
	"strconv"
	"strings"
	"time"

	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/engine/model"
	"timscompare/internal/shared/xmltree"
)

const (
	pathMethod     = "method"
	pathInstrument = "instrument"
	pathSegments   = "method/qtofimpactemacq/timetable/segment"
	attrEndTime    = "endtime"
)

// OpenEndTime is the end time of a segment without a declared end.
const OpenEndTime = model.OpenEndTime

// Document is a parsed method document.
type Document struct {
	Path       string
	Root       *xmltree.Element
	Method     *Scope
	Instrument *Scope
	Segments   []SegmentScope
	Metadata   model.Metadata
}

// SegmentScope is one declared time window of the method.
type SegmentScope struct {
	Scope *Scope
	// EndTime is in minutes; negative means open end.
	EndTime float64
}

// Options controls document decoding.
type Options struct {
	Encoding string
	// ModTime is used when the document carries no last-modified attribute.
	ModTime time.Time
}

// Parse builds a Document from raw bytes. It fails with a parsing error when
// the XML is malformed or the method scope is missing.
func Parse(data []byte, path string, opts Options) (*Document, error) {
	root, err := xmltree.ParseBytes(data, xmltree.Options{Encoding: opts.Encoding})
	if err != nil {
		return nil, domainerrors.Parsing(err, path, "malformed method document")
	}

	methodEl := root.Find(pathMethod)
	if methodEl == nil {
		return nil, domainerrors.Parsing(nil, path, "could not find the <method> element")
	}

	doc := &Document{
		Path:       path,
		Root:       root,
		Method:     NewScope(methodEl),
		Instrument: NewScope(root.Find(pathInstrument)),
	}
	for _, el := range root.FindAll(pathSegments) {
		doc.Segments = append(doc.Segments, SegmentScope{
			Scope:   NewScope(el),
			EndTime: parseEndTime(el),
		})
	}
	doc.Metadata = readMetadata(root, doc.Instrument, opts.ModTime)
	return doc, nil
}

func parseEndTime(el *xmltree.Element) float64 {
	raw, ok := el.Attr(attrEndTime)
	if !ok {
		return OpenEndTime
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return OpenEndTime
	}
	return v
}

var (
	modelAttrs    = []string{"instrument", "instrumentmodel", "model", "type"}
	versionAttrs  = []string{"version", "softwareversion", "firmware", "appversion"}
	modifiedAttrs = []string{"lastmodified", "modified", "date"}
	timeLayouts   = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
)

func readMetadata(root *xmltree.Element, instrument *Scope, modTime time.Time) model.Metadata {
	md := model.Metadata{LastModified: modTime}
	md.InstrumentModel = firstAttr(root, modelAttrs)
	if md.InstrumentModel == "" && instrument != nil {
		md.InstrumentModel = firstAttr(instrument.Element, modelAttrs)
	}
	md.SoftwareVersion = firstAttr(root, versionAttrs)
	if raw := firstAttr(root, modifiedAttrs); raw != "" {
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				md.LastModified = ts.UTC()
				break
			}
		}
	}
	return md
}

func firstAttr(el *xmltree.Element, names []string) string {
	for _, n := range names {
		if v, ok := el.Attr(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (d *Document) DocumentPath() string { return d.Path }

// ScopeForSegment returns the scope that segment i was built from. Documents
// without declared segments have a single implicit segment over the method
// scope.
func (d *Document) ScopeForSegment(i int) *Scope {
	if len(d.Segments) == 0 {
		if i == 0 {
			return d.Method
		}
		return nil
	}
	if i < 0 || i >= len(d.Segments) {
		return nil
	}
	return d.Segments[i].Scope
}

// HasParameter reports whether any element in the document carries name.
func (d *Document) HasParameter(name string) bool {
	if d.Method.Has(name) || d.Instrument.Has(name) {
		return true
	}
	found := d.Root.FirstDescendant(func(e *xmltree.Element) bool {
		v, ok := e.Attr(attrPermName)
		return ok && v == name
	})
	return found != nil
}

// Sources lists the distinct ion-source attributes of every conditional
// scope in the document, sorted.
func (d *Document) Sources() []string {
	seen := make(map[string]bool)
	for _, dep := range d.Root.Iter(tagDependent) {
		if src, ok := dep.Attr(attrSource); ok && src != "" {
			seen[src] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
