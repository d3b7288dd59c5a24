package model

import (
	"time"
)

// OpenEndTime marks a segment whose end is not declared.
const OpenEndTime = -1.0

// Segment is one contiguous time window of an acquisition method.
type Segment struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	// EndTime is negative for an open end.
	EndTime float64 `json:"end_time"`

	// Params holds the workflow-filtered values, derived fields included.
	Params Params `json:"params"`
	// Raw is the effective document snapshot before derivation and filtering.
	// It seeds the next segment.
	Raw Params `json:"-"`

	Workflow    string `json:"workflow"`
	ScanModeID  int    `json:"scan_mode_id"`
	Calibration bool   `json:"calibration"`
	IonPolarity string `json:"ion_polarity"`

	// At most one of the geometry artifacts is populated, selected by
	// ScanModeID.
	Polygon  []PolygonPoint    `json:"polygon,omitempty"`
	Windows  []IsolationWindow `json:"windows,omitempty"`
	Diagonal *DiagonalGeometry `json:"diagonal,omitempty"`

	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// OpenEnded reports whether the segment has no declared end.
func (s *Segment) OpenEnded() bool {
	return s.EndTime < 0
}

// Value returns the filtered value of name.
func (s *Segment) Value(name Name) (Value, bool) {
	if s == nil {
		return Absent, false
	}
	v := s.Params.Get(name)
	return v, v.Present()
}

// Outcome returns the recorded result of a derivation family.
func (s *Segment) Outcome(family Family) (Outcome, bool) {
	for _, o := range s.Outcomes {
		if o.Family == family {
			return o, true
		}
	}
	return Outcome{}, false
}

// Metadata describes the document a dataset was built from.
type Metadata struct {
	InstrumentModel string    `json:"instrument_model,omitempty"`
	SoftwareVersion string    `json:"software_version,omitempty"`
	LastModified    time.Time `json:"last_modified,omitempty"`
}

// Dataset is the ordered, fully resolved result of one load.
type Dataset struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	FolderPath string    `json:"folder_path"`
	Segments   []Segment `json:"segments"`
	Metadata   Metadata  `json:"metadata"`
	// Active selects the segment used by single-segment queries.
	Active int `json:"active"`

	AvailableSources []string `json:"available_sources,omitempty"`
	// Defaults are the parameters named by any workflow layout.
	Defaults []Name `json:"defaults,omitempty"`
	// Optional are document parameters outside every layout.
	Optional []Name `json:"optional,omitempty"`
	// Requested grows through additional resolution and is re-applied on
	// every filtering pass.
	Requested []Name `json:"requested,omitempty"`

	// Supplied keeps definitions passed to additional resolution that the
	// catalog does not know.
	Supplied map[Name]*Definition `json:"-"`
	// Document is the parsed source kept for re-resolution.
	Document SourceDocument `json:"-"`

	LoadedAt time.Time `json:"loaded_at"`
}

// SourceDocument is the parsed method document behind a dataset.
type SourceDocument interface {
	DocumentPath() string
}

// ActiveSegment returns the segment selected by Active, nil when empty.
func (d *Dataset) ActiveSegment() *Segment {
	if d == nil || len(d.Segments) == 0 {
		return nil
	}
	i := d.Active
	if i < 0 || i >= len(d.Segments) {
		i = 0
	}
	return &d.Segments[i]
}

// Segment returns segment i; a negative index selects the active segment.
func (d *Dataset) Segment(i int) *Segment {
	if d == nil {
		return nil
	}
	if i < 0 {
		return d.ActiveSegment()
	}
	if i >= len(d.Segments) {
		return nil
	}
	return &d.Segments[i]
}

// Value looks name up in segment i; a negative index selects the active
// segment. Absence is not an error.
func (d *Dataset) Value(name Name, segmentIndex int) (Value, bool) {
	return d.Segment(segmentIndex).Value(name)
}

// AddRequested appends names not yet requested and reports whether the set
// grew.
func (d *Dataset) AddRequested(names ...Name) bool {
	seen := make(map[Name]bool, len(d.Requested))
	for _, n := range d.Requested {
		seen[n] = true
	}
	grew := false
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		d.Requested = append(d.Requested, n)
		grew = true
	}
	return grew
}
