package model

// PolygonPoint is one vertex of a PASEF isolation polygon.
type PolygonPoint struct {
	Mass     float64 `json:"mass"`
	Mobility float64 `json:"mobility"`
}

// DiaWindow is one row of the dia-PASEF window specification table.
type DiaWindow struct {
	ID             int     `json:"id"`
	Type           int     `json:"type"`
	CycleID        int     `json:"cycle_id"`
	OneOverK0Start float64 `json:"one_over_k0_start"`
	OneOverK0End   float64 `json:"one_over_k0_end"`
	IsolationMz    float64 `json:"isolation_mz"`
	IsolationWidth float64 `json:"isolation_width"`
}

const (
	DiaTypeMS1   = 0
	DiaTypePASEF = 1
)

// IsolationWindow is a plot-ready dia-PASEF table row. Mobility edges equal
// to the table's extremes may be snapped to the configured ramp.
type IsolationWindow struct {
	ID             int     `json:"id"`
	Type           int     `json:"type"`
	CycleID        int     `json:"cycle_id"`
	MzStart        float64 `json:"mz_start"`
	MzEnd          float64 `json:"mz_end"`
	MobilityStart  float64 `json:"mobility_start"`
	MobilityEnd    float64 `json:"mobility_end"`
	IsolationMz    float64 `json:"isolation_mz"`
	IsolationWidth float64 `json:"isolation_width"`
}

// DiagonalTemplate is the single template row of the diagonal-PASEF store.
// Nullable columns are pointers.
type DiagonalTemplate struct {
	Slope          *float64 `json:"slope,omitempty"`
	Origin         *float64 `json:"origin,omitempty"`
	WidthMz        *float64 `json:"width_mz,omitempty"`
	IsolationMz    *float64 `json:"isolation_mz,omitempty"`
	NumberOfSlices int      `json:"number_of_slices"`
	InsertMSScans  int      `json:"insert_ms_scan"`
	// Extra keeps remaining columns by name.
	Extra map[string]string `json:"extra,omitempty"`
}

// DiagonalGeometry is the computed slice pattern of a diagonal-PASEF segment.
type DiagonalGeometry struct {
	MobilityStart float64 `json:"mobility_start"`
	MobilityEnd   float64 `json:"mobility_end"`
	// CenterStart and CenterEnd are the pattern centers in m/z at the two
	// mobility extremes.
	CenterStart     float64         `json:"center_start"`
	CenterEnd       float64         `json:"center_end"`
	PatternWidth    float64         `json:"pattern_width"`
	SliceStep       float64         `json:"slice_step"`
	IsolationMz     float64         `json:"isolation_mz"`
	NumberOfSlices  int             `json:"number_of_slices"`
	MS1Scans        int             `json:"ms1_scans"`
	ScanAreaMzStart float64         `json:"scan_area_mz_start"`
	ScanAreaMzEnd   float64         `json:"scan_area_mz_end"`
	Slices          []DiagonalSlice `json:"slices,omitempty"`
}

// DiagonalSlice is one isolation slice at both mobility extremes.
type DiagonalSlice struct {
	MzStartAtStart float64 `json:"mz_start_at_start"`
	MzEndAtStart   float64 `json:"mz_end_at_start"`
	MzStartAtEnd   float64 `json:"mz_start_at_end"`
	MzEndAtEnd     float64 `json:"mz_end_at_end"`
}

// Family names a derivation family.
type Family string

const (
	FamilyCERamping Family = "ce_ramping"
	FamilyStepping  Family = "stepping"
	FamilyPASEF     Family = "pasef"
	FamilyDiaPASEF  Family = "dia_pasef"
	FamilyDiagonal  Family = "diagonal_pasef"
)

// Status distinguishes "not applicable" from "attempted and failed".
type Status string

const (
	StatusApplied       Status = "applied"
	StatusNotApplicable Status = "not_applicable"
	StatusUnavailable   Status = "unavailable"
)

// Outcome is the result of one derivation family for a segment.
type Outcome struct {
	Family Family `json:"family"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Applied(f Family) Outcome { return Outcome{Family: f, Status: StatusApplied} }

func NotApplicable(f Family, reason string) Outcome {
	return Outcome{Family: f, Status: StatusNotApplicable, Reason: reason}
}

func Unavailable(f Family, reason string) Outcome {
	return Outcome{Family: f, Status: StatusUnavailable, Reason: reason}
}

// Available reports whether the family produced values.
func (o Outcome) Available() bool { return o.Status == StatusApplied }
