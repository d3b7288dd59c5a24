package derive

import (
	"context"
	"errors"
	"testing"

	"timscompare/internal/engine/model"
)

type fakeAux struct {
	windows     []model.DiaWindow
	windowsErr  error
	template    model.DiagonalTemplate
	templateErr error
}

func (f *fakeAux) DiaWindows(context.Context) ([]model.DiaWindow, error) {
	return f.windows, f.windowsErr
}

func (f *fakeAux) DiagonalTemplate(context.Context) (model.DiagonalTemplate, error) {
	return f.template, f.templateErr
}

type defMap map[model.Name]*model.Definition

func (d defMap) Definition(name model.Name) *model.Definition { return d[name] }

func fp(f float64) *float64 { return &f }

func newSegment(modeID int, params model.Params) *model.Segment {
	return &model.Segment{
		Workflow:   "test",
		ScanModeID: modeID,
		StartTime:  1,
		EndTime:    -1,
		Params:     params,
	}
}

func scalar(t *testing.T, p model.Params, name model.Name) string {
	t.Helper()
	s, ok := p.ScalarOf(name)
	if !ok {
		t.Fatalf("expected scalar %s, got %v", name, p.Get(name))
	}
	return s
}

func TestDerive_SegmentFields(t *testing.T) {
	seg := newSegment(model.NoScanMode, model.Params{model.CalcRamps: model.Scalar("stale")})
	seg.StartTime, seg.EndTime = 2.5, 10
	New(nil, nil).Derive(context.Background(), seg, nil)

	if got := scalar(t, seg.Params, model.CalcSegmentStart); got != "2.50 min" {
		t.Fatalf("unexpected start %q", got)
	}
	if got := scalar(t, seg.Params, model.CalcSegmentEnd); got != "10.00 min" {
		t.Fatalf("unexpected end %q", got)
	}
	if got := scalar(t, seg.Params, model.CalcScanMode); got != "test" {
		t.Fatalf("unexpected scan mode %q", got)
	}
	if seg.Params.Get(model.CalcRamps).Present() {
		t.Fatal("stale calculated fields must be cleared")
	}
	if EndTimeDisplay(-1) != "Open End" {
		t.Fatal("negative end time must display as open end")
	}
}

func TestDerive_PASEFPolygonAndCycleTime(t *testing.T) {
	seg := newSegment(model.ScanModePASEF, model.Params{
		model.PolygonMass:     model.List([]string{"100.0", "200.0", "150.0"}),
		model.PolygonMobility: model.List([]string{"0.6", "0.9", "1.2"}),
		model.PasefNumRamps:   model.Scalar("10"),
		model.RampTime:        model.Scalar("100"),
		model.QuenchTime:      model.Scalar("2"),
	})
	New(nil, nil).Derive(context.Background(), seg, nil)

	want := []model.PolygonPoint{
		{Mass: 100, Mobility: 0.6},
		{Mass: 200, Mobility: 0.9},
		{Mass: 150, Mobility: 1.2},
	}
	if len(seg.Polygon) != len(want) {
		t.Fatalf("expected %d points, got %v", len(want), seg.Polygon)
	}
	for i := range want {
		if seg.Polygon[i] != want[i] {
			t.Fatalf("point %d: expected %v, got %v", i, want[i], seg.Polygon[i])
		}
	}
	// (10+1) * (100+2) / 1000 = 1.122
	if got := scalar(t, seg.Params, model.CalcCycleTime); got != "1.12 s" {
		t.Fatalf("unexpected cycle time %q", got)
	}
	if o, _ := seg.Outcome(model.FamilyPASEF); !o.Available() {
		t.Fatalf("expected applied outcome, got %+v", o)
	}
}

func TestDerive_PASEFBadNumbers(t *testing.T) {
	seg := newSegment(model.ScanModePASEF, model.Params{
		model.PolygonMass:     model.List([]string{"x"}),
		model.PolygonMobility: model.List([]string{"0.6"}),
		model.PasefNumRamps:   model.Scalar("ten"),
	})
	New(nil, nil).Derive(context.Background(), seg, nil)
	if seg.Polygon != nil {
		t.Fatal("expected no polygon for non-numeric mass")
	}
	if got := scalar(t, seg.Params, model.CalcCycleTime); got != "N/A" {
		t.Fatalf("expected N/A cycle time, got %q", got)
	}
	if o, _ := seg.Outcome(model.FamilyPASEF); o.Status != model.StatusUnavailable {
		t.Fatalf("expected unavailable outcome, got %+v", o)
	}
}

func TestApplyConditional(t *testing.T) {
	p := model.Params{
		model.ICCMode:          model.Scalar("1"),
		model.AccumulationTime: model.Scalar("50"),
		model.DutyCycleLock:    model.Scalar("1"),
		model.RampTime:         model.Scalar("100"),
		model.CalcCycleTime:    model.Scalar("1.12 s"),
	}
	ApplyConditional(p)
	for _, name := range []model.Name{model.AccumulationTime, model.DutyCycleLock, model.CalcCycleTime} {
		if got := scalar(t, p, name); got != "variable" {
			t.Fatalf("%s: expected variable, got %q", name, got)
		}
	}

	p = model.Params{
		model.ICCMode:          model.Scalar("0"),
		model.AccumulationTime: model.Scalar("50"),
		model.DutyCycleLock:    model.Scalar("1"),
		model.RampTime:         model.Scalar("100"),
	}
	ApplyConditional(p)
	if got := scalar(t, p, model.AccumulationTime); got != "100" {
		t.Fatalf("expected duty cycle lock to copy ramp time, got %q", got)
	}
	if p.Get(model.CalcCycleTime).Present() {
		t.Fatal("absent fields must stay absent")
	}
}

func TestDerive_DiaPASEF(t *testing.T) {
	rows := []model.DiaWindow{
		{ID: 1, Type: 0, CycleID: 0},
		{ID: 2, Type: 0, CycleID: 0},
		{ID: 3, Type: 1, CycleID: 1, OneOverK0Start: 0.70, OneOverK0End: 0.90, IsolationMz: 400, IsolationWidth: 25},
		{ID: 4, Type: 1, CycleID: 1, OneOverK0Start: 0.90, OneOverK0End: 1.10, IsolationMz: 500, IsolationWidth: 25},
		{ID: 5, Type: 1, CycleID: 1, OneOverK0Start: 1.10, OneOverK0End: 1.30, IsolationMz: 600, IsolationWidth: 25},
		{ID: 6, Type: 1, CycleID: 2, OneOverK0Start: 0.70, OneOverK0End: 0.90, IsolationMz: 425, IsolationWidth: 25},
		{ID: 7, Type: 1, CycleID: 2, OneOverK0Start: 0.90, OneOverK0End: 1.10, IsolationMz: 525, IsolationWidth: 25},
		{ID: 8, Type: 1, CycleID: 2, OneOverK0Start: 1.10, OneOverK0End: 1.30, IsolationMz: 625, IsolationWidth: 25},
	}
	seg := newSegment(model.ScanModeDiaPASEF, model.Params{
		model.RampTime:   model.Scalar("100"),
		model.QuenchTime: model.Scalar("0"),
		model.RampStart:  model.Scalar("0.6"),
		model.RampEnd:    model.Scalar("1.4"),
	})
	New(nil, nil).Derive(context.Background(), seg, &fakeAux{windows: rows})

	checks := map[model.Name]string{
		model.CalcMS1Scans:   "2",
		model.CalcRamps:      "2",
		model.CalcSteps:      "3",
		model.CalcMzWidth:    "static (25.0)",
		model.CalcScanAreaMz: "387.50 m/z - 637.50 m/z",
		model.CalcScanAreaIm: "0.7000 - 1.3000",
		model.CalcCycleTime:  "0.40 s",
	}
	for name, want := range checks {
		if got := scalar(t, seg.Params, name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
	if len(seg.Windows) != len(rows) {
		t.Fatalf("expected %d plot rows, got %d", len(rows), len(seg.Windows))
	}
	if seg.Windows[2].MobilityStart != 0.6 || seg.Windows[4].MobilityEnd != 1.4 {
		t.Fatalf("expected edge windows snapped to the ramp, got %+v", seg.Windows[2])
	}
	if seg.Windows[3].MobilityStart != 0.9 {
		t.Fatal("inner windows must keep their own edges")
	}
}

func TestDerive_DiaPASEFSnapIgnoresMS1Extent(t *testing.T) {
	rows := []model.DiaWindow{
		{ID: 1, Type: 0, CycleID: 0, OneOverK0Start: 0.5, OneOverK0End: 1.5},
		{ID: 2, Type: 1, CycleID: 1, OneOverK0Start: 0.70, OneOverK0End: 1.00, IsolationMz: 400, IsolationWidth: 25},
		{ID: 3, Type: 1, CycleID: 1, OneOverK0Start: 1.00, OneOverK0End: 1.30, IsolationMz: 600, IsolationWidth: 25},
	}
	seg := newSegment(model.ScanModeDiaPASEF, model.Params{
		model.RampStart: model.Scalar("0.6"),
		model.RampEnd:   model.Scalar("1.4"),
	})
	New(nil, nil).Derive(context.Background(), seg, &fakeAux{windows: rows})

	if len(seg.Windows) != 3 {
		t.Fatalf("expected 3 plot rows, got %d", len(seg.Windows))
	}
	if ms1 := seg.Windows[0]; ms1.MobilityStart != 0.5 || ms1.MobilityEnd != 1.5 {
		t.Fatalf("MS1 rows keep their stored extent, got %+v", ms1)
	}
	if seg.Windows[1].MobilityStart != 0.6 {
		t.Fatalf("lowest PASEF window snaps to the ramp start, got %v", seg.Windows[1].MobilityStart)
	}
	if seg.Windows[2].MobilityEnd != 1.4 {
		t.Fatalf("highest PASEF window snaps to the ramp end, got %v", seg.Windows[2].MobilityEnd)
	}
	if seg.Windows[1].MobilityEnd != 1.0 || seg.Windows[2].MobilityStart != 1.0 {
		t.Fatal("inner edges must not move")
	}
}

func TestDerive_DiaPASEFDegrades(t *testing.T) {
	calc := New(nil, nil)

	seg := newSegment(model.ScanModeDiaPASEF, model.Params{})
	calc.Derive(context.Background(), seg, &fakeAux{windowsErr: errors.New("no such file")})
	for _, name := range diaFields {
		if got := scalar(t, seg.Params, name); got != "N/A" {
			t.Fatalf("%s: expected N/A, got %q", name, got)
		}
	}
	if o, _ := seg.Outcome(model.FamilyDiaPASEF); o.Status != model.StatusUnavailable || o.Reason != "no such file" {
		t.Fatalf("unexpected outcome %+v", o)
	}

	seg = newSegment(model.ScanModeDiaPASEF, model.Params{})
	calc.Derive(context.Background(), seg, &fakeAux{windows: []model.DiaWindow{{Type: 0}}})
	if got := scalar(t, seg.Params, model.CalcMS1Scans); got != "1" {
		t.Fatalf("expected MS1 count to survive without PASEF rows, got %q", got)
	}
	if got := scalar(t, seg.Params, model.CalcRamps); got != "N/A" {
		t.Fatalf("expected N/A ramps, got %q", got)
	}
}

func TestDerive_DiagonalPASEF(t *testing.T) {
	tpl := model.DiagonalTemplate{
		Slope:          fp(0.001),
		Origin:         fp(0.3),
		WidthMz:        fp(100),
		IsolationMz:    fp(25),
		NumberOfSlices: 4,
		InsertMSScans:  1,
	}
	seg := newSegment(model.ScanModeDiagonalPASEF, model.Params{
		model.RampStart:  model.Scalar("0.7"),
		model.RampEnd:    model.Scalar("1.3"),
		model.RampTime:   model.Scalar("100"),
		model.QuenchTime: model.Scalar("0"),
	})
	New(nil, nil).Derive(context.Background(), seg, &fakeAux{template: tpl})

	// centers 400 and 1000, pattern starts 350 and 950, step 25,
	// last slice ends at 950 + 3*25 + 25.
	checks := map[model.Name]string{
		model.CalcMS1Scans:   "1",
		model.CalcRamps:      "4",
		model.CalcMzWidth:    "25.0",
		model.CalcScanAreaIm: "0.70 - 1.30",
		model.CalcScanAreaMz: "350.00 m/z - 1050.00 m/z",
		model.CalcCycleTime:  "0.50 s",
		model.CalcImStart:    "0.7",
	}
	for name, want := range checks {
		if got := scalar(t, seg.Params, name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
	if seg.Diagonal == nil || len(seg.Diagonal.Slices) != 4 {
		t.Fatalf("expected 4 slices, got %+v", seg.Diagonal)
	}
}

func TestDerive_DiagonalPASEFSoftFailures(t *testing.T) {
	calc := New(nil, nil)
	params := func() model.Params {
		return model.Params{model.RampStart: model.Scalar("0.7"), model.RampEnd: model.Scalar("1.3")}
	}

	seg := newSegment(model.ScanModeDiagonalPASEF, params())
	calc.Derive(context.Background(), seg, &fakeAux{template: model.DiagonalTemplate{
		Slope: fp(0), Origin: fp(0.3), WidthMz: fp(100), IsolationMz: fp(25), NumberOfSlices: 4,
	}})
	if got := scalar(t, seg.Params, model.CalcScanAreaMz); got != "N/A" {
		t.Fatalf("expected N/A for zero slope, got %q", got)
	}
	if got := scalar(t, seg.Params, model.CalcRamps); got != "4" {
		t.Fatalf("template fields must survive a geometry failure, got %q", got)
	}

	seg = newSegment(model.ScanModeDiagonalPASEF, params())
	calc.Derive(context.Background(), seg, &fakeAux{templateErr: errors.New("missing store")})
	for _, name := range diagonalFields {
		if got := scalar(t, seg.Params, name); got != "N/A" {
			t.Fatalf("%s: expected N/A, got %q", name, got)
		}
	}
}

func TestDerive_CERamping(t *testing.T) {
	defs := defMap{
		model.RampingCollisionPair: {Name: model.RampingCollisionPair, Unit: "eV", Precision: new(int)},
		model.RampingMobilityPair:  {Name: model.RampingMobilityPair, Unit: "1/K0"},
	}
	calc := New(defs, nil)

	seg := newSegment(model.NoScanMode, model.Params{
		model.RampingCollisionPair: model.List([]string{"20.4", "59.6"}),
		model.RampingMobilityPair:  model.List([]string{"0.6", "1.6"}),
	})
	calc.Derive(context.Background(), seg, nil)
	if got := scalar(t, seg.Params, model.CalcCERampingStart); got != "20 eV @ 0.6 1/K0" {
		t.Fatalf("unexpected start %q", got)
	}
	if got := scalar(t, seg.Params, model.CalcCERampingEnd); got != "60 eV @ 1.6 1/K0" {
		t.Fatalf("unexpected end %q", got)
	}

	seg = newSegment(model.NoScanMode, model.Params{
		model.RampingAdvancedActive: model.Scalar("1"),
		model.AdvancedMobilityList:  model.List([]string{"0.6", "1.0"}),
		model.AdvancedEnergyList:    model.List([]string{"20", "40"}),
		model.AdvancedEntryTypeList: model.List([]string{"0", "1"}),
	})
	calc.Derive(context.Background(), seg, nil)
	lines, _ := seg.Params.Get(model.CalcAdvancedCERamp).List()
	if len(lines) != 2 || lines[0] != "base 20.00 eV @ 0.60" || lines[1] != "fixed 40.00 eV @ 1.00" {
		t.Fatalf("unexpected advanced lines %v", lines)
	}
	if got := scalar(t, seg.Params, model.CalcCERampingStart); got != "N/A" {
		t.Fatalf("advanced mode leaves start N/A, got %q", got)
	}

	seg = newSegment(model.NoScanMode, model.Params{
		model.RampingAdvancedActive: model.Scalar("1"),
		model.AdvancedMobilityList:  model.List([]string{"0.6", "1.0"}),
		model.AdvancedEnergyList:    model.List([]string{"20"}),
	})
	calc.Derive(context.Background(), seg, nil)
	lines, _ = seg.Params.Get(model.CalcAdvancedCERamp).List()
	want := "Error parsing advanced values: Mismatch in lengths of advanced ramping lists."
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("expected inline error, got %v", lines)
	}
}

func TestDerive_Stepping(t *testing.T) {
	defs := defMap{model.SteppingTransferTime: {Name: model.SteppingTransferTime, Unit: "µs"}}
	seg := newSegment(model.NoScanMode, model.Params{
		model.SteppingActive:        model.Scalar("1"),
		model.RampingCollisionPair:  model.List([]string{"20", "60"}),
		model.RampingCollisionStep2: model.List([]string{"25", "65"}),
		model.SteppingTransferTime:  model.List([]string{"60", "bad", "70"}),
	})
	New(defs, nil).Derive(context.Background(), seg, nil)

	lines, _ := seg.Params.Get(model.CalcSteppingList).List()
	want := []string{
		"CE (Scan #1): 20.0 - 60.0 eV",
		"CE (Scan #2): 25.0 - 65.0 eV",
		"Transfer Time (Scan #1): 60.0 µs",
		"Transfer Time (Scan #3): 70.0 µs",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}

	seg = newSegment(model.NoScanMode, model.Params{model.SteppingActive: model.Scalar("0")})
	New(defs, nil).Derive(context.Background(), seg, nil)
	if seg.Params.Get(model.CalcSteppingList).Present() {
		t.Fatal("inactive stepping must not produce a list")
	}
}
