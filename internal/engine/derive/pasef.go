package derive

import (
	"context"
	"fmt"
	"strconv"

	"timscompare/internal/engine/model"
)

func (c *Calculator) pasef(seg *model.Segment) model.Outcome {
	p := seg.Params
	outcome := model.Applied(model.FamilyPASEF)

	mass, mobility := p.Get(model.PolygonMass), p.Get(model.PolygonMobility)
	switch {
	case mass.IsAbsent() || mobility.IsAbsent():
		outcome = model.Unavailable(model.FamilyPASEF, "polygon parameters missing")
	default:
		points, err := polygon(items(mass), items(mobility))
		if err != nil {
			outcome = model.Unavailable(model.FamilyPASEF, err.Error())
		} else {
			seg.Polygon = points
		}
	}

	numRamps, err := integer(p, model.PasefNumRamps)
	if err != nil {
		p.SetScalar(model.CalcCycleTime, model.NotAvailable)
		return outcome
	}
	p.SetScalar(model.CalcCycleTime, cycleTime(p, numRamps+1))
	return outcome
}

// polygon pairs the mass and mobility arrays in input order. The shorter
// array bounds the number of points.
func polygon(massRaw, mobilityRaw []string) ([]model.PolygonPoint, error) {
	mass, err := floats(massRaw)
	if err != nil {
		return nil, fmt.Errorf("polygon mass: %w", err)
	}
	mobility, err := floats(mobilityRaw)
	if err != nil {
		return nil, fmt.Errorf("polygon mobility: %w", err)
	}
	if len(mass) == 0 || len(mobility) == 0 {
		return nil, fmt.Errorf("empty polygon")
	}
	n := min(len(mass), len(mobility))
	points := make([]model.PolygonPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, model.PolygonPoint{Mass: mass[i], Mobility: mobility[i]})
	}
	return points, nil
}

var diaFields = []model.Name{
	model.CalcMS1Scans,
	model.CalcRamps,
	model.CalcSteps,
	model.CalcMzWidth,
	model.CalcScanAreaMz,
	model.CalcScanAreaIm,
	model.CalcCycleTime,
}

func setNA(p model.Params, names ...model.Name) {
	for _, n := range names {
		p.SetScalar(n, model.NotAvailable)
	}
}

func (c *Calculator) diaPASEF(ctx context.Context, seg *model.Segment, aux AuxSource) model.Outcome {
	p := seg.Params
	if aux == nil {
		setNA(p, diaFields...)
		return model.Unavailable(model.FamilyDiaPASEF, "no auxiliary store")
	}
	rows, err := aux.DiaWindows(ctx)
	if err != nil {
		setNA(p, diaFields...)
		return model.Unavailable(model.FamilyDiaPASEF, err.Error())
	}
	if len(rows) == 0 {
		setNA(p, diaFields...)
		return model.Unavailable(model.FamilyDiaPASEF, "empty window table")
	}

	var (
		ms1   int
		pasef []model.DiaWindow
	)
	for _, r := range rows {
		switch r.Type {
		case model.DiaTypeMS1:
			ms1++
		case model.DiaTypePASEF:
			pasef = append(pasef, r)
		}
	}
	p.SetScalar(model.CalcMS1Scans, strconv.Itoa(ms1))

	outcome := model.Applied(model.FamilyDiaPASEF)
	if len(pasef) == 0 {
		setNA(p, diaFields[1:]...)
		outcome = model.Unavailable(model.FamilyDiaPASEF, "no PASEF windows")
	} else {
		summarizeDia(p, pasef, ms1)
	}
	seg.Windows = plotWindows(p, rows)
	return outcome
}

func summarizeDia(p model.Params, pasef []model.DiaWindow, ms1 int) {
	var (
		numRamps   int
		perCycle   = make(map[int]int)
		widths     = make(map[float64]bool)
		minMz      = pasef[0]
		maxMz      = pasef[0]
		minIm      = pasef[0].OneOverK0Start
		maxIm      = pasef[0].OneOverK0End
		modalSteps int
	)
	for _, r := range pasef {
		numRamps = max(numRamps, r.CycleID)
		perCycle[r.CycleID]++
		modalSteps = max(modalSteps, perCycle[r.CycleID])
		widths[r.IsolationWidth] = true
		if r.IsolationMz < minMz.IsolationMz {
			minMz = r
		}
		if r.IsolationMz > maxMz.IsolationMz {
			maxMz = r
		}
		minIm = min(minIm, r.OneOverK0Start)
		maxIm = max(maxIm, r.OneOverK0End)
	}

	p.SetScalar(model.CalcRamps, strconv.Itoa(numRamps))
	p.SetScalar(model.CalcSteps, strconv.Itoa(modalSteps))
	if len(widths) == 1 {
		p.SetScalar(model.CalcMzWidth, fmt.Sprintf("static (%.1f)", pasef[0].IsolationWidth))
	} else {
		p.SetScalar(model.CalcMzWidth, model.Variable)
	}
	p.SetScalar(model.CalcScanAreaMz, fmt.Sprintf("%.2f m/z - %.2f m/z",
		minMz.IsolationMz-minMz.IsolationWidth/2,
		maxMz.IsolationMz+maxMz.IsolationWidth/2))
	p.SetScalar(model.CalcScanAreaIm, fmt.Sprintf("%.4f - %.4f", minIm, maxIm))
	p.SetScalar(model.CalcCycleTime, cycleTime(p, numRamps+ms1))
}

// plotWindows prepares every table row for plotting. Mobility edges equal to
// the extremes of the PASEF windows are snapped to the configured ramp when both ramp
// limits are numeric.
func plotWindows(p model.Params, rows []model.DiaWindow) []model.IsolationWindow {
	rampStart, okStart := requiredNumber(p, model.RampStart)
	rampEnd, okEnd := requiredNumber(p, model.RampEnd)
	snap := okStart && okEnd

	// Extremes come from the PASEF rows; MS1 rows carry no mobility window.
	edges := rows
	var pasef []model.DiaWindow
	for _, r := range rows {
		if r.Type == model.DiaTypePASEF {
			pasef = append(pasef, r)
		}
	}
	if len(pasef) > 0 {
		edges = pasef
	}
	minStart, maxEnd := edges[0].OneOverK0Start, edges[0].OneOverK0End
	for _, r := range edges {
		minStart = min(minStart, r.OneOverK0Start)
		maxEnd = max(maxEnd, r.OneOverK0End)
	}

	out := make([]model.IsolationWindow, 0, len(rows))
	for _, r := range rows {
		w := model.IsolationWindow{
			ID:             r.ID,
			Type:           r.Type,
			CycleID:        r.CycleID,
			MzStart:        r.IsolationMz - r.IsolationWidth/2,
			MzEnd:          r.IsolationMz + r.IsolationWidth/2,
			MobilityStart:  r.OneOverK0Start,
			MobilityEnd:    r.OneOverK0End,
			IsolationMz:    r.IsolationMz,
			IsolationWidth: r.IsolationWidth,
		}
		if snap && (r.Type == model.DiaTypePASEF || len(pasef) == 0) {
			if r.OneOverK0Start == minStart {
				w.MobilityStart = rampStart
			}
			if r.OneOverK0End == maxEnd {
				w.MobilityEnd = rampEnd
			}
		}
		out = append(out, w)
	}
	return out
}

var diagonalFields = []model.Name{
	model.CalcMS1Scans,
	model.CalcRamps,
	model.CalcMzWidth,
	model.CalcScanAreaIm,
	model.CalcScanAreaMz,
	model.CalcCycleTime,
}

func (c *Calculator) diagonalPASEF(ctx context.Context, seg *model.Segment, aux AuxSource) model.Outcome {
	p := seg.Params
	if aux == nil {
		setNA(p, diagonalFields...)
		return model.Unavailable(model.FamilyDiagonal, "no auxiliary store")
	}
	tpl, err := aux.DiagonalTemplate(ctx)
	if err != nil {
		setNA(p, diagonalFields...)
		return model.Unavailable(model.FamilyDiagonal, err.Error())
	}

	ms1, slices := tpl.InsertMSScans, tpl.NumberOfSlices
	p.SetScalar(model.CalcMS1Scans, strconv.Itoa(ms1))
	p.SetScalar(model.CalcRamps, strconv.Itoa(slices))
	if tpl.IsolationMz != nil {
		p.SetScalar(model.CalcMzWidth, fmt.Sprintf("%.1f", *tpl.IsolationMz))
	} else {
		p.SetScalar(model.CalcMzWidth, model.NotAvailable)
	}
	p.SetScalar(model.CalcCycleTime, cycleTime(p, ms1+slices))

	imStart, okStart := requiredNumber(p, model.RampStart)
	imEnd, okEnd := requiredNumber(p, model.RampEnd)
	if !okStart || !okEnd {
		setNA(p, model.CalcScanAreaIm, model.CalcScanAreaMz)
		return model.Unavailable(model.FamilyDiagonal, "mobility ramp not configured")
	}
	p.SetScalar(model.CalcScanAreaIm, fmt.Sprintf("%.2f - %.2f", imStart, imEnd))
	p.SetScalar(model.CalcImStart, strconv.FormatFloat(imStart, 'f', -1, 64))
	p.SetScalar(model.CalcImEnd, strconv.FormatFloat(imEnd, 'f', -1, 64))

	geom, err := diagonalGeometry(tpl, imStart, imEnd)
	if err != nil {
		p.SetScalar(model.CalcScanAreaMz, model.NotAvailable)
		return model.Unavailable(model.FamilyDiagonal, err.Error())
	}
	p.SetScalar(model.CalcScanAreaMz, fmt.Sprintf("%.2f m/z - %.2f m/z", geom.ScanAreaMzStart, geom.ScanAreaMzEnd))
	seg.Diagonal = geom
	return model.Applied(model.FamilyDiagonal)
}

// diagonalGeometry inverts the mobility = slope*mz + origin mapping at both
// mobility extremes and lays the slices out across the pattern width.
func diagonalGeometry(tpl model.DiagonalTemplate, imStart, imEnd float64) (*model.DiagonalGeometry, error) {
	if tpl.Slope == nil || tpl.Origin == nil || tpl.WidthMz == nil || tpl.IsolationMz == nil {
		return nil, fmt.Errorf("missing slope, origin, width_mz or isolation_mz")
	}
	slope, origin, width, iso := *tpl.Slope, *tpl.Origin, *tpl.WidthMz, *tpl.IsolationMz
	if slope == 0 {
		return nil, fmt.Errorf("slope is zero")
	}

	n := tpl.NumberOfSlices
	g := &model.DiagonalGeometry{
		MobilityStart:  imStart,
		MobilityEnd:    imEnd,
		CenterStart:    (imStart - origin) / slope,
		CenterEnd:      (imEnd - origin) / slope,
		PatternWidth:   width,
		IsolationMz:    iso,
		NumberOfSlices: n,
		MS1Scans:       tpl.InsertMSScans,
	}
	if n > 0 {
		g.SliceStep = width / float64(n)
	}
	patternStart := g.CenterStart - width/2
	patternEnd := g.CenterEnd - width/2
	g.ScanAreaMzStart = patternStart
	g.ScanAreaMzEnd = patternEnd + float64(n-1)*g.SliceStep + iso

	for i := 0; i < n; i++ {
		atStart := patternStart + float64(i)*g.SliceStep
		atEnd := patternEnd + float64(i)*g.SliceStep
		g.Slices = append(g.Slices, model.DiagonalSlice{
			MzStartAtStart: atStart,
			MzEndAtStart:   atStart + iso,
			MzStartAtEnd:   atEnd,
			MzEndAtEnd:     atEnd + iso,
		})
	}
	return g, nil
}
