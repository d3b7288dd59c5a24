package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"timscompare/internal/engine/model"
	"timscompare/internal/shared/util"
)

const (
	diaHeader      = "#MS Type,Cycle Id,Start IM [1/K0],End IM [1/K0],Start Mass [m/z],End Mass [m/z],CE [eV]"
	diagonalHeader = "type, mobility pos.1 [1/K0], mass pos.1 start [m/z], mass pos.1 end [m/z], mobility pos.2 [1/K0], mass pos.2 start [m/z]"
	polygonHeader  = "Mass [m/z],Mobility [1/K0]"
)

var geometryFamilies = map[int]model.Family{
	model.ScanModePASEF:         model.FamilyPASEF,
	model.ScanModeDiaPASEF:      model.FamilyDiaPASEF,
	model.ScanModeDiagonalPASEF: model.FamilyDiagonal,
}

// Geometry returns the scan-geometry export of seg and a file name suffix.
// ok is false when the segment's workflow has no geometry or it could not
// be derived.
func Geometry(seg *model.Segment) (content, suffix string, ok bool) {
	if family, ok := geometryFamilies[seg.ScanModeID]; ok {
		if o, found := seg.Outcome(family); found && !o.Available() {
			return "", "", false
		}
	}
	switch seg.ScanModeID {
	case model.ScanModeDiaPASEF:
		if len(seg.Windows) == 0 {
			return "", "", false
		}
		return DiaWindows(seg.Windows), "diaParameters.txt", true
	case model.ScanModeDiagonalPASEF:
		if seg.Diagonal == nil {
			return "", "", false
		}
		return DiagonalSlices(seg.Diagonal), "diagonalSlices.txt", true
	case model.ScanModePASEF:
		if len(seg.Polygon) == 0 {
			return "", "", false
		}
		return Polygon(seg.Polygon), "Polygon.txt", true
	}
	return "", "", false
}

// DiaWindows lists the window table ordered by cycle and mobility start.
func DiaWindows(windows []model.IsolationWindow) string {
	sorted := append([]model.IsolationWindow(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CycleID != sorted[j].CycleID {
			return sorted[i].CycleID < sorted[j].CycleID
		}
		return sorted[i].MobilityStart < sorted[j].MobilityStart
	})

	lines := []string{diaHeader}
	for _, w := range sorted {
		switch w.Type {
		case model.DiaTypeMS1:
			lines = append(lines, fmt.Sprintf("MS1,%d,-,-,-,-,-", w.CycleID))
		case model.DiaTypePASEF:
			lines = append(lines, fmt.Sprintf("PASEF,%d,%.4f,%.4f,%.2f,%.2f,-",
				w.CycleID, w.MobilityStart, w.MobilityEnd, w.MzStart, w.MzEnd))
		}
	}
	return strings.Join(lines, "\n")
}

// DiagonalSlices lists the inserted MS scans followed by one line per slice.
func DiagonalSlices(g *model.DiagonalGeometry) string {
	lines := []string{diagonalHeader}
	for i := 0; i < g.MS1Scans; i++ {
		lines = append(lines, "ms,-,-,-,-,-")
	}
	for _, s := range g.Slices {
		lines = append(lines, fmt.Sprintf("diagonal,%.2f,%.2f,%.2f,%.2f,%.2f",
			g.MobilityStart, s.MzStartAtStart, s.MzEndAtStart, g.MobilityEnd, s.MzStartAtEnd))
	}
	return strings.Join(lines, "\n")
}

func Polygon(points []model.PolygonPoint) string {
	lines := []string{polygonHeader}
	for _, p := range points {
		lines = append(lines, fmt.Sprintf("%.4f,%.4f", p.Mass, p.Mobility))
	}
	return strings.Join(lines, "\n")
}

// ExportFileName names the export of segment seg of the method at
// methodPath.
func ExportFileName(methodPath string, seg *model.Segment, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(methodPath), filepath.Ext(methodPath))
	return fmt.Sprintf("%s_Seg%d_%s", base, seg.Index+1, suffix)
}

// WriteExport replaces filePath atomically with content, creating its
// directory when needed.
func WriteExport(filePath, content string) error {
	tmpName := filepath.Join(filepath.Dir(filePath), "."+filepath.Base(filePath)+".tmp")
	if err := util.WriteFileWithDirs(tmpName, []byte(content), 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp export file %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace export file %q: %w", filePath, err)
	}
	return nil
}
