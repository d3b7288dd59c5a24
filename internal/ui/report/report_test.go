package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timscompare/internal/catalog"
	"timscompare/internal/engine/model"
)

func intPtr(i int) *int { return &i }

func testCatalog() *catalog.Catalog {
	return catalog.New([]*model.Definition{
		{Name: model.ScanMode, Label: "Scan Mode", Category: "Mode", ValueMap: map[string]string{"6": "PASEF", "9": "dia-PASEF"}},
		{Name: model.RampTime, Label: "Ramp Time", Category: "TIMS", Unit: "ms", Precision: intPtr(1)},
	}, map[string][]model.Name{"PASEF": {model.ScanMode, model.RampTime}})
}

func testDataset() *model.Dataset {
	pasef := model.Segment{
		Index:      0,
		StartTime:  0,
		EndTime:    5,
		Workflow:   "PASEF",
		ScanModeID: model.ScanModePASEF,
		Params: model.Params{
			model.ScanMode:      model.Scalar("6"),
			model.RampTime:      model.Scalar("100"),
			model.CalcCycleTime: model.Scalar("1.12 s"),
			"Custom_Param":      model.Scalar("a\tb"),
		},
		Polygon: []model.PolygonPoint{{Mass: 100, Mobility: 0.6}, {Mass: 200.5, Mobility: 0.95}},
	}
	dia := model.Segment{
		Index:      1,
		StartTime:  5,
		EndTime:    model.OpenEndTime,
		Workflow:   "dia-PASEF",
		ScanModeID: model.ScanModeDiaPASEF,
		Params: model.Params{
			model.ScanMode:  model.Scalar("9"),
			model.CalcRamps: model.Scalar(model.NotAvailable),
		},
		Outcomes: []model.Outcome{model.Unavailable(model.FamilyDiaPASEF, "no auxiliary store")},
	}
	return &model.Dataset{
		ID:               "load-1",
		Path:             "/data/Sample.m/microtofqimpactemacquisition.method",
		Segments:         []model.Segment{pasef, dia},
		Metadata:         model.Metadata{InstrumentModel: "timsTOF Pro 2", SoftwareVersion: "5.1"},
		AvailableSources: []string{"ESI", "nanoESI"},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TSV": FormatTSV, " json ": FormatJSON, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testDataset(), testCatalog(), Options{Format: FormatText, Segment: -1}))
	out := buf.String()

	assert.Contains(t, out, "timsTOF Pro 2 | version 5.1")
	assert.Contains(t, out, "Ion sources: ESI, nanoESI")
	assert.Contains(t, out, "Segment 1  0.00 min - 5.00 min  PASEF")
	assert.Contains(t, out, "Segment 2  5.00 min - Open End  dia-PASEF")
	assert.Contains(t, out, "100.0 ms")
	assert.Contains(t, out, "Cycle Time")
	assert.Contains(t, out, "dia_pasef unavailable: no auxiliary store")
	assert.Less(t, strings.Index(out, "Ramp Time"), strings.Index(out, "Cycle Time"))
}

func TestRender_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testDataset(), testCatalog(), Options{Format: FormatTSV, Segment: 0}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "Segment\tWorkflow\tCategory\tParameter\tLabel\tValue", lines[0])
	assert.Equal(t, "1\tPASEF\tMode\tMode_ScanMode\tScan Mode\tPASEF", lines[1])
	assert.Equal(t, "1\tPASEF\tTIMS\tIMS_imeX_RampTime\tRamp Time\t100.0 ms", lines[2])
	assert.Equal(t, "1\tPASEF\tCalculated\tcalc_cycle_time\tCycle Time\t1.12 s", lines[3])
	assert.Equal(t, "1\tPASEF\tOther\tCustom_Param\tCustom_Param\ta b", lines[4])
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testDataset(), nil, Options{Format: FormatJSON, Segment: 1}))

	var decoded struct {
		ID       string `json:"id"`
		Segments []struct {
			Workflow string            `json:"workflow"`
			Params   map[string]string `json:"params"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "load-1", decoded.ID)
	require.Len(t, decoded.Segments, 1)
	assert.Equal(t, "dia-PASEF", decoded.Segments[0].Workflow)
	assert.Equal(t, model.NotAvailable, decoded.Segments[0].Params[string(model.CalcRamps)])
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, nil, nil, Options{}))
	assert.Error(t, Render(&buf, testDataset(), nil, Options{Segment: 5}))
	assert.Error(t, Render(&buf, testDataset(), nil, Options{Format: "xml", Segment: -1}))
}

func TestDiaWindows(t *testing.T) {
	out := DiaWindows([]model.IsolationWindow{
		{Type: model.DiaTypePASEF, CycleID: 1, MobilityStart: 1.0, MobilityEnd: 1.3, MzStart: 600, MzEnd: 625},
		{Type: model.DiaTypeMS1, CycleID: 0},
		{Type: model.DiaTypePASEF, CycleID: 1, MobilityStart: 0.85, MobilityEnd: 1.0, MzStart: 400, MzEnd: 425},
	})
	assert.Equal(t, strings.Join([]string{
		diaHeader,
		"MS1,0,-,-,-,-,-",
		"PASEF,1,0.8500,1.0000,400.00,425.00,-",
		"PASEF,1,1.0000,1.3000,600.00,625.00,-",
	}, "\n"), out)
}

func TestDiagonalSlices(t *testing.T) {
	out := DiagonalSlices(&model.DiagonalGeometry{
		MobilityStart: 0.7,
		MobilityEnd:   1.3,
		MS1Scans:      1,
		Slices: []model.DiagonalSlice{
			{MzStartAtStart: 200, MzEndAtStart: 225, MzStartAtEnd: 800, MzEndAtEnd: 825},
		},
	})
	assert.Equal(t, diagonalHeader+"\nms,-,-,-,-,-\ndiagonal,0.70,200.00,225.00,1.30,800.00", out)
}

func TestGeometryAndExport(t *testing.T) {
	ds := testDataset()

	content, suffix, ok := Geometry(&ds.Segments[0])
	require.True(t, ok)
	assert.Equal(t, "Polygon.txt", suffix)
	assert.Equal(t, polygonHeader+"\n100.0000,0.6000\n200.5000,0.9500", content)

	_, _, ok = Geometry(&ds.Segments[1])
	assert.False(t, ok, "dia segment without windows has nothing to export")

	name := ExportFileName(ds.Path, &ds.Segments[0], suffix)
	assert.Equal(t, "microtofqimpactemacquisition_Seg1_Polygon.txt", name)

	target := filepath.Join(t.TempDir(), "exports", name)
	require.NoError(t, WriteExport(target, content))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	require.NoError(t, WriteExport(target, "replaced"))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
}

func TestRender_TextListsItems(t *testing.T) {
	ds := testDataset()
	ds.Segments[0].Params.Set(model.CalcSteppingList, model.List([]string{"20 eV / 0.60", "35 eV / 1.10"}))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ds, testCatalog(), Options{Format: FormatText, Segment: 0}))
	out := buf.String()

	assert.Contains(t, out, "List (2 items)")
	first := strings.Index(out, "20 eV / 0.60")
	second := strings.Index(out, "35 eV / 1.10")
	require.Positive(t, first)
	assert.Greater(t, second, first)
}

func TestGeometry_SkipsUnavailableFamily(t *testing.T) {
	seg := testDataset().Segments[0]
	seg.Outcomes = []model.Outcome{model.Unavailable(model.FamilyPASEF, "polygon parameters missing")}

	_, _, ok := Geometry(&seg)
	assert.False(t, ok)

	seg.Outcomes = []model.Outcome{model.Applied(model.FamilyPASEF)}
	_, suffix, ok := Geometry(&seg)
	assert.True(t, ok)
	assert.Equal(t, "Polygon.txt", suffix)
}
