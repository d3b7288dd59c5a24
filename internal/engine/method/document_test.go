package method

import (
	"testing"
	"time"

	domainerrors "timscompare/internal/core/errors"
)

const segmentedDoc = `<?xml version="1.0" encoding="ISO-8859-1"?>
<root instrument="timsTOF Pro" version="5.1.8" lastmodified="2024-03-01T10:00:00Z">
  <method>
    <p permname="Mode_ScanMode" value="6"/>
    <qtofimpactemacq>
      <timetable>
        <segment endtime="10.5">
          <p permname="IMS_imeX_RampTime" value="100"/>
        </segment>
        <segment endtime="abc"/>
        <segment/>
      </timetable>
    </qtofimpactemacq>
    <dependent polarity="Positive" source="ESI"><p permname="X" value="1"/></dependent>
    <dependent source="nanoESI"><p permname="X" value="2"/></dependent>
  </method>
  <instrument>
    <p permname="Collision_QuenchTime_Set" value="1.5"/>
  </instrument>
</root>`

func TestParse_SegmentsAndScopes(t *testing.T) {
	doc, err := Parse([]byte(segmentedDoc), "method.xml", Options{Encoding: "iso-8859-1"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(doc.Segments))
	}
	if doc.Segments[0].EndTime != 10.5 {
		t.Fatalf("expected first end time 10.5, got %v", doc.Segments[0].EndTime)
	}
	if doc.Segments[1].EndTime != OpenEndTime || doc.Segments[2].EndTime != OpenEndTime {
		t.Fatal("expected unparseable and missing end times to be open")
	}
	if doc.Instrument == nil || !doc.Instrument.Has("Collision_QuenchTime_Set") {
		t.Fatal("expected instrument scope with quench time")
	}
	if !doc.Method.Has("IMS_imeX_RampTime") {
		t.Fatal("expected method scope to index nested segment parameters")
	}
	if doc.Segments[1].Scope.Has("IMS_imeX_RampTime") {
		t.Fatal("second segment must not see the first segment's parameters")
	}
	if got := len(doc.Method.Conditionals()); got != 2 {
		t.Fatalf("expected 2 conditional scopes, got %d", got)
	}
	if got := doc.Sources(); len(got) != 2 || got[0] != "ESI" || got[1] != "nanoESI" {
		t.Fatalf("unexpected sources %v", got)
	}
}

func TestParse_Metadata(t *testing.T) {
	doc, err := Parse([]byte(segmentedDoc), "method.xml", Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Metadata.InstrumentModel != "timsTOF Pro" {
		t.Fatalf("unexpected model %q", doc.Metadata.InstrumentModel)
	}
	if doc.Metadata.SoftwareVersion != "5.1.8" {
		t.Fatalf("unexpected version %q", doc.Metadata.SoftwareVersion)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !doc.Metadata.LastModified.Equal(want) {
		t.Fatalf("unexpected last modified %v", doc.Metadata.LastModified)
	}

	mod := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	doc, err = Parse([]byte(`<root><method/></root>`), "m", Options{ModTime: mod})
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Metadata.LastModified.Equal(mod) {
		t.Fatalf("expected file mod time fallback, got %v", doc.Metadata.LastModified)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(`<root><method>`), "bad.method", Options{}); !domainerrors.IsCode(err, domainerrors.CodeParsing) {
		t.Fatalf("expected parsing error for malformed xml, got %v", err)
	}
	if _, err := Parse([]byte(`<root><instrument/></root>`), "nomethod.method", Options{}); !domainerrors.IsCode(err, domainerrors.CodeParsing) {
		t.Fatalf("expected parsing error for missing method, got %v", err)
	}
}

func TestScopeForSegment_Implicit(t *testing.T) {
	doc, err := Parse([]byte(`<root><method><p permname="A" value="1"/></method></root>`), "m", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ScopeForSegment(0) != doc.Method {
		t.Fatal("expected implicit segment to use the method scope")
	}
	if doc.ScopeForSegment(1) != nil {
		t.Fatal("expected no scope beyond the implicit segment")
	}
	if !doc.HasParameter("A") || doc.HasParameter("B") {
		t.Fatal("unexpected HasParameter result")
	}
}

func TestScope_FirstOccurrenceWins(t *testing.T) {
	doc, err := Parse([]byte(`<root><method><a><p permname="A" value="first"/></a><p permname="A" value="second"/></method></root>`), "m", Options{})
	if err != nil {
		t.Fatal(err)
	}
	el := doc.Method.Lookup("A")
	if el == nil || el.AttrOr("value", "") != "first" {
		t.Fatalf("expected document-order first match, got %+v", el)
	}
}
