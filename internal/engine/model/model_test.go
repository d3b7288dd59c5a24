package model

import (
	"encoding/json"
	"testing"
)

func TestValue_Kinds(t *testing.T) {
	if !Absent.IsAbsent() || Absent.Present() {
		t.Fatal("zero value must be absent")
	}
	s := Scalar("")
	if !s.IsScalar() || !s.Present() {
		t.Fatal("empty scalar is still present")
	}
	items := []string{"a", "b"}
	l := List(items)
	items[0] = "mutated"
	if got, _ := l.At(0); got != "a" {
		t.Fatalf("List must copy its input, got %q", got)
	}
	if l.Len() != 2 || s.Len() != 1 || Absent.Len() != 0 {
		t.Fatal("unexpected lengths")
	}
	if _, ok := l.At(5); ok {
		t.Fatal("expected out of range At to fail")
	}
	if !l.Equal(List([]string{"a", "b"})) || l.Equal(Scalar("a")) {
		t.Fatal("unexpected equality result")
	}
}

func TestValue_JSON(t *testing.T) {
	in := Params{"A": Scalar("1"), "B": List([]string{"x", "y"})}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Params
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Get("A").Equal(in.Get("A")) || !out.Get("B").Equal(in.Get("B")) {
		t.Fatalf("unexpected decoded params %v", out)
	}
}

func TestParams_SetAbsentDeletes(t *testing.T) {
	p := Params{"A": Scalar("1")}
	p.Set("A", Absent)
	if _, ok := p["A"]; ok {
		t.Fatal("setting absent must delete the key")
	}

	base := Params{"A": Scalar("1"), "B": Scalar("2")}
	clone := base.Clone()
	clone.Merge(Params{"B": Scalar("3"), "C": Scalar("4")})
	if s, _ := base.ScalarOf("B"); s != "2" {
		t.Fatal("merge into a clone must not touch the original")
	}
	if names := clone.Names(); len(names) != 3 || names[0] != "A" || names[2] != "C" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestDataset_ValueAndActive(t *testing.T) {
	ds := &Dataset{
		Segments: []Segment{
			{Params: Params{"A": Scalar("first")}},
			{Params: Params{"A": Scalar("second")}},
		},
		Active: 1,
	}
	if v, ok := ds.Value("A", -1); !ok || v.String() != "second" {
		t.Fatalf("expected active segment value, got %v", v)
	}
	if v, ok := ds.Value("A", 0); !ok || v.String() != "first" {
		t.Fatalf("expected first segment value, got %v", v)
	}
	if _, ok := ds.Value("A", 9); ok {
		t.Fatal("expected missing segment to report absent")
	}
	if _, ok := ds.Value("B", 0); ok {
		t.Fatal("expected missing parameter to report absent")
	}

	if !ds.AddRequested("X", "Y", "X") || len(ds.Requested) != 2 {
		t.Fatalf("unexpected requested set %v", ds.Requested)
	}
	if ds.AddRequested("Y") {
		t.Fatal("re-adding a requested name must not grow the set")
	}
}

func TestDefinition_Helpers(t *testing.T) {
	d := &Definition{Name: "Mode_IonPolarity", ValueMap: map[string]string{"0": "Positive"}}
	if label, ok := d.Decode("0"); !ok || label != "Positive" {
		t.Fatalf("unexpected decode %q", label)
	}
	if d.EffectiveLocation() != LocationMethod {
		t.Fatal("location defaults to method")
	}
	d.Location = "Instrument"
	if d.EffectiveLocation() != LocationInstrument {
		t.Fatal("location match is case-insensitive")
	}
	if !IsCalculated(CalcCycleTime) || IsCalculated(RampTime) {
		t.Fatal("unexpected calculated classification")
	}
}
