package rank

import (
	"math"
	"testing"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/geo"
)

// engineOutput is a trimmed dot -Tjson answer for a two-node chain inside
// one cluster: drawing 200x300 points, bottom-left origin.
const engineOutput = `{
  "bb": "0,0,200,300",
  "objects": [
    {"_gvid": 0, "name": "cluster_grp", "bb": "20,20,180,280"},
    {"_gvid": 1, "name": "a", "pos": "100,250"},
    {"_gvid": 2, "name": "b", "pos": "100,60"}
  ],
  "edges": [
    {"tail": 1, "head": 2, "pos": "e,100,80 100,230 100,180 100,130"}
  ]
}`

func chainProblem() Problem {
	return Problem{
		Nodes: []NodeSpec{
			{ID: "a", Width: 80, Height: 40},
			{ID: "b", Width: 80, Height: 40},
		},
		Edges:     []EdgeSpec{{From: "a", To: "b", Weight: 1}},
		Compounds: []string{"grp"},
		Parent:    map[string]string{"a": "grp", "b": "grp"},
		Direction: diagram.TopDown,
	}
}

func TestParseJSONFlipsY(t *testing.T) {
	res, err := parseJSON([]byte(engineOutput), chainProblem())
	if err != nil {
		t.Fatalf("parseJSON: %v", err)
	}

	if res.Width != 200 || res.Height != 300 {
		t.Errorf("extent = %v x %v, want 200 x 300", res.Width, res.Height)
	}
	if got := res.Centers["a"]; got != (geo.Point{X: 100, Y: 50}) {
		t.Errorf("a center = %v, want (100, 50)", got)
	}
	if got := res.Centers["b"]; got != (geo.Point{X: 100, Y: 240}) {
		t.Errorf("b center = %v, want (100, 240)", got)
	}

	box, ok := res.CompoundBoxes["grp"]
	if !ok {
		t.Fatal("cluster box missing")
	}
	want := geo.Rect{X: 20, Y: 20, Width: 160, Height: 260}
	if box != want {
		t.Errorf("cluster box = %v, want %v", box, want)
	}
}

func TestParseJSONEdgePoints(t *testing.T) {
	res, err := parseJSON([]byte(engineOutput), chainProblem())
	if err != nil {
		t.Fatalf("parseJSON: %v", err)
	}

	pts := res.EdgePoints[0]
	if len(pts) != 4 {
		t.Fatalf("got %d edge points: %v", len(pts), pts)
	}
	// Control points in travel order, endpoint term folded in last, Y flipped.
	if pts[0] != (geo.Point{X: 100, Y: 70}) {
		t.Errorf("first point = %v, want (100, 70)", pts[0])
	}
	if pts[3] != (geo.Point{X: 100, Y: 220}) {
		t.Errorf("endpoint term = %v, want (100, 220)", pts[3])
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Y <= pts[i-1].Y {
			t.Errorf("points not in travel order: %v", pts)
		}
	}
}

func TestParseJSONMismatchedEdgeSkipped(t *testing.T) {
	// The engine reports an edge between the wrong endpoints; the adapter
	// must not pair it with the submitted edge.
	out := `{
	  "bb": "0,0,100,100",
	  "objects": [
	    {"_gvid": 0, "name": "a", "pos": "50,80"},
	    {"_gvid": 1, "name": "b", "pos": "50,20"}
	  ],
	  "edges": [
	    {"tail": 1, "head": 0, "pos": "50,30 50,70"}
	  ]
	}`
	p := Problem{
		Nodes: []NodeSpec{{ID: "a"}, {ID: "b"}},
		Edges: []EdgeSpec{{From: "a", To: "b"}},
	}
	res, err := parseJSON([]byte(out), p)
	if err != nil {
		t.Fatalf("parseJSON: %v", err)
	}
	if res.EdgePoints[0] != nil {
		t.Errorf("mismatched edge got points: %v", res.EdgePoints[0])
	}
}

func TestParseJSONMalformed(t *testing.T) {
	if _, err := parseJSON([]byte("not json"), Problem{}); errors.GetCode(err) != errors.ErrCodeRankingFailed {
		t.Errorf("code = %v, want RANKING_FAILED", errors.GetCode(err))
	}
	if _, err := parseJSON([]byte(`{"bb": "garbage"}`), Problem{}); errors.GetCode(err) != errors.ErrCodeRankingFailed {
		t.Errorf("bad bb code = %v, want RANKING_FAILED", errors.GetCode(err))
	}
}

func TestParseSpline(t *testing.T) {
	pts := parseSpline("s,10,90 e,10,10 10,80 10,50 10,20", 100)
	if len(pts) != 5 {
		t.Fatalf("got %d points: %v", len(pts), pts)
	}
	if pts[0] != (geo.Point{X: 10, Y: 10}) {
		t.Errorf("start term = %v, want (10, 10)", pts[0])
	}
	if pts[4] != (geo.Point{X: 10, Y: 90}) {
		t.Errorf("end term = %v, want (10, 90)", pts[4])
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("12.5,40")
	if err != nil || p != (geo.Point{X: 12.5, Y: 40}) {
		t.Errorf("parsePoint = %v, %v", p, err)
	}
	if _, err := parsePoint("12.5"); err == nil {
		t.Error("malformed point accepted")
	}
}

func TestInches(t *testing.T) {
	if got := inches(72); got != "1.0000" {
		t.Errorf("inches(72) = %q", got)
	}
	if got := inches(36); got != "0.5000" {
		t.Errorf("inches(36) = %q", got)
	}
	if v := 144.0; math.Abs(v/pointsPerInch-2) > 1e-9 {
		t.Errorf("points per inch constant off")
	}
}
