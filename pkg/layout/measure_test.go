package layout

import (
	"math"
	"testing"

	"github.com/flowkit/flowkit/pkg/diagram"
)

func TestEstimateSize(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		shape diagram.Shape
		label string
		wantW float64
		wantH float64
	}{
		{
			name:  "rect with label",
			shape: diagram.ShapeRect,
			label: "Fetch data",
			// 10 runes * 13 * 0.6 + 2*16 wide, 13 + 2*10 tall
			wantW: 110,
			wantH: 33,
		},
		{
			name:  "empty label clamps to minimums",
			shape: diagram.ShapeRect,
			label: "",
			wantW: 40,
			wantH: 30,
		},
		{
			name:  "diamond is square",
			shape: diagram.ShapeDiamond,
			label: "Is valid?",
			// max(9*13*0.6 + 32, 13 + 20) + 24 on both axes
			wantW: 126.2,
			wantH: 126.2,
		},
		{
			name:  "stadium caps widen the box",
			shape: diagram.ShapeStadium,
			label: "Start",
			// 5*13*0.6 + 32 + (13 + 20) wide
			wantW: 104,
			wantH: 33,
		},
		{
			name:  "hexagon adds its height to the width",
			shape: diagram.ShapeHexagon,
			label: "Prepare",
			wantW: 7*13*0.6 + 32 + 33,
			wantH: 33,
		},
		{
			name:  "cylinder reserves lid room",
			shape: diagram.ShapeCylinder,
			label: "db",
			wantW: 2*13*0.6 + 32,
			wantH: 33 * 1.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := EstimateSize(tt.shape, tt.label, cfg)
			if math.Abs(w-tt.wantW) > 1e-9 || math.Abs(h-tt.wantH) > 1e-9 {
				t.Errorf("EstimateSize(%s, %q) = (%v, %v), want (%v, %v)",
					tt.shape, tt.label, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEstimateSizeCircleInscribesLabel(t *testing.T) {
	cfg := DefaultConfig()
	w, h := EstimateSize(diagram.ShapeCircle, "OK", cfg)
	if w != h {
		t.Fatalf("circle not square: %v x %v", w, h)
	}
	textW, textH := cfg.textExtents("OK")
	if w < math.Hypot(textW, textH) {
		t.Errorf("diameter %v smaller than label diagonal %v", w, math.Hypot(textW, textH))
	}
}

func TestEstimateSizeNeverDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	shapes := []diagram.Shape{
		diagram.ShapeRect, diagram.ShapeRounded, diagram.ShapeStadium,
		diagram.ShapeDiamond, diagram.ShapeCircle, diagram.ShapeCylinder,
		diagram.ShapeHexagon,
	}
	for _, s := range shapes {
		w, h := EstimateSize(s, "", cfg)
		if w < cfg.Shape.MinWidth || h < cfg.Shape.MinHeight {
			t.Errorf("shape %s below minimums: %v x %v", s, w, h)
		}
	}
}

func TestTextExtentsMultiline(t *testing.T) {
	cfg := DefaultConfig()

	w1, h1 := cfg.textExtents("abc")
	if h1 != cfg.Font.Size {
		t.Errorf("single-line height = %v, want font size %v", h1, cfg.Font.Size)
	}

	w2, h2 := cfg.textExtents("abc\nlonger line")
	if w2 <= w1 {
		t.Errorf("multiline width %v should exceed %v", w2, w1)
	}
	want := cfg.Font.Size + cfg.Font.Size*cfg.Font.LineHeight
	if math.Abs(h2-want) > 1e-9 {
		t.Errorf("two-line height = %v, want %v", h2, want)
	}
}

func TestMeasureNodesFillsEveryNode(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "alpha"})
	g.AddNode(&diagram.Node{ID: "b", Shape: diagram.ShapeDiamond, Label: "beta?"})

	measureNodes(g, DefaultConfig())

	for id, n := range g.Nodes {
		if n.Width <= 0 || n.Height <= 0 {
			t.Errorf("node %s not measured: %v x %v", id, n.Width, n.Height)
		}
	}
}
