package rank

import (
	"strings"
	"testing"

	"github.com/flowkit/flowkit/pkg/diagram"
)

func TestBuildDOTBasics(t *testing.T) {
	p := Problem{
		Nodes: []NodeSpec{
			{ID: "a", Width: 144, Height: 72},
			{ID: "b", Width: 72, Height: 36},
		},
		Edges: []EdgeSpec{
			{From: "a", To: "b", Weight: 2},
		},
		Direction: diagram.LeftRight,
		Spacing:   Spacing{NodeSep: 36, RankSep: 72, Margin: 18},
	}

	dot := BuildDOT(p)

	for _, want := range []string{
		"rankdir=LR",
		"nodesep=0.5000",
		"ranksep=1.0000",
		`"a" [width=2.0000, height=1.0000];`,
		`"b" [width=1.0000, height=0.5000];`,
		`"a" -> "b" [weight=2];`,
		"fixedsize=true",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "subgraph") {
		t.Error("unexpected cluster in flat problem")
	}
}

func TestBuildDOTRankdir(t *testing.T) {
	tests := []struct {
		dir  diagram.Direction
		want string
	}{
		{diagram.TopDown, "rankdir=TB"},
		{diagram.BottomUp, "rankdir=BT"},
		{diagram.LeftRight, "rankdir=LR"},
		{diagram.RightLeft, "rankdir=RL"},
	}
	for _, tt := range tests {
		dot := BuildDOT(Problem{Direction: tt.dir})
		if !strings.Contains(dot, tt.want) {
			t.Errorf("direction %s: missing %q", tt.dir, tt.want)
		}
	}
}

func TestBuildDOTNestedClusters(t *testing.T) {
	p := Problem{
		Nodes: []NodeSpec{
			{ID: "x", Width: 72, Height: 72},
			{ID: "y", Width: 72, Height: 72},
		},
		Compounds: []string{"outer", "inner"},
		Parent: map[string]string{
			"inner": "outer",
			"x":     "inner",
			"y":     "",
		},
		Direction: diagram.TopDown,
	}

	dot := BuildDOT(p)

	outerAt := strings.Index(dot, `subgraph "cluster_outer"`)
	innerAt := strings.Index(dot, `subgraph "cluster_inner"`)
	xAt := strings.Index(dot, `"x" [`)
	if outerAt < 0 || innerAt < 0 {
		t.Fatalf("clusters missing:\n%s", dot)
	}
	if !(outerAt < innerAt && innerAt < xAt) {
		t.Errorf("cluster nesting order wrong: outer=%d inner=%d x=%d", outerAt, innerAt, xAt)
	}
	// y is top-level and must appear before any cluster opens.
	if yAt := strings.Index(dot, `"y" [`); yAt > outerAt {
		t.Errorf("top-level node emitted inside a cluster")
	}
}

func TestBuildDOTClampsDegenerateSizes(t *testing.T) {
	dot := BuildDOT(Problem{Nodes: []NodeSpec{{ID: "ph", Width: 0, Height: 0}}})
	if strings.Contains(dot, "width=0.0000") {
		t.Errorf("zero width not clamped:\n%s", dot)
	}
}

func TestBuildDOTQuotesIdentifiers(t *testing.T) {
	dot := BuildDOT(Problem{
		Nodes: []NodeSpec{{ID: `odd "id"`, Width: 72, Height: 72}},
	})
	if !strings.Contains(dot, `"odd \"id\""`) {
		t.Errorf("identifier not quoted:\n%s", dot)
	}
}
