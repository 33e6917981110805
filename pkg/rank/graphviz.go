package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/geo"
)

// pointsPerInch converts between DOT node sizes (inches) and canvas units
// (points). Graphviz positions are emitted in points, so canvas units map
// 1:1 onto output coordinates.
const pointsPerInch = 72.0

// formatJSON is the Graphviz renderer that emits the annotated graph as
// JSON: node positions, edge splines, and cluster bounding boxes.
const formatJSON = graphviz.Format("json")

// clusterPrefix marks a subgraph as a cluster for the dot engine.
const clusterPrefix = "cluster_"

// GraphvizRanker runs the dot layout engine via goccy/go-graphviz.
// The zero value is ready to use; it holds no state between calls.
type GraphvizRanker struct{}

// NewGraphvizRanker returns a Ranker backed by Graphviz dot.
func NewGraphvizRanker() *GraphvizRanker {
	return &GraphvizRanker{}
}

// Rank builds a DOT problem, runs dot, and parses the JSON output back into
// canvas coordinates. Any engine failure is returned under RANKING_FAILED
// with the engine's message preserved.
func (r *GraphvizRanker) Rank(ctx context.Context, p Problem) (Result, error) {
	dot := BuildDOT(p)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRankingFailed, err, "init ranking engine")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRankingFailed, err, "parse ranking problem")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatJSON, &buf); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRankingFailed, err, "rank graph")
	}

	return parseJSON(buf.Bytes(), p)
}

// =============================================================================
// DOT Generation
// =============================================================================

// BuildDOT serializes a ranking problem to DOT. Compounds become clusters,
// nested according to the parent relation; leaf nodes carry fixed sizes in
// inches. Exported for the debug `flowkit dot` command.
func BuildDOT(p Problem) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flowkit {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(p.Direction))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(p.Spacing.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(p.Spacing.RankSep))
	fmt.Fprintf(&buf, "  margin=%s;\n", inches(p.Spacing.Margin))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	// Group leaves and compounds under their parents so clusters nest.
	children := make(map[string][]string)
	for _, n := range p.Nodes {
		parent := p.Parent[n.ID]
		children[parent] = append(children[parent], n.ID)
	}
	childCompounds := make(map[string][]string)
	for _, c := range p.Compounds {
		parent := p.Parent[c]
		childCompounds[parent] = append(childCompounds[parent], c)
	}

	sizes := make(map[string]NodeSpec, len(p.Nodes))
	for _, n := range p.Nodes {
		sizes[n.ID] = n
	}

	var writeScope func(indent, owner string)
	writeScope = func(indent, owner string) {
		for _, id := range children[owner] {
			n := sizes[id]
			// fixedsize=true rejects zero extents; degenerate placeholders
			// get a one-point box instead.
			fmt.Fprintf(&buf, "%s%q [width=%s, height=%s];\n",
				indent, id, inches(math.Max(n.Width, 1)), inches(math.Max(n.Height, 1)))
		}
		for _, c := range childCompounds[owner] {
			fmt.Fprintf(&buf, "%ssubgraph %q {\n", indent, clusterPrefix+c)
			fmt.Fprintf(&buf, "%s  label=\"\";\n", indent)
			fmt.Fprintf(&buf, "%s  margin=%.0f;\n", indent, p.Spacing.Margin)
			writeScope(indent+"  ", c)
			fmt.Fprintf(&buf, "%s}\n", indent)
		}
	}
	writeScope("  ", "")

	buf.WriteString("\n")
	for _, e := range p.Edges {
		if e.Weight > 1 {
			fmt.Fprintf(&buf, "  %q -> %q [weight=%d];\n", e.From, e.To, e.Weight)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func rankdir(d diagram.Direction) string {
	switch d {
	case diagram.BottomUp:
		return "BT"
	case diagram.LeftRight:
		return "LR"
	case diagram.RightLeft:
		return "RL"
	default:
		return "TB"
	}
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

// =============================================================================
// JSON Output Parsing
// =============================================================================

// gvGraph mirrors the parts of Graphviz's -Tjson output the adapter needs.
// All geometric attributes are strings in that format.
type gvGraph struct {
	BB      string     `json:"bb"`
	Objects []gvObject `json:"objects"`
	Edges   []gvEdge   `json:"edges"`
}

type gvObject struct {
	GvID int    `json:"_gvid"`
	Name string `json:"name"`
	Pos  string `json:"pos"`
	BB   string `json:"bb"` // clusters only
}

type gvEdge struct {
	Tail int    `json:"tail"`
	Head int    `json:"head"`
	Pos  string `json:"pos"`
}

// parseJSON converts the engine's JSON output into a Result in canvas
// coordinates. Graphviz uses a bottom-left origin, so every Y is flipped
// against the drawing height.
func parseJSON(data []byte, p Problem) (Result, error) {
	var out gvGraph
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRankingFailed, err, "decode ranking output")
	}

	_, _, w, h, err := parseBB(out.BB)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRankingFailed, err, "decode drawing bounds")
	}

	res := Result{
		Centers:       make(map[string]geo.Point, len(p.Nodes)),
		EdgePoints:    make([][]geo.Point, len(p.Edges)),
		CompoundBoxes: make(map[string]geo.Rect, len(p.Compounds)),
		Width:         w,
		Height:        h,
	}

	names := make(map[int]string, len(out.Objects))
	for _, obj := range out.Objects {
		names[obj.GvID] = obj.Name

		if cluster, ok := strings.CutPrefix(obj.Name, clusterPrefix); ok {
			x1, y1, x2, y2, err := parseBBCorners(obj.BB)
			if err != nil {
				continue
			}
			res.CompoundBoxes[cluster] = geo.Rect{
				X:      x1,
				Y:      h - y2,
				Width:  x2 - x1,
				Height: y2 - y1,
			}
			continue
		}
		if obj.Pos == "" {
			continue
		}
		pt, err := parsePoint(obj.Pos)
		if err != nil {
			continue
		}
		res.Centers[obj.Name] = geo.Point{X: pt.X, Y: h - pt.Y}
	}

	// Output edges keep definition order; verify endpoints before trusting
	// the pairing, since dot may reorder under cycle breaking.
	for i, ge := range out.Edges {
		if i >= len(p.Edges) {
			break
		}
		spec := p.Edges[i]
		if names[ge.Tail] != spec.From || names[ge.Head] != spec.To {
			continue
		}
		res.EdgePoints[i] = parseSpline(ge.Pos, h)
	}

	return res, nil
}

// parsePoint decodes "x,y".
func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("malformed point %q", s)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return geo.Point{}, err
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{X: x, Y: y}, nil
}

// parseBB decodes "x1,y1,x2,y2" into origin plus extent.
func parseBB(s string) (x, y, w, h float64, err error) {
	x1, y1, x2, y2, err := parseBBCorners(s)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return x1, y1, x2 - x1, y2 - y1, nil
}

func parseBBCorners(s string) (x1, y1, x2, y2 float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("malformed bounding box %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		if vals[i], err = strconv.ParseFloat(p, 64); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// parseSpline decodes an edge pos attribute: optional "s,x,y" and "e,x,y"
// endpoint terms followed by B-spline control points. The control points are
// returned in travel order with the endpoint terms folded in; Y is flipped
// to the top-left origin.
func parseSpline(s string, height float64) []geo.Point {
	var start, end *geo.Point
	var ctrl []geo.Point

	for _, tok := range strings.Fields(strings.TrimSpace(s)) {
		switch {
		case strings.HasPrefix(tok, "s,"):
			if pt, err := parsePoint(tok[2:]); err == nil {
				p := geo.Point{X: pt.X, Y: height - pt.Y}
				start = &p
			}
		case strings.HasPrefix(tok, "e,"):
			if pt, err := parsePoint(tok[2:]); err == nil {
				p := geo.Point{X: pt.X, Y: height - pt.Y}
				end = &p
			}
		default:
			if pt, err := parsePoint(tok); err == nil {
				ctrl = append(ctrl, geo.Point{X: pt.X, Y: height - pt.Y})
			}
		}
	}

	if start != nil {
		ctrl = append([]geo.Point{*start}, ctrl...)
	}
	if end != nil {
		ctrl = append(ctrl, *end)
	}
	return ctrl
}
