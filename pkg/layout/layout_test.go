package layout

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/geo"
	"github.com/flowkit/flowkit/pkg/observability"
	"github.com/flowkit/flowkit/pkg/rank"
)

// stackRanker is a deterministic Ranker for tests: it stacks submitted
// nodes along the flow axis in submission order, honoring sizes, spacing
// and margins, and reports compound boxes as the union of their leaves.
// It records every problem it is given.
type stackRanker struct {
	calls []rank.Problem
	err   error
}

func (r *stackRanker) Rank(_ context.Context, p rank.Problem) (rank.Result, error) {
	r.calls = append(r.calls, p)
	if r.err != nil {
		return rank.Result{}, r.err
	}

	res := rank.Result{
		Centers:       make(map[string]geo.Point, len(p.Nodes)),
		EdgePoints:    make([][]geo.Point, len(p.Edges)),
		CompoundBoxes: make(map[string]geo.Rect, len(p.Compounds)),
	}
	m := p.Spacing.Margin
	if len(p.Nodes) == 0 {
		res.Width, res.Height = 2*m, 2*m
		return res, nil
	}

	if p.Direction.Horizontal() {
		maxH := 0.0
		for _, n := range p.Nodes {
			maxH = math.Max(maxH, n.Height)
		}
		x := m
		for _, n := range p.Nodes {
			res.Centers[n.ID] = geo.Point{X: x + n.Width/2, Y: m + maxH/2}
			x += n.Width + p.Spacing.RankSep
		}
		res.Width = x - p.Spacing.RankSep + m
		res.Height = maxH + 2*m
	} else {
		maxW := 0.0
		for _, n := range p.Nodes {
			maxW = math.Max(maxW, n.Width)
		}
		y := m
		for _, n := range p.Nodes {
			res.Centers[n.ID] = geo.Point{X: m + maxW/2, Y: y + n.Height/2}
			y += n.Height + p.Spacing.RankSep
		}
		res.Width = maxW + 2*m
		res.Height = y - p.Spacing.RankSep + m
	}

	for _, n := range p.Nodes {
		box := geo.RectAround(res.Centers[n.ID], n.Width, n.Height)
		for owner := p.Parent[n.ID]; owner != ""; owner = p.Parent[owner] {
			res.CompoundBoxes[owner] = res.CompoundBoxes[owner].Union(box)
		}
	}
	return res, nil
}

func rectsOverlap(a, b geo.Rect) bool {
	return a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom()
}

func onBoundary(p geo.Point, box geo.Rect) bool {
	onX := math.Abs(p.X-box.X) < geo.Epsilon || math.Abs(p.X-box.Right()) < geo.Epsilon
	onY := math.Abs(p.Y-box.Y) < geo.Epsilon || math.Abs(p.Y-box.Bottom()) < geo.Epsilon
	return onX || onY
}

func TestComposeChain(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "alpha"})
	g.AddNode(&diagram.Node{ID: "b", Label: "beta"})
	g.AddNode(&diagram.Node{ID: "c", Label: "gamma"})
	g.AddEdge("a", "b", "")
	g.AddEdge("b", "c", "yes")

	r := &stackRanker{}
	cfg := DefaultConfig()
	if err := Compose(context.Background(), g, cfg, r); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	a, b, c := g.Nodes["a"], g.Nodes["b"], g.Nodes["c"]
	if a.Center.X != b.Center.X || b.Center.X != c.Center.X {
		t.Errorf("vertical flow nodes not on one column: %v %v %v", a.Center, b.Center, c.Center)
	}
	if !(a.Center.Y < b.Center.Y && b.Center.Y < c.Center.Y) {
		t.Errorf("rank order broken: %v %v %v", a.Center.Y, b.Center.Y, c.Center.Y)
	}

	for i, e := range g.Edges {
		if len(e.Points) < 2 {
			t.Fatalf("edge %d has %d points", i, len(e.Points))
		}
		assertOrthogonal(t, e.Points)
		if e.FromAngle == 0 && e.Points[0].X == e.Points[1].X {
			t.Errorf("edge %d angles not stamped: %+v", i, e)
		}
	}
	ab := g.Edges[0]
	if math.Abs(ab.Points[0].Y-a.Box().Bottom()) > geo.Epsilon {
		t.Errorf("edge start %v not on source bottom %v", ab.Points[0], a.Box().Bottom())
	}
	if math.Abs(ab.Points[len(ab.Points)-1].Y-b.Box().Y) > geo.Epsilon {
		t.Errorf("edge end %v not on target top %v", ab.Points[len(ab.Points)-1], b.Box().Y)
	}
	if ab.LabelAnchor == (geo.Point{}) {
		t.Error("label anchor not set")
	}

	canvas := g.Canvas
	for id, n := range g.Nodes {
		if !canvas.ContainsRect(n.Box()) {
			t.Errorf("node %s box %v outside canvas %v", id, n.Box(), canvas)
		}
	}
	wantW := 0.0
	for _, n := range g.Nodes {
		wantW = math.Max(wantW, n.Width)
	}
	if math.Abs(canvas.Width-(wantW+2*cfg.Margin)) > geo.Epsilon {
		t.Errorf("canvas width = %v, want %v", canvas.Width, wantW+2*cfg.Margin)
	}

	if len(r.calls) != 1 {
		t.Fatalf("ranker called %d times, want 1", len(r.calls))
	}
	for _, e := range r.calls[0].Edges {
		if e.Weight != 2 {
			t.Errorf("first edge into %s has weight %d, want 2", e.To, e.Weight)
		}
	}
}

func TestComposeEmptyGraph(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	cfg := DefaultConfig()
	if err := Compose(context.Background(), g, cfg, &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := geo.Rect{Width: 2 * cfg.Margin, Height: 2 * cfg.Margin}
	if g.Canvas != want {
		t.Errorf("canvas = %v, want %v", g.Canvas, want)
	}
}

func TestComposeSkipsUnknownEndpoints(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "a"})
	g.AddNode(&diagram.Node{ID: "b", Label: "b"})
	g.AddEdge("a", "ghost", "")
	g.AddEdge("a", "b", "")
	g.Groups = []*diagram.Group{{ID: "g", Members: []string{"b", "phantom"}}}

	var skipped [][2]string
	observability.SetLayoutHooks(&recordingHooks{onSkip: func(from, to string) {
		skipped = append(skipped, [2]string{from, to})
	}})
	defer observability.Reset()

	if err := Compose(context.Background(), g, DefaultConfig(), &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if g.Edges[0].Points != nil {
		t.Errorf("dangling edge got a path: %v", g.Edges[0].Points)
	}
	if len(g.Edges[1].Points) < 2 {
		t.Errorf("valid edge not routed: %v", g.Edges[1].Points)
	}
	if len(skipped) != 1 || skipped[0] != [2]string{"a", "ghost"} {
		t.Errorf("skip hook calls = %v", skipped)
	}
}

func TestComposeRankingFailure(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a"})

	rankErr := errors.New(errors.ErrCodeRankingFailed, "trouble downstairs")
	err := Compose(context.Background(), g, DefaultConfig(), &stackRanker{err: rankErr})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.ErrCodeRankingFailed {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeRankingFailed)
	}
}

func TestComposeGroupBounds(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "a"})
	g.AddNode(&diagram.Node{ID: "b", Label: "b"})
	g.AddNode(&diagram.Node{ID: "c", Label: "c"})
	g.AddEdge("a", "b", "")
	g.AddEdge("b", "c", "")
	grp := &diagram.Group{ID: "stage", Label: "Stage", Members: []string{"b", "c"}}
	g.Groups = []*diagram.Group{grp}

	cfg := DefaultConfig()
	if err := Compose(context.Background(), g, cfg, &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if grp.Bounds.IsZero() {
		t.Fatal("group bounds not set")
	}
	if grp.HeaderHeight != cfg.HeaderHeight {
		t.Errorf("header height = %v, want %v", grp.HeaderHeight, cfg.HeaderHeight)
	}
	for _, id := range grp.Members {
		box := g.Nodes[id].Box()
		if !grp.Bounds.ContainsRect(box) {
			t.Errorf("member %s box %v outside group bounds %v", id, box, grp.Bounds)
		}
		// Content stays out of the header band.
		if box.Y < grp.Bounds.Y+grp.HeaderHeight+cfg.ContentGap-geo.Epsilon {
			t.Errorf("member %s intrudes into header band", id)
		}
	}
	if !g.Canvas.ContainsRect(grp.Bounds) {
		t.Errorf("group bounds %v outside canvas %v", grp.Bounds, g.Canvas)
	}
}

func TestComposeHeaderShiftsCanvas(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "a"})
	grp := &diagram.Group{ID: "only", Label: "Only", Members: []string{"a"}}
	g.Groups = []*diagram.Group{grp}

	cfg := DefaultConfig()
	if err := Compose(context.Background(), g, cfg, &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	// Header growth above the topmost content must shift everything down so
	// the margin survives.
	if grp.Bounds.Y < cfg.Margin-geo.Epsilon {
		t.Errorf("group bounds start at %v, above margin %v", grp.Bounds.Y, cfg.Margin)
	}
	a := g.Nodes["a"]
	if a.Box().Y < grp.Bounds.Y+cfg.HeaderHeight-geo.Epsilon {
		t.Errorf("member under header band: box %v, bounds %v", a.Box(), grp.Bounds)
	}
	if !g.Canvas.ContainsRect(grp.Bounds) {
		t.Errorf("canvas %v does not cover bounds %v", g.Canvas, grp.Bounds)
	}
}

func TestComposeDirectionOverride(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a", Label: "a"})
	g.AddNode(&diagram.Node{ID: "b", Label: "b"})
	g.AddNode(&diagram.Node{ID: "c", Label: "c"})
	g.AddEdge("a", "b", "")
	g.AddEdge("b", "c", "")
	grp := &diagram.Group{ID: "row", Direction: diagram.LeftRight, Members: []string{"b", "c"}}
	g.Groups = []*diagram.Group{grp}

	r := &stackRanker{}
	if err := Compose(context.Background(), g, DefaultConfig(), r); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if len(r.calls) != 2 {
		t.Fatalf("ranker called %d times, want 2 (isolated pass + top level)", len(r.calls))
	}
	if r.calls[0].Direction != diagram.LeftRight {
		t.Errorf("isolated pass direction = %v, want LR", r.calls[0].Direction)
	}
	if r.calls[1].Direction != diagram.TopDown {
		t.Errorf("top-level direction = %v, want TD", r.calls[1].Direction)
	}

	b, c := g.Nodes["b"], g.Nodes["c"]
	if math.Abs(b.Center.Y-c.Center.Y) > geo.Epsilon {
		t.Errorf("override members not on one row: %v vs %v", b.Center, c.Center)
	}
	if b.Center.X >= c.Center.X {
		t.Errorf("LR order broken: %v vs %v", b.Center.X, c.Center.X)
	}

	// The internal edge was laid out in the isolated pass and survives the
	// merge as a routed path between the members.
	bc := g.Edges[1]
	if len(bc.Points) < 2 {
		t.Fatalf("internal edge not routed: %v", bc.Points)
	}
	assertOrthogonal(t, bc.Points)

	// The cross-boundary edge ends on the real target's boundary, not on
	// the placeholder's.
	ab := g.Edges[0]
	if len(ab.Points) < 2 {
		t.Fatalf("cross-boundary edge not routed: %v", ab.Points)
	}
	last := ab.Points[len(ab.Points)-1]
	if !onBoundary(last, b.Box()) {
		t.Errorf("repaired endpoint %v not on %v", last, b.Box())
	}
	assertOrthogonal(t, ab.Points)

	// In the top-level problem the redirected edge targets the placeholder,
	// and the members' internal edge never leaks out of the isolated pass.
	top := r.calls[1]
	found := false
	for _, e := range top.Edges {
		if e.From == "a" && e.To == "row" {
			found = true
		}
		if e.From == "b" || e.To == "b" || e.From == "c" || e.To == "c" {
			t.Errorf("top-level problem references override member: %+v", e)
		}
	}
	if !found {
		t.Errorf("top-level edges missing a->row redirection: %+v", top.Edges)
	}
}

func TestComposeNestedGroups(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(&diagram.Node{ID: id, Label: id})
	}
	g.AddEdge("a", "b", "")
	g.AddEdge("b", "c", "")
	g.AddEdge("c", "d", "")

	first := &diagram.Group{ID: "first", Members: []string{"a", "b"}}
	second := &diagram.Group{ID: "second", Members: []string{"c", "d"}}
	outer := &diagram.Group{ID: "outer", Label: "Outer", Children: []*diagram.Group{first, second}}
	g.Groups = []*diagram.Group{outer}

	cfg := DefaultConfig()
	if err := Compose(context.Background(), g, cfg, &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	for _, grp := range []*diagram.Group{outer, first, second} {
		if grp.Bounds.IsZero() {
			t.Fatalf("group %s bounds not set", grp.ID)
		}
	}

	// The parent box encloses both expanded child boxes.
	for _, child := range outer.Children {
		if !outer.Bounds.ContainsRect(child.Bounds) {
			t.Errorf("child %s bounds %v outside parent bounds %v", child.ID, child.Bounds, outer.Bounds)
		}
	}
	for _, child := range outer.Children {
		for _, id := range child.Members {
			box := g.Nodes[id].Box()
			if !child.Bounds.ContainsRect(box) {
				t.Errorf("member %s box %v outside group %s bounds %v", id, box, child.ID, child.Bounds)
			}
		}
	}

	// The labeled parent carries the header band and its children sit
	// below it; the unlabeled children get no band of their own.
	if outer.HeaderHeight != cfg.HeaderHeight {
		t.Errorf("parent header height = %v, want %v", outer.HeaderHeight, cfg.HeaderHeight)
	}
	for _, child := range outer.Children {
		if child.HeaderHeight != 0 {
			t.Errorf("unlabeled child %s has header height %v", child.ID, child.HeaderHeight)
		}
		if child.Bounds.Y < outer.Bounds.Y+outer.HeaderHeight+cfg.ContentGap-geo.Epsilon {
			t.Errorf("child %s bounds %v intrude into parent header band (parent %v)",
				child.ID, child.Bounds, outer.Bounds)
		}
	}

	// Sibling children keep their nodes apart.
	for _, p := range first.Members {
		for _, q := range second.Members {
			if rectsOverlap(g.Nodes[p].Box(), g.Nodes[q].Box()) {
				t.Errorf("node %s box %v overlaps node %s box %v across sibling groups",
					p, g.Nodes[p].Box(), q, g.Nodes[q].Box())
			}
		}
	}

	if !g.Canvas.ContainsRect(outer.Bounds) {
		t.Errorf("canvas %v does not cover parent bounds %v", g.Canvas, outer.Bounds)
	}
}

func TestComposeEdgeWeights(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a"})
	g.AddNode(&diagram.Node{ID: "b"})
	g.AddNode(&diagram.Node{ID: "c"})
	g.AddEdge("a", "c", "")
	g.AddEdge("b", "c", "")

	r := &stackRanker{}
	if err := Compose(context.Background(), g, DefaultConfig(), r); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	edges := r.calls[0].Edges
	if len(edges) != 2 {
		t.Fatalf("got %d problem edges, want 2", len(edges))
	}
	if edges[0].Weight != 2 {
		t.Errorf("first edge to fresh target weight = %d, want 2", edges[0].Weight)
	}
	if edges[1].Weight != 1 {
		t.Errorf("repeat edge to visited target weight = %d, want 1", edges[1].Weight)
	}
}

func TestComposeEmptyGroupPlaceholder(t *testing.T) {
	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a"})
	g.AddEdge("a", "void", "")
	g.Groups = []*diagram.Group{{ID: "void", Label: "Void"}}

	if err := Compose(context.Background(), g, DefaultConfig(), &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(g.Edges[0].Points) < 2 {
		t.Errorf("edge to empty group not routed: %v", g.Edges[0].Points)
	}
}

func TestComposeHooks(t *testing.T) {
	var measured, rankStarts, rankDone int
	var composeErr error
	composeDone := false
	observability.SetLayoutHooks(&recordingHooks{
		onMeasure:   func(int) { measured++ },
		onRankStart: func(string) { rankStarts++ },
		onRankDone:  func() { rankDone++ },
		onCompose: func(err error) {
			composeDone = true
			composeErr = err
		},
	})
	defer observability.Reset()

	g := diagram.New(diagram.TopDown)
	g.AddNode(&diagram.Node{ID: "a"})
	g.AddNode(&diagram.Node{ID: "b"})
	g.AddEdge("a", "b", "")
	g.Groups = []*diagram.Group{{ID: "flip", Direction: diagram.BottomUp, Members: []string{"b"}}}

	if err := Compose(context.Background(), g, DefaultConfig(), &stackRanker{}); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if measured != 1 {
		t.Errorf("OnMeasure calls = %d, want 1", measured)
	}
	if rankStarts != 2 || rankDone != 2 {
		t.Errorf("rank hook calls = %d/%d, want 2/2", rankStarts, rankDone)
	}
	if !composeDone || composeErr != nil {
		t.Errorf("OnComposeComplete = %v/%v, want called with nil", composeDone, composeErr)
	}
}

// recordingHooks forwards selected layout events to test callbacks.
type recordingHooks struct {
	observability.NoopLayoutHooks

	onMeasure   func(nodes int)
	onRankStart func(scope string)
	onRankDone  func()
	onSkip      func(from, to string)
	onCompose   func(err error)
}

func (h *recordingHooks) OnMeasure(_ context.Context, nodes int) {
	if h.onMeasure != nil {
		h.onMeasure(nodes)
	}
}

func (h *recordingHooks) OnRankStart(_ context.Context, scope string, _, _ int) {
	if h.onRankStart != nil {
		h.onRankStart(scope)
	}
}

func (h *recordingHooks) OnRankComplete(_ context.Context, _ string, _ time.Duration, _ error) {
	if h.onRankDone != nil {
		h.onRankDone()
	}
}

func (h *recordingHooks) OnEdgeSkipped(_ context.Context, from, to string) {
	if h.onSkip != nil {
		h.onSkip(from, to)
	}
}

func (h *recordingHooks) OnComposeComplete(_ context.Context, _ time.Duration, err error) {
	if h.onCompose != nil {
		h.onCompose(err)
	}
}
