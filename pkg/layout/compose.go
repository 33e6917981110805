package layout

import (
	"context"
	"sort"
	"time"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
	"github.com/flowkit/flowkit/pkg/observability"
	"github.com/flowkit/flowkit/pkg/rank"
)

// =============================================================================
// Graph Composition - Building and Solving Ranking Problems
// =============================================================================

// engine carries the state of one layout call. It is created per call and
// never shared, keeping Compose safe for concurrent use on separate graphs.
type engine struct {
	g      *diagram.Graph
	cfg    Config
	ranker rank.Ranker

	pre   map[string]*precomputed // group id -> isolated layout
	edges []edgeState             // parallel to g.Edges
}

type edgeClass int

const (
	edgeParent   edgeClass = iota // participates in the enclosing problem
	edgeInternal                  // fully laid out inside a precomputed group
	edgeDropped                   // endpoint did not resolve; skipped
)

type edgeState struct {
	class edgeClass
	owner string // precomputed group owning an internal edge
}

// frame is the outcome of solving one ranking problem, in that problem's
// coordinate system: leaf centers (placeholders included), routed edge paths
// keyed by edge index, and tight group boxes.
type frame struct {
	centers map[string]geo.Point
	paths   map[int][]geo.Point
	boxes   map[string]geo.Rect
	width   float64
	height  float64
}

// problemBuilder assembles one ranking problem: either the top-level graph
// or the isolated contents of a direction-overriding group.
type problemBuilder struct {
	eng    *engine
	dir    diagram.Direction
	margin float64

	problem  rank.Problem
	leaves   map[string]bool   // leaf ids present in the problem
	redirect map[string]string // id hidden behind a placeholder -> placeholder id
	entry    map[string]string // group id -> entry representative
	exit     map[string]string // group id -> exit representative
	edges    []scopeEdge       // parallel to problem.Edges
	seen     map[string]bool   // targets already reached by some edge
}

// scopeEdge ties a problem edge back to the diagram edge it came from.
type scopeEdge struct {
	idx       int    // index into eng.g.Edges
	effFrom   string // problem endpoints after redirection
	effTo     string
	fromInner string // original node hidden behind a placeholder, if any
	toInner   string
}

func (eng *engine) newBuilder(dir diagram.Direction, margin float64) *problemBuilder {
	return &problemBuilder{
		eng:    eng,
		dir:    dir,
		margin: margin,
		problem: rank.Problem{
			Direction: dir,
			Parent:    make(map[string]string),
			Spacing: rank.Spacing{
				NodeSep: eng.cfg.NodeSep,
				RankSep: eng.cfg.RankSep,
				Margin:  margin,
			},
		},
		leaves:   make(map[string]bool),
		redirect: make(map[string]string),
		entry:    make(map[string]string),
		exit:     make(map[string]string),
		seen:     make(map[string]bool),
	}
}

func (b *problemBuilder) addLeaf(id string, w, h float64, parent string) {
	b.problem.Nodes = append(b.problem.Nodes, rank.NodeSpec{ID: id, Width: w, Height: h})
	b.leaves[id] = true
	if parent != "" {
		b.problem.Parent[id] = parent
	}
}

// addGroup adds grp to the problem under the given compound parent.
// A precomputed group becomes a fixed-size placeholder leaf and its whole
// subtree redirects to it. A degenerate group becomes a zero-size
// placeholder redirecting to itself. Everything else becomes a compound
// with its members and children added recursively.
func (b *problemBuilder) addGroup(grp *diagram.Group, parent string) {
	if pre, ok := b.eng.pre[grp.ID]; ok {
		b.addLeaf(grp.ID, pre.width, pre.height, parent)
		for _, id := range b.eng.subtreeIDs(grp) {
			b.redirect[id] = grp.ID
		}
		return
	}

	members := b.eng.existingMembers(grp)
	if len(members) == 0 && len(grp.Children) == 0 {
		b.addLeaf(grp.ID, 0, 0, parent)
		b.entry[grp.ID] = grp.ID
		b.exit[grp.ID] = grp.ID
		return
	}

	b.problem.Compounds = append(b.problem.Compounds, grp.ID)
	if parent != "" {
		b.problem.Parent[grp.ID] = parent
	}
	for _, id := range members {
		n := b.eng.g.Nodes[id]
		b.addLeaf(id, n.Width, n.Height, grp.ID)
	}
	for _, child := range grp.Children {
		b.addGroup(child, grp.ID)
	}
	b.entry[grp.ID] = b.entryOf(grp)
	b.exit[grp.ID] = b.exitOf(grp)
}

// entryOf resolves a group's entry representative: its first member, or
// transitively the entry of its first child group. Precomputed groups
// represent themselves, as do empty ones.
func (b *problemBuilder) entryOf(grp *diagram.Group) string {
	if _, ok := b.eng.pre[grp.ID]; ok {
		return grp.ID
	}
	if members := b.eng.existingMembers(grp); len(members) > 0 {
		return members[0]
	}
	if len(grp.Children) > 0 {
		return b.entryOf(grp.Children[0])
	}
	return grp.ID
}

// exitOf is the mirror of entryOf: last member, or the exit of the last
// child group.
func (b *problemBuilder) exitOf(grp *diagram.Group) string {
	if _, ok := b.eng.pre[grp.ID]; ok {
		return grp.ID
	}
	if members := b.eng.existingMembers(grp); len(members) > 0 {
		return members[len(members)-1]
	}
	if len(grp.Children) > 0 {
		return b.exitOf(grp.Children[len(grp.Children)-1])
	}
	return grp.ID
}

// resolveEndpoint maps an edge endpoint to its problem node. Source
// endpoints naming a group use the exit representative, target endpoints
// the entry representative.
func (b *problemBuilder) resolveEndpoint(id string, source bool) (eff, inner string, ok bool) {
	if b.leaves[id] {
		return id, "", true
	}
	if rep, found := b.redirect[id]; found {
		if b.eng.g.Nodes[id] != nil {
			return rep, id, true
		}
		return rep, "", true
	}
	reps := b.entry
	if source {
		reps = b.exit
	}
	if rep, found := reps[id]; found {
		return rep, "", true
	}
	return "", "", false
}

// tryAddEdge redirects one diagram edge into the problem. The first edge
// reaching a not-yet-visited target gets a higher weight, biasing the
// ranking engine to keep the primary flow path straight. Returns false when
// an endpoint does not resolve in this scope or the redirection collapses
// the edge onto a single problem node.
func (b *problemBuilder) tryAddEdge(idx int) bool {
	e := b.eng.g.Edges[idx]
	from, fromInner, okFrom := b.resolveEndpoint(e.From, true)
	to, toInner, okTo := b.resolveEndpoint(e.To, false)
	if !okFrom || !okTo {
		return false
	}
	if from == to && e.From != e.To {
		// Redirection collapsed a cross-boundary edge onto one node.
		return false
	}

	weight := 1
	if !b.seen[to] {
		weight = 2
		b.seen[to] = true
	}
	b.problem.Edges = append(b.problem.Edges, rank.EdgeSpec{From: from, To: to, Weight: weight})
	b.edges = append(b.edges, scopeEdge{
		idx:       idx,
		effFrom:   from,
		effTo:     to,
		fromInner: fromInner,
		toInner:   toInner,
	})
	return true
}

// solve submits the assembled problem to the ranking engine and converts
// the answer into a frame, merging precomputed placeholder content and
// routing this scope's edges.
func (b *problemBuilder) solve(ctx context.Context, scope string) (*frame, error) {
	hooks := observability.Layout()
	hooks.OnRankStart(ctx, scope, len(b.problem.Nodes), len(b.problem.Edges))
	start := time.Now()
	res, err := b.eng.ranker.Rank(ctx, b.problem)
	hooks.OnRankComplete(ctx, scope, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	f := &frame{
		centers: make(map[string]geo.Point, len(res.Centers)),
		paths:   make(map[int][]geo.Point, len(b.edges)),
		boxes:   make(map[string]geo.Rect, len(res.CompoundBoxes)),
		width:   res.Width,
		height:  res.Height,
	}
	for id, c := range res.Centers {
		f.centers[id] = c
	}
	for id, box := range res.CompoundBoxes {
		f.boxes[id] = box
	}

	// Compose precomputed groups at their placeholder's offset.
	for id := range b.leaves {
		pre, ok := b.eng.pre[id]
		if !ok {
			continue
		}
		center, ok := res.Centers[id]
		if !ok {
			continue
		}
		offset := geo.Point{X: center.X - pre.width/2, Y: center.Y - pre.height/2}
		mergePrecomputed(f, pre, offset)
	}

	for i, se := range b.edges {
		var bends []geo.Point
		if i < len(res.EdgePoints) {
			bends = res.EdgePoints[i]
		}
		b.finishScopeEdge(f, se, bends)
	}
	return f, nil
}

// =============================================================================
// Top-Level Composition
// =============================================================================

// composeTop builds and solves the ranking problem for the whole diagram.
// Unclaimed edges that do not resolve are dropped here, per the permissive
// unknown-id policy.
func (eng *engine) composeTop(ctx context.Context) (*frame, error) {
	b := eng.newBuilder(eng.g.Direction, eng.cfg.Margin)

	for _, id := range eng.ungroupedNodes() {
		n := eng.g.Nodes[id]
		b.addLeaf(id, n.Width, n.Height, "")
	}
	for _, grp := range eng.g.Groups {
		b.addGroup(grp, "")
	}

	hooks := observability.Layout()
	for idx, e := range eng.g.Edges {
		if eng.edges[idx].class != edgeParent {
			continue
		}
		if !b.tryAddEdge(idx) {
			eng.edges[idx].class = edgeDropped
			hooks.OnEdgeSkipped(ctx, e.From, e.To)
		}
	}
	return b.solve(ctx, "")
}

// =============================================================================
// Engine Helpers
// =============================================================================

// subtreeIDs returns the group's id plus every node and group id beneath it.
func (eng *engine) subtreeIDs(grp *diagram.Group) []string {
	ids := []string{grp.ID}
	ids = append(ids, eng.existingMembers(grp)...)
	for _, child := range grp.Children {
		ids = append(ids, eng.subtreeIDs(child)...)
	}
	return ids
}

// existingMembers filters a group's member list down to ids present in the
// graph. Unknown memberships are skipped silently.
func (eng *engine) existingMembers(grp *diagram.Group) []string {
	var out []string
	for _, id := range grp.Members {
		if eng.g.Nodes[id] != nil {
			out = append(out, id)
		}
	}
	return out
}

// ungroupedNodes returns ids of nodes not claimed by any group, sorted for
// deterministic problem construction.
func (eng *engine) ungroupedNodes() []string {
	grouped := make(map[string]bool)
	eng.g.Walk(func(_, grp *diagram.Group) bool {
		for _, id := range grp.Members {
			grouped[id] = true
		}
		return true
	})
	ids := make([]string, 0, len(eng.g.Nodes))
	for id := range eng.g.Nodes {
		if !grouped[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
