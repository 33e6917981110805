package layout

import (
	"context"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
)

// =============================================================================
// Subgraph Precomputation - Isolated Passes for Direction Overrides
// =============================================================================

// precomputed is the isolated layout of a direction-overriding group: a
// fixed-size placeholder for the parent problem plus every internal node,
// edge path, and nested group box positioned relative to the group's own
// origin.
type precomputed struct {
	group  *diagram.Group
	width  float64
	height float64

	centers map[string]geo.Point
	paths   map[int][]geo.Point
	boxes   map[string]geo.Rect
}

// precomputeGroups finds every group whose direction override differs from
// its ambient context and lays it out in isolation. Processing runs
// deepest-first so that a nested override becomes a fixed placeholder
// inside its parent's isolated problem; sibling precomputed groups never
// see each other.
func (eng *engine) precomputeGroups(ctx context.Context) error {
	var walk func(grps []*diagram.Group, ambient diagram.Direction) error
	walk = func(grps []*diagram.Group, ambient diagram.Direction) error {
		for _, grp := range grps {
			local := ambient
			if grp.Direction.Valid() {
				local = grp.Direction
			}
			if err := walk(grp.Children, local); err != nil {
				return err
			}
			if grp.Overrides(ambient) {
				if err := eng.precompute(ctx, grp); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(eng.g.Groups, eng.g.Direction)
}

// precompute runs the isolated ranking pass for one overriding group with
// its own direction and tighter margins, then records the placeholder size,
// the relatively-positioned content, and the set of internal edges the
// parent problem must exclude.
func (eng *engine) precompute(ctx context.Context, grp *diagram.Group) error {
	b := eng.newBuilder(grp.Direction, eng.cfg.SubgraphMargin)

	for _, id := range eng.existingMembers(grp) {
		n := eng.g.Nodes[id]
		b.addLeaf(id, n.Width, n.Height, "")
	}
	for _, child := range grp.Children {
		b.addGroup(child, "")
	}

	// Edges naming the group itself attach to its boundary members.
	b.entry[grp.ID] = b.entryOf(grp)
	b.exit[grp.ID] = b.exitOf(grp)

	// Claim edges whose both endpoints resolve inside this group; the rest
	// stay for the parent problem, which redirects the inner endpoint to
	// the placeholder.
	for idx := range eng.g.Edges {
		if eng.edges[idx].class != edgeParent {
			continue
		}
		if b.tryAddEdge(idx) {
			eng.edges[idx] = edgeState{class: edgeInternal, owner: grp.ID}
		}
	}

	f, err := b.solve(ctx, grp.ID)
	if err != nil {
		return err
	}

	eng.pre[grp.ID] = &precomputed{
		group:   grp,
		width:   f.width,
		height:  f.height,
		centers: f.centers,
		paths:   f.paths,
		boxes:   f.boxes,
	}
	return nil
}
