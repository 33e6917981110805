package layout

import (
	"math"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
)

// =============================================================================
// Compositing - Merging Precomputed Content and Repairing Edges
// =============================================================================

// mergePrecomputed translates a group's isolated layout into the current
// frame at the given top-left offset: node centers, routed internal edge
// paths, nested group boxes, and the group's own box.
func mergePrecomputed(f *frame, pre *precomputed, offset geo.Point) {
	for id, c := range pre.centers {
		f.centers[id] = c.Add(offset)
	}
	for idx, pts := range pre.paths {
		moved := make([]geo.Point, len(pts))
		for i, p := range pts {
			moved[i] = p.Add(offset)
		}
		f.paths[idx] = moved
	}
	for id, box := range pre.boxes {
		f.boxes[id] = box.Translate(offset)
	}
	f.boxes[pre.group.ID] = geo.Rect{
		X:      offset.X,
		Y:      offset.Y,
		Width:  pre.width,
		Height: pre.height,
	}
}

// finishScopeEdge turns a raw engine path into a final routed path.
//
// The edge is first routed in full against its problem endpoints, clipping
// against placeholder boxes where a group stands in for its members. If an
// endpoint was redirected into a precomputed group, it is then swapped for
// the composed node's boundary point and only the orthogonal-bend step is
// re-run: the replacement is already an exact boundary meeting point, so
// shape clipping is skipped.
func (b *problemBuilder) finishScopeEdge(f *frame, se scopeEdge, bends []geo.Point) {
	src := b.endpointNode(f, se.effFrom)
	dst := b.endpointNode(f, se.effTo)

	pts := make([]geo.Point, 0, len(bends)+2)
	pts = append(pts, src.Center)
	pts = append(pts, bends...)
	pts = append(pts, dst.Center)
	pts = RouteEdge(pts, src, dst, b.dir)

	repaired := false
	if se.fromInner != "" && len(pts) >= 2 {
		if inner := b.eng.g.Nodes[se.fromInner]; inner != nil {
			pts[0] = boundaryToward(f.boxOf(se.fromInner, inner), pts[1])
			repaired = true
		}
	}
	if se.toInner != "" && len(pts) >= 2 {
		if inner := b.eng.g.Nodes[se.toInner]; inner != nil {
			pts[len(pts)-1] = boundaryToward(f.boxOf(se.toInner, inner), pts[len(pts)-2])
			repaired = true
		}
	}
	if repaired {
		pts = OrthogonalizePath(pts, b.dir)
	}
	f.paths[se.idx] = pts
}

// endpointNode returns the node to route against for a problem endpoint:
// the diagram node itself, positioned at its frame center, or a synthetic
// box for placeholder leaves.
func (b *problemBuilder) endpointNode(f *frame, id string) *diagram.Node {
	if n := b.eng.g.Nodes[id]; n != nil {
		clone := *n
		clone.Center = f.centers[id]
		return &clone
	}
	w, h := 0.0, 0.0
	if pre, ok := b.eng.pre[id]; ok {
		w, h = pre.width, pre.height
	}
	return &diagram.Node{ID: id, Shape: diagram.ShapeRect, Width: w, Height: h, Center: f.centers[id]}
}

// boxOf returns a node's bounding box positioned at its frame center.
func (f *frame) boxOf(id string, n *diagram.Node) geo.Rect {
	return geo.RectAround(f.centers[id], n.Width, n.Height)
}

// boundaryToward returns the point on box's edge facing the given point,
// leaving the box along the dominant axis from its center.
func boundaryToward(box geo.Rect, toward geo.Point) geo.Point {
	c := box.Center()
	dx, dy := toward.X-c.X, toward.Y-c.Y
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return geo.Point{X: box.Right(), Y: c.Y}
		}
		return geo.Point{X: box.X, Y: c.Y}
	}
	if dy > 0 {
		return geo.Point{X: c.X, Y: box.Bottom()}
	}
	return geo.Point{X: c.X, Y: box.Y}
}
