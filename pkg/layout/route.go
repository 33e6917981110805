package layout

import (
	"math"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
)

// =============================================================================
// Edge Routing - Shape Clipping and Orthogonal Correction
// =============================================================================

// RouteEdge runs the full routing pipeline over an edge path whose first and
// last points are the source and target node centers:
//
//  1. Clip endpoints against non-rectangular boundaries (diamond, circle).
//  2. Insert one orthogonal bend per non-axis-aligned segment.
//  3. Clip endpoints against rectangular boundaries along the final path
//     direction.
//
// Collinear runs are collapsed afterwards. The function is pure; a
// degenerate path (fewer than 2 points) is returned unchanged.
func RouteEdge(points []geo.Point, src, dst *diagram.Node, dir diagram.Direction) []geo.Point {
	if len(points) < 2 {
		return points
	}
	pts := append([]geo.Point(nil), points...)

	pts[0] = clipNonRect(pts[0], pts[1], src)
	pts[len(pts)-1] = clipNonRect(pts[len(pts)-1], pts[len(pts)-2], dst)

	pts = insertBends(pts, dir)

	pts[0] = clipRect(pts[0], pts[1], src)
	pts[len(pts)-1] = clipRect(pts[len(pts)-1], pts[len(pts)-2], dst)

	return collapseCollinear(pts)
}

// OrthogonalizePath runs only the bend-insertion pass followed by collinear
// collapse. The compositor uses this for edges whose redirected endpoint was
// replaced with an exact composed position, where shape clipping has already
// happened.
func OrthogonalizePath(points []geo.Point, dir diagram.Direction) []geo.Point {
	if len(points) < 2 {
		return points
	}
	return collapseCollinear(insertBends(points, dir))
}

// clipNonRect moves p from a node center onto the node's boundary along the
// ray toward next. Rectangle-like shapes are left for the later pass.
func clipNonRect(p, next geo.Point, n *diagram.Node) geo.Point {
	if n == nil || n.Shape.Rectangular() {
		return p
	}
	d := next.Sub(p)
	if math.Abs(d.X) < geo.Epsilon && math.Abs(d.Y) < geo.Epsilon {
		return p
	}
	hw, hh := n.Width/2, n.Height/2

	switch n.Shape {
	case diagram.ShapeDiamond:
		// L1-normalized ray/diamond intersection.
		t := 1 / (math.Abs(d.X)/hw + math.Abs(d.Y)/hh)
		return geo.Point{X: p.X + t*d.X, Y: p.Y + t*d.Y}

	case diagram.ShapeCircle:
		r := math.Min(hw, hh)
		dist := math.Hypot(d.X, d.Y)
		return geo.Point{X: p.X + r*d.X/dist, Y: p.Y + r*d.Y/dist}
	}
	return p
}

// insertBends makes every segment axis-aligned by inserting exactly one bend
// point per skewed segment. Vertical flows drop to the target's Y first;
// horizontal flows move along X first.
func insertBends(points []geo.Point, dir diagram.Direction) []geo.Point {
	out := make([]geo.Point, 0, len(points)*2-1)
	out = append(out, points[0])
	for i := 1; i < len(points); i++ {
		a, b := out[len(out)-1], points[i]
		if !aligned(a, b) {
			if dir.Horizontal() {
				out = append(out, geo.Point{X: b.X, Y: a.Y})
			} else {
				out = append(out, geo.Point{X: a.X, Y: b.Y})
			}
		}
		out = append(out, b)
	}
	return out
}

// clipRect moves p onto the boundary of a rectangle-like node along the
// (axis-aligned) segment toward next.
func clipRect(p, next geo.Point, n *diagram.Node) geo.Point {
	if n == nil || !n.Shape.Rectangular() {
		return p
	}
	box := n.Box()
	switch {
	case next.X > p.X+geo.Epsilon:
		return geo.Point{X: box.Right(), Y: p.Y}
	case next.X < p.X-geo.Epsilon:
		return geo.Point{X: box.X, Y: p.Y}
	case next.Y > p.Y+geo.Epsilon:
		return geo.Point{X: p.X, Y: box.Bottom()}
	case next.Y < p.Y-geo.Epsilon:
		return geo.Point{X: p.X, Y: box.Y}
	}
	return p
}

// collapseCollinear removes the middle point of every straight run and drops
// duplicate consecutive points.
func collapseCollinear(points []geo.Point) []geo.Point {
	if len(points) < 3 {
		return points
	}
	out := make([]geo.Point, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points); i++ {
		p := points[i]
		if p.Eq(out[len(out)-1]) {
			continue
		}
		for len(out) >= 2 {
			a, b := out[len(out)-2], out[len(out)-1]
			if (sameX(a, b) && sameX(b, p)) || (sameY(a, b) && sameY(b, p)) {
				out = out[:len(out)-1]
				continue
			}
			break
		}
		out = append(out, p)
	}
	return out
}

func aligned(a, b geo.Point) bool { return sameX(a, b) || sameY(a, b) }

func sameX(a, b geo.Point) bool { return math.Abs(a.X-b.X) < geo.Epsilon }

func sameY(a, b geo.Point) bool { return math.Abs(a.Y-b.Y) < geo.Epsilon }

// finishEdge stamps the label anchor and approach angles onto a routed edge.
// The anchor sits at the midpoint of the middle segment.
func finishEdge(e *diagram.Edge) {
	pts := e.Points
	if len(pts) < 2 {
		return
	}
	mid := (len(pts) - 1) / 2
	e.LabelAnchor = geo.Midpoint(pts[mid], pts[mid+1])
	e.FromAngle = pts[0].AngleTo(pts[1])
	e.ToAngle = pts[len(pts)-2].AngleTo(pts[len(pts)-1])
}
