package layout

import (
	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
)

// =============================================================================
// Group Bounds Expansion and Canvas Normalization
// =============================================================================

// expandGroups grows every group's box to cover its members and all
// descendant group boxes, reserving a header band for labeled groups.
// Children are expanded first so a parent's union sees final child boxes,
// including their header growth.
func expandGroups(g *diagram.Graph, cfg Config, tight map[string]geo.Rect) {
	var expand func(grp *diagram.Group) geo.Rect
	expand = func(grp *diagram.Group) geo.Rect {
		box := tight[grp.ID]
		if box.IsZero() {
			// No engine-reported box; fall back to the members' union.
			for _, id := range grp.Members {
				if n := g.Nodes[id]; n != nil {
					box = box.Union(n.Box())
				}
			}
			if !box.IsZero() {
				box = box.Inflate(cfg.GroupPadding)
			}
		}
		for _, child := range grp.Children {
			box = box.Union(expand(child))
		}
		if box.IsZero() {
			// Degenerate group; nothing to draw, nothing to grow.
			grp.Bounds = box
			return box
		}
		if grp.Label != "" {
			grp.HeaderHeight = cfg.HeaderHeight
			band := cfg.HeaderHeight + cfg.ContentGap
			box.Y -= band
			box.Height += band
		}
		grp.Bounds = box
		return box
	}
	for _, grp := range g.Groups {
		expand(grp)
	}
}

// normalizeCanvas sets the overall canvas bounds, shifting the whole
// diagram down when header growth pushed content above the top margin.
// The canvas height grows by exactly the shift amount.
func normalizeCanvas(g *diagram.Graph, cfg Config) {
	b := contentBounds(g)
	if b.IsZero() {
		g.Canvas = geo.Rect{Width: 2 * cfg.Margin, Height: 2 * cfg.Margin}
		return
	}

	width := b.Right() + cfg.Margin
	height := b.Bottom() + cfg.Margin
	if deficit := cfg.Margin - b.Y; deficit > geo.Epsilon {
		shiftY(g, deficit)
		height += deficit
	}
	g.Canvas = geo.Rect{Width: width, Height: height}
}

// contentBounds unions every node box, edge point, and group box.
func contentBounds(g *diagram.Graph) geo.Rect {
	var b geo.Rect
	for _, n := range g.Nodes {
		b = b.Union(n.Box())
	}
	for _, e := range g.Edges {
		for _, p := range e.Points {
			b = b.Union(geo.Rect{X: p.X, Y: p.Y, Width: geo.Epsilon, Height: geo.Epsilon})
		}
	}
	g.Walk(func(_, grp *diagram.Group) bool {
		if !grp.Bounds.IsZero() {
			b = b.Union(grp.Bounds)
		}
		return true
	})
	return b
}

// shiftY moves every positioned element down by dy.
func shiftY(g *diagram.Graph, dy float64) {
	for _, n := range g.Nodes {
		n.Center.Y += dy
	}
	for _, e := range g.Edges {
		for i := range e.Points {
			e.Points[i].Y += dy
		}
	}
	g.Walk(func(_, grp *diagram.Group) bool {
		if !grp.Bounds.IsZero() {
			grp.Bounds.Y += dy
		}
		return true
	})
}
