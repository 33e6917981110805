// Package diagram defines the graph model consumed and produced by the
// layout engine: nodes with shapes, directed edges, and a forest of groups
// that may override the flow direction of their contents.
//
// The model is created by a parser (out of scope for this module) and
// mutated in place by layout: sizes, centers, edge paths, group bounds and
// canvas bounds are all filled in by pkg/layout.
package diagram

import "github.com/flowkit/flowkit/pkg/geo"

// Direction is the axis along which a diagram's hierarchy progresses.
type Direction string

// Flow directions. The zero value is not valid; parsers default to TopDown.
const (
	TopDown   Direction = "TD"
	BottomUp  Direction = "BU"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

// Horizontal reports whether d flows along the X axis.
func (d Direction) Horizontal() bool {
	return d == LeftRight || d == RightLeft
}

// Valid reports whether d is one of the four flow directions.
func (d Direction) Valid() bool {
	switch d {
	case TopDown, BottomUp, LeftRight, RightLeft:
		return true
	}
	return false
}

// Shape is the closed set of node shape kinds.
type Shape string

// Node shapes. Size estimation and edge clipping dispatch on this tag.
const (
	ShapeRect     Shape = "rect"
	ShapeRounded  Shape = "rounded"
	ShapeStadium  Shape = "stadium"
	ShapeDiamond  Shape = "diamond"
	ShapeCircle   Shape = "circle"
	ShapeCylinder Shape = "cylinder"
	ShapeHexagon  Shape = "hexagon"
)

// Rectangular reports whether edges should be clipped against s's bounding
// box rather than a curved or angled boundary.
func (s Shape) Rectangular() bool {
	switch s {
	case ShapeDiamond, ShapeCircle:
		return false
	}
	return true
}

// Node is a single diagram element.
// Size and Center are zero until layout runs.
type Node struct {
	ID     string    `json:"id" bson:"id"`
	Label  string    `json:"label,omitempty" bson:"label,omitempty"`
	Shape  Shape     `json:"shape,omitempty" bson:"shape,omitempty"`
	Width  float64   `json:"width,omitempty" bson:"width,omitempty"`
	Height float64   `json:"height,omitempty" bson:"height,omitempty"`
	Center geo.Point `json:"center,omitempty" bson:"center,omitempty"`
}

// Box returns the node's bounding box around its center.
func (n *Node) Box() geo.Rect {
	return geo.RectAround(n.Center, n.Width, n.Height)
}

// Edge is a directed connection between two nodes.
// Points, LabelAnchor and the approach angles are filled during layout.
type Edge struct {
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`

	Points      []geo.Point `json:"points,omitempty" bson:"points,omitempty"`
	LabelAnchor geo.Point   `json:"label_anchor,omitempty" bson:"label_anchor,omitempty"`
	FromAngle   float64     `json:"from_angle,omitempty" bson:"from_angle,omitempty"`
	ToAngle     float64     `json:"to_angle,omitempty" bson:"to_angle,omitempty"`
}

// Group is a named cluster of nodes and nested groups.
// Each node belongs to at most one immediate group. A group may override the
// flow direction of its contents, in which case it is laid out in isolation
// and composed back into the parent diagram.
type Group struct {
	ID        string    `json:"id" bson:"id"`
	Label     string    `json:"label,omitempty" bson:"label,omitempty"`
	Members   []string  `json:"members,omitempty" bson:"members,omitempty"`
	Children  []*Group  `json:"children,omitempty" bson:"children,omitempty"`
	Direction Direction `json:"direction,omitempty" bson:"direction,omitempty"`

	Bounds       geo.Rect `json:"bounds,omitempty" bson:"bounds,omitempty"`
	HeaderHeight float64  `json:"header_height,omitempty" bson:"header_height,omitempty"`
}

// Overrides reports whether g declares its own flow direction differing
// from the ambient direction it is embedded in.
func (g *Group) Overrides(ambient Direction) bool {
	return g.Direction.Valid() && g.Direction != ambient
}

// Graph is a parsed diagram ready for layout.
type Graph struct {
	Nodes     map[string]*Node `json:"nodes" bson:"nodes"`
	Edges     []*Edge          `json:"edges" bson:"edges"`
	Groups    []*Group         `json:"groups,omitempty" bson:"groups,omitempty"`
	Direction Direction        `json:"direction,omitempty" bson:"direction,omitempty"`

	// Canvas is the overall bounds, origin (0,0), filled during layout.
	Canvas geo.Rect `json:"canvas,omitempty" bson:"canvas,omitempty"`
}

// New creates an empty graph with the given ambient direction.
func New(dir Direction) *Graph {
	if !dir.Valid() {
		dir = TopDown
	}
	return &Graph{
		Nodes:     make(map[string]*Node),
		Direction: dir,
	}
}

// AddNode inserts n into the graph, replacing any node with the same id.
func (g *Graph) AddNode(n *Node) {
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	g.Nodes[n.ID] = n
}

// AddEdge appends a directed edge. Endpoints are not validated here;
// layout skips edges whose endpoints do not resolve.
func (g *Graph) AddEdge(from, to, label string) *Edge {
	e := &Edge{From: from, To: to, Label: label}
	g.Edges = append(g.Edges, e)
	return e
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.Nodes[id]
}

// Walk visits every group in the forest depth-first, parents before
// children, and stops early if fn returns false.
func (g *Graph) Walk(fn func(parent, group *Group) bool) {
	var walk func(parent *Group, groups []*Group) bool
	walk = func(parent *Group, groups []*Group) bool {
		for _, grp := range groups {
			if !fn(parent, grp) {
				return false
			}
			if !walk(grp, grp.Children) {
				return false
			}
		}
		return true
	}
	walk(nil, g.Groups)
}

// FindGroup returns the group with the given id, or nil.
func (g *Graph) FindGroup(id string) *Group {
	var found *Group
	g.Walk(func(_, grp *Group) bool {
		if grp.ID == id {
			found = grp
			return false
		}
		return true
	})
	return found
}
