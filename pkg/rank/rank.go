// Package rank wraps the external ranking engine used by the layout
// composer.
//
// The engine is treated as a black box: given sized nodes, weighted edges,
// an optional compound-parent relation and a flow direction, it returns a
// center per node, an ordered bend-point list per edge, and a fitted box per
// compound node. The default implementation drives Graphviz dot through
// github.com/goccy/go-graphviz; tests substitute deterministic fakes.
//
// The engine handles arbitrary cyclic edge structures internally. Callers
// must never assume or require acyclicity.
package rank

import (
	"context"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/geo"
)

// NodeSpec is a sized leaf node submitted to the ranking engine.
type NodeSpec struct {
	ID     string
	Width  float64
	Height float64
}

// EdgeSpec is a weighted directed edge between two submitted nodes.
// Higher weights bias the engine toward keeping the edge straight.
type EdgeSpec struct {
	From   string
	To     string
	Weight int
}

// Spacing carries the separation constants the engine should honor.
type Spacing struct {
	NodeSep float64
	RankSep float64
	Margin  float64
}

// Problem is one complete ranking request.
type Problem struct {
	Nodes []NodeSpec
	Edges []EdgeSpec

	// Compounds lists auto-sized container nodes in definition order.
	// Parent maps a node or compound id to its enclosing compound.
	Compounds []string
	Parent    map[string]string

	Direction diagram.Direction
	Spacing   Spacing
}

// Result is the engine's answer to a Problem.
type Result struct {
	// Centers holds the absolute center assigned to every leaf node,
	// top-left origin, Y down.
	Centers map[string]geo.Point

	// EdgePoints holds the ordered bend points per edge, parallel to
	// Problem.Edges. Entries may be empty; endpoints are not included.
	EdgePoints [][]geo.Point

	// CompoundBoxes holds the fitted bounding box per compound id.
	CompoundBoxes map[string]geo.Rect

	// Width and Height are the extent of the ranked drawing.
	Width  float64
	Height float64
}

// Ranker is the external ranking engine contract.
//
// A structural rejection of the input (e.g. an invalid compound-parent
// relation) is returned as an error with code RANKING_FAILED and is fatal
// for the layout call that issued it; the layout engine never retries.
type Ranker interface {
	Rank(ctx context.Context, p Problem) (Result, error)
}
