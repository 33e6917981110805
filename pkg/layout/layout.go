// Package layout turns a parsed diagram graph into a fully positioned one:
// absolute node centers and sizes, orthogonal multi-point edge paths with
// label anchors and approach angles, group bounding boxes with header
// bands, and overall canvas bounds.
//
// The engine composes results from multiple independent ranking passes:
// groups that override the flow direction are laid out in isolation and
// merged back as fixed-size placeholders, while edges that cross group
// boundaries are redirected to representative nodes and repaired after
// compositing. The ranking algorithm itself is an external black box
// behind the rank.Ranker interface.
//
// # Phases
//
//  1. Measure: estimate a minimum size per node from shape and label.
//  2. Precompute: isolated ranking passes for direction-overriding groups,
//     deepest-first.
//  3. Compose: build the top-level ranking problem (real nodes, group
//     placeholders, compound nodes), redirect cross-boundary edges, rank.
//  4. Composite: merge precomputed content at placeholder offsets and
//     repair redirected edge endpoints.
//  5. Route: shape-aware clipping and orthogonal correction of edge paths.
//  6. Expand: grow group boxes for header bands, then normalize the canvas.
//
// # Concurrency
//
// A layout call is synchronous, deterministic, and holds no global state.
// Independent graphs may be laid out concurrently; a single graph must not
// be shared between concurrent calls.
package layout

import (
	"context"
	"time"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/observability"
	"github.com/flowkit/flowkit/pkg/rank"
)

// Compose lays out g in place using the given spacing configuration and
// ranking engine. On return every node has a non-degenerate size and
// position, every surviving edge has an orthogonal path with label anchor
// and approach angles, every group has bounds and header height, and
// g.Canvas covers everything plus the configured margin.
//
// The only failure mode is a structural rejection by the ranking engine,
// which is returned verbatim; edges or memberships referencing unknown ids
// are skipped silently.
func Compose(ctx context.Context, g *diagram.Graph, cfg Config, ranker rank.Ranker) error {
	start := time.Now()
	hooks := observability.Layout()

	eng := &engine{
		g:      g,
		cfg:    cfg,
		ranker: ranker,
		pre:    make(map[string]*precomputed),
		edges:  make([]edgeState, len(g.Edges)),
	}

	measureNodes(g, cfg)
	hooks.OnMeasure(ctx, len(g.Nodes))

	if err := eng.precomputeGroups(ctx); err != nil {
		hooks.OnComposeComplete(ctx, time.Since(start), err)
		return err
	}

	f, err := eng.composeTop(ctx)
	if err != nil {
		hooks.OnComposeComplete(ctx, time.Since(start), err)
		return err
	}

	for id, c := range f.centers {
		if n := g.Nodes[id]; n != nil {
			n.Center = c
		}
	}
	for idx, e := range g.Edges {
		if eng.edges[idx].class == edgeDropped {
			e.Points = nil
			continue
		}
		if pts, ok := f.paths[idx]; ok {
			e.Points = pts
		}
	}

	expandGroups(g, cfg, f.boxes)
	normalizeCanvas(g, cfg)

	for _, e := range g.Edges {
		finishEdge(e)
	}

	hooks.OnComposeComplete(ctx, time.Since(start), nil)
	return nil
}
