// Package pkg provides the core libraries for Flowkit diagram layout.
//
// # Overview
//
// Flowkit turns a diagram document (nodes, edges, groups) into a positioned
// diagram: every node gets a size and center, every edge an orthogonal path
// with a label anchor, every group a bounding box, and the whole drawing a
// normalized canvas. The pkg directory is organized into:
//
//  1. [diagram] - The graph model (nodes, edges, groups, directions)
//  2. [geo] - Points, rectangles, and the geometric helpers layout needs
//  3. [layout] - Measurement, composition, group handling, edge routing
//  4. [rank] - The ranking engine interface and the Graphviz implementation
//  5. [graphio] - Reading and writing diagram documents as JSON
//  6. [pipeline] - Orchestration (read -> layout -> serialize) with caching
//  7. [cache] - Cache backends (file, memory, redis) and key derivation
//  8. [errors] - Structured error codes shared across the module
//  9. [observability] - Hook registry for instrumenting layout and caching
//
// # Architecture
//
// The typical data flow through Flowkit:
//
//	diagram.json
//	     |
//	[graphio] decode and validate
//	     |
//	[layout] measure nodes, precompute override groups
//	     |
//	[rank] Graphviz dot assigns ranks and spline hints
//	     |
//	[layout] composite subgraphs, route edges, expand groups
//	     |
//	positioned diagram.json
//
// # Quick Start
//
// Lay out a document through the pipeline:
//
//	import (
//	    "context"
//	    "github.com/flowkit/flowkit/pkg/cache"
//	    "github.com/flowkit/flowkit/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Path: "diagram.json",
//	})
//	// result.Output holds the positioned document.
//
// Or drive the layout engine directly on an in-memory graph:
//
//	import (
//	    "github.com/flowkit/flowkit/pkg/layout"
//	    "github.com/flowkit/flowkit/pkg/rank"
//	)
//
//	err := layout.Compose(ctx, g, layout.DefaultConfig(), rank.NewGraphvizRanker())
package pkg
