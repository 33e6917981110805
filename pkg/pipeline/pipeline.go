// Package pipeline provides the core layout pipeline for Flowkit.
//
// This package implements the complete read → layout → serialize pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Read: Decode and validate the diagram document
//  2. Layout: Measure, compose, and route the diagram
//  3. Serialize: Emit the positioned diagram as JSON
//
// The layout stage is cached: the key is the content hash of the input
// diagram plus the spacing configuration and effective direction, so
// identical requests never rerun the ranking engine.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Path: "diagram.json"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	positioned := result.Output
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowkit/flowkit/pkg/cache"
	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/layout"
	"github.com/flowkit/flowkit/pkg/rank"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Path is the diagram file to read. Ignored when Data is set.
	Path string `json:"path,omitempty"`

	// Data is an in-memory diagram document. Takes precedence over Path.
	Data []byte `json:"data,omitempty"`

	// Direction overrides the document's ambient flow direction.
	Direction string `json:"direction,omitempty"`

	// Refresh bypasses the layout cache and overwrites the entry.
	Refresh bool `json:"refresh,omitempty"`

	// Config holds the spacing constants. Zero value means defaults.
	Config layout.Config `json:"config,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Ranker rank.Ranker `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path == "" && o.Data == nil {
		return errors.New(errors.ErrCodeInvalidInput, "path or data is required")
	}
	if o.Direction != "" && !diagram.Direction(o.Direction).Valid() {
		return errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q", o.Direction)
	}
	if o.Config == (layout.Config{}) {
		o.Config = layout.DefaultConfig()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Ranker == nil {
		o.Ranker = rank.NewGraphvizRanker()
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts(configHash string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Direction:  o.Direction,
		ConfigHash: configHash,
	}
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the positioned diagram.
	Graph *diagram.Graph

	// GraphHash is the content hash of the input diagram.
	GraphHash string

	// Output is the positioned diagram serialized as JSON.
	Output []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	GroupCount int
	ReadTime   time.Duration
	LayoutTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
}

func countGroups(g *diagram.Graph) int {
	n := 0
	g.Walk(func(_, _ *diagram.Group) bool {
		n++
		return true
	})
	return n
}
