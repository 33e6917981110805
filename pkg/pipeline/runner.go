package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowkit/flowkit/pkg/cache"
	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/graphio"
	"github.com/flowkit/flowkit/pkg/layout"
	"github.com/flowkit/flowkit/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete read → layout → serialize pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Read
	readStart := time.Now()
	g, err := r.Read(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ReadTime = time.Since(readStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.Stats.GroupCount = countGroups(g)

	if opts.Direction != "" {
		g.Direction = diagram.Direction(opts.Direction)
	}

	// Content hash of the effective input, for cache keys and API responses.
	input, err := graphio.Marshal(g)
	if err != nil {
		return nil, err
	}
	result.GraphHash = cache.Hash(input)

	r.Logger.Info("read diagram",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"groups", result.Stats.GroupCount,
		"duration", result.Stats.ReadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	positioned, hit, err := r.layoutWithCache(ctx, g, result.GraphHash, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = positioned
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"canvas_w", positioned.Canvas.Width,
		"canvas_h", positioned.Canvas.Height,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Serialize
	result.Output, err = graphio.Marshal(positioned)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Read decodes the diagram named by opts without laying it out.
func (r *Runner) Read(opts Options) (*diagram.Graph, error) {
	if opts.Data != nil {
		return graphio.Unmarshal(opts.Data)
	}
	return graphio.ReadFile(opts.Path)
}

// Layout computes a positioned diagram for g, consulting the cache first.
// The input graph is not modified; the returned graph is a fresh decode of
// either the cached bytes or the freshly composed result.
func (r *Runner) Layout(ctx context.Context, g *diagram.Graph, opts Options) (*diagram.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	input, err := graphio.Marshal(g)
	if err != nil {
		return nil, err
	}
	positioned, _, err := r.layoutWithCache(ctx, g, cache.Hash(input), opts)
	return positioned, err
}

// layoutWithCache is the cached layout stage. It reports whether the result
// came from cache.
func (r *Runner) layoutWithCache(ctx context.Context, g *diagram.Graph, graphHash string, opts Options) (*diagram.Graph, bool, error) {
	hooks := observability.Cache()
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts(configHash(opts.Config)))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := graphio.Unmarshal(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Undecodable entry; recompute and overwrite.
			_ = r.Cache.Delete(ctx, key)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	// Compose mutates the graph in place; work on a decoded copy so the
	// caller's graph stays untouched.
	input, err := graphio.Marshal(g)
	if err != nil {
		return nil, false, err
	}
	work, err := graphio.Unmarshal(input)
	if err != nil {
		return nil, false, err
	}
	if err := layout.Compose(ctx, work, opts.Config, opts.Ranker); err != nil {
		return nil, false, err
	}

	if data, err := graphio.Marshal(work); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return work, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// configHash fingerprints a spacing configuration for cache keys.
func configHash(cfg layout.Config) string {
	data, _ := json.Marshal(cfg)
	return cache.Hash(data)
}
