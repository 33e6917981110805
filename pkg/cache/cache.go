// Package cache provides the caching layer shared by the CLI and the API
// server: computed layouts are keyed by graph content and layout options so
// identical requests skip the ranking engine entirely.
//
// Backends implement the Cache interface; keys are produced by a Keyer so
// callers never concatenate key strings by hand. The file backend serves
// single-user CLI runs, the Redis backend serves the server deployment, and
// the null backend disables caching.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	// TTLLayout bounds how long a computed layout stays valid. Layouts are
	// pure functions of their key, so this mainly caps cache growth.
	TTLLayout = 7 * 24 * time.Hour

	// TTLDOT bounds cached ranking-problem renderings used by the debug
	// tooling.
	TTLDOT = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl stores forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts captures everything besides the graph itself that changes a
// layout result.
type LayoutKeyOpts struct {
	Direction  string
	ConfigHash string
}

// Keyer builds cache keys for the entry kinds Flowkit stores.
type Keyer interface {
	// LayoutKey identifies a positioned layout: the graph content hash plus
	// the options that influence positioning.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// DOTKey identifies a generated ranking-problem document for a graph.
	DOTKey(graphHash, direction string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// DOTKey generates a key for cached DOT documents.
func (k *DefaultKeyer) DOTKey(graphHash, direction string) string {
	return hashKey("dot", graphHash, direction)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
