// Package graphio reads and writes diagram graphs as JSON.
//
// The same document shape is used before and after layout: an unpositioned
// input carries ids, labels, shapes, edges and groups; a positioned output
// additionally carries sizes, centers, edge paths, group bounds and canvas
// bounds. Import, layout, export, re-import round-trips cleanly.
package graphio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/geo"
)

// =============================================================================
// Document - Diagram Serialization Format
// =============================================================================

// Document is the canonical JSON shape for a diagram graph.
// Nodes are sorted by id on output for deterministic bytes.
type Document struct {
	Direction diagram.Direction `json:"direction,omitempty" bson:"direction,omitempty"`
	Nodes     []*diagram.Node   `json:"nodes" bson:"nodes"`
	Edges     []*diagram.Edge   `json:"edges,omitempty" bson:"edges,omitempty"`
	Groups    []*diagram.Group  `json:"groups,omitempty" bson:"groups,omitempty"`
	Canvas    geo.Rect          `json:"canvas,omitempty" bson:"canvas,omitempty"`
}

// FromGraph converts a graph to its serialization format.
func FromGraph(g *diagram.Graph) Document {
	nodes := make([]*diagram.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *diagram.Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return Document{
		Direction: g.Direction,
		Nodes:     nodes,
		Edges:     g.Edges,
		Groups:    g.Groups,
		Canvas:    g.Canvas,
	}
}

// ToGraph converts a document into a graph, validating its structure.
// Unknown shapes and missing directions fall back to defaults; duplicate or
// empty node ids are rejected.
func (d Document) ToGraph() (*diagram.Graph, error) {
	dir := d.Direction
	if dir == "" {
		dir = diagram.TopDown
	}
	if !dir.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q", d.Direction)
	}

	g := diagram.New(dir)
	for _, n := range d.Nodes {
		if n.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node with empty id")
		}
		if g.Nodes[n.ID] != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
		}
		if n.Shape == "" {
			n.Shape = diagram.ShapeRect
		}
		g.AddNode(n)
	}
	g.Edges = d.Edges
	g.Groups = d.Groups
	g.Canvas = d.Canvas

	if err := validateGroups(g); err != nil {
		return nil, err
	}
	return g, nil
}

// validateGroups rejects duplicate group ids and invalid direction
// overrides. Memberships naming unknown nodes are left alone; layout skips
// them.
func validateGroups(g *diagram.Graph) error {
	seen := make(map[string]bool)
	var err error
	g.Walk(func(_, grp *diagram.Group) bool {
		if grp.ID == "" {
			err = errors.New(errors.ErrCodeInvalidInput, "group with empty id")
			return false
		}
		if seen[grp.ID] {
			err = errors.New(errors.ErrCodeInvalidInput, "duplicate group id %q", grp.ID)
			return false
		}
		seen[grp.ID] = true
		if grp.Direction != "" && !grp.Direction.Valid() {
			err = errors.New(errors.ErrCodeInvalidDirection,
				"group %q: invalid direction %q", grp.ID, grp.Direction)
			return false
		}
		return true
	})
	return err
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal converts a graph to JSON bytes.
// Nodes are sorted by id for deterministic output.
func Marshal(g *diagram.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a graph.
func Unmarshal(data []byte) (*diagram.Graph, error) {
	return readFrom(bytes.NewReader(data))
}

// Write writes a graph as JSON to an io.Writer.
func Write(g *diagram.Graph, w io.Writer) error {
	return writeTo(g, w)
}

// WriteFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(g *diagram.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(g, f)
}

// Read decodes a JSON diagram from an io.Reader.
func Read(r io.Reader) (*diagram.Graph, error) {
	return readFrom(r)
}

// ReadFile reads a JSON file and returns the decoded graph.
func ReadFile(path string) (*diagram.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "diagram file %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(g *diagram.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*diagram.Graph, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode diagram")
	}
	return d.ToGraph()
}
