package pipeline

import (
	"sort"

	"github.com/flowkit/flowkit/pkg/diagram"
	"github.com/flowkit/flowkit/pkg/layout"
	"github.com/flowkit/flowkit/pkg/rank"
)

// GenerateDOT renders the diagram's top-level ranking problem as a DOT
// document, for inspection with standalone Graphviz. Every group appears as
// a cluster; direction overrides are not split into isolated passes here,
// since the output is a debugging aid rather than the engine input.
func GenerateDOT(g *diagram.Graph, cfg layout.Config) string {
	p := rank.Problem{
		Direction: g.Direction,
		Parent:    make(map[string]string),
		Spacing: rank.Spacing{
			NodeSep: cfg.NodeSep,
			RankSep: cfg.RankSep,
			Margin:  cfg.Margin,
		},
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := g.Nodes[id]
		w, h := n.Width, n.Height
		if w == 0 || h == 0 {
			w, h = layout.EstimateSize(n.Shape, n.Label, cfg)
		}
		p.Nodes = append(p.Nodes, rank.NodeSpec{ID: id, Width: w, Height: h})
	}

	g.Walk(func(parent, grp *diagram.Group) bool {
		p.Compounds = append(p.Compounds, grp.ID)
		if parent != nil {
			p.Parent[grp.ID] = parent.ID
		}
		for _, id := range grp.Members {
			if g.Nodes[id] != nil {
				p.Parent[id] = grp.ID
			}
		}
		return true
	})

	for _, e := range g.Edges {
		if g.Nodes[e.From] == nil || g.Nodes[e.To] == nil {
			continue
		}
		p.Edges = append(p.Edges, rank.EdgeSpec{From: e.From, To: e.To, Weight: 1})
	}

	return rank.BuildDOT(p)
}
