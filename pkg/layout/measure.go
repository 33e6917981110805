package layout

import (
	"math"
	"strings"

	"github.com/flowkit/flowkit/pkg/diagram"
)

// =============================================================================
// Node Size Estimation
// =============================================================================

// EstimateSize returns the minimum bounding size for a node of the given
// shape and label. It is a pure function with no failure mode: the result
// always satisfies the shape's minimum-size and aspect constraints.
//
// Diamonds and circles are square. A circle's diameter is large enough to
// inscribe the label's bounding rectangle.
func EstimateSize(shape diagram.Shape, label string, cfg Config) (w, h float64) {
	textW, textH := cfg.textExtents(label)
	pad := cfg.Shape

	switch shape {
	case diagram.ShapeDiamond:
		side := math.Max(textW+2*pad.Horizontal, textH+2*pad.Vertical) + pad.DiamondExtra
		side = math.Max(side, math.Max(pad.MinWidth, pad.MinHeight))
		return side, side

	case diagram.ShapeCircle:
		d := math.Ceil(math.Hypot(textW, textH)) + pad.CircleMargin
		d = math.Max(d, math.Max(pad.MinWidth, pad.MinHeight))
		return d, d

	case diagram.ShapeStadium:
		// Rounded caps eat half the height on each end.
		w = textW + 2*pad.Horizontal + textH + 2*pad.Vertical
		h = textH + 2*pad.Vertical

	case diagram.ShapeHexagon:
		h = textH + 2*pad.Vertical
		w = textW + 2*pad.Horizontal + h

	case diagram.ShapeCylinder:
		w = textW + 2*pad.Horizontal
		// Extra vertical room for the lid ellipse.
		h = (textH + 2*pad.Vertical) * 1.25

	default: // rect, rounded, and anything rectangle-like
		w = textW + 2*pad.Horizontal
		h = textH + 2*pad.Vertical
	}

	return math.Max(w, pad.MinWidth), math.Max(h, pad.MinHeight)
}

// measureNodes fills in Width and Height for every node in g.
func measureNodes(g *diagram.Graph, cfg Config) {
	for _, n := range g.Nodes {
		n.Width, n.Height = EstimateSize(n.Shape, n.Label, cfg)
	}
}

// textExtents approximates the bounding rectangle of a label.
//
// Width is the longest line's rune count scaled by the configured per-rune
// ratio. Height is the font size for the first line plus a full line-height
// step for each additional line.
func (c Config) textExtents(label string) (w, h float64) {
	if label == "" {
		return 0, 0
	}
	lines := strings.Split(label, "\n")
	maxRunes := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > maxRunes {
			maxRunes = n
		}
	}
	w = float64(maxRunes) * c.Font.Size * c.Font.WidthRatio
	h = c.Font.Size + float64(len(lines)-1)*c.Font.Size*c.Font.LineHeight
	return w, h
}
