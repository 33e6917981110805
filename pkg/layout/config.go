package layout

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/flowkit/flowkit/pkg/errors"
)

// =============================================================================
// Config - Layout Spacing and Typography
// =============================================================================

// Config holds every spacing constant the layout engine uses.
// All values are in canvas units (CSS pixels at 96dpi).
type Config struct {
	// NodeSep is the minimum gap between nodes on the same rank.
	NodeSep float64 `toml:"node_sep"`

	// RankSep is the minimum gap between consecutive ranks.
	RankSep float64 `toml:"rank_sep"`

	// Margin is the canvas margin kept clear on every side.
	Margin float64 `toml:"margin"`

	// SubgraphMargin is the tighter margin used when a direction-overriding
	// group is laid out in isolation.
	SubgraphMargin float64 `toml:"subgraph_margin"`

	// GroupPadding is the clearance between a group's tight content box and
	// its drawn border.
	GroupPadding float64 `toml:"group_padding"`

	// HeaderHeight is the band reserved at the top of a labeled group.
	HeaderHeight float64 `toml:"header_height"`

	// ContentGap separates a group's header band from its content.
	ContentGap float64 `toml:"content_gap"`

	Font  FontMetrics  `toml:"font"`
	Shape ShapePadding `toml:"shape"`
}

// FontMetrics approximates text extents without a font engine.
// Width is estimated as rune count x Size x WidthRatio; height as line
// count x Size x LineHeight.
type FontMetrics struct {
	Size       float64 `toml:"size"`
	WidthRatio float64 `toml:"width_ratio"`
	LineHeight float64 `toml:"line_height"`
}

// ShapePadding holds per-shape padding and minimum sizes.
type ShapePadding struct {
	// Horizontal and Vertical pad the label on each side.
	Horizontal float64 `toml:"horizontal"`
	Vertical   float64 `toml:"vertical"`

	// DiamondExtra is added to a diamond's side beyond the padded label box.
	DiamondExtra float64 `toml:"diamond_extra"`

	// CircleMargin is added to a circle's diameter beyond the label diagonal.
	CircleMargin float64 `toml:"circle_margin"`

	// MinWidth and MinHeight clamp every shape's final size.
	MinWidth  float64 `toml:"min_width"`
	MinHeight float64 `toml:"min_height"`
}

// DefaultConfig returns the spacing constants used when no config file or
// flag overrides are given.
func DefaultConfig() Config {
	return Config{
		NodeSep:        50,
		RankSep:        60,
		Margin:         20,
		SubgraphMargin: 8,
		GroupPadding:   12,
		HeaderHeight:   24,
		ContentGap:     8,
		Font: FontMetrics{
			Size:       13,
			WidthRatio: 0.6,
			LineHeight: 1.35,
		},
		Shape: ShapePadding{
			Horizontal:   16,
			Vertical:     10,
			DiamondExtra: 24,
			CircleMargin: 12,
			MinWidth:     40,
			MinHeight:    30,
		},
	}
}

// LoadConfig reads a TOML config file and overlays it on the defaults.
// Missing keys keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configs that would produce degenerate geometry.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"node_sep", c.NodeSep},
		{"rank_sep", c.RankSep},
		{"margin", c.Margin},
		{"font.size", c.Font.Size},
		{"font.width_ratio", c.Font.WidthRatio},
		{"font.line_height", c.Font.LineHeight},
		{"shape.min_width", c.Shape.MinWidth},
		{"shape.min_height", c.Shape.MinHeight},
	}
	for _, ch := range checks {
		if ch.value <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be positive, got %v", ch.name, ch.value)
		}
	}
	for _, ch := range []struct {
		name  string
		value float64
	}{
		{"subgraph_margin", c.SubgraphMargin},
		{"group_padding", c.GroupPadding},
		{"header_height", c.HeaderHeight},
		{"content_gap", c.ContentGap},
		{"shape.horizontal", c.Shape.Horizontal},
		{"shape.vertical", c.Shape.Vertical},
		{"shape.diamond_extra", c.Shape.DiamondExtra},
		{"shape.circle_margin", c.Shape.CircleMargin},
	} {
		if ch.value < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative, got %v", ch.name, ch.value)
		}
	}
	return nil
}

// String summarizes the key spacing values for logging.
func (c Config) String() string {
	return fmt.Sprintf("nodesep=%.0f ranksep=%.0f margin=%.0f font=%.0fpt",
		c.NodeSep, c.RankSep, c.Margin, c.Font.Size)
}
