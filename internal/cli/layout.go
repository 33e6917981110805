package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowkit/flowkit/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning diagrams.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		direction  string
		configPath string
		noCache    bool
		refresh    bool
		redisAddr  string
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Compute node positions and edge routes for a diagram",
		Long: `Compute node positions and edge routes for a diagram.

The layout command takes a diagram document, measures every node from its
label and shape, ranks the graph through Graphviz, and routes orthogonal
edges between node boundaries. The output is the same document with
positions, edge paths, group bounds, and the canvas filled in.

Without an input file, an interactive picker lists the diagram documents in
the current directory.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 0 {
				input = args[0]
			} else {
				picked, err := pickDiagram(".")
				if err != nil || picked == "" {
					return err
				}
				input = picked
			}
			return c.runLayout(cmd.Context(), input, layoutRunOpts{
				output:     output,
				direction:  direction,
				configPath: configPath,
				noCache:    noCache,
				refresh:    refresh,
				redisAddr:  redisAddr,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "override flow direction: TD, BU, LR, RL")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML spacing config file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for the layout cache (default: file cache)")

	return cmd
}

type layoutRunOpts struct {
	output     string
	direction  string
	configPath string
	noCache    bool
	refresh    bool
	redisAddr  string
}

// runLayout loads the diagram, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, ro layoutRunOpts) error {
	cfg, err := loadLayoutConfig(ro.configPath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, ro.noCache, ro.redisAddr)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		Path:      input,
		Direction: ro.direction,
		Refresh:   ro.refresh,
		Config:    cfg,
		Logger:    loggerFromContext(ctx),
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := ro.output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := os.WriteFile(outputPath, result.Output, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Inspect", "flowkit dot "+input)

	return nil
}
