package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowkit/flowkit/pkg/graphio"
	"github.com/flowkit/flowkit/pkg/pipeline"
)

// dotCommand creates the dot command for exporting the ranking problem.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "dot [diagram.json]",
		Short: "Export a diagram as Graphviz DOT",
		Long: `Export a diagram as Graphviz DOT.

The dot command writes the ranking problem the layout engine would hand to
Graphviz: measured node boxes, cluster subgraphs for groups, and edges. The
output runs through any Graphviz tool directly, which helps when debugging
unexpected rankings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadLayoutConfig(configPath)
			if err != nil {
				return err
			}
			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}

			dot := pipeline.GenerateDOT(g, cfg)

			if output == "" {
				fmt.Print(dot)
				return nil
			}
			if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess("DOT written")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML spacing config file")

	return cmd
}
