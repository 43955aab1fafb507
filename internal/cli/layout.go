package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// layoutCommand creates the layout command for computing a grid layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		gap     float64
		asJSON  bool
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout COUNT",
		Short: "Compute the grid layout for a participant count",
		Long: `Compute the grid layout for a participant count.

Prints the grid shape (columns x rows) and the 16:9 cell size that fits the
container. Counts above 12 are capped at the 4x3 maximum grid and the rest
are reported as overflow.

Results are cached locally for faster subsequent runs.`,
		Example: `  tilegrid layout 6
  tilegrid layout 4 --width 390 --height 844
  tilegrid layout 9 --gap 0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidCount, "count must be an integer: %q", args[0])
			}
			opts.Count = count
			if cmd.Flags().Changed("gap") {
				opts.Gap = tiles.Gap(gap)
			}
			return c.runLayout(cmd.Context(), opts, asJSON, noCache)
		},
	}

	cmd.Flags().Float64Var(&opts.Width, "width", 0, "container width in pixels (default from config)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "container height in pixels (default from config)")
	cmd.Flags().Float64Var(&gap, "gap", 0, "gap between cells in pixels (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout computes the arrangement and prints its grid layout.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, asJSON, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	applyConfigDefaults(&opts, cfg.Grid)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	a, cacheHit, err := runner.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a.Layout)
	}

	l := a.Layout
	printSuccess("Layout for %d participants", opts.Count)
	printKeyValue("Container", l.Container.String())
	printKeyValue("Grid", fmt.Sprintf("%s (%d cells)", l.Shape, l.Shape.Cells()))
	printKeyValue("Cell", fmt.Sprintf("%.1f x %.1f", l.Cell.Width, l.Cell.Height))
	printKeyValue("Gap", fmt.Sprintf("%g", l.Gap))
	printStats(a, cacheHit)
	printNewline()
	printNextStep("Render", fmt.Sprintf("tilegrid render --count %d", opts.Count))

	return nil
}
