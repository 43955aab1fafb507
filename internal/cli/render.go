package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// defaultOutputBase is the base file name used when --output is not given.
const defaultOutputBase = "tilegrid"

// renderOpts holds the command-line flags for the render command that do not
// map directly onto pipeline.Options.
type renderOpts struct {
	output       string  // output file (single format) or base path (multiple)
	formats      string  // comma-separated output formats
	names        string  // comma-separated display names
	participants string  // YAML or JSON participant list
	gap          float64 // gap between cells, applied only when set
	noCache      bool
}

// renderCommand creates the render command for drawing arrangements.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a participant arrangement",
		Long: `Render a participant arrangement to one or more files.

Participants come from --count, from --names, or from a YAML/JSON file passed
with --participants. The first participants in the list get the visible
tiles; anything past --max-visible is summarized as "+N more".

Formats: svg (default), png, json, yaml, dot, txt. Pass several with -f svg,png
to write one file per format next to the --output base path. Use -o - to
write a single format to stdout.`,
		Example: `  tilegrid render --count 6
  tilegrid render --names Ada,Grace,Linus -f svg,png -o call
  tilegrid render --participants room.yaml --mode speaker --speaker 2
  tilegrid render --count 9 -f txt -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(ro.formats)
			opts.Names = parseNames(ro.names)
			if cmd.Flags().Changed("gap") {
				opts.Gap = tiles.Gap(ro.gap)
			}
			if ro.participants != "" {
				ps, err := readParticipants(ro.participants)
				if err != nil {
					return err
				}
				opts.Participants = ps
			}
			return c.runRender(cmd.Context(), opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple), - for stdout")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): "+strings.Join(pipeline.FormatNames(), ", ")+" (comma-separated)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Participant flags
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "number of participants")
	cmd.Flags().StringVar(&ro.names, "names", "", "participant display names (comma-separated)")
	cmd.Flags().StringVarP(&ro.participants, "participants", "p", "", "participant list file (YAML or JSON)")

	// Layout flags
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "container width in pixels (default from config)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "container height in pixels (default from config)")
	cmd.Flags().Float64Var(&ro.gap, "gap", 0, "gap between cells in pixels (default from config)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "arrangement mode: grid (default), speaker")
	cmd.Flags().IntVar(&opts.SpeakerIndex, "speaker", 0, "index of the large tile in speaker mode")
	cmd.Flags().IntVar(&opts.MaxVisible, "max-visible", 0, "participants shown before overflow (default from config)")

	// Render flags
	cmd.Flags().StringVar(&opts.Style, "style", "", "visual style: light (default), dark")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (2 for high-DPI)")
	cmd.Flags().IntVar(&opts.TextWidth, "text-width", 0, "column width of txt output")

	return cmd
}

// runRender executes the pipeline and writes every requested format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, ro renderOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	applyConfigDefaults(&opts, cfg.Grid)

	if ro.output == "-" && len(opts.Formats) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot write %d formats to stdout", len(opts.Formats))
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	var spinner *Spinner
	if ro.output != "-" {
		spinner = newSpinnerWithContext(ctx, "Rendering...")
		spinner.Start()
	}
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner != nil {
			spinner.StopWithError("Render failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Stop()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if ro.output == "-" {
		_, err := c.stdout.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(ro.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
		logger.Debugf("Generated %s: %d bytes", paths[format], len(result.Artifacts[format]))
	}

	prog.done(fmt.Sprintf("Rendered %d formats", len(opts.Formats)))
	printSuccess("Rendered %d participants", result.Stats.Participants)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(result.Arrangement, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

// outputPaths maps each format to its output file. A single format written
// to an explicit path keeps that path; otherwise files are named base.format.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && basePath(output) != output {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output. An empty output
// gives the default base name.
func basePath(output string) string {
	if output == "" {
		return defaultOutputBase
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// readParticipants loads a participant list. JSON is valid YAML, so one
// decoder reads both. Entries without an ID get one from their position.
func readParticipants(path string) ([]tiles.Participant, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read participants: %w", err)
	}
	return parseParticipants(data)
}

func parseParticipants(data []byte) ([]tiles.Participant, error) {
	var ps []tiles.Participant
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse participants")
	}
	for i := range ps {
		if ps[i].ID == "" {
			ps[i].ID = fmt.Sprintf("p%d", i+1)
		}
		if err := errors.ValidateParticipantID(ps[i].ID); err != nil {
			return nil, err
		}
		if err := errors.ValidateDisplayName(ps[i].Name); err != nil {
			return nil, err
		}
	}
	return ps, nil
}
