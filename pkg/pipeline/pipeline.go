// Package pipeline provides the layout → render pipeline shared by the CLI
// and the server.
//
// The pipeline has two stages:
//
//  1. Layout: resolve the participant list and plan an arrangement with
//     [tiles.Plan] for the requested container size and mode
//  2. Render: turn the arrangement into the requested formats (SVG, JSON,
//     YAML, text, PNG)
//
// Both stages are cached through [cache.Cache]: layouts by a hash of their
// inputs, artifacts by a hash of the arrangement plus the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Count:   6,
//	    Width:   1280,
//	    Height:  720,
//	    Formats: []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	a, err := runner.Layout(ctx, opts)
//	artifacts, err := runner.Render(ctx, a, opts)
package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/render/styles"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default container width in pixels.
	DefaultWidth = grid.DefaultWidth

	// DefaultHeight is the default container height in pixels.
	DefaultHeight = grid.DefaultHeight

	// DefaultStyle is the default visual style.
	DefaultStyle = "light"

	// DefaultMode is the default arrangement mode.
	DefaultMode = string(tiles.ModeGrid)
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "txt"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatYAML: true,
	FormatText: true,
	FormatDOT:  true,
}

// FormatNames returns the supported formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Count        int                 `json:"count,omitempty"`
	Names        []string            `json:"names,omitempty"`
	Participants []tiles.Participant `json:"participants,omitempty"`
	Width        float64             `json:"width,omitempty"`
	Height       float64             `json:"height,omitempty"`
	Gap          *float64            `json:"gap,omitempty"`
	Mode         string              `json:"mode,omitempty"`
	MaxVisible   int                 `json:"max_visible,omitempty"`
	SpeakerIndex int                 `json:"speaker_index,omitempty"`
	Refresh      bool                `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Style     string   `json:"style,omitempty"`
	TextWidth int      `json:"text_width,omitempty"`
	Scale     float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Arrangement is the planned tile placement.
	Arrangement tiles.Arrangement

	// InputHash identifies the participant list.
	InputHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Participants int
	Visible      int
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the arrangement came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is registered.
func ValidateStyle(style string) error {
	if _, err := styles.Lookup(style); err != nil || style == "" {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: %s)",
			style, strings.Join(styles.Names(), ", "))
	}
	return nil
}

// ValidateMode checks that a mode is valid.
func ValidateMode(mode string) error {
	if _, err := tiles.ParseMode(mode); err != nil || mode == "" {
		return errors.New(errors.ErrCodeInvalidMode, "invalid mode: %q (must be one of: grid, speaker)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 && o.Height == 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.Gap == nil {
		o.Gap = tiles.Gap(grid.DefaultGap)
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.MaxVisible == 0 {
		o.MaxVisible = tiles.DefaultMaxVisible
	}
	if o.Count == 0 && len(o.Participants) == 0 {
		o.Count = len(o.Names)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateCount(o.Count); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := errors.ValidateGap(*o.Gap); err != nil {
		return err
	}
	if o.MaxVisible < 0 {
		return errors.New(errors.ErrCodeInvalidCount, "max_visible cannot be negative: %d", o.MaxVisible)
	}
	return ValidateMode(o.Mode)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.TextWidth == 0 {
		o.TextWidth = 80
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 || o.Scale > 8 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be between 0 and 8: %g", o.Scale)
	}
	return ValidateStyle(o.Style)
}

// ValidateAndSetDefaults validates the options for the full pipeline.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// Size returns the container size.
func (o *Options) Size() grid.Size {
	return grid.Size{Width: o.Width, Height: o.Height}
}

// TileOptions returns the options passed to tiles.Plan.
func (o *Options) TileOptions() tiles.Options {
	mode, _ := tiles.ParseMode(o.Mode)
	return tiles.Options{
		Mode:         mode,
		MaxVisible:   o.MaxVisible,
		SpeakerIndex: o.SpeakerIndex,
		Gap:          o.Gap,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	gap := grid.DefaultGap
	if o.Gap != nil {
		gap = *o.Gap
	}
	return cache.LayoutKeyOpts{
		Count:        o.Count,
		Width:        o.Width,
		Height:       o.Height,
		Gap:          gap,
		Mode:         o.Mode,
		MaxVisible:   o.MaxVisible,
		SpeakerIndex: o.SpeakerIndex,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	style := o.Style
	switch format {
	case FormatText:
		style = fmt.Sprintf("%s/%d", style, o.TextWidth)
	case FormatPNG:
		style = fmt.Sprintf("%s/%g", style, o.Scale)
	}
	return cache.ArtifactKeyOpts{
		Format: format,
		Style:  style,
	}
}
