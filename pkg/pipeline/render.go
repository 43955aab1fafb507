package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/tilegrid/pkg/render/sink"
	"github.com/matzehuels/tilegrid/pkg/render/styles"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// RenderFromArrangement generates output artifacts in the requested formats.
func RenderFromArrangement(ctx context.Context, a tiles.Arrangement, opts Options) (map[string][]byte, error) {
	style, err := styles.Lookup(opts.Style)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(a, sink.WithStyle(style))
		case FormatJSON:
			data, err = sink.RenderJSON(a, sink.WithJSONStyle(style.Name()), sink.WithJSONSlots())
		case FormatYAML:
			data, err = sink.RenderYAML(a, sink.WithJSONStyle(style.Name()))
		case FormatText:
			data = []byte(sink.RenderText(a, sink.WithTextWidth(opts.TextWidth)))
		case FormatDOT:
			data = []byte(sink.ToDOT(a))
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, a, sink.WithScale(opts.Scale))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
