package grid

// Option configures Compute.
type Option func(*config)

type config struct {
	gap float64
}

// WithGap sets the inter-cell gap in pixels (default DefaultGap).
func WithGap(gap float64) Option {
	return func(c *config) { c.gap = gap }
}

// Compute selects a shape for count participants and sizes its cells for a
// width×height container.
//
// When there is nobody to show the result is a single cell covering the
// whole container, without aspect correction.
func Compute(count int, width, height float64, opts ...Option) Layout {
	cfg := config{gap: DefaultGap}
	for _, opt := range opts {
		opt(&cfg)
	}
	count = max(count, 0)

	l := Layout{
		Count:     count,
		Container: Size{Width: width, Height: height},
		Gap:       cfg.gap,
	}

	if count == 0 {
		l.Shape = Shape{Columns: 1, Rows: 1}
		l.Cell = CellSize{Width: width, Height: height}
		return l
	}

	l.Shape = SelectShape(count, width, height)
	l.Cell = ComputeCellSize(l.Shape, width, height, cfg.gap)
	return l
}

// ComputeSize is Compute for a Size value.
func ComputeSize(count int, size Size, opts ...Option) Layout {
	return Compute(count, size.Width, size.Height, opts...)
}
