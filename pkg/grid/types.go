package grid

import "fmt"

const (
	// DefaultGap is the inter-cell gap in pixels.
	DefaultGap = 8.0

	// TargetAspect is the width/height ratio cells are corrected toward.
	TargetAspect = 16.0 / 9.0

	// MaxCells is the largest number of cells a grid ever holds (4×3).
	MaxCells = 12

	// DefaultWidth and DefaultHeight describe the container assumed before
	// the first measurement arrives.
	DefaultWidth  = 640.0
	DefaultHeight = 360.0
)

// Shape is the number of columns and rows of a grid.
type Shape struct {
	Columns int `json:"columns" yaml:"columns" bson:"columns"`
	Rows    int `json:"rows" yaml:"rows" bson:"rows"`
}

// Cells returns the number of cells the shape holds.
func (s Shape) Cells() int { return s.Columns * s.Rows }

// String formats the shape as "COLSxROWS".
func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Columns, s.Rows) }

// Size is a container size in pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width" bson:"width"`
	Height float64 `json:"height" yaml:"height" bson:"height"`
}

// DefaultSize returns the 640×360 size used before anything is measured.
func DefaultSize() Size { return Size{Width: DefaultWidth, Height: DefaultHeight} }

// Portrait reports whether the container is taller than it is wide.
func (s Size) Portrait() bool { return s.Height > s.Width }

// Positive reports whether both dimensions are strictly positive.
func (s Size) Positive() bool { return s.Width > 0 && s.Height > 0 }

// String formats the size as "WxH".
func (s Size) String() string { return fmt.Sprintf("%.0fx%.0f", s.Width, s.Height) }

// CellSize is the pixel size of a single grid cell.
type CellSize struct {
	Width  float64 `json:"width" yaml:"width" bson:"width"`
	Height float64 `json:"height" yaml:"height" bson:"height"`
}

// Ready reports whether the cell has a drawable (strictly positive) size.
// Layouts with non-ready cells should be treated as "not yet measured".
func (c CellSize) Ready() bool { return c.Width > 0 && c.Height > 0 }

// Aspect returns Width/Height. It returns 0 when Height is 0.
func (c CellSize) Aspect() float64 {
	if c.Height == 0 {
		return 0
	}
	return c.Width / c.Height
}

// Layout is the result of a grid computation: the shape, the size of each
// cell, and the inputs that produced them.
type Layout struct {
	Shape     Shape    `json:"shape" yaml:"shape" bson:"shape"`
	Cell      CellSize `json:"cell" yaml:"cell" bson:"cell"`
	Count     int      `json:"count" yaml:"count" bson:"count"`
	Container Size     `json:"container" yaml:"container" bson:"container"`
	Gap       float64  `json:"gap" yaml:"gap" bson:"gap"`
}

// Filled returns how many cells hold a participant: min(Count, Shape.Cells()).
func (l Layout) Filled() int {
	return min(l.Count, l.Shape.Cells())
}

// Overflow returns how many participants do not fit in the grid.
func (l Layout) Overflow() int {
	return max(0, l.Count-l.Shape.Cells())
}
