package grid

// ComputeCellSize returns the size of one cell of shape inside a
// width×height container with gap pixels between neighbouring cells.
//
// The container is divided evenly after subtracting (columns-1) horizontal
// and (rows-1) vertical gaps. The resulting cell is then corrected toward
// TargetAspect by shrinking whichever dimension is too large; it is never
// grown. Containers smaller than their gaps yield non-positive sizes, which
// callers should treat as "not yet measured" (see CellSize.Ready).
//
// A negative gap is treated as zero.
func ComputeCellSize(shape Shape, width, height, gap float64) CellSize {
	cols := max(shape.Columns, 1)
	rows := max(shape.Rows, 1)
	gap = max(gap, 0)

	availW := width - float64(cols-1)*gap
	availH := height - float64(rows-1)*gap

	c := CellSize{
		Width:  availW / float64(cols),
		Height: availH / float64(rows),
	}
	return correctAspect(c)
}

// correctAspect shrinks one dimension of c toward TargetAspect.
// Cells that are not Ready are returned unchanged so a degenerate dimension
// never grows back toward a positive value.
func correctAspect(c CellSize) CellSize {
	if !c.Ready() {
		return c
	}
	switch aspect := c.Width / c.Height; {
	case aspect > TargetAspect:
		c.Width = c.Height * TargetAspect
	case aspect < TargetAspect:
		c.Height = c.Width / TargetAspect
	}
	return c
}
