package grid

// SelectShape chooses the grid shape for count participants inside a
// width×height container.
//
// Presets follow common video-call layouts:
//
//	count   shape (cols×rows)
//	≤ 1     1×1
//	2       2×1, or 1×2 when the container is portrait
//	3–4     2×2
//	5–6     3×2
//	7–9     3×3
//	≥ 10    4×3
//
// The preset is then adjusted so it holds min(count, MaxCells) tiles and has
// no fully empty row or column. Negative counts are treated as zero.
func SelectShape(count int, width, height float64) Shape {
	s := preset(count, Size{Width: width, Height: height})

	effective := min(max(count, 0), MaxCells)
	if effective <= 0 {
		return Shape{Columns: 1, Rows: 1}
	}
	return fit(s, effective)
}

// preset returns the hand-tuned starting shape for count.
func preset(count int, container Size) Shape {
	switch {
	case count <= 1:
		return Shape{Columns: 1, Rows: 1}
	case count == 2:
		if container.Portrait() {
			return Shape{Columns: 1, Rows: 2}
		}
		return Shape{Columns: 2, Rows: 1}
	case count <= 4:
		return Shape{Columns: 2, Rows: 2}
	case count <= 6:
		return Shape{Columns: 3, Rows: 2}
	case count <= 9:
		return Shape{Columns: 3, Rows: 3}
	default:
		return Shape{Columns: 4, Rows: 3}
	}
}

// fit grows s until it can host effective cells (up to MaxCells), growing the
// smaller dimension first and rows on a tie, then trims each dimension to
// the tightest value that still holds effective cells.
func fit(s Shape, effective int) Shape {
	cols, rows := s.Columns, s.Rows
	for rows*cols < effective && rows*cols < MaxCells {
		if cols >= rows {
			rows++
		} else {
			cols++
		}
	}
	rows = max(1, min(rows, ceilDiv(effective, cols)))
	cols = max(1, min(cols, ceilDiv(effective, rows)))
	return Shape{Columns: cols, Rows: rows}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
