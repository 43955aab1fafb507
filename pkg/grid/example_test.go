package grid_test

import (
	"fmt"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

func ExampleSelectShape() {
	fmt.Println(grid.SelectShape(2, 800, 600))
	fmt.Println(grid.SelectShape(2, 600, 800))
	fmt.Println(grid.SelectShape(5, 800, 600))
	fmt.Println(grid.SelectShape(25, 800, 600))
	// Output:
	// 2x1
	// 1x2
	// 3x2
	// 4x3
}

func ExampleCompute() {
	l := grid.Compute(6, 1280, 720)
	fmt.Printf("%s %.1fx%.1f\n", l.Shape, l.Cell.Width, l.Cell.Height)
	// Output:
	// 3x2 421.3x237.0
}

func ExampleCellSize_Ready() {
	l := grid.Compute(12, 16, 16)
	fmt.Println(l.Cell.Ready())
	// Output:
	// false
}
