// Package canvas draws on a layered braille dot grid.
package canvas

// Each terminal cell holds a 2x4 block of braille dots.
const (
	DotsPerCellX = 2
	DotsPerCellY = 4
)

// Dot is a position in dot coordinates.
type Dot struct {
	X, Y int
}

// Canvas is a grid of braille cells split into layers. When several layers
// ink the same cell, the lowest layer index decides its colour.
type Canvas struct {
	width  int
	height int
	layers [][][]uint8
}

// New returns a canvas of width x height cells with the given number of layers.
func New(width, height, layers int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if layers < 1 {
		layers = 1
	}
	c := &Canvas{width: width, height: height, layers: make([][][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = makeCells(height, width)
	}
	return c
}

// Width returns the width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the height in cells.
func (c *Canvas) Height() int { return c.height }

// DotWidth returns the width in dots.
func (c *Canvas) DotWidth() int { return c.width * DotsPerCellX }

// DotHeight returns the height in dots.
func (c *Canvas) DotHeight() int { return c.height * DotsPerCellY }

// Clear removes every dot from layer.
func (c *Canvas) Clear(layer int) {
	if layer < 0 || layer >= len(c.layers) {
		return
	}
	c.layers[layer] = makeCells(c.height, c.width)
}

// Set turns on the dot at x, y. Out of range dots are ignored.
func (c *Canvas) Set(layer, x, y int) {
	if layer < 0 || layer >= len(c.layers) || x < 0 || y < 0 {
		return
	}
	cells := c.layers[layer]
	cellY := y / DotsPerCellY
	cellX := x / DotsPerCellX
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= dotMask(x%DotsPerCellX, y%DotsPerCellY)
}

// Line draws a straight line between two dots.
func (c *Canvas) Line(layer int, from, to Dot) {
	c.StyledLine(layer, from, to, nil)
}

// StyledLine draws a line, keeping only dots whose x coordinate keep accepts.
func (c *Canvas) StyledLine(layer int, from, to Dot, keep func(x int) bool) {
	Bresenham(from, to, func(x, y int) {
		if keep == nil || keep(x) {
			c.Set(layer, x, y)
		}
	})
}

// Path draws consecutive dots joined by lines.
func (c *Canvas) Path(layer int, dots []Dot) {
	if len(dots) == 1 {
		c.Set(layer, dots[0].X, dots[0].Y)
		return
	}
	for i := 1; i < len(dots); i++ {
		c.Line(layer, dots[i-1], dots[i])
	}
}

// Cell returns the composed rune at a cell and the layer that colours it,
// or -1 when the cell is blank.
func (c *Canvas) Cell(x, y int) (rune, int) {
	var mask uint8
	layer := -1
	for i, cells := range c.layers {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if layer == -1 {
			layer = i
		}
		mask |= cellMask
	}
	return Rune(mask), layer
}

// Rune converts a dot mask to its braille rune.
func Rune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

// Bresenham calls plot for every dot on the line between from and to.
func Bresenham(from, to Dot, plot func(x, y int)) {
	x0, y0, x1, y1 := from.X, from.Y, to.X, to.Y
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func dotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}
