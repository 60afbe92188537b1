package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetComposesBrailleDots(t *testing.T) {
	c := New(2, 1, 1)
	c.Set(0, 0, 0)
	c.Set(0, 1, 3)
	r, layer := c.Cell(0, 0)
	assert.Equal(t, rune(0x2800+0x01+0x80), r)
	assert.Equal(t, 0, layer)

	r, layer = c.Cell(1, 0)
	assert.Equal(t, rune(0x2800), r)
	assert.Equal(t, -1, layer)

	c.Set(0, 100, 100)
	c.Set(0, -1, 0)
	c.Set(5, 0, 0)
	assert.Equal(t, 4, c.DotWidth())
	assert.Equal(t, 4, c.DotHeight())
}

func TestLowestLayerColoursCell(t *testing.T) {
	c := New(1, 1, 2)
	c.Set(1, 0, 0)
	_, layer := c.Cell(0, 0)
	assert.Equal(t, 1, layer)

	c.Set(0, 1, 1)
	r, layer := c.Cell(0, 0)
	assert.Equal(t, 0, layer)
	assert.Equal(t, rune(0x2800+0x01+0x10), r)

	c.Clear(0)
	_, layer = c.Cell(0, 0)
	assert.Equal(t, 1, layer)
}

func TestBresenhamEndpoints(t *testing.T) {
	var dots []Dot
	Bresenham(Dot{X: 0, Y: 0}, Dot{X: 5, Y: 2}, func(x, y int) {
		dots = append(dots, Dot{X: x, Y: y})
	})
	assert.Equal(t, Dot{X: 0, Y: 0}, dots[0])
	assert.Equal(t, Dot{X: 5, Y: 2}, dots[len(dots)-1])
	assert.Len(t, dots, 6)
}

func TestStyledLineSkipsDots(t *testing.T) {
	c := New(4, 1, 1)
	c.StyledLine(0, Dot{X: 0, Y: 0}, Dot{X: 7, Y: 0}, func(x int) bool { return x%2 == 0 })
	for x := 0; x < 4; x++ {
		r, _ := c.Cell(x, 0)
		assert.Equal(t, rune(0x2800+0x01), r)
	}
}

func TestPath(t *testing.T) {
	c := New(2, 2, 1)
	c.Path(0, []Dot{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 7}})
	r, _ := c.Cell(1, 1)
	assert.Equal(t, rune(0x2800+0x08+0x10+0x20+0x80), r)

	single := New(1, 1, 1)
	single.Path(0, []Dot{{X: 1, Y: 2}})
	r, _ = single.Cell(0, 0)
	assert.Equal(t, rune(0x2800+0x20), r)
}
