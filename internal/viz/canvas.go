package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// DefaultMinAlpha hides dots fainter than this.
const DefaultMinAlpha = 0.05

// Canvas is a braille surface with one colour per character cell. The
// strongest dot drawn into a cell decides its colour.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	MinAlpha      float64

	colors [][]string
	weight [][]float64
	styles map[string]lipgloss.Style
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{MinAlpha: DefaultMinAlpha, styles: make(map[string]lipgloss.Style)}
	c.Resize(w, h)
	return c
}

// Resize reallocates the grid; contents are discarded.
func (c *Canvas) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c.Width, c.Height = w, h
	c.Grid = make([][]rune, h)
	c.colors = make([][]string, h)
	c.weight = make([][]float64, h)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.colors[i] = make([]string, w)
		c.weight[i] = make([]float64, w)
	}
	c.Clear()
}

// Size reports the canvas in dot coordinates, two across and four down per
// cell.
func (c *Canvas) Size() (float64, float64) {
	return float64(c.Width * 2), float64(c.Height * 4)
}

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, false
	}
	return row, col, true
}

// Set lights the dot at (x, y) in dot coordinates.
func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.colors[i][j] = ""
			c.weight[i][j] = 0
		}
	}
}

// FillCircle lights every dot inside the circle. Circles smaller than a dot
// still light the dot under their centre.
func (c *Canvas) FillCircle(cx, cy, r float64, color string, alpha float64) {
	if alpha < c.MinAlpha {
		return
	}
	r = math.Max(r, 0.5)
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	r2 := r * r
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r2 {
				c.paint(x, y, color, alpha)
			}
		}
	}
	c.paint(int(cx), int(cy), color, alpha)
}

func (c *Canvas) paint(x, y int, color string, alpha float64) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if alpha >= c.weight[row][col] {
		c.weight[row][col] = alpha
		c.colors[row][col] = shade(color, alpha)
	}
}

// shade darkens a hex colour toward black as alpha falls.
func shade(hex string, alpha float64) string {
	if hex == "" {
		return ""
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return colorful.Color{}.BlendRgb(col, math.Min(1, alpha)).Clamped().Hex()
}

// Plain renders the grid without colour.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// String renders the grid, styling runs of cells that share a colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.colors[i][j] == c.colors[i][start] {
				continue
			}
			b.WriteString(c.style(c.colors[i][start]).Render(string(row[start:j])))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Canvas) style(color string) lipgloss.Style {
	if s, ok := c.styles[color]; ok {
		return s
	}
	s := lipgloss.NewStyle()
	if color != "" {
		s = s.Foreground(lipgloss.Color(color))
	}
	c.styles[color] = s
	return s
}
