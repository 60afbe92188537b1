package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/sketchcoach/internal/canvas"
)

// Scale selects how a series maps onto plot rows.
type Scale int

const (
	// ScaleAuto stretches a series between its own minimum and maximum.
	ScaleAuto Scale = iota
	// ScalePercent pins a series to 0..100.
	ScalePercent
)

// Series is a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
	Scale  Scale
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisWidth         = 4
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"
)

// Dash patterns cycle per series so overlapping lines stay apart without color.
var dashes = []struct {
	name   string
	period int
	on     int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
	{"dashdot", 8, 3},
}

var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m", "\x1b[34m"}

type plot struct {
	title  string
	series []Series
	lo, hi []float64
	width  int
	height int
	color  bool
}

// PlotSeries renders a braille line plot for the series. Non-positive sizes pick defaults.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor is PlotSeries with color forced on for non-terminal writers.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	p := newPlot(title, series, width, height, useColor(w, forceColor))
	if p == nil {
		return nil
	}
	var b strings.Builder
	p.render(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

func newPlot(title string, series []Series, width, height int, color bool) *plot {
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	p := &plot{title: title, width: width, height: height, color: color}
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lo, hi := 0.0, 100.0
		if s.Scale == ScaleAuto {
			lo, hi = bounds(s.Values)
		}
		values := fitWidth(s.Values, width)
		p.series = append(p.series, Series{Name: s.Name, Values: values, Scale: s.Scale})
		p.lo = append(p.lo, lo)
		p.hi = append(p.hi, hi)
	}
	if len(p.series) == 0 {
		return nil
	}
	return p
}

func (p *plot) render(b *strings.Builder) {
	grid := canvas.New(p.width, p.height, len(p.series))
	for i, s := range p.series {
		dash := dashes[i%len(dashes)]
		keep := func(x int) bool { return dash.period <= 1 || x%dash.period < dash.on }
		dots := make([]canvas.Dot, len(s.Values))
		for x, v := range s.Values {
			dots[x] = canvas.Dot{X: x * canvas.DotsPerCellX, Y: p.row(i, v, grid.DotHeight())}
		}
		for x := 1; x < len(dots); x++ {
			grid.StyledLine(i, dots[x-1], dots[x], keep)
		}
		if len(dots) == 1 {
			grid.Set(i, dots[0].X, dots[0].Y)
		}
	}

	if p.title != "" {
		b.WriteString(p.title + "\n")
	}
	for i, s := range p.series {
		if s.Scale == ScaleAuto {
			fmt.Fprintf(b, "%s scaled to %.0f..%.0f\n", s.Name, p.lo[i], p.hi[i])
		}
	}
	labels := p.axisLabels()
	for y := 0; y < p.height; y++ {
		fmt.Fprintf(b, "%*s%s", axisWidth, labels[y], axisSeparator)
		for x := 0; x < p.width; x++ {
			r, layer := grid.Cell(x, y)
			b.WriteString(p.paint(layer, string(r)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(p.legend() + "\n\n")
}

// row maps a value of series i onto a dot row, 0 at the top.
func (p *plot) row(i int, v float64, dotHeight int) int {
	if dotHeight <= 1 {
		return 0
	}
	pos := (v - p.lo[i]) / (p.hi[i] - p.lo[i])
	pos = math.Max(0, math.Min(1, pos))
	return int(math.Round((1 - pos) * float64(dotHeight-1)))
}

// axisLabels marks percentages when every series uses the percent scale,
// otherwise only the top and bottom of the plot.
func (p *plot) axisLabels() []string {
	labels := make([]string, p.height)
	top, mid, bottom := "hi", "", "lo"
	if p.allPercent() {
		top, mid, bottom = "100%", "50%", "0%"
	}
	labels[0] = top
	if p.height > 2 {
		labels[p.height/2] = mid
	}
	if p.height > 1 {
		labels[p.height-1] = bottom
	}
	return labels
}

func (p *plot) allPercent() bool {
	for _, s := range p.series {
		if s.Scale != ScalePercent {
			return false
		}
	}
	return true
}

func (p *plot) paint(layer int, text string) string {
	if !p.color || layer < 0 {
		return text
	}
	return seriesColors[layer%len(seriesColors)] + text + colorReset
}

func (p *plot) legend() string {
	parts := make([]string, len(p.series))
	for i, s := range p.series {
		label := fmt.Sprintf("%c %s (%s)", canvas.Rune(0x01), s.Name, dashes[i%len(dashes)].name)
		parts[i] = p.paint(i, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// PlotWidthFor returns the plot columns that fit in totalWidth next to the axis.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// fitWidth averages values into width buckets when there are more values than
// columns and interpolates linearly when there are fewer.
func fitWidth(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	switch {
	case n == 0 || width == 0:
		return nil
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	case n >= width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		step := float64(n-1) / float64(width-1)
		for i := range out {
			pos := float64(i) * step
			idx := min(int(pos), n-2)
			frac := pos - float64(idx)
			out[i] = values[idx] + (values[idx+1]-values[idx])*frac
		}
	}
	return out
}

// bounds returns the value range, widened when flat so the line sits mid-plot.
func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return lo - 1, hi + 1
	}
	return lo, hi
}
