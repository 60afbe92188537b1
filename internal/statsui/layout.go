package statsui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// curveStep is how far -/= move the moving-average window.
const curveStep = 5

func nextCurveWindow(n int) int {
	return (n/curveStep + 1) * curveStep
}

func prevCurveWindow(n int) int {
	return max((n-1)/curveStep*curveStep, 1)
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

// modalInnerWidth subtracts the modal border and horizontal padding.
func modalInnerWidth(width int) int {
	return max(modalWidth(width)-modalStyle.GetHorizontalFrameSize(), 10)
}

// fitLines pads or cuts s to exactly height lines of width cells.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	out := make([]string, height)
	for i := range out {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out[i] = padLine(line, width)
	}
	return strings.Join(out, "\n")
}

func padLine(line string, width int) string {
	gap := width - lipgloss.Width(line)
	if gap <= 0 {
		return line
	}
	return line + strings.Repeat(" ", gap)
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(s, width, tail)
}
