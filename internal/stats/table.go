package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column is one table column; right aligns numbers.
type column struct {
	header string
	right  bool
}

// formatTable lays rows out under cols, sizing each column by display width.
// Missing cells render blank and cells past the last column are dropped.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.header)
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(cell(row, i)))
		}
	}

	line := func(row []string) string {
		parts := make([]string, len(cols))
		for i, c := range cols {
			value := cell(row, i)
			pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(value))
			if c.right {
				parts[i] = pad + value
			} else {
				parts[i] = value + pad
			}
		}
		return strings.Join(parts, " ")
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, line(headers))
	for _, row := range rows {
		lines = append(lines, line(row))
	}
	return lines
}
