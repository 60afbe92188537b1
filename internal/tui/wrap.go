package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const bullet = "• "

// wrapText wraps text at spaces to width columns and styles each line.
// Width <= 0 disables wrapping.
func wrapText(text string, style lipgloss.Style, width int) string {
	return renderLines(wrapLines(text, width), style, "", "")
}

// wrapBullet wraps text as a bulleted item with a hanging indent.
func wrapBullet(text string, style lipgloss.Style, width int) string {
	indent := strings.Repeat(" ", runewidth.StringWidth(bullet))
	return renderLines(wrapLines(text, width-len(indent)), style, bullet, indent)
}

func renderLines(lines []string, style lipgloss.Style, first, rest string) string {
	for i, line := range lines {
		prefix := rest
		if i == 0 {
			prefix = first
		}
		lines[i] = style.Render(prefix + line)
	}
	return strings.Join(lines, "\n")
}

// wrapLines splits text into lines no wider than width, breaking words that
// do not fit on a line of their own.
func wrapLines(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range strings.Fields(text) {
		for runewidth.StringWidth(word) > width {
			if lineWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		w := runewidth.StringWidth(word)
		if w == 0 {
			continue
		}
		if lineWidth > 0 && lineWidth+1+w > width {
			flush()
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if lineWidth > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
