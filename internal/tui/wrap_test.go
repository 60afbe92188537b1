package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	assert.Equal(t, "keep an\neven\npace", wrapText("keep an  even pace", lipgloss.NewStyle(), 8))
}

func TestWrapTextHardBreaksLongWords(t *testing.T) {
	assert.Equal(t, "abc\ndef\ngh", wrapText("abcdefgh", lipgloss.NewStyle(), 3))
}

func TestWrapTextNoWidth(t *testing.T) {
	assert.Equal(t, "one two", wrapText("one two", lipgloss.NewStyle(), 0))
}

func TestWrapLinesWideRunes(t *testing.T) {
	assert.Equal(t, []string{"世界", "世", "ab"}, wrapLines("世界世 ab", 4))
	assert.Equal(t, []string{"世"}, wrapLines("世", 1), "an over-wide rune gets its own line")
}

func TestWrapBulletHangingIndent(t *testing.T) {
	assert.Equal(t, "• close\n  the\n  shape", wrapBullet("close the shape", lipgloss.NewStyle(), 9))
}
