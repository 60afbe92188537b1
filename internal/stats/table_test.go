package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	cols := []column{{header: "Shape"}, {header: "Accuracy", right: true}, {header: "Attempts", right: true}}
	rows := [][]string{
		{"circle", "97.50%", "12"},
		{"triangle", "8.00%"},
	}

	assert.Equal(t, []string{
		"Shape    Accuracy Attempts",
		"circle     97.50%       12",
		"triangle    8.00%         ",
	}, formatTable(cols, rows))
	assert.Nil(t, formatTable(nil, rows))
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]column{{header: "Shape"}, {header: "N", right: true}}, [][]string{{"円", "1"}})
	require.Len(t, lines, 2)
	assert.Equal(t, "円    1", lines[1])
}
