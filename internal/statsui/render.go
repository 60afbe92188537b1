package statsui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/feedback"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/stats"
)

const cardsPerRow = 3

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = activeNavStyle.
				Foreground(lipgloss.Color("#B0B0B0")).
				Bold(false).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	strongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	lockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	tableStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// totals sums session aggregates for the overview cards.
type totals struct {
	sessions   int
	attempts   int
	correct    int
	accSum     float64
	durationMs int64
	best       float64
}

func (t *totals) add(s model.SessionAggregate) {
	t.sessions++
	t.attempts += s.Attempts
	t.correct += s.Correct
	t.accSum += s.AccuracySum
	t.durationMs += s.DurationMs
	acc, _, _ := stats.AttemptMetrics(s.Attempts, s.Correct, s.AccuracySum, s.DurationMs)
	t.best = max(t.best, acc)
}

func (t totals) cards() []string {
	acc, rate, avgMs := stats.AttemptMetrics(t.attempts, t.correct, t.accSum, t.durationMs)
	return []string{
		metricCard("Sessions", humanize.Comma(int64(t.sessions))),
		metricCard("Strokes", humanize.Comma(int64(t.attempts))),
		metricCard("Avg Accuracy", percent(acc)),
		metricCard("Best Session", percent(t.best)),
		metricCard("Correct", percent(rate)),
		metricCard("Avg Stroke", fmt.Sprintf("%.0f ms", avgMs)),
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + strongStyle.Render(value))
}

// cardGrid stacks cards vertically on narrow terminals, else in rows.
func cardGrid(cards []string, width int) string {
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	var rows []string
	for chunk := range slices.Chunk(cards, cardsPerRow) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, chunk...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	var t totals
	for _, s := range sessions {
		t.add(s)
	}
	var b strings.Builder
	b.WriteString(cardGrid(t.cards(), width))
	b.WriteString("\n\n")
	if err := stats.RenderCurvesWithSize(&b, sessions, window, width, plotHeight, true); err != nil {
		fmt.Fprintf(&b, "Failed to render curves: %v", err)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderShapeCurves(sessions []model.SessionAggregate, shapes []model.ShapeID, perSession map[int64]map[model.ShapeID]model.ShapeAggregate, window, width int, loadErr string) string {
	switch {
	case len(sessions) == 0:
		return "No sessions found."
	case loadErr != "":
		return "Failed to load shape curves: " + loadErr
	case len(shapes) == 0:
		return "No shapes selected. Press Enter to pick shapes."
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render("Shapes: "+joinShapes(shapes)) + "\n")
	if err := stats.RenderShapeCurvesWithSize(&b, sessions, perSession, shapes, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render shape curves: %v", err)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAchievements(all []achievement.Achievement, unlocked map[string]time.Time) string {
	if len(all) == 0 {
		return "No achievements defined."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Unlocked %d of %d\n", len(unlocked), len(all))
	for _, a := range all {
		b.WriteByte('\n')
		title := fmt.Sprintf("%-18s", a.Title)
		at, ok := unlocked[a.ID]
		if !ok {
			b.WriteString(lockedStyle.Render("  " + title + " " + a.Description))
			continue
		}
		b.WriteString("✓ " + strongStyle.Render(title) + " " + a.Description + "  " +
			mutedStyle.Render(at.Local().Format(dateLayout)))
	}
	return b.String()
}

var shapeColumns = []table.Column{
	{Title: "Shape", Width: 10},
	{Title: "Accuracy", Width: 9},
	{Title: "Avg Time (ms)", Width: 14},
	{Title: "Correct", Width: 7},
	{Title: "Attempts", Width: 8},
}

// shapeRows lists the most practiced shapes first.
func shapeRows(aggs []model.ShapeAggregate) []table.Row {
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.ShapeAggregate) int {
		return cmp.Or(cmp.Compare(b.Attempts, a.Attempts), cmp.Compare(a.Shape, b.Shape))
	})
	rows := make([]table.Row, len(sorted))
	for i, agg := range sorted {
		acc, _, avgMs := stats.AttemptMetrics(agg.Attempts, agg.Correct, agg.AccuracySum, agg.DurationSum)
		rows[i] = table.Row{
			feedback.ShapeName(agg.Shape),
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%.0f", avgMs),
			strconv.Itoa(agg.Correct),
			strconv.Itoa(agg.Attempts),
		}
	}
	return rows
}

func newShapeTable() table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	styles.Cell = styles.Cell.Padding(0, 1, 0, 0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)

	t := table.New(table.WithColumns(shapeColumns), table.WithHeight(1))
	t.SetStyles(styles)
	return t
}

func renderShapeModal(input string, width, height int) string {
	body := strings.Join([]string{
		strongStyle.Render("Select Shapes"),
		input,
		mutedStyle.Render("Comma-separated shape names. Empty resets to most practiced."),
		mutedStyle.Render("Enter to apply / Esc to cancel"),
	}, "\n")
	box := modalStyle.Width(modalWidth(width)).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
