package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sketchcoach/internal/feedback"
)

var (
	inkStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	correctStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	guideStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	correctionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	panelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9D9D9"))
	tipStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.canvas == nil {
		return ""
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderCanvas(), " ", m.renderPanel())
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(m.renderHeader()),
		body,
		statusStyle.Render(m.status),
		m.renderFooter(),
		m.help.View(m.keys),
	)
}

func (m *Model) renderHeader() string {
	if m.guide == nil {
		return "sketchcoach"
	}
	return fmt.Sprintf("Trace the %s  (%s)", feedback.ShapeName(m.guide.Shape), m.guide.Category)
}

// renderCanvas draws the canvas, styling runs of cells that share a layer together.
func (m *Model) renderCanvas() string {
	styles := map[int]lipgloss.Style{
		strokeLayer: m.strokeStyle(),
		guideLayer:  m.guideStyle(),
	}
	var b strings.Builder
	var run strings.Builder
	runLayer := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if style, ok := styles[runLayer]; ok {
			b.WriteString(style.Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		run.Reset()
	}
	for y := 0; y < m.canvas.Height(); y++ {
		if y > 0 {
			flush()
			b.WriteByte('\n')
		}
		for x := 0; x < m.canvas.Width(); x++ {
			r, layer := m.canvas.Cell(x, y)
			if layer != runLayer {
				flush()
				runLayer = layer
			}
			run.WriteRune(r)
		}
	}
	flush()
	return b.String()
}

func (m *Model) strokeStyle() lipgloss.Style {
	switch {
	case m.report == nil:
		return inkStyle
	case m.report.Score.IsCorrect:
		return correctStyle
	default:
		return incorrectStyle
	}
}

func (m *Model) guideStyle() lipgloss.Style {
	if m.scored && m.report != nil && m.report.Feedback.ShowVisualCorrection {
		return correctionStyle
	}
	return guideStyle
}

func (m *Model) renderPanel() string {
	width := panelWidth - 2
	lines := []string{}
	if m.report != nil {
		score := m.report.Score
		verdict := incorrectStyle.Render("keep practicing")
		if score.IsCorrect {
			verdict = correctStyle.Render("correct")
		}
		lines = append(lines,
			fmt.Sprintf("Score %.0f%%  %s", m.report.Feedback.OverallScore*100, verdict),
			fmt.Sprintf("Timing %.0f%% · Steadiness %.0f%%", score.TemporalAccuracy*100, score.VelocityConsistency*100),
			"",
			wrapText(m.report.Feedback.Encouragement, panelStyle, width),
		)
		for _, s := range m.report.Feedback.Suggestions {
			lines = append(lines, wrapBullet(s, tipStyle, width))
		}
	} else {
		lines = append(lines, wrapText("Hold the left mouse button and trace the guide.", tipStyle, width))
	}
	for _, title := range m.unlockedNow {
		lines = append(lines, "", wrapText("Unlocked: "+title, correctionStyle, width))
	}

	content := strings.Join(lines, "\n")
	if rows := strings.Split(content, "\n"); len(rows) > m.canvas.Height() {
		content = strings.Join(rows[:m.canvas.Height()], "\n")
	}
	return panelStyle.Width(panelWidth).Render(content)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if len(m.round) > 0 {
		segments = append(segments, fmt.Sprintf("Shape %d/%d", min(m.roundIdx+1, len(m.round)), len(m.round)))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if m.allAttempts > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%%", m.allAccSum/float64(m.allAttempts)*100))
	}
	segments = append(segments, fmt.Sprintf("Streak %d", m.progress.Streak))
	return footerStyle.Render(strings.Join(segments, "  "))
}
