// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/stats"
)

const (
	tabOverview = iota
	tabShapeTable
	tabShapeCurves
	tabAchievements
)

var tabTitles = []string{"Overview", "Shape Table", "Shape Curves", "Achievements"}

const (
	plotHeight    = 10
	defaultShapes = 5
	fallbackWidth = 80
)

// Store is the read side the stats screen needs.
type Store interface {
	stats.Source
	ListShapeStatsForSessions(ctx context.Context, sessionIDs []int64, shapes []model.ShapeID) (map[int64]map[model.ShapeID]model.ShapeAggregate, error)
	ListAchievements(ctx context.Context) ([]model.UnlockedAchievement, error)
}

// shapePicker holds the shapes plotted on the shape curves tab.
type shapePicker struct {
	selected []model.ShapeID
	custom   bool
	editing  bool
	input    textinput.Model
}

// reset falls back to the most practiced shapes unless the user picked some.
func (p *shapePicker) reset(aggs []model.ShapeAggregate) {
	if !p.custom {
		p.selected = stats.TopShapesByFrequency(aggs, defaultShapes)
	}
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store        Store
	cfg          model.StatsConfig
	achievements []achievement.Achievement

	report     stats.Report
	unlocked   map[string]time.Time
	perSession map[int64]map[model.ShapeID]model.ShapeAggregate
	errMsg     string
	shapeErr   string

	activeTab  int
	viewports  []viewport.Model
	shapeTable table.Model

	keys   keyMap
	help   help.Model
	form   filterForm
	filter bool
	shapes shapePicker

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st Store, cfg model.StatsConfig, achievements []achievement.Achievement) *Model {
	selected := parseShapes(cfg.Shapes)
	m := &Model{
		store:        st,
		cfg:          cfg,
		achievements: achievements,
		viewports:    make([]viewport.Model, len(tabTitles)),
		shapeTable:   newShapeTable(),
		keys:         defaultKeyMap(),
		help:         help.New(),
		form:         newFilterForm(),
		shapes: shapePicker{
			selected: selected,
			custom:   len(selected) > 0,
			input:    newTextInput("Shapes: "),
		},
	}
	m.shapes.input.Placeholder = "circle, star, wave"
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.form.load(cfg)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.filter:
			return m, m.updateFilter(msg)
		case m.shapes.editing:
			return m, m.updateShapeInput(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Prev):
		m.moveTab(-1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.Next):
		m.moveTab(1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.WiderCurve):
		m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		m.refreshReport()
		return nil
	case key.Matches(msg, m.keys.NarrowCurve):
		m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		m.refreshReport()
		return nil
	case key.Matches(msg, m.keys.Settings):
		m.filter = true
		m.form.load(m.cfg)
		return m.form.focusField(0)
	case key.Matches(msg, m.keys.EditShapes):
		if m.activeTab != tabShapeCurves {
			return nil
		}
		m.shapes.editing = true
		m.shapes.input.SetValue(joinShapes(m.shapes.selected))
		return m.shapes.input.Focus()
	}

	var cmd tea.Cmd
	if m.activeTab == tabShapeTable {
		m.shapeTable, cmd = m.shapeTable.Update(msg)
		return cmd
	}
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.form.keys.Cancel):
		m.filter = false
		return nil
	case key.Matches(msg, m.form.keys.Apply):
		cfg, err := m.form.parse(m.cfg)
		if err != nil {
			m.form.err = err.Error()
			return nil
		}
		m.cfg = cfg
		m.filter = false
		m.refreshReport()
		return nil
	case key.Matches(msg, m.form.keys.NextField):
		return m.form.focusField(m.form.focus + 1)
	case key.Matches(msg, m.form.keys.PrevField):
		return m.form.focusField(m.form.focus - 1)
	}
	return m.form.update(msg)
}

func (m *Model) updateShapeInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.shapes.editing = false
		return nil
	case tea.KeyEnter:
		m.shapes.selected = parseShapes(m.shapes.input.Value())
		m.shapes.custom = len(m.shapes.selected) > 0
		m.shapes.reset(m.report.ShapeAggsAll)
		m.shapes.editing = false
		m.loadShapePerSession()
		m.renderTabContents()
		return nil
	}
	var cmd tea.Cmd
	m.shapes.input, cmd = m.shapes.input.Update(msg)
	return cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.shapes.editing {
		return fitLines(renderShapeModal(m.shapes.input.View(), m.width, m.height), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	return strings.Join([]string{
		fitLines(m.renderHeader(), m.width, headerHeight),
		fitLines(m.renderBody(), m.width, bodyHeight),
		fitLines(m.renderFooter(), m.width, footerHeight),
	}, "\n")
}

func (m *Model) layoutHeights() (header, body, footer int) {
	header = max(lipgloss.Height(activeNavStyle.Render("X")), 1) + 1
	footer = 1
	if !m.filter && m.errMsg != "" {
		footer++
	}
	body = max(m.height-header-footer, 1)
	return header, body, footer
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	m.shapeTable.SetWidth(m.width)
	m.shapeTable.SetHeight(max(body-1, 1))
	m.form.setWidth(m.width)
	m.shapes.input.Width = max(10, modalInnerWidth(m.width)-lipgloss.Width(m.shapes.input.Prompt))
	m.help.Width = m.width
}

func (m *Model) moveTab(delta int) {
	n := len(tabTitles)
	m.activeTab = (m.activeTab + delta + n) % n
	m.keys.editShapes = m.activeTab == tabShapeCurves
	if m.activeTab == tabShapeTable {
		m.shapeTable.Focus()
	} else {
		m.shapeTable.Blur()
	}
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		tabs[i] = style.Render(title)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	category, since, last := "any", "any", "all"
	if m.cfg.Category != "" {
		category = string(m.cfg.Category)
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: category=%s  since=%s  last=%s  window=%d", category, since, last, m.cfg.CurveWindow)
	return mutedStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filter {
		return m.help.View(m.form.keys)
	}
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) renderBody() string {
	switch {
	case m.filter:
		return m.form.view()
	case m.activeTab != tabShapeTable:
		return m.viewports[m.activeTab].View()
	case len(m.report.Sessions) == 0:
		return "No sessions found."
	case len(m.report.ShapeAggsAll) == 0:
		return "No shape stats found."
	default:
		return tableStyle.Render(m.shapeTable.View())
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.shapes.reset(report.ShapeAggsAll)
	m.loadShapePerSession()
	m.loadUnlocked()
	m.shapeTable.SetRows(shapeRows(report.ShapeAggsAll))
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) loadUnlocked() {
	unlocked, err := m.store.ListAchievements(context.Background())
	m.unlocked = make(map[string]time.Time, len(unlocked))
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	for _, u := range unlocked {
		m.unlocked[u.ID] = u.UnlockedAt
	}
}

func (m *Model) loadShapePerSession() {
	m.shapeErr = ""
	m.perSession = nil
	if len(m.report.Sessions) == 0 || len(m.shapes.selected) == 0 {
		return
	}
	ids := make([]int64, len(m.report.Sessions))
	for i, s := range m.report.Sessions {
		ids[i] = s.SessionID
	}
	perSession, err := m.store.ListShapeStatsForSessions(context.Background(), ids, m.shapes.selected)
	if err != nil {
		m.shapeErr = err.Error()
		return
	}
	m.perSession = perSession
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, width))
	m.viewports[tabShapeCurves].SetContent(renderShapeCurves(m.report.Sessions, m.shapes.selected, m.perSession, m.cfg.CurveWindow, width, m.shapeErr))
	m.viewports[tabAchievements].SetContent(renderAchievements(m.achievements, m.unlocked))
}

func parseShapes(input string) []model.ShapeID {
	var out []model.ShapeID
	for _, part := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		out = append(out, model.ShapeID(strings.ToLower(part)))
	}
	return out
}

func joinShapes(shapes []model.ShapeID) string {
	parts := make([]string, len(shapes))
	for i, s := range shapes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
