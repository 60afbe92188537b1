package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

const dateLayout = "2006-01-02"

// filterField edits one StatsConfig setting. An empty value leaves the
// setting at its zero value.
type filterField struct {
	input textinput.Model
	show  func(cfg model.StatsConfig) string
	set   func(cfg *model.StatsConfig, value string) error
}

// filterForm is the settings overlay opened with "/".
type filterForm struct {
	fields []filterField
	focus  int
	err    string
	keys   formKeyMap
}

func newFilterForm() filterForm {
	return filterForm{
		keys: defaultFormKeyMap(),
		fields: []filterField{
			{
				input: newTextInput("Category: "),
				show:  func(cfg model.StatsConfig) string { return string(cfg.Category) },
				set: func(cfg *model.StatsConfig, value string) error {
					category := model.LessonCategory(strings.ToLower(value))
					if !category.Valid() {
						return errors.New("invalid category (use shapes, lines, curves or mastery)")
					}
					cfg.Category = category
					return nil
				},
			},
			{
				input: newTextInput("Since (YYYY-MM-DD): "),
				show: func(cfg model.StatsConfig) string {
					if cfg.Since == nil {
						return ""
					}
					return cfg.Since.Format(dateLayout)
				},
				set: func(cfg *model.StatsConfig, value string) error {
					since, err := time.ParseInLocation(dateLayout, value, time.Local)
					if err != nil {
						return errors.New("invalid since date (expected YYYY-MM-DD)")
					}
					cfg.Since = &since
					return nil
				},
			},
			{
				input: newTextInput("Last: "),
				show: func(cfg model.StatsConfig) string {
					if cfg.Last <= 0 {
						return ""
					}
					return strconv.Itoa(cfg.Last)
				},
				set: func(cfg *model.StatsConfig, value string) error {
					n, err := strconv.Atoi(value)
					if err != nil || n < 0 {
						return errors.New("invalid last value (use 0 or positive integer)")
					}
					cfg.Last = n
					return nil
				},
			},
			{
				input: newTextInput("Curve window: "),
				show:  func(cfg model.StatsConfig) string { return strconv.Itoa(cfg.CurveWindow) },
				set: func(cfg *model.StatsConfig, value string) error {
					n, err := strconv.Atoi(value)
					if err != nil || n < 1 {
						return errors.New("invalid curve window (use integer >= 1)")
					}
					cfg.CurveWindow = n
					return nil
				},
			},
		},
	}
}

func newTextInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (f *filterForm) load(cfg model.StatsConfig) {
	f.err = ""
	for i := range f.fields {
		f.fields[i].input.SetValue(f.fields[i].show(cfg))
	}
}

// parse builds a new config from the form. The shape selection carries over
// from base since the form does not edit it.
func (f *filterForm) parse(base model.StatsConfig) (model.StatsConfig, error) {
	cfg := model.StatsConfig{CurveWindow: 1, Shapes: base.Shapes}
	for _, field := range f.fields {
		value := strings.TrimSpace(field.input.Value())
		if value == "" {
			continue
		}
		if err := field.set(&cfg, value); err != nil {
			return base, err
		}
	}
	return cfg, nil
}

func (f *filterForm) focusField(idx int) tea.Cmd {
	n := len(f.fields)
	f.focus = ((idx % n) + n) % n
	var cmd tea.Cmd
	for i := range f.fields {
		if i == f.focus {
			cmd = f.fields[i].input.Focus()
			continue
		}
		f.fields[i].input.Blur()
	}
	return cmd
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.fields {
		input := &f.fields[i].input
		input.Width = max(10, width-lipgloss.Width(input.Prompt)-2)
	}
}

func (f *filterForm) view() string {
	lines := make([]string, 0, len(f.fields)+2)
	lines = append(lines, "Settings")
	for _, field := range f.fields {
		lines = append(lines, field.input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
