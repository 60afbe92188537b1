package statsui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev        key.Binding
	Next        key.Binding
	Scroll      key.Binding
	WiderCurve  key.Binding
	NarrowCurve key.Binding
	Settings    key.Binding
	EditShapes  key.Binding
	Quit        key.Binding

	// editShapes is shown only on the shape curves tab.
	editShapes bool
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev tab"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next tab"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll"),
		),
		WiderCurve: key.NewBinding(
			key.WithKeys("="),
			key.WithHelp("=", "wider window"),
		),
		NarrowCurve: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "narrower window"),
		),
		Settings: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "settings"),
		),
		EditShapes: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit shapes"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{k.Prev, k.Next, k.Scroll, k.WiderCurve, k.NarrowCurve, k.Settings}
	if k.editShapes {
		bindings = append(bindings, k.EditShapes)
	}
	return append(bindings, k.Quit)
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next, k.Scroll}, {k.WiderCurve, k.NarrowCurve}, {k.Settings, k.EditShapes, k.Quit}}
}

type formKeyMap struct {
	NextField key.Binding
	PrevField key.Binding
	Apply     key.Binding
	Cancel    key.Binding
}

func defaultFormKeyMap() formKeyMap {
	return formKeyMap{
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Apply, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
