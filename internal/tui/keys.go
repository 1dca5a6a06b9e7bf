package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	SelectUp    key.Binding
	SelectDown  key.Binding
	Comment     key.Binding
	Edit        key.Binding
	NextThread  key.Binding
	PrevThread  key.Binding
	NextRange   key.Binding
	PrevRange   key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Unresolved  key.Binding
	Panel       key.Binding
	Toggle      key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding

	Submit key.Binding
	Leave  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		SelectUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "select up")),
		SelectDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "select down")),
		Comment:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Edit:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "reply")),
		NextThread:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next thread")),
		PrevThread:  key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev thread")),
		NextRange:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next range")),
		PrevRange:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev range")),
		ExpandAll:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "collapse all")),
		Unresolved:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "expand unresolved")),
		Panel:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panel")),
		Toggle:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle commenting")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Leave:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "keep draft")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Comment, k.Edit, k.NextThread, k.NextRange, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SelectUp, k.SelectDown},
		{k.Comment, k.Edit, k.Submit, k.Leave},
		{k.NextThread, k.PrevThread, k.NextRange, k.PrevRange},
		{k.ExpandAll, k.CollapseAll, k.Unresolved, k.Panel},
		{k.Toggle, k.Reload, k.Help, k.Quit},
	}
}
