package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap documents the bindings for the help view. Dispatch itself lives
// in the input modes.
type keyMap struct {
	Find       key.Binding
	Replace    key.Binding
	Next       key.Binding
	Prev       key.Binding
	MatchCase  key.Binding
	WholeWord  key.Binding
	Regex      key.Binding
	ReplaceAll key.Binding
	SwitchBar  key.Binding
	Save       key.Binding
	Close      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Find:       key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "find")),
		Replace:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "replace")),
		Next:       key.NewBinding(key.WithKeys("enter", "f3", "ctrl+n"), key.WithHelp("enter/f3", "next match")),
		Prev:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑/ctrl+p", "previous match")),
		MatchCase:  key.NewBinding(key.WithKeys("alt+c"), key.WithHelp("alt+c", "match case")),
		WholeWord:  key.NewBinding(key.WithKeys("alt+w"), key.WithHelp("alt+w", "whole word")),
		Regex:      key.NewBinding(key.WithKeys("alt+x"), key.WithHelp("alt+x", "regex")),
		ReplaceAll: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "replace all")),
		SwitchBar:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "find/replace field")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to text")),
		Help:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+q", "ctrl+c"), key.WithHelp("ctrl+q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Find, k.Replace, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Find, k.Replace, k.Next, k.Prev},
		{k.MatchCase, k.WholeWord, k.Regex},
		{k.ReplaceAll, k.SwitchBar, k.Close},
		{k.Save, k.Help, k.Quit},
	}
}
