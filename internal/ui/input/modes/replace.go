package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/ui/input/types"
)

// ReplaceMode edits the pattern and the replacement; tab switches between them
type ReplaceMode struct {
	TextInputMode
	pattern     *textinput.Model
	replacement *textinput.Model
}

func NewReplaceMode(pattern, replacement *textinput.Model) *ReplaceMode {
	return &ReplaceMode{
		TextInputMode: NewTextInputMode(types.ModeReplace, "replace", pattern),
		pattern:       pattern,
		replacement:   replacement,
	}
}

func (m *ReplaceMode) Enter(ctx types.Context) []types.Action {
	actions := m.TextInputMode.Enter(ctx)
	m.replacement.Prompt = ""
	m.replacement.Blur()
	return actions
}

func (m *ReplaceMode) Exit(ctx types.Context) []types.Action {
	m.replacement.Blur()
	return m.TextInputMode.Exit(ctx)
}

// Focused returns the input that receives typing
func (m *ReplaceMode) Focused() *textinput.Model {
	if m.replacement.Focused() {
		return m.replacement
	}
	return m.pattern
}

func (m *ReplaceMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		if m.replacement.Focused() {
			m.replacement.Blur()
			m.pattern.Focus()
		} else {
			m.pattern.Blur()
			m.replacement.Focus()
		}
		return nil, true
	case "ctrl+a":
		return []types.Action{types.ReplaceAllAction{}}, true
	case "enter":
		if ctx.HasCurrentResult() {
			return []types.Action{types.ReplaceCurrentAction{}}, true
		}
		return []types.Action{types.NextResultAction{}}, true
	}
	return m.TextInputMode.HandleKey(msg, ctx)
}
