package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/ui/input/types"
)

// TextInputMode is a base for modes that accept text input
type TextInputMode struct {
	mode      types.Mode
	name      string
	textInput *textinput.Model
}

func NewTextInputMode(mode types.Mode, name string, ti *textinput.Model) TextInputMode {
	return TextInputMode{
		mode:      mode,
		name:      name,
		textInput: ti,
	}
}

func (m TextInputMode) Name() string {
	return m.name
}

func (m TextInputMode) Enter(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Prompt = "" // Prompt is handled in the UI layer
		// the pattern survives closing the bar, like most editors
		m.textInput.SetValue(ctx.Pattern())
		m.textInput.CursorEnd()
		m.textInput.Focus()
	}
	return nil
}

func (m TextInputMode) Exit(ctx types.Context) []types.Action {
	if m.textInput != nil {
		m.textInput.Blur()
	}
	return nil
}

// HandleKey covers the keys shared by the find and replace bars
func (m TextInputMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	if actions, ok := globalKey(msg, ctx); ok {
		return actions, true
	}
	switch msg.String() {
	case "esc":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeEdit}}, true
	case "enter", "down":
		return []types.Action{types.NextResultAction{}}, true
	case "up":
		return []types.Action{types.PrevResultAction{}}, true
	default:
		// Let the main handler update the text input
		return nil, false
	}
}
