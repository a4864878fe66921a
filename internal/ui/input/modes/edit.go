package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/ui/input/types"
)

// EditMode passes typing to the editor and handles the global shortcuts
type EditMode struct{}

func NewEditMode() *EditMode {
	return &EditMode{}
}

func (m *EditMode) Name() string {
	return "edit"
}

func (m *EditMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *EditMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *EditMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	if actions, ok := globalKey(msg, ctx); ok {
		return actions, true
	}
	switch msg.String() {
	case "f1":
		return []types.Action{types.ToggleHelpAction{}}, true
	}
	// Everything else is typing
	return nil, false
}

// globalKey handles shortcuts that work in every mode
func globalKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.String() {
	case "ctrl+c":
		return []types.Action{types.QuitAction{Force: true}}, true
	case "ctrl+q":
		return []types.Action{types.QuitAction{}}, true
	case "ctrl+s":
		return []types.Action{types.SaveAction{}}, true
	case "ctrl+f":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeFind}}, true
	case "ctrl+r":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeReplace}}, true
	case "alt+c":
		return []types.Action{types.ToggleMatchCaseAction{}}, true
	case "alt+w":
		return []types.Action{types.ToggleWholeWordAction{}}, true
	case "alt+x":
		return []types.Action{types.ToggleRegexAction{}}, true
	case "f3", "ctrl+n":
		return []types.Action{types.NextResultAction{}}, true
	case "ctrl+p":
		return []types.Action{types.PrevResultAction{}}, true
	}
	return nil, false
}
