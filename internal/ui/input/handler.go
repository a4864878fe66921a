package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/ui/input/modes"
	"sharppad/internal/ui/input/types"
)

type Handler struct {
	currentMode types.Mode
	modes       map[types.Mode]types.ModeHandler
	pattern     *textinput.Model // shared by the find and replace bars
	replacement *textinput.Model
	replace     *modes.ReplaceMode
}

func New() *Handler {
	pattern := textinput.New()
	replacement := textinput.New()

	h := &Handler{
		currentMode: types.ModeEdit,
		pattern:     &pattern,
		replacement: &replacement,
		modes:       make(map[types.Mode]types.ModeHandler),
	}
	h.replace = modes.NewReplaceMode(h.pattern, h.replacement)

	// Register all mode handlers
	h.modes[types.ModeEdit] = modes.NewEditMode()
	h.modes[types.ModeFind] = modes.NewFindMode(h.pattern)
	h.modes[types.ModeReplace] = h.replace

	return h
}

// HandleKey routes msg to the current mode. A false consumed result means
// the key is typing for the editor.
func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) (actions []types.Action, cmd tea.Cmd, consumed bool) {
	handler := h.modes[h.currentMode]
	if handler == nil {
		return nil, nil, false
	}

	modeActions, consumed := handler.HandleKey(msg, ctx)
	if !consumed && !h.isTextMode(h.currentMode) {
		return nil, nil, false
	}

	// Handle mode changes
	for _, action := range modeActions {
		changeMode, ok := action.(types.ChangeModeAction)
		if !ok {
			actions = append(actions, action)
			continue
		}
		if changeMode.Mode == h.currentMode {
			continue
		}
		actions = append(actions, h.modes[h.currentMode].Exit(ctx)...)
		h.currentMode = changeMode.Mode
		actions = append(actions, h.modes[h.currentMode].Enter(ctx)...)
		if h.isTextMode(h.currentMode) {
			cmd = textinput.Blink
		}
	}

	// In a text mode, unhandled keys edit the focused input
	if !consumed && h.isTextMode(h.currentMode) {
		ti := h.focused()
		before := ti.Value()
		*ti, cmd = ti.Update(msg)
		if ti.Value() != before {
			if ti == h.replacement {
				actions = append(actions, types.UpdateReplacementAction{Text: ti.Value()})
			} else {
				actions = append(actions, types.UpdatePatternAction{Text: ti.Value()})
			}
		}
	}

	return actions, cmd, true
}

func (h *Handler) focused() *textinput.Model {
	if h.currentMode == types.ModeReplace {
		return h.replace.Focused()
	}
	return h.pattern
}

func (h *Handler) CurrentMode() types.Mode {
	return h.currentMode
}

// PatternInput returns the find bar input
func (h *Handler) PatternInput() *textinput.Model {
	return h.pattern
}

// ReplacementInput returns the replace bar input
func (h *Handler) ReplacementInput() *textinput.Model {
	return h.replacement
}

func (h *Handler) isTextMode(mode types.Mode) bool {
	switch mode {
	case types.ModeFind, types.ModeReplace:
		return true
	default:
		return false
	}
}

// Update handles non-keyboard messages for text input
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	if h.isTextMode(h.currentMode) {
		var cmd tea.Cmd
		ti := h.focused()
		*ti, cmd = ti.Update(msg)
		return cmd
	}
	return nil
}

// ChangeMode switches mode without a key press
func (h *Handler) ChangeMode(mode types.Mode, ctx types.Context) []types.Action {
	if mode == h.currentMode {
		return nil
	}
	actions := h.modes[h.currentMode].Exit(ctx)
	h.currentMode = mode
	return append(actions, h.modes[h.currentMode].Enter(ctx)...)
}

// ReplaceFocused reports whether typing goes to the replacement input
func (h *Handler) ReplaceFocused() bool {
	return h.currentMode == types.ModeReplace && h.replace.Focused() == h.replacement
}
