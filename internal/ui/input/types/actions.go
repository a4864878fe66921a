package types

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdatePatternAction struct {
	Text string
}

func (a UpdatePatternAction) Type() string { return "update_pattern" }

type UpdateReplacementAction struct {
	Text string
}

func (a UpdateReplacementAction) Type() string { return "update_replacement" }

// Result navigation
type NextResultAction struct{}

func (a NextResultAction) Type() string { return "next_result" }

type PrevResultAction struct{}

func (a PrevResultAction) Type() string { return "prev_result" }

// Query toggles
type ToggleMatchCaseAction struct{}

func (a ToggleMatchCaseAction) Type() string { return "toggle_match_case" }

type ToggleWholeWordAction struct{}

func (a ToggleWholeWordAction) Type() string { return "toggle_whole_word" }

type ToggleRegexAction struct{}

func (a ToggleRegexAction) Type() string { return "toggle_regex" }

// Replace actions
type ReplaceCurrentAction struct{}

func (a ReplaceCurrentAction) Type() string { return "replace_current" }

type ReplaceAllAction struct{}

func (a ReplaceAllAction) Type() string { return "replace_all" }

// Document actions
type SaveAction struct{}

func (a SaveAction) Type() string { return "save" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type QuitAction struct {
	Force bool
}

func (a QuitAction) Type() string { return "quit" }
