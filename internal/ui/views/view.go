package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sharppad/internal/domain"
)

// ReadyMarker is printed once the editor is up when running under the e2e harness
const ReadyMarker = "__READY__"

// StatusKind selects the colour of the status message
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	FilePath string
	Modified bool
	Editor   string
	Cursor   domain.Position

	Mode           string // edit, find or replace
	PatternInput   string
	ReplaceInput   string
	ReplaceFocused bool
	Query          domain.SearchQuery

	ResultCount  int
	CurrentIndex int
	Faulted      bool
	FaultMessage string
	Searching    bool
	ProgressBar  string

	// line of the current match and the match's byte span within it
	Preview      string
	PreviewStart int
	PreviewEnd   int

	StatusMessage string
	StatusKind    StatusKind

	ShowHelp bool
	Help     string
	E2E      bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// ChromeHeight is the number of lines around the editor for a state
func ChromeHeight(state ViewState) int {
	h := 2 // title and status lines
	switch state.Mode {
	case "find":
		h += 3 // border, bar, preview
	case "replace":
		h += 4
	}
	if state.ShowHelp && state.Help != "" {
		h += lipgloss.Height(state.Help)
	}
	return h
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	var b strings.Builder

	b.WriteString(r.renderTitle(state))
	b.WriteString("\n")
	b.WriteString(state.Editor)
	b.WriteString("\n")

	if state.Mode == "find" || state.Mode == "replace" {
		b.WriteString(r.renderFindBar(state))
		b.WriteString("\n")
	}

	b.WriteString(r.renderStatus(state))

	if state.ShowHelp && state.Help != "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Help.Render(state.Help))
	}

	if state.E2E {
		b.WriteString("\n")
		b.WriteString(ReadyMarker)
	}
	return b.String()
}

func (r *Renderer) renderTitle(state ViewState) string {
	name := "[untitled]"
	if state.FilePath != "" {
		name = filepath.Base(state.FilePath)
	}
	title := r.styles.Title.Render("sharppad") + " " + name
	if state.Modified {
		title += r.styles.Modified.Render(" [+]")
	}

	right := r.styles.Dim.Render(fmt.Sprintf("Ln %d, Col %d", state.Cursor.Line+1, state.Cursor.Column+1))
	gap := state.Width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		return title
	}
	return title + strings.Repeat(" ", gap) + right
}

func (r *Renderer) renderFindBar(state ViewState) string {
	var lines []string

	find := r.styles.Label.Render("Find:    ") + state.PatternInput
	toggles := strings.Join([]string{
		r.toggle("Aa", state.Query.MatchCase),
		r.toggle("W", state.Query.WholeWord),
		r.toggle(".*", state.Query.UseRegex),
	}, " ")
	lines = append(lines, r.padBetween(find, toggles+"  "+r.renderCounter(state), state.Width))

	if state.Mode == "replace" {
		label := "Replace: "
		if state.ReplaceFocused {
			label = "Replace:>"
		}
		lines = append(lines, r.styles.Label.Render(label)+state.ReplaceInput)
	}

	lines = append(lines, r.renderPreview(state))
	return r.styles.Bar.Width(max(state.Width, 1)).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) toggle(label string, on bool) string {
	if on {
		return r.styles.ToggleOn.Render(label)
	}
	return r.styles.ToggleOff.Render(label)
}

func (r *Renderer) renderCounter(state ViewState) string {
	switch {
	case state.Faulted:
		return r.styles.StatusError.Render("invalid pattern")
	case state.Searching && state.ProgressBar != "":
		return state.ProgressBar
	case state.Searching:
		return r.styles.StatusLoading.Render("searching…")
	case state.ResultCount == 0:
		return r.styles.Dim.Render("no results")
	case state.CurrentIndex < 0:
		return r.styles.Counter.Render(fmt.Sprintf("%d results", state.ResultCount))
	default:
		return r.styles.Counter.Render(fmt.Sprintf("%d/%d", state.CurrentIndex+1, state.ResultCount))
	}
}

func (r *Renderer) renderPreview(state ViewState) string {
	if state.Faulted {
		return r.styles.StatusError.Render(state.FaultMessage)
	}
	p := state.Preview
	if p == "" || state.PreviewStart < 0 || state.PreviewEnd > len(p) || state.PreviewStart > state.PreviewEnd {
		return ""
	}
	line := p[:state.PreviewStart] + r.styles.Highlight.Render(p[state.PreviewStart:state.PreviewEnd]) + p[state.PreviewEnd:]
	return r.styles.Dim.Render("  ") + line
}

func (r *Renderer) renderStatus(state ViewState) string {
	if state.StatusMessage == "" {
		return r.styles.Dim.Render("ctrl+f find • ctrl+r replace • ctrl+s save • f1 help • ctrl+q quit")
	}
	style := r.styles.StatusLoading
	switch state.StatusKind {
	case StatusSuccess:
		style = r.styles.StatusSuccess
	case StatusWarning:
		style = r.styles.StatusWarning
	case StatusError:
		style = r.styles.StatusError
	}
	return style.Render(state.StatusMessage)
}

func (r *Renderer) padBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
