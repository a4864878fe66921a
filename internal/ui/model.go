package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/config"
	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
	"sharppad/internal/find"
	"sharppad/internal/tasks"
	"sharppad/internal/ui/input"
	"sharppad/internal/ui/input/types"
	"sharppad/internal/ui/views"
)

// Options holds the collaborators of the UI model
type Options struct {
	Config     *config.Config
	Document   *document.Document
	Finder     *find.Model
	Manager    *tasks.Manager
	Dispatcher *ProgramDispatcher
	Bus        eventbus.EventBus // optional
	Logger     *slog.Logger
	E2E        bool
}

// Model represents the UI state
type Model struct {
	doc        *document.Document
	finder     *find.Model
	manager    *tasks.Manager
	dispatcher *ProgramDispatcher
	bus        eventbus.EventBus
	logger     *slog.Logger
	e2e        bool

	width    int
	height   int
	editor   textarea.Model
	input    *input.Handler
	progress progress.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	replacement string
	showHelp    bool
	syncing     bool // the editor is writing into the document
	jumpPending bool // select the match nearest the cursor once results arrive
	quitPending bool

	statusMessage string
	statusKind    views.StatusKind
	statusSeq     int

	unsubscribe []func()
}

// NewModel creates the UI model and subscribes it to the document, the
// find model and the event bus. Close releases the subscriptions.
func NewModel(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	editor := textarea.New()
	editor.ShowLineNumbers = cfg.Editor.LineNumbers
	editor.Prompt = ""
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.MaxWidth = 0
	editor.SetValue(opts.Document.Text())
	editor.Focus()

	m := &Model{
		doc:        opts.Document,
		finder:     opts.Finder,
		manager:    opts.Manager,
		dispatcher: opts.Dispatcher,
		bus:        opts.Bus,
		logger:     logger,
		e2e:        opts.E2E,
		editor:     editor,
		input:      input.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(20)),
		help:       help.New(),
		keys:       newKeyMap(),
		renderer:   views.NewRenderer(),
	}
	m.help.ShowAll = true

	// SetValue leaves the cursor at the end of the text
	m.moveCursor(domain.Position{})

	m.unsubscribe = append(m.unsubscribe,
		m.doc.Subscribe(m.onDocumentChange),
		m.finder.Subscribe(m.onFindChange),
	)
	if m.bus != nil {
		for _, t := range []domain.EventType{
			domain.EventError,
			domain.EventDocumentSaved,
			domain.EventDocumentReloaded,
			domain.EventExternalChange,
		} {
			m.unsubscribe = append(m.unsubscribe, m.bus.Subscribe(t, m.forward))
		}
	}
	return m
}

// Close detaches the model from its collaborators
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// forward hands a bus event to the update loop
func (m *Model) forward(e eventbus.DomainEvent) {
	if err := m.dispatcher.Send(EventMsg{Event: e}); err != nil {
		m.logger.Debug("dropping event", "type", e.Type(), "error", err)
	}
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case invokeMsg:
		m.run(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case EventMsg:
		cmds = append(cmds, m.handleEvent(msg.Event))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.quitPending = false
		}

	default:
		cmds = append(cmds, m.input.Update(msg), m.updateEditor(msg))
	}

	m.layout()
	return m, tea.Batch(cmds...)
}

func (m *Model) run(msg invokeMsg) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("dispatched function panicked", "panic", r)
		}
		if msg.done != nil {
			close(msg.done)
		}
	}()
	msg.fn()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	before := m.input.CurrentMode()
	actions, cmd, consumed := m.input.HandleKey(msg, inputContext{m})
	cmds := []tea.Cmd{cmd}
	if !consumed {
		cmds = append(cmds, m.updateEditor(msg))
	}
	if after := m.input.CurrentMode(); after != before {
		cmds = append(cmds, m.modeChanged(after))
	}
	for _, action := range actions {
		cmds = append(cmds, m.processAction(action))
	}
	return tea.Batch(cmds...)
}

// updateEditor feeds msg to the editor and copies any edit into the document
func (m *Model) updateEditor(msg tea.Msg) tea.Cmd {
	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.syncing = true
		m.doc.SetText(after)
		m.syncing = false
	}
	return cmd
}

func (m *Model) modeChanged(mode types.Mode) tea.Cmd {
	if mode == types.ModeEdit {
		m.jumpPending = false
		return m.editor.Focus()
	}
	m.editor.Blur()
	if m.finder.ResultCount() > 0 {
		if m.finder.CurrentResultIndex() < 0 {
			m.finder.SelectNearest(m.cursorOffset())
		}
	} else {
		m.jumpPending = true
	}
	return nil
}

func (m *Model) processAction(action types.Action) tea.Cmd {
	switch a := action.(type) {
	case types.UpdatePatternAction:
		m.jumpPending = true
		m.finder.SetPattern(a.Text)

	case types.UpdateReplacementAction:
		m.replacement = a.Text

	case types.NextResultAction:
		m.step(true)

	case types.PrevResultAction:
		m.step(false)

	case types.ToggleMatchCaseAction:
		m.jumpPending = true
		m.finder.SetMatchCase(!m.finder.Query().MatchCase)

	case types.ToggleWholeWordAction:
		m.jumpPending = true
		m.finder.SetWholeWord(!m.finder.Query().WholeWord)

	case types.ToggleRegexAction:
		m.jumpPending = true
		m.finder.SetUseRegex(!m.finder.Query().UseRegex)

	case types.ReplaceCurrentAction:
		return m.replaceCurrent()

	case types.ReplaceAllAction:
		return m.replaceAll()

	case types.SaveAction:
		return m.save()

	case types.ToggleHelpAction:
		m.showHelp = !m.showHelp

	case types.QuitAction:
		return m.quit(a.Force)
	}
	return nil
}

// step moves through the results; without a selection it starts from the cursor
func (m *Model) step(forward bool) {
	if m.finder.ResultCount() == 0 {
		return
	}
	if m.finder.CurrentResultIndex() < 0 {
		m.finder.SelectNearest(m.cursorOffset())
		if !forward {
			m.finder.MoveToPrevResult()
		}
		return
	}
	if forward {
		m.finder.MoveToNextResult()
	} else {
		m.finder.MoveToPrevResult()
	}
}

func (m *Model) replaceCurrent() tea.Cmd {
	inserted, err := m.finder.ReplaceCurrent(m.replacement)
	if err != nil {
		return m.setStatus(err.Error(), views.StatusWarning)
	}
	m.moveToOffset(inserted.End())
	m.jumpPending = true
	return nil
}

func (m *Model) replaceAll() tea.Cmd {
	n, err := m.finder.ReplaceAll(m.replacement)
	switch {
	case err != nil:
		return m.setStatus(err.Error(), views.StatusWarning)
	case n == 0:
		return m.setStatus("nothing to replace", views.StatusInfo)
	case n == 1:
		return m.setStatus("replaced 1 occurrence", views.StatusSuccess)
	default:
		return m.setStatus(fmt.Sprintf("replaced %d occurrences", n), views.StatusSuccess)
	}
}

// save writes a snapshot of the document in the background
func (m *Model) save() tea.Cmd {
	path := m.doc.Path()
	if path == "" {
		return m.setStatus("no file name: start sharppad with a path to save", views.StatusWarning)
	}
	text, version := m.doc.Text(), m.doc.Version()

	m.manager.Run(context.Background(), "save", func(ctx context.Context, _ tasks.Progress) error {
		if err := document.WriteFile(path, text); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		err := m.dispatcher.Post(func() {
			// edits made while writing keep the document modified
			if m.doc.Version() == version && m.doc.Path() == path {
				m.doc.MarkSaved()
			}
		})
		if err != nil {
			m.logger.Debug("save: modified flag not cleared", "path", path, "error", err)
		}
		if m.bus != nil {
			m.bus.Publish(eventbus.DocumentSavedEvent{Path: path, Length: len(text)})
		}
		return nil
	})
	return m.setStatus("saving…", views.StatusInfo)
}

func (m *Model) quit(force bool) tea.Cmd {
	if force || m.quitPending || !m.doc.Modified() {
		return tea.Quit
	}
	cmd := m.setStatusFor("unsaved changes: ctrl+q again to quit, ctrl+s to save", views.StatusWarning, quitConfirmTimeout)
	m.quitPending = true
	return cmd
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch e := e.(type) {
	case eventbus.ErrorEvent:
		text := e.Message
		if e.Err != nil {
			text += ": " + e.Err.Error()
		}
		// panics carry a stack trace
		text, _, _ = strings.Cut(text, "\n")
		return m.setStatus(text, views.StatusError)
	case eventbus.DocumentSavedEvent:
		return m.setStatus(fmt.Sprintf("saved %s (%d bytes)", filepath.Base(e.Path), e.Length), views.StatusSuccess)
	case eventbus.DocumentReloadedEvent:
		return m.setStatus(fmt.Sprintf("reloaded %s from disk", filepath.Base(e.Path)), views.StatusInfo)
	case eventbus.ExternalChangeEvent:
		return m.setStatus(fmt.Sprintf("%s changed on disk, unsaved edits kept", filepath.Base(e.Path)), views.StatusWarning)
	}
	return nil
}

func (m *Model) setStatus(text string, kind views.StatusKind) tea.Cmd {
	return m.setStatusFor(text, kind, statusTimeout)
}

func (m *Model) setStatusFor(text string, kind views.StatusKind, d time.Duration) tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	m.statusMessage = text
	m.statusKind = kind
	m.quitPending = false
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// onDocumentChange reloads the editor after edits it did not make itself
func (m *Model) onDocumentChange(c document.Change) {
	if m.syncing {
		return
	}
	offset := document.OffsetOf(m.editor.Value(), m.cursorPosition())
	switch {
	case offset >= c.Offset+c.Removed:
		offset += c.Inserted - c.Removed
	case offset > c.Offset:
		offset = c.Offset + c.Inserted
	}
	m.editor.SetValue(m.doc.Text())
	m.moveToOffset(offset)
}

func (m *Model) onFindChange(c find.Change) {
	switch c.Property {
	case find.PropertyResults:
		if m.jumpPending && m.finder.ResultCount() > 0 {
			m.jumpPending = false
			m.finder.SelectNearest(m.cursorOffset())
		}
	case find.PropertyCurrentResultIndex:
		if r, ok := m.finder.CurrentResult(); ok {
			m.moveToOffset(r.Index)
		}
	}
}

func (m *Model) cursorPosition() domain.Position {
	li := m.editor.LineInfo()
	return domain.Position{Line: m.editor.Line(), Column: li.StartColumn + li.ColumnOffset}
}

func (m *Model) cursorOffset() int {
	return document.OffsetOf(m.doc.Text(), m.cursorPosition())
}

func (m *Model) moveToOffset(offset int) {
	m.moveCursor(document.PositionOf(m.doc.Text(), offset))
}

// moveCursor walks the editor cursor to pos. The editor only moves by
// visual rows, so it steps until the line matches or stops making progress.
func (m *Model) moveCursor(pos domain.Position) {
	type spot struct{ line, row int }
	at := func() spot { return spot{m.editor.Line(), m.editor.LineInfo().RowOffset} }

	for m.editor.Line() > pos.Line {
		before := at()
		m.editor.CursorUp()
		if at() == before {
			break
		}
	}
	for m.editor.Line() < pos.Line {
		before := at()
		m.editor.CursorDown()
		if at() == before {
			break
		}
	}
	m.editor.SetCursor(pos.Column)
	m.scrollToCursor()
}

// scrollToCursor lets the editor reposition its viewport, which it only
// does while updating with focus
func (m *Model) scrollToCursor() {
	focused := m.editor.Focused()
	if !focused {
		m.editor.Focus()
	}
	m.editor, _ = m.editor.Update(nil)
	if !focused {
		m.editor.Blur()
	}
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	chrome := views.ChromeHeight(views.ViewState{
		Mode:     m.input.CurrentMode().String(),
		ShowHelp: m.showHelp,
		Help:     m.helpView(),
	})
	m.editor.SetWidth(m.width)
	m.editor.SetHeight(max(1, m.height-chrome))

	inputWidth := max(10, m.width-40)
	m.input.PatternInput().Width = inputWidth
	m.input.ReplacementInput().Width = inputWidth
}

func (m *Model) helpView() string {
	if !m.showHelp {
		return ""
	}
	return m.help.View(m.keys)
}

// View renders the model
func (m *Model) View() string {
	mode := m.input.CurrentMode()
	state := views.ViewState{
		Width:          m.width,
		Height:         m.height,
		FilePath:       m.doc.Path(),
		Modified:       m.doc.Modified(),
		Editor:         m.editor.View(),
		Cursor:         m.cursorPosition(),
		Mode:           mode.String(),
		PatternInput:   m.input.PatternInput().View(),
		ReplaceInput:   m.input.ReplacementInput().View(),
		ReplaceFocused: m.input.ReplaceFocused(),
		Query:          m.finder.Query(),
		ResultCount:    m.finder.ResultCount(),
		CurrentIndex:   m.finder.CurrentResultIndex(),
		Faulted:        m.finder.IsFaulted(),
		FaultMessage:   m.finder.FaultMessage(),
		Searching:      m.finder.IsSearching(),
		StatusMessage:  m.statusMessage,
		StatusKind:     m.statusKind,
		ShowHelp:       m.showHelp,
		Help:           m.helpView(),
		E2E:            m.e2e,
	}
	if p := m.finder.Progress(); state.Searching && p > 0 {
		state.ProgressBar = m.progress.ViewAs(p)
	}
	if mode != types.ModeEdit {
		state.Preview, state.PreviewStart, state.PreviewEnd = m.preview()
	}
	return m.renderer.Render(state)
}

// preview returns the line holding the current match and the match's span in it
func (m *Model) preview() (string, int, int) {
	r, ok := m.finder.CurrentResult()
	text := m.doc.Text()
	if !ok || r.End() > len(text) {
		return "", 0, 0
	}
	start := strings.LastIndexByte(text[:r.Index], '\n') + 1
	line := document.LineAt(text, r.Index)
	from := r.Index - start
	return line, from, min(from+r.Length, len(line))
}

// inputContext exposes the state the input modes read
type inputContext struct {
	m *Model
}

func (c inputContext) Pattern() string        { return c.m.finder.Query().Pattern }
func (c inputContext) ResultCount() int       { return c.m.finder.ResultCount() }
func (c inputContext) HasCurrentResult() bool { return c.m.finder.CurrentResultIndex() >= 0 }
func (c inputContext) Modified() bool         { return c.m.doc.Modified() }
