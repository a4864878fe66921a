package ui

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/find"
	"sharppad/internal/tasks"
	"sharppad/internal/ui/input/types"
)

// harness plays the bubbletea program: it owns the model and runs every
// message the dispatcher forwards
type harness struct {
	t      *testing.T
	m      *Model
	doc    *document.Document
	finder *find.Model
	msgs   chan tea.Msg
}

func newHarness(t *testing.T, text, path string) *harness {
	t.Helper()

	msgs := make(chan tea.Msg, 1024)
	d := NewProgramDispatcher()
	d.Start(func(msg tea.Msg) { msgs <- msg })

	manager := tasks.NewManager(tasks.ManagerConfig{Dispatcher: d})
	doc := document.New(text)
	doc.SetPath(path)
	finder := find.New(doc, d, manager,
		find.WithMinimumInterval(time.Millisecond),
		find.WithRetryBackoff(time.Millisecond),
	)
	m := NewModel(Options{Document: doc, Finder: finder, Manager: manager, Dispatcher: d})

	t.Cleanup(func() {
		d.Close()
		finder.Close()
		manager.Close()
		m.Close()
	})

	h := &harness{t: t, m: m, doc: doc, finder: finder, msgs: msgs}
	h.m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return h
}

func (h *harness) key(msg tea.KeyMsg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// waitFor pumps forwarded messages until cond holds
func (h *harness) waitFor(cond func() bool) {
	h.t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.m.Update(msg)
		case <-deadline:
			h.t.Fatal("condition not reached")
		}
	}
}

func (h *harness) waitForResults(n, current int) {
	h.t.Helper()
	h.waitFor(func() bool {
		return !h.finder.IsSearching() && h.finder.ResultCount() == n && h.finder.CurrentResultIndex() == current
	})
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if isQuit(c) {
				return true
			}
		}
	}
	return false
}

func TestTypingEditsDocument(t *testing.T) {
	h := newHarness(t, "world", "")

	h.typeText("hi ")

	assert.Equal(t, "hi world", h.doc.Text())
	assert.True(t, h.doc.Modified())
	assert.Equal(t, domain.Position{Line: 0, Column: 3}, h.m.cursorPosition())
}

func TestFindSelectsNearestMatchAndMovesCursor(t *testing.T) {
	h := newHarness(t, "alpha\nbeta\ngamma beta", "")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlF})
	require.Equal(t, types.ModeFind, h.m.input.CurrentMode())
	h.typeText("beta")

	h.waitForResults(2, 0)
	assert.Equal(t, domain.Position{Line: 1, Column: 0}, h.m.cursorPosition())
	assert.Contains(t, h.m.View(), "1/2")

	h.key(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, h.finder.CurrentResultIndex())
	assert.Equal(t, domain.Position{Line: 2, Column: 6}, h.m.cursorPosition())

	h.key(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, types.ModeEdit, h.m.input.CurrentMode())
	assert.Equal(t, "alpha\nbeta\ngamma beta", h.doc.Text())
}

func TestReplaceCurrentMovesToNextMatch(t *testing.T) {
	h := newHarness(t, "a1 a2 a3", "")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlR})
	h.typeText("a")
	h.waitForResults(3, 0)

	h.key(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("b")
	h.key(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "b1 a2 a3", h.doc.Text())
	h.waitForResults(2, 0)
	r, ok := h.finder.CurrentResult()
	require.True(t, ok)
	assert.Equal(t, 3, r.Index)
}

func TestReplaceAllReportsCount(t *testing.T) {
	h := newHarness(t, "x y x", "")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlR})
	h.typeText("x")
	h.waitForResults(2, 0)
	h.key(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("z")
	h.key(tea.KeyMsg{Type: tea.KeyCtrlA})

	assert.Equal(t, "z y z", h.doc.Text())
	assert.Equal(t, "replaced 2 occurrences", h.m.statusMessage)
}

func TestTogglesUpdateQuery(t *testing.T) {
	h := newHarness(t, "Word word", "")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlF})
	h.typeText("word")
	h.waitForResults(2, 0)

	h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c"), Alt: true})
	assert.True(t, h.finder.Query().MatchCase)
	h.waitForResults(1, 0)
	r, _ := h.finder.CurrentResult()
	assert.Equal(t, 5, r.Index)

	h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true})
	h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w"), Alt: true})
	q := h.finder.Query()
	assert.True(t, q.WholeWord)
	assert.False(t, q.UseRegex)
}

func TestSaveWritesFileAndClearsModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	h := newHarness(t, "draft", path)

	h.typeText("final ")
	h.key(tea.KeyMsg{Type: tea.KeyCtrlS})
	h.waitFor(func() bool { return !h.doc.Modified() })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "final draft", string(data))
}

func TestSaveAfterShutdownLogsUnclearedFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	h := newHarness(t, "draft", path)
	var buf bytes.Buffer
	h.m.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.typeText("x")

	h.m.dispatcher.Close()
	h.key(tea.KeyMsg{Type: tea.KeyCtrlS})
	h.m.manager.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xdraft", string(data))
	assert.True(t, h.doc.Modified())
	assert.Contains(t, buf.String(), "save: modified flag not cleared")
}

func TestSaveWithoutPathWarns(t *testing.T) {
	h := newHarness(t, "draft", "")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Contains(t, h.m.statusMessage, "no file name")
}

func TestQuitAsksAgainWhenModified(t *testing.T) {
	h := newHarness(t, "", "")

	assert.True(t, isQuit(h.key(tea.KeyMsg{Type: tea.KeyCtrlQ})))

	h.typeText("x")
	h.key(tea.KeyMsg{Type: tea.KeyCtrlQ})
	assert.True(t, h.m.quitPending)
	assert.Contains(t, h.m.View(), "unsaved changes")

	assert.True(t, isQuit(h.key(tea.KeyMsg{Type: tea.KeyCtrlQ})))
}

func TestForceQuit(t *testing.T) {
	h := newHarness(t, "", "")
	h.typeText("x")

	assert.True(t, isQuit(h.key(tea.KeyMsg{Type: tea.KeyCtrlC})))
}

func TestOutsideEditReloadsEditorAndKeepsCursor(t *testing.T) {
	h := newHarness(t, "one\ntwo", "")

	require.NoError(t, h.doc.Insert(0, "zero\n"))

	assert.Equal(t, "zero\none\ntwo", h.m.editor.Value())
	assert.Equal(t, domain.Position{Line: 1, Column: 0}, h.m.cursorPosition())
}

func TestEventsBecomeStatusMessages(t *testing.T) {
	h := newHarness(t, "", "")

	h.m.Update(EventMsg{Event: domain.ErrorEvent{Message: "save failed", Err: errors.New("disk full\nstack")}})
	assert.Equal(t, "save failed: disk full", h.m.statusMessage)

	h.m.Update(EventMsg{Event: domain.ExternalChangeEvent{Path: "/tmp/notes.txt"}})
	assert.Contains(t, h.m.View(), "notes.txt changed on disk")

	seq := h.m.statusSeq
	h.m.Update(clearStatusMsg{seq: seq})
	assert.Empty(t, h.m.statusMessage)
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t, "", "")

	h.key(tea.KeyMsg{Type: tea.KeyF1})

	assert.True(t, h.m.showHelp)
	assert.Contains(t, h.m.View(), "next match")
}
