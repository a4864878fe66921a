package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharppad/internal/dispatch"
	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
)

type env struct {
	path    string
	loop    *dispatch.Loop
	bus     eventbus.EventBus
	doc     *document.Document
	watcher *Watcher
	events  chan domain.DomainEvent
}

func setup(t *testing.T, content string) *env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := document.Load(path)
	require.NoError(t, err)

	e := &env{
		path:   path,
		loop:   dispatch.NewLoop(nil),
		bus:    eventbus.New(),
		doc:    doc,
		events: make(chan domain.DomainEvent, 8),
	}
	for _, typ := range []eventbus.EventType{eventbus.EventDocumentReloaded, eventbus.EventExternalChange, eventbus.EventError} {
		e.bus.Subscribe(typ, func(ev eventbus.DomainEvent) { e.events <- ev })
	}
	e.watcher = New(Config{
		Path:       path,
		Document:   doc,
		Dispatcher: e.loop,
		Bus:        e.bus,
		Debounce:   10 * time.Millisecond,
	})
	require.NoError(t, e.watcher.Start(context.Background()))

	t.Cleanup(func() {
		e.watcher.Stop()
		e.bus.Close()
		e.loop.Close()
	})
	return e
}

func (e *env) text(t *testing.T) (text string, modified bool) {
	t.Helper()
	require.NoError(t, e.loop.Invoke(context.Background(), func() {
		text, modified = e.doc.Text(), e.doc.Modified()
	}))
	return text, modified
}

func (e *env) next(t *testing.T) domain.DomainEvent {
	t.Helper()
	select {
	case ev := <-e.events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no watch event")
		return nil
	}
}

func TestReloadsUnmodifiedDocument(t *testing.T) {
	e := setup(t, "before")

	require.NoError(t, os.WriteFile(e.path, []byte("after"), 0644))

	ev := e.next(t)
	assert.Equal(t, domain.DocumentReloadedEvent{Path: e.path}, ev)
	text, modified := e.text(t)
	assert.Equal(t, "after", text)
	assert.False(t, modified)
}

func TestKeepsUnsavedEdits(t *testing.T) {
	e := setup(t, "before")
	require.NoError(t, e.loop.Invoke(context.Background(), func() {
		e.doc.SetText("mine")
	}))

	require.NoError(t, os.WriteFile(e.path, []byte("theirs"), 0644))

	ev := e.next(t)
	assert.Equal(t, domain.ExternalChangeEvent{Path: e.path}, ev)
	text, modified := e.text(t)
	assert.Equal(t, "mine", text)
	assert.True(t, modified)
}

func TestOwnSaveIsIgnored(t *testing.T) {
	e := setup(t, "before")
	require.NoError(t, e.loop.Invoke(context.Background(), func() {
		e.doc.SetText("saved")
		require.NoError(t, e.doc.Save())
	}))

	assert.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return e.watcher.WaitIdle(ctx) == nil
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	select {
	case ev := <-e.events:
		t.Fatalf("unexpected event %v", ev.Type())
	default:
	}
	text, _ := e.text(t)
	assert.Equal(t, "saved", text)
}

func TestIgnoresOtherFiles(t *testing.T) {
	e := setup(t, "before")

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(e.path), "other.txt"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)

	assert.True(t, e.watcher.reload.IsIdle())
	text, _ := e.text(t)
	assert.Equal(t, "before", text)
}

func TestStartTwiceFails(t *testing.T) {
	e := setup(t, "x")

	assert.Error(t, e.watcher.Start(context.Background()))
}
