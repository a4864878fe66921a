package tasks

import (
	"sync"

	"sharppad/internal/notify"
)

// Progress receives coarse progress updates from a running action
type Progress interface {
	SetCompletion(fraction float64)
	SetText(text string)
	Completion() float64
	Text() string
}

// NopProgress discards updates
type NopProgress struct{}

func (NopProgress) SetCompletion(float64) {}
func (NopProgress) SetText(string)        {}
func (NopProgress) Completion() float64   { return 0 }
func (NopProgress) Text() string          { return "" }

// ProgressUpdate is delivered to Tracker subscribers
type ProgressUpdate struct {
	Completion float64
	Text       string
}

// Tracker is a Progress that remembers the latest values and notifies
// subscribers on the calling goroutine
type Tracker struct {
	mu         sync.Mutex
	completion float64
	text       string
	listeners  notify.List[ProgressUpdate]
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetCompletion stores fraction clamped to [0, 1]
func (t *Tracker) SetCompletion(fraction float64) {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	t.mu.Lock()
	if t.completion == fraction {
		t.mu.Unlock()
		return
	}
	t.completion = fraction
	update := ProgressUpdate{Completion: fraction, Text: t.text}
	t.mu.Unlock()

	t.listeners.Notify(update)
}

// SetText stores a short description of the current step
func (t *Tracker) SetText(text string) {
	t.mu.Lock()
	if t.text == text {
		t.mu.Unlock()
		return
	}
	t.text = text
	update := ProgressUpdate{Completion: t.completion, Text: text}
	t.mu.Unlock()

	t.listeners.Notify(update)
}

func (t *Tracker) Completion() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completion
}

func (t *Tracker) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// Subscribe registers fn for updates; it runs on the goroutine reporting progress
func (t *Tracker) Subscribe(fn func(ProgressUpdate)) func() {
	return t.listeners.Subscribe(fn)
}
