package ui

import (
	"time"

	"sharppad/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// invokeMsg carries a function to run on the update loop
type invokeMsg struct {
	fn   func()
	done chan struct{} // nil for posts
}

// clearStatusMsg expires a status message
type clearStatusMsg struct {
	seq int
}

// quitConfirmTimeout is how long a second ctrl+q has to arrive
const quitConfirmTimeout = 3 * time.Second

// statusTimeout is how long transient status messages stay up
const statusTimeout = 4 * time.Second
