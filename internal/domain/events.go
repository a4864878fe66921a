package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventError            EventType = "Error"
	EventTaskStarted      EventType = "TaskStarted"
	EventTaskCompleted    EventType = "TaskCompleted"
	EventSearchCompleted  EventType = "SearchCompleted"
	EventSearchFaulted    EventType = "SearchFaulted"
	EventDocumentLoaded   EventType = "DocumentLoaded"
	EventDocumentSaved    EventType = "DocumentSaved"
	EventDocumentReloaded EventType = "DocumentReloaded"
	EventExternalChange   EventType = "ExternalChange"
	EventConfigLoaded     EventType = "ConfigLoaded"
	EventConfigSaved      EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// ErrorEvent is emitted when an error should be surfaced to the user
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// TaskStartedEvent is emitted once a background task has been admitted
type TaskStartedEvent struct {
	TaskID string
	Name   string
}

func (e TaskStartedEvent) Type() EventType { return EventTaskStarted }

// TaskCompletedEvent is emitted when a background task finishes, faults or is cancelled
type TaskCompletedEvent struct {
	TaskID    string
	Name      string
	Cancelled bool
	Err       error
	Duration  time.Duration
}

func (e TaskCompletedEvent) Type() EventType { return EventTaskCompleted }

// SearchCompletedEvent is emitted when a search pass publishes its results
type SearchCompletedEvent struct {
	Query    SearchQuery
	Matches  int
	Retries  int // passes abandoned because of invalidation
	Duration time.Duration
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFaultedEvent is emitted when the pattern cannot be compiled
type SearchFaultedEvent struct {
	Query   SearchQuery
	Message string
}

func (e SearchFaultedEvent) Type() EventType { return EventSearchFaulted }

// DocumentLoadedEvent is emitted after a file is read into the document
type DocumentLoadedEvent struct {
	Path   string
	Length int
}

func (e DocumentLoadedEvent) Type() EventType { return EventDocumentLoaded }

// DocumentSavedEvent is emitted after the document is written to disk
type DocumentSavedEvent struct {
	Path   string
	Length int
}

func (e DocumentSavedEvent) Type() EventType { return EventDocumentSaved }

// DocumentReloadedEvent is emitted when an external change was pulled into the document
type DocumentReloadedEvent struct {
	Path string
}

func (e DocumentReloadedEvent) Type() EventType { return EventDocumentReloaded }

// ExternalChangeEvent is emitted when the file changed on disk but the
// document has unsaved edits and was left alone
type ExternalChangeEvent struct {
	Path string
}

func (e ExternalChangeEvent) Type() EventType { return EventExternalChange }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
