package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventPicked          EventType = "Picked"
	EventSearchCompleted EventType = "SearchCompleted"
	EventSearchFailed    EventType = "SearchFailed"
	EventLabelResolved   EventType = "LabelResolved"
	EventError           EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// PickedEvent is emitted when a host receives a committed pick
type PickedEvent struct {
	Source string // host that committed the pick, e.g. "header" or "contact-picker"
	Pick   Pick
}

func (e PickedEvent) Type() EventType { return EventPicked }

// SearchCompletedEvent is emitted when the current request of a session is applied
type SearchCompletedEvent struct {
	Source string
	Query  string
	Hits   int
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when the current request of a session failed
type SearchFailedEvent struct {
	Source string
	Query  string
	Err    error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// LabelResolvedEvent is emitted after a picker resolved a label by id
type LabelResolvedEvent struct {
	Kind     Kind
	ID       string
	Label    string
	Fallback bool // lookup failed and the raw id is shown
}

func (e LabelResolvedEvent) Type() EventType { return EventLabelResolved }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
