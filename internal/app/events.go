package app

import "context"

// EventKind names what happened.
type EventKind string

// Event kinds.
const (
	EventFeedback   EventKind = "feedback"
	EventLogUpdated EventKind = "log.updated"
)

// Event is pushed to view layers after a tracker change.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	Date    string    `json:"date,omitempty"`
}

// Notifier receives tracker events. Publish must not block.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

// Publish implements Notifier.
func (f NotifierFunc) Publish(ctx context.Context, ev Event) { f(ctx, ev) }

// NopNotifier discards every event.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(context.Context, Event) {}
