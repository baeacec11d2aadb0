package main

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/calorilog/internal/app"
)

// feedbackWait bounds how long log waits for the coaching message.
var feedbackWait = 15 * time.Second

// feedbackSink keeps the latest feedback message for the running command.
type feedbackSink struct {
	messages chan string
}

func newFeedbackSink() *feedbackSink {
	return &feedbackSink{messages: make(chan string, 1)}
}

// Publish implements app.Notifier. It never blocks.
func (f *feedbackSink) Publish(_ context.Context, ev app.Event) {
	if ev.Kind != app.EventFeedback || ev.Message == "" {
		return
	}
	select {
	case f.messages <- ev.Message:
	default:
	}
}

// Wait returns the next message, or "" once timeout passes or ctx is done.
func (f *feedbackSink) Wait(ctx context.Context, timeout time.Duration) string {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-f.messages:
		return msg
	case <-timer.C:
		return ""
	case <-ctx.Done():
		return ""
	}
}

var _ app.Notifier = (*feedbackSink)(nil)
