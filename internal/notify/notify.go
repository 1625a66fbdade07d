// Package notify delivers operator events (new contacts, unanswerable
// questions) to outbound channels. Delivery is fire-and-forget: a failed
// channel is logged and never affects the conversation.
package notify

import (
	"context"
	"log"
)

type Kind string

const (
	KindContact         Kind = "contact"
	KindUnknownQuestion Kind = "unknown_question"
)

type Event struct {
	Kind    Kind
	Message string
}

// Notifier delivers one operator event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi fans an event out to every channel. Individual failures are logged;
// Multi itself never fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			log.Printf("[Notify] channel error for %s event: %v", ev.Kind, err)
		}
	}
	return nil
}
