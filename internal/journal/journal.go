// Package journal keeps an in-memory record of the operator events emitted
// during the current process lifetime, so the web UI and the interactive
// session can show what the twin has recorded.
package journal

import (
	"context"
	"sync"
	"time"

	"doppel/internal/notify"
)

type Entry struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Journal implements notify.Notifier so it can sit in the notification
// fan-out next to the outbound channels.
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
}

func New() *Journal {
	return &Journal{}
}

func (j *Journal) Notify(_ context.Context, ev notify.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, Entry{
		Kind:    string(ev.Kind),
		Message: ev.Message,
		At:      time.Now(),
	})
	return nil
}

// Entries returns a copy of the recorded events, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
