// Package reminder decides when session-scoped notices fire. "Time
// exhausted" is edge triggered: it fires once the first time a category's
// remaining time is observed at or below zero during one activation, and not
// again on later ticks of the same activation.
package reminder

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Gate reports whether session-scoped reminders may fire.
type Gate interface {
	IsActive() bool
}

// Trigger identifies one fired notice: a category within one activation,
// where an activation is keyed by the time its clock was anchored.
type Trigger struct {
	CategoryID  string    `json:"category_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

func (t Trigger) key() string {
	return fmt.Sprintf("%s@%d", t.CategoryID, t.ActivatedAt.UnixNano())
}

// Tracker holds the session-scoped trigger history.
type Tracker struct {
	mu    sync.Mutex
	fired map[string]Trigger
}

// NewTracker restores a tracker from persisted history.
func NewTracker(history []Trigger) *Tracker {
	t := &Tracker{fired: make(map[string]Trigger, len(history))}
	for _, tr := range history {
		t.fired[tr.key()] = tr
	}
	return t
}

// Observe reports whether a "time exhausted" notice should fire now for
// categoryID, activated at activatedAt, with remaining minutes left. It
// returns true at most once per activation and never while gate is closed.
func (t *Tracker) Observe(gate Gate, categoryID string, activatedAt time.Time, remaining float64) bool {
	if remaining > 0 || (gate != nil && !gate.IsActive()) {
		return false
	}
	tr := Trigger{CategoryID: categoryID, ActivatedAt: activatedAt}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.fired[tr.key()]; ok {
		return false
	}
	t.fired[tr.key()] = tr
	return true
}

// SessionEnded clears the trigger history. It satisfies session.EndListener.
func (t *Tracker) SessionEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.fired)
}

// History returns the fired triggers for persistence, oldest activation first.
func (t *Tracker) History() []Trigger {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Trigger, 0, len(t.fired))
	for _, tr := range t.fired {
		out = append(out, tr)
	}
	sortTriggers(out)
	return out
}

func sortTriggers(ts []Trigger) {
	slices.SortFunc(ts, func(a, b Trigger) int {
		if c := a.ActivatedAt.Compare(b.ActivatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.CategoryID, b.CategoryID)
	})
}
