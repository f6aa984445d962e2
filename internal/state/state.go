// Package state persists the whole application state, including the optional
// in-progress session, and applies the recovery guard on every load.
package state

import (
	"errors"
	"fmt"

	"github.com/fakeyudi/allot/internal/reminder"
	"github.com/fakeyudi/allot/internal/session"
)

// Version is the current on-disk format version.
const Version = 1

// Mode is the surrounding application mode.
type Mode string

const (
	// ModePlanning is the pre-session mode: categories are edited and plans
	// previewed.
	ModePlanning Mode = "planning"
	// ModeSession means a session is live in the running process.
	ModeSession Mode = "session"
)

// State is everything allot persists between runs.
type State struct {
	Version   int                `json:"version"`
	Mode      Mode               `json:"mode"`
	Session   *session.Session   `json:"session,omitempty"`
	Reminders []reminder.Trigger `json:"reminders,omitempty"`
}

// New returns the state of a fresh install.
func New() *State {
	return &State{Version: Version, Mode: ModePlanning}
}

// LoadResult is a state that has passed the recovery guard.
type LoadResult struct {
	State *State
	// Recovered is true when the guard had to suspend a session left running
	// or paused by a previous process.
	Recovered bool
	// HasSuspended is true when a suspended session is waiting to be
	// continued or discarded.
	HasSuspended bool
}

// Guard forces any session left active or paused into suspended and puts the
// application back into planning mode: nothing is live in a process that has
// only just loaded its state. It reports whether the session changed.
func Guard(st *State) bool {
	recovered := session.Recover(st.Session)
	st.Mode = ModePlanning
	return recovered
}

// Open loads the state from store and runs Guard before anything else sees
// the session. A recovered state is written back immediately so the stale
// clock cannot resurface. A missing state file yields New().
func Open(store Store) (LoadResult, error) {
	res, err := Peek(store)
	if err != nil {
		return LoadResult{}, err
	}
	if res.Recovered {
		if err := store.Save(res.State); err != nil {
			return LoadResult{}, fmt.Errorf("saving recovered session: %w", err)
		}
	}
	return res, nil
}

// Peek is Open without the write back, for readers that never take
// ownership of the session.
func Peek(store Store) (LoadResult, error) {
	st, err := store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			return LoadResult{}, err
		}
		st = New()
	}
	recovered := Guard(st)
	return LoadResult{
		State:        st,
		Recovered:    recovered,
		HasSuspended: session.Recoverable(st.Session),
	}, nil
}
