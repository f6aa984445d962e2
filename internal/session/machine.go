package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/allot/internal/allocation"
)

// Clock abstracts wall-clock time so elapsed-time behaviour is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// EndListener is told when a session ends, so session-scoped history held
// elsewhere (reminder triggers) can be cleared.
type EndListener interface {
	SessionEnded()
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// WithEndListener registers l to be notified by End.
func WithEndListener(l EndListener) Option {
	return func(m *Machine) { m.listeners = append(m.listeners, l) }
}

// Machine owns the session lifecycle. It is the single writer of a Session:
// every mutation goes through one of its transitions, each applied under a
// mutex so no partial state is observable.
//
// Transitions whose preconditions do not hold are no-ops that return the
// unchanged snapshot. All returned sessions are copies.
type Machine struct {
	mu        sync.Mutex
	sess      *Session
	clock     Clock
	newID     func() string
	listeners []EndListener
}

// NewMachine wraps sess, which may be nil when no session exists.
func NewMachine(sess *Session, opts ...Option) *Machine {
	m := &Machine{
		sess:  sess.Clone(),
		clock: SystemClock{},
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns a snapshot of the current session, or nil.
func (m *Machine) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Clone()
}

// IsActive reports whether a session exists and its clock is running.
func (m *Machine) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil && m.sess.Status == StatusActive
}

// Now returns the machine's notion of the current time.
func (m *Machine) Now() time.Time {
	return m.clock.Now()
}

// ElapsedMinutes returns the unfolded time of the active category.
func (m *Machine) ElapsedMinutes() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ElapsedSeconds(m.sess, m.clock.Now()) / 60
}

// Start creates a new active session from allocs, with the first allocation's
// category running. It is a no-op when a session already exists or allocs is
// empty.
func (m *Machine) Start(allocs []allocation.Allocation, totalMinutes int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil || len(allocs) == 0 {
		return m.sess.Clone()
	}
	now := m.clock.Now()
	s := &Session{
		ID:               m.newID(),
		TotalDuration:    totalMinutes,
		StartedAt:        now,
		Allocations:      make([]CategoryAllocation, len(allocs)),
		ActiveCategoryID: allocs[0].CategoryID,
		Status:           StatusActive,
	}
	for i, a := range allocs {
		s.Allocations[i] = CategoryAllocation{
			CategoryID:       a.CategoryID,
			AllocatedMinutes: a.AllocatedMinutes,
		}
	}
	s.CategoryStartedAt = &now
	m.sess = s
	return m.sess.Clone()
}

// SwitchContext folds the running time into the outgoing category and starts
// the clock on categoryID. Only valid while active and for a different, known
// category.
func (m *Machine) SwitchContext(categoryID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil || s.Status != StatusActive || categoryID == s.ActiveCategoryID || s.Allocation(categoryID) == nil {
		return s.Clone()
	}
	now := m.clock.Now()
	if r, ok := s.Clock().(Running); ok {
		fold(s, minutesBetween(r.Since, now))
	}
	s.ActiveCategoryID = categoryID
	s.CategoryStartedAt = &now
	return s.Clone()
}

// Pause stops the clock without folding: the span since the last anchor is
// not counted. Only valid while active.
func (m *Machine) Pause() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil || s.Status != StatusActive {
		return s.Clone()
	}
	s.Status = StatusPaused
	s.CategoryStartedAt = nil
	return s.Clone()
}

// Resume re-anchors the clock at now. Valid from paused or suspended.
func (m *Machine) Resume() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil || (s.Status != StatusPaused && s.Status != StatusSuspended) {
		return s.Clone()
	}
	now := m.clock.Now()
	s.Status = StatusActive
	s.CategoryStartedAt = &now
	return s.Clone()
}

// Suspend folds elapsedMinutes into the active category and stops the clock.
// Valid from active or paused.
func (m *Machine) Suspend(elapsedMinutes float64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	suspend(m.sess, elapsedMinutes)
	return m.sess.Clone()
}

// AdjustContextTime overrides the remaining time of categoryID. The request is
// clamped to [0, allocated-currentElapsed] and UsedMinutes is rewritten so the
// category shows that remaining time; AllocatedMinutes never changes.
func (m *Machine) AdjustContextTime(categoryID string, newRemainingMinutes, currentElapsedMinutes float64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.sess.Allocation(categoryID)
	if a == nil {
		return m.sess.Clone()
	}
	allocated := float64(a.AllocatedMinutes)
	maxRemaining := allocated - currentElapsedMinutes
	remaining := max(0, min(newRemainingMinutes, maxRemaining))
	a.UsedMinutes = max(0, allocated-remaining-currentElapsedMinutes)
	return m.sess.Clone()
}

// End destroys the session and notifies every EndListener. The returned
// snapshot has the running span folded in and StatusCompleted; it is nil when
// there was no session.
func (m *Machine) End() *Session {
	m.mu.Lock()
	s := m.sess
	if s == nil {
		m.mu.Unlock()
		return nil
	}
	final := s.Clone()
	if r, ok := final.Clock().(Running); ok {
		fold(final, minutesBetween(r.Since, m.clock.Now()))
	}
	final.Status = StatusCompleted
	final.CategoryStartedAt = nil
	m.sess = nil
	listeners := append([]EndListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l.SessionEnded()
	}
	return final
}

// suspend is shared by Machine.Suspend and Recover.
func suspend(s *Session, elapsedMinutes float64) bool {
	if s == nil || (s.Status != StatusActive && s.Status != StatusPaused) {
		return false
	}
	fold(s, elapsedMinutes)
	s.Status = StatusSuspended
	s.CategoryStartedAt = nil
	return true
}

// fold adds minutes to the active category's usage.
func fold(s *Session, minutes float64) {
	if minutes <= 0 {
		return
	}
	if a := s.Allocation(s.ActiveCategoryID); a != nil {
		a.UsedMinutes += minutes
	}
}

func minutesBetween(from, to time.Time) float64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}
