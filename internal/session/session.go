// Package session implements the timed execution of an allocation plan: the
// Session data model, the single-writer state machine that mutates it, the
// read-only clock that derives remaining time from stored timestamps, and the
// recovery guard applied whenever a session is loaded from disk.
package session

import "time"

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusSuspended Status = "suspended"
	// StatusCompleted only appears on the final snapshot returned by End.
	StatusCompleted Status = "completed"
)

// Session is one timed interval split across categories.
type Session struct {
	ID                string               `json:"id"`
	TotalDuration     int                  `json:"total_duration"` // minutes
	StartedAt         time.Time            `json:"started_at"`
	Allocations       []CategoryAllocation `json:"allocations"`
	ActiveCategoryID  string               `json:"active_category_id"`
	CategoryStartedAt *time.Time           `json:"category_started_at"`
	Status            Status               `json:"status"`
}

// CategoryAllocation is the budget and consumption of one category.
// AllocatedMinutes is frozen at Start; runtime corrections go through
// UsedMinutes and AdjustedMinutes.
type CategoryAllocation struct {
	CategoryID       string  `json:"category_id"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	UsedMinutes      float64 `json:"used_minutes"`
	AdjustedMinutes  float64 `json:"adjusted_minutes"`
}

// ClockState tells whether the active category's clock is running.
// It is either Running or Stopped.
type ClockState interface {
	clockState()
}

// Running means elapsed time accrues to the active category from Since.
type Running struct {
	Since time.Time
}

// Stopped means no time accrues.
type Stopped struct{}

func (Running) clockState() {}
func (Stopped) clockState() {}

// Clock returns the tagged clock state of s. A nil session is Stopped.
func (s *Session) Clock() ClockState {
	if s == nil || s.Status != StatusActive || s.CategoryStartedAt == nil {
		return Stopped{}
	}
	return Running{Since: *s.CategoryStartedAt}
}

// Allocation returns the allocation for categoryID, or nil.
func (s *Session) Allocation(categoryID string) *CategoryAllocation {
	if s == nil {
		return nil
	}
	for i := range s.Allocations {
		if s.Allocations[i].CategoryID == categoryID {
			return &s.Allocations[i]
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Allocations = append([]CategoryAllocation(nil), s.Allocations...)
	if s.CategoryStartedAt != nil {
		t := *s.CategoryStartedAt
		c.CategoryStartedAt = &t
	}
	return &c
}

// TotalAllocated sums AllocatedMinutes over every category.
func (s *Session) TotalAllocated() int {
	total := 0
	for _, a := range s.Allocations {
		total += a.AllocatedMinutes
	}
	return total
}

// TotalUsed sums UsedMinutes over every category.
func (s *Session) TotalUsed() float64 {
	total := 0.0
	for _, a := range s.Allocations {
		total += a.UsedMinutes
	}
	return total
}
