package session

import "time"

// ProgressStatus classifies how much of a budget has been consumed.
type ProgressStatus string

const (
	ProgressNormal   ProgressStatus = "normal"
	ProgressWarning  ProgressStatus = "warning"
	ProgressUrgent   ProgressStatus = "urgent"
	ProgressOvertime ProgressStatus = "overtime"
)

// Progress is everything a display needs about one budget at one instant.
type Progress struct {
	Remaining  float64        `json:"remaining_minutes"` // negative in overtime
	Used       float64        `json:"used_minutes"`
	Percentage float64        `json:"percentage"`
	Status     ProgressStatus `json:"status"`
}

// ElapsedSeconds is the unfolded running time of the active category,
// recomputed from the stored anchor on every call. It is 0 while stopped.
func ElapsedSeconds(s *Session, now time.Time) float64 {
	r, ok := s.Clock().(Running)
	if !ok {
		return 0
	}
	d := now.Sub(r.Since)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

// RemainingForCategory is the budget left in a, which may be negative.
func RemainingForCategory(a CategoryAllocation, elapsedSeconds float64) float64 {
	return float64(a.AllocatedMinutes) + a.AdjustedMinutes - a.UsedMinutes - elapsedSeconds/60
}

// RemainingForSession is the session time left. elapsedSeconds belongs to the
// active category only; the others' UsedMinutes already hold their spans.
func RemainingForSession(totalDuration int, allocs []CategoryAllocation, elapsedSeconds float64) float64 {
	used := 0.0
	for _, a := range allocs {
		used += a.UsedMinutes
	}
	return float64(totalDuration) - used - elapsedSeconds/60
}

// StatusFor classifies a consumption percentage. Exactly 100% is urgent;
// anything beyond is overtime.
func StatusFor(percentageUsed float64) ProgressStatus {
	switch {
	case percentageUsed > 100:
		return ProgressOvertime
	case percentageUsed >= 90:
		return ProgressUrgent
	case percentageUsed >= 75:
		return ProgressWarning
	default:
		return ProgressNormal
	}
}

// CategoryProgress derives the display values for a. A zero (or negative)
// budget reports 0% and normal.
func CategoryProgress(a CategoryAllocation, elapsedSeconds float64) Progress {
	return progress(float64(a.AllocatedMinutes)+a.AdjustedMinutes, RemainingForCategory(a, elapsedSeconds))
}

// SessionProgress derives the display values for the whole session at now.
func SessionProgress(s *Session, now time.Time) Progress {
	if s == nil {
		return Progress{Status: ProgressNormal}
	}
	remaining := RemainingForSession(s.TotalDuration, s.Allocations, ElapsedSeconds(s, now))
	return progress(float64(s.TotalDuration), remaining)
}

// Reading is the progress of one category within a session.
type Reading struct {
	CategoryID string `json:"category_id"`
	Active     bool   `json:"active"`
	Progress
}

// Readings returns one Reading per category at now, in allocation order.
// Only the active category is charged the running time.
func Readings(s *Session, now time.Time) []Reading {
	if s == nil {
		return nil
	}
	elapsed := ElapsedSeconds(s, now)
	out := make([]Reading, len(s.Allocations))
	for i, a := range s.Allocations {
		active := a.CategoryID == s.ActiveCategoryID
		var e float64
		if active {
			e = elapsed
		}
		out[i] = Reading{
			CategoryID: a.CategoryID,
			Active:     active,
			Progress:   CategoryProgress(a, e),
		}
	}
	return out
}

func progress(budget, remaining float64) Progress {
	used := budget - remaining
	if budget <= 0 {
		return Progress{Remaining: remaining, Used: used, Percentage: 0, Status: ProgressNormal}
	}
	pct := used / budget * 100
	return Progress{Remaining: remaining, Used: used, Percentage: pct, Status: StatusFor(pct)}
}
