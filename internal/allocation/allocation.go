// Package allocation turns weighted, prioritised category constraints and a
// total duration into a whole-minute budget per category.
//
// Calculate never fails: every anomaly is reported as a typed Warning and the
// IsValid flag. Only an empty constraint list is invalid.
package allocation

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// WarningType identifies the kind of anomaly found while allocating.
type WarningType string

const (
	WarningNoContexts            WarningType = "no_contexts"
	WarningOverCommittedMinimums WarningType = "over_committed_minimums"
	WarningUnderUtilizedMaximums WarningType = "under_utilized_maximums"
)

// Constraint describes one category competing for session time.
type Constraint struct {
	ID          string  `json:"id" yaml:"id"`
	Priority    int     `json:"priority" yaml:"priority"` // 1 (highest) .. 5
	MinDuration *int    `json:"min_duration,omitempty" yaml:"min,omitempty"`
	MaxDuration *int    `json:"max_duration,omitempty" yaml:"max,omitempty"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// Allocation is the whole-minute budget computed for one category.
type Allocation struct {
	CategoryID       string `json:"category_id"`
	AllocatedMinutes int    `json:"allocated_minutes"`
}

// Details carries the numbers behind a Warning. Unused fields are zero.
type Details struct {
	ExcessMinutes    int `json:"excess_minutes,omitempty"`
	SuggestedMinutes int `json:"suggested_minutes,omitempty"`
	UnusedMinutes    int `json:"unused_minutes,omitempty"`
}

// Warning is a non-fatal anomaly attached to a Result.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
	Details *Details    `json:"details,omitempty"`
}

// Result is the outcome of Calculate.
type Result struct {
	Allocations    []Allocation `json:"allocations"`
	TotalAllocated int          `json:"total_allocated"`
	Warnings       []Warning    `json:"warnings"`
	IsValid        bool         `json:"is_valid"`
}

// HasWarning reports whether r carries a warning of type t.
func (r Result) HasWarning(t WarningType) bool {
	for _, w := range r.Warnings {
		if w.Type == t {
			return true
		}
	}
	return false
}

// Minutes returns the allocation for id, or 0 when id is unknown.
func (r Result) Minutes(id string) int {
	for _, a := range r.Allocations {
		if a.CategoryID == id {
			return a.AllocatedMinutes
		}
	}
	return 0
}

// Calculate computes a minute budget per constraint whose sum is exactly
// totalMinutes. Negative totals are treated as zero.
func Calculate(constraints []Constraint, totalMinutes int) Result {
	if len(constraints) == 0 {
		return Result{
			Allocations: []Allocation{},
			Warnings: []Warning{{
				Type:    WarningNoContexts,
				Message: "no categories to allocate time to",
			}},
			IsValid: false,
		}
	}
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	total := float64(totalMinutes)

	sumMin := 0
	for _, c := range constraints {
		sumMin += minOf(c)
	}

	if sumMin > totalMinutes {
		return scaleMinimums(constraints, totalMinutes, sumMin)
	}

	var warnings []Warning
	tentative := make([]float64, len(constraints))
	capped := make([]bool, len(constraints))
	for i, c := range constraints {
		tentative[i] = float64(minOf(c))
	}

	distribute(constraints, tentative, capped, total-float64(sumMin))

	// Every pass either caps at least one uncapped category or stops, so
	// len(constraints)+1 passes always reach a fixed point.
	for pass := 0; pass <= len(constraints); pass++ {
		excess := 0.0
		for i, c := range constraints {
			if capped[i] || c.MaxDuration == nil {
				continue
			}
			limit := float64(*c.MaxDuration)
			if tentative[i] > limit {
				excess += tentative[i] - limit
				tentative[i] = limit
				capped[i] = true
			}
		}
		if excess == 0 {
			break
		}
		distribute(constraints, tentative, capped, excess)
	}

	placed := 0.0
	for _, v := range tentative {
		placed += v
	}
	if unused := total - placed; unused > 0.5 {
		n := int(math.Round(unused))
		warnings = append(warnings, Warning{
			Type:    WarningUnderUtilizedMaximums,
			Message: fmt.Sprintf("maximum durations leave %d minutes unallocated", n),
			Details: &Details{UnusedMinutes: n},
		})
	}

	return Result{
		Allocations:    roundToTotal(constraints, tentative, totalMinutes, true),
		TotalAllocated: totalMinutes,
		Warnings:       warnings,
		IsValid:        true,
	}
}

// scaleMinimums shrinks every minimum by the same ratio when the minimums
// alone exceed the session length.
func scaleMinimums(constraints []Constraint, totalMinutes, sumMin int) Result {
	ratio := float64(totalMinutes) / float64(sumMin)
	scaled := make([]float64, len(constraints))
	for i, c := range constraints {
		scaled[i] = float64(minOf(c)) * ratio
	}
	excess := sumMin - totalMinutes
	return Result{
		Allocations:    roundToTotal(constraints, scaled, totalMinutes, false),
		TotalAllocated: totalMinutes,
		Warnings: []Warning{{
			Type: WarningOverCommittedMinimums,
			Message: fmt.Sprintf("minimum durations need %d minutes but only %d are available; minimums were scaled down",
				sumMin, totalMinutes),
			Details: &Details{ExcessMinutes: excess, SuggestedMinutes: sumMin},
		}},
		IsValid: true,
	}
}

// distribute spreads amount over the uncapped categories in proportion to
// their weight, or equally when the uncapped weights sum to zero.
func distribute(constraints []Constraint, tentative []float64, capped []bool, amount float64) {
	if amount <= 0 {
		return
	}
	open := 0
	weights := 0.0
	for i, c := range constraints {
		if capped[i] {
			continue
		}
		open++
		weights += weightOf(c)
	}
	if open == 0 {
		return
	}
	for i, c := range constraints {
		if capped[i] {
			continue
		}
		if weights > 0 {
			tentative[i] += amount * weightOf(c) / weights
		} else {
			tentative[i] += amount / float64(open)
		}
	}
}

// roundToTotal rounds each value half up and hands the rounding difference to
// the highest priority category so the result sums to totalMinutes. Minutes
// that category cannot absorb without crossing its maximum (or its minimum
// when honorMin is set) go to the next category in priority order. Whatever
// no category can absorb lands on the highest priority category.
func roundToTotal(constraints []Constraint, values []float64, totalMinutes int, honorMin bool) []Allocation {
	out := make([]Allocation, len(constraints))
	sum := 0
	for i, c := range constraints {
		n := int(math.Floor(values[i] + 0.5))
		out[i] = Allocation{CategoryID: c.ID, AllocatedMinutes: n}
		sum += n
	}
	diff := totalMinutes - sum
	if diff == 0 {
		return out
	}

	// headroom is how many minutes category i can move in the direction of diff.
	headroom := func(i int) int {
		if diff > 0 {
			if limit := constraints[i].MaxDuration; limit != nil {
				return max(0, *limit-out[i].AllocatedMinutes)
			}
			return diff
		}
		floor := 0
		if honorMin {
			floor = minOf(constraints[i])
		}
		return max(0, out[i].AllocatedMinutes-floor)
	}

	order := byPriority(constraints)
	for _, i := range order {
		if diff == 0 {
			break
		}
		take := min(headroom(i), abs(diff))
		if diff < 0 {
			take = -take
		}
		out[i].AllocatedMinutes += take
		diff -= take
	}
	out[order[0]].AllocatedMinutes += diff
	return out
}

// byPriority returns constraint indexes ordered by ascending priority number.
// Equal priorities keep their input order.
func byPriority(constraints []Constraint) []int {
	order := make([]int, len(constraints))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(constraints[a].Priority, constraints[b].Priority)
	})
	return order
}

func minOf(c Constraint) int {
	if c.MinDuration == nil || *c.MinDuration < 0 {
		return 0
	}
	return *c.MinDuration
}

func weightOf(c Constraint) float64 {
	if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
		return 0
	}
	return c.Weight
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
