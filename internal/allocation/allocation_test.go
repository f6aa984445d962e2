package allocation_test

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/allot/internal/allocation"
)

func intPtr(n int) *int { return &n }

// generateConstraints produces 1..8 constraints with unique ids. When
// unboundedOne is true the last constraint never carries a maximum, so the
// maximums can always absorb the full total.
func generateConstraints(t *rapid.T, unboundedOne bool) []allocation.Constraint {
	n := rapid.IntRange(1, 8).Draw(t, "n")
	out := make([]allocation.Constraint, n)
	for i := range out {
		c := allocation.Constraint{
			ID:       fmt.Sprintf("c%d", i),
			Priority: rapid.IntRange(1, 5).Draw(t, "priority"),
			Weight:   float64(rapid.IntRange(0, 10).Draw(t, "weight")),
		}
		var lo int
		if rapid.Bool().Draw(t, "has_min") {
			lo = rapid.IntRange(0, 120).Draw(t, "min")
			c.MinDuration = intPtr(lo)
		}
		if rapid.Bool().Draw(t, "has_max") && !(unboundedOne && i == n-1) {
			c.MaxDuration = intPtr(lo + rapid.IntRange(0, 120).Draw(t, "max_over_min"))
		}
		out[i] = c
	}
	return out
}

func sumAllocated(r allocation.Result) int {
	total := 0
	for _, a := range r.Allocations {
		total += a.AllocatedMinutes
	}
	return total
}

// Feature: allot, Property 1: allocations always sum to the total
func TestAllocationsSumToTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		constraints := generateConstraints(t, false)
		total := rapid.IntRange(1, 1000).Draw(t, "total")

		r := allocation.Calculate(constraints, total)
		if !r.IsValid {
			t.Fatalf("expected valid result, got warnings %+v", r.Warnings)
		}
		if got := sumAllocated(r); got != total {
			t.Fatalf("sum mismatch: got %d, want %d (%+v)", got, total, r.Allocations)
		}
		if r.TotalAllocated != total {
			t.Fatalf("TotalAllocated: got %d, want %d", r.TotalAllocated, total)
		}
		if len(r.Allocations) != len(constraints) {
			t.Fatalf("allocation count: got %d, want %d", len(r.Allocations), len(constraints))
		}
		for i, a := range r.Allocations {
			if a.CategoryID != constraints[i].ID {
				t.Fatalf("allocation %d: got id %q, want %q", i, a.CategoryID, constraints[i].ID)
			}
		}
	})
}

// Feature: allot, Property 2: maximums are never exceeded
func TestAllocationsRespectMaximums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		constraints := generateConstraints(t, true)
		total := rapid.IntRange(1, 1000).Draw(t, "total")

		r := allocation.Calculate(constraints, total)
		for i, c := range constraints {
			if c.MaxDuration == nil {
				continue
			}
			if got := r.Allocations[i].AllocatedMinutes; got > *c.MaxDuration {
				t.Fatalf("%s: allocated %d exceeds max %d (%+v)", c.ID, got, *c.MaxDuration, r.Allocations)
			}
		}
		if r.HasWarning(allocation.WarningUnderUtilizedMaximums) {
			t.Fatalf("unexpected under-utilization with an unbounded category: %+v", r.Warnings)
		}
	})
}

// Feature: allot, Property 3: minimums are honoured when they fit
func TestAllocationsRespectMinimums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		constraints := generateConstraints(t, false)
		sumMin := 0
		for _, c := range constraints {
			if c.MinDuration != nil {
				sumMin += *c.MinDuration
			}
		}
		total := rapid.IntRange(max(1, sumMin), sumMin+500).Draw(t, "total")

		r := allocation.Calculate(constraints, total)
		if r.HasWarning(allocation.WarningOverCommittedMinimums) {
			t.Fatalf("minimums %d fit in %d but were reported over-committed", sumMin, total)
		}
		for i, c := range constraints {
			if c.MinDuration == nil {
				continue
			}
			if got := r.Allocations[i].AllocatedMinutes; got < *c.MinDuration {
				t.Fatalf("%s: allocated %d below min %d (%+v)", c.ID, got, *c.MinDuration, r.Allocations)
			}
		}
	})
}

// Feature: allot, Property 4: Calculate is pure
func TestCalculateIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		constraints := generateConstraints(t, false)
		total := rapid.IntRange(0, 1000).Draw(t, "total")

		first := allocation.Calculate(constraints, total)
		second := allocation.Calculate(constraints, total)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("results differ:\n%+v\n%+v", first, second)
		}
	})
}

func TestCalculateNoCategories(t *testing.T) {
	r := allocation.Calculate(nil, 60)
	if r.IsValid {
		t.Fatal("expected invalid result for zero categories")
	}
	if len(r.Allocations) != 0 {
		t.Errorf("expected no allocations, got %+v", r.Allocations)
	}
	if !r.HasWarning(allocation.WarningNoContexts) {
		t.Errorf("expected %s warning, got %+v", allocation.WarningNoContexts, r.Warnings)
	}
}

func TestCalculateEqualWeights(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 1, Weight: 1},
		{ID: "B", Priority: 2, Weight: 1},
	}, 100)

	if !r.IsValid || len(r.Warnings) != 0 {
		t.Fatalf("expected clean valid result, got %+v", r)
	}
	if r.Minutes("A") != 50 || r.Minutes("B") != 50 {
		t.Errorf("want A=50 B=50, got %+v", r.Allocations)
	}
}

func TestCalculateOverCommittedMinimums(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 1, MinDuration: intPtr(40)},
		{ID: "B", Priority: 2, MinDuration: intPtr(40)},
	}, 60)

	if !r.IsValid {
		t.Fatal("over-committed minimums must still be valid")
	}
	// The scale ratio is total/sumMin = 60/80, so both minimums become 30.
	// A 0.6 ratio giving A=36 B=24 would not match that formula.
	if r.Minutes("A") != 30 || r.Minutes("B") != 30 {
		t.Errorf("want A=30 B=30, got %+v", r.Allocations)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Type != allocation.WarningOverCommittedMinimums {
		t.Fatalf("expected one %s warning, got %+v", allocation.WarningOverCommittedMinimums, r.Warnings)
	}
	d := r.Warnings[0].Details
	if d == nil || d.ExcessMinutes != 20 || d.SuggestedMinutes != 80 {
		t.Errorf("want excess=20 suggested=80, got %+v", d)
	}
}

func TestCalculateScaledMinimumsRemainderGoesToHighestPriority(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 3, MinDuration: intPtr(40)},
		{ID: "B", Priority: 1, MinDuration: intPtr(40)},
		{ID: "C", Priority: 2, MinDuration: intPtr(40)},
	}, 100)

	// Each minimum scales to 33.33 and rounds to 33; the missing minute goes
	// to B.
	if r.Minutes("A") != 33 || r.Minutes("B") != 34 || r.Minutes("C") != 33 {
		t.Errorf("want A=33 B=34 C=33, got %+v", r.Allocations)
	}
	if sumAllocated(r) != 100 {
		t.Errorf("sum must equal total, got %+v", r.Allocations)
	}
}

func TestCalculateRedistributesCappedExcess(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 1, MaxDuration: intPtr(10), Weight: 1},
		{ID: "B", Priority: 2, Weight: 1},
	}, 100)

	if r.Minutes("A") != 10 || r.Minutes("B") != 90 {
		t.Errorf("want A=10 B=90, got %+v", r.Allocations)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", r.Warnings)
	}
}

func TestCalculateCascadingCaps(t *testing.T) {
	// B is only pushed over its cap once A's excess lands on it.
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 1, MaxDuration: intPtr(10), Weight: 1},
		{ID: "B", Priority: 2, MaxDuration: intPtr(40), Weight: 1},
		{ID: "C", Priority: 3, Weight: 1},
	}, 120)

	want := map[string]int{"A": 10, "B": 40, "C": 70}
	for id, minutes := range want {
		if got := r.Minutes(id); got != minutes {
			t.Errorf("%s: got %d, want %d", id, got, minutes)
		}
	}
}

func TestCalculateUnderUtilizedMaximums(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 2, MaxDuration: intPtr(10), Weight: 1},
		{ID: "B", Priority: 1, MaxDuration: intPtr(20), Weight: 1},
	}, 100)

	if !r.IsValid {
		t.Fatal("under-utilized maximums must still be valid")
	}
	if !r.HasWarning(allocation.WarningUnderUtilizedMaximums) {
		t.Fatalf("expected %s warning, got %+v", allocation.WarningUnderUtilizedMaximums, r.Warnings)
	}
	for _, w := range r.Warnings {
		if w.Type == allocation.WarningUnderUtilizedMaximums && (w.Details == nil || w.Details.UnusedMinutes != 70) {
			t.Errorf("want 70 unused minutes, got %+v", w.Details)
		}
	}
	if sumAllocated(r) != 100 {
		t.Errorf("sum must still equal total, got %+v", r.Allocations)
	}
	// The unplaceable minutes land on the highest priority category.
	if r.Minutes("B") != 90 || r.Minutes("A") != 10 {
		t.Errorf("want A=10 B=90, got %+v", r.Allocations)
	}
}

func TestCalculateZeroWeightsSplitEqually(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 3},
		{ID: "B", Priority: 3},
		{ID: "C", Priority: 3},
	}, 100)

	// 33.33 each rounds to 33; the missing minute goes to the first of the
	// equal-priority categories.
	if r.Minutes("A") != 34 || r.Minutes("B") != 33 || r.Minutes("C") != 33 {
		t.Errorf("want A=34 B=33 C=33, got %+v", r.Allocations)
	}
}

func TestCalculateRoundingTieBreakIsStable(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "low", Priority: 4, Weight: 1},
		{ID: "first", Priority: 2, Weight: 1},
		{ID: "second", Priority: 2, Weight: 1},
	}, 100)

	if r.Minutes("first") != 34 {
		t.Errorf("rounding remainder should go to the first priority-2 category, got %+v", r.Allocations)
	}
}

func TestCalculateNegativeTotalTreatedAsZero(t *testing.T) {
	r := allocation.Calculate([]allocation.Constraint{
		{ID: "A", Priority: 1, MinDuration: intPtr(10), Weight: 1},
	}, -30)

	if r.TotalAllocated != 0 || r.Minutes("A") != 0 {
		t.Errorf("want zero allocation, got %+v", r)
	}
}
