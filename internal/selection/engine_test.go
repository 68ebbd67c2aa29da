package selection

import (
	"math/rand"
	"testing"
)

func newTestEngine(baseWeight float64) *Engine {
	return NewEngine(baseWeight, rand.New(rand.NewSource(42)))
}

func TestSampleReturnsDistinctSources(t *testing.T) {
	scores := map[string]float64{"a": 5, "b": 1, "c": 0, "d": 3}
	engine := newTestEngine(0.1)

	picked := engine.Sample(scores, 3)
	if len(picked) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(picked))
	}
	seen := make(map[string]struct{})
	for _, id := range picked {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate pick %s in %v", id, picked)
		}
		if _, ok := scores[id]; !ok {
			t.Fatalf("picked unknown source %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSampleCapsAtPoolSize(t *testing.T) {
	scores := map[string]float64{"only": 1.0, "other": 2.0}
	engine := newTestEngine(0.1)

	picked := engine.Sample(scores, 10)
	if len(picked) != 2 {
		t.Fatalf("expected all 2 sources, got %d", len(picked))
	}
}

func TestSampleUniformFallbackWhenWeightsVanish(t *testing.T) {
	// Zero scores with zero base weight leave no usable weights; the draw
	// must still fill the selection.
	scores := map[string]float64{"a": 0, "b": 0, "c": 0}
	engine := newTestEngine(0)

	picked := engine.Sample(scores, 3)
	if len(picked) != 3 {
		t.Fatalf("expected 3 picks under uniform fallback, got %d", len(picked))
	}
}

func TestSampleFavorsHighScores(t *testing.T) {
	scores := map[string]float64{"strong": 50, "weak": 0}
	engine := newTestEngine(0.1)

	strongFirst := 0
	const trials = 500
	for i := 0; i < trials; i++ {
		picked := engine.Sample(scores, 1)
		if picked[0] == "strong" {
			strongFirst++
		}
	}
	if strongFirst < trials*8/10 {
		t.Fatalf("expected strong source to dominate, won %d/%d", strongFirst, trials)
	}
}

func TestSampleEmptyAndZeroK(t *testing.T) {
	engine := newTestEngine(0.1)
	if got := engine.Sample(nil, 3); got != nil {
		t.Fatalf("expected nil for empty pool, got %v", got)
	}
	if got := engine.Sample(map[string]float64{"a": 1}, 0); got != nil {
		t.Fatalf("expected nil for k=0, got %v", got)
	}
}

func TestAllocateConservesBudget(t *testing.T) {
	cases := []struct {
		name     string
		budget   int
		scores   map[string]float64
		selected []string
	}{
		{"even split", 10, map[string]float64{"gta6": 2.0, "gta5": 0.5}, []string{"gta6", "gta5"}},
		{"remainder", 10, map[string]float64{"a": 4, "b": 1, "c": 0}, []string{"a", "b", "c"}},
		{"budget below pool", 2, map[string]float64{"a": 1, "b": 1, "c": 1}, []string{"a", "b", "c"}},
		{"single source", 7, map[string]float64{"a": 0}, []string{"a"}},
		{"all zero scores", 11, map[string]float64{"a": 0, "b": 0, "c": 0, "d": 0}, []string{"a", "b", "c", "d"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allocs := Allocate(tc.budget, tc.scores, tc.selected)
			sum := 0
			for _, alloc := range allocs {
				if alloc.Total() < 0 {
					t.Fatalf("negative quota for %s: %+v", alloc.SourceID, alloc)
				}
				sum += alloc.Total()
			}
			if sum != tc.budget {
				t.Fatalf("quotas sum to %d, expected %d (%+v)", sum, tc.budget, allocs)
			}
		})
	}
}

func TestAllocateEvenSplit(t *testing.T) {
	allocs := Allocate(10, map[string]float64{"gta6": 2.0, "gta5": 0.5}, []string{"gta6", "gta5"})
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	for _, alloc := range allocs {
		if alloc.Total() != 5 {
			t.Fatalf("expected 5 per source, got %+v", alloc)
		}
	}
}

func TestAllocateBonusFavorsHighScore(t *testing.T) {
	allocs := Allocate(10, map[string]float64{"a": 4, "b": 1, "c": 0}, []string{"c", "b", "a"})
	if len(allocs) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocs))
	}
	// base 3 each, remainder 1 goes to the top-scored source.
	if allocs[0].SourceID != "a" || allocs[0].Total() != 4 {
		t.Fatalf("expected a to take the remainder, got %+v", allocs)
	}
	if allocs[1].Total() != 3 || allocs[2].Total() != 3 {
		t.Fatalf("expected base shares for the rest, got %+v", allocs)
	}
}

func TestAllocateEmptyInputs(t *testing.T) {
	if got := Allocate(0, map[string]float64{"a": 1}, []string{"a"}); got != nil {
		t.Fatalf("expected nil for zero budget, got %v", got)
	}
	if got := Allocate(5, nil, nil); got != nil {
		t.Fatalf("expected nil for empty selection, got %v", got)
	}
}
