package selection

import (
	"math/rand"
	"sort"
)

// Engine performs weighted source sampling and budget allocation. The random
// source is injected so tests can be deterministic.
type Engine struct {
	baseWeight float64
	rng        *rand.Rand
}

// NewEngine builds an Engine. baseWeight is added to every score when
// sampling, keeping zero-scored sources selectable.
func NewEngine(baseWeight float64, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{baseWeight: baseWeight, rng: rng}
}

// Sample draws up to k distinct sources without replacement, each draw
// weighted by score plus the base weight. When every effective weight is
// non-positive the draw degrades to uniform so a pool of unproven sources
// still produces a full selection. Fewer than k sources returns them all.
func (e *Engine) Sample(scores map[string]float64, k int) []string {
	if k <= 0 || len(scores) == 0 {
		return nil
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if k > len(ids) {
		k = len(ids)
	}

	picked := make([]string, 0, k)
	remaining := ids
	for len(picked) < k {
		idx := e.drawIndex(remaining, scores)
		picked = append(picked, remaining[idx])
		remaining = append(remaining[:idx:idx], remaining[idx+1:]...)
	}
	return picked
}

func (e *Engine) drawIndex(ids []string, scores map[string]float64) int {
	total := 0.0
	weights := make([]float64, len(ids))
	for i, id := range ids {
		w := scores[id] + e.baseWeight
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return e.rng.Intn(len(ids))
	}

	target := e.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(ids) - 1
}

// Allocation is one source's share of the run download budget.
type Allocation struct {
	SourceID string
	Base     int
	Bonus    int
}

// Total returns the combined per-source quota.
func (a Allocation) Total() int {
	return a.Base + a.Bonus
}

// Allocate splits budget across the selected sources. Every source gets an
// equal base share; the remainder is handed out as score-proportional
// bonuses, highest score first, each bonus capped by what the score earns.
// Leftover after the bonus pass is distributed round-robin so the sum of all
// quotas always equals the budget.
func Allocate(budget int, scores map[string]float64, selected []string) []Allocation {
	if budget <= 0 || len(selected) == 0 {
		return nil
	}

	n := len(selected)
	base := budget / n
	remainder := budget - base*n

	ordered := make([]string, len(selected))
	copy(ordered, selected)
	sort.SliceStable(ordered, func(i, j int) bool {
		if scores[ordered[i]] != scores[ordered[j]] {
			return scores[ordered[i]] > scores[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	quotas := make(map[string]*Allocation, n)
	out := make([]Allocation, 0, n)
	for _, id := range ordered {
		out = append(out, Allocation{SourceID: id, Base: base})
	}
	for i := range out {
		quotas[out[i].SourceID] = &out[i]
	}

	// Bonus pass: stronger sources soak up the remainder first, capped by
	// what their score earns.
	left := remainder
	for _, id := range ordered {
		if left == 0 {
			break
		}
		earned := int(scores[id]*2) + 1
		if earned > left {
			earned = left
		}
		quotas[id].Bonus += earned
		left -= earned
	}

	// Anything still unassigned goes round-robin so the budget is spent.
	for i := 0; left > 0; i = (i + 1) % n {
		quotas[ordered[i]].Bonus++
		left--
	}

	return out
}
