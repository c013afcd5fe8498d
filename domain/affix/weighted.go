package affix

import (
	"warrantboard/domain/random"
)

// PickWeighted selects one candidate proportionally to weight. Non-positive
// weights never win a draw. When no candidate has a positive weight the first
// one is returned; the last candidate backs up floating point edge cases.
// ok is false only for an empty slice.
func PickWeighted[T any](rng random.Source, items []T, weight func(T) float64) (picked T, ok bool) {
	if len(items) == 0 {
		return picked, false
	}

	total := 0.0
	for _, it := range items {
		if w := weight(it); w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return items[0], true
	}

	draw := rng.Float64() * total
	cumulative := 0.0
	for _, it := range items {
		if w := weight(it); w > 0 {
			cumulative += w
			if cumulative > draw {
				return it, true
			}
		}
	}
	return items[len(items)-1], true
}

// uniformInt draws an integer in [lo, hi]. A degenerate range consumes no draw.
func uniformInt(rng random.Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
