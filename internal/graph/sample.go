package graph

import (
	"sort"

	"github.com/msalah0e/clustermap/internal/records"
)

// ClampDensity bounds a density percentage to 1..100.
func ClampDensity(percent int) int {
	if percent < 1 {
		return 1
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Sample thins one cluster's papers to roughly percent of them. Papers are
// ordered by id and every ceil(count/target)-th one is kept, so the same input
// always yields the same subset. The input slice is not modified.
func Sample(papers []records.Paper, percent int) []records.Paper {
	sorted := make([]records.Paper, len(papers))
	copy(sorted, papers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	percent = ClampDensity(percent)
	count := len(sorted)
	if percent == 100 || count == 0 {
		return sorted
	}

	target := (count*percent + 99) / 100
	step := (count + target - 1) / target

	out := make([]records.Paper, 0, target)
	for i := 0; i < count; i += step {
		out = append(out, sorted[i])
	}
	return out
}
