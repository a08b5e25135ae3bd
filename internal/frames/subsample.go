package frames

import (
	"math"
	"sort"
)

// Percentiles are the ranks sampled by Subsample.
var Percentiles = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// Subsample picks representative frame indices. For each of Percentiles it
// takes the linearly interpolated percentile of the distinct available
// indices, snaps it to the nearest available index (the lower one on a
// tie) and keeps the first occurrence of each result. The input order does
// not matter and the result is non-decreasing.
func Subsample(indices []int) []int {
	sorted := distinctSorted(indices)
	if len(sorted) == 0 {
		return nil
	}

	values := make([]float64, len(sorted))
	for i, v := range sorted {
		values[i] = float64(v)
	}

	var out []int
	seen := make(map[int]bool, len(Percentiles))
	for _, p := range Percentiles {
		idx := sorted[nearest(values, Percentile(values, p))]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// Percentile returns the p-th percentile (0..100) of sorted using linear
// interpolation between the closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

func distinctSorted(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	j := 0
	for i, v := range out {
		if i > 0 && v == out[j-1] {
			continue
		}
		out[j] = v
		j++
	}
	return out[:j]
}

func nearest(sorted []float64, v float64) int {
	i := sort.SearchFloat64s(sorted, v)
	switch {
	case i == 0:
		return 0
	case i == len(sorted):
		return len(sorted) - 1
	case v-sorted[i-1] <= sorted[i]-v:
		return i - 1
	default:
		return i
	}
}
