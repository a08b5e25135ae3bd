package frames

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to, step int) []int {
	var out []int
	for i := from; i <= to; i += step {
		out = append(out, i)
	}
	return out
}

func TestSubsample_EvenlySpaced(t *testing.T) {
	t.Parallel()
	assert.Equal(t, seq(0, 100, 10), Subsample(seq(0, 100, 5)))
}

func TestSubsample_OrderIndependent(t *testing.T) {
	t.Parallel()

	indices := seq(0, 100, 5)
	want := Subsample(indices)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]int(nil), indices...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Subsample(shuffled))
	}
}

func TestSubsample_Deterministic(t *testing.T) {
	t.Parallel()

	indices := seq(0, 99, 1)
	first := Subsample(indices)
	require.LessOrEqual(t, len(first), 11)
	require.Equal(t, 0, first[0])
	require.Equal(t, 99, first[len(first)-1])

	seen := map[int]bool{}
	for i, v := range first {
		assert.False(t, seen[v], "duplicate index %d", v)
		seen[v] = true
		if i > 0 {
			assert.GreaterOrEqual(t, v, first[i-1])
		}
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Subsample(indices))
	}
}

func TestSubsample_FewFramesCollapse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		indices []int
		want    []int
	}{
		{name: "empty", indices: nil, want: nil},
		{name: "single", indices: []int{4}, want: []int{4}},
		{name: "two", indices: []int{7, 3}, want: []int{3, 7}},
		{name: "duplicates in input", indices: []int{2, 2, 9, 9, 9}, want: []int{2, 9}},
		{name: "five", indices: []int{0, 1, 2, 3, 4}, want: []int{0, 1, 2, 3, 4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Subsample(tc.indices))
		})
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, Percentile(xs, 0))
	assert.Equal(t, 4.0, Percentile(xs, 100))
	assert.InDelta(t, 2.5, Percentile(xs, 50), 1e-12)
	assert.InDelta(t, 1.3, Percentile(xs, 10), 1e-12)
	assert.True(t, Percentile(nil, 50) != Percentile(nil, 50), "empty input yields NaN")
}
