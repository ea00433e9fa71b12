package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEachCombination(t *testing.T) {
	var got [][]int
	forEachCombination(4, 2, func(idx []int) bool {
		got = append(got, append([]int(nil), idx...))
		return true
	})

	assert.Equal(t, [][]int{
		{0, 1}, {0, 2}, {0, 3},
		{1, 2}, {1, 3},
		{2, 3},
	}, got)
}

func TestForEachCombination_Bounds(t *testing.T) {
	calls := 0
	forEachCombination(3, 0, func([]int) bool { calls++; return true })
	forEachCombination(3, 4, func([]int) bool { calls++; return true })
	assert.Zero(t, calls)

	forEachCombination(3, 3, func(idx []int) bool {
		calls++
		assert.Equal(t, []int{0, 1, 2}, idx)
		return true
	})
	assert.Equal(t, 1, calls)
}

func TestForEachCombination_StopsEarly(t *testing.T) {
	calls := 0
	forEachCombination(10, 3, func([]int) bool {
		calls++
		return calls < 5
	})
	assert.Equal(t, 5, calls)
}

func TestBinomial(t *testing.T) {
	tests := []struct{ n, k, want int }{
		{4, 2, 6},
		{10, 0, 1},
		{10, 10, 1},
		{20, 10, 184756},
		{5, 6, 0},
		{5, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, binomial(tt.n, tt.k), "C(%d,%d)", tt.n, tt.k)
	}

	// Every level of forEachCombination yields exactly C(n,k) subsets.
	for k := 1; k <= 6; k++ {
		count := 0
		forEachCombination(6, k, func([]int) bool { count++; return true })
		assert.Equal(t, binomial(6, k), count)
	}
}
