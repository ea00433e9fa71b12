package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/schema"
)

func TestFindCandidateKeys(t *testing.T) {
	tests := []struct {
		name     string
		universe schema.AttributeSet
		fds      []schema.FunctionalDependency
		want     []schema.AttributeSet
	}{
		{
			name:     "chain",
			universe: set("A", "B", "C"),
			fds: []schema.FunctionalDependency{
				fd(attrs("A"), attrs("B")),
				fd(attrs("B"), attrs("C")),
			},
			want: []schema.AttributeSet{set("A")},
		},
		{
			name:     "no dependencies",
			universe: set("A", "B", "C"),
			want:     []schema.AttributeSet{set("A", "B", "C")},
		},
		{
			name:     "several two-attribute keys",
			universe: set("A", "B", "C", "D"),
			fds: []schema.FunctionalDependency{
				fd(attrs("A", "B"), attrs("C")),
				fd(attrs("C"), attrs("D")),
				fd(attrs("D"), attrs("A")),
			},
			want: []schema.AttributeSet{set("A", "B"), set("B", "C"), set("B", "D")},
		},
		{
			name:     "keys of different sizes",
			universe: set("A", "B", "C"),
			fds: []schema.FunctionalDependency{
				fd(attrs("C"), attrs("A", "B")),
				fd(attrs("A", "B"), attrs("C")),
			},
			want: []schema.AttributeSet{set("C"), set("A", "B")},
		},
		{
			name:     "cycle makes every attribute a key",
			universe: set("A", "B", "C"),
			fds: []schema.FunctionalDependency{
				fd(attrs("A"), attrs("B")),
				fd(attrs("B"), attrs("C")),
				fd(attrs("C"), attrs("A")),
			},
			want: []schema.AttributeSet{set("A"), set("B"), set("C")},
		},
		{
			name:     "single attribute",
			universe: set("A"),
			want:     []schema.AttributeSet{set("A")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := schema.NewUniverse(tt.universe)
			keys, err := analysis.FindCandidateKeys(context.Background(), u, tt.fds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys)
			assertNoSuperkeyPairs(t, keys)
		})
	}
}

func TestFindCandidateKeys_EmptyUniverse(t *testing.T) {
	u := schema.NewUniverse(schema.AttributeSet{})
	keys, err := analysis.FindCandidateKeys(context.Background(), u, nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFindCandidateKeys_CapacityGuard(t *testing.T) {
	names := make([]string, analysis.DefaultMaxAttributes+1)
	for i := range names {
		names[i] = fmt.Sprintf("c%02d", i)
	}
	u := schema.NewUniverse(schema.AttributeSetFromStrings(names))

	_, err := analysis.FindCandidateKeys(context.Background(), u, nil)
	require.Error(t, err)
	assert.True(t, analysis.IsUniverseTooLargeErr(err))

	var capErr *analysis.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, analysis.DefaultMaxAttributes+1, capErr.Attributes)
	assert.Equal(t, analysis.DefaultMaxAttributes, capErr.Limit)
}

func TestFindCandidateKeys_RaisedCeiling(t *testing.T) {
	names := make([]string, 5)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	u := schema.NewUniverse(schema.AttributeSetFromStrings(names))

	_, err := analysis.FindCandidateKeys(context.Background(), u, nil, analysis.WithMaxAttributes(4))
	require.Error(t, err)

	keys, err := analysis.FindCandidateKeys(context.Background(), u, nil, analysis.WithMaxAttributes(5))
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestFindCandidateKeys_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := schema.NewUniverse(set("A", "B"))
	_, err := analysis.FindCandidateKeys(ctx, u, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindCandidateKeys_UnknownAttribute(t *testing.T) {
	u := schema.NewUniverse(set("A"))
	_, err := analysis.FindCandidateKeys(context.Background(), u, []schema.FunctionalDependency{
		fd(attrs("A"), attrs("B")),
	})
	require.Error(t, err)
	assert.True(t, schema.IsUnknownAttributeErr(err))
}

func TestFindCandidateKeys_WorkerCountDoesNotChangeResult(t *testing.T) {
	// 12 attributes puts the middle levels above the inline threshold, so the
	// parallel path runs.
	names := make([]schema.Attribute, 12)
	for i := range names {
		names[i] = schema.Attribute(fmt.Sprintf("a%02d", i))
	}
	u := schema.NewUniverse(set(names...))

	// a00..a05 pairwise determine the rest; every key is one of several
	// six-attribute combinations.
	fds := []schema.FunctionalDependency{
		fd(names[0:3], names[6:9]),
		fd(names[3:6], names[9:12]),
		fd(names[6:9], names[0:3]),
		fd(names[9:12], names[3:6]),
	}

	seq, err := analysis.FindCandidateKeys(context.Background(), u, fds, analysis.WithWorkers(1))
	require.NoError(t, err)
	par, err := analysis.FindCandidateKeys(context.Background(), u, fds, analysis.WithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Len(t, seq, 4)
	for _, k := range seq {
		assert.Equal(t, 6, k.Len())
	}
}

func assertNoSuperkeyPairs(t *testing.T, keys []schema.AttributeSet) {
	t.Helper()
	for i, a := range keys {
		for j, b := range keys {
			if i != j && a.IsProperSubsetOf(b) {
				t.Errorf("key %s is a proper subset of key %s", a, b)
			}
		}
	}
}
