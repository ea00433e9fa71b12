package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/schema"
)

func set(attrs ...schema.Attribute) schema.AttributeSet {
	return schema.NewAttributeSet(attrs...)
}

func fd(lhs, rhs []schema.Attribute) schema.FunctionalDependency {
	return schema.NewDependency(lhs, rhs)
}

func attrs(a ...schema.Attribute) []schema.Attribute { return a }

func TestClosure_Chain(t *testing.T) {
	// A -> B -> C
	fds := []schema.FunctionalDependency{
		fd(attrs("A"), attrs("B")),
		fd(attrs("B"), attrs("C")),
	}

	assert.Equal(t, set("A", "B", "C"), analysis.Closure(set("A"), fds))
	assert.Equal(t, set("B", "C"), analysis.Closure(set("B"), fds))
	assert.Equal(t, set("C"), analysis.Closure(set("C"), fds))
}

func TestClosure_CompositeLHS(t *testing.T) {
	fds := []schema.FunctionalDependency{
		fd(attrs("A", "B"), attrs("C")),
		fd(attrs("C"), attrs("D")),
	}

	// A alone does not fire AB -> C
	assert.Equal(t, set("A"), analysis.Closure(set("A"), fds))
	assert.Equal(t, set("A", "B", "C", "D"), analysis.Closure(set("A", "B"), fds))
}

func TestClosure_OrderIndependent(t *testing.T) {
	// The second dependency only fires after the first; listing them in
	// reverse needs a second pass but reaches the same fixpoint.
	forward := []schema.FunctionalDependency{
		fd(attrs("A"), attrs("B")),
		fd(attrs("B"), attrs("C")),
		fd(attrs("C"), attrs("D")),
	}
	reverse := []schema.FunctionalDependency{forward[2], forward[1], forward[0]}

	assert.Equal(t, analysis.Closure(set("A"), forward), analysis.Closure(set("A"), reverse))
}

func TestClosure_EmptyInput(t *testing.T) {
	fds := []schema.FunctionalDependency{fd(attrs("A"), attrs("B"))}
	assert.True(t, analysis.Closure(schema.AttributeSet{}, fds).IsEmpty())
}

func TestClosure_NoDependencies(t *testing.T) {
	assert.Equal(t, set("X", "Y"), analysis.Closure(set("X", "Y"), nil))
}

func TestClosure_AttributesOutsideUniverse(t *testing.T) {
	// Closure carries attributes that only appear in dependencies.
	fds := []schema.FunctionalDependency{fd(attrs("A"), attrs("Z"))}
	assert.Equal(t, set("A", "Z"), analysis.Closure(set("A"), fds))
}

func TestClosure_EmptyLHSAlwaysFires(t *testing.T) {
	fds := []schema.FunctionalDependency{fd(nil, attrs("B"))}
	assert.Equal(t, set("A", "B"), analysis.Closure(set("A"), fds))
}

func TestEngine_RejectsUnknownAttributes(t *testing.T) {
	u := schema.NewUniverse(set("A", "B"))
	_, err := analysis.NewEngine(u, []schema.FunctionalDependency{fd(attrs("A"), attrs("C"))})
	require.Error(t, err)
	assert.True(t, schema.IsUnknownAttributeErr(err))
	assert.Contains(t, err.Error(), "rhs")
}

func TestEngine_ClosureOf(t *testing.T) {
	u := schema.NewUniverse(set("A", "B", "C"))
	e, err := analysis.NewEngine(u, []schema.FunctionalDependency{
		fd(attrs("A"), attrs("B")),
		fd(attrs("B"), attrs("C")),
	})
	require.NoError(t, err)

	start, err := u.Bitset(set("A"))
	require.NoError(t, err)

	got := e.ClosureOf(start)
	assert.Equal(t, set("A", "B", "C"), u.Set(got))
	assert.Equal(t, set("A"), u.Set(start), "input must not be modified")
	assert.True(t, e.IsSuperkey(start))

	b, err := u.Bitset(set("B"))
	require.NoError(t, err)
	assert.False(t, e.IsSuperkey(b))
}
