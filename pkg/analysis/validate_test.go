package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/schema"
)

func TestValidateDependencies(t *testing.T) {
	u := schema.NewUniverse(set("A", "B", "C"))
	fds := []schema.FunctionalDependency{
		fd(attrs("A"), attrs("B")),
		fd(nil, attrs("C")),
		fd(attrs("B"), nil),
		fd(attrs("A", "X"), attrs("Y")),
	}

	got := analysis.ValidateDependencies(u, fds)
	require.Len(t, got, 4)

	tests := []struct {
		status  analysis.Status
		reason  analysis.Reason
		unknown schema.AttributeSet
	}{
		{status: analysis.Accepted},
		{status: analysis.Rejected, reason: analysis.ReasonEmptyLHS},
		{status: analysis.Rejected, reason: analysis.ReasonEmptyRHS},
		{status: analysis.Rejected, reason: analysis.ReasonUnknownAttribute, unknown: set("X", "Y")},
	}
	for i, tt := range tests {
		assert.Equal(t, i, got[i].Index)
		assert.Equal(t, tt.status, got[i].Status, "validation %d", i)
		assert.Equal(t, tt.reason, got[i].Reason, "validation %d", i)
		assert.Equal(t, tt.unknown, got[i].Unknown, "validation %d", i)
	}

	accepted := analysis.AcceptedDependencies(got)
	require.Len(t, accepted, 1)
	assert.Equal(t, "A->B", accepted[0].String())
	assert.Equal(t, 3, analysis.RejectedCount(got))
}

func TestValidation_Message(t *testing.T) {
	u := schema.NewUniverse(set("A"))
	got := analysis.ValidateDependencies(u, []schema.FunctionalDependency{
		fd(attrs("A"), attrs("Z")),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "A->Z rejected: attributes {Z} are not in the schema", got[0].Message())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "accepted", analysis.Accepted.String())
	assert.Equal(t, "rejected", analysis.Rejected.String())
	assert.Equal(t, "unknown", analysis.Status(42).String())
}
