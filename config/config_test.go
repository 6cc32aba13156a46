package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_RequiresModel(t *testing.T) {
	_, err := New()
	require.Error(t, err)
}

func TestNew_DefaultsAndOverrides(t *testing.T) {
	c, err := New(WithModel(ModelRC11), WithSchedulePolicy(ScheduleArbitrary), WithSeed(7))
	require.NoError(t, err)
	require.Equal(t, ModelRC11, c.Model)
	require.Equal(t, ScheduleArbitrary, c.SchedulePolicy)
	require.Equal(t, int64(7), c.Seed)
	require.Equal(t, BoundNone, c.BoundType)
}

func TestWithBound_SetsBoundAndType(t *testing.T) {
	c, err := New(WithModel(ModelSC), WithBound(3, BoundContext))
	require.NoError(t, err)
	require.NotNil(t, c.Bound)
	require.Equal(t, uint(3), *c.Bound)
	require.Equal(t, BoundContext, c.BoundType)
}

func TestWithLinearizabilitySpec_RejectsBothFlags(t *testing.T) {
	_, err := New(WithModel(ModelSC), WithLinearizabilitySpec(true, true))
	require.Error(t, err)
}

func TestWithModel_RejectsUnknown(t *testing.T) {
	_, err := New(WithModel("bogus"))
	require.Error(t, err)
}

func TestNilOptionIsSkipped(t *testing.T) {
	c, err := New(WithModel(ModelSC), nil)
	require.NoError(t, err)
	require.Equal(t, ModelSC, c.Model)
}
