package bug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportAt_PanicsWithReport(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		rep, ok := r.(Report)
		require.True(t, ok)
		require.Equal(t, "bug.go", rep.File)
		require.Equal(t, 42, rep.Line)
		require.Equal(t, "bad count: 3", rep.Message)
		var asErr error = rep
		require.EqualError(t, asErr, "internal invariant violated at bug.go:42: bad count: 3")
	}()
	ReportAt("bug.go", 42, "bad count: %d", 3)
}

func TestOn_NoPanicWhenFalse(t *testing.T) {
	require.NotPanics(t, func() {
		On(false, "bug.go", 1, "unreachable")
	})
}

func TestOn_PanicsWhenTrue(t *testing.T) {
	require.Panics(t, func() {
		On(true, "bug.go", 1, "unreachable")
	})
}

func TestReport_ErrorsAsWorks(t *testing.T) {
	defer func() {
		r := recover()
		rep, ok := r.(Report)
		require.True(t, ok)
		var target Report
		require.True(t, errors.As(error(rep), &target))
		require.Equal(t, rep, target)
	}()
	ReportAt("x.go", 1, "oops")
}
