package telemetry

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigure_WritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, nil)
	defer Configure(nil, nil)

	L().Info().Str("where", "test").Log("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "where")
}

func TestWarnRateLimited_DoesNotPanicWithoutLimits(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, nil)
	defer Configure(nil, nil)

	require.NotPanics(t, func() {
		WarnRateLimited("slow path", map[string]any{"n": 1})
	})
	require.Contains(t, buf.String(), "slow path")
}

func TestNewLimiter_AllowsUnderRate(t *testing.T) {
	lim := NewLimiter(map[time.Duration]int{time.Second: 2})
	_, ok1 := lim.Allow("cat")
	_, ok2 := lim.Allow("cat")
	_, ok3 := lim.Allow("cat")
	require.True(t, ok1)
	require.True(t, ok2)
	require.False(t, ok3)
}
