package main

import (
	"bufio"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/verdict"
)

func captureRun(t *testing.T, args []string) (string, int) {
	t.Helper()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	_, errW, err := os.Pipe()
	require.NoError(t, err)

	done := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(outR)
		var out string
		for scanner.Scan() {
			out += scanner.Text() + "\n"
		}
		done <- out
	}()

	code := run(args, outW, errW)
	outW.Close()
	errW.Close()
	return <-done, code
}

func TestRun_SBLitmus_ExitsZero(t *testing.T) {
	out, code := captureRun(t, []string{"-test=sb", "-model=rc11"})
	require.Equal(t, 0, code)
	require.Contains(t, out, "sb: explored=")
}

func TestRun_MPLitmus_NeverAsserts(t *testing.T) {
	out, code := captureRun(t, []string{"-test=mp", "-model=rc11"})
	require.Equal(t, 0, code)
	require.NotContains(t, out, verdict.AssertionFailure.String())
}

func TestRun_MPRelaxedLitmus_AssertsAtLeastOnce(t *testing.T) {
	out, code := captureRun(t, []string{"-test=mp-relaxed", "-model=rc11"})
	require.Equal(t, verdict.AssertionFailure.ExitCode(), code)
	require.Contains(t, out, verdict.AssertionFailure.String())
}

func TestRun_UnknownLitmus_ExitsOne(t *testing.T) {
	_, code := captureRun(t, []string{"-test=not-a-real-test"})
	require.Equal(t, 1, code)
}

func TestRun_BadFlag_ExitsOne(t *testing.T) {
	_, code := captureRun(t, []string{"-model=not-a-real-model"})
	require.Equal(t, 1, code)
}
