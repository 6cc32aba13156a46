package consistency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
)

func mkWrite(tid int, addr, val uint64, ord label.Ordering) label.Label {
	return label.Label{Pos: label.Event{ThreadID: tid}, Kind: label.KindWrite, Ordering: ord, Payload: label.Payload{Addr: addr, Val: val}}
}

func mkRead(tid int, addr uint64, ord label.Ordering, rf label.Event) label.Label {
	return label.Label{Pos: label.Event{ThreadID: tid}, Kind: label.KindRead, Ordering: ord, Payload: label.Payload{Addr: addr, Rf: rf}}
}

func TestChecker_SimpleSCProgramIsConsistent(t *testing.T) {
	g := graph.New(nil)
	w := g.Append(mkWrite(0, 1, 1, label.SC))
	require.NoError(t, g.InsertCo(w, 1, label.Initializer))
	g.Append(mkRead(1, 1, label.SC, w))

	c := NewChecker("sc", nil)
	c.Init(g)
	v := c.IsConsistent(g, Final)
	require.True(t, v.OK)
	require.False(t, v.Inconsistent)
}

func TestChecker_StoreBufferingViolationUnderRC11(t *testing.T) {
	g := graph.New(nil)
	w0 := g.Append(mkWrite(0, 1, 1, label.SC))
	require.NoError(t, g.InsertCo(w0, 1, label.Initializer))
	g.Append(mkRead(0, 2, label.SC, label.Initializer))

	w1 := g.Append(mkWrite(1, 2, 1, label.SC))
	require.NoError(t, g.InsertCo(w1, 2, label.Initializer))
	g.Append(mkRead(1, 1, label.SC, label.Initializer))

	c := NewChecker("rc11", nil)
	c.Init(g)
	v := c.IsConsistent(g, AtError)
	require.True(t, v.Inconsistent)
}

func TestChecker_BeforeStepRunsCoherenceLocalOnly(t *testing.T) {
	g := graph.New(nil)
	w := g.Append(mkWrite(0, 1, 1, label.Relaxed))
	require.NoError(t, g.InsertCo(w, 1, label.Initializer))

	c := NewChecker("sc", nil)
	c.Init(g)
	v := c.IsConsistent(g, BeforeStep)
	require.True(t, v.OK)
}

func TestChecker_BoundExceeded(t *testing.T) {
	g := graph.New(nil)
	g.Append(mkWrite(0, 1, 1, label.Relaxed))
	g.Append(mkWrite(1, 2, 1, label.Relaxed))
	g.Append(mkWrite(0, 1, 2, label.Relaxed))

	c := NewChecker("sc", &ContextBound{Limit: 0})
	c.Init(g)
	v := c.IsConsistent(g, BeforeStep)
	require.True(t, v.BoundExceeded)
}

func TestContextBound_IgnoresVoluntaryHandover(t *testing.T) {
	g := graph.New(nil)
	g.Append(label.Label{Pos: label.Event{ThreadID: 0}, Kind: label.KindThreadFinish})
	g.Append(mkWrite(1, 1, 1, label.Relaxed))

	b := &ContextBound{Limit: 0}
	require.False(t, b.Exceeded(g), "switching after a finished thread is not a preemption")
}
