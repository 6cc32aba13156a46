package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/label"
)

func write(tid, addr int, val uint64) label.Label {
	return label.Label{
		Pos:     label.Event{ThreadID: tid},
		Kind:    label.KindWrite,
		Payload: label.Payload{Addr: uint64(addr), Val: val},
	}
}

func read(tid, addr int) label.Label {
	return label.Label{
		Pos:     label.Event{ThreadID: tid},
		Kind:    label.KindRead,
		Payload: label.Payload{Addr: uint64(addr)},
	}
}

func TestAppend_AssignsDenseIndicesAndStamps(t *testing.T) {
	g := New(nil)
	e0 := g.Append(write(0, 1, 1))
	e1 := g.Append(write(0, 1, 2))
	require.Equal(t, label.Event{ThreadID: 0, Index: 0}, e0)
	require.Equal(t, label.Event{ThreadID: 0, Index: 1}, e1)
	require.Equal(t, label.Stamp(0), g.LabelAt(e0).Stamp)
	require.Equal(t, label.Stamp(1), g.LabelAt(e1).Stamp)
	require.Equal(t, 2, g.SizeOf(0))
}

func TestInsertCoAndSuccessors(t *testing.T) {
	g := New(nil)
	w0 := g.Append(write(0, 1, 1))
	w1 := g.Append(write(0, 1, 2))

	require.NoError(t, g.InsertCo(w0, 1, label.Initializer))
	require.NoError(t, g.InsertCo(w1, 1, w0))

	succ, ok := g.CoSuccessor(w0)
	require.True(t, ok)
	require.Equal(t, w1, succ)

	pred, ok := g.CoPredecessor(w1)
	require.True(t, ok)
	require.Equal(t, w0, pred)

	pred0, ok := g.CoPredecessor(w0)
	require.True(t, ok)
	require.Equal(t, label.Initializer, pred0)
}

func TestCoherentStores_ExcludesStaleWrites(t *testing.T) {
	g := New(nil)
	w0 := g.Append(write(0, 1, 1))
	w1 := g.Append(write(0, 1, 2))
	require.NoError(t, g.InsertCo(w0, 1, label.Initializer))
	require.NoError(t, g.InsertCo(w1, 1, w0))

	// A read on thread 0 placed right after w1 has hb-observed w1 via po,
	// so w0 (and INITIALIZER) must not be coherent candidates.
	pos := label.Event{ThreadID: 0, Index: 2}
	cands := g.CoherentStores(1, pos)
	require.Equal(t, []label.Event{w1}, cands)
}

func TestCoherentStores_UnobservedOffersEverything(t *testing.T) {
	g := New(nil)
	w0 := g.Append(write(0, 1, 1))
	w1 := g.Append(write(1, 1, 2))
	require.NoError(t, g.InsertCo(w0, 1, label.Initializer))
	require.NoError(t, g.InsertCo(w1, 1, w0))

	// A read on a third, unrelated thread has no hb relation to either
	// write, so every write (and the initializer) remain candidates.
	pos := label.Event{ThreadID: 2, Index: 0}
	cands := g.CoherentStores(1, pos)
	require.ElementsMatch(t, []label.Event{label.Initializer, w0, w1}, cands)
}

func TestRestrictToStamp_RemovesLaterLabelsAndFreesMallocs(t *testing.T) {
	var freed []uint64
	g := New(func(addr uint64, size uint64) { freed = append(freed, addr) })

	g.Append(label.Label{Pos: label.Event{ThreadID: 0}, Kind: label.KindMalloc, Payload: label.Payload{Addr: 100, Size: 8}})
	cut := g.Append(write(0, 1, 1))
	g.Append(write(0, 1, 2))

	g.RestrictToStamp(g.LabelAt(cut).Stamp)

	require.Equal(t, 2, g.SizeOf(0))
	require.Empty(t, freed, "malloc below the cut must not be freed")

	g.RestrictToStamp(label.Stamp(0))
	require.Equal(t, 1, g.SizeOf(0))
	require.Empty(t, freed)

	g2 := New(func(addr uint64, size uint64) { freed = append(freed, addr) })
	anchor := g2.Append(write(0, 1, 0))
	g2.Append(label.Label{Pos: label.Event{ThreadID: 0}, Kind: label.KindMalloc, Payload: label.Payload{Addr: 200, Size: 16}})
	g2.Append(write(0, 1, 1))
	g2.RestrictToStamp(g2.LabelAt(anchor).Stamp)
	require.Equal(t, []uint64{200}, freed)
	require.Equal(t, 1, g2.SizeOf(0))
}

func TestPrefixNotBefore(t *testing.T) {
	g := New(nil)
	// Thread 0: a0, a1, a2
	g.Append(write(0, 1, 1))
	g.Append(write(0, 1, 2))
	a2 := g.Append(write(0, 1, 3))
	// Thread 1: b0 reads-from a0 (porf includes a0,a1? only a0 via rf)
	r := read(1, 1)
	r.Payload.Rf = label.Event{ThreadID: 0, Index: 0}
	b0 := g.Append(r)

	prefix := g.PrefixNotBefore(a2, b0)
	// a2's porf prefix on thread 0 is indices 0..2; b0's porf prefix on
	// thread 0 (via rf to a0) is index 0..0. So indices 1 and 2 qualify.
	require.Len(t, prefix, 2)
	require.Equal(t, 1, prefix[0].Pos.Index)
	require.Equal(t, 2, prefix[1].Pos.Index)
}
