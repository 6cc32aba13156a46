package consistency

import (
	"sort"

	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
)

// BoundDecider estimates, by walking label stamps and thread switches,
// whether the current graph already exceeds a user-set bound on
// preemptive context switches or round-robin rounds (spec.md §4.F).
type BoundDecider interface {
	Exceeded(g *graph.Graph) bool
}

// stampOrder returns every label in the graph sorted by creation stamp —
// the global schedule order, since package graph assigns stamps in a
// single monotone counter shared across all threads (see
// graph.Graph.Append).
func stampOrder(g *graph.Graph) []label.Label {
	var all []label.Label
	for t := 0; t < g.NumThreads(); t++ {
		for i := 0; i < g.SizeOf(t); i++ {
			all = append(all, *g.LabelAt(label.Event{ThreadID: t, Index: i}))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Stamp < all[j].Stamp })
	return all
}

// ContextBound rejects executions with more than Limit preemptive context
// switches: a switch away from a thread that had not itself finished or
// blocked (i.e. the scheduler, not the thread, decided to move on).
type ContextBound struct {
	Limit int
}

// Exceeded reports whether the graph's stamp-ordered schedule already
// contains more than Limit preemptive switches.
func (b *ContextBound) Exceeded(g *graph.Graph) bool {
	seq := stampOrder(g)
	switches := 0
	for i := 1; i < len(seq); i++ {
		prev, cur := seq[i-1], seq[i]
		if cur.Pos.ThreadID == prev.Pos.ThreadID {
			continue
		}
		if prev.Kind == label.KindThreadFinish || prev.Kind == label.KindBlock {
			continue // a voluntary handover, not a preemption
		}
		switches++
	}
	return switches > b.Limit
}

// RoundBound rejects executions that run more than Limit full
// round-robin rounds, where a round is considered complete once every
// thread active so far has been scheduled again after the round began
// (a documented approximation of GenMC's round-robin bound policy: this
// checker does not track a strict fixed scheduling order across rounds,
// only that each active thread reappears once per round — see DESIGN.md).
type RoundBound struct {
	Limit int
}

// Exceeded reports whether the graph's stamp-ordered schedule has already
// completed more than Limit rounds.
func (b *RoundBound) Exceeded(g *graph.Graph) bool {
	seq := stampOrder(g)
	rounds := 0
	active := make(map[int]bool)
	seenThisRound := make(map[int]bool)
	prev := -1
	for _, l := range seq {
		tid := l.Pos.ThreadID
		if tid == prev {
			continue // consecutive labels of one thread are a single scheduling slice
		}
		prev = tid
		active[tid] = true
		seenThisRound[tid] = true
		if len(seenThisRound) == len(active) {
			rounds++
			seenThisRound = make(map[int]bool)
		}
	}
	return rounds > b.Limit
}
