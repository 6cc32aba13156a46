package graph

import "github.com/sva-lab/wmc/label"

// RestrictToStamp removes every label with Stamp strictly greater than s,
// in reverse creation order (spec.md §3 "Lifecycle"). Malloc labels being
// removed are reported to onFree so the interpreter's heap arena can
// release the corresponding region (spec.md §5 "Resource policy").
//
// Restriction is transactional in the sense spec.md §5 describes: it must
// run to completion before the next Append; callers holding a
// consistency.Checker must call its on_restrict hook themselves — this
// package only owns the primary graph data, not derived calculator state.
func (g *Graph) RestrictToStamp(s label.Stamp) {
	// Stamp increases strictly with Index within a single thread (Append
	// always assigns the then-current global counter), so each thread's
	// new length is simply the count of labels with Stamp<=s.
	for t, row := range g.threads {
		cut := len(row)
		for i, l := range row {
			if l.Stamp > s {
				cut = i
				break
			}
		}
		for i := len(row) - 1; i >= cut; i-- {
			if g.onFree != nil && row[i].Kind == label.KindMalloc {
				g.onFree(row[i].Payload.Addr, row[i].Payload.Size)
			}
		}
		g.threads[t] = row[:cut]
	}
	for addr, order := range g.co {
		kept := order[:0:0]
		for _, e := range order {
			if l := g.LabelAt(e); l != nil && l.Stamp <= s {
				kept = append(kept, e)
			}
		}
		g.co[addr] = kept
	}
	for addr, ws := range g.writes {
		kept := ws[:0:0]
		for _, e := range ws {
			if l := g.LabelAt(e); l != nil && l.Stamp <= s {
				kept = append(kept, e)
			}
		}
		g.writes[addr] = kept
	}
}

// PrefixNotBefore computes the labels that are in the porf-prefix of
// write but not in the porf-prefix of read (spec.md §4.C
// calc_prefix_not_before), used by the driver to restore the part of a
// newly-placed write's causal history a backward-revisited read had not
// yet seen. Returned labels are ordered by (thread, index) and are copies,
// safe for the driver to replay via Append after a RestrictToStamp.
func (g *Graph) PrefixNotBefore(write, read label.Event) []label.Label {
	wl := g.LabelAt(write)
	rl := g.LabelAt(read)
	if wl == nil || rl == nil {
		return nil
	}
	var out []label.Label
	for t := 0; t < len(g.threads); t++ {
		wMax := wl.PorfView.Get(t)
		rMax := rl.PorfView.Get(t)
		for i := rMax + 1; i <= wMax; i++ {
			if i < 0 || i >= len(g.threads[t]) {
				continue
			}
			out = append(out, g.threads[t][i])
		}
	}
	return out
}
