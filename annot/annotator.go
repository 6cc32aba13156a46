package annot

import "github.com/sva-lab/wmc/deptrack"

// Annotator accumulates register definitions as the interpreter executes
// a thread, then traces an assume's condition back through them to
// produce a closed Expr suitable for pruning (spec.md §4.J).
type Annotator struct {
	defs map[deptrack.Reg]Expr
	// annotatable marks registers bound to a load whose value should stay
	// a KindLoad leaf (an "annotatable" load, spec.md §4.J) rather than
	// being inlined as an ordinary register reference.
	annotatable map[deptrack.Reg]bool
}

// NewAnnotator returns an empty Annotator, to be fed definitions in
// program order by the interpreter as it executes a thread.
func NewAnnotator() *Annotator {
	return &Annotator{
		defs:        make(map[deptrack.Reg]Expr),
		annotatable: make(map[deptrack.Reg]bool),
	}
}

// Define records that reg's SSA definition is expr. Call this for every
// non-memory instruction result (arithmetic, casts, comparisons).
func (a *Annotator) Define(reg deptrack.Reg, expr Expr) {
	a.defs[reg] = expr
}

// DefineLoad records that reg holds the result of a Read, marking it
// annotatable so Trace leaves a KindLoad leaf there instead of inlining
// (spec.md §4.J: "including loads marked annotatable").
func (a *Annotator) DefineLoad(reg deptrack.Reg, loadExpr Expr) {
	a.defs[reg] = loadExpr
	a.annotatable[reg] = true
}

// Trace inlines every KindReg leaf of cond with its recorded definition,
// recursively, stopping at annotatable loads (left as KindLoad leaves)
// and at registers with no recorded definition (left as KindReg leaves —
// Eval then reports "cannot prune" for those, which is always sound).
// Cycles cannot occur: SSA registers are defined before use, and Define
// is only ever called once per register in program order.
func (a *Annotator) Trace(cond Expr) Expr {
	return a.trace(cond, 0)
}

const maxTraceDepth = 4096

func (a *Annotator) trace(e Expr, depth int) Expr {
	if e.IsZero() || depth > maxTraceDepth {
		return e
	}
	switch e.Kind() {
	case KindConst, KindLoad:
		return e
	case KindReg:
		def, ok := a.defs[e.n.reg]
		if !ok {
			return e
		}
		if a.annotatable[e.n.reg] {
			return def
		}
		return a.trace(def, depth+1)
	default:
		out := *e.n
		out.operands = make([]Expr, len(e.n.operands))
		for i, o := range e.n.operands {
			out.operands[i] = a.trace(o, depth+1)
		}
		return Expr{n: &out}
	}
}
