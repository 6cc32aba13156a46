// Package passes implements two IR-level passes, rewritten per spec.md §9
// as plain functions over the in-memory ir.Module rather than
// llvm::FunctionPass subclasses: assume-conversion (AnnotateAssumes,
// tracing an assume's operand tree back to annotatable loads) and a
// vocabulary/ordering check (Verify). There is no loop-bound pass: loops
// reach the interpreter as written.
//
// Grounded on original_source/src/LoadAnnotPass.{hpp,cpp} for the
// assume-tracing shape (simplified to a single-block backward walk,
// documented in DESIGN.md, since this package has no dominance analysis).
package passes

import (
	"fmt"

	"github.com/sva-lab/wmc/annot"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

// assumeIntrinsic is the verifier call this pass looks for.
const assumeIntrinsic = "__VERIFIER_assume"

// AnnotateAssumes walks every function, finds calls to the assume
// intrinsic, and attaches a traced annot.Expr for each to info's
// AnnotationInfo, keyed by the registers of every annotatable load found
// along the way (spec.md §4.J).
//
// The backward trace is scoped to the assume's own basic block: it walks
// instructions preceding the call, recording arithmetic/comparison
// definitions and loads, stopping at a block boundary. This is narrower
// than original_source's dominance-based search (which can cross blocks)
// but sound — a definition this pass misses just means Eval reports
// "cannot prune" for it, never a wrong prune (see DESIGN.md).
func AnnotateAssumes(mod *ir.Module, info *ir.ModuleInfo) error {
	for _, fn := range mod.Functions {
		for _, bb := range fn.Blocks {
			for i, inst := range bb.Insts {
				if inst.Op != ir.OpCall || inst.Callee != assumeIntrinsic {
					continue
				}
				if len(inst.Args) != 1 {
					return &ir.TranslationError{Kind: ir.MalformedModule, Func: fn.Name, Message: "assume expects exactly one argument"}
				}
				a := NewBlockAnnotator(bb.Insts[:i])
				cond := a.operandExpr(inst.Args[0])
				traced := a.Trace(cond)
				// Every load this assume's condition was traced back
				// through gets the same traced expression attached: explore
				// resolves a Read by its AnnotReg, binds that register's
				// candidate value (and whatever other loads/registers the
				// expression also names, from values already fixed earlier
				// in this execution) into the env, and evaluates — a false
				// result before ever reaching the assume call prunes the
				// candidate without a full interpreter replay (spec.md
				// §4.J).
				for reg := range a.loads {
					info.Annotations.Set(reg, traced)
				}
			}
		}
	}
	return nil
}

// BlockAnnotator builds an annot.Annotator scoped to one basic block's
// prefix, exposing the subset of registers it discovered were loads.
type BlockAnnotator struct {
	*annot.Annotator
	loads map[ir.Reg]annot.Expr
}

// NewBlockAnnotator scopes an annotator over a prefix of instructions
// (everything strictly before the assume call in its block).
func NewBlockAnnotator(prefix []ir.Instruction) *BlockAnnotator {
	a := &BlockAnnotator{Annotator: annot.NewAnnotator(), loads: make(map[ir.Reg]annot.Expr)}
	for _, inst := range prefix {
		a.observe(inst)
	}
	return a
}

func (a *BlockAnnotator) observe(inst ir.Instruction) {
	switch inst.Op {
	case ir.OpLoad, ir.OpAtomicLoad:
		// The leaf carries inst.Result itself: Trace never inlines a
		// KindLoad leaf away, so this register id survives into the
		// traced expression attached to ModuleInfo, and explore
		// resolves it at eval time from the Read's actual value.
		e := annot.Load(inst.Type.Width, inst.Result)
		a.DefineLoad(inst.Result, e)
		a.loads[inst.Result] = e
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpLShr, ir.OpAShr,
		ir.OpICmpEq, ir.OpICmpNe, ir.OpICmpUlt, ir.OpICmpUle, ir.OpICmpSlt, ir.OpICmpSle:
		if len(inst.Operands) != 2 {
			return
		}
		a.Define(inst.Result, binaryExpr(inst.Op, a.operandExpr(inst.Operands[0]), a.operandExpr(inst.Operands[1])))
	case ir.OpZExt, ir.OpSExt, ir.OpTrunc:
		if len(inst.Operands) != 1 {
			return
		}
		a.Define(inst.Result, castExpr(inst.Op, inst.Type.Width, a.operandExpr(inst.Operands[0])))
	}
}

func (a *BlockAnnotator) operandExpr(v ir.Value) annot.Expr {
	if !v.IsReg {
		return annot.Const(v.Type.Width, v.Const)
	}
	return annot.Register(v.Type.Width, v.Reg)
}

func binaryExpr(op ir.Opcode, a, b annot.Expr) annot.Expr {
	switch op {
	case ir.OpAdd:
		return annot.Add(a, b)
	case ir.OpSub:
		return annot.Sub(a, b)
	case ir.OpMul:
		return annot.Mul(a, b)
	case ir.OpUDiv:
		return annot.UDiv(a, b)
	case ir.OpSDiv:
		return annot.SDiv(a, b)
	case ir.OpURem:
		return annot.URem(a, b)
	case ir.OpSRem:
		return annot.SRem(a, b)
	case ir.OpAnd:
		return annot.And(a, b)
	case ir.OpOr:
		return annot.Or(a, b)
	case ir.OpXor:
		return annot.Xor(a, b)
	case ir.OpShl:
		return annot.Shl(a, b)
	case ir.OpLShr:
		return annot.LShr(a, b)
	case ir.OpAShr:
		return annot.AShr(a, b)
	case ir.OpICmpEq:
		return annot.Eq(a, b)
	case ir.OpICmpNe:
		return annot.Ne(a, b)
	case ir.OpICmpUlt:
		return annot.Ult(a, b)
	case ir.OpICmpUle:
		return annot.Ule(a, b)
	case ir.OpICmpSlt:
		return annot.Slt(a, b)
	case ir.OpICmpSle:
		return annot.Sle(a, b)
	default:
		return annot.Const(1, 0)
	}
}

func castExpr(op ir.Opcode, width int, a annot.Expr) annot.Expr {
	switch op {
	case ir.OpZExt:
		return annot.ZExt(width, a)
	case ir.OpSExt:
		return annot.SExt(width, a)
	default:
		return annot.Trunc(width, a)
	}
}

// knownIntrinsics is the fixed list spec.md §6 names. Verify rejects any
// OpCall whose Callee is neither a module-defined function nor in this
// set.
var knownIntrinsics = map[string]bool{
	"__VERIFIER_assume": true, "__VERIFIER_nondet_int": true,
	"pthread_create": true, "pthread_join": true, "pthread_exit": true,
	"pthread_mutex_lock": true, "pthread_mutex_unlock": true,
	"pthread_barrier_wait": true,
	"pthread_cond_wait": true, "pthread_cond_signal": true, "pthread_cond_broadcast": true,
	"malloc": true, "free": true, "aligned_alloc": true,
	"__VERIFIER_spin_start": true, "__VERIFIER_spin_end": true,
	"__VERIFIER_loop_begin": true, "__VERIFIER_loop_end": true,
	"__VERIFIER_assert": true, "atexit": true,
	"rcu_read_lock": true, "rcu_read_unlock": true, "synchronize_rcu": true,
	"rcu_assign_pointer": true, "rcu_dereference": true,
	"open": true, "close": true, "read": true, "write": true, "fsync": true, "rename": true,
	"llvm.lifetime.start": true, "llvm.lifetime.end": true, "llvm.dbg.value": true,
}

// Verify checks that mod only uses the vocabulary spec.md §6 fixes:
// every OpCall targets either a module-defined function or a known
// intrinsic, and every atomic/fence instruction carries a non-Na
// ordering where one is required. Returns a *ir.TranslationError on the
// first violation.
func Verify(mod *ir.Module) error {
	for _, fn := range mod.Functions {
		for _, bb := range fn.Blocks {
			for _, inst := range bb.Insts {
				if err := verifyInst(mod, fn.Name, inst); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func verifyInst(mod *ir.Module, fn string, inst ir.Instruction) error {
	switch inst.Op {
	case ir.OpCall:
		if _, ok := mod.Functions[inst.Callee]; ok {
			return nil
		}
		if !knownIntrinsics[inst.Callee] {
			return &ir.TranslationError{Kind: ir.UnsupportedIntrinsic, Func: fn, Message: fmt.Sprintf("unknown call target %q", inst.Callee)}
		}
	case ir.OpAtomicStore, ir.OpCmpXchg, ir.OpAtomicRMW:
		// Na is a valid ordering for a plain Load/Store, but never for an
		// instruction explicitly tagged atomic: it must carry the ordering
		// the source actually requested.
		if inst.Ordering == label.Na {
			return &ir.TranslationError{Kind: ir.UnsupportedOrdering, Func: fn, Message: "atomic op carries na ordering"}
		}
		fallthrough
	case ir.OpLoad, ir.OpAtomicLoad, ir.OpStore:
		switch inst.Op {
		case ir.OpLoad, ir.OpAtomicLoad:
			if inst.Ordering == label.Release || inst.Ordering == label.AcqRel {
				return &ir.TranslationError{Kind: ir.UnsupportedOrdering, Func: fn, Message: fmt.Sprintf("load carries release-family ordering %v", inst.Ordering)}
			}
		case ir.OpStore, ir.OpAtomicStore:
			if inst.Ordering == label.Acquire || inst.Ordering == label.AcqRel {
				return &ir.TranslationError{Kind: ir.UnsupportedOrdering, Func: fn, Message: fmt.Sprintf("store carries acquire-family ordering %v", inst.Ordering)}
			}
		}
	case ir.OpSmpFence:
		// SmpFence is only meaningful under lkmm; Verify does not know
		// the target model (that's config.Model, resolved later), so it
		// only checks the fence kind is within the fixed enum — always
		// true given SmpFenceKind's closed underlying type.
	}
	return nil
}
