package annot

import "math/bits"

// Eval evaluates e given a binding for every still-unresolved leaf it
// contains, by register — both KindReg (a register Trace could not
// inline, because its definition was itself not traceable) and KindLoad
// (a Read's result, which Trace never inlines) are resolved from the
// same env, since at evaluation time both just mean "the value bound to
// this register". ok is false, meaning "cannot prune", whenever a leaf
// has no binding; the annotator is a pruning aid only (spec.md §4.J:
// "correctness of the checker does not depend on its completeness").
func (e Expr) Eval(env map[uint64]uint64) (uint64, bool) {
	if e.IsZero() {
		return 0, false
	}
	n := e.n
	switch n.kind {
	case KindConst:
		return mask(n.constVal, n.width), true
	case KindReg:
		v, ok := env[uint64(n.reg)]
		return mask(v, n.width), ok
	case KindLoad:
		v, ok := env[uint64(n.load)]
		return mask(v, n.width), ok
	case KindSelect:
		cond, ok := n.operands[0].Eval(env)
		if !ok {
			return 0, false
		}
		if cond != 0 {
			return n.operands[1].Eval(env)
		}
		return n.operands[2].Eval(env)
	case KindNot:
		a, ok := n.operands[0].Eval(env)
		return mask(^a, n.width), ok
	case KindZExt:
		a, ok := n.operands[0].Eval(env)
		return mask(a, n.width), ok
	case KindSExt:
		a, ok := n.operands[0].Eval(env)
		if !ok {
			return 0, false
		}
		srcW := n.operands[0].n.width
		return mask(uint64(signExtend(a, srcW)), n.width), true
	case KindTrunc:
		a, ok := n.operands[0].Eval(env)
		return mask(a, n.width), ok
	default:
		return evalBinary(n, env)
	}
}

func evalBinary(n *node, env map[uint64]uint64) (uint64, bool) {
	a, ok := n.operands[0].Eval(env)
	if !ok {
		return 0, false
	}
	b, ok := n.operands[1].Eval(env)
	if !ok {
		return 0, false
	}
	w := n.operands[0].n.width
	switch n.kind {
	case KindAdd:
		return mask(a+b, w), true
	case KindSub:
		return mask(a-b, w), true
	case KindMul:
		return mask(a*b, w), true
	case KindUDiv:
		if b == 0 {
			return 0, false
		}
		return mask(a/b, w), true
	case KindSDiv:
		if b == 0 {
			return 0, false
		}
		sa, sb := signExtend(a, w), signExtend(b, w)
		return mask(uint64(int64(sa)/int64(sb)), w), true
	case KindURem:
		if b == 0 {
			return 0, false
		}
		return mask(a%b, w), true
	case KindSRem:
		if b == 0 {
			return 0, false
		}
		sa, sb := signExtend(a, w), signExtend(b, w)
		return mask(uint64(int64(sa)%int64(sb)), w), true
	case KindAnd:
		return mask(a&b, w), true
	case KindOr:
		return mask(a|b, w), true
	case KindXor:
		return mask(a^b, w), true
	case KindShl:
		return mask(a<<b, w), true
	case KindLShr:
		return mask(a>>b, w), true
	case KindAShr:
		return mask(uint64(signExtend(a, w)>>b), w), true
	case KindEq:
		return boolVal(a == b), true
	case KindNe:
		return boolVal(a != b), true
	case KindUlt:
		return boolVal(a < b), true
	case KindUle:
		return boolVal(a <= b), true
	case KindUgt:
		return boolVal(a > b), true
	case KindUge:
		return boolVal(a >= b), true
	case KindSlt:
		return boolVal(signExtend(a, w) < signExtend(b, w)), true
	case KindSle:
		return boolVal(signExtend(a, w) <= signExtend(b, w)), true
	case KindSgt:
		return boolVal(signExtend(a, w) > signExtend(b, w)), true
	case KindSge:
		return boolVal(signExtend(a, w) >= signExtend(b, w)), true
	default:
		return 0, false
	}
}

func boolVal(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func mask(v uint64, width int) uint64 {
	if width <= 0 || width >= bits.UintSize {
		return v
	}
	return v & (1<<uint(width) - 1)
}

func signExtend(v uint64, width int) int64 {
	if width <= 0 || width >= 64 {
		return int64(v)
	}
	shift := 64 - width
	return int64(v<<uint(shift)) >> uint(shift)
}
