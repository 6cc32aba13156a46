// Package annot implements the value-expression annotator of spec.md
// §4.J: before enumeration, it traces the symbolic operand tree of each
// assume(e) back through SSA and attaches a closed-algebra expression to
// the Reads involved, so the driver can cull infeasible rf candidates by
// evaluating the expression instead of having to try every candidate
// value against a full interpreter replay.
//
// Grounded on original_source/src/AnnotExpr.{hpp,cpp} for the node-kind
// vocabulary and original_source/src/InstAnnotator.hpp for the
// SSA-backwards trace; recast per spec.md §9 "smart/shared pointers for
// cloneable AST values" as a value-semantics clone-on-copy Expr, rather
// than AnnotationExpr's shared_ptr<> hierarchy.
package annot

import (
	"fmt"

	"github.com/sva-lab/wmc/deptrack"
)

// Kind tags an Expr node. The set is closed and exhaustive, matching
// spec.md §4.J's algebra exactly.
type Kind uint8

const (
	KindConst Kind = iota
	KindReg
	KindLoad // a Read whose value is not yet known; resolved at eval time
	KindSelect
	KindNot
	KindZExt
	KindSExt
	KindTrunc
	KindAdd
	KindSub
	KindMul
	KindUDiv
	KindSDiv
	KindURem
	KindSRem
	KindAnd
	KindOr
	KindXor
	KindShl
	KindLShr
	KindAShr
	KindEq
	KindNe
	KindUlt
	KindUle
	KindUgt
	KindUge
	KindSlt
	KindSle
	KindSgt
	KindSge
)

// node is the shared representation behind an Expr handle. Expr values
// never alias a mutable node: construction only ever builds new nodes, so
// a copy of an Expr handle and the original are interchangeable — there is
// no in-place mutation to protect against, making Clone a cheap deep copy
// rather than a correctness requirement.
type node struct {
	kind     Kind
	width    int
	constVal uint64
	reg      deptrack.Reg
	load     deptrack.Reg
	operands []Expr
}

// Expr is a closed-algebra symbolic expression over SSA registers and
// Read results (spec.md §4.J). The zero value is not a valid Expr; build
// one with the constructor functions below. Expr has value semantics: a
// copy is an independent reference to an equal, immutable tree.
type Expr struct{ n *node }

// Clone returns a deep copy of e — the "value-semantics cloneable
// pointer" spec.md §9 calls for in place of shared_ptr<AnnotationExpr>.
func (e Expr) Clone() Expr {
	if e.n == nil {
		return Expr{}
	}
	c := *e.n
	c.operands = make([]Expr, len(e.n.operands))
	for i, o := range e.n.operands {
		c.operands[i] = o.Clone()
	}
	return Expr{n: &c}
}

// IsZero reports whether e holds no expression.
func (e Expr) IsZero() bool { return e.n == nil }

// Kind returns e's node kind.
func (e Expr) Kind() Kind { return e.n.kind }

// Const builds a constant leaf of the given bit width.
func Const(width int, v uint64) Expr {
	return Expr{n: &node{kind: KindConst, width: width, constVal: v}}
}

// Register builds a leaf referring to an as-yet-unresolved SSA register.
// Annotator.Trace replaces these with the register's own definition
// before attaching the expression to a Read.
func Register(width int, r deptrack.Reg) Expr {
	return Expr{n: &node{kind: KindReg, width: width, reg: r}}
}

// Load builds a leaf referring to the value the Read defining reg will
// observe — the only kind of leaf that survives tracing and is still
// unresolved when the driver evaluates the expression against a
// candidate rf choice. reg is the load instruction's own result
// register, which Eval's environment resolves exactly like a KindReg
// leaf: at evaluation time both kinds name "the value bound to this
// register", the only difference being that Trace never inlines a
// KindLoad leaf away.
func Load(width int, reg deptrack.Reg) Expr {
	return Expr{n: &node{kind: KindLoad, width: width, load: reg}}
}

func unary(k Kind, width int, a Expr) Expr {
	return Expr{n: &node{kind: k, width: width, operands: []Expr{a}}}
}

func binary(k Kind, width int, a, b Expr) Expr {
	return Expr{n: &node{kind: k, width: width, operands: []Expr{a, b}}}
}

// Select builds an if-then-else node.
func Select(width int, cond, then, els Expr) Expr {
	return Expr{n: &node{kind: KindSelect, width: width, operands: []Expr{cond, then, els}}}
}

func Not(a Expr) Expr          { return unary(KindNot, a.n.width, a) }
func ZExt(width int, a Expr) Expr { return unary(KindZExt, width, a) }
func SExt(width int, a Expr) Expr { return unary(KindSExt, width, a) }
func Trunc(width int, a Expr) Expr { return unary(KindTrunc, width, a) }

func Add(a, b Expr) Expr  { return binary(KindAdd, a.n.width, a, b) }
func Sub(a, b Expr) Expr  { return binary(KindSub, a.n.width, a, b) }
func Mul(a, b Expr) Expr  { return binary(KindMul, a.n.width, a, b) }
func UDiv(a, b Expr) Expr { return binary(KindUDiv, a.n.width, a, b) }
func SDiv(a, b Expr) Expr { return binary(KindSDiv, a.n.width, a, b) }
func URem(a, b Expr) Expr { return binary(KindURem, a.n.width, a, b) }
func SRem(a, b Expr) Expr { return binary(KindSRem, a.n.width, a, b) }
func And(a, b Expr) Expr  { return binary(KindAnd, a.n.width, a, b) }
func Or(a, b Expr) Expr   { return binary(KindOr, a.n.width, a, b) }
func Xor(a, b Expr) Expr  { return binary(KindXor, a.n.width, a, b) }
func Shl(a, b Expr) Expr  { return binary(KindShl, a.n.width, a, b) }
func LShr(a, b Expr) Expr { return binary(KindLShr, a.n.width, a, b) }
func AShr(a, b Expr) Expr { return binary(KindAShr, a.n.width, a, b) }

func Eq(a, b Expr) Expr  { return binary(KindEq, 1, a, b) }
func Ne(a, b Expr) Expr  { return binary(KindNe, 1, a, b) }
func Ult(a, b Expr) Expr { return binary(KindUlt, 1, a, b) }
func Ule(a, b Expr) Expr { return binary(KindUle, 1, a, b) }
func Ugt(a, b Expr) Expr { return binary(KindUgt, 1, a, b) }
func Uge(a, b Expr) Expr { return binary(KindUge, 1, a, b) }
func Slt(a, b Expr) Expr { return binary(KindSlt, 1, a, b) }
func Sle(a, b Expr) Expr { return binary(KindSle, 1, a, b) }
func Sgt(a, b Expr) Expr { return binary(KindSgt, 1, a, b) }
func Sge(a, b Expr) Expr { return binary(KindSge, 1, a, b) }

func (e Expr) String() string {
	if e.n == nil {
		return "<nil-expr>"
	}
	switch e.n.kind {
	case KindConst:
		return fmt.Sprintf("%d", e.n.constVal)
	case KindReg:
		return fmt.Sprintf("r%d", e.n.reg)
	case KindLoad:
		return fmt.Sprintf("load(r%d)", e.n.load)
	default:
		ops := make([]string, len(e.n.operands))
		for i, o := range e.n.operands {
			ops[i] = o.String()
		}
		return fmt.Sprintf("%s(%v)", kindName(e.n.kind), ops)
	}
}

func kindName(k Kind) string {
	names := [...]string{
		"const", "reg", "load", "select", "not", "zext", "sext", "trunc",
		"add", "sub", "mul", "udiv", "sdiv", "urem", "srem",
		"and", "or", "xor", "shl", "lshr", "ashr",
		"eq", "ne", "ult", "ule", "ugt", "uge", "slt", "sle", "sgt", "sge",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "kind?"
}
