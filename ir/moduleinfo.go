package ir

import (
	"fmt"

	"github.com/sva-lab/wmc/annot"
)

// NameInfo carries a source-level variable name and, for aggregates, its
// field names — grounded on original_source's NameInfo.hpp.
type NameInfo struct {
	Name   string
	Fields []string
}

// VariableInfo is the source-naming side-table (original_source/src/
// ModuleInfo.hpp's VariableInfo): global and local variable names keyed
// by the allocation id the interpreter assigns.
type VariableInfo struct {
	Global map[uint64]NameInfo
	Local  map[uint64]NameInfo
}

// AnnotationInfo maps a load instruction's result register to the
// annotator expression traced for it (original_source's AnnotationInfo,
// recast as a plain map now that annot.Expr has value semantics instead
// of AnnotationInfo's unique_ptr<SExpr> map).
type AnnotationInfo struct {
	annotMap map[Reg]annot.Expr
}

func NewAnnotationInfo() *AnnotationInfo {
	return &AnnotationInfo{annotMap: make(map[Reg]annot.Expr)}
}

func (a *AnnotationInfo) Set(r Reg, e annot.Expr) { a.annotMap[r] = e }

func (a *AnnotationInfo) Get(r Reg) (annot.Expr, bool) {
	e, ok := a.annotMap[r]
	return e, ok
}

// ModuleInfo is the side-table accompanying a Module (spec.md §6: "a
// ModuleInfo side-table carrying source-variable names, load annotations,
// and a detected-model hint").
type ModuleInfo struct {
	Variables      VariableInfo
	Annotations    *AnnotationInfo
	DetectedModel  string // e.g. "rc11"; empty if the front-end made no guess
}

// NewModuleInfo returns an empty ModuleInfo.
func NewModuleInfo() *ModuleInfo {
	return &ModuleInfo{
		Variables:   VariableInfo{Global: make(map[uint64]NameInfo), Local: make(map[uint64]NameInfo)},
		Annotations: NewAnnotationInfo(),
	}
}

// TranslationErrorKind distinguishes the three translation-error cases
// spec.md §7 names.
type TranslationErrorKind uint8

const (
	UnsupportedIntrinsic TranslationErrorKind = iota
	UnsupportedOrdering
	MalformedModule
)

func (k TranslationErrorKind) String() string {
	switch k {
	case UnsupportedIntrinsic:
		return "unsupported_intrinsic"
	case UnsupportedOrdering:
		return "unsupported_ordering"
	default:
		return "malformed_module"
	}
}

// TranslationError is returned (never panicked) before enumeration starts
// — spec.md §9: "Translation errors abort before enumeration" via a plain
// error value, not a verdict or a bug report.
type TranslationError struct {
	Kind    TranslationErrorKind
	Func    string
	Message string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("ir: %s in %s: %s", e.Kind, e.Func, e.Message)
}
