package code

import (
	"fmt"

	"github.com/cwbaker/reyes/lang"
)

// DispatchCode names the combination of operand storage classes and
// component counts a kernel is specialized for (§4.6). The VM's kernel
// table is keyed by (OpCode, DispatchCode); code generation resolves
// the dispatch code once, at compile time, from the annotated syntax
// tree, so the VM never branches on storage class at run time.
type DispatchCode struct {
	Result     lang.Storage
	A          lang.Storage
	B          lang.Storage // zero value (Constant) when the op is unary
	Components int          // 1, 3, or 16
}

// NewDispatchCode builds a binary-operator dispatch code, computing the
// result storage as the LUB of the operand storages per §4.4.
func NewDispatchCode(a, b lang.Storage, components int) DispatchCode {
	return DispatchCode{Result: lang.LUB(a, b), A: a, B: b, Components: components}
}

// NewUnaryDispatchCode builds a unary-operator dispatch code.
func NewUnaryDispatchCode(a lang.Storage, components int) DispatchCode {
	return DispatchCode{Result: a, A: a, Components: components}
}

// String renders a dispatch code the way the original source's shadeop
// tables name kernel variants, e.g. "U1", "U1U1", "V3U3": one storage
// letter and the component count for operand A, then for operand B. A
// code whose B is constant and whose result matches A prints A alone.
// The result storage itself is not printed.
func (d DispatchCode) String() string {
	letter := func(s lang.Storage) string {
		switch s {
		case lang.Constant:
			return "C"
		case lang.Uniform:
			return "U"
		default:
			return "V"
		}
	}
	if d.B == lang.Constant && d.A == d.Result {
		return fmt.Sprintf("%s%d", letter(d.A), d.Components)
	}
	return fmt.Sprintf("%s%d%s%d", letter(d.A), d.Components, letter(d.B), d.Components)
}
