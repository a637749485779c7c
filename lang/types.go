// Package lang defines the shared type and storage-class lattice used by
// every stage of the shader compiler: the parser annotates syntax tree
// nodes with these values, the semantic analyzer computes them bottom-up,
// and the code generator uses them to pick dispatch codes.
package lang

import "fmt"

// Type is one of the eight SL value types.
type Type uint8

const (
	TypeInvalid Type = iota
	Float
	Integer
	Point
	Vector
	Normal
	Color
	Matrix
	String
)

func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Integer:
		return "integer"
	case Point:
		return "point"
	case Vector:
		return "vector"
	case Normal:
		return "normal"
	case Color:
		return "color"
	case Matrix:
		return "matrix"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

// Components returns the number of scalar components a value of this
// type occupies in a Grid's columnar storage (§3: 1, 3, or 16).
func (t Type) Components() int {
	switch t {
	case Float, Integer, String:
		return 1
	case Point, Vector, Normal, Color:
		return 3
	case Matrix:
		return 16
	default:
		return 0
	}
}

// IsGeometric reports whether t is one of the 3-component homogeneous
// types (point, vector, normal) that carry a transform-kind distinction.
func (t Type) IsGeometric() bool {
	return t == Point || t == Vector || t == Normal
}

// Storage is one of the three storage classes, ordered constant < uniform
// < varying (§3).
type Storage uint8

const (
	Constant Storage = iota
	Uniform
	Varying
)

func (s Storage) String() string {
	switch s {
	case Constant:
		return "constant"
	case Uniform:
		return "uniform"
	case Varying:
		return "varying"
	default:
		return "invalid-storage"
	}
}

// LUB returns the least upper bound of two storage classes under the
// constant < uniform < varying lattice (§4.4).
func LUB(a, b Storage) Storage {
	if a > b {
		return a
	}
	return b
}

// GE reports whether a is at least as "wide" as b, i.e. a can be
// assigned from b without promotion (§4.4 assignment rule: S_target >=
// S_rhs).
func (a Storage) GE(b Storage) bool {
	return a >= b
}

// ConversionKind names the kind of implicit or explicit conversion the
// code generator must emit between two types.
type ConversionKind uint8

const (
	NoConversion ConversionKind = iota
	ConvertBroadcast               // float -> point/vector/normal/color/matrix
	ConvertGeometric                // point <-> vector <-> normal
	ConvertColorSpace               // color"space" expr typecast
	ConvertIllegal
)

// ImplicitConversion reports the conversion needed to assign a value of
// type `from` where `to` is expected, per §4.4's implicit-conversion
// table. ConvertIllegal means no implicit conversion exists (a typecast
// is required, or the types are simply incompatible).
func ImplicitConversion(to, from Type) ConversionKind {
	if to == from {
		return NoConversion
	}
	if from == Float && to != String && to != Integer {
		return ConvertBroadcast
	}
	if to.IsGeometric() && from.IsGeometric() {
		return ConvertGeometric
	}
	// float <-> integer are mutually coercible as scalar numerics.
	if (to == Float && from == Integer) || (to == Integer && from == Float) {
		return ConvertBroadcast
	}
	return ConvertIllegal
}

// CanAssign reports whether an assignment target of type `to` may be
// implicitly assigned a value of type `from` (§4.4, §8).
func CanAssign(to, from Type) bool {
	return to == from || ImplicitConversion(to, from) != ConvertIllegal
}

// TypeError is returned when two types are fundamentally incompatible
// for an operation (no implicit conversion, and not the same type).
type TypeError struct {
	Op       string
	Left     Type
	Right    Type
}

func (e *TypeError) Error() string {
	if e.Right == TypeInvalid {
		return fmt.Sprintf("%s: invalid operand type %s", e.Op, e.Left)
	}
	return fmt.Sprintf("%s: incompatible operand types %s and %s", e.Op, e.Left, e.Right)
}
