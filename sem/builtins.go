package sem

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/sl"
)

// builtinCategory groups library functions that share a type-checking
// rule (§4.4's "function overload resolution"); the code generator
// later picks a concrete dispatch-coded kernel from the same name based
// on the resolved argument storage classes.
type builtinCategory uint8

const (
	catUnknown builtinCategory = iota
	catScalarMath                  // float (,float...) -> float; e.g. sin, sqrt, abs
	catScalarMathTwo                // float, float -> float; e.g. mod, pow, atan
	catPreserveShape                // T -> T; e.g. normalize applied to vector/normal/point
	catGeometricBinary               // T, T -> float or T; e.g. distance -> float, reflect -> T
	catColor                        // color construction/management; ctransform
	catTransform                     // point/vector/normal transform by named space
	catIllumination                  // ambient/diffuse/specular/phong/trace
	catNoise                        // noise/cellnoise: float(s) -> float or color
	catString                       // format/concat: string(s) -> string
)

type builtinSig struct {
	name     string
	category builtinCategory
	minArgs  int
	maxArgs  int // -1 = unbounded
}

// builtins lists the SL standard library functions the analyzer
// recognizes, grouped by the shape of their type-checking rule rather
// than given one entry per overload, matching how the original
// source's render library groups these in shadeops (§4.4, §6).
var builtins = map[string]builtinSig{
	"abs":     {"abs", catScalarMath, 1, 1},
	"sign":    {"sign", catScalarMath, 1, 1},
	"sqrt":    {"sqrt", catScalarMath, 1, 1},
	"inversesqrt": {"inversesqrt", catScalarMath, 1, 1},
	"floor":   {"floor", catScalarMath, 1, 1},
	"ceil":    {"ceil", catScalarMath, 1, 1},
	"round":   {"round", catScalarMath, 1, 1},
	"sin":     {"sin", catScalarMath, 1, 1},
	"cos":     {"cos", catScalarMath, 1, 1},
	"tan":     {"tan", catScalarMath, 1, 1},
	"asin":    {"asin", catScalarMath, 1, 1},
	"acos":    {"acos", catScalarMath, 1, 1},
	"radians": {"radians", catScalarMath, 1, 1},
	"degrees": {"degrees", catScalarMath, 1, 1},
	"exp":     {"exp", catScalarMath, 1, 1},
	"log":     {"log", catScalarMath, 1, 2},

	"atan":  {"atan", catScalarMathTwo, 1, 2},
	"mod":   {"mod", catScalarMathTwo, 2, 2},
	"pow":   {"pow", catScalarMathTwo, 2, 2},
	"min":   {"min", catScalarMathTwo, 2, -1},
	"max":   {"max", catScalarMathTwo, 2, -1},
	"step":  {"step", catScalarMathTwo, 2, 2},

	"clamp":      {"clamp", catPreserveShape, 3, 3},
	"mix":        {"mix", catPreserveShape, 3, 3},
	"smoothstep": {"smoothstep", catPreserveShape, 3, 3},
	"normalize":  {"normalize", catPreserveShape, 1, 1},
	"faceforward": {"faceforward", catGeometricBinary, 2, 3},
	"reflect":    {"reflect", catGeometricBinary, 2, 2},
	"refract":    {"refract", catGeometricBinary, 3, 3},
	"rotate":     {"rotate", catGeometricBinary, 4, 4},

	"length":      {"length", catGeometricBinary, 1, 1},
	"distance":    {"distance", catGeometricBinary, 2, 2},
	"area":        {"area", catGeometricBinary, 1, 1},
	"ptlined":     {"ptlined", catGeometricBinary, 3, 3},
	"determinant": {"determinant", catGeometricBinary, 1, 1},

	"comp":    {"comp", catGeometricBinary, 2, 2},
	"setcomp": {"setcomp", catGeometricBinary, 3, 3},
	"xcomp":   {"xcomp", catGeometricBinary, 1, 1},
	"ycomp":   {"ycomp", catGeometricBinary, 1, 1},
	"zcomp":   {"zcomp", catGeometricBinary, 1, 1},

	"transform":  {"transform", catTransform, 2, 3},
	"vtransform": {"vtransform", catTransform, 2, 3},
	"ntransform": {"ntransform", catTransform, 2, 3},
	"ctransform": {"ctransform", catColor, 1, 2},
	"depth":      {"depth", catTransform, 1, 1},
	"calculatenormal": {"calculatenormal", catTransform, 1, 1},

	"ambient":      {"ambient", catIllumination, 0, 0},
	"diffuse":      {"diffuse", catIllumination, 1, 1},
	"specular":     {"specular", catIllumination, 3, 3},
	"specularbrdf": {"specularbrdf", catIllumination, 4, 4},
	"phong":        {"phong", catIllumination, 3, 3},
	"trace":        {"trace", catIllumination, 2, 2},

	"noise":     {"noise", catNoise, 1, 4},
	"cellnoise": {"cellnoise", catNoise, 1, 4},

	"format":  {"format", catString, 1, -1},
	"concat":  {"concat", catString, 2, -1},
	"printf":  {"printf", catString, 1, -1},
}

// analyzeCall resolves a call expression's builtin signature (§4.4's
// "function overload resolution by argument storage class"): storage is
// always the LUB of the argument storages, and the result type depends
// on the category.
func (a *Analyzer) analyzeCall(n *sl.Node) (lang.Type, lang.Storage) {
	sig, ok := builtins[n.Name]
	if !ok {
		a.errorf(n, "call to undefined function %q", n.Name)
		return lang.TypeInvalid, lang.Constant
	}
	if len(n.Children) < sig.minArgs || (sig.maxArgs >= 0 && len(n.Children) > sig.maxArgs) {
		a.errorf(n, "wrong number of arguments to %s", n.Name)
	}

	storage := lang.Constant
	argTypes := make([]lang.Type, len(n.Children))
	for i, arg := range n.Children {
		t, s := a.analyzeExpr(arg)
		argTypes[i] = t
		storage = lang.LUB(storage, s)
	}

	var result lang.Type
	switch sig.category {
	case catScalarMath, catScalarMathTwo:
		result = lang.Float
		if len(argTypes) > 0 && argTypes[0] == lang.Integer {
			result = lang.Integer
		}
	case catPreserveShape:
		result = lang.Float
		if len(argTypes) > 0 {
			result = argTypes[0]
		}
	case catGeometricBinary:
		switch n.Name {
		case "length", "distance", "area", "ptlined", "determinant", "xcomp", "ycomp", "zcomp", "comp":
			result = lang.Float
		case "setcomp":
			result = argTypes[0]
		default:
			result = lang.Vector
			if len(argTypes) > 0 && argTypes[0].IsGeometric() {
				result = argTypes[0]
			}
		}
	case catColor:
		result = lang.Color
	case catTransform:
		result = lang.Point
		switch n.Name {
		case "vtransform":
			result = lang.Vector
		case "ntransform":
			result = lang.Normal
		case "depth":
			result = lang.Float
		case "calculatenormal":
			result = lang.Normal
		}
	case catIllumination:
		result = lang.Color
	case catNoise:
		result = lang.Float
	case catString:
		result = lang.String
	default:
		result = lang.TypeInvalid
	}

	n.Type, n.Storage = result, storage
	return n.Type, n.Storage
}
