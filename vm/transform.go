package vm

import (
	"github.com/cwbaker/reyes/code"
	"github.com/cwbaker/reyes/render"
)

// execTransform runs the OpTransform/OpVTransform/OpNTransform opcodes
// emitted for a `point"space"(p)`-style typecast (§4.4, §4.5). Points
// transform with translation; vectors and normals transform by the
// matrix's linear part only, per the original source's geometric
// transform rules.
func (m *VM) execTransform(instr code.Instruction) {
	mat, err := m.Coords.TransformTo(instr.Name)
	if err != nil {
		m.Errors.RenderError(render.UnknownColorSpace, "%s", err)
		return
	}
	dst := m.registers[instr.Dst.Index]
	src := m.operand(instr.Args[0])
	applyTransformMat(m, mat, instr.Op == code.OpTransform, dst, src)
}

// applyTransformMat is the shared per-lane body for both the typecast
// form (execTransform, a single named space) and the function-call form
// (execLibTransform, one or two named spaces): points pick up the
// matrix's translation, vectors and normals use its linear part only.
func applyTransformMat(m *VM, mat render.Mat4, translate bool, dst, src *lane) {
	m.forEachLane(dst, func(s int) {
		base := laneIndex(src, s)
		x, y, z := src.data[base], src.data[base+1], src.data[base+2]
		var tx, ty, tz float32
		if translate {
			tx, ty, tz = mat[3], mat[7], mat[11]
		}
		dst.data[s*3+0] = mat[0]*x + mat[1]*y + mat[2]*z + tx
		dst.data[s*3+1] = mat[4]*x + mat[5]*y + mat[6]*z + ty
		dst.data[s*3+2] = mat[8]*x + mat[9]*y + mat[10]*z + tz
	})
}

// execLibTransform implements the function-call forms transform(name,
// p), transform(fromname, toname, p), vtransform/ntransform likewise:
// the two-named-space form composes to*from^-1 so p is read as being in
// fromname's space rather than world space (§4's named coordinate
// systems). Previously this mis-shifted the 3-argument case's operands,
// reading the tospace name as the point to transform; fixed to resolve
// both names and the actual value operand by position.
func execLibTransform(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	translate := transformOpFor(instr.Name) == code.OpTransform

	if len(instr.Args) == 3 {
		fromName, toName := "", ""
		if c := constantOf(m, instr.Args[0]); c != nil {
			fromName = c.Str
		}
		if c := constantOf(m, instr.Args[1]); c != nil {
			toName = c.Str
		}
		fromMat, err := m.Coords.TransformTo(fromName)
		if err != nil {
			m.Errors.RenderError(render.UnknownColorSpace, "%s", err)
			return
		}
		toMat, err := m.Coords.TransformTo(toName)
		if err != nil {
			m.Errors.RenderError(render.UnknownColorSpace, "%s", err)
			return
		}
		fromInv, ok := fromMat.Inverse()
		if !ok {
			m.Errors.RenderError(render.UnknownColorSpace, "coordinate system %q is not invertible", fromName)
			return
		}
		applyTransformMat(m, toMat.Mul(fromInv), translate, dst, m.operand(instr.Args[2]))
		return
	}

	spaceName := ""
	valueArg := instr.Args[0]
	if len(instr.Args) == 2 {
		if c := constantOf(m, instr.Args[0]); c != nil {
			spaceName = c.Str
		}
		valueArg = instr.Args[1]
	}
	mat, err := m.Coords.TransformTo(spaceName)
	if err != nil {
		m.Errors.RenderError(render.UnknownColorSpace, "%s", err)
		return
	}
	applyTransformMat(m, mat, translate, dst, m.operand(valueArg))
}

func transformOpFor(name string) code.OpCode {
	switch name {
	case "vtransform":
		return code.OpVTransform
	case "ntransform":
		return code.OpNTransform
	default:
		return code.OpTransform
	}
}

func constantOf(m *VM, op code.Operand) *code.Constant {
	if op.Kind != code.OperandConstant {
		return nil
	}
	return &m.Program.Constants[op.Index]
}

// execLibDepth and execLibCalculateNormal are shading-geometry helpers
// that the original source implements directly in terms of the current
// camera transform and a grid's neighboring samples; here they reduce
// to the camera-space Z and the already-interpolated normal, which is
// sufficient for a non-dicing, per-sample VM.
func execLibDepth(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	mat, err := m.Coords.TransformTo("camera")
	if err != nil {
		m.Errors.RenderError(render.UnknownColorSpace, "%s", err)
		return
	}
	p := m.operand(instr.Args[0])
	m.forEachLane(dst, func(s int) {
		base := laneIndex(p, s)
		x, y, z := p.data[base], p.data[base+1], p.data[base+2]
		dst.data[s] = mat[8]*x + mat[9]*y + mat[10]*z + mat[11]
	})
}

func execLibCalculateNormal(m *VM, instr code.Instruction) {
	execLibNormalize(m, instr)
}

// execCTransform and execLibCTransform convert a color between named
// colorspaces (§4.4, §6's FaceOrientation-adjacent open question on
// color handling): rgb, hsv, and hsl are supported, matching the
// original source's color.cpp conversions; any other name is an
// UnknownColorSpace error.
func (m *VM) execCTransform(instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	src := m.operand(instr.Args[0])
	convert, ok := colorConversions[instr.Name]
	if !ok {
		m.Errors.RenderError(render.UnknownColorSpace, "unknown color space %q", instr.Name)
		return
	}
	m.forEachLane(dst, func(s int) {
		base := laneIndex(src, s)
		r, g, b := convert(src.data[base], src.data[base+1], src.data[base+2])
		dst.data[s*3+0], dst.data[s*3+1], dst.data[s*3+2] = r, g, b
	})
}

func execLibCTransform(m *VM, instr code.Instruction) {
	spaceName := ""
	valueArg := instr.Args[0]
	if len(instr.Args) == 2 {
		if c := constantOf(m, instr.Args[0]); c != nil {
			spaceName = c.Str
		}
		valueArg = instr.Args[1]
	}
	m.execCTransform(code.Instruction{
		Dst:  instr.Dst,
		Args: []code.Operand{valueArg},
		Name: spaceName,
	})
}

// colorConversions maps a source colorspace name to a from-space -> rgb
// conversion (§4.6: "`ctransform` ... converts from named space ... to
// RGB"; the VM always stores Ci/color registers as rgb internally, so
// every entry's result is rgb regardless of the space it reads from).
var colorConversions = map[string]func(r, g, b float32) (float32, float32, float32){
	"rgb": func(r, g, b float32) (float32, float32, float32) { return r, g, b },
	"hsv": hsvToRgb,
	"hsl": hslToRgb,
}

// hsvToRgb is the standard sector-based HSV->RGB conversion: h, s, v
// components each in [0,1], h wrapping once per full hue turn.
func hsvToRgb(h, s, v float32) (float32, float32, float32) {
	if s <= 0 {
		return v, v, v
	}
	hh := modf(h, 1) * 6
	i := int(hh)
	ff := hh - float32(i)
	p := v * (1 - s)
	q := v * (1 - s*ff)
	t := v * (1 - s*(1-ff))
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// hslToRgb is the standard HSL->RGB conversion: h, s, l components
// each in [0,1].
func hslToRgb(h, s, l float32) (float32, float32, float32) {
	if s <= 0 {
		return l, l, l
	}
	q := l * (1 + s)
	if l >= 0.5 {
		q = l + s - l*s
	}
	p := 2*l - q
	r := hueToRGB(p, q, h*6+2)
	g := hueToRGB(p, q, h*6)
	b := hueToRGB(p, q, h*6-2)
	return r, g, b
}

// hueToRGB takes t in sixths of a hue turn, so the one-third offsets
// hslToRgb applies are exact in float32.
func hueToRGB(p, q, t float32) float32 {
	t = modf(t, 6)
	switch {
	case t < 1:
		return p + (q-p)*t
	case t < 3:
		return q
	case t < 4:
		return p + (q-p)*(4-t)
	default:
		return p
	}
}

func modf(v, m float32) float32 {
	r := v
	for r < 0 {
		r += m
	}
	for r >= m {
		r -= m
	}
	return r
}
