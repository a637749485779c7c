package vm

import (
	"github.com/chewxy/math32"

	"github.com/cwbaker/reyes/code"
)

// execLibAmbient, execLibDiffuse, execLibSpecular, execLibSpecularBRDF,
// execLibPhong, and execLibTrace implement §4.6's "shading helpers":
// ambient/diffuse/specular/phong iterate the Grid's active light set,
// accumulating a contribution per light gated by that light's own
// cosine cutoff (§4.6). Grounded on the original source's
// shading_and_lighting_functions.cpp, which switches on each light's
// category the same way.

// vec3At reads one 3-component value out of l at byte offset base.
func vec3At(l *lane, base int) [3]float32 {
	return [3]float32{l.data[base], l.data[base+1], l.data[base+2]}
}

func dotVec3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalizeVec3(v [3]float32) [3]float32 {
	length := math32.Sqrt(dotVec3(v, v))
	if length < DerivEpsilon {
		length = DerivEpsilon
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}

func negateVec3(v [3]float32) [3]float32 {
	return [3]float32{-v[0], -v[1], -v[2]}
}

func addVec3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// lightVec3At reads one 3-component attribute from light's own Grid at
// sample s, broadcasting a uniform attribute across every sample the
// way bindLightGlobals does.
func lightVec3At(light *Light, name string, s int) [3]float32 {
	if light.Grid == nil {
		return [3]float32{}
	}
	v, ok := light.Grid.Lookup(name)
	if !ok || len(v.Data) < 3 {
		return [3]float32{}
	}
	idx := s * 3
	if len(v.Data) == 3 {
		idx = 0
	}
	if idx+3 > len(v.Data) {
		idx = 0
	}
	return [3]float32{v.Data[idx], v.Data[idx+1], v.Data[idx+2]}
}

func lightColorAt(light *Light, s int) [3]float32 {
	return lightVec3At(light, "Cl", s)
}

// lightDirectionAndCone computes the unit direction from surface point P
// toward light, and whether sample s (surface normal N) falls within the
// light's cone, per light category:
//
//   - LightSolar: the light shines along Axis, so the direction toward
//     it is -Axis; with no cone (Angle == 0) every sample is lit, else
//     the cutoff compares Axis against -N, matching the original's
//     solar-axis-angle branch.
//   - LightIlluminate: the direction toward the light is P-to-Position;
//     with no cone every sample in range is lit, else the cutoff
//     compares Axis against -L.
func lightDirectionAndCone(light *Light, p, n [3]float32) (l [3]float32, inCone bool) {
	switch light.Category {
	case LightSolar:
		l = normalizeVec3(negateVec3(light.Axis))
		if light.Angle == 0 {
			return l, true
		}
		axis := normalizeVec3(light.Axis)
		cosLimit := math32.Cos(light.Angle)
		return l, dotVec3(axis, negateVec3(n)) >= cosLimit
	case LightIlluminate:
		diff := [3]float32{
			light.Position[0] - p[0],
			light.Position[1] - p[1],
			light.Position[2] - p[2],
		}
		l = normalizeVec3(diff)
		if light.Angle == 0 {
			return l, true
		}
		axis := normalizeVec3(light.Axis)
		cosLimit := math32.Cos(light.Angle)
		return l, dotVec3(axis, negateVec3(l)) >= cosLimit
	default:
		return l, false
	}
}

func (m *VM) namedVec3Lane(name string) *lane {
	idx := m.registerNamed(name)
	if idx < 0 {
		return &lane{data: []float32{0, 0, 0}, comp: 3}
	}
	return m.registers[idx]
}

func writeVec3(dst *lane, s int, v [3]float32) {
	dst.data[s*3+0] = v[0]
	dst.data[s*3+1] = v[1]
	dst.data[s*3+2] = v[2]
}

// execLibAmbient implements `ambient()`: the sum of every active
// LightAmbient's color, with no position/cone test.
func execLibAmbient(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	m.forEachLane(dst, func(s int) {
		var sum [3]float32
		for _, light := range m.lights {
			if light.Category != LightAmbient {
				continue
			}
			sum = addVec3(sum, lightColorAt(light, s))
		}
		writeVec3(dst, s, sum)
	})
}

// execLibDiffuse implements `diffuse(N)`: the Lambertian sum of every
// non-ambient light's color weighted by N.L, skipping lights whose
// direction fails N.L >= 0 or the light's own cone test.
func execLibDiffuse(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	p := m.namedVec3Lane("P")
	nArg := m.operand(instr.Args[0])
	m.forEachLane(dst, func(s int) {
		P := vec3At(p, laneIndex(p, s))
		N := vec3At(nArg, laneIndex(nArg, s))
		var sum [3]float32
		for _, light := range m.lights {
			if light.Category == LightAmbient {
				continue
			}
			L, inCone := lightDirectionAndCone(light, P, N)
			if !inCone {
				continue
			}
			d := dotVec3(N, L)
			if d < 0 {
				continue
			}
			c := lightColorAt(light, s)
			sum = addVec3(sum, [3]float32{c[0] * d, c[1] * d, c[2] * d})
		}
		writeVec3(dst, s, sum)
	})
}

// execLibSpecular implements `specular(N, V, roughness)`: a Blinn-Phong
// highlight summed across every non-ambient light, half-vector H formed
// from each light's direction and V.
func execLibSpecular(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	p := m.namedVec3Lane("P")
	nArg := m.operand(instr.Args[0])
	vArg := m.operand(instr.Args[1])
	roughness := m.operand(instr.Args[2])
	m.forEachLane(dst, func(s int) {
		P := vec3At(p, laneIndex(p, s))
		N := vec3At(nArg, laneIndex(nArg, s))
		V := vec3At(vArg, laneIndex(vArg, s))
		gloss := 1 / roughness.data[laneIndex(roughness, s)]
		var sum [3]float32
		for _, light := range m.lights {
			if light.Category == LightAmbient {
				continue
			}
			L, inCone := lightDirectionAndCone(light, P, N)
			if !inCone || dotVec3(N, L) < 0 {
				continue
			}
			H := normalizeVec3(addVec3(L, V))
			alpha := math32.Pow(maxOrdered(float32(0), dotVec3(N, H)), gloss)
			c := lightColorAt(light, s)
			sum = addVec3(sum, [3]float32{c[0] * alpha, c[1] * alpha, c[2] * alpha})
		}
		writeVec3(dst, s, sum)
	})
}

// execLibSpecularBRDF implements `specularbrdf(L, N, V, roughness)`: the
// single-light-direction Blinn-Phong term a shader computes itself
// inside an `illuminance` loop body, rather than iterating the Grid's
// lights the way `specular` does.
func execLibSpecularBRDF(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	lArg := m.operand(instr.Args[0])
	nArg := m.operand(instr.Args[1])
	vArg := m.operand(instr.Args[2])
	roughness := m.operand(instr.Args[3])
	m.forEachLane(dst, func(s int) {
		L := vec3At(lArg, laneIndex(lArg, s))
		N := vec3At(nArg, laneIndex(nArg, s))
		V := vec3At(vArg, laneIndex(vArg, s))
		gloss := 1 / roughness.data[laneIndex(roughness, s)]
		H := normalizeVec3(addVec3(L, V))
		alpha := math32.Pow(maxOrdered(float32(0), dotVec3(N, H)), gloss)
		writeVec3(dst, s, [3]float32{alpha, alpha, alpha})
	})
}

// execLibPhong implements `phong(N, V, power)`: a mirror-reflection
// highlight (R = reflect(-V, N)) summed across every non-ambient light.
func execLibPhong(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	p := m.namedVec3Lane("P")
	nArg := m.operand(instr.Args[0])
	vArg := m.operand(instr.Args[1])
	power := m.operand(instr.Args[2])
	m.forEachLane(dst, func(s int) {
		P := vec3At(p, laneIndex(p, s))
		N := normalizeVec3(vec3At(nArg, laneIndex(nArg, s)))
		V := vec3At(vArg, laneIndex(vArg, s))
		pw := power.data[laneIndex(power, s)]
		negV := negateVec3(V)
		d := dotVec3(negV, N)
		R := [3]float32{negV[0] - 2*d*N[0], negV[1] - 2*d*N[1], negV[2] - 2*d*N[2]}
		var sum [3]float32
		for _, light := range m.lights {
			if light.Category == LightAmbient {
				continue
			}
			L, inCone := lightDirectionAndCone(light, P, N)
			if !inCone || dotVec3(N, L) < 0 {
				continue
			}
			alpha := math32.Pow(maxOrdered(float32(0), dotVec3(R, L)), pw)
			c := lightColorAt(light, s)
			sum = addVec3(sum, [3]float32{c[0] * alpha, c[1] * alpha, c[2] * alpha})
		}
		writeVec3(dst, s, sum)
	})
}

// execLibTrace implements `trace(P, R)`: ray tracing against scene
// geometry is out of this repo's scope (§1's external collaborators),
// so it always reports black, matching the original source's stub.
func execLibTrace(m *VM, instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	m.forEachLane(dst, func(s int) {
		writeVec3(dst, s, [3]float32{0, 0, 0})
	})
}
