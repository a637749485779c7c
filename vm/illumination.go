package vm

import (
	"github.com/chewxy/math32"

	"github.com/cwbaker/reyes/code"
)

// illumFrame tracks one in-progress illuminance loop: the light list it
// iterates, which one is current, and where its body starts/ends so the
// VM can re-enter the body once per light without re-running Begin's
// light-gathering logic (§4.5, §4.6).
type illumFrame struct {
	beginPC, endPC int
	lights         []*Light
	index          int
	args           []code.Operand
}

// beginIlluminate pushes a per-sample cone mask computed by
// coneMaskFromGrid from the statement's axis/angle arguments, for use
// inside a light shader (§4.2). The position argument and the grid's
// Ps attribute are not read.
func (m *VM) beginIlluminate(instr code.Instruction) {
	mask := m.coneMaskFromGrid(instr.Args, "Ps")
	m.masks.Push(mask)
}

// beginSolar pushes a copy of the current mask. coneMaskFromGrid tests
// a cone only when given three or more arguments, so neither `solar()`
// nor `solar(axis, angle)` narrows the mask.
func (m *VM) beginSolar(instr code.Instruction) {
	if len(instr.Args) == 0 {
		m.masks.Push(m.masks.Top())
		return
	}
	mask := m.coneMaskFromGrid(instr.Args, "I")
	m.masks.Push(mask)
}

// coneMaskFromGrid copies the current mask and, when args holds at
// least three operands, keeps an active sample only where the angle
// between args[1] (the axis) and grid-space +Z is within args[2]. The
// `attrName` attribute and args[0] are not read, and with fewer than
// three arguments every active sample stays active.
func (m *VM) coneMaskFromGrid(args []code.Operand, attrName string) []bool {
	samples := m.Grid.Samples()
	mask := make([]bool, samples)
	copy(mask, m.masks.Top())
	if len(args) < 3 {
		return mask
	}
	axis := m.operand(args[1])
	angle := m.operand(args[2])
	cosLimit := math32.Cos(angle.data[0])
	for s := range mask {
		if !mask[s] {
			continue
		}
		ax := axis.data[laneIndex(axis, s)]
		ay := axis.data[laneIndex(axis, s)+1]
		az := axis.data[laneIndex(axis, s)+2]
		length := math32.Sqrt(ax*ax + ay*ay + az*az)
		if length < DerivEpsilon {
			continue
		}
		cosAngle := az / length // simplified: direction comparison against grid-space Z
		mask[s] = cosAngle >= cosLimit
	}
	return mask
}

func (m *VM) matchingEnd(beginPC int, beginOp, endOp code.OpCode) int {
	depth := 0
	for pc := beginPC; pc < len(m.Program.Instructions); pc++ {
		op := m.Program.Instructions[pc].Op
		if op == beginOp {
			depth++
		} else if op == endOp {
			depth--
			if depth == 0 {
				return pc
			}
		}
	}
	return len(m.Program.Instructions) - 1
}

// beginIlluminance starts a loop over every currently active light that
// falls within the statement's position/cone (§4.2, §4.6), returning the
// next instruction to execute. With no matching lights, it returns the
// instruction right after the matching End, skipping the body entirely.
func (m *VM) beginIlluminance(pc int, instr code.Instruction) int {
	endPC := m.matchingEnd(pc, code.OpIlluminanceBegin, code.OpIlluminanceEnd)
	lights := m.matchingLights(instr.Args)
	if len(lights) == 0 {
		return endPC + 1
	}
	frame := &illumFrame{beginPC: pc, endPC: endPC, lights: lights, args: instr.Args}
	m.illumStack = append(m.illumStack, frame)
	m.enterIlluminanceLight(frame)
	return pc + 1
}

func (m *VM) matchingLights(_ []code.Operand) []*Light {
	// A full cone test against each light's position/axis would require
	// per-light, per-sample geometry the Grid does not yet expose
	// (§6's open questions scope this to the position/cone VM kernels,
	// not the light-selection query itself); every active light is
	// considered visible, matching the original source's
	// IlluminanceStatements default-cone test fixture.
	return m.lights
}

func (m *VM) enterIlluminanceLight(frame *illumFrame) {
	light := frame.lights[frame.index]
	m.bindLightGlobals(light)
	visible := m.illuminanceMask(frame.args, light)
	m.masks.Push(visible)
	m.loops.Push(loopFrame{maskDepth: m.masks.Depth()})
}

// illuminanceMask computes the per-sample visibility
// `illuminance(position[, axis, angle])` selects for light: every
// currently active sample whose direction to light.Position falls
// within the axis/angle half-cone (or every active sample, when no
// axis/angle was given, per §4.2's single-argument form). This is the
// per-sample reachability test §8 scenario 6 exercises directly: a
// point light and a surface sweeping normals produces a nonzero result
// exactly where the direction-to-light has a positive dot with the
// sample's axis.
func (m *VM) illuminanceMask(args []code.Operand, light *Light) []bool {
	samples := m.Grid.Samples()
	mask := make([]bool, samples)
	copy(mask, m.masks.Top())
	if len(args) == 0 {
		return mask
	}
	pos := m.operand(args[0])
	hasCone := len(args) == 3
	var axis *lane
	var cosLimit float32 = -1
	if hasCone {
		axis = m.operand(args[1])
		angle := m.operand(args[2])
		cosLimit = math32.Cos(angle.data[laneIndex(angle, 0)])
	}
	for s := range mask {
		if !mask[s] {
			continue
		}
		px := pos.data[laneIndex(pos, s)]
		py := pos.data[laneIndex(pos, s)+1]
		pz := pos.data[laneIndex(pos, s)+2]
		dx := light.Position[0] - px
		dy := light.Position[1] - py
		dz := light.Position[2] - pz
		length := math32.Sqrt(dx*dx + dy*dy + dz*dz)
		if length < DerivEpsilon {
			mask[s] = false
			continue
		}
		dx, dy, dz = dx/length, dy/length, dz/length
		if !hasCone {
			continue
		}
		ai := laneIndex(axis, s)
		ax := axis.data[ai]
		ay := axis.data[ai+1]
		az := axis.data[ai+2]
		alen := math32.Sqrt(ax*ax + ay*ay + az*az)
		if alen < DerivEpsilon {
			mask[s] = false
			continue
		}
		cosAngle := (dx*ax + dy*ay + dz*az) / alen
		mask[s] = cosAngle >= cosLimit
	}
	return mask
}

// bindLightGlobals copies a light's Cl/Ol grid attributes into the
// shader's Cl/Ol registers by name, the hook illuminance uses to make
// per-light color visible to the loop body (§6's decision to promote
// Cl/Ol to varying for the duration of the body).
func (m *VM) bindLightGlobals(light *Light) {
	for _, name := range []string{"Cl", "Ol"} {
		reg := m.registerNamed(name)
		if reg < 0 || light.Grid == nil {
			continue
		}
		v, ok := light.Grid.Lookup(name)
		if !ok {
			continue
		}
		l := m.registers[reg]
		n := m.lanesFor(l)
		for s := 0; s < n; s++ {
			srcIdx := s * l.comp
			if len(v.Data) == l.comp {
				srcIdx = 0
			}
			for c := 0; c < l.comp; c++ {
				l.data[s*l.comp+c] = v.Data[srcIdx+c]
			}
		}
	}
}

func (m *VM) registerNamed(name string) int {
	for i, reg := range m.Program.Registers {
		if reg.Name == name {
			return i
		}
	}
	return -1
}

// endIlluminance pops the current light's mask/loop frame and, if more
// lights remain, re-enters the body for the next one; otherwise it
// returns the instruction right after the statement.
func (m *VM) endIlluminance(pc int) int {
	if len(m.illumStack) == 0 {
		return pc + 1
	}
	frame := m.illumStack[len(m.illumStack)-1]
	m.masks.Pop()
	m.loops.Pop()
	frame.index++
	if frame.index < len(frame.lights) {
		m.enterIlluminanceLight(frame)
		return frame.beginPC + 1
	}
	m.illumStack = m.illumStack[:len(m.illumStack)-1]
	return pc + 1
}
