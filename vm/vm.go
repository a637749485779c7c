// Package vm implements the register-based, mask-driven shading
// virtual machine (§4.6): it executes a compiled code.Program over a
// grid.Grid, one instruction at a time, honoring a run-time condition
// mask stack for data-parallel control flow (SPMD execution across a
// grid's lanes).
package vm

import (
	"github.com/cwbaker/reyes/code"
	"github.com/cwbaker/reyes/grid"
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/render"
)

// DerivEpsilon is the minimum absolute denominator the VM's kernels will
// divide by (OpDiv, smoothstep, normalize); smaller denominators are
// clamped to this value to avoid propagating Inf/NaN across a grid from
// a single degenerate sample. The cone tests also treat a direction
// shorter than this as degenerate. The VM has no derivative kernels.
const DerivEpsilon = 1e-6

// VM executes a single compiled shader over a Grid.
type VM struct {
	Program *code.Program
	Grid    *grid.Grid
	Coords  *render.CoordinateSystems
	Errors  render.ErrorPolicy
	Library map[string]BuiltinFunc

	registers []*lane
	masks     *maskStack
	loops     *loopStack
	lights    []*Light
	illumStack []*illumFrame
}

// lane is the per-register run-time storage: a buffer of
// Register.Type.Components() floats per grid sample, or one string per
// sample.
type lane struct {
	data []float32
	strs []string
	comp int
}

// New creates a VM ready to run program over g.
func New(program *code.Program, g *grid.Grid, coords *render.CoordinateSystems, errors render.ErrorPolicy) *VM {
	m := &VM{
		Program: program,
		Grid:    g,
		Coords:  coords,
		Errors:  errors,
		Library: defaultLibrary(),
	}
	m.masks = newMaskStack(g.Samples())
	m.loops = newLoopStack()
	m.allocRegisters()
	return m
}

func (m *VM) allocRegisters() {
	m.registers = make([]*lane, len(m.Program.Registers))
	samples := m.Grid.Samples()
	for i, reg := range m.Program.Registers {
		length := 1
		if reg.Storage == lang.Varying {
			length = samples
		}
		l := &lane{comp: reg.Type.Components()}
		if reg.Type.Components() == 0 { // string
			l.strs = make([]string, length)
		} else {
			l.data = make([]float32, length*reg.Type.Components())
		}
		m.registers[i] = l
	}
}

// BindParameter copies a Grid attribute's storage into a parameter
// register before Run, wiring the shader's P/N/Cs/... globals to the
// Grid's own buffers (§3, §4.6).
func (m *VM) BindParameter(regIndex int, value *grid.Value) {
	l := m.registers[regIndex]
	if value.Str != nil {
		copy(l.strs, value.Str)
		return
	}
	copy(l.data, value.Data)
}

// StoreParameter copies a parameter register's storage back into a Grid
// attribute after Run, the reverse of BindParameter: this is how a
// shader's writes to Ci/Oi (or any other bound global) become visible
// to the renderer once `shade` returns (§3 "the VM never reads a Value
// before it has been initialized" implies the Grid is the value's
// permanent home; the register is only shading's working copy).
func (m *VM) StoreParameter(regIndex int, value *grid.Value) {
	l := m.registers[regIndex]
	if value.Str != nil {
		copy(value.Str, l.strs)
		return
	}
	copy(value.Data, l.data)
}

// Run executes the program's instructions from start to end (or an
// OpReturn), mutating register storage.
func (m *VM) Run() error {
	var fatal error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if fe, ok := r.(*render.FatalError); ok {
					fatal = fe
					return
				}
				panic(r)
			}
		}()
		m.run()
	}()
	return fatal
}

func (m *VM) run() {
	pc := 0
	instrs := m.Program.Instructions
	for pc < len(instrs) {
		instr := instrs[pc]
		next := pc + 1
		switch instr.Op {
		case code.OpNop:
		case code.OpLoadConst, code.OpMove:
			m.execMove(instr)
		case code.OpAdd, code.OpSub, code.OpMul, code.OpDiv, code.OpNeg:
			m.execArith(instr)
		case code.OpEqual, code.OpNotEqual, code.OpLess, code.OpLessEqual, code.OpGreater, code.OpGreaterEqual:
			m.execCompare(instr)
		case code.OpLogicalAnd, code.OpLogicalOr, code.OpLogicalNot:
			m.execLogical(instr)
		case code.OpJump:
			next = int(instr.Args[0].Index)
		case code.OpJumpIfFalse:
			if m.scalarFalse(instr.Args[0]) {
				next = int(instr.Args[1].Index)
			}
		case code.OpPushMask:
			m.masks.Push(m.condition(instr.Args[0]))
		case code.OpInvertMask:
			m.masks.Invert()
		case code.OpPopMask:
			m.masks.Pop()
		case code.OpPushLoopMask:
			m.masks.Push(m.masks.Top())
			m.loops.Push(loopFrame{maskDepth: m.masks.Depth()})
		case code.OpLoopTest:
			active := m.condition(instr.Args[0])
			m.masks.AndTop(active)
			if !m.masks.AnyActive() {
				next = int(instr.Args[1].Index)
			}
		case code.OpPopLoopMask:
			m.masks.Pop()
			m.loops.Pop()
		case code.OpBreak:
			m.loops.Break(m.masks, instr.Level)
		case code.OpContinue:
			m.loops.Continue(m.masks, instr.Level)
		case code.OpReturn:
			return
		case code.OpCall:
			m.execCall(instr)
		case code.OpTransform, code.OpVTransform, code.OpNTransform:
			m.execTransform(instr)
		case code.OpCTransform:
			m.execCTransform(instr)
		case code.OpIlluminateBegin:
			m.beginIlluminate(instr)
		case code.OpIlluminateEnd, code.OpSolarEnd:
			m.masks.Pop()
		case code.OpSolarBegin:
			m.beginSolar(instr)
		case code.OpIlluminanceBegin:
			next = m.beginIlluminance(pc, instr)
		case code.OpIlluminanceEnd:
			next = m.endIlluminance(pc)
		}
		pc = next
	}
}

// operand resolves an Operand to its lane, or to a synthesized constant
// lane for OperandConstant (one allocation per read is acceptable here;
// a production VM would cache constant lanes at Program-load time).
func (m *VM) operand(op code.Operand) *lane {
	switch op.Kind {
	case code.OperandRegister:
		return m.registers[op.Index]
	case code.OperandConstant:
		c := m.Program.Constants[op.Index]
		if c.Type == lang.String {
			return &lane{strs: []string{c.Str}}
		}
		data := make([]float32, len(c.Float))
		for i, f := range c.Float {
			data[i] = float32(f)
		}
		return &lane{data: data, comp: len(c.Float)}
	default:
		return &lane{}
	}
}

func (m *VM) scalarFalse(op code.Operand) bool {
	l := m.operand(op)
	if len(l.data) == 0 {
		return true
	}
	return l.data[0] == 0
}

// condition evaluates a varying boolean operand into a per-lane active
// mask.
func (m *VM) condition(op code.Operand) []bool {
	l := m.operand(op)
	samples := m.Grid.Samples()
	out := make([]bool, samples)
	for i := range out {
		idx := i
		if len(l.data) == 1 {
			idx = 0
		}
		out[i] = l.data[idx] != 0
	}
	return out
}

func laneIndex(l *lane, sample int) int {
	if len(l.data) == l.comp {
		return 0
	}
	return sample * l.comp
}
