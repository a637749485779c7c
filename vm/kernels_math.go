package vm

import (
	"github.com/chewxy/math32"

	"github.com/cwbaker/reyes/code"
)

// execArith runs Add/Sub/Mul/Div/Neg over every active lane, broadcasting
// a constant/uniform operand across the varying operand's lanes per the
// instruction's DispatchCode (§4.6).
func (m *VM) execArith(instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	a := m.operand(instr.Args[0])
	samples := m.lanesFor(dst)

	if instr.Op == code.OpNeg {
		for s := 0; s < samples; s++ {
			if !m.activeFor(dst, s) {
				continue
			}
			for c := 0; c < dst.comp; c++ {
				dst.data[s*dst.comp+c] = -a.data[laneIndex(a, s)+component(a, c)]
			}
		}
		return
	}

	b := m.operand(instr.Args[1])
	for s := 0; s < samples; s++ {
		if !m.activeFor(dst, s) {
			continue
		}
		for c := 0; c < dst.comp; c++ {
			av := a.data[laneIndex(a, s)+component(a, c)]
			bv := b.data[laneIndex(b, s)+component(b, c)]
			dst.data[s*dst.comp+c] = applyArith(instr.Op, av, bv)
		}
	}
}

func applyArith(op code.OpCode, a, b float32) float32 {
	switch op {
	case code.OpAdd:
		return a + b
	case code.OpSub:
		return a - b
	case code.OpMul:
		return a * b
	case code.OpDiv:
		if math32.Abs(b) < DerivEpsilon {
			if b < 0 {
				b = -DerivEpsilon
			} else {
				b = DerivEpsilon
			}
		}
		return a / b
	default:
		return 0
	}
}

// component maps a destination component index back onto an operand
// lane that may have fewer components (the scalar-broadcast case, e.g.
// float * point).
func component(l *lane, c int) int {
	if l.comp == 0 {
		return 0
	}
	return c % l.comp
}

func (m *VM) execCompare(instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	a := m.operand(instr.Args[0])
	b := m.operand(instr.Args[1])
	samples := m.lanesFor(dst)
	for s := 0; s < samples; s++ {
		if !m.activeFor(dst, s) {
			continue
		}
		av := a.data[laneIndex(a, s)]
		bv := b.data[laneIndex(b, s)]
		dst.data[s] = boolToFloat(applyCompare(instr.Op, av, bv))
	}
}

func applyCompare(op code.OpCode, a, b float32) bool {
	switch op {
	case code.OpEqual:
		return a == b
	case code.OpNotEqual:
		return a != b
	case code.OpLess:
		return a < b
	case code.OpLessEqual:
		return a <= b
	case code.OpGreater:
		return a > b
	case code.OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

func (m *VM) execLogical(instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	a := m.operand(instr.Args[0])
	samples := m.lanesFor(dst)

	if instr.Op == code.OpLogicalNot {
		for s := 0; s < samples; s++ {
			if !m.activeFor(dst, s) {
				continue
			}
			dst.data[s] = boolToFloat(a.data[laneIndex(a, s)] == 0)
		}
		return
	}

	b := m.operand(instr.Args[1])
	for s := 0; s < samples; s++ {
		if !m.activeFor(dst, s) {
			continue
		}
		av := a.data[laneIndex(a, s)] != 0
		bv := b.data[laneIndex(b, s)] != 0
		var r bool
		if instr.Op == code.OpLogicalAnd {
			r = av && bv
		} else {
			r = av || bv
		}
		dst.data[s] = boolToFloat(r)
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func (m *VM) execMove(instr code.Instruction) {
	dst := m.registers[instr.Dst.Index]
	src := m.operand(instr.Args[0])
	samples := m.lanesFor(dst)
	if dst.strs != nil {
		for s := 0; s < samples; s++ {
			if !m.activeFor(dst, s) {
				continue
			}
			idx := s
			if len(src.strs) == 1 {
				idx = 0
			}
			dst.strs[s] = src.strs[idx]
		}
		return
	}
	for s := 0; s < samples; s++ {
		if !m.activeFor(dst, s) {
			continue
		}
		for c := 0; c < dst.comp; c++ {
			dst.data[s*dst.comp+c] = src.data[laneIndex(src, s)+component(src, c)]
		}
	}
}

// lanesFor returns how many grid samples dst actually stores (1 for a
// uniform/constant register, every sample for a varying one).
func (m *VM) lanesFor(l *lane) int {
	if l.comp == 0 {
		return len(l.strs)
	}
	return len(l.data) / l.comp
}

// activeFor reports whether sample s of a register with per-sample
// storage is active; uniform/constant registers (length 1) always run,
// since their single slot never diverges across lanes.
func (m *VM) activeFor(l *lane, s int) bool {
	if m.lanesFor(l) == 1 {
		return true
	}
	return m.masks.Active(s)
}
