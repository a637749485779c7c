// Package code defines the shading virtual machine's instruction set
// and the flat Program a shader compiles to (§4.5). A Program is a
// single linear slice of Instructions over a pool of registers; there
// is no basic-block graph — control flow is expressed with jumps and
// an explicit condition-mask stack the VM maintains at run time (§4.6).
package code

import "github.com/cwbaker/reyes/lang"

// OpCode names a single VM operation.
type OpCode uint8

const (
	OpNop OpCode = iota

	// Data movement
	OpLoadConst // dst = constant pool entry
	OpMove      // dst = src, with implicit broadcast/geometric conversion

	// Arithmetic (dispatch-coded by operand storage/component shape)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	// Comparison (result is always float 0/1, masked per §4.6)
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpLogicalAnd
	OpLogicalOr
	OpLogicalNot

	// Control flow
	OpJump
	OpJumpIfFalse // scalar (uniform) conditional jump — no mask push
	OpPushMask    // push a new varying condition mask (if/else over varying cond)
	OpInvertMask  // invert the top mask (the "else" branch)
	OpPopMask
	OpPushLoopMask // push a loop mask frame (while/for over varying cond)
	OpLoopTest     // masked loop condition test: clears a lane's mask bit once its condition goes false
	OpPopLoopMask
	OpBreak    // exits N enclosing loop mask frames
	OpContinue // re-tests the innermost of the N enclosing loop conditions
	OpReturn

	// Library calls: dst = builtin(name)(args...)
	OpCall

	// Coordinate-system and colorspace conversions
	OpTransform  // point
	OpVTransform // vector
	OpNTransform // normal
	OpCTransform // color, named colorspace

	// Illumination
	OpIlluminateBegin
	OpIlluminateEnd
	OpSolarBegin
	OpSolarEnd
	OpIlluminanceBegin
	OpIlluminanceLoop // per-light loop test + mask push, jumps to End on exhaustion
	OpIlluminanceEnd
)

// Operand is a single instruction operand: either a register slot or an
// immediate index into Program.Constants, distinguished by Kind.
type Operand struct {
	Kind  OperandKind
	Index uint32
}

type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandRegister
	OperandConstant
	OperandLabel // jump target: an instruction index
)

// Instruction is a single VM instruction. Not every field is used by
// every opcode; Dispatch and the operand list are opcode-specific.
type Instruction struct {
	Op       OpCode
	Dispatch DispatchCode
	Dst      Operand
	Args     []Operand
	Name     string // builtin function name (OpCall) or colorspace/coordsys name
	Level    int    // OpBreak/OpContinue: number of enclosing loop frames to unwind
}

// Register describes one slot in a Program's register file: its value
// type, storage class, and whether it is a parameter/global or a
// compiler-introduced temporary.
type Register struct {
	Type    lang.Type
	Storage lang.Storage
	Name    string // empty for temporaries
}

// Program is the compiled form of a single shader: a flat instruction
// stream, a register file, and a constant pool.
type Program struct {
	Kind         int // mirrors symbols.ShaderKind; stored as int to avoid an import cycle
	Name         string
	Instructions []Instruction
	Registers    []Register
	Constants    []Constant
	Parameters   []int // register indices of the shader's parameters, in order
}

// Constant is a single entry in a Program's constant pool.
type Constant struct {
	Type  lang.Type
	Float []float64 // 1 for float/integer, 3 for point/vector/normal/color, 16 for matrix
	Str   string
}

// AllocRegister adds a new register and returns its index.
func (p *Program) AllocRegister(t lang.Type, s lang.Storage, name string) int {
	p.Registers = append(p.Registers, Register{Type: t, Storage: s, Name: name})
	return len(p.Registers) - 1
}

// AllocConstant adds a constant pool entry and returns its index.
func (p *Program) AllocConstant(c Constant) int {
	p.Constants = append(p.Constants, c)
	return len(p.Constants) - 1
}

// Emit appends an instruction and returns its index, used by the
// generator to back-patch jump targets once a label's address is known.
func (p *Program) Emit(instr Instruction) int {
	p.Instructions = append(p.Instructions, instr)
	return len(p.Instructions) - 1
}

// PatchLabel rewrites the jump-target operand of the instruction at
// instrIndex to point at the current end of the instruction stream.
func (p *Program) PatchLabel(instrIndex, argIndex int) {
	p.PatchLabelTo(instrIndex, argIndex, len(p.Instructions))
}

// PatchLabelTo rewrites the jump-target operand of the instruction at
// instrIndex to point at an already-known instruction index, for labels
// (such as a while loop's condition re-test) resolved before the
// jump-emitting instruction itself is generated.
func (p *Program) PatchLabelTo(instrIndex, argIndex, target int) {
	p.Instructions[instrIndex].Args[argIndex] = Operand{Kind: OperandLabel, Index: uint32(target)}
}
