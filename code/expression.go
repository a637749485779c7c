package code

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/sl"
)

// genExpr emits the instructions computing n's value and returns an
// Operand referring to it: a constant-pool reference for literals, a
// register reference for everything else. genExpr never re-evaluates a
// subexpression twice.
func (g *Generator) genExpr(n *sl.Node) Operand {
	switch n.Kind {
	case sl.NodeIntLiteral:
		idx := g.program.AllocConstant(Constant{Type: n.Type, Float: []float64{float64(n.IntValue)}})
		return Operand{Kind: OperandConstant, Index: uint32(idx)}

	case sl.NodeFloatLiteral:
		idx := g.program.AllocConstant(Constant{Type: n.Type, Float: []float64{n.FloatValue}})
		return Operand{Kind: OperandConstant, Index: uint32(idx)}

	case sl.NodeStringLiteral:
		idx := g.program.AllocConstant(Constant{Type: n.Type, Str: n.StringValue})
		return Operand{Kind: OperandConstant, Index: uint32(idx)}

	case sl.NodeIdent:
		reg, ok := g.registers[n.Symbol]
		if !ok {
			reg = g.program.AllocRegister(n.Type, n.Storage, n.Name)
			g.registers[n.Symbol] = reg
		}
		return Operand{Kind: OperandRegister, Index: uint32(reg)}

	case sl.NodeBinary:
		return g.genBinary(n)

	case sl.NodeUnary:
		return g.genUnary(n, OpNeg)

	case sl.NodeLogicalNot:
		return g.genUnary(n, OpLogicalNot)

	case sl.NodeLogicalAnd:
		return g.genShortCircuit(n, OpLogicalAnd)

	case sl.NodeLogicalOr:
		return g.genShortCircuit(n, OpLogicalOr)

	case sl.NodeAssign:
		return g.genAssign(n)

	case sl.NodeCall:
		return g.genCall(n)

	case sl.NodeTypecast:
		return g.genTypecast(n)

	default:
		return Operand{}
	}
}

var binaryOp = map[sl.TokenKind]OpCode{
	sl.TokenPlus:         OpAdd,
	sl.TokenMinus:        OpSub,
	sl.TokenStar:         OpMul,
	sl.TokenSlash:        OpDiv,
	sl.TokenEqualEqual:   OpEqual,
	sl.TokenBangEqual:    OpNotEqual,
	sl.TokenLess:         OpLess,
	sl.TokenLessEqual:    OpLessEqual,
	sl.TokenGreater:      OpGreater,
	sl.TokenGreaterEqual: OpGreaterEqual,
}

func (g *Generator) genBinary(n *sl.Node) Operand {
	left := g.genExpr(n.Children[0])
	right := g.genExpr(n.Children[1])
	op, ok := binaryOp[n.Op]
	if !ok {
		g.errorf(n, "unsupported binary operator")
		return left
	}
	dst := g.program.AllocRegister(n.Type, n.Storage, "")
	g.program.Emit(Instruction{
		Op:       op,
		Dispatch: NewDispatchCode(n.Children[0].Storage, n.Children[1].Storage, n.Type.Components()),
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Args:     []Operand{left, right},
	})
	return Operand{Kind: OperandRegister, Index: uint32(dst)}
}

func (g *Generator) genUnary(n *sl.Node, op OpCode) Operand {
	operand := g.genExpr(n.Children[0])
	dst := g.program.AllocRegister(n.Type, n.Storage, "")
	g.program.Emit(Instruction{
		Op:       op,
		Dispatch: NewUnaryDispatchCode(n.Children[0].Storage, n.Type.Components()),
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Args:     []Operand{operand},
	})
	return Operand{Kind: OperandRegister, Index: uint32(dst)}
}

// genShortCircuit emits && / || without branching: both operands are
// always evaluated since SL conditions have no side effects that a
// short circuit would need to skip, matching how the original source's
// shadeops implement these as plain masked kernels rather than control
// flow.
func (g *Generator) genShortCircuit(n *sl.Node, op OpCode) Operand {
	left := g.genExpr(n.Children[0])
	right := g.genExpr(n.Children[1])
	dst := g.program.AllocRegister(n.Type, n.Storage, "")
	g.program.Emit(Instruction{
		Op:       op,
		Dispatch: NewDispatchCode(n.Children[0].Storage, n.Children[1].Storage, 1),
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Args:     []Operand{left, right},
	})
	return Operand{Kind: OperandRegister, Index: uint32(dst)}
}

func (g *Generator) genAssign(n *sl.Node) Operand {
	target := n.Children[0]
	reg, ok := g.registers[target.Symbol]
	if !ok {
		reg = g.program.AllocRegister(target.Type, target.Storage, target.Name)
		g.registers[target.Symbol] = reg
	}
	rhs := n.Children[1]

	if n.Op == sl.TokenEqual {
		value := g.genExpr(rhs)
		g.emitMove(reg, value, target.Type, n.Storage)
		return Operand{Kind: OperandRegister, Index: uint32(reg)}
	}

	op, ok2 := map[sl.TokenKind]OpCode{
		sl.TokenPlusEqual:  OpAdd,
		sl.TokenMinusEqual: OpSub,
		sl.TokenStarEqual:  OpMul,
		sl.TokenSlashEqual: OpDiv,
	}[n.Op]
	if !ok2 {
		g.errorf(n, "unsupported assignment operator")
		return Operand{Kind: OperandRegister, Index: uint32(reg)}
	}
	value := g.genExpr(rhs)
	g.program.Emit(Instruction{
		Op:       op,
		Dispatch: NewDispatchCode(target.Storage, rhs.Storage, target.Type.Components()),
		Dst:      Operand{Kind: OperandRegister, Index: uint32(reg)},
		Args:     []Operand{{Kind: OperandRegister, Index: uint32(reg)}, value},
	})
	return Operand{Kind: OperandRegister, Index: uint32(reg)}
}

func (g *Generator) genCall(n *sl.Node) Operand {
	args := g.genArgOperands(n.Children)
	dst := g.program.AllocRegister(n.Type, n.Storage, "")
	g.program.Emit(Instruction{
		Op:       OpCall,
		Dispatch: DispatchCode{Result: n.Storage, Components: n.Type.Components()},
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Name:     n.Name,
		Args:     args,
	})
	return Operand{Kind: OperandRegister, Index: uint32(dst)}
}

func (g *Generator) genTypecast(n *sl.Node) Operand {
	args := g.genArgOperands(n.Children)
	dst := g.program.AllocRegister(n.Type, n.Storage, "")

	op := OpMove
	if n.Name != "" && n.Type == lang.Color {
		op = OpCTransform
	} else if n.Name != "" && n.Type.IsGeometric() {
		switch n.Type {
		case lang.Point:
			op = OpTransform
		case lang.Vector:
			op = OpVTransform
		case lang.Normal:
			op = OpNTransform
		}
	}
	g.program.Emit(Instruction{
		Op:       op,
		Dispatch: DispatchCode{Result: n.Storage, Components: n.Type.Components()},
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Name:     n.Name,
		Args:     args,
	})
	return Operand{Kind: OperandRegister, Index: uint32(dst)}
}
