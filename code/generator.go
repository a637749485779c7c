package code

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/sl"
	"github.com/cwbaker/reyes/symbols"
)

// Generator walks a semantically-analyzed syntax tree and emits a flat
// Program (§4.5). It is organized as the three-level state machine the
// original source's code generator uses: a TopLevel pass over the
// shader's parameters and body, a ShaderBody pass over statements, and a
// loop stack (loopStack) of nested while/for/illuminance loops so
// break/continue can be checked against the nesting level and coded
// against the right loop. If/else mask frames are emitted inline as
// push/invert/pop instructions and are not tracked on a stack.
type Generator struct {
	program   *Program
	registers map[*symbols.Symbol]int
	loopStack []loopFrame
	errors    sl.SourceErrors
	source    string
}

// loopFrame records one nested loop (while/for/illuminance) so
// break/continue can be checked and coded against the right nesting
// level (§4.5). A masked loop (varying condition) unwinds break/continue
// purely through the VM's run-time condition-mask stack (§4.6): clearing
// a lane's mask bit is enough, since every lane marches through the same
// instruction stream regardless. An unmasked loop (uniform/constant
// condition) has no per-lane mask to clear — its single "lane" is the
// whole grid — so break/continue there compile to real scalar jumps,
// patched once the loop's exit and continue points are known.
type loopFrame struct {
	masked        bool // true if this loop pushed a run-time condition mask
	startLabel    int  // instruction index of the loop's condition test
	breakSites    []patchSite
	continueSites []patchSite
}

type patchSite struct {
	instr int
	arg   int
}

// NewGenerator creates a code generator over an empty Program.
func NewGenerator(source string) *Generator {
	return &Generator{
		program:   &Program{},
		registers: make(map[*symbols.Symbol]int),
		source:    source,
	}
}

// Generate compiles shader into a Program. shader must already have been
// processed by package sem so every node's Type/Storage is resolved.
func Generate(shader *sl.ShaderDecl, source string) (*Program, sl.SourceErrors) {
	g := NewGenerator(source)
	g.program.Kind = int(shader.Kind)
	g.program.Name = shader.Name

	for _, param := range shader.Parameters {
		reg := g.program.AllocRegister(param.Type, param.Storage, param.Name)
		g.registers[param.Symbol] = reg
		g.program.Parameters = append(g.program.Parameters, reg)
		if len(param.Children) > 0 {
			init := g.genExpr(param.Children[0])
			g.emitMove(reg, init, param.Type, param.Storage)
		}
	}

	g.genBlock(shader.Body)
	return g.program, g.errors
}

func (g *Generator) errorf(n *sl.Node, format string, args ...any) {
	g.errors.Add(sl.NewSourceErrorf(n.Span, g.source, format, args...))
}

func (g *Generator) genBlock(n *sl.Node) {
	if n == nil {
		return
	}
	for _, stmt := range n.Children {
		g.genStatement(stmt)
	}
}

func (g *Generator) genStatement(n *sl.Node) {
	switch n.Kind {
	case sl.NodeBlock:
		g.genBlock(n)
	case sl.NodeDeclare:
		g.genDeclare(n)
	case sl.NodeExprStmt:
		g.genExpr(n.Children[0])
	case sl.NodeIf:
		g.genIf(n)
	case sl.NodeWhile:
		g.genWhile(n)
	case sl.NodeFor:
		g.genFor(n)
	case sl.NodeBreak:
		g.genBreakContinue(n, OpBreak)
	case sl.NodeContinue:
		g.genBreakContinue(n, OpContinue)
	case sl.NodeReturn:
		var args []Operand
		if len(n.Children) > 0 {
			args = []Operand{g.genExpr(n.Children[0])}
		}
		g.program.Emit(Instruction{Op: OpReturn, Args: args})
	case sl.NodeIlluminate:
		g.genIlluminate(n)
	case sl.NodeSolar:
		g.genSolar(n)
	case sl.NodeIlluminance:
		g.genIlluminance(n)
	}
}

func (g *Generator) genDeclare(n *sl.Node) {
	reg := g.program.AllocRegister(n.Type, n.Storage, n.Name)
	g.registers[n.Symbol] = reg
	if len(n.Children) > 0 {
		init := g.genExpr(n.Children[0])
		g.emitMove(reg, init, n.Type, n.Storage)
	}
}

func (g *Generator) emitMove(dst int, src Operand, t lang.Type, s lang.Storage) {
	g.program.Emit(Instruction{
		Op:       OpMove,
		Dispatch: NewUnaryDispatchCode(s, t.Components()),
		Dst:      Operand{Kind: OperandRegister, Index: uint32(dst)},
		Args:     []Operand{src},
	})
}

// genBreakContinue validates n's level against the loop-nesting stack
// and resolves its target loop frame (§4.5: "break/continue... compile-
// time checked against the loop-nesting stack; an out-of-range level
// emits CodeGenerationError"). A valid target then gets either a
// mask-clearing opcode (masked target loop) or a scalar jump recorded
// on the frame for the enclosing genWhile/genFor to patch once the
// loop's exit or continue point is known (unmasked target loop).
func (g *Generator) genBreakContinue(n *sl.Node, op OpCode) {
	name := "Break"
	if op == OpContinue {
		name = "Continue"
	}
	if len(g.loopStack) == 0 {
		g.errorf(n, "%s outside of a loop", name)
		return
	}
	idx := len(g.loopStack) - 1 - n.Level
	if idx < 0 {
		g.errorf(n, "%s to a level outside of a loop", name)
		return
	}
	frame := g.loopStack[idx]
	if frame.masked {
		g.program.Emit(Instruction{Op: op, Level: n.Level})
		return
	}
	site := g.program.Emit(Instruction{Op: OpJump, Args: []Operand{{}}})
	if op == OpBreak {
		frame.breakSites = append(frame.breakSites, patchSite{instr: site, arg: 0})
	} else {
		frame.continueSites = append(frame.continueSites, patchSite{instr: site, arg: 0})
	}
	g.loopStack[idx] = frame
}

// genIf emits a scalar conditional jump when the condition is uniform
// or constant (no mask bookkeeping needed), or pushes/inverts/pops a
// condition mask frame when the condition is varying (§4.5).
func (g *Generator) genIf(n *sl.Node) {
	cond := g.genExpr(n.Children[0])
	condStorage := n.Children[0].Storage

	if condStorage != lang.Varying {
		jumpOverThen := g.program.Emit(Instruction{Op: OpJumpIfFalse, Args: []Operand{cond, {}}})
		g.genStatement(n.Children[1])
		if len(n.Children) > 2 {
			jumpOverElse := g.program.Emit(Instruction{Op: OpJump, Args: []Operand{{}}})
			g.program.PatchLabel(jumpOverThen, 1)
			g.genStatement(n.Children[2])
			g.program.PatchLabel(jumpOverElse, 0)
		} else {
			g.program.PatchLabel(jumpOverThen, 1)
		}
		return
	}

	g.program.Emit(Instruction{Op: OpPushMask, Args: []Operand{cond}})
	g.genStatement(n.Children[1])
	if len(n.Children) > 2 {
		g.program.Emit(Instruction{Op: OpInvertMask})
		g.genStatement(n.Children[2])
	}
	g.program.Emit(Instruction{Op: OpPopMask})
}

// genWhile emits a loop mask frame for a varying condition, or a plain
// jump-back loop for a uniform/constant condition (§4.5).
func (g *Generator) genWhile(n *sl.Node) {
	condStorage := n.Children[0].Storage
	masked := condStorage == lang.Varying

	if masked {
		g.program.Emit(Instruction{Op: OpPushLoopMask})
	}
	start := len(g.program.Instructions)
	frame := loopFrame{masked: masked, startLabel: start}
	g.loopStack = append(g.loopStack, frame)

	cond := g.genExpr(n.Children[0])
	var exitSite int
	if masked {
		exitSite = g.program.Emit(Instruction{Op: OpLoopTest, Args: []Operand{cond, {}}})
	} else {
		exitSite = g.program.Emit(Instruction{Op: OpJumpIfFalse, Args: []Operand{cond, {}}})
	}

	g.genStatement(n.Children[1])
	frame = g.loopStack[len(g.loopStack)-1]
	if !masked {
		for _, ps := range frame.continueSites {
			g.program.PatchLabelTo(ps.instr, ps.arg, start)
		}
	}
	g.program.Emit(Instruction{Op: OpJump, Args: []Operand{{Kind: OperandLabel, Index: uint32(start)}}})
	g.program.PatchLabel(exitSite, 1)
	if !masked {
		for _, ps := range frame.breakSites {
			g.program.PatchLabel(ps.instr, ps.arg)
		}
	}
	if masked {
		g.program.Emit(Instruction{Op: OpPopLoopMask})
	}
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func (g *Generator) genFor(n *sl.Node) {
	if n.Children[0] != nil {
		g.genStatement(wrapExprStmt(n.Children[0]))
	}
	condStorage := lang.Uniform
	if n.Children[1] != nil {
		condStorage = n.Children[1].Storage
	}
	masked := condStorage == lang.Varying

	if masked {
		g.program.Emit(Instruction{Op: OpPushLoopMask})
	}
	start := len(g.program.Instructions)
	g.loopStack = append(g.loopStack, loopFrame{masked: masked, startLabel: start})

	var exitSite int
	hasExit := n.Children[1] != nil
	if hasExit {
		cond := g.genExpr(n.Children[1])
		if masked {
			exitSite = g.program.Emit(Instruction{Op: OpLoopTest, Args: []Operand{cond, {}}})
		} else {
			exitSite = g.program.Emit(Instruction{Op: OpJumpIfFalse, Args: []Operand{cond, {}}})
		}
	}

	g.genStatement(n.Children[3])
	frame := g.loopStack[len(g.loopStack)-1]
	stepLabel := len(g.program.Instructions)
	if !masked {
		for _, ps := range frame.continueSites {
			g.program.PatchLabelTo(ps.instr, ps.arg, stepLabel)
		}
	}
	if n.Children[2] != nil {
		g.genExpr(n.Children[2])
	}
	g.program.Emit(Instruction{Op: OpJump, Args: []Operand{{Kind: OperandLabel, Index: uint32(start)}}})
	if hasExit {
		g.program.PatchLabel(exitSite, 1)
	}
	if !masked {
		for _, ps := range frame.breakSites {
			g.program.PatchLabel(ps.instr, ps.arg)
		}
	}
	if masked {
		g.program.Emit(Instruction{Op: OpPopLoopMask})
	}
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func wrapExprStmt(n *sl.Node) *sl.Node {
	if n.Kind == sl.NodeDeclare {
		return n
	}
	return &sl.Node{Kind: sl.NodeExprStmt, Children: []*sl.Node{n}, Span: n.Span}
}

// genIlluminate/genSolar/genIlluminance emit a begin marker carrying the
// statement's light-selection arguments, the body, and an end marker
// (§4.5). The VM's illumination kernels (package vm) interpret the
// markers to select which lights the body's masked execution applies
// to.
func (g *Generator) genIlluminate(n *sl.Node) {
	args := g.genArgOperands(n.Children[:len(n.Children)-1])
	g.program.Emit(Instruction{Op: OpIlluminateBegin, Args: args})
	g.genStatement(n.Children[len(n.Children)-1])
	g.program.Emit(Instruction{Op: OpIlluminateEnd})
}

func (g *Generator) genSolar(n *sl.Node) {
	args := g.genArgOperands(n.Children[:len(n.Children)-1])
	g.program.Emit(Instruction{Op: OpSolarBegin, Args: args})
	g.genStatement(n.Children[len(n.Children)-1])
	g.program.Emit(Instruction{Op: OpSolarEnd})
}

func (g *Generator) genIlluminance(n *sl.Node) {
	args := g.genArgOperands(n.Children[:len(n.Children)-1])
	g.program.Emit(Instruction{Op: OpIlluminanceBegin, Args: args})
	g.loopStack = append(g.loopStack, loopFrame{masked: true})
	g.genStatement(n.Children[len(n.Children)-1])
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	g.program.Emit(Instruction{Op: OpIlluminanceEnd})
}

func (g *Generator) genArgOperands(nodes []*sl.Node) []Operand {
	ops := make([]Operand, len(nodes))
	for i, n := range nodes {
		ops[i] = g.genExpr(n)
	}
	return ops
}
