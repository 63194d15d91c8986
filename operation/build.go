package operation

import (
	"fmt"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// MethodInput is a method to decompile
type MethodInput struct {
	Descriptor *descriptor.Method
	Static     bool
	Code       *classfile.Code
}

// Body is the reconstructed body of a method
type Body struct {
	Params []*Variable // Params are the named parameters, this excluded
	Block  *Block
}

// Write renders the body in braces
func (b *Body) Write(w *render.Writer) {
	b.Block.Write(w)
}

// breakable is a loop or switch being built, with the offsets a jump leaves it or continues it by
type breakable struct {
	loop      *Loop
	sw        *Switch
	exits     []int
	continues []int
	update    int  // update is the offset of the for loop update continue jumps to, 0 if none
	updated   bool // updated is set once a continue jumps to the update
}

func (bk *breakable) setLabel(label string) string {
	switch {
	case bk.loop != nil:
		if bk.loop.Label == "" {
			bk.loop.Label = label
		}
		return bk.loop.Label
	default:
		if bk.sw.Label == "" {
			bk.sw.Label = label
		}
		return bk.sw.Label
	}
}

// builder reconstructs the block structure of a method. A region is a range of instructions
// decoded into one block; follow is the offset control reaches when it falls off the region.
type builder struct {
	ctx        *Context
	class      *ClassInfo
	flow       *flow
	insns      []*classfile.Instruction
	out        *Block
	breakables []*breakable
	labels     int
	skip       map[int]bool // skip holds the indexes of inlined finally copies
}

// Build decompiles a method body
func Build(class *ClassInfo, method *MethodInput) (*Body, error) {
	if method.Code == nil {
		return nil, failure.New(failure.KindMalformedClass, "method %s has no code", method.Descriptor)
	}
	insns, err := classfile.Disassemble(method.Code.Bytecode)
	if err != nil {
		return nil, err
	}
	ctx := NewContext(class, class.Pool, method.Descriptor, method.Static, method.Code)
	b := &builder{
		ctx:   ctx,
		class: class,
		flow:  analyze(insns, method.Code),
		insns: insns,
		skip:  map[int]bool{},
	}
	root, err := b.region(0, len(insns), b.flow.end)
	if err != nil {
		return nil, err
	}
	body := &Body{Params: ctx.Params(), Block: root}
	finish(ctx, body, method)
	return body, nil
}

func (b *builder) offset(i int) int {
	return b.flow.offset(i)
}

// indexOf returns the index of the instruction at offset
func (b *builder) indexOf(offset int) (int, error) {
	i, ok := b.flow.indexOf(offset)
	if !ok {
		return 0, failure.New(failure.KindUnstructuredJump, "no instruction at %d", offset)
	}
	return i, nil
}

func (b *builder) emit(op Operation) {
	b.out.add(op)
}

func (b *builder) unstructured(i int, format string, args ...interface{}) error {
	return failure.New(failure.KindUnstructuredJump, "%s at %d", fmt.Sprintf(format, args...), b.offset(i))
}

// region decodes the instructions [from, to) into a block
func (b *builder) region(from, to, follow int) (*Block, error) {
	blk := &Block{}
	saved := b.out
	b.out = blk
	defer func() { b.out = saved }()
	for i := from; i < to; {
		if b.skip[i] {
			i++
			continue
		}
		next, err := b.step(i, to, follow)
		if err != nil {
			return nil, err
		}
		i = next
	}
	return blk, nil
}

// step decodes the statement starting at index i and returns the index following it
func (b *builder) step(i, to, follow int) (int, error) {
	insn := b.insns[i]
	b.ctx.pc, b.ctx.next = insn.Offset, b.offset(i+1)

	t := b.flow.tryAt(insn.Offset)
	lp := b.flow.loops[i]
	if lp != nil && lp.entered {
		lp = nil
	}
	if t != nil && (lp == nil || t.firstHandler() >= b.offset(lp.last+1)) {
		return b.tryStatement(t, i, to, follow)
	}
	if lp != nil {
		return b.loop(lp, i, to, follow)
	}
	switch {
	case insn.Opcode.IsConditionalJump():
		return b.conditional(i, to, follow)
	case insn.Opcode == classfile.GOTO:
		return b.jump(i, to, follow)
	case insn.Switch != nil:
		return b.switchStatement(i, to, follow)
	case insn.Opcode == classfile.MONITORENTER:
		return b.synchronized(i, to, follow)
	}
	return b.interpret(i)
}

// chainBlock is a conditional jump with the side effect free code computing its operands
type chainBlock struct {
	start int // start is the index of the first operand instruction
	jump  int // jump is the index of the conditional jump
}

// chainEntry is a condition under which control reaches target, after is the fall through
type chainEntry struct {
	cond   Condition
	target int
	after  int
}

// reduce merges the last two entries while they form a && or || of a single condition
func reduce(stack []*chainEntry) []*chainEntry {
	for len(stack) >= 2 {
		x, y := stack[len(stack)-2], stack[len(stack)-1]
		var merged *chainEntry
		switch {
		case x.target == y.target:
			merged = &chainEntry{target: y.target, after: y.after}
			if x.cond != nil {
				merged.cond = &Or{Left: x.cond, Right: y.cond}
			}
		case x.target == y.after:
			merged = &chainEntry{target: y.target, after: y.after}
			if x.cond != nil {
				merged.cond = &And{Left: x.cond.Negate(), Right: y.cond}
			}
		default:
			return stack
		}
		stack = append(stack[:len(stack)-2], merged)
	}
	return stack
}

// isPure reports whether an instruction only pushes values without side effects visible as
// statements, so it may belong to a condition operand
func (b *builder) isPure(insn *classfile.Instruction) bool {
	switch insn.Opcode {
	case classfile.ACONST_NULL, classfile.BIPUSH, classfile.SIPUSH, classfile.LDC, classfile.LDC2_W,
		classfile.LCONST_0, classfile.LCONST_1, classfile.FCONST_0, classfile.FCONST_1, classfile.FCONST_2,
		classfile.DCONST_0, classfile.DCONST_1,
		classfile.ILOAD, classfile.LLOAD, classfile.FLOAD, classfile.DLOAD, classfile.ALOAD,
		classfile.IALOAD, classfile.LALOAD, classfile.FALOAD, classfile.DALOAD, classfile.AALOAD,
		classfile.BALOAD, classfile.CALOAD, classfile.SALOAD,
		classfile.GETFIELD, classfile.GETSTATIC, classfile.ARRAYLENGTH, classfile.CHECKCAST, classfile.INSTANCEOF,
		classfile.LCMP, classfile.FCMPL, classfile.FCMPG, classfile.DCMPL, classfile.DCMPG:
		return true
	case classfile.INVOKEVIRTUAL, classfile.INVOKEINTERFACE, classfile.INVOKESTATIC:
		m, err := b.ctx.Pool.Member(insn.Index)
		return err == nil && m.Descriptor[len(m.Descriptor)-1] != 'V'
	case classfile.INVOKEDYNAMIC:
		d, err := b.ctx.Pool.Dynamic(insn.Index)
		return err == nil && d.Descriptor[len(d.Descriptor)-1] != 'V'
	}
	if insn.Opcode >= classfile.IADD && insn.Opcode <= classfile.LXOR {
		return true
	}
	return insn.Opcode >= classfile.I2L && insn.Opcode <= classfile.I2S
}

// scanChain collects the conditional jumps forming a candidate condition chain starting at
// index start, whose first jump is the first conditional jump after start
func (b *builder) scanChain(start, to int) []chainBlock {
	var res []chainBlock
	j := start
	for {
		k := j
		for k < to && !b.skip[k] && b.isPure(b.insns[k]) {
			if k > j && len(b.flow.targeted[b.insns[k].Offset]) > 0 {
				return res
			}
			k++
		}
		if k >= to || b.skip[k] || !b.insns[k].Opcode.IsConditionalJump() {
			return res
		}
		if len(res) > 0 {
			if !b.chainStart(j, res) || k > j && len(b.flow.targeted[b.insns[k].Offset]) > 0 {
				return res
			}
		}
		res = append(res, chainBlock{start: j, jump: k})
		j = k + 1
	}
}

// chainStart reports whether a chain may continue with a block starting at index j
func (b *builder) chainStart(j int, blocks []chainBlock) bool {
	off := b.offset(j)
	if lp := b.flow.loops[j]; lp != nil && !lp.entered || b.flow.tryAt(off) != nil {
		return false
	}
	for _, src := range b.flow.targeted[off] {
		ok := false
		for _, blk := range blocks {
			ok = ok || blk.jump == src
		}
		if !ok {
			return false
		}
	}
	return true
}

// simulate reduces the static targets of the first n blocks
func (b *builder) simulate(blocks []chainBlock, n int) []*chainEntry {
	var stack []*chainEntry
	for _, blk := range blocks[:n] {
		insn := b.insns[blk.jump]
		stack = reduce(append(stack, &chainEntry{target: insn.Target, after: b.offset(blk.jump + 1)}))
	}
	return stack
}

// chainLength returns the longest prefix of blocks reducing to a single condition accepted
// by ok, 0 if none
func (b *builder) chainLength(blocks []chainBlock, ok func(target int) bool) int {
	for n := len(blocks); n > 0; n-- {
		if st := b.simulate(blocks, n); len(st) == 1 && ok(st[0].target) {
			return n
		}
	}
	return 0
}

// runChain interprets the first n blocks and returns the reduced jump condition with its
// target and the index following the chain
func (b *builder) runChain(blocks []chainBlock, n int) (Condition, int, int, error) {
	var stack []*chainEntry
	for _, blk := range blocks[:n] {
		for j := blk.start; j < blk.jump; j++ {
			b.ctx.pc, b.ctx.next = b.insns[j].Offset, b.offset(j+1)
			if _, err := b.interpret(j); err != nil {
				return nil, 0, 0, err
			}
		}
		insn := b.insns[blk.jump]
		b.ctx.pc, b.ctx.next = insn.Offset, b.offset(blk.jump+1)
		cond, err := b.jumpCondition(insn)
		if err != nil {
			return nil, 0, 0, err
		}
		stack = reduce(append(stack, &chainEntry{cond: cond, target: insn.Target, after: b.offset(blk.jump + 1)}))
	}
	if len(stack) != 1 {
		return nil, 0, 0, b.unstructured(blocks[0].jump, "irreducible condition")
	}
	return stack[0].cond, stack[0].target, blocks[n-1].jump + 1, nil
}

// conditional decodes an if statement, an if-else statement, a ternary expression or a
// conditional break or continue starting with the conditional jump at index i
func (b *builder) conditional(i, to, follow int) (int, error) {
	blocks := b.scanChain(i, to)
	n := b.chainLength(blocks, func(int) bool { return true })
	if n == 0 {
		n = 1
	}
	cond, target, a, err := b.runChain(blocks, n)
	if err != nil {
		return 0, err
	}
	start, end := b.offset(a), b.offset(to)

	switch {
	case target == follow && (target > end || target < start):
		then, err := b.region(a, to, follow)
		if err != nil {
			return 0, err
		}
		b.emitIf(cond.Negate(), then, nil)
		return to, nil
	case target > start && target <= end:
		return b.ifElse(cond, target, a, to, follow)
	}
	if op := b.breakOrContinue(target); op != nil {
		b.emit(&If{Cond: cond, Then: &Block{Statements: []Operation{op}}})
		return a, nil
	}
	return 0, b.unstructured(a-1, "conditional jump to %d", target)
}

// ifElse decodes the branches of a forward condition: then runs from index a to the target,
// an else branch follows when then ends with a jump over it
func (b *builder) ifElse(cond Condition, target, a, to, follow int) (int, error) {
	t, err := b.indexOf(target)
	if err != nil {
		return 0, err
	}
	end := b.offset(to)
	thenEnd, elseEnd, after := t, -1, target
	if last := b.insns[t-1]; t-1 >= a && !b.skip[t-1] && last.Opcode == classfile.GOTO {
		g := last.Target
		switch {
		case g == follow && (g > end || g < b.offset(a)):
			thenEnd, elseEnd, after = t-1, to, follow
		case g > target && g <= end:
			e, err := b.indexOf(g)
			if err != nil {
				return 0, err
			}
			thenEnd, elseEnd, after = t-1, e, g
		}
	}

	depth := b.ctx.Depth()
	then, err := b.region(a, thenEnd, after)
	if err != nil {
		return 0, err
	}
	if elseEnd < 0 {
		b.emitIf(cond.Negate(), then, nil)
		return t, nil
	}
	if b.ctx.Depth() == depth+1 && len(then.Statements) == 0 {
		thenValue, _ := b.ctx.Pop()
		els, err := b.region(t, elseEnd, after)
		if err != nil {
			return 0, err
		}
		if b.ctx.Depth() != depth+1 || len(els.Statements) != 0 {
			return 0, b.unstructured(t, "unbalanced conditional expression")
		}
		elseValue, _ := b.ctx.Pop()
		b.ctx.Push(newTernary(cond.Negate(), thenValue, elseValue))
		return elseEnd, nil
	}
	els, err := b.region(t, elseEnd, after)
	if err != nil {
		return 0, err
	}
	b.emitIf(cond.Negate(), then, els)
	return elseEnd, nil
}

// emitIf adds an if statement, inverting it when only the else branch has statements
func (b *builder) emitIf(cond Condition, then, els *Block) {
	if els != nil && len(els.Statements) == 0 {
		els = nil
	}
	if els != nil && len(then.Statements) == 0 {
		cond, then, els = cond.Negate(), els, nil
	}
	b.emit(&If{Cond: cond, Then: then, Else: els})
}

// jump decodes the unconditional jump at index i
func (b *builder) jump(i, to, follow int) (int, error) {
	insn := b.insns[i]
	switch {
	case insn.Target == b.offset(i+1):
		return i + 1, nil
	case i == to-1 && insn.Target == follow:
		return i + 1, nil
	}
	if lp := b.flow.loops[i+1]; lp != nil && !lp.entered {
		last := b.insns[lp.last]
		if last.Opcode.IsConditionalJump() && last.Target == b.offset(i+1) &&
			insn.Target > b.offset(i+1) && insn.Target <= last.Offset {
			return b.entryTestedLoop(i, lp, to, follow)
		}
	}
	if op := b.breakOrContinue(insn.Target); op != nil {
		b.emit(op)
		return i + 1, nil
	}
	return 0, b.unstructured(i, "jump to %d", insn.Target)
}

// breakOrContinue returns the statement leaving or continuing the enclosing statement target
// belongs to, nil if none
func (b *builder) breakOrContinue(target int) Operation {
	innerLoop := false
	for k := len(b.breakables) - 1; k >= 0; k-- {
		bk := b.breakables[k]
		if contains(bk.exits, target) {
			label := ""
			if k != len(b.breakables)-1 {
				label = bk.setLabel(b.nextLabel())
			}
			return &Break{Label: label}
		}
		if bk.loop != nil {
			if contains(bk.continues, target) || bk.update > 0 && target == bk.update {
				label := ""
				if innerLoop {
					label = bk.setLabel(b.nextLabel())
				}
				bk.updated = bk.updated || bk.update > 0 && target == bk.update
				return &Continue{Label: label, loop: bk.loop}
			}
			innerLoop = true
		}
	}
	return nil
}

func (b *builder) nextLabel() string {
	b.labels++
	return fmt.Sprintf("label%d", b.labels)
}

// jumpCondition pops the operands of a conditional jump and returns the condition under which
// the jump is taken
func (b *builder) jumpCondition(insn *classfile.Instruction) (Condition, error) {
	ctx := b.ctx
	switch insn.Opcode {
	case classfile.IFEQ, classfile.IFNE, classfile.IFLT, classfile.IFGE, classfile.IFGT, classfile.IFLE:
		v, err := ctx.PopAs(types.Integral)
		if err != nil {
			return nil, err
		}
		return zeroCompare(jumpOps[insn.Opcode], v), nil
	case classfile.IF_ICMPEQ, classfile.IF_ICMPNE, classfile.IF_ICMPLT, classfile.IF_ICMPGE, classfile.IF_ICMPGT, classfile.IF_ICMPLE:
		right, err := ctx.PopAs(types.Integral)
		if err != nil {
			return nil, err
		}
		left, err := ctx.PopAs(types.Integral)
		if err != nil {
			return nil, err
		}
		unifyOperands(left, right)
		return &Compare{Op: jumpOps[insn.Opcode], Left: left, Right: right}, nil
	case classfile.IF_ACMPEQ, classfile.IF_ACMPNE:
		right, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return nil, err
		}
		left, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return nil, err
		}
		return &Compare{Op: jumpOps[insn.Opcode], Left: left, Right: right}, nil
	case classfile.IFNULL, classfile.IFNONNULL:
		v, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return nil, err
		}
		return &Compare{Op: jumpOps[insn.Opcode], Left: v, Right: Null{}}, nil
	}
	return nil, failure.New(failure.KindUnknownInstruction, "%s is not a conditional jump", insn.Opcode)
}

var jumpOps = map[classfile.Opcode]string{
	classfile.IFEQ: "==", classfile.IFNE: "!=", classfile.IFLT: "<", classfile.IFGE: ">=", classfile.IFGT: ">", classfile.IFLE: "<=",
	classfile.IF_ICMPEQ: "==", classfile.IF_ICMPNE: "!=", classfile.IF_ICMPLT: "<", classfile.IF_ICMPGE: ">=",
	classfile.IF_ICMPGT: ">", classfile.IF_ICMPLE: "<=",
	classfile.IF_ACMPEQ: "==", classfile.IF_ACMPNE: "!=",
	classfile.IFNULL: "==", classfile.IFNONNULL: "!=",
}
