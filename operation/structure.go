package operation

import (
	"sort"
	"strings"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/types"
)

func (b *builder) push(bk *breakable) {
	b.breakables = append(b.breakables, bk)
}

func (b *builder) pop() {
	b.breakables = b.breakables[:len(b.breakables)-1]
}

// exitsOf returns the offsets jumping out of a statement ending at index end
func (b *builder) exitsOf(end, to, follow int) []int {
	exits := []int{b.offset(end)}
	if end >= to && follow != exits[0] {
		exits = append(exits, follow)
	}
	return exits
}

// loop decodes the loop whose header is at index i
func (b *builder) loop(lp *loopInfo, i, to, follow int) (int, error) {
	lp.entered = true
	if lp.last >= to {
		return 0, b.unstructured(lp.last, "loop overlaps its enclosing block")
	}
	exit := lp.last + 1
	header := b.offset(i)
	l := &Loop{}
	bk := &breakable{loop: l, exits: b.exitsOf(exit, to, follow)}
	b.push(bk)
	defer b.pop()

	last := b.insns[lp.last]
	if last.Opcode == classfile.GOTO {
		bk.continues = []int{header}
		start := i
		blocks := b.scanChain(i, lp.last)
		if n := b.chainLength(blocks, func(t int) bool { return contains(bk.exits, t) }); n > 0 {
			cond, _, next, err := b.runChain(blocks, n)
			if err != nil {
				return 0, err
			}
			l.Cond = cond.Negate()
			start = next
		}
		u := b.updateStart(start, lp.last)
		if u < 0 {
			body, err := b.region(start, lp.last, header)
			if err != nil {
				return 0, err
			}
			l.Body = trimContinue(body, l)
			b.emit(l)
			return exit, nil
		}
		bk.update = b.offset(u)
		body, err := b.region(start, u, bk.update)
		if err != nil {
			return 0, err
		}
		tail, err := b.region(u, lp.last, header)
		if err != nil {
			return 0, err
		}
		switch {
		case !bk.updated:
			body.Statements = append(body.Statements, tail.Statements...)
		case len(tail.Statements) == 1:
			l.Kind, l.Update = LoopFor, tail.Statements[0]
		default:
			return 0, b.unstructured(u, "continue to a loop update of %d statements", len(tail.Statements))
		}
		l.Body = trimContinue(body, l)
		b.emit(l)
		return exit, nil
	}

	// do-while: the condition computed at the end jumps back to the header
	l.Kind = LoopDoWhile
	cs, blocks, n := b.tailCondition(i, lp.last)
	if n == 0 {
		return 0, b.unstructured(lp.last, "loop condition")
	}
	bk.continues = []int{b.offset(cs)}
	body, err := b.region(i, cs, b.offset(cs))
	if err != nil {
		return 0, err
	}
	cond, _, _, err := b.runChain(blocks, n)
	if err != nil {
		return 0, err
	}
	l.Cond = cond
	l.Body = trimContinue(body, l)
	b.emit(l)
	return exit, nil
}

// updateStart returns the index of the straight line tail of a loop body ending at the back
// jump at index last when forward jumps from the body land on it, -1 otherwise
func (b *builder) updateStart(start, last int) int {
	for u := last - 1; u >= start; u-- {
		insn := b.insns[u]
		if insn.Switch != nil || insn.Opcode.IsConditionalJump() || insn.Opcode.IsUnconditionalJump() ||
			insn.Opcode.IsReturn() || insn.Opcode == classfile.ATHROW || b.skip[u] {
			return -1
		}
		sources := b.flow.targeted[insn.Offset]
		if len(sources) == 0 {
			continue
		}
		for _, src := range sources {
			if src < start || src >= u {
				return -1
			}
		}
		return u
	}
	return -1
}

// tailCondition finds the condition ending a do-while loop with its last jump at index last.
// It returns the index the condition starts at with its chain.
func (b *builder) tailCondition(header, last int) (int, []chainBlock, int) {
	cs := last
	for cs > header && !b.skip[cs-1] && (b.isPure(b.insns[cs-1]) || b.insns[cs-1].Opcode.IsConditionalJump()) {
		cs--
	}
	target := b.offset(header)
	candidates := []int{cs}
	for k := cs; k < last; k++ {
		if b.insns[k].Opcode.IsConditionalJump() {
			candidates = append(candidates, k+1)
		}
	}
	for _, start := range candidates {
		blocks := b.scanChain(start, last+1)
		if len(blocks) == 0 || blocks[len(blocks)-1].jump != last {
			continue
		}
		if st := b.simulate(blocks, len(blocks)); len(st) == 1 && st[0].target == target {
			return start, blocks, len(blocks)
		}
	}
	return 0, nil, 0
}

// entryTestedLoop decodes a while loop compiled with its condition after the body: a jump at
// index i to the condition, the body, then the condition jumping back to the body
func (b *builder) entryTestedLoop(i int, lp *loopInfo, to, follow int) (int, error) {
	lp.entered = true
	if lp.last >= to {
		return 0, b.unstructured(lp.last, "loop overlaps its enclosing block")
	}
	condAt := b.insns[i].Target
	c, err := b.indexOf(condAt)
	if err != nil {
		return 0, err
	}
	l := &Loop{}
	bk := &breakable{loop: l, exits: b.exitsOf(lp.last+1, to, follow), continues: []int{condAt}}
	b.push(bk)
	defer b.pop()

	body, err := b.region(i+1, c, condAt)
	if err != nil {
		return 0, err
	}
	blocks := b.scanChain(c, lp.last+1)
	if len(blocks) == 0 || blocks[len(blocks)-1].jump != lp.last {
		return 0, b.unstructured(lp.last, "loop condition")
	}
	st := b.simulate(blocks, len(blocks))
	if len(st) != 1 || st[0].target != b.offset(i+1) {
		return 0, b.unstructured(lp.last, "loop condition")
	}
	cond, _, _, err := b.runChain(blocks, len(blocks))
	if err != nil {
		return 0, err
	}
	l.Cond = cond
	l.Body = trimContinue(body, l)
	b.emit(l)
	return lp.last + 1, nil
}

// trimContinue drops a continue of the loop itself ending its body
func trimContinue(body *Block, l *Loop) *Block {
	if n := len(body.Statements); n > 0 {
		if c, ok := body.Statements[n-1].(*Continue); ok && c.loop == l && c.Label == "" {
			body.Statements = body.Statements[:n-1]
		}
	}
	return body
}

// switchStatement decodes the tableswitch or lookupswitch at index i
func (b *builder) switchStatement(i, to, follow int) (int, error) {
	insn := b.insns[i]
	value, err := b.ctx.PopAs(types.IntLike)
	if err != nil {
		return 0, err
	}
	end := b.offset(to)

	starts := []int{insn.Switch.Default}
	for _, t := range insn.Switch.Targets {
		if !contains(starts, t) {
			starts = append(starts, t)
		}
	}
	sort.Ints(starts)
	last := starts[len(starts)-1]
	first, err := b.indexOf(starts[0])
	if err != nil {
		return 0, err
	}
	// breaks jump past the last case start
	for changed := true; changed; {
		changed = false
		stop, ok := b.flow.indexOf(last)
		if !ok || last >= end {
			break
		}
		for k := first; k < stop; k++ {
			g := b.insns[k]
			if g.Opcode == classfile.GOTO && g.Target > last && (g.Target <= end || g.Target == follow) {
				last, changed = g.Target, true
			}
		}
	}
	endIdx := to
	if last < end {
		if endIdx, err = b.indexOf(last); err != nil {
			return 0, err
		}
	}

	value, names := b.switchNames(value)
	s := &Switch{Value: value}
	bk := &breakable{sw: s, exits: b.exitsOf(endIdx, to, follow)}
	b.push(bk)
	defer b.pop()

	exitAt := b.offset(endIdx)
	var cases []*Case
	var caseStarts []int
	for _, start := range starts {
		if start >= exitAt {
			continue
		}
		c := &Case{Default: start == insn.Switch.Default}
		for k, t := range insn.Switch.Targets {
			if t == start {
				c.Keys = append(c.Keys, insn.Switch.Keys[k])
				if names != nil {
					c.Names = append(c.Names, names(insn.Switch.Keys[k]))
				}
			}
		}
		cases = append(cases, c)
		caseStarts = append(caseStarts, start)
	}
	for k, c := range cases {
		from, err := b.indexOf(caseStarts[k])
		if err != nil {
			return 0, err
		}
		until, next := endIdx, exitAt
		if endIdx == to {
			next = follow
		}
		if k+1 < len(cases) {
			if until, err = b.indexOf(caseStarts[k+1]); err != nil {
				return 0, err
			}
			next = caseStarts[k+1]
		}
		if c.Body, err = b.region(from, until, next); err != nil {
			return 0, err
		}
		if k == len(cases)-1 {
			trimBreak(c.Body)
		}
	}
	s.Cases = cases
	b.emit(s)
	return endIdx, nil
}

// trimBreak drops the unlabelled break ending the last case
func trimBreak(body *Block) {
	if n := len(body.Statements); n > 0 {
		if br, ok := body.Statements[n-1].(*Break); ok && br.Label == "" {
			body.Statements = body.Statements[:n-1]
		}
	}
}

// switchNames recognizes a switch over an enum ordinal and returns the switched enum value
// with the constant name of each case value
func (b *builder) switchNames(value Operation) (Operation, func(int32) string) {
	maps := b.class.SwitchMaps
	if maps == nil {
		return value, nil
	}
	if al, ok := value.(*ArrayLoad); ok {
		g, gok := al.Array.(*GetField)
		inv, iok := al.Index.(*Invoke)
		if gok && iok && g.Object == nil && strings.HasPrefix(g.Field.Name, "$SwitchMap$") && isOrdinal(inv) {
			if m, ok := maps.Lookup(g.Field.Owner.InternalName(), g.Field.Name); ok {
				return inv.Object, func(k int32) string { return m[k] }
			}
		}
	}
	if inv, ok := value.(*Invoke); ok && isOrdinal(inv) {
		if cls, ok := inv.Object.Type().(*types.Class); ok {
			if names, ok := maps.EnumConstants(cls.InternalName()); ok {
				return inv.Object, func(k int32) string {
					if k >= 0 && int(k) < len(names) {
						return names[k]
					}
					return ""
				}
			}
		}
	}
	return value, nil
}

func isOrdinal(inv *Invoke) bool {
	return inv.Object != nil && inv.Method.Name == "ordinal" && len(inv.Method.Args) == 0 && inv.Method.Return == types.Int
}

// tryStatement decodes the try statement of group t starting at index i
func (b *builder) tryStatement(t *tryInfo, i, to, follow int) (int, error) {
	t.entered = true
	end := b.offset(to)
	firstPC := t.firstHandler()
	first, err := b.indexOf(firstPC)
	if err != nil {
		return 0, err
	}

	var finallyBody []*classfile.Instruction
	finallyStart, rethrow := 0, 0
	if t.finally != nil {
		finallyStart = b.flow.index[t.finally.pc]
		rethrow, _ = b.flow.finallyEnd(finallyStart)
		finallyBody = b.insns[finallyStart+1 : rethrow-1]
		b.skipFinallyCopies(t.finally, finallyBody)
	}

	// the statement ends where the try block and its handlers jump to
	after := -1
	accept := func(g int) bool { return g > firstPC && (g <= end || g == follow) }
	if g := b.insns[first-1]; g.Opcode == classfile.GOTO && accept(g.Target) {
		after = g.Target
	}
	handlerStarts := b.handlerStarts(t)
	for _, h := range handlerStarts[1:] {
		if after >= 0 {
			break
		}
		if k := b.flow.index[h]; b.insns[k-1].Opcode == classfile.GOTO && accept(b.insns[k-1].Target) {
			after = b.insns[k-1].Target
		}
	}
	if after < 0 && t.finally != nil {
		after = b.offset(rethrow + 1)
	}
	if after < 0 || after > end {
		after = end
	}
	endIdx := to
	next := follow
	if after < end {
		if endIdx, err = b.indexOf(after); err != nil {
			return 0, err
		}
		next = after
	}

	tr := &Try{}
	if tr.Body, err = b.region(i, first, next); err != nil {
		return 0, err
	}
	for k, h := range t.handlers {
		from := b.flow.index[h.pc]
		until := endIdx
		if k+1 < len(handlerStarts) {
			until = b.flow.index[handlerStarts[k+1]]
		}
		c, err := b.catchClause(h, from, until, next)
		if err != nil {
			return 0, err
		}
		tr.Catches = append(tr.Catches, c)
	}
	if t.finally != nil {
		if tr.Finally, err = b.region(finallyStart+1, rethrow-1, b.offset(rethrow-1)); err != nil {
			return 0, err
		}
	}
	b.emit(tr)
	return endIdx, nil
}

// handlerStarts returns the handler offsets of a group in order, the finally handler last
func (b *builder) handlerStarts(t *tryInfo) []int {
	var res []int
	for _, h := range t.handlers {
		res = append(res, h.pc)
	}
	sort.Ints(res)
	if t.finally != nil {
		res = append(res, t.finally.pc)
	}
	return res
}

// skipFinallyCopies marks the copies of a finally block inlined at the end of its ranges
func (b *builder) skipFinallyCopies(h *handlerInfo, body []*classfile.Instruction) {
	for _, e := range h.ends {
		k, ok := b.flow.index[e]
		if !ok || !b.flow.copyAt(k, body) {
			continue
		}
		for j := k; j < k+len(body); j++ {
			b.skip[j] = true
		}
	}
}

// catchClause decodes a handler, binding its first store of the exception as the catch parameter
func (b *builder) catchClause(h *handlerInfo, from, until, next int) (*Catch, error) {
	c := &Catch{}
	for _, name := range h.types {
		c.Types = append(c.Types, types.ClassOf(name))
	}
	var t types.Type = c.Types[0]
	if len(c.Types) > 1 {
		t = types.Throwable
	}
	caught := &CaughtException{typ: t}
	b.ctx.Push(caught)
	body, err := b.region(from, until, next)
	if err != nil {
		return nil, err
	}
	if len(body.Statements) > 0 {
		if s, ok := body.Statements[0].(*Store); ok && s.Value == caught {
			c.Var = s.Var
			body.Statements = body.Statements[1:]
		}
	}
	if c.Var == nil {
		c.Var = &Variable{Slot: -1, typ: t}
		b.ctx.vars = append(b.ctx.vars, c.Var)
	}
	c.Var.declared = true
	caught.Var = c.Var
	c.Body = body
	return c, nil
}

// synchronized decodes the synchronized block entered by the monitorenter at index i
func (b *builder) synchronized(i, to, follow int) (int, error) {
	lock, err := b.ctx.PopAs(types.AnyObject)
	if err != nil {
		return 0, err
	}
	if s, ok := lock.(*Store); ok && s.expression {
		s.Var.Hidden = true
		lock = s.Value
	}
	h := b.flow.syncAt(b.offset(i + 1))
	if h == nil {
		return 0, b.unstructured(i, "monitorenter without a cleanup handler")
	}
	hi := b.flow.index[h.pc]
	end := b.offset(to)
	after := b.offset(h.end)
	if g := b.insns[hi-1]; g.Opcode == classfile.GOTO && g.Target > h.pc && (g.Target <= end || g.Target == follow) {
		after = g.Target
	}
	endIdx, next := to, follow
	if after < end {
		if endIdx, err = b.indexOf(after); err != nil {
			return 0, err
		}
		next = after
	}
	body, err := b.region(i+1, hi, next)
	if err != nil {
		return 0, err
	}
	b.emit(&Synchronized{Lock: lock, Body: body})
	return endIdx, nil
}
