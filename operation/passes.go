package operation

import (
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/types"
)

// finish runs the passes turning the raw block tree into source form
func finish(ctx *Context, body *Body, method *MethodInput) {
	root := body.Block
	if method.Descriptor.Return == types.Void {
		trimReturn(root)
	}
	if method.Descriptor.IsConstructor() {
		trimSuper(ctx.Class, root)
	}
	declare(ctx, root)
	forLoops(root)
	name(ctx, method)
}

// trimReturn drops the return ending a void method
func trimReturn(root *Block) {
	if n := len(root.Statements); n > 0 {
		if r, ok := root.Statements[n-1].(*Return); ok && r.Value == nil {
			root.Statements = root.Statements[:n-1]
		}
	}
}

// trimSuper drops the implicit super() call of a constructor; enum constructors always call
// the Enum constructor with the synthetic name and ordinal arguments
func trimSuper(class *ClassInfo, root *Block) {
	for k, s := range root.Statements {
		inv, ok := s.(*Invoke)
		if !ok || inv.Call != CallSuper {
			continue
		}
		if len(inv.Args) == 0 || class.IsEnum {
			root.Statements = append(root.Statements[:k], root.Statements[k+1:]...)
		}
		return
	}
}

// reference is the position of a statement referencing a variable: the blocks from the root
// down to the statement and the statement index in each of them
type reference struct {
	path  []*Block
	index []int
}

func collectRefs(blk *Block, path []*Block, index []int, refs map[*Variable][]reference) {
	for k, s := range blk.Statements {
		p := append(append([]*Block{}, path...), blk)
		ix := append(append([]int{}, index...), k)
		Walk(s, func(op Operation) bool {
			var v *Variable
			switch o := op.(type) {
			case *Load:
				v = o.Var
			case *Store:
				v = o.Var
			case *Increment:
				v = o.Var
			case *PostIncrement:
				if st, ok := o.Target.(*Store); ok {
					v = st.Var
				}
			}
			if v != nil {
				refs[v] = append(refs[v], reference{path: p, index: ix})
			}
			return true
		})
		if c, ok := s.(compound); ok {
			for _, nested := range c.blocks() {
				collectRefs(nested, p, ix, refs)
			}
		}
	}
}

// declare places the declaration of every local variable in the innermost block enclosing all
// its uses, merged into the first statement when it is a plain store of the variable
func declare(ctx *Context, root *Block) {
	refs := map[*Variable][]reference{}
	collectRefs(root, nil, nil, refs)

	type insertion struct {
		index int
		decl  Operation
	}
	inserts := map[*Block][]insertion{}
	for _, v := range ctx.Variables() {
		rs := refs[v]
		if v.Param || v.This || v.Hidden || v.declared || len(rs) == 0 {
			continue
		}
		depth := 0
		for {
			next := depth + 1
			ok := true
			for _, r := range rs {
				if len(r.path) <= next || r.path[next] != rs[0].path[next] || r.index[depth] != rs[0].index[depth] {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
			depth = next
		}
		blk := rs[0].path[depth]
		first := rs[0].index[depth]
		for _, r := range rs {
			if r.index[depth] < first {
				first = r.index[depth]
			}
		}
		v.declared = true
		if s, ok := blk.Statements[first].(*Store); ok && s.Var == v && !s.expression && !s.Declare {
			s.Declare = true
			continue
		}
		inserts[blk] = append(inserts[blk], insertion{index: first, decl: &Declaration{Var: v}})
	}
	for blk, ins := range inserts {
		var res []Operation
		for k, s := range blk.Statements {
			for _, in := range ins {
				if in.index == k {
					res = append(res, in.decl)
				}
			}
			res = append(res, s)
		}
		blk.Statements = res
	}
}

// forLoops turns a while loop preceded by the declaration of its counter and ending with its
// update into a for loop
func forLoops(blk *Block) {
	for k := 0; k < len(blk.Statements); k++ {
		s := blk.Statements[k]
		if c, ok := s.(compound); ok {
			for _, nested := range c.blocks() {
				forLoops(nested)
			}
		}
		l, ok := s.(*Loop)
		if !ok || k == 0 || l.Init != nil || l.Label != "" {
			continue
		}
		init, ok := blk.Statements[k-1].(*Store)
		if !ok || !init.Declare || !references(l.Cond, init.Var) || usedAfter(blk.Statements[k+1:], init.Var) {
			continue
		}
		switch l.Kind {
		case LoopWhile:
			n := len(l.Body.Statements)
			if l.Cond == nil || n == 0 || !updates(l.Body.Statements[n-1], init.Var) || continues(l.Body, l) {
				continue
			}
			l.Update = l.Body.Statements[n-1]
			l.Body.Statements = l.Body.Statements[:n-1]
		case LoopFor:
			if !updates(l.Update, init.Var) {
				continue
			}
		default:
			continue
		}
		l.Kind, l.Init = LoopFor, init
		blk.Statements = append(blk.Statements[:k-1], blk.Statements[k:]...)
		k--
	}
}

func references(op Operation, v *Variable) bool {
	found := false
	Walk(op, func(o Operation) bool {
		if l, ok := o.(*Load); ok && l.Var == v {
			found = true
		}
		return !found
	})
	return found
}

// usedAfter reports whether v is referenced by any of the statements
func usedAfter(statements []Operation, v *Variable) bool {
	refs := map[*Variable][]reference{}
	collectRefs(&Block{Statements: statements}, nil, nil, refs)
	return len(refs[v]) > 0
}

// updates reports whether op is a statement assigning v
func updates(op Operation, v *Variable) bool {
	switch o := op.(type) {
	case *Store:
		return o.Var == v && !o.Declare
	case *Increment:
		return o.Var == v
	}
	return false
}

// continues reports whether blk holds a continue of l
func continues(blk *Block, l *Loop) bool {
	for _, s := range blk.Statements {
		if c, ok := s.(*Continue); ok && c.loop == l {
			return true
		}
		if c, ok := s.(compound); ok {
			for _, nested := range c.blocks() {
				if continues(nested, l) {
					return true
				}
			}
		}
	}
	return false
}

// name assigns parameter and local variable names, unique within the method
func name(ctx *Context, method *MethodInput) {
	namer := descriptor.NewNamer()
	var table descriptor.VariableTable
	if method.Code != nil && method.Code.HasLocalVariables() && !ctx.Class.IgnoreVariableTable {
		table = method.Code
	}
	names := method.Descriptor.NameArgs(table, method.Static, namer)
	for k, p := range ctx.Params() {
		if k < len(names) {
			p.Name = names[k]
		}
	}
	for _, v := range ctx.Variables() {
		if v.Param || v.This || v.Hidden {
			continue
		}
		base := v.tableName
		if base == "" {
			base = types.Resolve(v.typ).VarName()
		}
		v.Name = namer.Name(base)
	}
}
