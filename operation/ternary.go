package operation

import (
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Ternary is a conditional expression built from an if/else whose branches only push a value
type Ternary struct {
	Cond       Condition
	Then, Else Operation

	typ types.Type
}

// newTernary builds `cond ? a : b`. Boolean ternaries of literal 1 and 0 collapse into the
// condition itself.
func newTernary(cond Condition, then, els Operation) Operation {
	tv, tok := intValue(then)
	ev, eok := intValue(els)
	if tok && eok && then.Type().(types.Primitive).Has(types.KindBoolean) && els.Type().(types.Primitive).Has(types.KindBoolean) {
		switch {
		case tv == 1 && ev == 0:
			return cond
		case tv == 0 && ev == 1:
			return cond.Negate()
		}
	}
	t := then.Type()
	if common, err := types.Narrow(then.Type(), els.Type()); err == nil {
		t = common
	} else if common, err := types.Narrow(els.Type(), then.Type()); err == nil {
		t = common
	}
	if types.IsReference(t) {
		t = types.Merge(then.Type(), els.Type())
	}
	return &Ternary{Cond: cond, Then: then, Else: els, typ: t}
}

func (t *Ternary) Type() types.Type          { return t.typ }
func (t *Ternary) Priority() render.Priority { return render.Ternary }
func (t *Ternary) Children() []Operation     { return []Operation{t.Cond, t.Then, t.Else} }

func (t *Ternary) narrow(required types.Type) {
	if n, err := types.Narrow(t.typ, required); err == nil {
		t.typ = n
	}
	narrowOp(t.Then, t.typ)
	narrowOp(t.Else, t.typ)
}

func (t *Ternary) Write(w *render.Writer) {
	writeOperand(w, t.Cond, render.LogicalOr)
	w.Write(" ? ")
	writeOperand(w, t.Then, render.Ternary.Next())
	w.Write(" : ")
	writeOperand(w, t.Else, render.Ternary)
}
