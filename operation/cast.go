package operation

import (
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// PrimitiveCast is a primitive conversion (i2l, d2i, i2b, ...)
type PrimitiveCast struct {
	Value Operation
	To    types.Primitive

	widening bool
}

// newPrimitiveCast builds a conversion, folding widened int literals into literals of the
// target type
func newPrimitiveCast(value Operation, to types.Primitive, widening bool) Operation {
	if v, ok := intValue(value); ok && widening {
		switch to {
		case types.Long:
			return NewLiteral(constant.LongOf(int64(v)))
		case types.Float:
			return NewLiteral(constant.FloatOf(float32(v)))
		case types.Double:
			return NewLiteral(constant.DoubleOf(float64(v)))
		}
	}
	return &PrimitiveCast{Value: value, To: to, widening: widening}
}

func (c *PrimitiveCast) Type() types.Type          { return c.To }
func (c *PrimitiveCast) Priority() render.Priority { return render.Unary }
func (c *PrimitiveCast) Children() []Operation     { return []Operation{c.Value} }

func (c *PrimitiveCast) Write(w *render.Writer) {
	w.Write("(", c.To.Keyword(), ") ")
	writeOperand(w, c.Value, render.Unary)
}

// unwrapWidening drops a widening conversion where an assignment context performs it
// implicitly
func unwrapWidening(op Operation) Operation {
	if c, ok := op.(*PrimitiveCast); ok && c.widening {
		return c.Value
	}
	return op
}

// unwrapNarrowing drops the narrowing conversion a compound assignment performs implicitly
func unwrapNarrowing(op Operation) Operation {
	if c, ok := op.(*PrimitiveCast); ok && !c.widening {
		return c.Value
	}
	return op
}

// CheckCast is a reference cast
type CheckCast struct {
	Value Operation
	To    types.Type
}

func (c *CheckCast) Type() types.Type          { return c.To }
func (c *CheckCast) Priority() render.Priority { return render.Unary }
func (c *CheckCast) Children() []Operation     { return []Operation{c.Value} }

func (c *CheckCast) Write(w *render.Writer) {
	w.Write("(")
	w.WriteType(c.To)
	w.Write(") ")
	writeOperand(w, c.Value, render.Unary)
}

// InstanceOf is a type test
type InstanceOf struct {
	Value Operation
	Of    types.Type
}

func (i *InstanceOf) Type() types.Type          { return types.Boolean }
func (i *InstanceOf) Priority() render.Priority { return render.Relational }
func (i *InstanceOf) Children() []Operation     { return []Operation{i.Value} }

func (i *InstanceOf) Write(w *render.Writer) {
	writeOperand(w, i.Value, render.Relational)
	w.Write(" instanceof ")
	w.WriteType(i.Of)
}

// boxes maps the wrapper classes to their primitive and accessor
var boxes = map[string]struct {
	prim     types.Primitive
	accessor string
}{
	"java/lang/Boolean":   {types.Boolean, "booleanValue"},
	"java/lang/Byte":      {types.Byte, "byteValue"},
	"java/lang/Short":     {types.Short, "shortValue"},
	"java/lang/Character": {types.Char, "charValue"},
	"java/lang/Integer":   {types.Int, "intValue"},
	"java/lang/Long":      {types.Long, "longValue"},
	"java/lang/Float":     {types.Float, "floatValue"},
	"java/lang/Double":    {types.Double, "doubleValue"},
}

// UnboxCast is an unboxing accessor call (Integer.intValue, ...) rendered as a cast
type UnboxCast struct {
	Value Operation
	To    types.Primitive
}

// newUnboxCast drops the redundant cast to the wrapper class a generic value is often checked
// with before unboxing
func newUnboxCast(value Operation, to types.Primitive) *UnboxCast {
	if c, ok := value.(*CheckCast); ok {
		if cls, ok := c.To.(*types.Class); ok && boxes[cls.InternalName()].prim == to {
			value = c.Value
		}
	}
	return &UnboxCast{Value: value, To: to}
}

func (u *UnboxCast) Type() types.Type          { return u.To }
func (u *UnboxCast) Priority() render.Priority { return render.Unary }
func (u *UnboxCast) Children() []Operation     { return []Operation{u.Value} }

func (u *UnboxCast) Write(w *render.Writer) {
	w.Write("(", u.To.Keyword(), ") ")
	writeOperand(w, u.Value, render.Unary)
}

// Boxed is a Box.valueOf call rendered as the boxed primitive (auto-boxing)
type Boxed struct {
	Value Operation
	Box   *types.Class
}

func (b *Boxed) Type() types.Type          { return b.Box }
func (b *Boxed) Priority() render.Priority { return b.Value.Priority() }
func (b *Boxed) Children() []Operation     { return []Operation{b.Value} }
func (b *Boxed) Write(w *render.Writer)    { b.Value.Write(w) }

// writeExplicit renders the valueOf call itself
func (b *Boxed) writeExplicit(w *render.Writer) {
	w.WriteType(b.Box)
	w.Write(".valueOf")
	writeArgs(w, []Operation{b.Value})
}
