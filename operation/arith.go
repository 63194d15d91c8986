package operation

import (
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// binaryPriorities maps the binary operators to their priority
var binaryPriorities = map[string]render.Priority{
	"*": render.Multiplicative, "/": render.Multiplicative, "%": render.Multiplicative,
	"+": render.Additive, "-": render.Additive,
	"<<": render.Shift, ">>": render.Shift, ">>>": render.Shift,
	"&": render.BitAnd, "^": render.BitXor, "|": render.BitOr,
}

// Binary is an arithmetic, shift or bitwise operation
type Binary struct {
	Op          string
	Left, Right Operation

	typ types.Type
}

// isBitwise reports whether the operator also applies to booleans
func isBitwise(op string) bool {
	return op == "&" || op == "|" || op == "^"
}

// newBinary builds a binary operation over operands already popped as the operand type t.
// Bitwise operators keep the common kinds of their operands, so boolean operands stay boolean.
func newBinary(op string, left, right Operation, t types.Type) *Binary {
	b := &Binary{Op: op, Left: left, Right: right, typ: t}
	if isBitwise(op) {
		if common, err := types.Narrow(left.Type(), right.Type()); err == nil {
			b.typ = common
			narrowOp(left, common)
			narrowOp(right, common)
		}
	}
	return b
}

func (b *Binary) Type() types.Type          { return b.typ }
func (b *Binary) Priority() render.Priority { return binaryPriorities[b.Op] }
func (b *Binary) Children() []Operation     { return []Operation{b.Left, b.Right} }

func (b *Binary) narrow(t types.Type) {
	if !isBitwise(b.Op) {
		return
	}
	if common, err := types.Narrow(b.typ, t); err == nil {
		b.typ = common
		narrowOp(b.Left, common)
		narrowOp(b.Right, common)
	}
}

func (b *Binary) Write(w *render.Writer) {
	p := b.Priority()
	left, right := b.Left, b.Right
	// binary numeric promotion makes a widening of one operand implicit
	if !isWidening(b.Right) {
		left = unwrapPromotion(b.Left, b.Right.Type())
	}
	if !isWidening(b.Left) {
		right = unwrapPromotion(b.Right, b.Left.Type())
	}
	writeOperand(w, left, p)
	w.Write(" ", b.Op, " ")
	writeOperand(w, right, p.Next())
}

func isWidening(op Operation) bool {
	c, ok := op.(*PrimitiveCast)
	return ok && c.widening
}

// unwrapPromotion drops a widening cast to the type of the other operand
func unwrapPromotion(op Operation, other types.Type) Operation {
	if c, ok := op.(*PrimitiveCast); ok && c.widening && c.To == other {
		return c.Value
	}
	return op
}

// Neg is an arithmetic negation
type Neg struct {
	Value Operation
}

func (n *Neg) Type() types.Type          { return n.Value.Type() }
func (n *Neg) Priority() render.Priority { return render.Unary }
func (n *Neg) Children() []Operation     { return []Operation{n.Value} }

func (n *Neg) Write(w *render.Writer) {
	w.Write("-")
	switch v := n.Value.(type) {
	case *Neg:
		w.Write("(")
		v.Write(w)
		w.Write(")")
		return
	case *Literal:
		if v.Priority() == render.Unary {
			w.Write("(")
			v.Write(w)
			w.Write(")")
			return
		}
	case *Increment:
		if v.prefix && v.Delta < 0 {
			w.Write("(")
			v.Write(w)
			w.Write(")")
			return
		}
	}
	writeOperand(w, n.Value, render.Unary)
}

// BitNot is a bitwise complement, compiled as a xor with -1
type BitNot struct {
	Value Operation
}

func (n *BitNot) Type() types.Type          { return n.Value.Type() }
func (n *BitNot) Priority() render.Priority { return render.Unary }
func (n *BitNot) Children() []Operation     { return []Operation{n.Value} }

func (n *BitNot) Write(w *render.Writer) {
	w.Write("~")
	writeOperand(w, n.Value, render.Unary)
}

// CompareResult is the int result of lcmp, fcmpl, fcmpg, dcmpl and dcmpg. It is normally
// consumed by a conditional jump and turned into a comparison.
type CompareResult struct {
	Left, Right Operation
}

func (c *CompareResult) Type() types.Type          { return types.Int }
func (c *CompareResult) Priority() render.Priority { return render.Postfix }
func (c *CompareResult) Children() []Operation     { return []Operation{c.Left, c.Right} }

func (c *CompareResult) Write(w *render.Writer) {
	switch c.Left.Type() {
	case types.Long:
		w.Write("Long.compare")
	case types.Float:
		w.Write("Float.compare")
	default:
		w.Write("Double.compare")
	}
	writeArgs(w, []Operation{c.Left, c.Right})
}
