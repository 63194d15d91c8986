package operation

import (
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Condition is a boolean operation that can be negated structurally
type Condition interface {
	Operation
	// Negate returns the condition with the opposite truth value
	Negate() Condition
}

// negatedOps maps comparison operators to their negation
var negatedOps = map[string]string{
	"==": "!=", "!=": "==",
	"<": ">=", ">=": "<",
	">": "<=", "<=": ">",
}

// Compare is a comparison of two values
type Compare struct {
	Op          string
	Left, Right Operation
}

func (c *Compare) Type() types.Type      { return types.Boolean }
func (c *Compare) Children() []Operation { return []Operation{c.Left, c.Right} }
func (c *Compare) Negate() Condition     { return &Compare{Op: negatedOps[c.Op], Left: c.Left, Right: c.Right} }

func (c *Compare) Priority() render.Priority {
	if c.Op == "==" || c.Op == "!=" {
		return render.Equality
	}
	return render.Relational
}

func (c *Compare) Write(w *render.Writer) {
	p := c.Priority()
	left, right := c.Left, c.Right
	if !isWidening(right) {
		left = unwrapPromotion(left, right.Type())
	}
	if !isWidening(c.Left) {
		right = unwrapPromotion(right, c.Left.Type())
	}
	writeOperand(w, left, p)
	w.Write(" ", c.Op, " ")
	writeOperand(w, right, p.Next())
}

// BoolTest tests a boolean value: `x` or `!x`
type BoolTest struct {
	Value   Operation
	Negated bool
}

func (b *BoolTest) Type() types.Type      { return types.Boolean }
func (b *BoolTest) Children() []Operation { return []Operation{b.Value} }
func (b *BoolTest) Negate() Condition     { return &BoolTest{Value: b.Value, Negated: !b.Negated} }

func (b *BoolTest) Priority() render.Priority {
	if b.Negated {
		return render.Unary
	}
	return b.Value.Priority()
}

func (b *BoolTest) narrow(t types.Type) {
	narrowOp(b.Value, types.Boolean)
}

func (b *BoolTest) Write(w *render.Writer) {
	if !b.Negated {
		b.Value.Write(w)
		return
	}
	w.Write("!")
	writeOperand(w, b.Value, render.Unary)
}

// And is a short-circuit conjunction
type And struct {
	Left, Right Condition
}

func (a *And) Type() types.Type          { return types.Boolean }
func (a *And) Priority() render.Priority { return render.LogicalAnd }
func (a *And) Children() []Operation     { return []Operation{a.Left, a.Right} }
func (a *And) Negate() Condition         { return &Or{Left: a.Left.Negate(), Right: a.Right.Negate()} }

func (a *And) Write(w *render.Writer) {
	writeOperand(w, a.Left, render.LogicalAnd)
	w.Write(" && ")
	writeOperand(w, a.Right, render.LogicalAnd.Next())
}

// Or is a short-circuit disjunction
type Or struct {
	Left, Right Condition
}

func (o *Or) Type() types.Type          { return types.Boolean }
func (o *Or) Priority() render.Priority { return render.LogicalOr }
func (o *Or) Children() []Operation     { return []Operation{o.Left, o.Right} }
func (o *Or) Negate() Condition         { return &And{Left: o.Left.Negate(), Right: o.Right.Negate()} }

func (o *Or) Write(w *render.Writer) {
	writeOperand(w, o.Left, render.LogicalOr)
	w.Write(" || ")
	writeOperand(w, o.Right, render.LogicalOr.Next())
}

// asCondition turns a boolean typed value into a condition
func asCondition(op Operation) Condition {
	if c, ok := op.(Condition); ok {
		return c
	}
	return &BoolTest{Value: op}
}

// isBoolean reports whether op is known to be a boolean
func isBoolean(op Operation) bool {
	if _, ok := op.(Condition); ok {
		return true
	}
	p, ok := op.Type().(types.Primitive)
	return ok && p == types.Boolean
}

// zeroCompare builds the condition of ifeq, ifne, iflt, ifge, ifgt and ifle, under which the
// jump is taken
func zeroCompare(op string, value Operation) Condition {
	if cmp, ok := value.(*CompareResult); ok {
		return &Compare{Op: op, Left: cmp.Left, Right: cmp.Right}
	}
	if (op == "==" || op == "!=") && isBoolean(value) {
		c := asCondition(value)
		if op == "==" {
			return c.Negate()
		}
		return c
	}
	zero := NewLiteral(constant.IntOf(0))
	zero.narrow(types.Int)
	return &Compare{Op: op, Left: value, Right: zero}
}
