package operation

import (
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Literal is a constant pushed by an instruction. Int literals keep a provisional type until
// the consumer narrows them (i.e., to boolean or char).
type Literal struct {
	Const constant.Constant

	typ types.Type
}

// NewLiteral wraps a constant
func NewLiteral(c constant.Constant) *Literal {
	return &Literal{Const: c, typ: c.Type()}
}

func (l *Literal) Type() types.Type      { return l.typ }
func (l *Literal) Children() []Operation { return nil }

func (l *Literal) Priority() render.Priority {
	switch v := l.Const.(type) {
	case *constant.Int:
		if v.Value < 0 {
			return render.Unary
		}
	case *constant.Long:
		if v.Value < 0 {
			return render.Unary
		}
	case *constant.Float:
		if v.Value < 0 {
			return render.Unary
		}
	case *constant.Double:
		if v.Value < 0 {
			return render.Unary
		}
	}
	return render.Primary
}

func (l *Literal) narrow(t types.Type) {
	if _, ok := l.Const.(*constant.Int); !ok {
		return
	}
	if p, ok := t.(types.Primitive); ok {
		l.typ = p
	}
}

func (l *Literal) Write(w *render.Writer) {
	l.Const.Write(w, l.typ)
}

// intValue returns the value of an int literal
func intValue(op Operation) (int32, bool) {
	l, ok := op.(*Literal)
	if !ok {
		return 0, false
	}
	c, ok := l.Const.(*constant.Int)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// isMinusOne reports whether op is the int or long literal -1
func isMinusOne(op Operation) bool {
	l, ok := op.(*Literal)
	if !ok {
		return false
	}
	switch c := l.Const.(type) {
	case *constant.Int:
		return c.Value == -1
	case *constant.Long:
		return c.Value == -1
	}
	return false
}

// Null is the null literal
type Null struct{}

func (Null) Type() types.Type          { return types.Null }
func (Null) Priority() render.Priority { return render.Primary }
func (Null) Children() []Operation     { return nil }
func (Null) Write(w *render.Writer)    { w.Write("null") }

// defaultValue returns the literal an array element of type t is initialized with
func defaultValue(t types.Type) Operation {
	p, ok := t.(types.Primitive)
	if !ok {
		return Null{}
	}
	var lit *Literal
	switch p.Resolved() {
	case types.Long:
		lit = NewLiteral(constant.LongOf(0))
	case types.Float:
		lit = NewLiteral(constant.FloatOf(0))
	case types.Double:
		lit = NewLiteral(constant.DoubleOf(0))
	default:
		lit = NewLiteral(constant.IntOf(0))
	}
	lit.narrow(p)
	return lit
}
