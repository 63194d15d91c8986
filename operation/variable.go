package operation

import (
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Variable is a local slot binding
type Variable struct {
	Slot  int    // Slot is the local variable index
	Name  string // Name is assigned by the naming pass
	This  bool   // This tells whether the variable is the this reference
	Param bool   // Param tells whether the variable is a method parameter
	// Hidden variables (synchronized lock copies, finally rethrow slots) are never rendered
	Hidden bool

	typ       types.Type
	tableName string
	declared  bool
}

// Type returns the variable type, resolved when still provisional
func (v *Variable) Type() types.Type {
	return v.typ
}

func (v *Variable) narrow(t types.Type) {
	if _, ok := t.(types.Primitive); ok {
		v.typ = t
		return
	}
	if types.IsUnknownReference(v.typ) {
		v.typ = t
	}
}

// assign records a value of type t flowing into the variable
func (v *Variable) assign(value Operation) error {
	t, err := types.Narrow(value.Type(), v.typ)
	if err != nil {
		return err
	}
	narrowOp(value, t)
	if types.IsReference(v.typ) {
		v.typ = types.Merge(v.typ, value.Type())
	} else {
		v.typ = t
	}
	return nil
}

// Load reads a local variable
type Load struct {
	Var *Variable
}

func (l *Load) Type() types.Type          { return l.Var.typ }
func (l *Load) Priority() render.Priority { return render.Primary }
func (l *Load) Children() []Operation     { return nil }
func (l *Load) narrow(t types.Type)       { l.Var.narrow(t) }
func (l *Load) Write(w *render.Writer)    { w.Write(l.Var.Name) }
func (l *Load) isThis() bool              { return l.Var.This }

// isThis reports whether op reads the this reference
func isThis(op Operation) bool {
	l, ok := op.(*Load)
	return ok && l.isThis()
}

// Store assigns a value to a local variable. As a statement it may also declare the variable;
// as an expression (its value kept on the stack) it renders as an assignment.
type Store struct {
	Var     *Variable
	Value   Operation
	Declare bool // Declare is set by the declaration pass

	expression bool
}

func (s *Store) Type() types.Type {
	if s.expression {
		return s.Var.typ
	}
	return types.Void
}

func (s *Store) Priority() render.Priority { return render.Assignment }
func (s *Store) Children() []Operation     { return []Operation{s.Value} }
func (s *Store) hasSideEffect() bool       { return true }

func (s *Store) narrow(t types.Type) {
	if s.expression {
		s.Var.narrow(t)
		narrowOp(s.Value, t)
	}
}

func (s *Store) writeTarget(w *render.Writer) { w.Write(s.Var.Name) }
func (s *Store) assigned() Operation          { return s.Value }
func (s *Store) setExpression()               { s.expression = true }

func (s *Store) sameTarget(op Operation) bool {
	l, ok := op.(*Load)
	return ok && l.Var == s.Var
}

func (s *Store) Write(w *render.Writer) {
	if s.Declare {
		w.WriteType(s.Var.typ)
		w.Write(" ", s.Var.Name, " = ")
		writeOperand(w, unwrapWidening(s.Value), render.Assignment)
		return
	}
	writeAssignment(w, s, s.expression)
}

// compoundOf recognizes `x = x op y` where same identifies x
func compoundOf(value Operation, same func(Operation) bool) (string, Operation, bool) {
	value = unwrapNarrowing(value)
	b, ok := value.(*Binary)
	if !ok || !same(b.Left) {
		return "", nil, false
	}
	return b.Op, b.Right, true
}

// writeCompound renders ` op= operand` after the target, using ++ and -- for a unit step
func writeCompound(w *render.Writer, op string, operand Operation, expression bool) {
	if lit, ok := operand.(*Literal); ok && (op == "+" || op == "-") && !expression {
		if isUnit(lit.Const) {
			w.Write(op, op)
			return
		}
	}
	w.Write(" ", op, "= ")
	writeOperand(w, operand, render.Assignment)
}

func isUnit(c constant.Constant) bool {
	switch v := c.(type) {
	case *constant.Int:
		return v.Value == 1
	case *constant.Long:
		return v.Value == 1
	}
	return false
}

// Increment is iinc: a statement (i++, i += n) or, combined with an adjacent load, a
// prefix or postfix expression
type Increment struct {
	Var   *Variable
	Delta int32

	postfix bool // postfix renders i++ as an expression evaluated before the increment
	prefix  bool // prefix renders ++i as an expression evaluated after the increment
}

func (i *Increment) Type() types.Type {
	if i.postfix || i.prefix {
		return i.Var.typ
	}
	return types.Void
}

func (i *Increment) Priority() render.Priority {
	switch {
	case i.Delta != 1 && i.Delta != -1:
		return render.Assignment
	case i.postfix:
		return render.Postfix
	case i.prefix:
		return render.Unary
	}
	return render.Assignment
}

func (i *Increment) Children() []Operation { return nil }
func (i *Increment) hasSideEffect() bool   { return true }

func (i *Increment) Write(w *render.Writer) {
	unit := i.Delta == 1 || i.Delta == -1
	op := "+"
	delta := i.Delta
	if delta < 0 {
		op, delta = "-", -delta
	}
	switch {
	case unit && i.prefix:
		w.Write(op, op, i.Var.Name)
	case unit:
		w.Write(i.Var.Name, op, op)
	default:
		w.Writef("%s %s= %d", i.Var.Name, op, delta)
	}
}

// Declaration declares a variable without initializing it
type Declaration struct {
	Var *Variable
}

func (d *Declaration) Type() types.Type          { return types.Void }
func (d *Declaration) Priority() render.Priority { return render.Lowest }
func (d *Declaration) Children() []Operation     { return nil }

func (d *Declaration) Write(w *render.Writer) {
	w.WriteType(d.Var.typ)
	w.Write(" ", d.Var.Name)
}
