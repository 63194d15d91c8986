package operation

import (
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// assignment is implemented by the operations storing a value into a location
type assignment interface {
	Operation
	// writeTarget renders the assigned location
	writeTarget(w *render.Writer)
	// sameTarget reports whether op reads the assigned location
	sameTarget(op Operation) bool
	assigned() Operation
	setExpression()
}

// writeAssignment renders `target = value`, or the compound form when value reads the target
func writeAssignment(w *render.Writer, a assignment, expression bool) {
	if op, operand, ok := compoundOf(a.assigned(), a.sameTarget); ok {
		a.writeTarget(w)
		writeCompound(w, op, operand, expression)
		return
	}
	a.writeTarget(w)
	w.Write(" = ")
	writeOperand(w, unwrapWidening(a.assigned()), render.Assignment)
}

// isSelf reports whether cls is the class being rendered
func isSelf(w *render.Writer, cls *types.Class) bool {
	return w.Class != nil && w.Class.Self() == cls
}

// writeStaticOwner renders the qualifier of a static member, nothing for the rendered class
func writeStaticOwner(w *render.Writer, owner *types.Class) {
	if !isSelf(w, owner) {
		w.WriteType(owner)
		w.Write(".")
	}
}

// writeFieldTarget renders an instance or static field access
func writeFieldTarget(w *render.Writer, object Operation, field *descriptor.Field) {
	switch {
	case object == nil:
		writeStaticOwner(w, field.Owner)
	case isThis(object):
		w.Write("this.")
	default:
		writeOperand(w, object, render.Primary)
		w.Write(".")
	}
	w.Write(field.Name)
}

// GetField reads an instance field, or a static one when Object is nil
type GetField struct {
	Object Operation
	Field  *descriptor.Field
}

func (g *GetField) Type() types.Type          { return g.Field.Type }
func (g *GetField) Priority() render.Priority { return render.Primary }
func (g *GetField) Write(w *render.Writer)    { writeFieldTarget(w, g.Object, g.Field) }

func (g *GetField) Children() []Operation {
	if g.Object == nil {
		return nil
	}
	return []Operation{g.Object}
}

// PutField assigns an instance field, or a static one when Object is nil
type PutField struct {
	Object Operation
	Field  *descriptor.Field
	Value  Operation

	expression bool
}

func (p *PutField) Priority() render.Priority    { return render.Assignment }
func (p *PutField) hasSideEffect() bool          { return true }
func (p *PutField) writeTarget(w *render.Writer) { writeFieldTarget(w, p.Object, p.Field) }
func (p *PutField) assigned() Operation          { return p.Value }
func (p *PutField) setExpression()               { p.expression = true }
func (p *PutField) Write(w *render.Writer)       { writeAssignment(w, p, p.expression) }

func (p *PutField) Type() types.Type {
	if p.expression {
		return p.Field.Type
	}
	return types.Void
}

func (p *PutField) Children() []Operation {
	if p.Object == nil {
		return []Operation{p.Value}
	}
	return []Operation{p.Object, p.Value}
}

func (p *PutField) sameTarget(op Operation) bool {
	g, ok := op.(*GetField)
	return ok && g.Object == p.Object && g.Field.Name == p.Field.Name && g.Field.Owner == p.Field.Owner
}

// PostIncrement is `x++` or `x--` evaluated for the value before the update
type PostIncrement struct {
	Target assignment
	Op     string
}

func (p *PostIncrement) Type() types.Type          { return p.Target.assigned().Type() }
func (p *PostIncrement) Priority() render.Priority { return render.Postfix }
func (p *PostIncrement) Children() []Operation     { return p.Target.Children() }
func (p *PostIncrement) hasSideEffect() bool       { return true }

func (p *PostIncrement) Write(w *render.Writer) {
	p.Target.writeTarget(w)
	w.Write(p.Op, p.Op)
}
