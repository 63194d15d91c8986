package operation

import (
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// InvokeKind is the invocation instruction of a call
type InvokeKind int

const (
	InvokeVirtual InvokeKind = iota
	InvokeInterface
	InvokeStatic
	InvokeSpecial
)

// CallKind classifies how a call renders
type CallKind int

const (
	CallOrdinary     CallKind = iota // CallOrdinary is obj.m(args), Owner.m(args) or m(args)
	CallThis                         // CallThis is a this(args) constructor delegation
	CallSuper                        // CallSuper is a super(args) constructor delegation
	CallSuperDefault                 // CallSuperDefault is Iface.super.m(args)
	CallSuperMethod                  // CallSuperMethod is super.m(args)
)

var callKindNames = map[CallKind]string{
	CallOrdinary:     "ordinary",
	CallThis:         "this",
	CallSuper:        "super",
	CallSuperDefault: "super-default",
	CallSuperMethod:  "super-method",
}

func (k CallKind) String() string {
	return callKindNames[k]
}

// Invoke is a method call
type Invoke struct {
	Kind   InvokeKind
	Call   CallKind
	Object Operation // Object is the receiver, nil for static calls
	Method *descriptor.Method
	Args   []Operation
}

// classifyCall decides how an invokespecial renders
func classifyCall(class *ClassInfo, object Operation, method *descriptor.Method) CallKind {
	if !isThis(object) {
		return CallOrdinary
	}
	if method.IsConstructor() {
		if method.Owner == class.Type {
			return CallThis
		}
		return CallSuper
	}
	switch {
	case method.Owner == class.Type:
		return CallOrdinary
	case class.isInterface(method.Owner):
		return CallSuperDefault
	}
	return CallSuperMethod
}

func (i *Invoke) Type() types.Type          { return i.Method.Return }
func (i *Invoke) Priority() render.Priority { return render.Primary }
func (i *Invoke) hasSideEffect() bool       { return true }

func (i *Invoke) Children() []Operation {
	if i.Object == nil {
		return i.Args
	}
	return append([]Operation{i.Object}, i.Args...)
}

func (i *Invoke) Write(w *render.Writer) {
	switch i.Call {
	case CallThis:
		w.Write("this")
	case CallSuper:
		w.Write("super")
	case CallSuperDefault:
		w.WriteType(i.Method.Owner)
		w.Write(".super.", i.Method.Name)
	case CallSuperMethod:
		w.Write("super.", i.Method.Name)
	default:
		switch {
		case i.Object == nil:
			writeStaticOwner(w, i.Method.Owner)
		case isThis(i.Object):
		default:
			writeOperand(w, i.Object, render.Primary)
			w.Write(".")
		}
		w.Write(i.Method.Name)
	}
	writeArgs(w, i.Args)
}

// NewObject is an object creation. It is pushed uninitialized by new and completed by the
// constructor call.
type NewObject struct {
	Class *types.Class
	Ctor  *descriptor.Method
	Args  []Operation

	initialized bool
}

func (n *NewObject) Type() types.Type          { return n.Class }
func (n *NewObject) Priority() render.Priority { return render.Primary }
func (n *NewObject) Children() []Operation     { return n.Args }
func (n *NewObject) hasSideEffect() bool       { return true }

func (n *NewObject) Write(w *render.Writer) {
	w.Write("new ")
	w.WriteType(n.Class)
	writeArgs(w, n.Args)
}

// MethodRef is a method reference created by a LambdaMetafactory call site
type MethodRef struct {
	Receiver Operation // Receiver is the bound receiver, nil for unbound and static references
	Owner    types.Type
	Name     string // Name is the method name, "new" for constructor references

	typ types.Type
}

func (m *MethodRef) Type() types.Type          { return m.typ }
func (m *MethodRef) Priority() render.Priority { return render.Primary }

func (m *MethodRef) Children() []Operation {
	if m.Receiver == nil {
		return nil
	}
	return []Operation{m.Receiver}
}

func (m *MethodRef) Write(w *render.Writer) {
	if m.Receiver != nil {
		writeOperand(w, m.Receiver, render.Primary)
	} else {
		w.WriteType(m.Owner)
	}
	w.Write("::", m.Name)
}

// DynamicCall is an invokedynamic call site without a source level form
type DynamicCall struct {
	Name string
	Args []Operation

	typ types.Type
}

func (d *DynamicCall) Type() types.Type          { return d.typ }
func (d *DynamicCall) Priority() render.Priority { return render.Primary }
func (d *DynamicCall) Children() []Operation     { return d.Args }
func (d *DynamicCall) hasSideEffect() bool       { return true }

func (d *DynamicCall) Write(w *render.Writer) {
	w.Write(d.Name)
	writeArgs(w, d.Args)
}
