package operation

import (
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// ArrayLoad reads an array element
type ArrayLoad struct {
	Array, Index Operation

	typ types.Type
}

func (a *ArrayLoad) Type() types.Type          { return a.typ }
func (a *ArrayLoad) Priority() render.Priority { return render.Primary }
func (a *ArrayLoad) Children() []Operation     { return []Operation{a.Array, a.Index} }

func (a *ArrayLoad) narrow(t types.Type) {
	if n, err := types.Narrow(a.typ, t); err == nil {
		a.typ = n
	}
}

func (a *ArrayLoad) Write(w *render.Writer) {
	writeOperand(w, a.Array, render.Primary)
	w.Write("[")
	a.Index.Write(w)
	w.Write("]")
}

// elemType returns the element type of an array operand, or def when it is unknown
func elemType(array Operation, def types.Type) types.Type {
	if arr, ok := array.Type().(*types.Array); ok {
		if n, err := types.Narrow(arr.Elem(), def); err == nil {
			return n
		}
	}
	return def
}

// ArrayStore assigns an array element
type ArrayStore struct {
	Array, Index, Value Operation

	expression bool
}

func (a *ArrayStore) Priority() render.Priority { return render.Assignment }
func (a *ArrayStore) Children() []Operation     { return []Operation{a.Array, a.Index, a.Value} }
func (a *ArrayStore) hasSideEffect() bool       { return true }
func (a *ArrayStore) assigned() Operation       { return a.Value }
func (a *ArrayStore) setExpression()            { a.expression = true }
func (a *ArrayStore) Write(w *render.Writer)    { writeAssignment(w, a, a.expression) }

func (a *ArrayStore) Type() types.Type {
	if a.expression {
		return a.Value.Type()
	}
	return types.Void
}

func (a *ArrayStore) writeTarget(w *render.Writer) {
	writeOperand(w, a.Array, render.Primary)
	w.Write("[")
	a.Index.Write(w)
	w.Write("]")
}

func (a *ArrayStore) sameTarget(op Operation) bool {
	l, ok := op.(*ArrayLoad)
	return ok && l.Array == a.Array && l.Index == a.Index
}

// ArrayLength is `a.length`
type ArrayLength struct {
	Array Operation
}

func (a *ArrayLength) Type() types.Type          { return types.Int }
func (a *ArrayLength) Priority() render.Priority { return render.Primary }
func (a *ArrayLength) Children() []Operation     { return []Operation{a.Array} }

func (a *ArrayLength) Write(w *render.Writer) {
	writeOperand(w, a.Array, render.Primary)
	w.Write(".length")
}

// NewArray creates an array with the given dimension lengths. A one-dimensional array filled
// element by element right after its creation renders with an initializer.
type NewArray struct {
	Of   *types.Array
	Dims []Operation
	Init []Operation
}

func (n *NewArray) Type() types.Type          { return n.Of }
func (n *NewArray) Priority() render.Priority { return render.Primary }

func (n *NewArray) Children() []Operation {
	res := append([]Operation{}, n.Dims...)
	return append(res, n.Init...)
}

// length returns the constant length of a one-dimensional array
func (n *NewArray) length() (int32, bool) {
	if len(n.Dims) != 1 {
		return 0, false
	}
	return intValue(n.Dims[0])
}

// initialize records `array[index] = value` executed right after the creation. It reports false
// when the store is not the next element of the initializer.
func (n *NewArray) initialize(index, value Operation) bool {
	length, ok := n.length()
	if !ok {
		return false
	}
	i, ok := intValue(index)
	if !ok || i < int32(len(n.Init)) || i >= length {
		return false
	}
	for int32(len(n.Init)) < i {
		n.Init = append(n.Init, defaultValue(n.Of.Elem()))
	}
	narrowOp(value, n.Of.Elem())
	n.Init = append(n.Init, value)
	return true
}

func (n *NewArray) Write(w *render.Writer) {
	w.Write("new ")
	if len(n.Init) > 0 {
		w.WriteType(n.Of)
		w.Write("{")
		length, _ := n.length()
		for i := int32(0); i < length; i++ {
			if i > 0 {
				w.Write(", ")
			}
			if i < int32(len(n.Init)) {
				writeOperand(w, unwrapWidening(n.Init[i]), render.Assignment)
			} else {
				defaultValue(n.Of.Elem()).Write(w)
			}
		}
		w.Write("}")
		return
	}
	base := n.Of.Base()
	w.WriteType(base)
	for _, d := range n.Dims {
		w.Write("[")
		d.Write(w)
		w.Write("]")
	}
	for i := len(n.Dims); i < n.Of.Dimensions(); i++ {
		w.Write("[]")
	}
}
