// Package operation is the decompilation engine: a per-method operand stack interpreter that
// turns instructions into a tree of typed operations, and the scope reconstruction that turns
// jumps back into nested blocks (if/else, loops, switch, try/catch/finally, synchronized).
//
// Every node is built against an explicit per-method Context; nothing is shared between
// methods except the read-only interning tables of the constant and types packages.
package operation

import (
	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Operation is a node of the reconstructed expression/statement tree
type Operation interface {
	// Type returns the result type, possibly still provisional; void for statements
	Type() types.Type
	// Priority returns the binding strength of the rendered expression
	Priority() render.Priority
	// Write renders the operation as an expression
	Write(w *render.Writer)
	// Children returns the operations consumed by this one, in evaluation order
	Children() []Operation
}

// narrower is implemented by operations whose type is refined by the context consuming them
type narrower interface {
	narrow(t types.Type)
}

// statement is implemented by operations rendering as complete lines (blocks, control flow)
type statement interface {
	writeStatement(w *render.Writer)
}

// sideEffect is implemented by expressions that must be kept as a statement when discarded
type sideEffect interface {
	hasSideEffect() bool
}

// Pool resolves constant pool entries referenced by instructions
type Pool interface {
	Literal(i int) (interface{}, error)
	ClassName(i int) (string, error)
	Member(i int) (classfile.MemberRef, error)
	Dynamic(i int) (classfile.DynamicRef, error)
}

// SwitchMaps resolves the enum constant names of ordinal based switches
type SwitchMaps interface {
	// Lookup returns the case value to enum constant mapping stored in the synthetic
	// $SwitchMap$ array field of owner
	Lookup(owner, field string) (map[int32]string, bool)
	// EnumConstants returns the enum constant names of enum in ordinal order
	EnumConstants(enum string) ([]string, bool)
}

// ClassInfo is the class level information nodes need while being built
type ClassInfo struct {
	Type                *types.Class         // Type is the decompiled class
	Super               *types.Class         // Super is the super class, nil for java.lang.Object
	Interfaces          []*types.Class       // Interfaces are the implemented interfaces
	Context             *render.ClassContext // Context resolves type names and imports
	Pool                Pool                 // Pool resolves the constant pool of the class
	Bootstrap           []classfile.BootstrapMethod
	SwitchMaps          SwitchMaps // SwitchMaps is optional
	IsEnum              bool
	IgnoreVariableTable bool // IgnoreVariableTable synthesizes names even when a debug table exists
}

func (c *ClassInfo) isInterface(t *types.Class) bool {
	for _, i := range c.Interfaces {
		if i == t {
			return true
		}
	}
	return false
}

// writeOperand renders op, parenthesized when it binds looser than required
func writeOperand(w *render.Writer, op Operation, required render.Priority) {
	// a primitive cannot be a receiver, so boxing stays explicit there
	if b, ok := op.(*Boxed); ok && required == render.Primary {
		b.writeExplicit(w)
		return
	}
	if render.NeedsParens(op.Priority(), required) {
		w.Write("(")
		op.Write(w)
		w.Write(")")
		return
	}
	op.Write(w)
}

// writeArgs renders a parenthesized argument list
func writeArgs(w *render.Writer, args []Operation) {
	w.Write("(")
	for i, arg := range args {
		if i > 0 {
			w.Write(", ")
		}
		writeOperand(w, unwrapWidening(arg), render.Assignment)
	}
	w.Write(")")
}

// narrowOp refines the type of op when it supports it
func narrowOp(op Operation, t types.Type) {
	if n, ok := op.(narrower); ok {
		n.narrow(t)
	}
}

// isStatementWorthy reports whether a discarded value must still be rendered
func isStatementWorthy(op Operation) bool {
	if s, ok := op.(sideEffect); ok {
		return s.hasSideEffect()
	}
	return false
}

// Walk calls fn for op and every operation below it, depth first. Returning false skips the
// children of the visited operation.
func Walk(op Operation, fn func(Operation) bool) {
	if op == nil || !fn(op) {
		return
	}
	for _, c := range op.Children() {
		Walk(c, fn)
	}
}

// String renders op without a class context, mostly for messages and tests
func String(op Operation) string {
	w := render.NewWriter(nil, "")
	op.Write(w)
	return w.String()
}
