package operation

import (
	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/types"
)

// Context is the per-method build state: the simulated operand stack, the local slot
// bindings and the method identity. It is passed explicitly to every node constructor and is
// confined to a single goroutine.
type Context struct {
	Class  *ClassInfo         // Class is the enclosing class
	Pool   Pool               // Pool resolves constant pool references
	Method *descriptor.Method // Method is the method being decompiled
	Static bool               // Static tells whether the method has no this

	stack     []Operation
	locals    map[int]*Variable
	vars      []*Variable
	params    []*Variable
	code      *classfile.Code
	tableVars map[int]*Variable // tableVars maps debug table entries to their variable
	pc        int               // pc is the offset of the instruction being interpreted
	next      int               // next is the offset of the following instruction
}

// NewContext creates the build context of a method and binds its parameters
func NewContext(class *ClassInfo, pool Pool, method *descriptor.Method, static bool, code *classfile.Code) *Context {
	ctx := &Context{
		Class:     class,
		Pool:      pool,
		Method:    method,
		Static:    static,
		locals:    map[int]*Variable{},
		code:      code,
		tableVars: map[int]*Variable{},
	}
	slot := 0
	if !static {
		this := &Variable{Slot: 0, typ: class.Type, Name: "this", This: true, Param: true}
		ctx.bind(this)
		slot = 1
	}
	for _, arg := range method.Args {
		v := &Variable{Slot: slot, typ: arg, Param: true}
		if t := ctx.tableType(slot, 0); t != nil {
			v.typ = t
		}
		ctx.bind(v)
		ctx.bindEntry(v)
		ctx.params = append(ctx.params, v)
		slot += arg.Size()
	}
	return ctx
}

// Push pushes an operation on the simulated stack
func (c *Context) Push(op Operation) {
	c.stack = append(c.stack, op)
}

// Depth returns the number of stack entries
func (c *Context) Depth() int {
	return len(c.stack)
}

// Peek returns the top of the stack without popping it, nil if empty
func (c *Context) Peek() Operation {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Pop pops the top of the stack
func (c *Context) Pop() (Operation, error) {
	if len(c.stack) == 0 {
		return nil, failure.New(failure.KindStackUnderflow, "pop from empty stack at %d", c.pc)
	}
	op := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return op, nil
}

// PopAs pops the top of the stack as a value of the required type. The popped operation is
// narrowed to the type it takes in this context.
func (c *Context) PopAs(required types.Type) (Operation, error) {
	op, err := c.Pop()
	if err != nil {
		return nil, err
	}
	t, err := types.Narrow(op.Type(), required)
	if err != nil {
		return nil, failure.Wrap(failure.KindOf(err), err, "at %d", c.pc)
	}
	narrowOp(op, t)
	return op, nil
}

// popArgs pops method arguments, the last argument being on top of the stack
func (c *Context) popArgs(args []types.Type) ([]Operation, error) {
	res := make([]Operation, len(args))
	for i := len(args) - 1; i >= 0; i-- {
		op, err := c.PopAs(args[i])
		if err != nil {
			return nil, err
		}
		res[i] = op
	}
	return res, nil
}

// popWords pops stack entries covering n words (long and double values take two)
func (c *Context) popWords(n int) ([]Operation, error) {
	var res []Operation
	for n > 0 {
		op, err := c.Pop()
		if err != nil {
			return nil, err
		}
		size := op.Type().Size()
		if size > n {
			return nil, failure.New(failure.KindTypeSizeMismatch, "cannot split %s at %d", op.Type(), c.pc)
		}
		n -= size
		res = append([]Operation{op}, res...)
	}
	return res, nil
}

func (c *Context) bind(v *Variable) {
	c.locals[v.Slot] = v
	if v.typ.Size() == 2 {
		delete(c.locals, v.Slot+1)
	}
	// a double width value in the previous slot is overwritten
	if prev, ok := c.locals[v.Slot-1]; ok && prev.typ.Size() == 2 {
		delete(c.locals, v.Slot-1)
	}
	c.vars = append(c.vars, v)
}

// bindEntry ties a parameter to its debug table entry so stores into the slot reuse it
func (c *Context) bindEntry(v *Variable) {
	if entry := c.tableEntry(v.Slot, 0); entry >= 0 {
		c.tableVars[entry] = v
	}
}

// tableEntry returns the index of the debug table entry of slot visible at pc, -1 if none
func (c *Context) tableEntry(slot, pc int) int {
	if c.code == nil || c.Class.IgnoreVariableTable {
		return -1
	}
	for i, v := range c.code.LocalVariables {
		if v.Slot == slot && pc >= v.StartPC && pc < v.StartPC+v.Length {
			return i
		}
	}
	return -1
}

// tableType returns the declared type of the debug table entry of slot at pc
func (c *Context) tableType(slot, pc int) types.Type {
	i := c.tableEntry(slot, pc)
	if i < 0 {
		return nil
	}
	t, err := types.Parse(c.code.LocalVariables[i].Descriptor)
	if err != nil {
		return nil
	}
	return t
}

// load returns the variable bound to slot
func (c *Context) load(slot int, required types.Type) (*Variable, error) {
	v, ok := c.locals[slot]
	if !ok {
		return nil, failure.New(failure.KindNoSuchVariable, "no variable in slot %d at %d", slot, c.pc)
	}
	if v.typ.Size() != required.Size() {
		return nil, failure.New(failure.KindTypeSizeMismatch, "slot %d holds %s, loaded as %s at %d", slot, v.typ, required, c.pc)
	}
	return v, nil
}

// store returns the variable a value of type t stored in slot is bound to, creating a new one
// when the slot is free, holds an incompatible value or the debug table starts a new entry
func (c *Context) store(slot int, t types.Type) *Variable {
	// the variable becomes visible after the store instruction
	entry := c.tableEntry(slot, c.next)
	if entry >= 0 {
		if v, ok := c.tableVars[entry]; ok {
			c.locals[slot] = v
			return v
		}
	}
	if v, ok := c.locals[slot]; ok && entry < 0 && compatible(v.typ, t) && !v.This {
		return v
	}
	v := &Variable{Slot: slot, typ: t}
	if entry >= 0 {
		if tt := c.tableType(slot, c.next); tt != nil && tt.Size() == t.Size() {
			v.typ = tt
		}
		v.tableName = c.code.LocalVariables[entry].Name
		c.tableVars[entry] = v
	}
	c.bind(v)
	return v
}

// compatible reports whether a slot holding a value of type a may be reused for a value of type b
func compatible(a, b types.Type) bool {
	if a.Size() != b.Size() {
		return false
	}
	if types.IsReference(a) != types.IsReference(b) {
		return false
	}
	return types.IsAssignable(b, a) || types.IsAssignable(a, b)
}

// Variables returns every variable of the method, parameters included
func (c *Context) Variables() []*Variable {
	return c.vars
}

// Params returns the parameter variables, this excluded
func (c *Context) Params() []*Variable {
	return c.params
}
