package classfile

import (
	"fmt"
)

// ExceptionHandler is an entry of the code exception table
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7.3
type ExceptionHandler struct {
	StartPC   int    // StartPC is the first covered instruction offset
	EndPC     int    // EndPC is the exclusive end of the covered range
	HandlerPC int    // HandlerPC is the handler first instruction offset
	CatchType string // CatchType is the caught class internal name, empty for any (finally) handlers
}

// LocalVariable is an entry of the LocalVariableTable attribute
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7.13
type LocalVariable struct {
	StartPC    int    // StartPC is the offset where the variable starts being visible
	Length     int    // Length is the length of the visibility range
	Name       string // Name is the variable name
	Descriptor string // Descriptor is the variable field descriptor
	Slot       int    // Slot is the local variable index
}

// Code describes the java Code_attribute structure as defined in the jvm specs
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7.3
type Code struct {
	MaxStack       int                // MaxStack is the maximum depth of the operand stack
	MaxLocals      int                // MaxLocals is the number of local variable slots
	Bytecode       []byte             // Bytecode is the raw instruction stream
	ExceptionTable []ExceptionHandler // ExceptionTable is the list of exception handlers, in priority order
	LocalVariables []LocalVariable    // LocalVariables is the debug variable table, empty when compiled without -g
}

// newCode loads raw code data into a code structure
func (c *Class) newCode(data []byte) (*Code, error) {
	code := &Code{}
	r := newByteCodeReader(data)
	maxStack, err := r.readU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.readU16()
	if err != nil {
		return nil, err
	}
	code.MaxStack, code.MaxLocals = int(maxStack), int(maxLocals)
	codeLength, err := r.readU32()
	if err != nil {
		return nil, err
	}
	if code.Bytecode, err = r.readBytes(int(codeLength)); err != nil {
		return nil, err
	}
	exceptionTableLength, err := r.readU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(exceptionTableLength); i++ {
		var entry [4]uint16
		for j := range entry {
			if entry[j], err = r.readU16(); err != nil {
				return nil, err
			}
		}
		e := ExceptionHandler{StartPC: int(entry[0]), EndPC: int(entry[1]), HandlerPC: int(entry[2])}
		if entry[3] != 0 {
			if e.CatchType, err = c.Pool.ClassName(int(entry[3])); err != nil {
				return nil, fmt.Errorf("failed to fetch catch type, %v", err)
			}
		}
		code.ExceptionTable = append(code.ExceptionTable, e)
	}
	attributes, err := c.readAttributes(r)
	if err != nil {
		return nil, err
	}
	for _, attr := range attributes {
		if attr.name != attrLocalVariableTable {
			continue
		}
		vars, err := c.readLocalVariables(attr.info)
		if err != nil {
			return nil, fmt.Errorf("failed to read local variable table, %v", err)
		}
		code.LocalVariables = append(code.LocalVariables, vars...)
	}
	return code, nil
}

func (c *Class) readLocalVariables(data []byte) ([]LocalVariable, error) {
	r := newByteCodeReader(data)
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	vars := make([]LocalVariable, 0, count)
	for i := 0; i < int(count); i++ {
		var entry [5]uint16
		for j := range entry {
			if entry[j], err = r.readU16(); err != nil {
				return nil, err
			}
		}
		v := LocalVariable{StartPC: int(entry[0]), Length: int(entry[1]), Slot: int(entry[4])}
		if v.Name, err = c.Pool.Utf8(int(entry[2])); err != nil {
			return nil, err
		}
		if v.Descriptor, err = c.Pool.Utf8(int(entry[3])); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// Lookup returns the debug name of the variable stored in slot and visible at pc.
// A variable is also found at the offset right before its range, where the store
// initializing it lives.
func (c *Code) Lookup(slot, pc int) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, v := range c.LocalVariables {
		if v.Slot == slot && pc >= v.StartPC && pc < v.StartPC+v.Length {
			return v.Name, true
		}
	}
	// Stores precede the visibility range by the length of the store instruction
	best := -1
	for i, v := range c.LocalVariables {
		if v.Slot == slot && pc < v.StartPC && v.StartPC-pc <= 4 && (best < 0 || v.StartPC < c.LocalVariables[best].StartPC) {
			best = i
		}
	}
	if best >= 0 {
		return c.LocalVariables[best].Name, true
	}
	return "", false
}

// HasLocalVariables reports whether the code carries a debug variable table
func (c *Code) HasLocalVariables() bool {
	return c != nil && len(c.LocalVariables) > 0
}
