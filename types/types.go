// Package types implements the decompiler type system: primitives (including provisional
// integral kind sets), class, array, null and unknown-object reference types, descriptor
// parsing and the narrowing rules applied when a stack value flows into a required type.
//
// Type graph:
//
//	<Type>
//	  |- Primitive (kind bit set; one bit = concrete, several = provisional)
//	  |- *Class
//	  |- *Array
//	  |- Null
//	  |- AnyObject
package types

import (
	"github.com/petr590/NewYava-sub001/failure"
)

// Type is a source level type. The set of implementations is closed to this package.
type Type interface {
	// Descriptor returns the JVM descriptor (provisional primitives use their default)
	Descriptor() string
	// Size returns the number of stack words / local slots (0 for void)
	Size() int
	// VarName returns the default lower-camel identifier for a variable of this type
	VarName() string
	// String returns the fully qualified source name, used in messages
	String() string
	isType()
}

// Parse parses a single field descriptor (i.e., I, Ljava/lang/String;, [[D)
func Parse(desc string) (Type, error) {
	t, next, err := parseAt(desc, 0)
	if err != nil {
		return nil, err
	}
	if next != len(desc) {
		return nil, failure.New(failure.KindInvalidDescriptor, "trailing characters in descriptor %q", desc)
	}
	return t, nil
}

// ParseMethod parses a method descriptor into its argument and return types
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.3.3
func ParseMethod(desc string) (args []Type, ret Type, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, nil, failure.New(failure.KindInvalidDescriptor, "method descriptor %q must start with '('", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		var t Type
		if t, i, err = parseAt(desc, i); err != nil {
			return nil, nil, err
		}
		if t == Void {
			return nil, nil, failure.New(failure.KindInvalidDescriptor, "void argument in descriptor %q", desc)
		}
		args = append(args, t)
	}
	if i >= len(desc) {
		return nil, nil, failure.New(failure.KindInvalidDescriptor, "unterminated argument list in descriptor %q", desc)
	}
	if ret, i, err = parseAt(desc, i+1); err != nil {
		return nil, nil, err
	}
	if i != len(desc) {
		return nil, nil, failure.New(failure.KindInvalidDescriptor, "trailing characters in descriptor %q", desc)
	}
	return args, ret, nil
}

// FromInternal resolves a CONSTANT_Class name, which is either an internal class name or an
// array descriptor
func FromInternal(name string) (Type, error) {
	if name == "" {
		return nil, failure.New(failure.KindInvalidDescriptor, "empty class name")
	}
	if name[0] == '[' {
		return Parse(name)
	}
	return ClassOf(name), nil
}

var descriptorPrimitives = map[byte]Primitive{
	'Z': Boolean, 'B': Byte, 'S': Short, 'C': Char, 'I': Int,
	'J': Long, 'F': Float, 'D': Double, 'V': Void,
}

func parseAt(desc string, i int) (Type, int, error) {
	if i >= len(desc) {
		return nil, i, failure.New(failure.KindInvalidDescriptor, "unexpected end of descriptor %q", desc)
	}
	if p, ok := descriptorPrimitives[desc[i]]; ok {
		return p, i + 1, nil
	}
	switch desc[i] {
	case 'L':
		end := i + 1
		for end < len(desc) && desc[end] != ';' {
			end++
		}
		if end >= len(desc) || end == i+1 {
			return nil, i, failure.New(failure.KindInvalidDescriptor, "malformed class type in descriptor %q at %d", desc, i)
		}
		return ClassOf(desc[i+1 : end]), end + 1, nil
	case '[':
		elem, next, err := parseAt(desc, i+1)
		if err != nil {
			return nil, i, err
		}
		if elem == Void {
			return nil, i, failure.New(failure.KindInvalidDescriptor, "void array element in descriptor %q", desc)
		}
		return ArrayOf(elem), next, nil
	}
	return nil, i, failure.New(failure.KindInvalidDescriptor, "unexpected %q in descriptor %q at %d", desc[i], desc, i)
}

// Narrow computes the type a value of type from takes when it flows into required.
//
// Primitive kind sets intersect; a disjoint set is still accepted when some of its kinds widen
// into the required kinds without a cast (byte/short/char into int). References always flow into
// references, and unknown references take the required reference type.
func Narrow(from, required Type) (Type, error) {
	if from.Size() != required.Size() {
		return nil, failure.New(failure.KindTypeSizeMismatch, "cannot use %s (size %d) as %s (size %d)",
			from, from.Size(), required, required.Size())
	}
	switch r := required.(type) {
	case Primitive:
		f, ok := from.(Primitive)
		if !ok {
			break
		}
		if inter := f.kinds & r.kinds; inter != 0 {
			return Primitive{inter}, nil
		}
		if w := widenInto(f.kinds, r.kinds); w != 0 {
			return Primitive{w}, nil
		}
	default:
		if !IsReference(from) {
			break
		}
		if from == AnyObject && !IsUnknownReference(required) {
			return required, nil
		}
		return from, nil
	}
	return nil, failure.New(failure.KindIncompatibleType, "cannot use %s as %s", from, required)
}

// IsAssignable reports whether a value of type from may flow into to without an explicit cast
func IsAssignable(from, to Type) bool {
	_, err := Narrow(from, to)
	return err == nil
}

// Resolve returns the concrete type a provisional type defaults to
func Resolve(t Type) Type {
	switch v := t.(type) {
	case Primitive:
		return v.Resolved()
	case nullType, anyObject:
		return Object
	}
	return t
}

// Merge returns the type of a variable assigned values of types a and b
func Merge(a, b Type) Type {
	if a == b {
		return a
	}
	pa, aok := a.(Primitive)
	pb, bok := b.(Primitive)
	if aok && bok {
		if inter := pa.kinds & pb.kinds; inter != 0 {
			return Primitive{inter}
		}
		return a
	}
	switch {
	case IsUnknownReference(a):
		return b
	case IsUnknownReference(b):
		return a
	}
	return Object
}
