// Package descriptor represents field and method signatures and synthesizes readable
// argument names for them.
package descriptor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/types"
)

const (
	ConstructorName       = "<init>"   // ConstructorName is the name of instance initializers
	StaticInitializerName = "<clinit>" // StaticInitializerName is the name of class initializers

	signatureCacheSize = 4096
)

// signatures caches parsed method descriptors, shared by all decompilations
var signatures *lru.Cache

func init() {
	var err error
	if signatures, err = lru.New(signatureCacheSize); err != nil {
		panic(err)
	}
}

// signature is a parsed method descriptor
type signature struct {
	args []types.Type
	ret  types.Type
}

// Field is the descriptor of a field
type Field struct {
	Owner *types.Class // Owner is the declaring class
	Name  string       // Name is the field name
	Type  types.Type   // Type is the declared field type
}

// Method is the descriptor of a method
type Method struct {
	Owner  *types.Class  // Owner is the declaring class
	Name   string        // Name is the method name
	Args   []types.Type  // Args are the declared argument types
	Return types.Type    // Return is the declared return type
	raw    string        // raw is the source descriptor text
}

// NewField parses a field descriptor
func NewField(owner *types.Class, name, desc string) (*Field, error) {
	t, err := types.Parse(desc)
	if err != nil {
		return nil, err
	}
	if t == types.Void {
		return nil, failure.New(failure.KindInvalidDescriptor, "field %s has void type", name)
	}
	return &Field{Owner: owner, Name: name, Type: t}, nil
}

// NewMethod parses and validates a method descriptor.
//
// A constructor must return void; a static initializer must return void and take no arguments.
func NewMethod(owner *types.Class, name, desc string) (*Method, error) {
	sig, err := parseSignature(desc)
	if err != nil {
		return nil, err
	}
	m := &Method{Owner: owner, Name: name, Args: sig.args, Return: sig.ret, raw: desc}
	switch name {
	case ConstructorName:
		if m.Return != types.Void {
			return nil, failure.New(failure.KindInvalidDescriptor, "constructor %s must return void, got %s", desc, m.Return)
		}
	case StaticInitializerName:
		if m.Return != types.Void || len(m.Args) != 0 {
			return nil, failure.New(failure.KindInvalidDescriptor, "static initializer must be ()V, got %s", desc)
		}
	}
	return m, nil
}

func parseSignature(desc string) (*signature, error) {
	if cached, ok := signatures.Get(desc); ok {
		return cached.(*signature), nil
	}
	args, ret, err := types.ParseMethod(desc)
	if err != nil {
		return nil, err
	}
	sig := &signature{args: args, ret: ret}
	signatures.Add(desc, sig)
	return sig, nil
}

// IsConstructor reports whether the method is an instance initializer
func (m *Method) IsConstructor() bool {
	return m.Name == ConstructorName
}

// IsStaticInitializer reports whether the method is a class initializer
func (m *Method) IsStaticInitializer() bool {
	return m.Name == StaticInitializerName
}

// Descriptor returns the raw descriptor text
func (m *Method) Descriptor() string {
	return m.raw
}

// ArgsSize returns the number of local slots the arguments occupy, including this for
// instance methods
func (m *Method) ArgsSize(static bool) int {
	size := 0
	if !static {
		size = 1
	}
	for _, a := range m.Args {
		size += a.Size()
	}
	return size
}

// Equal compares owner, name and types
func (m *Method) Equal(other *Method) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Owner != other.Owner || m.Name != other.Name || m.Return != other.Return || len(m.Args) != len(other.Args) {
		return false
	}
	for i := range m.Args {
		if m.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// SameSignature compares name and argument types only, ignoring the owner (override matching)
func (m *Method) SameSignature(other *Method) bool {
	if m.Name != other.Name || len(m.Args) != len(other.Args) {
		return false
	}
	for i := range m.Args {
		if m.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

func (m *Method) String() string {
	owner := "?"
	if m.Owner != nil {
		owner = m.Owner.InternalName()
	}
	return fmt.Sprintf("%s.%s%s", owner, m.Name, m.raw)
}

func (f *Field) String() string {
	owner := "?"
	if f.Owner != nil {
		owner = f.Owner.InternalName()
	}
	return fmt.Sprintf("%s.%s:%s", owner, f.Name, f.Type.Descriptor())
}
