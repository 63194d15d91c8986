package types

import (
	"strings"
	"sync"
	"unicode"
)

// Class is a class or interface type identified by its internal name (i.e., java/lang/String)
type Class struct {
	internalName string
}

// Array is an array type
type Array struct {
	elem       Type
	descriptor string
}

// nullType is the type of the null literal, assignable to every reference type
type nullType struct{}

// anyObject is the top reference type of values only known to be references
type anyObject struct{}

var (
	classes sync.Map // internal name -> *Class
	arrays  sync.Map // descriptor -> *Array

	// Null is the type of the null literal
	Null Type = nullType{}
	// AnyObject is the type of a reference whose class is unknown
	AnyObject Type = anyObject{}

	Object       = ClassOf("java/lang/Object")
	String       = ClassOf("java/lang/String")
	ClassClass   = ClassOf("java/lang/Class")
	Throwable    = ClassOf("java/lang/Throwable")
	Enum         = ClassOf("java/lang/Enum")
	StringBuffer = ClassOf("java/lang/StringBuffer")

	StringBuilder = ClassOf("java/lang/StringBuilder")
)

// ClassOf returns the canonical class type for an internal name.
// Concurrent callers racing on the same name converge on one instance.
func ClassOf(internalName string) *Class {
	if c, ok := classes.Load(internalName); ok {
		return c.(*Class)
	}
	c, _ := classes.LoadOrStore(internalName, &Class{internalName: internalName})
	return c.(*Class)
}

// ArrayOf returns the canonical array type with the given element type
func ArrayOf(elem Type) *Array {
	desc := "[" + elem.Descriptor()
	if a, ok := arrays.Load(desc); ok {
		return a.(*Array)
	}
	a, _ := arrays.LoadOrStore(desc, &Array{elem: elem, descriptor: desc})
	return a.(*Array)
}

func (*Class) isType()    {}
func (*Array) isType()    {}
func (nullType) isType()  {}
func (anyObject) isType() {}

// InternalName returns the slash separated binary name
func (c *Class) InternalName() string {
	return c.internalName
}

// Package returns the dotted package name, empty for the default package
func (c *Class) Package() string {
	i := strings.LastIndexByte(c.internalName, '/')
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(c.internalName[:i], "/", ".")
}

// binaryName returns the name without the package
func (c *Class) binaryName() string {
	return c.internalName[strings.LastIndexByte(c.internalName, '/')+1:]
}

// SimpleName returns the innermost class name (Inner for a/b/Outer$Inner)
func (c *Class) SimpleName() string {
	name := c.binaryName()
	if i := strings.LastIndexByte(name, '$'); i > 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// Outer returns the enclosing class of a nested class, or nil
func (c *Class) Outer() *Class {
	name := c.binaryName()
	i := strings.LastIndexByte(name, '$')
	if i <= 0 || i == len(name)-1 {
		return nil
	}
	return ClassOf(c.internalName[:len(c.internalName)-len(name)+i])
}

// IsAnonymous reports whether the class is a numbered nested class (Outer$1)
func (c *Class) IsAnonymous() bool {
	simple := c.SimpleName()
	return c.Outer() != nil && simple != "" && unicode.IsDigit(rune(simple[0]))
}

// QualifiedName returns the dotted source name (a.b.Outer.Inner)
func (c *Class) QualifiedName() string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(c.internalName)
}

func (c *Class) Descriptor() string {
	return "L" + c.internalName + ";"
}

func (c *Class) Size() int {
	return 1
}

func (c *Class) VarName() string {
	simple := c.SimpleName()
	if c.IsAnonymous() {
		simple = c.Outer().SimpleName()
	}
	return safeName(lowerCamel(simple))
}

func (c *Class) String() string {
	return c.QualifiedName()
}

// Elem returns the component type
func (a *Array) Elem() Type {
	return a.elem
}

// Base returns the innermost non-array element type
func (a *Array) Base() Type {
	if inner, ok := a.elem.(*Array); ok {
		return inner.Base()
	}
	return a.elem
}

// Dimensions returns the number of array dimensions
func (a *Array) Dimensions() int {
	if inner, ok := a.elem.(*Array); ok {
		return inner.Dimensions() + 1
	}
	return 1
}

func (a *Array) Descriptor() string {
	return a.descriptor
}

func (a *Array) Size() int {
	return 1
}

func (a *Array) VarName() string {
	switch base := a.Base().(type) {
	case Primitive:
		return base.Keyword() + "Array"
	case *Class:
		return base.VarName() + "Array"
	}
	return "array"
}

func (a *Array) String() string {
	return a.elem.String() + "[]"
}

func (nullType) Descriptor() string { return Object.Descriptor() }
func (nullType) Size() int          { return 1 }
func (nullType) VarName() string    { return "obj" }
func (nullType) String() string     { return "null" }

func (anyObject) Descriptor() string { return Object.Descriptor() }
func (anyObject) Size() int          { return 1 }
func (anyObject) VarName() string    { return "obj" }
func (anyObject) String() string     { return "java.lang.Object" }

// IsReference reports whether t is a reference (class, array, null or unknown object) type
func IsReference(t Type) bool {
	switch t.(type) {
	case *Class, *Array, nullType, anyObject:
		return true
	}
	return false
}

// IsUnknownReference reports whether t carries no class information (null or any object)
func IsUnknownReference(t Type) bool {
	switch t.(type) {
	case nullType, anyObject:
		return true
	}
	return false
}

func lowerCamel(name string) string {
	if name == "" {
		return "obj"
	}
	runes := []rune(name)
	// Lower the leading upper-case run, keeping the last capital of an acronym (URLConnection -> urlConnection)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
		return name
	case i == 1 || i == len(runes):
		for j := 0; j < i; j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
	default:
		for j := 0; j < i-1; j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
	}
	return string(runes)
}

func safeName(name string) string {
	if name == "class" {
		return "clazz"
	}
	if IsKeyword(name) {
		return name + "Value"
	}
	return name
}

var keywords = map[string]struct{}{}

func init() {
	for _, k := range strings.Fields(`abstract assert boolean break byte case catch char class const continue
		default do double else enum extends final finally float for goto if implements import instanceof int
		interface long native new package private protected public return short static strictfp super switch
		synchronized this throw throws transient try void volatile while true false null var yield record`) {
		keywords[k] = struct{}{}
	}
}

// IsKeyword reports whether name is a reserved word of the source language
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}
