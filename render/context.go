package render

import (
	"sort"
	"sync"

	"github.com/petr590/NewYava-sub001/types"
)

const langPackage = "java.lang"

// ClassContext tracks the imports one class needs and resolves type names against them.
// Simple names are claimed first come, first served; a later type with the same simple name
// from another package renders fully qualified.
type ClassContext struct {
	mu           sync.Mutex
	self         *types.Class            // self is the class being decompiled
	importNested bool                    // importNested imports nested classes by their own name
	claims       map[string]*types.Class // claims maps a simple name to the class owning it
	imports      map[string]struct{}     // imports is the set of qualified names to import
}

// NewClassContext creates the context of the given class
func NewClassContext(self *types.Class, importNested bool) *ClassContext {
	c := &ClassContext{
		self:         self,
		importNested: importNested,
		claims:       map[string]*types.Class{},
		imports:      map[string]struct{}{},
	}
	if self != nil {
		top := self
		for top.Outer() != nil {
			top = top.Outer()
		}
		c.claims[top.SimpleName()] = top
	}
	return c
}

// Self returns the class being decompiled
func (c *ClassContext) Self() *types.Class {
	return c.self
}

// TypeName returns the source name of t, recording an import when one is needed
func (c *ClassContext) TypeName(t types.Type) string {
	switch v := types.Resolve(t).(type) {
	case types.Primitive:
		return v.Keyword()
	case *types.Array:
		return c.TypeName(v.Elem()) + "[]"
	case *types.Class:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.className(v)
	}
	return t.String()
}

func (c *ClassContext) className(cls *types.Class) string {
	if outer := cls.Outer(); outer != nil && (!c.importNested || c.isEnclosing(outer)) {
		return c.className(outer) + "." + cls.SimpleName()
	}
	simple := cls.SimpleName()
	if owner, ok := c.claims[simple]; ok {
		if owner == cls {
			return simple
		}
		return cls.QualifiedName()
	}
	c.claims[simple] = cls
	if c.needsImport(cls) {
		c.imports[cls.QualifiedName()] = struct{}{}
	}
	return simple
}

// isEnclosing reports whether cls is the decompiled class or one of its outer classes
func (c *ClassContext) isEnclosing(cls *types.Class) bool {
	for s := c.self; s != nil; s = s.Outer() {
		if s == cls {
			return true
		}
	}
	return false
}

func (c *ClassContext) needsImport(cls *types.Class) bool {
	pkg := cls.Package()
	if cls.Outer() == nil && pkg == langPackage {
		return false
	}
	if c.self != nil && pkg == c.self.Package() && cls.Outer() == nil {
		return false
	}
	return pkg != ""
}

// Imports returns the sorted qualified names that need an import declaration
func (c *ClassContext) Imports() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.imports))
	for name := range c.imports {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
