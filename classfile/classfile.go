// Package classfile reads binary JVM class files: the constant pool, fields, methods, their
// code attributes and debug tables, and decodes the instruction streams consumed by the
// decompiler.
package classfile

import (
	"fmt"

	"github.com/petr590/NewYava-sub001/failure"
)

const (
	// We do not support old jdk version (<1.1) for class versions under 45.3 which uses shorter bytes
	// representation for the codeAttribute entries. i.e., maxStack type would be uint8 instead of uint16
	minMajorSupportedVersion = 45
	minMinorSupportedVersion = 3

	classMagic = 0xcafebabe
)

// Attribute names
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7
const (
	attrCode               = "Code"
	attrConstantValue      = "ConstantValue"
	attrExceptions         = "Exceptions"
	attrBootstrapMethods   = "BootstrapMethods"
	attrLocalVariableTable = "LocalVariableTable"
	attrSourceFile         = "SourceFile"
	attrInnerClasses       = "InnerClasses"
)

// Class describes a parsed java class file
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.1
type Class struct {
	MinorVersion     uint16            // MinorVersion is the class version minor
	MajorVersion     uint16            // MajorVersion is the class version major
	Pool             *ConstantPool     // Pool is the table of constants in the class file
	AccessFlags      uint16            // AccessFlags is the mask of flags used to denote access permissions to and properties of this class or interface
	ThisClass        string            // ThisClass is the internal name of the class
	SuperClass       string            // SuperClass is the internal name of the super class, empty for java/lang/Object
	Interfaces       []string          // Interfaces is the list of the implemented interfaces internal names
	Fields           []*Field          // Fields is the list of field components
	Methods          []*Method         // Methods is the list of methods components
	BootstrapMethods []BootstrapMethod // BootstrapMethods is the content of the BootstrapMethods attribute
	SourceFile       string            // SourceFile is the value of the SourceFile attribute, if any
	InnerClasses     []InnerClass      // InnerClasses is the content of the InnerClasses attribute
}

// Field describes a java field
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.5
type Field struct {
	AccessFlags   uint16      // AccessFlags is the mask of flags used to denote access permission to and properties of this field
	Name          string      // Name is the field name
	Descriptor    string      // Descriptor is the field descriptor
	ConstantValue interface{} // ConstantValue is the resolved ConstantValue attribute, nil if absent
}

// Method describes a java method
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.6
type Method struct {
	AccessFlags uint16   // AccessFlags is the mask of flags used to denote access permission to and properties of this method
	Name        string   // Name is the method name
	Descriptor  string   // Descriptor is the method descriptor
	Code        *Code    // Code is the code attribute, nil for abstract and native methods
	Exceptions  []string // Exceptions is the list of declared thrown classes
}

// BootstrapMethod is an entry of the BootstrapMethods attribute
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7.21
type BootstrapMethod struct {
	Handle    MethodHandle  // Handle is the bootstrap method handle
	Arguments []interface{} // Arguments are the resolved static arguments
}

// InnerClass is an entry of the InnerClasses attribute
type InnerClass struct {
	Name        string // Name is the inner class internal name
	Outer       string // Outer is the outer class internal name, empty for local and anonymous classes
	SimpleName  string // SimpleName is the source name, empty for anonymous classes
	AccessFlags uint16 // AccessFlags are the access flags of the inner class as declared in source
}

// attributeInfo describes the java Attribute data structure
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7
type attributeInfo struct {
	name string // name is the resolved attribute name
	info []byte // info is the attribute raw data
}

// Parse loads a class file raw data into a class structure. Every error is tagged as a
// malformed class failure.
func Parse(data []byte) (*Class, error) {
	c, err := parse(data)
	if err != nil {
		return nil, failure.Wrap(failure.KindMalformedClass, err, "failed to parse class file")
	}
	return c, nil
}

func parse(data []byte) (*Class, error) {
	// Create a bytecode reader
	reader := newByteCodeReader(data)
	c := &Class{}
	magic, err := reader.readU32()
	if err != nil {
		return nil, err
	}
	// Verify magic number and class version
	if magic != classMagic {
		return nil, fmt.Errorf("not a valid class file, magic number incorrect")
	}
	if c.MinorVersion, err = reader.readU16(); err != nil {
		return nil, err
	}
	if c.MajorVersion, err = reader.readU16(); err != nil {
		return nil, err
	}
	if c.MajorVersion < minMajorSupportedVersion || c.MajorVersion == minMajorSupportedVersion && c.MinorVersion < minMinorSupportedVersion {
		return nil, fmt.Errorf("class file version is %d.%d, should be >%d.%d", c.MajorVersion, c.MinorVersion, minMajorSupportedVersion, minMinorSupportedVersion)
	}
	// Populate class constant pool
	if c.Pool, err = readConstantPool(reader); err != nil {
		return nil, err
	}
	if c.AccessFlags, err = reader.readU16(); err != nil {
		return nil, err
	}
	thisClass, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	if c.ThisClass, err = c.Pool.ClassName(int(thisClass)); err != nil {
		return nil, fmt.Errorf("failed to fetch this class, %v", err)
	}
	superClass, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	// java/lang/Object has no super class
	if superClass != 0 {
		if c.SuperClass, err = c.Pool.ClassName(int(superClass)); err != nil {
			return nil, fmt.Errorf("failed to fetch super class, %v", err)
		}
	}
	interfacesCount, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(interfacesCount); i++ {
		index, err := reader.readU16()
		if err != nil {
			return nil, err
		}
		name, err := c.Pool.ClassName(int(index))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch interface %d, %v", i, err)
		}
		c.Interfaces = append(c.Interfaces, name)
	}
	// Populate fields
	if c.Fields, err = c.readFields(reader); err != nil {
		return nil, err
	}
	// Populate methods
	if c.Methods, err = c.readMethods(reader); err != nil {
		return nil, err
	}
	// Populate attributes
	attributes, err := c.readAttributes(reader)
	if err != nil {
		return nil, err
	}
	for _, attr := range attributes {
		switch attr.name {
		case attrBootstrapMethods:
			if c.BootstrapMethods, err = c.readBootstrapMethods(attr.info); err != nil {
				return nil, fmt.Errorf("failed to read bootstrap methods, %v", err)
			}
		case attrSourceFile:
			r := newByteCodeReader(attr.info)
			index, err := r.readU16()
			if err != nil {
				return nil, err
			}
			if c.SourceFile, err = c.Pool.Utf8(int(index)); err != nil {
				return nil, fmt.Errorf("failed to fetch source file, %v", err)
			}
		case attrInnerClasses:
			if c.InnerClasses, err = c.readInnerClasses(attr.info); err != nil {
				return nil, fmt.Errorf("failed to read inner classes, %v", err)
			}
		}
	}
	return c, nil
}

// readAttributes reads an attribute table and resolves the attribute names
func (c *Class) readAttributes(reader *byteCodeReader) ([]attributeInfo, error) {
	count, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	attributes := make([]attributeInfo, 0, count)
	for i := 0; i < int(count); i++ {
		nameIndex, err := reader.readU16()
		if err != nil {
			return nil, err
		}
		length, err := reader.readU32()
		if err != nil {
			return nil, err
		}
		a := attributeInfo{}
		if a.name, err = c.Pool.Utf8(int(nameIndex)); err != nil {
			return nil, fmt.Errorf("failed to fetch attribute name, %v", err)
		}
		if a.info, err = reader.readBytes(int(length)); err != nil {
			return nil, err
		}
		attributes = append(attributes, a)
	}
	return attributes, nil
}

// componentInfo reads the access flags, name and descriptor shared by methods and fields
func (c *Class) componentInfo(reader *byteCodeReader) (flags uint16, name, desc string, attrs []attributeInfo, err error) {
	if flags, err = reader.readU16(); err != nil {
		return
	}
	nameIndex, err := reader.readU16()
	if err != nil {
		return
	}
	descIndex, err := reader.readU16()
	if err != nil {
		return
	}
	if name, err = c.Pool.Utf8(int(nameIndex)); err != nil {
		err = fmt.Errorf("failed to fetch name constant, %v", err)
		return
	}
	if desc, err = c.Pool.Utf8(int(descIndex)); err != nil {
		err = fmt.Errorf("failed to fetch descriptor constant, %v", err)
		return
	}
	attrs, err = c.readAttributes(reader)
	return
}

func (c *Class) readFields(reader *byteCodeReader) ([]*Field, error) {
	count, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	fields := make([]*Field, 0, count)
	for i := 0; i < int(count); i++ {
		f := &Field{}
		var attrs []attributeInfo
		if f.AccessFlags, f.Name, f.Descriptor, attrs, err = c.componentInfo(reader); err != nil {
			return nil, err
		}
		for _, attr := range attrs {
			if attr.name != attrConstantValue {
				continue
			}
			r := newByteCodeReader(attr.info)
			index, err := r.readU16()
			if err != nil {
				return nil, err
			}
			if f.ConstantValue, err = c.Pool.Literal(int(index)); err != nil {
				return nil, fmt.Errorf("failed to fetch constant value of field %s, %v", f.Name, err)
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (c *Class) readMethods(reader *byteCodeReader) ([]*Method, error) {
	count, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	methods := make([]*Method, 0, count)
	for i := 0; i < int(count); i++ {
		m := &Method{}
		var attrs []attributeInfo
		if m.AccessFlags, m.Name, m.Descriptor, attrs, err = c.componentInfo(reader); err != nil {
			return nil, err
		}
		for _, attr := range attrs {
			switch attr.name {
			case attrCode:
				if m.Code, err = c.newCode(attr.info); err != nil {
					return nil, fmt.Errorf("failed to create code attr object for method %s, %v", m.Name, err)
				}
			case attrExceptions:
				r := newByteCodeReader(attr.info)
				n, err := r.readU16()
				if err != nil {
					return nil, err
				}
				for j := 0; j < int(n); j++ {
					index, err := r.readU16()
					if err != nil {
						return nil, err
					}
					name, err := c.Pool.ClassName(int(index))
					if err != nil {
						return nil, fmt.Errorf("failed to fetch exception class, %v", err)
					}
					m.Exceptions = append(m.Exceptions, name)
				}
			}
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (c *Class) readBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	r := newByteCodeReader(data)
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, 0, count)
	for i := 0; i < int(count); i++ {
		ref, err := r.readU16()
		if err != nil {
			return nil, err
		}
		handle, err := c.Pool.Literal(int(ref))
		if err != nil {
			return nil, err
		}
		bm := BootstrapMethod{}
		var ok bool
		if bm.Handle, ok = handle.(MethodHandle); !ok {
			return nil, fmt.Errorf("bootstrap method %d is not a method handle", i)
		}
		argsCount, err := r.readU16()
		if err != nil {
			return nil, err
		}
		for j := 0; j < int(argsCount); j++ {
			index, err := r.readU16()
			if err != nil {
				return nil, err
			}
			arg, err := c.Pool.Literal(int(index))
			if err != nil {
				return nil, err
			}
			bm.Arguments = append(bm.Arguments, arg)
		}
		methods = append(methods, bm)
	}
	return methods, nil
}

func (c *Class) readInnerClasses(data []byte) ([]InnerClass, error) {
	r := newByteCodeReader(data)
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	classes := make([]InnerClass, 0, count)
	for i := 0; i < int(count); i++ {
		var refs [3]uint16
		for j := range refs {
			if refs[j], err = r.readU16(); err != nil {
				return nil, err
			}
		}
		ic := InnerClass{}
		if ic.AccessFlags, err = r.readU16(); err != nil {
			return nil, err
		}
		if ic.Name, err = c.Pool.ClassName(int(refs[0])); err != nil {
			return nil, err
		}
		if refs[1] != 0 {
			if ic.Outer, err = c.Pool.ClassName(int(refs[1])); err != nil {
				return nil, err
			}
		}
		if refs[2] != 0 {
			if ic.SimpleName, err = c.Pool.Utf8(int(refs[2])); err != nil {
				return nil, err
			}
		}
		classes = append(classes, ic)
	}
	return classes, nil
}

// Field returns the field with the given name, nil if not declared
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the method with the given name and descriptor, nil if not declared
func (c *Class) Method(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.Descriptor == desc {
			return m
		}
	}
	return nil
}
