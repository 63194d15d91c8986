package classfile

import (
	"fmt"
	"math"
	"unicode/utf16"
)

// Constant pool tags
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.4
const (
	constTypeUtf8               = 1
	constTypeInt                = 3
	constTypeFloat              = 4
	constTypeLong               = 5
	constTypeDouble             = 6
	constTypeClass              = 7
	constTypeString             = 8
	constTypeField              = 9
	constTypeMethod             = 10
	constTypeInterfaceMethod    = 11
	constTypeNameAndType        = 12
	constTypeMethodHandle       = 15
	constTypeMethodType         = 16
	constTypeDynamic            = 17
	constTypeInvokeDynamic      = 18
	constTypeModule             = 19
	constTypePackage            = 20
	constTypeNone               = 0
)

// jvmConstNames is the constant tag names indexed by tag, used in error messages
var jvmConstNames = []string{"None", "Utf8", "None", "Int", "Float", "Long", "Double", "Class", "String", "Field", "Method", "InterfaceMethod", "NameAndType", "None", "None", "MethodHandle", "MethodType", "Dynamic", "InvokeDynamic", "Module", "Package"}

func constName(tag uint8) string {
	if int(tag) < len(jvmConstNames) {
		return jvmConstNames[tag]
	}
	return fmt.Sprintf("tag(%d)", tag)
}

// constantInfo describes the java Constant data structure
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.4
type constantInfo struct {
	tag   uint8       // tag is the constant type value
	info  string      // info is the decoded Utf8 value
	value interface{} // value is the numeric value of Int, Float, Long and Double constants
	refs  []uint16    // refs is the constant references. see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.4.2
	kind  uint8       // kind is the reference kind of a MethodHandle constant
}

// ConstantPool is the resolved constant pool of a class file
type ConstantPool struct {
	entries []constantInfo
}

// ClassRef is a CONSTANT_Class value: an internal class name or an array descriptor
type ClassRef struct {
	Name string
}

// MemberRef is a resolved field, method or interface method reference
type MemberRef struct {
	Owner      string // Owner is the internal name of the declaring class
	Name       string // Name is the member name
	Descriptor string // Descriptor is the member descriptor
	Interface  bool   // Interface tells whether the reference is an InterfaceMethodref
}

// MethodTypeRef is a CONSTANT_MethodType value
type MethodTypeRef struct {
	Descriptor string
}

// MethodHandle is a CONSTANT_MethodHandle value
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.4.8
type MethodHandle struct {
	Kind   uint8     // Kind is the reference kind (1..9)
	Member MemberRef // Member is the referenced field or method
}

// DynamicRef is a resolved CONSTANT_InvokeDynamic (or CONSTANT_Dynamic) entry
type DynamicRef struct {
	BootstrapIndex int    // BootstrapIndex is the index into the BootstrapMethods attribute
	Name           string // Name is the call site name
	Descriptor     string // Descriptor is the call site descriptor
}

// Len returns the constant pool count (the number of entries plus one)
func (p *ConstantPool) Len() int {
	return len(p.entries)
}

// constantInfo retrieves the constant info from the constant pool by the given index
func (p *ConstantPool) constantInfo(i int) (*constantInfo, error) {
	if i <= 0 || len(p.entries) <= i {
		return nil, fmt.Errorf("no constant at %d, index out of range", i)
	}
	return &p.entries[i], nil
}

// constant retrieves a constant verifying its tag is one of the given tags
func (p *ConstantPool) constant(i int, tags ...uint8) (*constantInfo, error) {
	info, err := p.constantInfo(i)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if t == info.tag {
			return info, nil
		}
	}
	names := make([]string, len(tags))
	for j, t := range tags {
		names[j] = constName(t)
	}
	return nil, fmt.Errorf("wrong reference type at constant %d, expected %q, got: %q", i, names, constName(info.tag))
}

// Utf8 returns the CONSTANT_Utf8 string at index i
func (p *ConstantPool) Utf8(i int) (string, error) {
	info, err := p.constant(i, constTypeUtf8)
	if err != nil {
		return "", err
	}
	return info.info, nil
}

// ClassName returns the name referenced by the CONSTANT_Class at index i
func (p *ConstantPool) ClassName(i int) (string, error) {
	info, err := p.constant(i, constTypeClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(int(info.refs[0]))
}

// NameAndType returns the name and descriptor of the CONSTANT_NameAndType at index i
func (p *ConstantPool) NameAndType(i int) (name, desc string, err error) {
	info, err := p.constant(i, constTypeNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(int(info.refs[0])); err != nil {
		return "", "", fmt.Errorf("failed to fetch name constant, %v", err)
	}
	if desc, err = p.Utf8(int(info.refs[1])); err != nil {
		return "", "", fmt.Errorf("failed to fetch descriptor constant, %v", err)
	}
	return name, desc, nil
}

// Member resolves the field, method or interface method reference at index i
func (p *ConstantPool) Member(i int) (MemberRef, error) {
	info, err := p.constant(i, constTypeField, constTypeMethod, constTypeInterfaceMethod)
	if err != nil {
		return MemberRef{}, err
	}
	ref := MemberRef{Interface: info.tag == constTypeInterfaceMethod}
	if ref.Owner, err = p.ClassName(int(info.refs[0])); err != nil {
		return MemberRef{}, fmt.Errorf("failed to fetch class constant, %v", err)
	}
	if ref.Name, ref.Descriptor, err = p.NameAndType(int(info.refs[1])); err != nil {
		return MemberRef{}, err
	}
	return ref, nil
}

// Dynamic resolves the CONSTANT_InvokeDynamic or CONSTANT_Dynamic entry at index i
func (p *ConstantPool) Dynamic(i int) (DynamicRef, error) {
	info, err := p.constant(i, constTypeInvokeDynamic, constTypeDynamic)
	if err != nil {
		return DynamicRef{}, err
	}
	ref := DynamicRef{BootstrapIndex: int(info.refs[0])}
	if ref.Name, ref.Descriptor, err = p.NameAndType(int(info.refs[1])); err != nil {
		return DynamicRef{}, err
	}
	return ref, nil
}

// Literal resolves a loadable constant: int32, int64, float32, float64, string, ClassRef,
// MethodTypeRef or MethodHandle
func (p *ConstantPool) Literal(i int) (interface{}, error) {
	info, err := p.constantInfo(i)
	if err != nil {
		return nil, err
	}
	switch info.tag {
	case constTypeInt, constTypeFloat, constTypeLong, constTypeDouble:
		return info.value, nil
	case constTypeString:
		return p.Utf8(int(info.refs[0]))
	case constTypeClass:
		name, err := p.Utf8(int(info.refs[0]))
		if err != nil {
			return nil, err
		}
		return ClassRef{Name: name}, nil
	case constTypeMethodType:
		desc, err := p.Utf8(int(info.refs[0]))
		if err != nil {
			return nil, err
		}
		return MethodTypeRef{Descriptor: desc}, nil
	case constTypeMethodHandle:
		member, err := p.Member(int(info.refs[0]))
		if err != nil {
			return nil, err
		}
		return MethodHandle{Kind: info.kind, Member: member}, nil
	}
	return nil, fmt.Errorf("constant %d of type %q is not loadable", i, constName(info.tag))
}

// readConstantPool populates the class constant pool
func readConstantPool(reader *byteCodeReader) (*ConstantPool, error) {
	count, err := reader.readU16()
	if err != nil {
		return nil, err
	}
	// Constant pool always starts with blank constant
	pool := &ConstantPool{entries: make([]constantInfo, 1, count)}
	for len(pool.entries) < int(count) {
		info := constantInfo{}
		if info.tag, err = reader.readU8(); err != nil {
			return nil, err
		}
		switch info.tag {
		case constTypeUtf8:
			length, err := reader.readU16()
			if err != nil {
				return nil, err
			}
			raw, err := reader.readBytes(int(length))
			if err != nil {
				return nil, err
			}
			if info.info, err = decodeModifiedUTF8(raw); err != nil {
				return nil, fmt.Errorf("constant %d: %v", len(pool.entries), err)
			}
		case constTypeInt:
			num, err := reader.readU32()
			if err != nil {
				return nil, err
			}
			info.value = int32(num)
		case constTypeFloat:
			num, err := reader.readU32()
			if err != nil {
				return nil, err
			}
			info.value = math.Float32frombits(num)
		case constTypeLong:
			num, err := reader.readU64()
			if err != nil {
				return nil, err
			}
			info.value = int64(num)
		case constTypeDouble:
			num, err := reader.readU64()
			if err != nil {
				return nil, err
			}
			info.value = math.Float64frombits(num)
		case constTypeMethodHandle:
			if info.kind, err = reader.readU8(); err != nil {
				return nil, err
			}
			ref, err := reader.readU16()
			if err != nil {
				return nil, err
			}
			info.refs = []uint16{ref}
		case constTypeClass, constTypeString, constTypeMethodType, constTypeModule, constTypePackage:
			ref, err := reader.readU16()
			if err != nil {
				return nil, err
			}
			info.refs = []uint16{ref}
		case constTypeField, constTypeMethod, constTypeInterfaceMethod, constTypeNameAndType, constTypeDynamic, constTypeInvokeDynamic:
			// There are two references
			first, err := reader.readU16()
			if err != nil {
				return nil, err
			}
			second, err := reader.readU16()
			if err != nil {
				return nil, err
			}
			info.refs = []uint16{first, second}
		default:
			return nil, fmt.Errorf("failed to read constant %d, unknown tag %d", len(pool.entries), info.tag)
		}
		pool.entries = append(pool.entries, info)
		if info.tag == constTypeLong || info.tag == constTypeDouble {
			// Constant pool of type long and double always followed by blank constant
			pool.entries = append(pool.entries, constantInfo{tag: constTypeNone})
		}
	}
	return pool, nil
}

// decodeModifiedUTF8 decodes the class file string encoding: null is encoded on two bytes and
// supplementary characters as surrogate pairs of three byte sequences
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.4.7
func decodeModifiedUTF8(raw []byte) (string, error) {
	units := make([]uint16, 0, len(raw))
	for i := 0; i < len(raw); {
		b := raw[i]
		switch {
		case b < 0x80:
			units = append(units, uint16(b))
			i++
		case b&0xe0 == 0xc0:
			if i+1 >= len(raw) {
				return "", fmt.Errorf("truncated utf8 sequence at %d", i)
			}
			units = append(units, uint16(b&0x1f)<<6|uint16(raw[i+1]&0x3f))
			i += 2
		case b&0xf0 == 0xe0:
			if i+2 >= len(raw) {
				return "", fmt.Errorf("truncated utf8 sequence at %d", i)
			}
			units = append(units, uint16(b&0x0f)<<12|uint16(raw[i+1]&0x3f)<<6|uint16(raw[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("invalid utf8 byte 0x%02x at %d", b, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

// NewConstantPool builds a constant pool from already decoded values, mostly useful to feed
// the decompiler with synthesized classes. Supported values are string (Utf8), int32, int64,
// float32, float64, ClassRef, MemberRef and DynamicRef; composite values append the entries they
// reference. The returned indexes map every value to its pool index.
func NewConstantPool(values ...interface{}) (*ConstantPool, []int, error) {
	pool := &ConstantPool{entries: make([]constantInfo, 1)}
	indexes := make([]int, len(values))
	for i, v := range values {
		idx, err := pool.add(v)
		if err != nil {
			return nil, nil, err
		}
		indexes[i] = idx
	}
	return pool, indexes, nil
}

func (p *ConstantPool) addEntry(info constantInfo) int {
	p.entries = append(p.entries, info)
	idx := len(p.entries) - 1
	if info.tag == constTypeLong || info.tag == constTypeDouble {
		p.entries = append(p.entries, constantInfo{tag: constTypeNone})
	}
	return idx
}

func (p *ConstantPool) utf8(s string) int {
	for i, e := range p.entries {
		if e.tag == constTypeUtf8 && e.info == s {
			return i
		}
	}
	return p.addEntry(constantInfo{tag: constTypeUtf8, info: s})
}

func (p *ConstantPool) nameAndType(name, desc string) int {
	return p.addEntry(constantInfo{tag: constTypeNameAndType, refs: []uint16{uint16(p.utf8(name)), uint16(p.utf8(desc))}})
}

func (p *ConstantPool) add(v interface{}) (int, error) {
	switch c := v.(type) {
	case string:
		return p.addEntry(constantInfo{tag: constTypeString, refs: []uint16{uint16(p.utf8(c))}}), nil
	case int32:
		return p.addEntry(constantInfo{tag: constTypeInt, value: c}), nil
	case float32:
		return p.addEntry(constantInfo{tag: constTypeFloat, value: c}), nil
	case int64:
		return p.addEntry(constantInfo{tag: constTypeLong, value: c}), nil
	case float64:
		return p.addEntry(constantInfo{tag: constTypeDouble, value: c}), nil
	case ClassRef:
		return p.addEntry(constantInfo{tag: constTypeClass, refs: []uint16{uint16(p.utf8(c.Name))}}), nil
	case MemberRef:
		owner := p.addEntry(constantInfo{tag: constTypeClass, refs: []uint16{uint16(p.utf8(c.Owner))}})
		nat := p.nameAndType(c.Name, c.Descriptor)
		tag := uint8(constTypeMethod)
		switch {
		case c.Interface:
			tag = constTypeInterfaceMethod
		case len(c.Descriptor) > 0 && c.Descriptor[0] != '(':
			tag = constTypeField
		}
		return p.addEntry(constantInfo{tag: tag, refs: []uint16{uint16(owner), uint16(nat)}}), nil
	case DynamicRef:
		nat := p.nameAndType(c.Name, c.Descriptor)
		return p.addEntry(constantInfo{tag: constTypeInvokeDynamic, refs: []uint16{uint16(c.BootstrapIndex), uint16(nat)}}), nil
	}
	return 0, fmt.Errorf("unsupported constant value %T", v)
}
