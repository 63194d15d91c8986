package decompiler

import (
	"strings"
	"sync"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
)

const (
	switchMapPrefix = "$SwitchMap$"
	enumSuper       = "java/lang/Enum"
)

// switchMaps holds the enum constant tables of the registered classes. javac compiles a switch
// over an enum into a switch over an int array indexed by the constant ordinal; the array is a
// static field of a synthetic class filled by its static initializer.
type switchMaps struct {
	mu    sync.RWMutex
	maps  map[string]map[int32]string // maps is keyed by owner and field name
	enums map[string][]string         // enums maps an enum to its constant names in ordinal order
}

func newSwitchMaps() *switchMaps {
	return &switchMaps{maps: map[string]map[int32]string{}, enums: map[string][]string{}}
}

func switchMapKey(owner, field string) string {
	return owner + "." + field
}

// Lookup returns the case value to constant name table stored in field of owner
func (s *switchMaps) Lookup(owner, field string) (map[int32]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[switchMapKey(owner, field)]
	return m, ok
}

// EnumConstants returns the constant names of a registered enum
func (s *switchMaps) EnumConstants(enum string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names, ok := s.enums[enum]
	return names, ok
}

func isEnum(cls *classfile.Class) bool {
	return cls.AccessFlags&classfile.AccEnum != 0 && cls.SuperClass == enumSuper
}

// enumConstants returns the enum constant fields of cls in declaration order
func enumConstants(cls *classfile.Class) []string {
	var names []string
	for _, f := range cls.Fields {
		if f.AccessFlags&classfile.AccEnum != 0 {
			names = append(names, f.Name)
		}
	}
	return names
}

// register records the enum constants of cls and the switch maps its static initializer fills
func (s *switchMaps) register(cls *classfile.Class) error {
	if isEnum(cls) {
		names := enumConstants(cls)
		s.mu.Lock()
		s.enums[cls.ThisClass] = names
		s.mu.Unlock()
	}
	hasMaps := false
	for _, f := range cls.Fields {
		hasMaps = hasMaps || strings.HasPrefix(f.Name, switchMapPrefix)
	}
	clinit := cls.Method(descriptor.StaticInitializerName, "()V")
	if !hasMaps || clinit == nil || clinit.Code == nil {
		return nil
	}
	maps, err := readSwitchMaps(cls, clinit.Code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for field, m := range maps {
		s.maps[switchMapKey(cls.ThisClass, field)] = m
	}
	return nil
}

// readSwitchMaps interprets the stores of a switch map initializer:
//
//	getstatic $SwitchMap$pkg$Enum; getstatic Enum.CONSTANT; invokevirtual ordinal; push N; iastore
func readSwitchMaps(cls *classfile.Class, code *classfile.Code) (map[string]map[int32]string, error) {
	insns, err := classfile.Disassemble(code.Bytecode)
	if err != nil {
		return nil, err
	}
	res := map[string]map[int32]string{}
	field, name := "", ""
	var value int32
	hasValue := false
	for _, insn := range insns {
		switch insn.Opcode {
		case classfile.GETSTATIC:
			m, err := cls.Pool.Member(insn.Index)
			if err != nil {
				return nil, failure.Wrap(failure.KindMalformedClass, err, "switch map field at %d", insn.Offset)
			}
			if m.Owner == cls.ThisClass && strings.HasPrefix(m.Name, switchMapPrefix) {
				field, name, hasValue = m.Name, "", false
			} else if field != "" {
				name = m.Name
			}
		case classfile.BIPUSH, classfile.SIPUSH:
			value, hasValue = insn.Value, true
		case classfile.LDC:
			raw, err := cls.Pool.Literal(insn.Index)
			if err != nil {
				return nil, failure.Wrap(failure.KindMalformedClass, err, "switch map value at %d", insn.Offset)
			}
			if v, ok := raw.(int32); ok {
				value, hasValue = v, true
			}
		case classfile.IASTORE:
			if field != "" && name != "" && hasValue {
				if res[field] == nil {
					res[field] = map[int32]string{}
				}
				res[field][value] = name
			}
			name, hasValue = "", false
		}
	}
	return res, nil
}
