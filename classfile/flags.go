package classfile

import (
	"github.com/petr590/NewYava-sub001/failure"
)

// Access flags
// See: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.6 (Table 4.5. Method access and property flags)
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020 // AccSynchronized is ACC_SUPER on classes
	AccVolatile     = 0x0040 // AccVolatile is ACC_BRIDGE on methods
	AccTransient    = 0x0080 // AccTransient is ACC_VARARGS on methods
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccMandated     = 0x8000

	AccSuper   = AccSynchronized
	AccBridge  = AccVolatile
	AccVarargs = AccTransient
)

// EntryKind is the kind of entry access flags belong to
type EntryKind int

const (
	EntryClass EntryKind = iota
	EntryField
	EntryMethod
)

func (k EntryKind) String() string {
	switch k {
	case EntryClass:
		return "class"
	case EntryField:
		return "field"
	}
	return "method"
}

// flagName is a flag bit with its source keyword
type flagName struct {
	flag uint16
	name string
}

// jvmModifiers is the access flags translation from bits to source keywords per entry kind, in
// the canonical source order
var jvmModifiers = map[EntryKind][]flagName{
	EntryClass: {
		{AccPublic, "public"}, {AccProtected, "protected"}, {AccPrivate, "private"},
		{AccAbstract, "abstract"}, {AccStatic, "static"}, {AccFinal, "final"}, {AccStrict, "strictfp"},
	},
	EntryField: {
		{AccPublic, "public"}, {AccProtected, "protected"}, {AccPrivate, "private"},
		{AccStatic, "static"}, {AccFinal, "final"}, {AccTransient, "transient"}, {AccVolatile, "volatile"},
	},
	EntryMethod: {
		{AccPublic, "public"}, {AccProtected, "protected"}, {AccPrivate, "private"},
		{AccAbstract, "abstract"}, {AccStatic, "static"}, {AccFinal, "final"},
		{AccSynchronized, "synchronized"}, {AccNative, "native"}, {AccStrict, "strictfp"},
	},
}

// Modifiers translates access flags (public, private, static, etc.) to source keywords.
// For example: 0x0009 on a method is translated to "public", "static"
func Modifiers(flags uint16, kind EntryKind) []string {
	var translated []string
	for _, f := range jvmModifiers[kind] {
		// Check if flag is on with bitwise and
		if flags&f.flag != 0 {
			translated = append(translated, f.name)
		}
	}
	return translated
}

// ValidateFlags checks the access flags combination is legal for the entry kind
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.5
func ValidateFlags(flags uint16, kind EntryKind) error {
	access := 0
	for _, f := range []uint16{AccPublic, AccPrivate, AccProtected} {
		if flags&f != 0 {
			access++
		}
	}
	if access > 1 {
		return failure.New(failure.KindIllegalModifiers, "%s flags 0x%04x combine several access levels", kind, flags)
	}
	switch kind {
	case EntryClass:
		if flags&AccFinal != 0 && flags&AccAbstract != 0 {
			return failure.New(failure.KindIllegalModifiers, "class flags 0x%04x are both final and abstract", flags)
		}
		if flags&AccAnnotation != 0 && flags&AccInterface == 0 {
			return failure.New(failure.KindIllegalModifiers, "annotation flags 0x%04x miss interface", flags)
		}
	case EntryField:
		if flags&AccFinal != 0 && flags&AccVolatile != 0 {
			return failure.New(failure.KindIllegalModifiers, "field flags 0x%04x are both final and volatile", flags)
		}
	case EntryMethod:
		if flags&AccAbstract != 0 && flags&(AccPrivate|AccStatic|AccFinal|AccSynchronized|AccNative|AccStrict) != 0 {
			return failure.New(failure.KindIllegalModifiers, "abstract method flags 0x%04x combine a non-overridable modifier", flags)
		}
	}
	return nil
}
