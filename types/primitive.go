package types

import (
	"math"
	"strings"
)

// Kinds is a bit set of primitive kinds. A single bit denotes a concrete primitive,
// several bits a provisional type not yet disambiguated by a consumer.
type Kinds uint16

const (
	KindBoolean Kinds = 1 << iota
	KindByte
	KindShort
	KindChar
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindVoid
)

// primitiveInfo is the static description of a single primitive kind
type primitiveInfo struct {
	keyword    string // keyword is the source keyword
	descriptor string // descriptor is the JVM descriptor letter
	varName    string // varName is the default local variable name
	size       int    // size is the number of local slots / stack words
}

var primitiveInfos = map[Kinds]primitiveInfo{
	KindBoolean: {"boolean", "Z", "flag", 1},
	KindByte:    {"byte", "B", "b", 1},
	KindShort:   {"short", "S", "s", 1},
	KindChar:    {"char", "C", "c", 1},
	KindInt:     {"int", "I", "n", 1},
	KindLong:    {"long", "J", "l", 2},
	KindFloat:   {"float", "F", "f", 1},
	KindDouble:  {"double", "D", "d", 2},
	KindVoid:    {"void", "V", "", 0},
}

// resolveOrder is the preference used when a provisional type is never disambiguated
var resolveOrder = []Kinds{KindInt, KindShort, KindChar, KindByte, KindBoolean, KindLong, KindFloat, KindDouble, KindVoid}

// Primitive is a primitive type or a provisional set of primitive kinds
type Primitive struct {
	kinds Kinds
}

var (
	Void    = Primitive{KindVoid}
	Boolean = Primitive{KindBoolean}
	Byte    = Primitive{KindByte}
	Short   = Primitive{KindShort}
	Char    = Primitive{KindChar}
	Int     = Primitive{KindInt}
	Long    = Primitive{KindLong}
	Float   = Primitive{KindFloat}
	Double  = Primitive{KindDouble}

	// Integral is the provisional type of stack values produced by instructions that
	// do not distinguish boolean, byte, short, char and int.
	Integral = Primitive{KindBoolean | KindByte | KindShort | KindChar | KindInt}
	// IntLike accepts every int-category kind except boolean (arithmetic operands).
	IntLike = Primitive{KindByte | KindShort | KindChar | KindInt}
)

// PrimitiveOf returns the primitive with the given kinds
func PrimitiveOf(kinds Kinds) Primitive {
	return Primitive{kinds}
}

// IntegralOf returns the provisional type of an int constant: every kind able to hold v
func IntegralOf(v int32) Primitive {
	kinds := KindInt
	if v == 0 || v == 1 {
		kinds |= KindBoolean
	}
	if v >= math.MinInt8 && v <= math.MaxInt8 {
		kinds |= KindByte
	}
	if v >= math.MinInt16 && v <= math.MaxInt16 {
		kinds |= KindShort
	}
	if v >= 0 && v <= math.MaxUint16 {
		kinds |= KindChar
	}
	return Primitive{kinds}
}

func (Primitive) isType() {}

// Kinds returns the kind set
func (p Primitive) Kinds() Kinds {
	return p.kinds
}

// Has reports whether any of the given kinds is possible
func (p Primitive) Has(kinds Kinds) bool {
	return p.kinds&kinds != 0
}

// IsConcrete reports whether exactly one kind remains
func (p Primitive) IsConcrete() bool {
	return p.kinds != 0 && p.kinds&(p.kinds-1) == 0
}

// Resolved returns the concrete primitive this type defaults to
func (p Primitive) Resolved() Primitive {
	if p.IsConcrete() {
		return p
	}
	for _, k := range resolveOrder {
		if p.kinds&k != 0 {
			return Primitive{k}
		}
	}
	return Int
}

func (p Primitive) info() primitiveInfo {
	return primitiveInfos[p.Resolved().kinds]
}

// Keyword returns the source keyword of the resolved primitive
func (p Primitive) Keyword() string {
	return p.info().keyword
}

func (p Primitive) Descriptor() string {
	return p.info().descriptor
}

func (p Primitive) Size() int {
	if p.kinds&(KindLong|KindDouble) != 0 {
		return 2
	}
	if p.kinds == KindVoid {
		return 0
	}
	return 1
}

func (p Primitive) VarName() string {
	return p.info().varName
}

func (p Primitive) String() string {
	if p.IsConcrete() {
		return p.Keyword()
	}
	var names []string
	for _, k := range resolveOrder {
		if p.kinds&k != 0 {
			names = append(names, primitiveInfos[k].keyword)
		}
	}
	return strings.Join(names, "|")
}

// widenings maps a kind to the kinds it widens into without a cast
var widenings = map[Kinds]Kinds{
	KindByte:  KindShort | KindInt,
	KindShort: KindInt,
	KindChar:  KindInt,
}

// widenInto returns the subset of from whose kinds widen into some kind of to
func widenInto(from, to Kinds) Kinds {
	var res Kinds
	for k, w := range widenings {
		if from&k != 0 && w&to != 0 {
			res |= k
		}
	}
	return res
}
