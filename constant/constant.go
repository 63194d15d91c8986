// Package constant implements the immutable literal values of the decompiler: int, long,
// float, double, string and class literals.
//
// Small numeric values and class literals are interned in process-wide tables which are
// populated on first use, never evicted and safe to share between concurrent decompilations.
package constant

import (
	"math"
	"strconv"
	"sync"

	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Constant is a literal value. The set of implementations is closed to this package.
type Constant interface {
	// Type returns the semantic type of the literal (provisional for ints)
	Type() types.Type
	// Write renders the literal in the context of the required type
	Write(w *render.Writer, required types.Type)
	isConstant()
}

type (
	Int    struct{ Value int32 }
	Long   struct{ Value int64 }
	Float  struct{ Value float32 }
	Double struct{ Value float64 }
	String struct{ Value string }
	Class  struct{ Value types.Type }
)

const (
	IntCacheLow  = -128 // IntCacheLow is the smallest interned int value
	IntCacheHigh = 127  // IntCacheHigh is the largest interned int value
	LongCacheLow = -1   // LongCacheLow is the smallest interned long value
	LongCacheMax = 5    // LongCacheMax is the largest interned long value
)

// internTable is a lazily populated, concurrency safe canonicalization table
type internTable[K comparable, V any] struct {
	m sync.Map
}

func (t *internTable[K, V]) get(key K, create func() V) V {
	if v, ok := t.m.Load(key); ok {
		return v.(V)
	}
	v, _ := t.m.LoadOrStore(key, create())
	return v.(V)
}

var (
	ints    internTable[int32, *Int]
	longs   internTable[int64, *Long]
	floats  internTable[uint32, *Float]
	doubles internTable[uint64, *Double]
	classes internTable[types.Type, *Class]
)

// IntOf returns the int constant for v, canonical within [IntCacheLow, IntCacheHigh]
func IntOf(v int32) *Int {
	if v < IntCacheLow || v > IntCacheHigh {
		return &Int{v}
	}
	return ints.get(v, func() *Int { return &Int{v} })
}

// LongOf returns the long constant for v, canonical within [LongCacheLow, LongCacheMax]
func LongOf(v int64) *Long {
	if v < LongCacheLow || v > LongCacheMax {
		return &Long{v}
	}
	return longs.get(v, func() *Long { return &Long{v} })
}

// FloatOf returns the float constant for v, canonical for 0, 1 and 2 (the fconst values)
func FloatOf(v float32) *Float {
	if v != 0 && v != 1 && v != 2 || math.Signbit(float64(v)) {
		return &Float{v}
	}
	return floats.get(math.Float32bits(v), func() *Float { return &Float{v} })
}

// DoubleOf returns the double constant for v, canonical for 0 and 1 (the dconst values)
func DoubleOf(v float64) *Double {
	if v != 0 && v != 1 || math.Signbit(v) {
		return &Double{v}
	}
	return doubles.get(math.Float64bits(v), func() *Double { return &Double{v} })
}

// StringOf returns a string constant
func StringOf(v string) *String {
	return &String{v}
}

// ClassOf returns the canonical class literal of t
func ClassOf(t types.Type) *Class {
	return classes.get(t, func() *Class { return &Class{t} })
}

// FromValue maps a raw constant pool value to its constant
func FromValue(raw interface{}) (Constant, error) {
	switch v := raw.(type) {
	case int32:
		return IntOf(v), nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return LongOf(int64(v)), nil
		}
		return IntOf(int32(v)), nil
	case int16:
		return IntOf(int32(v)), nil
	case int8:
		return IntOf(int32(v)), nil
	case uint16:
		return IntOf(int32(v)), nil
	case int64:
		return LongOf(v), nil
	case float32:
		return FloatOf(v), nil
	case float64:
		return DoubleOf(v), nil
	case string:
		return StringOf(v), nil
	case types.Type:
		if v != nil && types.IsReference(v) && !types.IsUnknownReference(v) {
			return ClassOf(v), nil
		}
	case nil:
		return nil, failure.New(failure.KindUnsupportedConstant, "null constant value")
	}
	return nil, failure.New(failure.KindUnsupportedConstant, "unsupported constant %T(%v)", raw, raw)
}

func (*Int) isConstant()    {}
func (*Long) isConstant()   {}
func (*Float) isConstant()  {}
func (*Double) isConstant() {}
func (*String) isConstant() {}
func (*Class) isConstant()  {}

func (c *Int) Type() types.Type    { return types.IntegralOf(c.Value) }
func (c *Long) Type() types.Type   { return types.Long }
func (c *Float) Type() types.Type  { return types.Float }
func (c *Double) Type() types.Type { return types.Double }
func (c *String) Type() types.Type { return types.String }
func (c *Class) Type() types.Type  { return types.ClassClass }

func (c *Int) Write(w *render.Writer, required types.Type) {
	if p, ok := required.(types.Primitive); ok {
		switch p.Resolved() {
		case types.Boolean:
			if c.Value == 0 {
				w.Write("false")
			} else {
				w.Write("true")
			}
			return
		case types.Char:
			if c.Value >= 0 && c.Value <= math.MaxUint16 {
				w.Write(QuoteChar(uint16(c.Value)))
				return
			}
		}
	}
	switch c.Value {
	case math.MaxInt32:
		w.Write("Integer.MAX_VALUE")
	case math.MinInt32:
		w.Write("Integer.MIN_VALUE")
	default:
		w.Write(strconv.FormatInt(int64(c.Value), 10))
	}
}

func (c *Long) Write(w *render.Writer, _ types.Type) {
	switch c.Value {
	case math.MaxInt64:
		w.Write("Long.MAX_VALUE")
	case math.MinInt64:
		w.Write("Long.MIN_VALUE")
	default:
		w.Write(strconv.FormatInt(c.Value, 10), "L")
	}
}

func (c *Float) Write(w *render.Writer, _ types.Type) {
	v := float64(c.Value)
	switch {
	case math.IsNaN(v):
		w.Write("Float.NaN")
	case math.IsInf(v, 1):
		w.Write("Float.POSITIVE_INFINITY")
	case math.IsInf(v, -1):
		w.Write("Float.NEGATIVE_INFINITY")
	case c.Value == math.MaxFloat32:
		w.Write("Float.MAX_VALUE")
	default:
		w.Write(formatFloating(v, 32), "f")
	}
}

func (c *Double) Write(w *render.Writer, _ types.Type) {
	v := c.Value
	switch {
	case math.IsNaN(v):
		w.Write("Double.NaN")
	case math.IsInf(v, 1):
		w.Write("Double.POSITIVE_INFINITY")
	case math.IsInf(v, -1):
		w.Write("Double.NEGATIVE_INFINITY")
	case v == math.MaxFloat64:
		w.Write("Double.MAX_VALUE")
	default:
		w.Write(formatFloating(v, 64), "d")
	}
}

func (c *String) Write(w *render.Writer, _ types.Type) {
	w.Write(QuoteString(c.Value))
}

func (c *Class) Write(w *render.Writer, _ types.Type) {
	w.Write(w.TypeName(c.Value), ".class")
}

// IsZero reports whether the constant is a numeric zero
func IsZero(c Constant) bool {
	switch v := c.(type) {
	case *Int:
		return v.Value == 0
	case *Long:
		return v.Value == 0
	case *Float:
		return v.Value == 0
	case *Double:
		return v.Value == 0
	}
	return false
}
