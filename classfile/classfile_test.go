package classfile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/failure"
)

// classWriter assembles class file bytes for tests
type classWriter struct {
	data []byte
}

func (w *classWriter) u8(v ...uint8) *classWriter {
	w.data = append(w.data, v...)
	return w
}

func (w *classWriter) u16(v ...uint16) *classWriter {
	for _, x := range v {
		w.data = binary.BigEndian.AppendUint16(w.data, x)
	}
	return w
}

func (w *classWriter) u32(v uint32) *classWriter {
	w.data = binary.BigEndian.AppendUint32(w.data, v)
	return w
}

func (w *classWriter) utf8(s string) *classWriter {
	return w.u8(constTypeUtf8).u16(uint16(len(s))).u8([]byte(s)...)
}

// testCode is the body of Main.run: this.run(); this.println(); return
var testCode = []byte{0x2a, 0xb6, 0x00, 0x18, 0x2a, 0xb6, 0x00, 0x16, 0xb1}

func testClassBytes() []byte {
	w := &classWriter{}
	w.u32(classMagic).u16(0, 52)
	w.u16(25)
	w.utf8("com/example/Main")                                  // 1
	w.u8(constTypeClass).u16(1)                                 // 2
	w.utf8("java/lang/Object")                                  // 3
	w.u8(constTypeClass).u16(3)                                 // 4
	w.utf8("count")                                             // 5
	w.utf8("I")                                                 // 6
	w.utf8("ConstantValue")                                     // 7
	w.u8(constTypeInt).u32(42)                                  // 8
	w.utf8("run")                                               // 9
	w.utf8("()V")                                               // 10
	w.utf8("Code")                                              // 11
	w.u8(constTypeLong).u32(0).u32(7)                           // 12, 13
	w.utf8("LocalVariableTable")                                // 14
	w.utf8("this")                                              // 15
	w.utf8("Lcom/example/Main;")                                // 16
	w.u8(constTypeUtf8).u16(6).u8('n', 'a', 0xc0, 0x80, 'm', 'e') // 17
	w.utf8("java/io/PrintStream")                               // 18
	w.u8(constTypeClass).u16(18)                                // 19
	w.utf8("println")                                           // 20
	w.u8(constTypeNameAndType).u16(20, 10)                      // 21
	w.u8(constTypeMethod).u16(19, 21)                           // 22
	w.u8(constTypeNameAndType).u16(9, 10)                       // 23
	w.u8(constTypeMethod).u16(2, 23)                            // 24

	w.u16(AccPublic|AccSuper, 2, 4)
	w.u16(0) // interfaces

	w.u16(1) // fields
	w.u16(AccPrivate|AccStatic|AccFinal, 5, 6, 1)
	w.u16(7).u32(2).u16(8)

	w.u16(1) // methods
	w.u16(AccPublic, 9, 10, 1)
	w.u16(11).u32(uint32(8 + len(testCode) + 2 + 2 + 18))
	w.u16(1, 1).u32(uint32(len(testCode))).u8(testCode...)
	w.u16(0) // exception table
	w.u16(1)
	w.u16(14).u32(12).u16(1, 0, uint16(len(testCode)), 15, 16, 0)

	w.u16(0) // attributes
	return w.data
}

func TestParse(t *testing.T) {
	c, err := Parse(testClassBytes())
	require.NoError(t, err)
	require.Equal(t, "com/example/Main", c.ThisClass)
	require.Equal(t, "java/lang/Object", c.SuperClass)
	require.Equal(t, uint16(52), c.MajorVersion)
	require.Len(t, c.Fields, 1)
	require.Equal(t, "count", c.Fields[0].Name)
	require.Equal(t, int32(42), c.Fields[0].ConstantValue)
	require.Equal(t, []string{"private", "static", "final"}, Modifiers(c.Fields[0].AccessFlags, EntryField))

	m := c.Method("run", "()V")
	require.NotNil(t, m)
	require.NotNil(t, m.Code)
	require.Equal(t, testCode, m.Code.Bytecode)
	require.Equal(t, 1, m.Code.MaxLocals)
	name, ok := m.Code.Lookup(0, 4)
	require.True(t, ok)
	require.Equal(t, "this", name)
	_, ok = m.Code.Lookup(1, 4)
	require.False(t, ok)

	v, err := c.Pool.Literal(12)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
	s, err := c.Pool.Utf8(17)
	require.NoError(t, err)
	require.Equal(t, "na\x00me", s)
	// The long constant takes two entries
	_, err = c.Pool.Literal(13)
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	data := testClassBytes()
	tests := map[string][]byte{
		"bad magic": append([]byte{0xca, 0xfe, 0xd0, 0x0d}, data[4:]...),
		"truncated": data[:len(data)-5],
		"old":       append(append([]byte{}, data[:4]...), append([]byte{0, 0, 0, 44}, data[8:]...)...),
		"empty":     {},
	}
	for name, raw := range tests {
		_, err := Parse(raw)
		require.Error(t, err, name)
		require.True(t, failure.Is(err, failure.KindMalformedClass), name)
	}
}

func TestDisassemble(t *testing.T) {
	code := []byte{
		0x1a,       // 0: iload_0
		0xaa, 0, 0, // 1: tableswitch, padded to 4
		0, 0, 0, 23, // default -> 24
		0, 0, 0, 1, // low
		0, 0, 0, 2, // high
		0, 0, 0, 24, // 1 -> 25
		0, 0, 0, 25, // 2 -> 26
		0xb1,                   // 24: return
		0xb1,                   // 25: return
		0x05,                   // 26: iconst_2
		0xc4, 0x84, 0, 9, 1, 0, // 27: wide iinc 9 256
		0x57,             // 33: pop
		0xa7, 0xff, 0xf8, // 34: goto 26
	}
	insns, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, insns, 8)

	assert.Equal(t, ILOAD, insns[0].Opcode)
	assert.Equal(t, 0, insns[0].Index)

	sw := insns[1]
	require.Equal(t, TABLESWITCH, sw.Opcode)
	require.NotNil(t, sw.Switch)
	assert.Equal(t, 24, sw.Switch.Default)
	assert.Equal(t, []int32{1, 2}, sw.Switch.Keys)
	assert.Equal(t, []int{25, 26}, sw.Switch.Targets)
	assert.Equal(t, 23, sw.Length)

	assert.Equal(t, BIPUSH, insns[4].Opcode)
	assert.Equal(t, int32(2), insns[4].Value)

	wide := insns[5]
	assert.Equal(t, IINC, wide.Opcode)
	assert.True(t, wide.Wide)
	assert.Equal(t, 9, wide.Index)
	assert.Equal(t, int32(256), wide.Value)
	assert.Equal(t, 6, wide.Length)

	assert.Equal(t, GOTO, insns[7].Opcode)
	assert.Equal(t, 26, insns[7].Target)
}

func TestDisassembleLookupSwitch(t *testing.T) {
	code := []byte{
		0x1a,             // 0: iload_0
		0xab, 0, 0,       // 1: lookupswitch
		0, 0, 0, 27,      // default -> 28
		0, 0, 0, 2,       // pairs
		0xff, 0xff, 0xff, 0xff, 0, 0, 0, 27, // -1 -> 28
		0, 0, 0, 100, 0, 0, 0, 28, // 100 -> 29
		0xb1, // 28
		0xb1, // 29
	}
	insns, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, insns, 4)
	sw := insns[1].Switch
	require.NotNil(t, sw)
	assert.Equal(t, []int32{-1, 100}, sw.Keys)
	assert.Equal(t, []int{28, 29}, sw.Targets)
}

func TestDisassembleErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		kind failure.Kind
	}{
		{"unknown opcode", []byte{0x00, 0xcb}, failure.KindUnknownInstruction},
		{"truncated sipush", []byte{0x11, 0x01}, failure.KindDisassembly},
		{"jump into operand", []byte{0x10, 0x01, 0xa7, 0xff, 0xff}, failure.KindDisassembly},
		{"illegal wide", []byte{0xc4, 0x60, 0x00, 0x01}, failure.KindDisassembly},
		{"bad newarray type", []byte{0x03, 0xbc, 0x02}, failure.KindDisassembly},
	}
	for _, test := range tests {
		_, err := Disassemble(test.code)
		require.Error(t, err, test.name)
		require.Equal(t, test.kind, failure.KindOf(err), test.name)
	}
}

func TestFlags(t *testing.T) {
	assert.Equal(t, []string{"public", "abstract"}, Modifiers(AccPublic|AccAbstract|AccSuper, EntryClass))
	assert.Equal(t, []string{"protected", "static", "synchronized"}, Modifiers(AccStatic|AccProtected|AccSynchronized, EntryMethod))
	assert.Empty(t, Modifiers(AccSynthetic, EntryField))

	tests := []struct {
		flags uint16
		kind  EntryKind
		valid bool
	}{
		{AccPublic | AccStatic, EntryMethod, true},
		{AccPublic | AccPrivate, EntryMethod, false},
		{AccAbstract | AccStatic, EntryMethod, false},
		{AccAbstract | AccPublic, EntryMethod, true},
		{AccFinal | AccVolatile, EntryField, false},
		{AccFinal | AccAbstract, EntryClass, false},
		{AccAnnotation, EntryClass, false},
		{AccAnnotation | AccInterface | AccAbstract, EntryClass, true},
	}
	for _, test := range tests {
		err := ValidateFlags(test.flags, test.kind)
		if test.valid {
			require.NoError(t, err, "0x%04x", test.flags)
			continue
		}
		require.True(t, failure.Is(err, failure.KindIllegalModifiers), "0x%04x", test.flags)
	}
}

func TestCollectReferences(t *testing.T) {
	c, err := Parse(testClassBytes())
	require.NoError(t, err)
	refs, err := c.CollectReferences()
	require.NoError(t, err)
	require.Equal(t, []MethodCall{{Op: INVOKEVIRTUAL, Caller: "run()V", Owner: "com/example/Main", Method: "run", Args: "()V"}}, refs.Internal)
	require.Equal(t, []MethodCall{{Op: INVOKEVIRTUAL, Caller: "run()V", Owner: "java/io/PrintStream", Method: "println", Args: "()V"}}, refs.Library)
}

func TestNewConstantPool(t *testing.T) {
	pool, idx, err := NewConstantPool(
		"hello",
		int32(-5),
		math.Pi,
		ClassRef{Name: "java/util/List"},
		MemberRef{Owner: "java/util/List", Name: "size", Descriptor: "()I", Interface: true},
		MemberRef{Owner: "java/lang/System", Name: "out", Descriptor: "Ljava/io/PrintStream;"},
		DynamicRef{BootstrapIndex: 1, Name: "run", Descriptor: "()Ljava/lang/Runnable;"},
	)
	require.NoError(t, err)

	v, err := pool.Literal(idx[0])
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	v, err = pool.Literal(idx[1])
	require.NoError(t, err)
	assert.Equal(t, int32(-5), v)
	v, err = pool.Literal(idx[2])
	require.NoError(t, err)
	assert.Equal(t, math.Pi, v)
	v, err = pool.Literal(idx[3])
	require.NoError(t, err)
	assert.Equal(t, ClassRef{Name: "java/util/List"}, v)

	m, err := pool.Member(idx[4])
	require.NoError(t, err)
	assert.Equal(t, MemberRef{Owner: "java/util/List", Name: "size", Descriptor: "()I", Interface: true}, m)
	f, err := pool.Member(idx[5])
	require.NoError(t, err)
	assert.Equal(t, "out", f.Name)
	d, err := pool.Dynamic(idx[6])
	require.NoError(t, err)
	assert.Equal(t, DynamicRef{BootstrapIndex: 1, Name: "run", Descriptor: "()Ljava/lang/Runnable;"}, d)

	_, err = pool.Member(idx[0])
	require.Error(t, err)
}

func TestDecodeModifiedUTF8(t *testing.T) {
	// U+1F600 as a surrogate pair of three byte sequences
	s, err := decodeModifiedUTF8([]byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80, 'x'})
	require.NoError(t, err)
	require.Equal(t, "\U0001F600x", s)
	_, err = decodeModifiedUTF8([]byte{0xe2, 0x82})
	require.Error(t, err)
}
