package decompiler

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/config"
	"github.com/petr590/NewYava-sub001/failure"
)

const (
	pub    = classfile.AccPublic
	priv   = classfile.AccPrivate
	static = classfile.AccStatic
	final  = classfile.AccFinal
)

func op(ops ...classfile.Opcode) []byte {
	res := make([]byte, len(ops))
	for i, o := range ops {
		res[i] = byte(o)
	}
	return res
}

func u16(o classfile.Opcode, v int) []byte {
	return []byte{byte(o), byte(v >> 8), byte(v)}
}

func code(parts ...[]byte) *classfile.Code {
	var bytecode []byte
	for _, p := range parts {
		bytecode = append(bytecode, p...)
	}
	return &classfile.Code{Bytecode: bytecode}
}

func pool(t *testing.T, values ...interface{}) (*classfile.ConstantPool, []int) {
	t.Helper()
	p, indexes, err := classfile.NewConstantPool(values...)
	require.NoError(t, err)
	return p, indexes
}

func emptyPool() *classfile.ConstantPool {
	p, _, _ := classfile.NewConstantPool()
	return p
}

// defaultConstructor is the constructor javac generates for a class without one
func defaultConstructor(superInit int) *classfile.Method {
	return &classfile.Method{
		AccessFlags: pub,
		Name:        "<init>",
		Descriptor:  "()V",
		Code:        code(op(classfile.ALOAD_0), u16(classfile.INVOKESPECIAL, superInit), op(classfile.RETURN)),
	}
}

func TestDecompileClass(t *testing.T) {
	p, idx := pool(t, classfile.MemberRef{Owner: "java/lang/Object", Name: "<init>", Descriptor: "()V"})
	cls := &classfile.Class{
		Pool:        p,
		AccessFlags: pub | classfile.AccSuper,
		ThisClass:   "com/example/Main",
		SuperClass:  "java/lang/Object",
		Fields: []*classfile.Field{
			{AccessFlags: priv | static | final, Name: "MAX", Descriptor: "I", ConstantValue: int32(10)},
			{AccessFlags: priv, Name: "names", Descriptor: "Ljava/util/List;"},
		},
		Methods: []*classfile.Method{
			defaultConstructor(idx[0]),
			{
				AccessFlags: pub | static,
				Name:        "twice",
				Descriptor:  "(I)I",
				Code:        code(op(classfile.ILOAD_0, classfile.ICONST_2, classfile.IMUL, classfile.IRETURN)),
			},
			{AccessFlags: pub | classfile.AccAbstract | classfile.AccVarargs, Name: "log", Descriptor: "([Ljava/lang/String;)V"},
		},
	}
	res := New(nil, nil).Decompile(cls)
	require.False(t, res.Failed(), "%v", res.Failures)
	assert.Equal(t, "com/example/Main", res.Name)
	assert.Equal(t, []string{"java.util.List"}, res.Imports)

	expected := "package com.example;\n" +
		"\n" +
		"import java.util.List;\n" +
		"\n" +
		"public class Main {\n" +
		"    private static final int MAX = 10;\n" +
		"    private List names;\n" +
		"\n" +
		"    public static int twice(int n) {\n" +
		"        return n * 2;\n" +
		"    }\n" +
		"\n" +
		"    public abstract void log(String... stringArray);\n" +
		"}\n"
	assert.Equal(t, expected, res.Source)
}

func TestDecompileIsolatesFailures(t *testing.T) {
	cls := &classfile.Class{
		Pool:        emptyPool(),
		AccessFlags: pub,
		ThisClass:   "Main",
		SuperClass:  "java/lang/Object",
		Methods: []*classfile.Method{
			{AccessFlags: static, Name: "broken", Descriptor: "()V", Code: code(op(classfile.IADD, classfile.RETURN))},
			{AccessFlags: static, Name: "zero", Descriptor: "()I", Code: code(op(classfile.ICONST_0, classfile.IRETURN))},
		},
	}
	cfg := config.Default()
	cfg.SkipStackTrace = true
	cfg.Indent = "\t"
	res := New(cfg, nil).Decompile(cls)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken", res.Failures[0].Name)
	assert.Equal(t, "()V", res.Failures[0].Descriptor)
	assert.Equal(t, failure.KindStackUnderflow, res.Failures[0].Kind())

	assert.Contains(t, res.Source, "\tstatic void broken() {\n\t\t// Failed to decompile: stack-underflow: ")
	assert.NotContains(t, res.Source, stackLine)
	assert.Contains(t, res.Source, "\tstatic int zero() {\n\t\treturn 0;\n\t}\n")
}

func TestDecompileStackTrace(t *testing.T) {
	cls := &classfile.Class{
		Pool:       emptyPool(),
		ThisClass:  "Main",
		SuperClass: "java/lang/Object",
		Methods: []*classfile.Method{
			{AccessFlags: static, Name: "broken", Descriptor: "()V", Code: code(op(classfile.POP, classfile.RETURN))},
		},
	}
	res := New(nil, nil).Decompile(cls)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Source, stackLine)
}

func TestDecompileIllegalModifiers(t *testing.T) {
	cls := &classfile.Class{
		Pool:       emptyPool(),
		ThisClass:  "Main",
		SuperClass: "java/lang/Object",
		Methods: []*classfile.Method{
			{AccessFlags: pub | priv | static, Name: "run", Descriptor: "()V", Code: code(op(classfile.RETURN))},
		},
	}
	res := New(nil, nil).Decompile(cls)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, failure.KindIllegalModifiers, res.Failures[0].Kind())
	assert.Contains(t, res.Source, "public private static void run() {}")
}

func TestDecompileInterface(t *testing.T) {
	p, idx := pool(t, "shape")
	cls := &classfile.Class{
		Pool:        p,
		AccessFlags: pub | classfile.AccInterface | classfile.AccAbstract,
		ThisClass:   "com/example/Shape",
		SuperClass:  "java/lang/Object",
		Interfaces:  []string{"java/lang/Comparable"},
		Methods: []*classfile.Method{
			{AccessFlags: pub | classfile.AccAbstract, Name: "area", Descriptor: "()D"},
			{
				AccessFlags: pub,
				Name:        "name",
				Descriptor:  "()Ljava/lang/String;",
				Code:        code([]byte{byte(classfile.LDC), byte(idx[0])}, op(classfile.ARETURN)),
			},
		},
	}
	res := New(nil, nil).Decompile(cls)
	require.False(t, res.Failed(), "%v", res.Failures)
	expected := "package com.example;\n" +
		"\n" +
		"public interface Shape extends Comparable {\n" +
		"    double area();\n" +
		"\n" +
		"    default String name() {\n" +
		"        return \"shape\";\n" +
		"    }\n" +
		"}\n"
	assert.Equal(t, expected, res.Source)
}

func TestDecompileEnum(t *testing.T) {
	const color = "com/example/Color"
	p, idx := pool(t,
		classfile.ClassRef{Name: color},
		"RED",
		classfile.MemberRef{Owner: color, Name: "<init>", Descriptor: "(Ljava/lang/String;I)V"},
		classfile.MemberRef{Owner: color, Name: "RED", Descriptor: "Lcom/example/Color;"},
		"GREEN",
		classfile.MemberRef{Owner: color, Name: "GREEN", Descriptor: "Lcom/example/Color;"},
		classfile.MemberRef{Owner: "java/lang/Enum", Name: "<init>", Descriptor: "(Ljava/lang/String;I)V"},
	)
	constant := func(name, field int, ordinal classfile.Opcode) []byte {
		var res []byte
		res = append(res, u16(classfile.NEW, idx[0])...)
		res = append(res, byte(classfile.DUP), byte(classfile.LDC), byte(idx[name]), byte(ordinal))
		res = append(res, u16(classfile.INVOKESPECIAL, idx[2])...)
		return append(res, u16(classfile.PUTSTATIC, idx[field])...)
	}
	enumFlags := uint16(pub | static | final | classfile.AccEnum)
	cls := &classfile.Class{
		Pool:        p,
		AccessFlags: pub | final | classfile.AccSuper | classfile.AccEnum,
		ThisClass:   color,
		SuperClass:  "java/lang/Enum",
		Fields: []*classfile.Field{
			{AccessFlags: enumFlags, Name: "RED", Descriptor: "Lcom/example/Color;"},
			{AccessFlags: enumFlags, Name: "GREEN", Descriptor: "Lcom/example/Color;"},
			{AccessFlags: priv | static | final | classfile.AccSynthetic, Name: "$VALUES", Descriptor: "[Lcom/example/Color;"},
		},
		Methods: []*classfile.Method{
			{AccessFlags: pub | static, Name: "values", Descriptor: "()[Lcom/example/Color;", Code: code(op(classfile.ACONST_NULL, classfile.ARETURN))},
			{
				AccessFlags: priv,
				Name:        "<init>",
				Descriptor:  "(Ljava/lang/String;I)V",
				Code: code(op(classfile.ALOAD_0, classfile.ALOAD_1, classfile.ILOAD_2),
					u16(classfile.INVOKESPECIAL, idx[6]), op(classfile.RETURN)),
			},
			{
				AccessFlags: static,
				Name:        "<clinit>",
				Descriptor:  "()V",
				Code: code(constant(1, 3, classfile.ICONST_0), constant(4, 5, classfile.ICONST_1),
					op(classfile.RETURN)),
			},
		},
	}
	d := New(nil, nil)
	d.Register(cls)
	names, ok := d.maps.EnumConstants(color)
	require.True(t, ok)
	assert.Equal(t, []string{"RED", "GREEN"}, names)

	res := d.Decompile(cls)
	require.False(t, res.Failed(), "%v", res.Failures)
	expected := "package com.example;\n" +
		"\n" +
		"public enum Color {\n" +
		"    RED, GREEN;\n" +
		"}\n"
	assert.Equal(t, expected, res.Source)
}

func TestSwitchMaps(t *testing.T) {
	const (
		owner = "com/example/Main$1"
		field = "$SwitchMap$com$example$Color"
	)
	p, idx := pool(t,
		classfile.MemberRef{Owner: owner, Name: field, Descriptor: "[I"},
		classfile.MemberRef{Owner: "com/example/Color", Name: "RED", Descriptor: "Lcom/example/Color;"},
		classfile.MemberRef{Owner: "com/example/Color", Name: "GREEN", Descriptor: "Lcom/example/Color;"},
		classfile.MemberRef{Owner: "com/example/Color", Name: "ordinal", Descriptor: "()I"},
	)
	store := func(constant int, value classfile.Opcode) []byte {
		var res []byte
		res = append(res, u16(classfile.GETSTATIC, idx[0])...)
		res = append(res, u16(classfile.GETSTATIC, idx[constant])...)
		res = append(res, u16(classfile.INVOKEVIRTUAL, idx[3])...)
		return append(res, byte(value), byte(classfile.IASTORE))
	}
	cls := &classfile.Class{
		Pool:        p,
		AccessFlags: classfile.AccSynthetic,
		ThisClass:   owner,
		SuperClass:  "java/lang/Object",
		Fields: []*classfile.Field{
			{AccessFlags: static | final | classfile.AccSynthetic, Name: field, Descriptor: "[I"},
		},
		Methods: []*classfile.Method{
			{AccessFlags: static, Name: "<clinit>", Descriptor: "()V", Code: code(store(1, classfile.ICONST_1), store(2, classfile.ICONST_2), op(classfile.RETURN))},
		},
	}
	maps := newSwitchMaps()
	require.NoError(t, maps.register(cls))
	m, ok := maps.Lookup(owner, field)
	require.True(t, ok)
	assert.Equal(t, map[int32]string{1: "RED", 2: "GREEN"}, m)

	_, ok = maps.Lookup(owner, "$SwitchMap$other")
	assert.False(t, ok)
}

func TestDecompileAll(t *testing.T) {
	classes := []*classfile.Class{
		{Pool: emptyPool(), ThisClass: "a/First", SuperClass: "java/lang/Object"},
		{Pool: emptyPool(), ThisClass: "b/Second", SuperClass: "java/lang/Object"},
		{Pool: emptyPool(), ThisClass: "Third", SuperClass: "a/First"},
	}
	cfg := config.Default()
	cfg.Workers = 2
	results, err := New(cfg, nil).DecompileAll(context.Background(), classes)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, classes[i].ThisClass, res.Name)
	}
	assert.Equal(t, "package b;\n\nclass Second {\n}\n", results[1].Source)
	assert.Equal(t, "import a.First;\n\nclass Third extends First {\n}\n", results[2].Source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(cfg, nil).DecompileAll(ctx, classes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecompileAllUnsetWorkers(t *testing.T) {
	classes := []*classfile.Class{
		{Pool: emptyPool(), ThisClass: "a/First", SuperClass: "java/lang/Object"},
		{Pool: emptyPool(), ThisClass: "a/Second", SuperClass: "java/lang/Object"},
	}
	d := New(&config.Config{Indent: "    "}, nil)
	assert.Equal(t, runtime.GOMAXPROCS(0), d.workers())

	done := make(chan []*Result, 1)
	go func() {
		results, err := d.DecompileAll(context.Background(), classes)
		assert.NoError(t, err)
		done <- results
	}()
	select {
	case results := <-done:
		require.Len(t, results, 2)
		assert.Equal(t, "package a;\n\nclass Second {\n}\n", results[1].Source)
	case <-time.After(5 * time.Second):
		t.Fatal("DecompileAll did not return")
	}
}

func TestDecompileOrdinalSwitch(t *testing.T) {
	const color = "com/example/Color"
	enum := &classfile.Class{
		Pool:        emptyPool(),
		AccessFlags: pub | final | classfile.AccEnum,
		ThisClass:   color,
		SuperClass:  "java/lang/Enum",
		Fields: []*classfile.Field{
			{AccessFlags: pub | static | final | classfile.AccEnum, Name: "RED", Descriptor: "Lcom/example/Color;"},
			{AccessFlags: pub | static | final | classfile.AccEnum, Name: "GREEN", Descriptor: "Lcom/example/Color;"},
		},
	}
	p, idx := pool(t, classfile.MemberRef{Owner: color, Name: "ordinal", Descriptor: "()I"})
	tableSwitch := []byte{
		byte(classfile.TABLESWITCH), 0, 0, 0,
		0, 0, 0, 28, // default
		0, 0, 0, 0,  // low
		0, 0, 0, 1,  // high
		0, 0, 0, 24,
		0, 0, 0, 26,
	}
	main := &classfile.Class{
		Pool:       p,
		ThisClass:  "com/example/Main",
		SuperClass: "java/lang/Object",
		Methods: []*classfile.Method{
			{
				AccessFlags: static,
				Name:        "code",
				Descriptor:  "(Lcom/example/Color;)I",
				Code: code(op(classfile.ALOAD_0), u16(classfile.INVOKEVIRTUAL, idx[0]), tableSwitch,
					op(classfile.ICONST_1, classfile.IRETURN, classfile.ICONST_2, classfile.IRETURN, classfile.ICONST_0, classfile.IRETURN)),
			},
		},
	}
	results, err := New(nil, nil).DecompileAll(context.Background(), []*classfile.Class{enum, main})
	require.NoError(t, err)
	require.False(t, results[1].Failed(), "%v", results[1].Failures)
	expected := "    static int code(Color color) {\n" +
		"        switch (color) {\n" +
		"            case RED:\n" +
		"                return 1;\n" +
		"            case GREEN:\n" +
		"                return 2;\n" +
		"        }\n" +
		"        return 0;\n" +
		"    }\n"
	assert.Contains(t, results[1].Source, expected)
}

func TestDecompileNineOfTen(t *testing.T) {
	cls := &classfile.Class{
		Pool:       emptyPool(),
		ThisClass:  "Main",
		SuperClass: "java/lang/Object",
	}
	for i := 0; i < 10; i++ {
		m := &classfile.Method{
			AccessFlags: static,
			Name:        fmt.Sprintf("m%d", i),
			Descriptor:  "()I",
			Code:        code(op(classfile.BIPUSH), []byte{byte(i)}, op(classfile.IRETURN)),
		}
		if i == 4 {
			m.Code = code([]byte{0xcb}, op(classfile.RETURN))
		}
		cls.Methods = append(cls.Methods, m)
	}
	res := New(nil, nil).Decompile(cls)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "m4", res.Failures[0].Name)
	assert.Equal(t, failure.KindUnknownInstruction, res.Failures[0].Kind())
	for i := 0; i < 10; i++ {
		if i == 4 {
			continue
		}
		assert.Contains(t, res.Source, fmt.Sprintf("static int m%d() {\n        return %d;\n    }\n", i, i))
	}
}
