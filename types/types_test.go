package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/failure"
)

func TestParse(t *testing.T) {
	tests := []struct {
		desc     string // desc is the field descriptor
		expected Type   // expected is the parsed type
	}{
		{"I", Int},
		{"Z", Boolean},
		{"J", Long},
		{"Ljava/lang/String;", String},
		{"[I", ArrayOf(Int)},
		{"[[Ljava/util/List;", ArrayOf(ArrayOf(ClassOf("java/util/List")))},
	}
	for _, test := range tests {
		parsed, err := Parse(test.desc)
		require.NoError(t, err, test.desc)
		require.Equal(t, test.expected, parsed, test.desc)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, desc := range []string{"", "Q", "Ljava/lang/String", "L;", "II", "[V", "[", "(I"} {
		_, err := Parse(desc)
		require.Error(t, err, desc)
		require.True(t, failure.Is(err, failure.KindInvalidDescriptor), desc)
	}
}

func TestParseMethod(t *testing.T) {
	args, ret, err := ParseMethod("(IJLjava/lang/String;[D)V")
	require.NoError(t, err)
	require.Equal(t, []Type{Int, Long, String, ArrayOf(Double)}, args)
	require.Equal(t, Type(Void), ret)

	for _, desc := range []string{"I)V", "(I", "(V)V", "(I)", "(I)VV", "()Q"} {
		_, _, err := ParseMethod(desc)
		require.True(t, failure.Is(err, failure.KindInvalidDescriptor), desc)
	}
}

func TestClassNames(t *testing.T) {
	inner := ClassOf("com/example/Outer$Inner")
	assert.Equal(t, "Inner", inner.SimpleName())
	assert.Equal(t, "com.example", inner.Package())
	assert.Equal(t, "com.example.Outer.Inner", inner.QualifiedName())
	assert.Equal(t, ClassOf("com/example/Outer"), inner.Outer())
	assert.Nil(t, String.Outer())
	assert.True(t, ClassOf("com/example/Outer$1").IsAnonymous())
	assert.Equal(t, "", ClassOf("Main").Package())
}

func TestVarName(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Int, "n"},
		{Boolean, "flag"},
		{Integral, "n"},
		{String, "string"},
		{StringBuilder, "stringBuilder"},
		{ClassOf("java/net/URLConnection"), "urlConnection"},
		{ClassOf("com/example/URL"), "url"},
		{ClassClass, "clazz"},
		{ClassOf("com/example/Outer$1"), "outer"},
		{ArrayOf(Int), "intArray"},
		{ArrayOf(String), "stringArray"},
		{Null, "obj"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.typ.VarName(), test.typ.String())
	}
}

func TestIntegralOf(t *testing.T) {
	assert.Equal(t, PrimitiveOf(KindBoolean|KindByte|KindShort|KindChar|KindInt), IntegralOf(1))
	assert.Equal(t, PrimitiveOf(KindByte|KindShort|KindInt), IntegralOf(-1))
	assert.Equal(t, PrimitiveOf(KindShort|KindChar|KindInt), IntegralOf(200))
	assert.Equal(t, PrimitiveOf(KindChar|KindInt), IntegralOf(40000))
	assert.Equal(t, Int, IntegralOf(-40000))
}

func TestNarrow(t *testing.T) {
	tests := []struct {
		from     Type
		required Type
		expected Type
	}{
		{IntegralOf(1), Boolean, Boolean},
		{IntegralOf(65), Char, Char},
		{IntegralOf(65), IntLike, PrimitiveOf(KindByte | KindShort | KindChar | KindInt)},
		{Char, Int, Char},
		{Byte, Int, Byte},
		{PrimitiveOf(KindBoolean | KindByte), Int, Byte},
		{Long, Long, Long},
		{Null, String, Null},
		{AnyObject, String, String},
		{String, ClassOf("java/lang/CharSequence"), String},
	}
	for _, test := range tests {
		narrowed, err := Narrow(test.from, test.required)
		require.NoError(t, err, "%s -> %s", test.from, test.required)
		require.Equal(t, test.expected, narrowed, "%s -> %s", test.from, test.required)
	}
}

func TestNarrowFailures(t *testing.T) {
	_, err := Narrow(Long, Int)
	require.True(t, failure.Is(err, failure.KindTypeSizeMismatch))
	_, err = Narrow(Int, Double)
	require.True(t, failure.Is(err, failure.KindTypeSizeMismatch))
	_, err = Narrow(Boolean, Int)
	require.True(t, failure.Is(err, failure.KindIncompatibleType))
	_, err = Narrow(Int, String)
	require.True(t, failure.Is(err, failure.KindIncompatibleType))
	_, err = Narrow(Float, Int)
	require.True(t, failure.Is(err, failure.KindIncompatibleType))
}

func TestResolveAndMerge(t *testing.T) {
	assert.Equal(t, Type(Int), Resolve(Integral))
	assert.Equal(t, Type(Char), Resolve(PrimitiveOf(KindChar|KindBoolean)))
	assert.Equal(t, Type(Object), Resolve(Null))
	assert.Equal(t, Type(String), Merge(Null, String))
	assert.Equal(t, Type(Object), Merge(String, StringBuilder))
	assert.Equal(t, Type(Char), Merge(IntegralOf(65), Char))
}

func TestClassInterningIsConcurrent(t *testing.T) {
	const workers = 16
	results := make([]*Class, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ClassOf("com/example/Concurrent")
		}(i)
	}
	wg.Wait()
	for _, c := range results {
		require.Same(t, results[0], c)
	}
	require.Same(t, ArrayOf(String), ArrayOf(String))
}
