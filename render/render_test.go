package render

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/types"
)

func TestClassContextImports(t *testing.T) {
	ctx := NewClassContext(types.ClassOf("com/example/Main"), false)

	assert.Equal(t, "String", ctx.TypeName(types.String))
	assert.Equal(t, "List", ctx.TypeName(types.ClassOf("java/util/List")))
	assert.Equal(t, "java.awt.List", ctx.TypeName(types.ClassOf("java/awt/List")))
	assert.Equal(t, "Helper", ctx.TypeName(types.ClassOf("com/example/Helper")))
	assert.Equal(t, "Map.Entry", ctx.TypeName(types.ClassOf("java/util/Map$Entry")))
	assert.Equal(t, "int[][]", ctx.TypeName(types.ArrayOf(types.ArrayOf(types.Int))))
	assert.Equal(t, "Main", ctx.TypeName(types.ClassOf("com/example/Main")))
	assert.Equal(t, "Main.Inner", ctx.TypeName(types.ClassOf("com/example/Main$Inner")))
	assert.Equal(t, "other.Main", ctx.TypeName(types.ClassOf("other/Main")))

	require.Equal(t, []string{"java.util.List", "java.util.Map"}, ctx.Imports())
}

func TestClassContextImportNested(t *testing.T) {
	ctx := NewClassContext(types.ClassOf("com/example/Main"), true)
	assert.Equal(t, "Entry", ctx.TypeName(types.ClassOf("java/util/Map$Entry")))
	require.Equal(t, []string{"java.util.Map.Entry"}, ctx.Imports())
}

func TestClassContextConcurrentUse(t *testing.T) {
	ctx := NewClassContext(types.ClassOf("Main"), false)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.TypeName(types.ClassOf("java/util/ArrayList"))
		}()
	}
	wg.Wait()
	require.Equal(t, []string{"java.util.ArrayList"}, ctx.Imports())
}

func TestWriterIndentation(t *testing.T) {
	w := NewWriter(nil, "\t")
	w.Write("class A {")
	w.NewLine()
	w.Indent()
	w.Write("int ", "x;")
	w.NewLine()
	w.Unindent()
	w.Write("}")
	require.Equal(t, "class A {\n\tint x;\n}", w.String())
}

func TestPriority(t *testing.T) {
	assert.True(t, NeedsParens(Additive, Multiplicative))
	assert.False(t, NeedsParens(Multiplicative, Additive))
	assert.False(t, NeedsParens(Additive, Additive))
	assert.Equal(t, Multiplicative, Additive.Next())
	assert.Equal(t, Primary, Primary.Next())
}
