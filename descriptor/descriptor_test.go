package descriptor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/types"
)

var owner = types.ClassOf("com/example/Main")

// mapTable is a variable table keyed by slot, visible for every pc
type mapTable map[int]string

func (t mapTable) Lookup(slot, _ int) (string, bool) {
	name, ok := t[slot]
	return name, ok
}

func TestNewMethodValidation(t *testing.T) {
	tests := []struct {
		name  string // name is the method name
		desc  string // desc is the method descriptor
		valid bool   // valid tells whether the descriptor passes validation
	}{
		{ConstructorName, "(I)V", true},
		{ConstructorName, "()I", false},
		{StaticInitializerName, "()V", true},
		{StaticInitializerName, "(I)V", false},
		{StaticInitializerName, "()Z", false},
		{"run", "()Ljava/lang/String;", true},
		{"run", "(", false},
	}
	for _, test := range tests {
		m, err := NewMethod(owner, test.name, test.desc)
		if test.valid {
			require.NoError(t, err, "%s%s", test.name, test.desc)
			require.Equal(t, test.desc, m.Descriptor())
			continue
		}
		require.True(t, failure.Is(err, failure.KindInvalidDescriptor), "%s%s", test.name, test.desc)
	}
}

func TestMethodBasics(t *testing.T) {
	m, err := NewMethod(owner, "sum", "(IJD)J")
	require.NoError(t, err)
	assert.Equal(t, 5, m.ArgsSize(true))
	assert.Equal(t, 6, m.ArgsSize(false))
	assert.Equal(t, "com/example/Main.sum(IJD)J", m.String())

	same, err := NewMethod(owner, "sum", "(IJD)J")
	require.NoError(t, err)
	assert.True(t, m.Equal(same))
	other, err := NewMethod(types.Object, "sum", "(IJD)J")
	require.NoError(t, err)
	assert.False(t, m.Equal(other))
	assert.True(t, m.SameSignature(other))

	f, err := NewField(owner, "count", "I")
	require.NoError(t, err)
	assert.Equal(t, "com/example/Main.count:I", f.String())
	_, err = NewField(owner, "bad", "V")
	require.True(t, failure.Is(err, failure.KindInvalidDescriptor))
}

func TestArgNamesSynthesized(t *testing.T) {
	tests := []struct {
		desc     string
		expected []string
	}{
		{"()V", []string{}},
		{"(I)V", []string{"n"}},
		{"(IILjava/lang/String;I)V", []string{"n", "n1", "string", "n2"}},
		{"(Ljava/lang/String;Ljava/lang/String;)V", []string{"string", "string1"}},
		{"(JDZ[I)V", []string{"l", "d", "flag", "intArray"}},
	}
	for _, test := range tests {
		m, err := NewMethod(owner, "f", test.desc)
		require.NoError(t, err)
		require.Equal(t, test.expected, m.ArgNames(nil, true), test.desc)
	}
}

func TestArgNamesAreUnique(t *testing.T) {
	// Vec2 defaults to vec2, which a suffixed vec must not reuse
	m, err := NewMethod(owner, "f", "(Lcom/example/Vec;Lcom/example/Vec;Lcom/example/Vec2;)V")
	require.NoError(t, err)
	names := m.ArgNames(nil, true)
	require.Equal(t, "vec", names[0])
	seen := map[string]bool{}
	for _, name := range names {
		require.False(t, seen[name], "duplicate name %s in %v", name, names)
		seen[name] = true
	}

	descs := []string{"(IIIIIIIIIIII)V", "(CCSSBB)V", "(Ljava/util/List;Ljava/util/List;[Ljava/util/List;)V"}
	for _, desc := range descs {
		m, err := NewMethod(owner, "f", desc)
		require.NoError(t, err)
		names := m.ArgNames(nil, false)
		require.Len(t, names, len(m.Args))
		seen := map[string]bool{}
		for _, name := range names {
			require.False(t, seen[name], fmt.Sprintf("duplicate %s in %v", name, names))
			seen[name] = true
		}
	}
}

func TestArgNamesFromTable(t *testing.T) {
	m, err := NewMethod(owner, "f", "(JILjava/lang/String;)V")
	require.NoError(t, err)

	// Instance method: this in slot 0, the long occupies slots 1-2
	table := mapTable{0: "this", 1: "timestamp", 3: "count", 4: "label"}
	require.Equal(t, []string{"timestamp", "count", "label"}, m.ArgNames(table, false))

	// Static method with a missing entry falls back to synthesis
	table = mapTable{0: "timestamp", 3: "n"}
	require.Equal(t, []string{"timestamp", "n1", "n"}, m.ArgNames(table, true))
}

func TestNamer(t *testing.T) {
	n := NewNamer()
	n.Take("this")
	assert.Equal(t, "n", n.Name("n"))
	assert.Equal(t, "n1", n.Name("n"))
	n.Reserve("n2")
	assert.Equal(t, "n3", n.Name("n"))
	assert.Equal(t, "this1", n.Name("this"))
	assert.True(t, n.IsUsed("n1"))
}
