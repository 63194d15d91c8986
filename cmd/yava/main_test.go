package main

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helloCode is the body of Hello.one: return Math.abs(1)
var helloCode = []byte{0x04, 0xb8, 0x00, 0x0d, 0xac}

// helloClass returns the bytes of com/example/Hello with the single method one
func helloClass() []byte {
	var b []byte
	u8 := func(v ...byte) { b = append(b, v...) }
	u16 := func(v ...uint16) {
		for _, x := range v {
			b = binary.BigEndian.AppendUint16(b, x)
		}
	}
	u32 := func(v uint32) { b = binary.BigEndian.AppendUint32(b, v) }
	utf8 := func(s string) {
		u8(1)
		u16(uint16(len(s)))
		u8([]byte(s)...)
	}
	class := func(name uint16) {
		u8(7)
		u16(name)
	}
	ref := func(tag byte, owner, nat uint16) {
		u8(tag)
		u16(owner, nat)
	}

	u32(0xcafebabe)
	u16(0, 52)
	u16(14)
	utf8("com/example/Hello") // 1
	class(1)                  // 2
	utf8("java/lang/Object")  // 3
	class(3)                  // 4
	utf8("one")               // 5
	utf8("()I")               // 6
	utf8("Code")              // 7
	utf8("java/lang/Math")    // 8
	class(8)                  // 9
	utf8("abs")               // 10
	utf8("(I)I")              // 11
	ref(12, 10, 11)           // 12
	ref(10, 9, 12)            // 13

	u16(0x0021, 2, 4)
	u16(0) // interfaces
	u16(0) // fields
	u16(1) // methods
	u16(0x0009, 5, 6, 1)
	u16(7)
	u32(uint32(12 + len(helloCode)))
	u16(1, 0)
	u32(uint32(len(helloCode)))
	u8(helloCode...)
	u16(0, 0)
	u16(0) // attributes
	return b
}

func writeJar(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	entries := map[string][]byte{
		"META-INF/MANIFEST.MF":    []byte("Manifest-Version: 1.0\n"),
		"com/example/Hello.class": helloClass(),
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, log bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &log
	err := app.Run(append([]string{"yava"}, args...))
	return out.String(), err
}

func TestLoadClasses(t *testing.T) {
	dir := t.TempDir()
	writeJar(t, filepath.Join(dir, "lib.jar"))
	nested := filepath.Join(dir, "classes", "com", "example")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Hello.class"), helloClass(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("skip"), 0o644))

	classes, err := loadClasses([]string{dir})
	require.NoError(t, err)
	require.Len(t, classes, 2)
	for _, cls := range classes {
		assert.Equal(t, "com/example/Hello", cls.ThisClass)
	}

	_, err = loadClasses([]string{filepath.Join(dir, "missing.class")})
	assert.Error(t, err)

	broken := filepath.Join(dir, "Broken.class")
	require.NoError(t, os.WriteFile(broken, []byte{0xca, 0xfe}, 0o644))
	_, err = loadClasses([]string{broken})
	assert.ErrorContains(t, err, "failed to parse")
}

func TestDecompileCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hello.class")
	require.NoError(t, os.WriteFile(path, helloClass(), 0o644))

	out, err := run(t, "decompile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "// com/example/Hello\npackage com.example;\n")
	assert.Contains(t, out, "public class Hello {\n")
	assert.Contains(t, out, "    public static int one() {\n        return Math.abs(1);\n    }\n")

	target := filepath.Join(dir, "src")
	out, err = run(t, "decompile", "--out", target, path)
	require.NoError(t, err)
	assert.Empty(t, out)
	source, err := os.ReadFile(filepath.Join(target, "com", "example", "Hello.java"))
	require.NoError(t, err)
	assert.Contains(t, string(source), "return Math.abs(1);")
}

func TestDecompileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hello.class")
	require.NoError(t, os.WriteFile(path, helloClass(), 0o644))
	cfg := filepath.Join(dir, "yava.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("indent: \"\\t\"\nworkers: 1\n"), 0o644))

	out, err := run(t, "--config", cfg, "decompile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\tpublic static int one() {\n\t\treturn Math.abs(1);\n\t}\n")

	_, err = run(t, "--log-level", "loud", "decompile", path)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = run(t, "decompile")
	assert.ErrorContains(t, err, "no input path given")
}

func TestRefsCommand(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar)

	out, err := run(t, "refs", jar)
	require.NoError(t, err)
	assert.Equal(t, "com/example/Hello:\n  library  invokestatic java/lang/Math.abs(I)I from one()I\n", out)
}
