package constant

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

func TestIntInterning(t *testing.T) {
	for v := int32(IntCacheLow); v <= IntCacheHigh; v++ {
		require.Same(t, IntOf(v), IntOf(v), "value %d", v)
	}
	require.NotSame(t, IntOf(1000), IntOf(1000))
	require.Same(t, LongOf(1), LongOf(1))
	require.Same(t, FloatOf(2), FloatOf(2))
	require.Same(t, DoubleOf(0), DoubleOf(0))
	require.Same(t, ClassOf(types.String), ClassOf(types.String))
}

func TestInterningIsConcurrent(t *testing.T) {
	const workers = 32
	results := make([]*Int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = IntOf(42)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Same(t, results[0], r)
	}
}

func TestFromValue(t *testing.T) {
	tests := []struct {
		raw      interface{} // raw is the constant pool value
		expected Constant    // expected is the resolved constant
	}{
		{int32(3), IntOf(3)},
		{int64(3), LongOf(3)},
		{float32(1), FloatOf(1)},
		{float64(1), DoubleOf(1)},
		{"text", StringOf("text")},
		{types.Type(types.String), ClassOf(types.String)},
	}
	for _, test := range tests {
		c, err := FromValue(test.raw)
		require.NoError(t, err)
		require.Equal(t, test.expected, c)
	}

	for _, raw := range []interface{}{nil, struct{}{}, types.Type(types.Int), true} {
		_, err := FromValue(raw)
		require.True(t, failure.Is(err, failure.KindUnsupportedConstant), "%v", raw)
	}
}

func writeConstant(c Constant, required types.Type) string {
	w := render.NewWriter(render.NewClassContext(types.ClassOf("com/example/Main"), false), "")
	c.Write(w, required)
	return w.String()
}

func TestWrite(t *testing.T) {
	tests := []struct {
		c        Constant
		required types.Type
		expected string
	}{
		{IntOf(1), types.Int, "1"},
		{IntOf(1), types.Boolean, "true"},
		{IntOf(0), types.Boolean, "false"},
		{IntOf(65), types.Char, "'A'"},
		{IntOf(10), types.Char, `'\n'`},
		{IntOf(39), types.Char, `'\''`},
		{IntOf(0), types.Char, `'\0'`},
		{IntOf(0x4e2d), types.Char, "'中'"},
		{IntOf(-5), types.Integral, "-5"},
		{IntOf(2147483647), types.Int, "Integer.MAX_VALUE"},
		{LongOf(10), types.Long, "10L"},
		{FloatOf(1.5), types.Float, "1.5f"},
		{FloatOf(2), types.Float, "2.0f"},
		{DoubleOf(0.1), types.Double, "0.1d"},
		{DoubleOf(1e10), types.Double, "1.0E10d"},
		{DoubleOf(1.5e-5), types.Double, "1.5E-5d"},
		{StringOf("a\"b\\c\n"), types.String, `"a\"b\\c\n"`},
		{ClassOf(types.ClassOf("java/util/List")), types.ClassClass, "List.class"},
		{ClassOf(types.ArrayOf(types.Int)), types.ClassClass, "int[].class"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, writeConstant(test.c, test.required))
	}
}

func TestQuoteStringOctalAmbiguity(t *testing.T) {
	assert.Equal(t, `"\u00012"`, QuoteString("\x012"))
	assert.Equal(t, `"\1a"`, QuoteString("\x01a"))
	assert.Equal(t, `"\0"`, QuoteString("\x00"))
	assert.Equal(t, `"\0\u00009"`, QuoteString("\x00\x009"))
	assert.Equal(t, `"\u2028"`, QuoteString("\u2028"))
	assert.Equal(t, `"😀"`, QuoteString("😀"))
}

// unquote parses the escapes produced by QuoteString back into a string
func unquote(t *testing.T, quoted string) string {
	require.True(t, strings.HasPrefix(quoted, `"`) && strings.HasSuffix(quoted, `"`))
	body := []rune(quoted[1 : len(quoted)-1])
	var units []uint16
	for i := 0; i < len(body); i++ {
		r := body[i]
		if r != '\\' {
			units = append(units, utf16.Encode([]rune{r})...)
			continue
		}
		i++
		switch body[i] {
		case 'b':
			units = append(units, '\b')
		case 't':
			units = append(units, '\t')
		case 'n':
			units = append(units, '\n')
		case 'f':
			units = append(units, '\f')
		case 'r':
			units = append(units, '\r')
		case '"', '\\', '\'':
			units = append(units, uint16(body[i]))
		case 'u':
			v, err := strconv.ParseUint(string(body[i+1:i+5]), 16, 16)
			require.NoError(t, err)
			units = append(units, uint16(v))
			i += 4
		default:
			// Octal escapes greedily consume up to three octal digits
			end := i
			for end < len(body) && end < i+3 && body[end] >= '0' && body[end] <= '7' {
				end++
			}
			v, err := strconv.ParseUint(string(body[i:end]), 8, 16)
			require.NoError(t, err)
			units = append(units, uint16(v))
			i = end - 1
		}
	}
	return string(utf16.Decode(units))
}

func TestQuoteStringRoundTrip(t *testing.T) {
	samples := []string{
		"",
		"plain text",
		"\x012",
		"\x01\x02\x03",
		"\x007\x1f0",
		"tab\tnew\nline\r\n",
		"quote \" and backslash \\",
		"\x7f\u0080\u009f",
		"unicode: привет, 中文, 😀",
		"\u200b\ufeff",
		"\x0012345",
	}
	for _, s := range samples {
		require.Equal(t, s, unquote(t, QuoteString(s)), "%q", s)
	}
}
