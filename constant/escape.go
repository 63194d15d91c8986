package constant

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

var namedEscapes = map[uint16]string{
	'\b': `\b`,
	'\t': `\t`,
	'\n': `\n`,
	'\f': `\f`,
	'\r': `\r`,
	'\\': `\\`,
}

// QuoteString renders s as a double quoted string literal.
//
// Control and non-printable characters up to \377 use the shortest octal escape unless the
// next character is a digit, which would extend the octal escape; those and every other
// non-printable character use a unicode escape.
func QuoteString(s string) string {
	units := utf16.Encode([]rune(s))
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u == '"' {
			b.WriteString(`\"`)
			continue
		}
		if esc, ok := namedEscapes[u]; ok {
			b.WriteString(esc)
			continue
		}
		if utf16.IsSurrogate(rune(u)) {
			if i+1 < len(units) {
				if r := utf16.DecodeRune(rune(u), rune(units[i+1])); r != unicode.ReplacementChar {
					if unicode.IsPrint(r) {
						b.WriteRune(r)
					} else {
						writeUnicodeEscape(&b, u)
						writeUnicodeEscape(&b, units[i+1])
					}
					i++
					continue
				}
			}
			writeUnicodeEscape(&b, u)
			continue
		}
		if isPrintable(u) {
			b.WriteRune(rune(u))
			continue
		}
		nextIsDigit := i+1 < len(units) && units[i+1] >= '0' && units[i+1] <= '9'
		if u <= 0377 && !nextIsDigit {
			b.WriteByte('\\')
			b.WriteString(strconv.FormatUint(uint64(u), 8))
		} else {
			writeUnicodeEscape(&b, u)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteChar renders a UTF-16 code unit as a single quoted char literal
func QuoteChar(u uint16) string {
	var b strings.Builder
	b.WriteByte('\'')
	switch {
	case u == '\'':
		b.WriteString(`\'`)
	case namedEscapes[u] != "":
		b.WriteString(namedEscapes[u])
	case utf16.IsSurrogate(rune(u)) || !isPrintable(u):
		if u <= 0377 {
			b.WriteByte('\\')
			b.WriteString(strconv.FormatUint(uint64(u), 8))
		} else {
			writeUnicodeEscape(&b, u)
		}
	default:
		b.WriteRune(rune(u))
	}
	b.WriteByte('\'')
	return b.String()
}

func isPrintable(u uint16) bool {
	if u < 0x20 || u == 0x7f {
		return false
	}
	return unicode.IsPrint(rune(u))
}

func writeUnicodeEscape(b *strings.Builder, u uint16) {
	hex := strconv.FormatUint(uint64(u), 16)
	b.WriteString(`\u`)
	b.WriteString(strings.Repeat("0", 4-len(hex)))
	b.WriteString(hex)
}

// formatFloating formats a finite floating point value the way the source language prints
// it: plain decimal within [1e-3, 1e7), scientific notation with an E exponent otherwise,
// always with a fractional part.
func formatFloating(v float64, bitSize int) string {
	abs := math.Abs(v)
	if abs == 0 || abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, bitSize)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, bitSize)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.ContainsRune(mantissa, '.') {
		mantissa += ".0"
	}
	expValue, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(expValue)
}
