package phpparse

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/astrw/internal/ast"
)

// stringLiteral decodes single and double quoted strings. Interpolated strings are
// not constant and report false.
func (c *converter) stringLiteral(n *sitter.Node) (*ast.Node, bool) {
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "string_content", "string_value", "escape_sequence":
		default:
			return nil, false
		}
	}

	text := c.text(n)
	if len(text) > 0 && (text[0] == 'b' || text[0] == 'B') {
		text = text[1:]
	}
	if len(text) < 2 || text[0] != text[len(text)-1] {
		return nil, false
	}
	body := text[1 : len(text)-1]

	switch text[0] {
	case '\'':
		return ast.NewString(unquoteSingle(body)), true
	case '"':
		return ast.NewString(unquoteDouble(body)), true
	}
	return nil, false
}

// unquoteSingle handles the two escapes single-quoted strings know
func unquoteSingle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unquoteDouble decodes double-quoted escapes. Unknown escapes keep their backslash.
func unquoteDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'v':
			sb.WriteByte('\v')
		case 'e':
			sb.WriteByte(0x1b)
		case 'f':
			sb.WriteByte('\f')
		case '\\', '$', '"':
			sb.WriteByte(next)
		case 'x':
			if v, width := parseDigits(s[i+2:], 16, 2); width > 0 {
				sb.WriteByte(byte(v))
				i += 1 + width
				continue
			}
			sb.WriteString(`\x`)
		case 'u':
			if end := strings.IndexByte(s[i:], '}'); strings.HasPrefix(s[i+2:], "{") && end > 0 {
				if v, err := strconv.ParseUint(s[i+3:i+end], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
					sb.WriteRune(rune(v))
					i += end
					continue
				}
			}
			sb.WriteString(`\u`)
		default:
			if next >= '0' && next <= '7' {
				v, width := parseDigits(s[i+1:], 8, 3)
				sb.WriteByte(byte(v))
				i += width
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

// parseDigits reads up to limit digits in base from the start of s
func parseDigits(s string, base, limit int) (uint64, int) {
	width := 0
	for width < limit && width < len(s) && isDigit(s[width], base) {
		width++
	}
	if width == 0 {
		return 0, 0
	}
	v, _ := strconv.ParseUint(s[:width], base, 64)
	return v, width
}

func isDigit(b byte, base int) bool {
	switch {
	case b >= '0' && b <= '7':
		return true
	case b == '8' || b == '9':
		return base >= 10
	case base == 16 && (b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'):
		return true
	}
	return false
}

// intLiteral parses decimal, hex, octal and binary integers. Values that overflow
// are floats in PHP.
func intLiteral(text string) (*ast.Node, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(clean)
	switch {
	case strings.HasPrefix(lower, "0o"):
		clean = "0" + clean[2:]
	case len(clean) > 1 && clean[0] == '0' && lower[1] >= '0' && lower[1] <= '9':
		clean = "0o" + clean[1:]
	}
	if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return ast.NewInt(v), true
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
		return ast.NewFloat(v), true
	}
	return nil, false
}

func floatLiteral(text string) (*ast.Node, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return nil, false
	}
	return ast.NewFloat(v), true
}
