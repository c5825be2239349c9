package eval

import (
	"strings"
	"unicode/utf8"
)

var unescapes = map[byte]byte{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
}

// isQuoted reports whether s is wrapped in a matching pair of single or
// double quotes.
func isQuoted(s string) bool {
	n := len(s)
	return n >= 2 && (s[0] == '\'' || s[0] == '"') && s[n-1] == s[0]
}

// Unquote strips the surrounding quotes of a string literal and processes
// C-style escapes: the usual single-letter codes, \NNN octal and \xHH hex.
// A backslash before any other character is dropped.
func Unquote(s string) string {
	if !isQuoted(s) {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var result = make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			result = append(result, s[i])
			continue
		}
		i++
		var ch = s[i]
		if replacement, ok := unescapes[ch]; ok {
			result = append(result, replacement)
			continue
		}
		switch {
		case '0' <= ch && ch <= '7':
			var n, j = 0, i
			for ; j < len(s) && j < i+3 && '0' <= s[j] && s[j] <= '7'; j++ {
				n = n*8 + int(s[j]-'0')
			}
			result = append(result, byte(n))
			i = j - 1
		case ch == 'x' && i+1 < len(s) && isHex(s[i+1]):
			var n, j = 0, i + 1
			for ; j < len(s) && j < i+3 && isHex(s[j]); j++ {
				n = n*16 + hexValue(s[j])
			}
			result = append(result, byte(n))
			i = j - 1
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			result = append(result, s[i:i+size]...)
			i += size - 1
		}
	}
	return string(result)
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func hexValue(c byte) int {
	switch {
	case c <= '9':
		return int(c - '0')
	case c <= 'F':
		return int(c-'A') + 10
	}
	return int(c-'a') + 10
}
