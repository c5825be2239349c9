package eval

import "strings"

const (
	htmlQuot = "&#34;" // shorter than "&quot;"
	htmlApos = "&#39;" // shorter than "&apos;" and apos was not in HTML until HTML5
	htmlAmp  = "&amp;"
	htmlLt   = "&lt;"
	htmlGt   = "&gt;"
)

// EscapeHTML is a modified version of the stdlib HTMLEscape routine.  It
// returns str unchanged, without copying, when nothing needs escaping.
func EscapeHTML(str string) string {
	var b *strings.Builder
	last := 0
	for i := 0; i < len(str); i++ {
		var html string
		switch str[i] {
		case '"':
			html = htmlQuot
		case '\'':
			html = htmlApos
		case '&':
			html = htmlAmp
		case '<':
			html = htmlLt
		case '>':
			html = htmlGt
		default:
			continue
		}
		if b == nil {
			b = &strings.Builder{}
			b.Grow(len(str) + 16)
		}
		b.WriteString(str[last:i])
		b.WriteString(html)
		last = i + 1
	}
	if b == nil {
		return str
	}
	b.WriteString(str[last:])
	return b.String()
}
