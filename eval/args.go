package eval

import (
	"strings"
	"unicode/utf8"
)

const (
	openBrackets  = "([{"
	closeBrackets = ")]}"
)

// SplitArgs splits text on sep, ignoring separators nested inside brackets or
// inside single- or double-quoted strings.  A quote preceded by a backslash
// does not open or close a string.  The input and every piece are trimmed of
// surrounding whitespace, and a trailing empty piece is dropped.
func SplitArgs(sep rune, text string) []string {
	return SplitArgsNested(sep, text, openBrackets, closeBrackets)
}

// SplitArgsNested is SplitArgs with caller-supplied opening and closing
// bracket sets.
func SplitArgsNested(sep rune, text, open, close string) []string {
	text = strings.TrimSpace(text)
	var (
		args    []string
		depth   int
		quote   rune
		prev    rune
		segment int // start of the current piece
	)
	for i, ch := range text {
		switch {
		case (ch == '"' || ch == '\'') && prev != '\\':
			if quote == 0 {
				quote = ch
			} else if quote == ch {
				quote = 0
			}
		case quote != 0:
		case strings.ContainsRune(open, ch):
			depth++
		case strings.ContainsRune(close, ch):
			depth--
		case ch == sep && depth == 0:
			args = append(args, strings.TrimSpace(text[segment:i]))
			segment = i + utf8.RuneLen(ch)
		}
		prev = ch
	}
	if last := strings.TrimSpace(text[segment:]); last != "" {
		args = append(args, last)
	}
	return args
}

// TrimOnce removes one leading prefix and one trailing suffix character when
// both are present.
func TrimOnce(s string, prefix, suffix byte) string {
	if len(s) >= 2 && s[0] == prefix && s[len(s)-1] == suffix {
		return s[1 : len(s)-1]
	}
	return s
}
