// Package eval resolves values, expands {placeholders}, applies filters and
// evaluates condition trees against a Scope.
package eval

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/robfig/bracket/data"
)

// Evaluator holds the filters and locale settings shared by every render of a
// template set.  It is safe for concurrent use once configured.
type Evaluator struct {
	Filters  map[string]Filter
	Language language.Tag   // used by the case-mapping filters
	Location *time.Location // used by the date filter
	Now      func() time.Time
	Logger   *slog.Logger
}

// New returns an Evaluator with the builtin filters, English case mapping and
// the local time zone.
func New() *Evaluator {
	var filters = make(map[string]Filter, len(Filters))
	for name, f := range Filters {
		filters[name] = f
	}
	return &Evaluator{
		Filters:  filters,
		Language: language.English,
		Location: time.Local,
		Now:      time.Now,
		Logger:   slog.Default(),
	}
}

var (
	identPattern  = regexp.MustCompile(`^[a-zA-Z_]\w*(?:\.[a-zA-Z_0-9]\w*)*`)
	numberPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// Resolve converts a raw argument or operand token into a typed value:
//
//   - a quoted string yields its unescaped contents
//   - [a, b] yields a list of resolved elements
//   - an integer or decimal literal yields Int or Float
//   - true, false and null yield the corresponding constants
//   - anything else is treated as a placeholder body, so `user.name` and
//     `name|upper` both work; a missing variable yields the empty string
func (ev *Evaluator) Resolve(token string, s *Scope) data.Value {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return data.String("")
	case isQuoted(token):
		return data.String(Unquote(token))
	case token[0] == '[' && token[len(token)-1] == ']':
		var list = data.List{}
		for _, item := range SplitArgs(',', token[1:len(token)-1]) {
			list = append(list, ev.Resolve(item, s))
		}
		return list
	case numberPattern.MatchString(token):
		if !strings.Contains(token, ".") {
			if i, err := strconv.ParseInt(token, 10, 64); err == nil {
				return data.Int(i)
			}
		}
		f, _ := strconv.ParseFloat(token, 64)
		return data.Float(f)
	}
	switch strings.ToLower(token) {
	case "true":
		return data.Bool(true)
	case "false":
		return data.Bool(false)
	case "null":
		return data.Null{}
	}

	ph, ok := scanPlaceholder("{" + token + "}")
	if !ok || ph.width != len(token)+2 {
		return data.String(token)
	}
	var v = ev.lookup(ph.path, s)
	if ph.filters == "" {
		return v
	}
	out, _ := ev.Pipeline(v, SplitArgs('|', ph.filters), s)
	return out
}

// ReplaceVars expands every {path} and {path|filter|...} placeholder in text.
// Substituted values are HTML-escaped unless the last filter producing markup
// marks its result safe.  Braces that do not form a placeholder are kept
// verbatim.
func (ev *Evaluator) ReplaceVars(text string, s *Scope) string {
	var i = strings.IndexByte(text, '{')
	if i < 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i >= 0 {
		ph, ok := scanPlaceholder(text[i:])
		if !ok {
			b.WriteString(text[:i+1])
			text = text[i+1:]
		} else {
			b.WriteString(text[:i])
			b.WriteString(ev.expand(ph, s))
			text = text[i+ph.width:]
		}
		i = strings.IndexByte(text, '{')
	}
	b.WriteString(text)
	return b.String()
}

// Apply runs the filter chain over the resolved expression and returns the
// escaped result, as used by str_filter.
func (ev *Evaluator) Apply(expr string, filters []string, s *Scope) string {
	out, safe := ev.Pipeline(ev.Resolve(expr, s), filters, s)
	if safe {
		return out.String()
	}
	return EscapeHTML(out.String())
}

func (ev *Evaluator) expand(ph placeholder, s *Scope) string {
	var v = ev.lookup(ph.path, s)
	var safe bool
	if ph.filters != "" {
		v, safe = ev.Pipeline(v, SplitArgs('|', ph.filters), s)
	}
	if safe {
		return v.String()
	}
	return EscapeHTML(v.String())
}

// lookup resolves a variable path, mapping missing values and null to the
// empty string.
func (ev *Evaluator) lookup(path string, s *Scope) data.Value {
	v, ok := s.Path(path)
	if !ok {
		return data.String("")
	}
	switch v.(type) {
	case nil, data.Null, data.Undefined:
		return data.String("")
	}
	return v
}

type placeholder struct {
	path    string
	filters string // the chain after the first '|'
	width   int    // bytes consumed, braces included
}

// scanPlaceholder recognizes a placeholder at the start of s, which must begin
// with '{'.  The filter chain ends at the first '}' outside quotes and
// brackets.
func scanPlaceholder(s string) (placeholder, bool) {
	var i = skipSpace(s, 1)
	var loc = identPattern.FindStringIndex(s[i:])
	if loc == nil {
		return placeholder{}, false
	}
	var path = s[i : i+loc[1]]
	var j = skipSpace(s, i+loc[1])
	if j >= len(s) {
		return placeholder{}, false
	}
	switch s[j] {
	case '}':
		return placeholder{path: path, width: j + 1}, true
	case '|':
	default:
		return placeholder{}, false
	}

	var (
		start = j + 1
		depth int
		quote byte
	)
	for k := start; k < len(s); k++ {
		var c = s[k]
		switch {
		case quote != 0:
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == '}' && depth == 0:
			return placeholder{path, strings.TrimSpace(s[start:k]), k + 1}, true
		}
	}
	return placeholder{}, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}
