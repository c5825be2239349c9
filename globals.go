package bracket

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/robfig/bracket/data"
	"github.com/robfig/bracket/eval"
)

// ParseGlobals parses the given input, expecting the form:
//
//	<global_name> = <literal>
//
// Furthermore:
//   - Empty lines and lines beginning with '//' are ignored.
//   - <literal> is a quoted string, a number, true, false, null or a
//     [list, of, literals].
func ParseGlobals(input io.Reader) (*data.Map, error) {
	var (
		globals = data.NewMap()
		ev      = eval.New()
		scope   = eval.NewScope(nil)
		scanner = bufio.NewScanner(input)
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		var line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}
		var eq = strings.Index(line, "=")
		if eq == -1 {
			return nil, fmt.Errorf("line %d: no equals on line: %q", lineNum, line)
		}
		var (
			name = strings.TrimSpace(line[:eq])
			expr = strings.TrimSpace(line[eq+1:])
		)
		if name == "" {
			return nil, fmt.Errorf("line %d: missing global name", lineNum)
		}
		if _, ok := globals.Get(name); ok {
			return nil, fmt.Errorf("line %d: global %s is already defined", lineNum, name)
		}
		var value = ev.Resolve(expr, scope)
		if !isLiteral(expr, value) {
			return nil, fmt.Errorf("line %d: global %s: %q is not a literal", lineNum, name, expr)
		}
		globals.Set(name, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return globals, nil
}

// isLiteral reports whether expr resolved without consulting any variable.
func isLiteral(expr string, value data.Value) bool {
	switch value := value.(type) {
	case data.String:
		return expr != "" && (expr[0] == '"' || expr[0] == '\'')
	case data.List:
		var items = eval.SplitArgs(',', expr[1:len(expr)-1])
		for i, item := range value {
			if !isLiteral(strings.TrimSpace(items[i]), item) {
				return false
			}
		}
		return true
	}
	return true
}
