package eval

import (
	"io"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"

	"github.com/robfig/bracket/data"
)

// Filter represents a transformation applied to a value in a filter chain.
type Filter struct {
	Apply            func(ev *Evaluator, value data.Value, args []data.Value) data.Value
	CancelAutoescape bool // the result is markup and must not be escaped
}

// Filters are the builtin filters.  New copies them into each Evaluator,
// whose own map callers may extend.
var Filters = map[string]Filter{
	"trim":          {filterTrim, false},
	"upper":         {filterUpper, false},
	"lower":         {filterLower, false},
	"capitalize":    {filterCapitalize, false},
	"ufirst":        {filterUfirst, false},
	"strip_tags":    {filterStripTags, false},
	"nl2br":         {filterNl2br, true},
	"length":        {filterLength, false},
	"date":          {filterDate, false},
	"number_format": {filterNumberFormat, false},
	"replace":       {filterReplace, false},
	"round":         {filterRound, false},
	"truncate":      {filterTruncate, false},
	"default":       {filterDefault, false},
}

var filterCall = regexp.MustCompile(`(?s)^(\w+)\s*\((.*)\)$`)

// Pipeline applies each filter spec in order.  A spec is a bare filter name or
// name(arg, ...), where every argument goes through Resolve.  Unknown filters
// leave the value unchanged.  The returned bool reports whether the last
// filter applied produced markup that must not be escaped.
func (ev *Evaluator) Pipeline(v data.Value, specs []string, s *Scope) (data.Value, bool) {
	var safe bool
	for _, spec := range specs {
		var name = strings.TrimSpace(spec)
		var args []data.Value
		if m := filterCall.FindStringSubmatch(name); m != nil {
			name = m[1]
			for _, arg := range SplitArgs(',', m[2]) {
				args = append(args, ev.Resolve(arg, s))
			}
		}
		f, ok := ev.Filters[name]
		if !ok || f.Apply == nil {
			ev.Logger.Debug("unknown filter", "filter", name)
			continue
		}
		v = f.Apply(ev, v, args)
		safe = f.CancelAutoescape
	}
	return v, safe
}

func filterTrim(_ *Evaluator, value data.Value, _ []data.Value) data.Value {
	return data.String(strings.Trim(value.String(), " \t\n\r\x00\x0B"))
}

func filterUpper(ev *Evaluator, value data.Value, _ []data.Value) data.Value {
	return data.String(cases.Upper(ev.Language).String(value.String()))
}

func filterLower(ev *Evaluator, value data.Value, _ []data.Value) data.Value {
	return data.String(cases.Lower(ev.Language).String(value.String()))
}

func filterCapitalize(ev *Evaluator, value data.Value, _ []data.Value) data.Value {
	return data.String(cases.Title(ev.Language, cases.NoLower).String(value.String()))
}

func filterUfirst(ev *Evaluator, value data.Value, _ []data.Value) data.Value {
	var str = value.String()
	_, size := utf8.DecodeRuneInString(str)
	return data.String(cases.Upper(ev.Language).String(str[:size]) + str[size:])
}

func filterStripTags(_ *Evaluator, value data.Value, _ []data.Value) data.Value {
	var str = value.String()
	if !strings.ContainsRune(str, '<') {
		return data.String(str)
	}
	var (
		b strings.Builder
		z = html.NewTokenizer(strings.NewReader(str))
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				b.Write(z.Raw())
			}
			return data.String(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

var newlinePattern = regexp.MustCompile(`\r\n|\n\r|\n|\r`)

func filterNl2br(_ *Evaluator, value data.Value, _ []data.Value) data.Value {
	return data.String(newlinePattern.ReplaceAllString(EscapeHTML(value.String()), "<br />$0"))
}

func filterLength(_ *Evaluator, value data.Value, _ []data.Value) data.Value {
	switch v := value.(type) {
	case data.List:
		return data.Int(len(v))
	case *data.Map:
		return data.Int(v.Len())
	}
	return data.Int(len(value.String()))
}

func filterDate(ev *Evaluator, value data.Value, args []data.Value) data.Value {
	t, ok := ev.timestamp(value)
	if !ok {
		ev.Logger.Debug("date: unrecognized time", "value", value.String())
		return data.String("")
	}
	return data.String(FormatDate(t, argString(args, 0, "")))
}

func filterNumberFormat(_ *Evaluator, value data.Value, args []data.Value) data.Value {
	var decimals = 2
	if n, ok := argNumber(args, 0); ok && n > 0 {
		decimals = int(n)
	} else if ok {
		decimals = 0
	}
	return data.String(formatNumber(toDecimal(value), decimals,
		argString(args, 1, "."), argString(args, 2, ",")))
}

func formatNumber(d decimal.Decimal, decimals int, decSep, thousandsSep string) string {
	var (
		rounded = d.Round(int32(decimals))
		digits  = rounded.Abs().StringFixed(int32(decimals))
		whole   = digits
		frac    string
		b       strings.Builder
	)
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		whole, frac = digits[:i], digits[i+1:]
	}
	if rounded.Sign() < 0 {
		b.WriteByte('-')
	}
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteByte(whole[i])
	}
	if decimals > 0 {
		b.WriteString(decSep)
		b.WriteString(frac)
	}
	return b.String()
}

// filterReplace substitutes every occurrence of the search argument, or of
// each element when it is a list.  With a truthy third argument it returns the
// number of replacements instead.
func filterReplace(_ *Evaluator, value data.Value, args []data.Value) data.Value {
	var (
		str      = value.String()
		with     = argString(args, 1, "")
		count    = len(args) > 2 && args[2].Truthy()
		searches []string
		n        int
	)
	if list, ok := arg(args, 0).(data.List); ok {
		for _, item := range list {
			searches = append(searches, item.String())
		}
	} else {
		searches = []string{argString(args, 0, "")}
	}
	for _, search := range searches {
		if search == "" {
			continue
		}
		n += strings.Count(str, search)
		str = strings.ReplaceAll(str, search, with)
	}
	if count {
		return data.Int(n)
	}
	return data.String(str)
}

// Rounding modes accepted by the round filter, by name or by number.
const (
	RoundHalfUp   = 1
	RoundHalfDown = 2
	RoundHalfEven = 3
	RoundHalfOdd  = 4
)

var roundModes = map[string]int{
	"ROUND_HALF_UP":   RoundHalfUp,
	"ROUND_HALF_DOWN": RoundHalfDown,
	"ROUND_HALF_EVEN": RoundHalfEven,
	"ROUND_HALF_ODD":  RoundHalfOdd,
}

func filterRound(_ *Evaluator, value data.Value, args []data.Value) data.Value {
	var places int32 = 1
	if n, ok := argNumber(args, 0); ok {
		places = int32(n)
	}
	var mode = RoundHalfUp
	switch m := arg(args, 1).(type) {
	case data.Int:
		mode = int(m)
	case data.String:
		if named, ok := roundModes[strings.ToUpper(strings.TrimPrefix(string(m), "PHP_"))]; ok {
			mode = named
		}
	}
	return data.Float(roundDecimal(toDecimal(value), places, mode).InexactFloat64())
}

var (
	decimalHalf = decimal.New(5, -1)
	decimalTwo  = decimal.NewFromInt(2)
)

func roundDecimal(d decimal.Decimal, places int32, mode int) decimal.Decimal {
	if mode == RoundHalfEven {
		return d.RoundBank(places)
	}
	var (
		shifted = d.Shift(places)
		whole   = shifted.Truncate(0)
	)
	if !shifted.Sub(whole).Abs().Equal(decimalHalf) {
		return d.Round(places)
	}
	switch mode {
	case RoundHalfDown:
		return whole.Shift(-places)
	case RoundHalfOdd:
		if whole.Mod(decimalTwo).IsZero() {
			whole = whole.Add(decimal.NewFromInt(int64(shifted.Sign())))
		}
		return whole.Shift(-places)
	}
	return d.Round(places)
}

func filterTruncate(_ *Evaluator, value data.Value, args []data.Value) data.Value {
	var limit = 10
	if n, ok := argNumber(args, 0); ok {
		limit = int(n)
	}
	var suffix = argString(args, 1, "")
	if suffix == "" {
		suffix = "..."
	}
	var str = value.String()
	if len(str) <= limit {
		return value
	}
	if limit < 0 {
		limit = 0
	}
	for limit > 0 && !utf8.RuneStart(str[limit]) {
		limit--
	}
	return data.String(str[:limit] + suffix)
}

func filterDefault(_ *Evaluator, value data.Value, args []data.Value) data.Value {
	if value.String() != "" {
		return value
	}
	if fallback := arg(args, 0); fallback != nil {
		return fallback
	}
	return data.String("")
}

// arg returns the i'th argument, or nil if there is none.
func arg(args []data.Value, i int) data.Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argString(args []data.Value, i int, def string) string {
	if i < len(args) {
		return args[i].String()
	}
	return def
}

// argNumber returns the i'th argument as a number.  Absent, empty and
// non-numeric arguments report false.
func argNumber(args []data.Value, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	return data.Number(args[i])
}

// toDecimal interprets value as a number; non-numeric values are zero.
func toDecimal(value data.Value) decimal.Decimal {
	switch v := value.(type) {
	case data.Int:
		return decimal.NewFromInt(int64(v))
	case data.Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(float64(v))
	}
	var str = strings.TrimSpace(value.String())
	if !data.IsNumeric(str) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(str, "+"))
	if err != nil {
		return decimal.Zero
	}
	return d
}
