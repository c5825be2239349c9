package data

import (
	"regexp"
	"strconv"
	"strings"
)

var numericPattern = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`)

// IsNumeric reports whether s is a decimal number, optionally signed, with an
// optional fraction and exponent.  Surrounding whitespace is allowed.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// Number returns the numeric interpretation of v.  Only numbers and numeric
// strings have one.
func Number(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	case String:
		if !IsNumeric(string(v)) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	}
	return 0, false
}

// Compare orders two values by loose comparison and returns -1, 0 or +1.
//
//   - null against a string compares "" with the string
//   - a bool, or null against anything else, compares both sides as bools
//   - two numbers, or a number and a numeric string, compare numerically
//   - lists and maps compare by size, then element by element, and are
//     greater than any scalar
//   - anything else compares as strings
func Compare(a, b Value) int {
	a, b = nullify(a), nullify(b)
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	_, aBool := a.(Bool)
	_, bBool := b.(Bool)
	switch {
	case aNull && bNull:
		return 0
	case aBool || bBool:
		return compareBools(a.Truthy(), b.Truthy())
	case aNull:
		if s, ok := b.(String); ok {
			return strings.Compare("", string(s))
		}
		return compareBools(false, b.Truthy())
	case bNull:
		if s, ok := a.(String); ok {
			return strings.Compare(string(s), "")
		}
		return compareBools(a.Truthy(), false)
	}

	switch av := a.(type) {
	case Int:
		if bv, ok := b.(Int); ok {
			return compareInts(int64(av), int64(bv))
		}
	case List:
		if bv, ok := b.(List); ok {
			return compareLists(av, bv)
		}
		return 1
	case *Map:
		if bv, ok := b.(*Map); ok {
			return compareMaps(av, bv)
		}
		return 1
	}
	switch b.(type) {
	case List, *Map:
		return -1
	}

	af, aNum := Number(a)
	bf, bNum := Number(b)
	if aNum && bNum {
		return compareFloats(af, bf)
	}
	return strings.Compare(a.String(), b.String())
}

// Identical reports whether a and b have the same type and the same value.
// Maps must also agree on key order.
func Identical(a, b Value) bool {
	a, b = nullify(a), nullify(b)
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Identical(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		var bkeys = bv.Keys()
		for i, k := range av.Keys() {
			if bkeys[i] != k || !Identical(av.items[k], bv.items[k]) {
				return false
			}
		}
		return true
	}
	return false
}

func nullify(v Value) Value {
	switch v.(type) {
	case nil, Undefined:
		return Null{}
	}
	return v
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareLists(a, b List) int {
	if c := compareInts(int64(len(a)), int64(len(b))); c != 0 {
		return c
	}
	for i := range a {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareMaps(a, b *Map) int {
	if c := compareInts(int64(a.Len()), int64(b.Len())); c != 0 {
		return c
	}
	for _, k := range a.Keys() {
		bv, ok := b.Get(k)
		if !ok {
			return 1
		}
		if c := Compare(a.items[k], bv); c != 0 {
			return c
		}
	}
	return 0
}
