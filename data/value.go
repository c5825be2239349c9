package data

import (
	"strconv"
	"strings"
)

// Value represents a template data value, which may be one of the enumerated
// types.  The zero value represents an Undefined value.
type Value interface {
	// Truthy returns true according to the loose definition of truthy and
	// falsy values: false, 0, 0.0, "", "0", null and empty collections are
	// falsy.
	Truthy() bool

	// String formats this value for display in a template.
	String() string

	// Equals returns true if the two values are loosely equal.  See Compare.
	Equals(other Value) bool
}

// Value types
type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	Int       int64
	Float     float64
	String    string
	List      []Value
)

// Map is an insertion-ordered mapping from string keys to values.  The nil
// *Map is an empty map.
type Map struct {
	keys  []string
	items map[string]Value
}

// NewMap returns a map holding the given key/value pairs, in order.  It panics
// if kv has an odd length or a key is not a string.
func NewMap(kv ...interface{}) *Map {
	if len(kv)%2 != 0 {
		panic("data.NewMap: odd number of arguments")
	}
	var m = &Map{items: make(map[string]Value, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), New(kv[i+1]))
	}
	return m
}

// Set stores v under k.  New keys are appended to the iteration order;
// existing keys keep their position.
func (m *Map) Set(k string, v Value) *Map {
	if m.items == nil {
		m.items = make(map[string]Value)
	}
	if _, ok := m.items[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.items[k] = v
	return m
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.items[k]
	return v, ok
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (m *Map) Key(k string) Value {
	if v, ok := m.Get(k); ok {
		return v
	}
	return Undefined{}
}

// Keys returns the keys in insertion order.  The result must not be modified.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Merge returns a new map holding the entries of m followed by those of other.
// Entries of other win on key collision.
func (m *Map) Merge(other *Map) *Map {
	var out = &Map{items: make(map[string]Value, m.Len()+other.Len())}
	for _, k := range m.Keys() {
		out.Set(k, m.items[k])
	}
	for _, k := range other.Keys() {
		out.Set(k, other.items[k])
	}
	return out
}

// At retrieves a value from this list, or Undefined if out of bounds.
func (v List) At(i int) Value {
	if !(0 <= i && i < len(v)) {
		return Undefined{}
	}
	return v[i]
}

// Truthy ----------

func (v Undefined) Truthy() bool { return false }
func (v Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool      { return bool(v) }
func (v Int) Truthy() bool       { return v != 0 }
func (v Float) Truthy() bool     { return v != 0.0 }
func (v String) Truthy() bool    { return v != "" && v != "0" }
func (v List) Truthy() bool      { return len(v) > 0 }
func (m *Map) Truthy() bool      { return m.Len() > 0 }

// String ----------

func (v Undefined) String() string { return "" }
func (v Null) String() string      { return "" }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v String) String() string    { return string(v) }

func (v List) String() string {
	var items = make([]string, len(v))
	for i, item := range v {
		items[i] = item.String()
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (m *Map) String() string {
	var items = make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		items = append(items, k+": "+m.items[k].String())
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// Equals ----------

func (v Undefined) Equals(other Value) bool { return Compare(v, other) == 0 }
func (v Null) Equals(other Value) bool      { return Compare(v, other) == 0 }
func (v Bool) Equals(other Value) bool      { return Compare(v, other) == 0 }
func (v Int) Equals(other Value) bool       { return Compare(v, other) == 0 }
func (v Float) Equals(other Value) bool     { return Compare(v, other) == 0 }
func (v String) Equals(other Value) bool    { return Compare(v, other) == 0 }
func (v List) Equals(other Value) bool      { return Compare(v, other) == 0 }
func (m *Map) Equals(other Value) bool      { return Compare(m, other) == 0 }
