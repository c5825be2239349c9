package data

import (
	"fmt"
	"reflect"
	"sort"
	"time"
	"unicode"
	"unicode/utf8"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshaler is implemented by types that convert themselves into a Value.
type Marshaler interface {
	MarshalValue() Value
}

// New converts the given data into a template data value, using
// DefaultStructOptions for structs.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// NewWith converts the given data value to a template data value, using the
// provided StructOptions for any structs encountered.
//
// Go maps have no order of their own, so their keys are sorted.  Struct fields
// keep their declaration order.
func NewWith(convert StructOptions, value interface{}) Value {
	// quick return if we're passed an existing data.Value
	if val, ok := value.(Value); ok {
		return val
	}

	if value == nil {
		return Null{}
	}
	if m, ok := value.(Marshaler); ok {
		return m.MarshalValue()
	}

	// drill through pointers and interfaces to the underlying type
	var v = reflect.ValueOf(value)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}

	if v.Type() == timeType {
		return String(v.Interface().(time.Time).Format(convert.TimeFormat))
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return Null{}
		}
		slice := make(List, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			slice = append(slice, NewWith(convert, v.Index(i).Interface()))
		}
		return slice
	case reflect.Map:
		var keys = make([]string, 0, v.Len())
		var byName = make(map[string]reflect.Value, v.Len())
		for _, key := range v.MapKeys() {
			var name = fmt.Sprint(key.Interface())
			keys = append(keys, name)
			byName[name] = key
		}
		sort.Strings(keys)
		var m = &Map{items: make(map[string]Value, len(keys))}
		for _, name := range keys {
			m.Set(name, NewWith(convert, v.MapIndex(byName[name]).Interface()))
		}
		return m
	case reflect.Struct:
		return convert.Data(v.Interface())
	default:
		panic(fmt.Errorf("unexpected data type: %T (%v)", value, value))
	}
}

var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// StructOptions provides flexibility in conversion of structs to the ordered
// *Map format.
type StructOptions struct {
	LowerCamel bool   // if true, convert field names to lowerCamel.
	TimeFormat string // format string for time.Time. (if empty, use ISO-8601)
	Tag        string // if set, a struct tag whose name overrides the field name; "-" skips the field
}

func (c StructOptions) Data(obj interface{}) *Map {
	var m = &Map{items: make(map[string]Value)}
	var v = reflect.ValueOf(obj)
	var valType = v.Type()
	for i := 0; i < valType.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		var field = valType.Field(i)
		var key = field.Name
		if c.Tag != "" {
			if name := tagName(field.Tag.Get(c.Tag)); name == "-" {
				continue
			} else if name != "" {
				m.Set(name, NewWith(c, v.Field(i).Interface()))
				continue
			}
		}
		if c.LowerCamel {
			var firstRune, size = utf8.DecodeRuneInString(key)
			key = string(unicode.ToLower(firstRune)) + key[size:]
		}
		m.Set(key, NewWith(c, v.Field(i).Interface()))
	}
	return m
}

func tagName(tag string) string {
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}
