package data

import (
	"reflect"
	"testing"
)

// Ensure all of the data types implement Value
var (
	_ Value = Undefined{}
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = Float(0.0)
	_ Value = String("")
	_ Value = List{}
	_ Value = &Map{}
)

func TestKey(t *testing.T) {
	tests := []struct {
		input    interface{}
		key      string
		expected interface{}
	}{
		{map[string]interface{}{}, "foo", Undefined{}},
		{map[string]interface{}{"foo": nil}, "foo", Null{}},
	}

	for _, test := range tests {
		actual := New(test.input).(*Map).Key(test.key)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestAt(t *testing.T) {
	tests := []struct {
		input    interface{}
		index    int
		expected interface{}
	}{
		{[]interface{}{}, 0, Undefined{}},
		{[]interface{}{1}, 0, Int(1)},
		{[]interface{}{1}, -1, Undefined{}},
	}

	for _, test := range tests {
		actual := New(test.input).(List).At(test.index)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestMapOrder(t *testing.T) {
	var m = NewMap("zebra", 1, "apple", 2, "mango", 3)
	m.Set("apple", Int(20))
	m.Set("kiwi", Int(4))
	if got, want := m.Keys(), []string{"zebra", "apple", "mango", "kiwi"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}
	if got := m.String(); got != "{zebra: 1, apple: 20, mango: 3, kiwi: 4}" {
		t.Errorf("unexpected String(): %q", got)
	}

	var nilMap *Map
	if nilMap.Len() != 0 || nilMap.Truthy() || nilMap.Key("a") != (Undefined{}) {
		t.Errorf("nil map should behave as empty")
	}

	var merged = NewMap("a", 1, "b", 2).Merge(NewMap("b", 3, "c", 4))
	if got := merged.String(); got != "{a: 1, b: 3, c: 4}" {
		t.Errorf("unexpected merge: %q", got)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		input    Value
		expected bool
	}{
		{Undefined{}, false},
		{Null{}, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Int(-1), true},
		{Float(0), false},
		{Float(0.1), true},
		{String(""), false},
		{String("0"), false},
		{String("0.0"), true},
		{String("false"), true},
		{List{}, false},
		{List{Null{}}, true},
		{NewMap(), false},
		{NewMap("a", nil), true},
	}
	for _, test := range tests {
		if actual := test.input.Truthy(); actual != test.expected {
			t.Errorf("%#v: expected %v, got %v", test.input, test.expected, actual)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input    Value
		expected string
	}{
		{Undefined{}, ""},
		{Null{}, ""},
		{Bool(true), "true"},
		{Int(-42), "-42"},
		{Float(1234.5), "1234.5"},
		{Float(3), "3"},
		{Float(0.000001), "0.000001"},
		{String("<b>"), "<b>"},
		{List{Int(1), String("a")}, "[1, a]"},
	}
	for _, test := range tests {
		if actual := test.input.String(); actual != test.expected {
			t.Errorf("%#v: expected %q, got %q", test.input, test.expected, actual)
		}
	}
}

func TestPath(t *testing.T) {
	var root = New(map[string]interface{}{
		"user": map[string]interface{}{
			"name": "Ada",
			"tags": []string{"x", "y"},
		},
	})
	tests := []struct {
		path     string
		expected Value
		ok       bool
	}{
		{"user.name", String("Ada"), true},
		{"user.tags.1", String("y"), true},
		{"user.tags.2", nil, false},
		{"user.tags.-1", nil, false},
		{"user.name.first", nil, false},
		{"missing", nil, false},
	}
	for _, test := range tests {
		actual, ok := Lookup(root, test.path)
		if ok != test.ok || !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%s: expected (%#v, %v), got (%#v, %v)", test.path, test.expected, test.ok, actual, ok)
		}
	}
}
