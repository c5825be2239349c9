package data

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseJSON(t *testing.T) {
	var input = `{"zeta": 1, "alpha": [1.5, "x", true, null], "mid": {"b": 2, "a": 1}}`
	got, err := ParseJSON(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	var want = NewMap(
		"zeta", Int(1),
		"alpha", List{Float(1.5), String("x"), Bool(true), Null{}},
		"mid", NewMap("b", Int(2), "a", Int(1)),
	)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("expected\n\t%v\ngot\n\t%v", want, got)
	}

	if _, err := ParseJSON(strings.NewReader(`{"a": 1} {"b": 2}`)); err == nil {
		t.Errorf("expected an error for trailing data")
	}
	if _, err := ParseJSON(strings.NewReader(`{"a": `)); err == nil {
		t.Errorf("expected an error for truncated input")
	}
}

func TestParseYAML(t *testing.T) {
	var input = `
zeta: 1
alpha:
  - 1.5
  - x
  - true
  - ~
base: &base
  b: 2
  a: "1"
copy: *base
`
	got, err := ParseYAML(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	var base = NewMap("b", Int(2), "a", String("1"))
	var want = NewMap(
		"zeta", Int(1),
		"alpha", List{Float(1.5), String("x"), Bool(true), Null{}},
		"base", base,
		"copy", base,
	)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("expected\n\t%v\ngot\n\t%v", want, got)
	}

	empty, err := ParseYAML(strings.NewReader(""))
	if err != nil || empty.(*Map).Len() != 0 {
		t.Errorf("expected empty map, got %v, %v", empty, err)
	}
}

func TestMarshalJSON(t *testing.T) {
	var m = NewMap("z", 1, "a", List{String("x"), Null{}}, "u", Undefined{}, "n", NewMap("k", true))
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"z":1,"a":["x",null],"u":null,"n":{"k":true}}`; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
