package bracket

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseGlobals(t *testing.T) {
	const input = `
// site settings
site = "Acme"
count = 3
ratio = 0.5

debug = FALSE
nothing = null
tags = ["a", 'b', 2]
`
	globals, err := ParseGlobals(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	got, err := json.Marshal(globals)
	if err != nil {
		t.Fatal(err)
	}
	const expected = `{"site":"Acme","count":3,"ratio":0.5,"debug":false,"nothing":null,"tags":["a","b",2]}`
	if string(got) != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestParseGlobalsErrors(t *testing.T) {
	var tests = []struct {
		input string
		msg   string
	}{
		{"site", "no equals"},
		{"= 1", "missing global name"},
		{"a = 1\na = 2", "line 2: global a is already defined"},
		{"a = other", "not a literal"},
		{"a = bare words", "not a literal"},
		{"a = [1, other]", "not a literal"},
		{"a =", "not a literal"},
	}
	for _, test := range tests {
		_, err := ParseGlobals(strings.NewReader(test.input))
		if err == nil {
			t.Errorf("%q: expected error", test.input)
			continue
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%q: expected %q in %q", test.input, test.msg, err.Error())
		}
	}
}
