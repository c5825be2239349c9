package data

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected int
	}{
		{Int(1), Int(1), 0},
		{Int(1), Float(1.0), 0},
		{Int(1), String("1"), 0},
		{String("1"), String("01"), 0},
		{String("1e1"), Int(10), 0},
		{String("abc"), Int(0), 1},
		{String("10"), String("9"), 1},
		{String("10a"), String("9a"), -1},
		{Int(10), String("9a"), -1},
		{Null{}, String(""), 0},
		{Undefined{}, Null{}, 0},
		{Null{}, Int(0), 0},
		{Null{}, Int(1), -1},
		{Bool(true), String("abc"), 0},
		{Bool(false), String("0"), 0},
		{Bool(false), List{}, 0},
		{Float(-1.5), Int(-2), 1},
		{List{Int(1)}, List{Int(1)}, 0},
		{List{Int(1)}, List{Int(1), Int(2)}, -1},
		{List{Int(1)}, Int(5), 1},
		{Int(5), NewMap("a", 1), -1},
		{NewMap("a", 1, "b", 2), NewMap("b", 2, "a", 1), 0},
	}
	for _, test := range tests {
		if actual := Compare(test.a, test.b); actual != test.expected {
			t.Errorf("Compare(%#v, %#v): expected %d, got %d", test.a, test.b, test.expected, actual)
		}
	}
}

func TestIdentical(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Int(1), Int(1), true},
		{Int(1), Float(1), false},
		{Int(1), String("1"), false},
		{String("a"), String("a"), true},
		{Null{}, Undefined{}, true},
		{Bool(false), Null{}, false},
		{List{Int(1), String("x")}, List{Int(1), String("x")}, true},
		{List{Int(1)}, List{Float(1)}, false},
		{NewMap("a", 1, "b", 2), NewMap("a", 1, "b", 2), true},
		{NewMap("a", 1, "b", 2), NewMap("b", 2, "a", 1), false},
	}
	for _, test := range tests {
		if actual := Identical(test.a, test.b); actual != test.expected {
			t.Errorf("Identical(%#v, %#v): expected %v, got %v", test.a, test.b, test.expected, actual)
		}
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	var faker = gofakeit.New(7)
	var values = func() Value {
		switch faker.Number(0, 5) {
		case 0:
			return Int(faker.Number(-100, 100))
		case 1:
			return Float(faker.Float64Range(-100, 100))
		case 2:
			return String(faker.Word())
		case 3:
			return String(faker.Numerify("##"))
		case 4:
			return Bool(faker.Bool())
		}
		return Null{}
	}
	for i := 0; i < 500; i++ {
		var a, b = values(), values()
		if Compare(a, b) != -Compare(b, a) {
			t.Fatalf("Compare(%#v, %#v) = %d but Compare(%#v, %#v) = %d",
				a, b, Compare(a, b), b, a, Compare(b, a))
		}
		if a.Equals(b) != (Compare(a, b) == 0) {
			t.Fatalf("%#v.Equals(%#v) disagrees with Compare", a, b)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	for _, s := range []string{"1", "-1", "+1.5", ".5", "1.", "1e3", " 12 ", "1.5E-2"} {
		if !IsNumeric(s) {
			t.Errorf("%q: expected numeric", s)
		}
	}
	for _, s := range []string{"", "abc", "1a", "0x1A", "1e", "--1", "Inf", "NaN", "1_000"} {
		if IsNumeric(s) {
			t.Errorf("%q: expected non-numeric", s)
		}
	}
}
