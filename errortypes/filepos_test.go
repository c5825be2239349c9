package errortypes_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/robfig/bracket/errortypes"
)

func TestIsErrFilePos(t *testing.T) {
	var tests = []struct {
		name string
		in   error
		out  bool
	}{
		{
			name: "nil",
			out:  false,
		},
		{
			name: "errors.New",
			in:   errors.New("an error"),
			out:  false,
		},
		{
			name: "new ErrFilePos",
			in:   errortypes.NewErrFilePosf("page.html", 1, 2, "message"),
			out:  true,
		},
		{
			name: "wrapped ErrFilePos",
			in:   fmt.Errorf("compiling: %w", errortypes.NewErrFilePosf("page.html", 1, 2, "message")),
			out:  true,
		},
	}
	for _, test := range tests {
		got := errortypes.IsErrFilePos(test.in)
		if got != test.out {
			t.Errorf("%s: Expected %v, got %v", test.name, test.out, got)
		}
	}
}

func TestToErrFilePos(t *testing.T) {
	var tests = []struct {
		name             string
		in               error
		expectNil        bool
		expectedFilename string
		expectedLine     int
		expectedCol      int
	}{
		{
			name:      "nil",
			expectNil: true,
		},
		{
			name:      "errors.New",
			in:        errors.New("an error"),
			expectNil: true,
		},
		{
			name:             "new ErrFilePos",
			in:               errortypes.NewErrFilePosf("page.html", 1, 2, "message"),
			expectNil:        false,
			expectedFilename: "page.html",
			expectedLine:     1,
			expectedCol:      2,
		},
		{
			name:             "kinded ErrFilePos",
			in:               errortypes.NewErrFilePos(errortypes.KindSyntax, "page.html", 3, 4, errors.New("bad")),
			expectNil:        false,
			expectedFilename: "page.html",
			expectedLine:     3,
			expectedCol:      4,
		},
	}
	for _, test := range tests {
		got := errortypes.ToErrFilePos(test.in)
		if test.expectNil && got != nil {
			t.Errorf("%s: expected ErrFilePos to be nil", test.name)
		}
		if !test.expectNil {
			if got == nil {
				t.Errorf("%s: expected ErrFilePos to be non-nil", test.name)
				return
			}
			if got.File() != test.expectedFilename {
				t.Errorf("%s: expected file '%s', got '%s'", test.name, test.expectedFilename, got.File())
			}
			if got.Line() != test.expectedLine {
				t.Errorf("%s: expected line %d, got %d", test.name, test.expectedLine, got.Line())
			}
			if got.Col() != test.expectedCol {
				t.Errorf("%s: expected col %d, got %d", test.name, test.expectedCol, got.Col())
			}
		}
	}
}

func TestKindOf(t *testing.T) {
	var tests = []struct {
		name string
		in   error
		out  errortypes.Kind
	}{
		{"nil", nil, errortypes.KindUnknown},
		{"plain", errors.New("x"), errortypes.KindUnknown},
		{"kinded", errortypes.Errorf(errortypes.KindLimit, "too deep"), errortypes.KindLimit},
		{"positioned", errortypes.NewErrFilePos(errortypes.KindSyntax, "f", 1, 1, errors.New("x")), errortypes.KindSyntax},
		{"positioned inherits", errortypes.NewErrFilePos(errortypes.KindUnknown, "f", 1, 1,
			errortypes.Errorf(errortypes.KindNotFound, "gone")), errortypes.KindNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", errortypes.Errorf(errortypes.KindIO, "pipe")), errortypes.KindIO},
	}
	for _, test := range tests {
		if got := errortypes.KindOf(test.in); got != test.out {
			t.Errorf("%s: expected %v, got %v", test.name, test.out, got)
		}
	}
}

func TestErrFilePosMessage(t *testing.T) {
	var err = errortypes.NewErrFilePosf("page.html", 7, 3, "unexpected %q", "&&")
	if got, want := err.Error(), `page.html:7:3: unexpected "&&"`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
