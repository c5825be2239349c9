package errortypes

import (
	"errors"
	"fmt"
)

// Kind classifies an error raised while compiling or rendering a template.
type Kind int

const (
	KindUnknown  Kind = iota
	KindSyntax        // a condition could not be tokenized or reduced
	KindLimit         // a recursion or iteration guard was exceeded
	KindNotFound      // a template source could not be read
	KindIO            // the output sink failed
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindLimit:
		return "limit"
	case KindNotFound:
		return "not found"
	case KindIO:
		return "io"
	}
	return "unknown"
}

// ErrFilePos extends the error interface to add details on the file position where the error occurred.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// NewErrFilePosf creates an error conforming to the ErrFilePos interface.
func NewErrFilePosf(file string, line, col int, format string, args ...interface{}) error {
	return &errFilePos{
		error: fmt.Errorf(format, args...),
		file:  file,
		line:  line,
		col:   col,
	}
}

// NewErrFilePos wraps cause with a kind and a file position.
func NewErrFilePos(kind Kind, file string, line, col int, cause error) error {
	return &errFilePos{
		error: cause,
		file:  file,
		line:  line,
		col:   col,
		kind:  kind,
	}
}

// Errorf returns an error of the given kind without position information.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &kindError{fmt.Errorf(format, args...), kind}
}

// KindOf reports the Kind of the first error in err's chain that carries one.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// IsErrFilePos identifies whethere or not the root cause of the provided error is of the ErrFilePos type.
// Wrapped errors are unwrapped via errors.As.
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos converts the input error to an ErrFilePos if possible, or nil if not.
// If IsErrFilePos returns true, this will not return nil.
func ToErrFilePos(err error) ErrFilePos {
	if err == nil {
		return nil
	}
	var out ErrFilePos
	if errors.As(err, &out) {
		return out
	}
	return nil
}

var _ ErrFilePos = &errFilePos{}

type errFilePos struct {
	error
	file string
	line int
	col  int
	kind Kind
}

func (e *errFilePos) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.file, e.line, e.col, e.error)
}

func (e *errFilePos) Unwrap() error {
	return e.error
}

func (e *errFilePos) File() string {
	return e.file
}

func (e *errFilePos) Line() int {
	return e.line
}

func (e *errFilePos) Col() int {
	return e.col
}

func (e *errFilePos) Kind() Kind {
	if e.kind == KindUnknown {
		return KindOf(e.error)
	}
	return e.kind
}

type kindError struct {
	error
	kind Kind
}

func (e *kindError) Unwrap() error { return e.error }
func (e *kindError) Kind() Kind    { return e.kind }
