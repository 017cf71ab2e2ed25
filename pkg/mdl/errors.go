package mdl

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
)

// Sentinel errors for MDL handling.
var (
	// ErrParse is wrapped by ParseError.
	ErrParse = errors.New("mdl: parsing failure")

	// ErrValidation is wrapped by ValidationError.
	ErrValidation = errors.New("mdl: validation failure")
)

// ParseError reports MDL that is not well-formed JSON5 or does not have the
// shape of a meme document. Line and Column are zero when unknown.
type ParseError struct {
	Line, Column int
	Msg          string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("MDL Parsing Failure: %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return "MDL Parsing Failure: " + e.Msg
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Title is the short heading used when reporting the error to a user.
func (e *ParseError) Title() string { return "MDL Parsing Failure" }

// ValidationError reports well-formed MDL with unsupported field values.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("MDL Validation Failure: %s", e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Title is the short heading used when reporting the error to a user.
func (e *ValidationError) Title() string { return "MDL Validation Failure" }

// newParseError converts a participle error into a ParseError, keeping the
// source position when participle reports one.
func newParseError(err error) *ParseError {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ParseError{Line: pos.Line, Column: pos.Column, Msg: perr.Message()}
	}
	return &ParseError{Msg: err.Error()}
}

func fieldError(field, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf("field `%s`: ", field) + fmt.Sprintf(format, args...)}
}
