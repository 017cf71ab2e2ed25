// errors.go — Sentinel and typed errors for caption rendering.
package caption

import (
	"errors"
	"fmt"
)

// Sentinel errors for the caption package.
var (
	// ErrUnknownInsert is wrapped by UnknownInsertError.
	ErrUnknownInsert = errors.New("caption: unknown insert")

	// ErrEncoding is wrapped by EncodingError.
	ErrEncoding = errors.New("caption: encoding failure")

	// ErrEmptyFontData is returned when a font source is built from no bytes.
	ErrEmptyFontData = errors.New("caption: empty font data")
)

// UnknownInsertError is returned when a request names an insert that the
// resolved format does not define. Nothing is rendered in that case.
type UnknownInsertError struct {
	Name string
}

func (e *UnknownInsertError) Error() string {
	return fmt.Sprintf("caption: unknown insert %q", e.Name)
}

func (e *UnknownInsertError) Unwrap() error { return ErrUnknownInsert }

// EncodingError is returned when the final image cannot be encoded.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("caption: encode PNG: %v", e.Err)
}

// Is lets errors.Is match both ErrEncoding and the underlying cause.
func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

func (e *EncodingError) Unwrap() error { return e.Err }
