package chef

import (
	"errors"
	"fmt"
)

// GenerationError reports a failure to produce a meme from a valid request,
// such as an unreadable base image.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("meme generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Title is the user-facing heading for the error.
func (e *GenerationError) Title() string { return "Meme Generation Failure" }

// Title returns the user-facing heading for any error returned by the
// service. MDL errors carry their own headings; everything else is a
// generation failure.
func Title(err error) string {
	var titled interface{ Title() string }
	if errors.As(err, &titled) {
		return titled.Title()
	}
	return "Meme Generation Failure"
}
