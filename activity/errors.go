package activity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks an input file that could not be opened or read.
	ErrInput = errors.New("input error")

	// ErrFormat marks a document that does not have the expected shape, or a
	// present field whose value does not parse.
	ErrFormat = errors.New("format error")
)

// FieldError locates a malformed field value. Positions are 1-indexed; zero
// means the position does not apply.
type FieldError struct {
	Activity   int
	Lap        int
	Track      int
	Trackpoint int
	Field      string
	Value      string
	Err        error
}

func (e *FieldError) Error() string {
	var b strings.Builder
	for _, p := range []struct {
		name string
		n    int
	}{
		{"activity", e.Activity},
		{"lap", e.Lap},
		{"track", e.Track},
		{"trackpoint", e.Trackpoint},
	} {
		if p.n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s %d", p.name, p.n)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "invalid %s %q", e.Field, e.Value)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, args...)...)
}
