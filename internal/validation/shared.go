package validation

import (
	"fmt"
	"strings"
)

// Error collects field-level validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors returns the failing fields and their messages.
func (e *Error) FieldErrors() map[string]string {
	return e.Fields
}
