// Package apperr holds the error values shared by the content, stats and storage modules.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySlugSource = &ValidationError{Field: "slug", Message: "slug source is empty"}
	ErrSlugExhausted   = errors.New("slug generation exhausted")
	ErrStorage         = errors.New("storage failure")
	ErrNotFound        = errors.New("not found")
)

// ValidationError is returned to the caller before anything is written.
type ValidationError struct {
	Field   string
	Message string
	Allowed []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Allowed) > 0 {
		b.WriteString(". Allowed types: ")
		b.WriteString(strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

// Validation builds a ValidationError with a formatted message.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation reports whether err carries a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Storage wraps err as a storage failure keeping the cause reachable.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
