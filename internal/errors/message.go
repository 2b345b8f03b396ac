package errors

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// FieldError is one entry of a server-side validation error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationSummary heads the list of field messages for a rejected create.
const ValidationSummary = "Validation failed. Please check the errors below:"

// UserMessage returns the text to show for err.
//
// Transport failures get the connectivity message, errors carrying a server
// or validation message return it verbatim, everything else falls back to
// the caller's per-operation text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fallback
	}
	var e *Error
	if !errors.As(err, &e) {
		return fallback
	}
	switch e.Code {
	case CodeTransport:
		return TransportMessage
	case CodeCanceled, CodeSuperseded, CodeInternal:
		return fallback
	}
	if e.Message == "" {
		return fallback
	}
	return e.Message
}

// FieldErrors returns the field list attached to err, if any.
func FieldErrors(err error) []FieldError {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	fields, _ := e.Details.([]FieldError)
	return fields
}

// FieldMessages renders each field error as "Field Name: message".
// An empty field becomes "Field" and an empty message "Invalid value".
func FieldMessages(fields []FieldError) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		name := f.Field
		if name == "" {
			name = "Field"
		}
		msg := f.Message
		if msg == "" {
			msg = "Invalid value"
		}
		out = append(out, HumanizeField(name)+": "+msg)
	}
	return out
}

// HumanizeField turns a camelCase field name into "Title Words".
func HumanizeField(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
