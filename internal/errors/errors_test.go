package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		status int
		want   Code
	}{
		{0, CodeTransport},
		{http.StatusBadRequest, CodeBadRequest},
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusForbidden, CodeForbidden},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusConflict, CodeConflict},
		{http.StatusUnprocessableEntity, CodeValidation},
		{http.StatusTeapot, CodeBadRequest},
		{http.StatusInternalServerError, CodeServer},
		{http.StatusServiceUnavailable, CodeServer},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatusCode(tt.status))
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), CodeBadRequest, "keyword too long")

	assert.True(t, Is(err, ErrBadRequest))
	assert.False(t, Is(err, ErrServer))
	assert.Equal(t, "keyword too long: boom", err.Error())

	wrapped := fmt.Errorf("search: %w", err)
	assert.True(t, Is(wrapped, ErrBadRequest))
	assert.Equal(t, CodeBadRequest, CodeOf(wrapped))
}

func TestUserMessage(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		err := Wrap(fmt.Errorf("dial tcp: refused"), CodeTransport, "get organized events")
		assert.Equal(t, TransportMessage, UserMessage(err, "Failed to load events"))
	})

	t.Run("server message verbatim", func(t *testing.T) {
		err := New(CodeConflict, "Event already exists")
		assert.Equal(t, "Event already exists", UserMessage(err, "Failed to create event"))
	})

	t.Run("empty message falls back", func(t *testing.T) {
		err := New(CodeServer, "")
		assert.Equal(t, "Failed to delete event", UserMessage(err, "Failed to delete event"))
	})

	t.Run("foreign error falls back", func(t *testing.T) {
		assert.Equal(t, "Failed to load events", UserMessage(fmt.Errorf("x"), "Failed to load events"))
	})

	t.Run("context canceled falls back", func(t *testing.T) {
		assert.Equal(t, "Failed to load events", UserMessage(context.Canceled, "Failed to load events"))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, UserMessage(nil, "x"))
	})
}

func TestFieldMessages(t *testing.T) {
	fields := []FieldError{
		{Field: "title", Message: "must not be blank"},
		{Field: "startDate", Message: "must be in the future"},
		{Field: "", Message: ""},
	}

	got := FieldMessages(fields)
	assert.Equal(t, []string{
		"Title: must not be blank",
		"Start Date: must be in the future",
		"Field: Invalid value",
	}, got)
	assert.Nil(t, FieldMessages(nil))
}

func TestFieldErrors(t *testing.T) {
	fields := []FieldError{{Field: "title", Message: "required"}}
	err := fmt.Errorf("create: %w", ValidationWithDetails(ValidationSummary, fields))

	assert.Equal(t, fields, FieldErrors(err))
	assert.Nil(t, FieldErrors(New(CodeServer, "x")))
}
