package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

func TestValidator_InviteRequest(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(domain.InviteRequest{UserID: 7, Role: "Speaker"}))

	err := v.Validate(domain.InviteRequest{Role: "Attendee"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, "userId is required", err.Error())

	fields := domainerrors.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "userId", fields[0].Field)
}

func TestValidator_CreateEventRequest(t *testing.T) {
	v := validation.New()

	err := v.Validate(domain.CreateEventRequest{Title: "Retro"})
	require.Error(t, err)
	assert.Equal(t, domainerrors.ValidationSummary, err.Error())

	fields := domainerrors.FieldErrors(err)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.Equal(t, []string{"description", "date", "time", "location"}, names)

	assert.Equal(t, "Description: is required", domainerrors.FieldMessages(fields)[0])
}

func TestValidator_SearchCriteriaEnums(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		valid    bool
	}{
		{"empty", domain.SearchCriteria{}, true},
		{"not going", domain.SearchCriteria{UserStatus: domain.ResponseNotGoing}, true},
		{"cancelled", domain.SearchCriteria{EventStatus: domain.EventStatusCancelled}, true},
		{"unknown user status", domain.SearchCriteria{UserStatus: "Later"}, false},
		{"unknown event status", domain.SearchCriteria{EventStatus: "Done"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.criteria)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidator_Signup(t *testing.T) {
	v := validation.New()

	req := domain.SignupRequest{
		Username:        "ada",
		Email:           "ada@example.com",
		Password:        "password123",
		ConfirmPassword: "password124",
		FirstName:       "Ada",
		LastName:        "Lovelace",
	}
	err := v.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmPassword")

	req.ConfirmPassword = req.Password
	assert.NoError(t, v.Validate(req))
}
