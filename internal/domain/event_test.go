package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{"string", `"evt-42"`, "evt-42"},
		{"integer", `42`, "42"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_UnmarshalJSON_Invalid(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
}

func TestEvent_UnmarshalNumericIDs(t *testing.T) {
	input := `{"id":7,"title":"Standup","status":"Active","userId":3}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(input), &e))

	assert.Equal(t, ID("7"), e.ID)
	assert.Equal(t, ID("3"), e.UserID)
	assert.Equal(t, EventStatusActive, e.Status)
}

func TestInvitedEvent_WithDefaults(t *testing.T) {
	e := InvitedEvent{Event: Event{ID: "1"}}.WithDefaults()
	assert.Equal(t, ResponsePending, e.ParticipantStatus)
	assert.Equal(t, DefaultParticipantRole, e.ParticipantRole)

	kept := InvitedEvent{ParticipantStatus: ResponseGoing, ParticipantRole: "Speaker"}.WithDefaults()
	assert.Equal(t, ResponseGoing, kept.ParticipantStatus)
	assert.Equal(t, "Speaker", kept.ParticipantRole)
}

func TestResponseStatus_Label(t *testing.T) {
	assert.Equal(t, "Going", ResponseGoing.Label())
	assert.Equal(t, "Maybe", ResponseMaybe.Label())
	assert.Equal(t, "Not Going", ResponseNotGoing.Label())
	assert.Equal(t, "Pending", ResponseStatus("whatever").Label())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, EventStatusPostponed.Valid())
	assert.False(t, EventStatus("Archived").Valid())
	assert.True(t, ResponseNotGoing.Valid())
	assert.False(t, ResponseStatus("going").Valid())
}

func TestSearchCriteria_Active(t *testing.T) {
	tests := []struct {
		name     string
		criteria SearchCriteria
		want     bool
	}{
		{"empty", SearchCriteria{}, false},
		{"whitespace keyword", SearchCriteria{Keyword: "   "}, false},
		{"keyword", SearchCriteria{Keyword: "a"}, true},
		{"date only", SearchCriteria{Date: "2025-01-01"}, true},
		{"role only", SearchCriteria{Role: "Speaker"}, true},
		{"event status only", SearchCriteria{EventStatus: EventStatusCancelled}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Active())
		})
	}
}

func TestParticipantUser_WithFullName(t *testing.T) {
	u := ParticipantUser{FirstName: "Ada", LastName: "Lovelace", FullName: "stale"}.WithFullName()
	assert.Equal(t, "Ada Lovelace", u.FullName)

	onlyFirst := ParticipantUser{FirstName: "Ada"}.WithFullName()
	assert.Equal(t, "Ada", onlyFirst.FullName)
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada L", (&User{FullName: "Ada L"}).DisplayName())
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&User{Username: "ada"}).DisplayName())
}
