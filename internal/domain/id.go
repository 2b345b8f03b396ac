package domain

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"strconv"
)

// ID identifies an event or user. The backend sends identifiers as either
// JSON strings or numbers; both decode to the same textual form.
//
// It always marshals as a JSON string.
type ID string

// UnmarshalJSON accepts "42", 42 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("cannot unmarshal %s into ID", string(data))
	}
	*id = ID(data)
	return nil
}

// MarshalJSON outputs the identifier as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id == ""
}
