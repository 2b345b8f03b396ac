package domain

import "strings"

// SearchCriteria is the user-entered filter set for event search.
// Every field is optional; empty strings mean "not set".
type SearchCriteria struct {
	Keyword     string         `json:"keyword,omitempty"`
	Date        string         `json:"date,omitempty"`
	UserStatus  ResponseStatus `json:"userStatus,omitempty" validate:"omitempty,oneof=Pending Going Maybe 'Not Going'"`
	EventStatus EventStatus    `json:"eventStatus,omitempty" validate:"omitempty,oneof=Active Cancelled Postponed"`
	Role        string         `json:"role,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (c SearchCriteria) Normalized() SearchCriteria {
	return SearchCriteria{
		Keyword:     strings.TrimSpace(c.Keyword),
		Date:        strings.TrimSpace(c.Date),
		UserStatus:  ResponseStatus(strings.TrimSpace(string(c.UserStatus))),
		EventStatus: EventStatus(strings.TrimSpace(string(c.EventStatus))),
		Role:        strings.TrimSpace(c.Role),
	}
}

// Active reports whether any filter is set. The keyword counts only after trimming.
func (c SearchCriteria) Active() bool {
	n := c.Normalized()
	return n.Keyword != "" || n.Date != "" || n.UserStatus != "" || n.EventStatus != "" || n.Role != ""
}

// LegacyFilters is the older single-field search shape with paging.
//
// Deprecated: use SearchCriteria. Kept for backends that still read
// startDate/endDate/status/userId.
type LegacyFilters struct {
	Keyword   string `json:"keyword,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Status    string `json:"status,omitempty"`
	Role      string `json:"role,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Pagination is the paging block returned alongside search results.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// SearchHit is one item of a unified search response. The backend
// annotates each event with the viewer's participation when one exists.
type SearchHit struct {
	Event
	UserStatus ResponseStatus `json:"userStatus,omitempty"`
	UserRole   string         `json:"userRole,omitempty"`
}
