package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search events",
		Description: "Runs a unified search for a view and splits the hits into organized and invited events. Without filters the cached events are returned.",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "filterCachedEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/cached",
		Summary:     "Filter cached events",
		Description: "Filters the cached organized or invited events without calling the backend",
		Tags:        []string{"Search"},
	}, s.handleFilterCached)
}

// CriteriaParams are the search filters as query parameters.
type CriteriaParams struct {
	Keyword     string `query:"keyword" doc:"Full-text keyword"`
	Date        string `query:"date" doc:"Exact event date"`
	UserStatus  string `query:"userStatus" doc:"Viewer's response status"`
	EventStatus string `query:"eventStatus" doc:"Event status"`
	Role        string `query:"role" doc:"Viewer's participant role"`
}

func (p CriteriaParams) criteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Keyword:     p.Keyword,
		Date:        p.Date,
		UserStatus:  domain.ResponseStatus(p.UserStatus),
		EventStatus: domain.EventStatus(p.EventStatus),
		Role:        p.Role,
	}
}

// SearchInput wraps a remote search for Huma.
type SearchInput struct {
	View string `query:"view" default:"default" doc:"Caller-chosen view ID; each view keeps its own results"`
	CriteriaParams
}

// FilterCachedInput wraps a cached filter for Huma.
type FilterCachedInput struct {
	View string `query:"view" default:"organized" enum:"organized,invited" doc:"Collection to filter"`
	CriteriaParams
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body search.Results
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	var results search.Results
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.services.Search.Search(ctx, input.View, input.criteria())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: normalizeResults(results)}, nil
}

func (s *Server) handleFilterCached(ctx context.Context, input *FilterCachedInput) (*SearchOutput, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	results, err := s.services.Search.FilterCached(ctx, search.View(input.View), input.criteria())
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SearchOutput{Body: normalizeResults(results)}, nil
}

func normalizeResults(r search.Results) search.Results {
	r.Organized = nonNil(r.Organized)
	r.Invited = nonNil(r.Invited)
	return r
}
