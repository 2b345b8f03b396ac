package search

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
	"github.com/eventdesk/eventdesk-client/internal/sse"
	"github.com/eventdesk/eventdesk-client/internal/store"
	"github.com/eventdesk/eventdesk-client/internal/validation"
)

// DefaultMinKeywordLength is the shortest trimmed keyword that triggers a
// remote search.
const DefaultMinKeywordLength = 2

// Source is the part of the store the engine reads from.
type Source interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) (*store.SearchResult, error)
	OrganizedEvents() []domain.Event
	InvitedEvents() []domain.InvitedEvent
}

// ViewerFunc returns the signed-in user's ID, or "" when signed out.
type ViewerFunc func() domain.ID

// Options configures an Engine.
type Options struct {
	MinKeywordLength  int
	Emitter           store.EventEmitter
	Logger            *slog.Logger
	Index             *Index
	Validator         *validation.Validator
	DisableStaleGuard bool
}

// Results is what a view displays: either the cached collections or the
// partitioned response of the last applied search.
type Results struct {
	Organized  []domain.Event        `json:"organized"`
	Invited    []domain.InvitedEvent `json:"invited"`
	Pagination *domain.Pagination    `json:"pagination,omitempty"`
	Filtered   bool                  `json:"filtered"`
}

type viewState struct {
	results Results
	issued  uint64
	applied uint64
}

// Engine runs searches on behalf of views. Each view ID keeps its own
// displayed results; a failed or suppressed search leaves them as they were.
type Engine struct {
	source    Source
	viewer    ViewerFunc
	index     *Index
	validator *validation.Validator
	emitter   store.EventEmitter
	logger    *slog.Logger
	minLen    int
	guard     bool

	mu    sync.Mutex
	views map[string]*viewState
}

// NewEngine creates a search engine over source.
func NewEngine(source Source, viewer ViewerFunc, opts Options) *Engine {
	if opts.MinKeywordLength <= 0 {
		opts.MinKeywordLength = DefaultMinKeywordLength
	}
	if opts.Emitter == nil {
		opts.Emitter = store.NoopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}
	if viewer == nil {
		viewer = func() domain.ID { return "" }
	}

	return &Engine{
		source:    source,
		viewer:    viewer,
		index:     opts.Index,
		validator: opts.Validator,
		emitter:   opts.Emitter,
		logger:    opts.Logger,
		minLen:    opts.MinKeywordLength,
		guard:     !opts.DisableStaleGuard,
		views:     make(map[string]*viewState),
	}
}

// Search updates the results of viewID for criteria and returns what the
// view now displays.
//
// Without criteria the view shows the store's cached collections. A keyword
// shorter than the minimum is ignored and the current results are kept. A
// 400 from the backend is silent; any other failure keeps the current
// results and is returned.
func (e *Engine) Search(ctx context.Context, viewID string, criteria domain.SearchCriteria) (Results, error) {
	criteria = criteria.Normalized()

	if !criteria.Active() {
		return e.showCached(viewID), nil
	}

	if criteria.Keyword != "" && utf8.RuneCountInString(criteria.Keyword) < e.minLen {
		e.logger.Debug("keyword too short, search suppressed", "view", viewID, "length", utf8.RuneCountInString(criteria.Keyword))
		return e.Results(viewID), nil
	}

	if err := e.validator.Validate(criteria); err != nil {
		return e.Results(viewID), err
	}

	n := e.issue(viewID)

	res, err := e.source.Search(ctx, criteria)
	if err != nil {
		if gateway.StatusCode(err) == http.StatusBadRequest {
			e.logger.Debug("search rejected by backend, ignoring", "view", viewID, "error", err)
			return e.Results(viewID), nil
		}
		return e.Results(viewID), err
	}

	results := e.partition(res, criteria)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return e.resultsLocked(viewID), domainerrors.Wrap(err, domainerrors.CodeCanceled, "search canceled before its result was applied")
	}
	v := e.viewLocked(viewID)
	if e.guard && n <= v.applied {
		return v.results, domainerrors.ErrSuperseded
	}
	v.applied = n
	v.results = results
	e.publishLocked(viewID, results)
	return results, nil
}

// Results returns what viewID currently displays.
func (e *Engine) Results(viewID string) Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultsLocked(viewID)
}

// ClearView forgets viewID's results. Searches still in flight for it are
// discarded.
func (e *Engine) ClearView(viewID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.views[viewID]; ok {
		v.applied = v.issued
		v.results = Results{}
	}
}

// Reset clears every view. Searches in flight are discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.views {
		v.applied = v.issued
		v.results = Results{}
	}
}

// FilterCached filters the store's cached collection for view without a
// remote call. The store's order is kept. The displayed results of every view
// are left alone.
func (e *Engine) FilterCached(ctx context.Context, view View, criteria domain.SearchCriteria) (Results, error) {
	if !view.Valid() {
		return Results{}, domainerrors.Validationf("unknown view %q", view)
	}
	criteria = criteria.Normalized()
	if err := e.validator.Validate(criteria); err != nil {
		return Results{}, err
	}

	out := Results{Organized: []domain.Event{}, Invited: []domain.InvitedEvent{}, Filtered: criteria.Active()}
	if !criteria.Active() {
		if view == ViewOrganized {
			out.Organized = e.source.OrganizedEvents()
		} else {
			out.Invited = e.source.InvitedEvents()
		}
		return out, nil
	}
	if e.index == nil {
		return Results{}, domainerrors.Internal("cache index not configured")
	}

	ids, err := e.index.Match(ctx, view, criteria)
	if err != nil {
		return Results{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "filter cached events")
	}
	matched := make(map[domain.ID]struct{}, len(ids))
	for _, id := range ids {
		matched[id] = struct{}{}
	}

	if view == ViewOrganized {
		for _, ev := range e.source.OrganizedEvents() {
			if _, ok := matched[ev.ID]; ok {
				out.Organized = append(out.Organized, ev)
			}
		}
		return out, nil
	}
	for _, ev := range e.source.InvitedEvents() {
		if _, ok := matched[ev.ID]; ok {
			out.Invited = append(out.Invited, ev)
		}
	}
	return out, nil
}

// partition splits hits by organizer. Hits the viewer organizes go to the
// organized view; the rest become invited events carrying the viewer's
// status and role.
func (e *Engine) partition(res *store.SearchResult, criteria domain.SearchCriteria) Results {
	viewer := e.viewer()
	out := Results{
		Organized:  []domain.Event{},
		Invited:    []domain.InvitedEvent{},
		Pagination: res.Pagination,
		Filtered:   true,
	}
	for _, hit := range res.Hits {
		if viewer != "" && hit.UserID == viewer {
			out.Organized = append(out.Organized, hit.Event)
			continue
		}
		// A hit without a role never matches a role filter.
		if criteria.Role != "" && !sameFold(hit.UserRole, criteria.Role) {
			continue
		}
		out.Invited = append(out.Invited, domain.InvitedEvent{
			Event:             hit.Event,
			ParticipantStatus: hit.UserStatus,
			ParticipantRole:   hit.UserRole,
		}.WithDefaults())
	}
	return out
}

func (e *Engine) showCached(viewID string) Results {
	results := Results{
		Organized: e.source.OrganizedEvents(),
		Invited:   e.source.InvitedEvents(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.viewLocked(viewID)
	// Anything still in flight would overwrite the cleared filters.
	v.issued++
	v.applied = v.issued
	v.results = results
	e.publishLocked(viewID, results)
	return results
}

func (e *Engine) issue(viewID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.viewLocked(viewID)
	v.issued++
	return v.issued
}

func (e *Engine) viewLocked(viewID string) *viewState {
	v, ok := e.views[viewID]
	if !ok {
		v = &viewState{}
		e.views[viewID] = v
	}
	return v
}

func (e *Engine) resultsLocked(viewID string) Results {
	if v, ok := e.views[viewID]; ok {
		return v.results
	}
	return Results{}
}

func (e *Engine) publishLocked(viewID string, r Results) {
	e.emitter.Emit(sse.NewSearchResultsEvent(sse.SearchResultsEventData{
		ViewID:     viewID,
		Organized:  r.Organized,
		Invited:    r.Invited,
		Pagination: r.Pagination,
		Filtered:   r.Filtered,
	}))
}
