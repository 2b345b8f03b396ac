// Package gatewaytest provides an in-memory event backend for tests.
package gatewaytest

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	"github.com/eventdesk/eventdesk-client/internal/gateway"
)

// Route keys used with Fail, Reject, and Hold.
const (
	RouteOrganized    = "GET /events/organizer"
	RouteInvited      = "GET /events/invited"
	RouteSearch       = "GET /events/search"
	RouteGet          = "GET /events/{id}"
	RouteCreate       = "POST /events"
	RouteUpdateStatus = "PATCH /events/{id}/response"
	RouteRespond      = "PUT /events/{id}/response"
	RouteDelete       = "DELETE /events/{id}"
	RouteParticipants = "GET /events/{id}/participants"
	RouteInvite       = "POST /events/{id}/invite"
	RouteLogin        = "POST /auth/login"
	RouteRegister     = "POST /auth/register"
	RouteVerify       = "GET /auth/verify"
	RouteRefresh      = "POST /auth/refresh"
)

// Recorded is one request the server received.
type Recorded struct {
	Route         string
	Path          string
	Query         map[string]string
	Authorization string
	Body          string
}

type failure struct {
	status int
	body   string
}

// Server is a fake backend seeded through its Set* helpers.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	organized    []domain.Event
	invited      []domain.InvitedEvent
	searchHits   []domain.SearchHit
	participants map[domain.ID][]domain.ParticipantUser
	users        map[string]domain.User // by email
	token        string
	nextID       int
	failures     map[string]failure
	holds        map[string][]chan struct{}
	requests     []Recorded
	// "array" (default), "eventsData", or "events"
	searchShape string
}

// NewServer starts a fake backend; it is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		participants: make(map[domain.ID][]domain.ParticipantUser),
		users:        make(map[string]domain.User),
		failures:     make(map[string]failure),
		holds:        make(map[string][]chan struct{}),
		nextID:       100,
		searchShape:  "array",
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		s.handle(r, http.MethodGet, "/events/organizer", RouteOrganized, s.listOrganized)
		s.handle(r, http.MethodGet, "/events/invited", RouteInvited, s.listInvited)
		s.handle(r, http.MethodGet, "/events/search", RouteSearch, s.search)
		s.handle(r, http.MethodGet, "/events/{id}", RouteGet, s.getEvent)
		s.handle(r, http.MethodPost, "/events", RouteCreate, s.createEvent)
		s.handle(r, http.MethodPatch, "/events/{id}/response", RouteUpdateStatus, s.updateStatus)
		s.handle(r, http.MethodPut, "/events/{id}/response", RouteRespond, s.respond)
		s.handle(r, http.MethodDelete, "/events/{id}", RouteDelete, s.deleteEvent)
		s.handle(r, http.MethodGet, "/events/{id}/participants", RouteParticipants, s.listParticipants)
		s.handle(r, http.MethodPost, "/events/{id}/invite", RouteInvite, s.invite)
		s.handle(r, http.MethodPost, "/auth/login", RouteLogin, s.login)
		s.handle(r, http.MethodPost, "/auth/register", RouteRegister, s.register)
		s.handle(r, http.MethodGet, "/auth/verify", RouteVerify, s.verify)
		s.handle(r, http.MethodPost, "/auth/refresh", RouteRefresh, s.refresh)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to gateway.New.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Client returns a gateway client pointed at the server.
func (s *Server) Client(t testing.TB, tokens gateway.TokenSource) *gateway.Client {
	t.Helper()
	c, err := gateway.New(gateway.Options{
		BaseURL:           s.BaseURL(),
		RequestsPerSecond: 1000,
		Burst:             1000,
		Tokens:            tokens,
		HTTPClient:        s.Server.Client(),
		Logger:            slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// SetOrganized replaces the organized collection.
func (s *Server) SetOrganized(events ...domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organized = slices.Clone(events)
}

// SetInvited replaces the invited collection.
func (s *Server) SetInvited(events ...domain.InvitedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invited = slices.Clone(events)
}

// SetSearchHits fixes what the search endpoint returns.
func (s *Server) SetSearchHits(hits ...domain.SearchHit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchHits = slices.Clone(hits)
}

// SetSearchShape picks the data shape of search responses.
func (s *Server) SetSearchShape(shape string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchShape = shape
}

// SetParticipants fixes the participants of an event.
func (s *Server) SetParticipants(eventID domain.ID, users ...domain.ParticipantUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[eventID] = slices.Clone(users)
}

// AddUser registers an account that can log in with any password.
func (s *Server) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
}

// SetToken sets the token returned by login/register and required by verify.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Fail makes route answer with status and a raw body until cleared.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Reject makes route answer 200 with success=false and message.
func (s *Server) Reject(route, message string) {
	s.Fail(route, http.StatusOK, fmt.Sprintf(`{"success":false,"message":%q}`, message))
}

// Clear removes a Fail or Reject override.
func (s *Server) Clear(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold makes the next request on route wait until release is called.
// The handler computes its response only after release, so holds resolve
// in whatever order the test releases them.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], ch)
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many requests hit route.
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Last returns the most recent request on route.
func (s *Server) Last(route string) (Recorded, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Route == route {
			return reqs[i], true
		}
	}
	return Recorded{}, false
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, body []byte)

func (s *Server) handle(r chi.Router, method, pattern, route string, h handlerFunc) {
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body) //nolint:errcheck // test server

		query := make(map[string]string)
		for k := range req.URL.Query() {
			query[k] = req.URL.Query().Get(k)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Route:         route,
			Path:          req.URL.Path,
			Query:         query,
			Authorization: req.Header.Get("Authorization"),
			Body:          string(body),
		})
		var hold chan struct{}
		if queue := s.holds[route]; len(queue) > 0 {
			hold, s.holds[route] = queue[0], queue[1:]
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-req.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f, failing := s.failures[route]
		s.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}

		h(w, req, body)
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "OK", "data": data})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func (s *Server) listOrganized(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	events := slices.Clone(s.organized)
	s.mu.Unlock()
	if events == nil {
		events = []domain.Event{}
	}
	ok(w, map[string]any{"eventsData": events})
}

func (s *Server) listInvited(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	events := slices.Clone(s.invited)
	s.mu.Unlock()
	if events == nil {
		events = []domain.InvitedEvent{}
	}
	ok(w, map[string]any{"eventsData": events})
}

func (s *Server) search(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	hits := slices.Clone(s.searchHits)
	shape := s.searchShape
	s.mu.Unlock()
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	switch shape {
	case "eventsData":
		ok(w, map[string]any{"eventsData": hits})
	case "events":
		ok(w, map[string]any{"events": hits})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    hits,
			"pagination": domain.Pagination{
				Total: len(hits), Limit: 20, Offset: 0, HasMore: false,
			},
		})
	}
}

func (s *Server) find(eventID domain.ID) (domain.Event, bool) {
	for _, e := range s.organized {
		if e.ID == eventID {
			return e, true
		}
	}
	for _, e := range s.invited {
		if e.ID == eventID {
			return e.Event, true
		}
	}
	return domain.Event{}, false
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	e, found := s.find(domain.ID(chi.URLParam(r, "id")))
	s.mu.Unlock()
	if !found {
		fail(w, http.StatusNotFound, "Event not found")
		return
	}
	ok(w, map[string]any{"event": e})
}

func (s *Server) createEvent(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req domain.CreateEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		fail(w, http.StatusBadRequest, "Malformed body")
		return
	}

	s.mu.Lock()
	s.nextID++
	e := domain.Event{
		ID:          domain.ID(strconv.Itoa(s.nextID)),
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Status:      domain.EventStatusActive,
		UserID:      "1",
	}
	s.organized = append(s.organized, e)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"event": e}})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, body []byte) {
	var req domain.UpdateStatusRequest
	_ = json.Unmarshal(body, &req)
	eventID := domain.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.organized {
		if s.organized[i].ID == eventID {
			s.organized[i].Status = req.Status
			ok(w, map[string]any{"event": map[string]any{"id": eventID, "title": s.organized[i].Title}})
			return
		}
	}
	fail(w, http.StatusNotFound, "Event not found")
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, body []byte) {
	var req domain.RespondRequest
	_ = json.Unmarshal(body, &req)
	eventID := domain.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invited {
		if s.invited[i].ID == eventID {
			s.invited[i].ParticipantStatus = req.Status
			ok(w, map[string]any{
				"participant": map[string]any{"eventId": eventID, "status": req.Status, "hasResponded": true},
				"message":     "Response recorded",
			})
			return
		}
	}
	fail(w, http.StatusNotFound, "Invitation not found")
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, _ []byte) {
	eventID := domain.ID(chi.URLParam(r, "id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.organized)
	s.organized = slices.DeleteFunc(s.organized, func(e domain.Event) bool { return e.ID == eventID })
	if len(s.organized) == before {
		fail(w, http.StatusNotFound, "Event not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Event deleted"})
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	users := slices.Clone(s.participants[domain.ID(chi.URLParam(r, "id"))])
	s.mu.Unlock()
	if users == nil {
		users = []domain.ParticipantUser{}
	}
	ok(w, map[string]any{"participantsData": users})
}

func (s *Server) invite(w http.ResponseWriter, r *http.Request, body []byte) {
	var req domain.InviteRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "userId is required",
			"errors":  []map[string]string{{"field": "userId", "message": "is required"}},
		})
		return
	}
	eventID := domain.ID(chi.URLParam(r, "id"))
	ok(w, map[string]any{
		"invitation": map[string]any{
			"userId":  req.UserID,
			"eventId": eventID,
			"role":    req.Role,
			"status":  domain.ResponsePending,
		},
		"invitedUser": map[string]any{"id": req.UserID},
	})
}

func (s *Server) authPayload(u domain.User) map[string]any {
	return map[string]any{"user": u, "token": s.token}
}

func (s *Server) login(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req domain.LoginRequest
	_ = json.Unmarshal(body, &req)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[req.Email]
	if !found {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	ok(w, s.authPayload(u))
}

func (s *Server) register(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req domain.SignupRequest
	_ = json.Unmarshal(body, &req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		fail(w, http.StatusConflict, "Email already registered")
		return
	}
	s.nextID++
	u := domain.User{
		ID:        domain.ID(strconv.Itoa(s.nextID)),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		FullName:  strings.TrimSpace(req.FirstName + " " + req.LastName),
		IsActive:  true,
	}
	s.users[u.Email] = u
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": s.authPayload(u)})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || r.Header.Get("Authorization") != "Bearer "+s.token {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (s *Server) refresh(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, map[string]any{"token": s.token})
}
