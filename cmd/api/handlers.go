package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/model"
	"github.com/jnst/event-records/internal/service"
)

const (
	contentTypeJSON        = "Content-Type"
	applicationJSON        = "application/json"
	failedToEncodeResponse = "failed to encode response"
	maxBodyBytes           = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

type materializeResponse struct {
	Created []*model.Event `json:"created"`
}

// APIServer handles HTTP requests for event records.
type APIServer struct {
	eventService service.EventService
	userService  service.UserService
	horizon      time.Duration
	now          func() time.Time
}

// NewAPIServer creates a new API server instance. horizon is the default
// materialization window when a request names no end date.
func NewAPIServer(eventService service.EventService, userService service.UserService, horizon time.Duration) *APIServer {
	return &APIServer{
		eventService: eventService,
		userService:  userService,
		horizon:      horizon,
		now:          time.Now,
	}
}

// Routes registers every endpoint on a new mux.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, metrics.Instrument(path, h))
	}

	handle("/events", s.CreateEvent)
	handle("/events/get", s.GetEvent)
	handle("/events/update", s.UpdateEvent)
	handle("/events/delete", s.DeleteEvent)
	handle("/events/status", s.SetStatus)
	handle("/events/instances", s.ListInstances)
	handle("/events/instances/modify", s.ModifyInstance)
	handle("/events/materialize", s.MaterializeInstances)
	handle("/recurrence-rules", s.CreateRecurrenceRule)
	handle("/users", s.CreateUser)
	handle("/users/get", s.GetUser)
	handle("/organizations", s.CreateOrganization)
	handle("/organizations/get", s.GetOrganization)
	handle("/health", s.HealthCheck)

	mux.Handle("/metrics", metrics.Handler())

	return mux
}

// CreateEvent handles POST /events.
func (s *APIServer) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	candidate, ok := decodeCandidate(w, r)
	if !ok {
		return
	}

	event, err := s.eventService.CreateEvent(r.Context(), candidate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /events/get?id=.
func (s *APIServer) GetEvent(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	event, err := s.eventService.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles POST /events/update?id= with a partial event body.
func (s *APIServer) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	patch, ok := decodeCandidate(w, r)
	if !ok {
		return
	}

	event, err := s.eventService.UpdateEvent(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles POST /events/delete?id=.
func (s *APIServer) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	event, err := s.eventService.DeleteEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// SetStatus handles POST /events/status?id= with {"status": "..."}.
func (s *APIServer) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	event, err := s.eventService.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListInstances handles GET /events/instances?id= for a base recurring event.
func (s *APIServer) ListInstances(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	events, err := s.eventService.ListInstances(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// ModifyInstance handles POST /events/instances/modify?id= with a partial event body.
func (s *APIServer) ModifyInstance(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	patch, ok := decodeCandidate(w, r)
	if !ok {
		return
	}

	event, err := s.eventService.ModifyInstance(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// MaterializeInstances handles POST /events/materialize?id=&until=YYYY-MM-DD.
// until is inclusive and defaults to now plus the configured horizon.
func (s *APIServer) MaterializeInstances(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	until := s.now().Add(s.horizon)
	if raw := r.URL.Query().Get("until"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid until parameter"})
			return
		}
		until = date.AddDays(1).Time().Add(-time.Nanosecond)
	}

	created, err := s.eventService.MaterializeInstances(r.Context(), id, until)
	if err != nil {
		writeError(w, err)
		return
	}

	if created == nil {
		created = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, materializeResponse{Created: created})
}

// CreateRecurrenceRule handles POST /recurrence-rules.
func (s *APIServer) CreateRecurrenceRule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var params model.CreateRecurrenceRuleParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	rule, err := s.eventService.CreateRecurrenceRule(r.Context(), &params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// CreateUser handles POST /users.
func (s *APIServer) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var params model.CreateUserParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	user, err := s.userService.CreateUser(r.Context(), &params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /users/get?id=.
func (s *APIServer) GetUser(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	user, err := s.userService.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// CreateOrganization handles POST /organizations.
func (s *APIServer) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var params model.CreateOrganizationParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	org, err := s.userService.CreateOrganization(r.Context(), &params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

// GetOrganization handles GET /organizations/get?id=.
func (s *APIServer) GetOrganization(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, ok := requireID(w, r)
	if !ok {
		return
	}

	org, err := s.userService.GetOrganization(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// HealthCheck handles GET /health endpoint for service health check.
func (*APIServer) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return false
	}

	return true
}

func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ID parameter is required"})
		return "", false
	}

	return id, true
}

func decodeCandidate(w http.ResponseWriter, r *http.Request) (*model.EventCandidate, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return nil, false
	}

	candidate, err := model.ParseCandidate(body)
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, err)
			return nil, false
		}

		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return nil, false
	}

	return candidate, true
}

func writeError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError

	switch {
	case errors.As(err, &vErr):
		metrics.ValidationFailures.WithLabelValues(fieldLabel(vErr.Field), vErr.Rule()).Inc()
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Errors: []fieldError{{Field: vErr.Field, Rule: vErr.Rule()}},
		})
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrRecurrenceRuleNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrOrganizationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrReferenceNotFound), errors.Is(err, model.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrInvalidHierarchy):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// fieldLabel drops element indexes such as "admins[3]" so metric labels stay bounded.
func fieldLabel(field string) string {
	name, _, _ := strings.Cut(field, "[")
	return name
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error(failedToEncodeResponse, slog.String("error", err.Error()))
	}
}
