package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/tasks"
	"github.com/teemow/execassist/internal/triage"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100

	defaultAvailabilityDuration = 30
	maxAvailabilityDuration     = 8 * 60
	defaultAvailabilityLimit    = 10

	maxRequestBody = 1 << 20

	// TaskProcessInbox names inbox triage runs in the task queue.
	TaskProcessInbox = "process_inbox"
)

// Scheduler is the part of the assistant the API exposes.
type Scheduler interface {
	ScheduleMeeting(ctx context.Context, req assistant.Request) assistant.Outcome
	Availability(ctx context.Context, durationMinutes int, urgency meeting.Urgency, limit int) []meeting.Slot
	DailySummary(ctx context.Context, day time.Time) (assistant.Summary, error)
	RecentActivities(ctx context.Context, limit int) ([]activity.Record, error)
}

// InboxProcessor triages unread mail.
type InboxProcessor interface {
	ProcessInbox(ctx context.Context) (triage.Report, error)
}

// TaskQueue runs background work.
type TaskQueue interface {
	Submit(name string, fn tasks.Func) (*tasks.Task, error)
	Get(id string) (*tasks.Task, error)
}

// APIConfig holds the dependencies of an API.
type APIConfig struct {
	Context   *ServerContext
	Scheduler Scheduler
	// Inbox is optional; without it POST /process-emails answers 503.
	Inbox   InboxProcessor
	Queue   TaskQueue
	Health  *HealthChecker
	Clock   func() time.Time
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// API serves the assistant's JSON endpoints.
type API struct {
	sc        *ServerContext
	scheduler Scheduler
	inbox     InboxProcessor
	queue     TaskQueue
	health    *HealthChecker
	clock     func() time.Time
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// NewAPI creates an API.
func NewAPI(cfg APIConfig) *API {
	if cfg.Context == nil {
		cfg.Context = NewServerContext(context.Background(), "dev", nil)
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthChecker(cfg.Context)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &API{
		sc:        cfg.Context,
		scheduler: cfg.Scheduler,
		inbox:     cfg.Inbox,
		queue:     cfg.Queue,
		health:    cfg.Health,
		clock:     cfg.Clock,
		logger:    logging.WithComponent(cfg.Logger, "api"),
		metrics:   cfg.Metrics,
	}
}

// Handler returns the routed and instrumented handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.handle(mux, "GET /{$}", a.handleRoot)
	a.handle(mux, "POST /schedule-meeting", a.handleScheduleMeeting)
	a.handle(mux, "POST /process-emails", a.handleProcessEmails)
	a.handle(mux, "GET /tasks/{id}", a.handleTask)
	a.handle(mux, "GET /daily-summary", a.handleDailySummary)
	a.handle(mux, "GET /activities", a.handleActivities)
	a.handle(mux, "GET /calendar/availability", a.handleAvailability)
	a.health.RegisterHealthEndpoints(mux)
	return tracing(mux)
}

func (a *API) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, a.instrument(pattern, h))
}

type rootResponse struct {
	Message  string          `json:"message"`
	Version  string          `json:"version"`
	Services map[string]bool `json:"services"`
}

func (a *API) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:  "AI Executive Assistant is running",
		Version:  a.sc.Version(),
		Services: a.sc.Services(),
	})
}

func (a *API) handleScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	out := a.scheduler.ScheduleMeeting(r.Context(), req)
	writeJSON(w, http.StatusOK, out)
}

type taskAccepted struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

func (a *API) handleProcessEmails(w http.ResponseWriter, _ *http.Request) {
	if a.inbox == nil || a.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "email processing is not configured")
		return
	}

	// The run outlives the request, so it uses the queue's context.
	task, err := a.queue.Submit(TaskProcessInbox, func(ctx context.Context) (interface{}, error) {
		return a.inbox.ProcessInbox(ctx)
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tasks.ErrQueueFull) || errors.Is(err, tasks.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	a.logger.Info("email processing triggered", logging.Task(task.ID()))
	writeJSON(w, http.StatusAccepted, taskAccepted{
		Message: "Email processing triggered",
		TaskID:  task.ID(),
	})
}

func (a *API) handleTask(w http.ResponseWriter, r *http.Request) {
	if a.queue == nil {
		writeError(w, http.StatusNotFound, "no task queue configured")
		return
	}
	task, err := a.queue.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task.Snapshot())
}

func (a *API) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	day := a.clock().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := a.scheduler.DailySummary(r.Context(), day)
	if err != nil {
		a.logger.Error("daily summary failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type activitiesResponse struct {
	Activities []activity.Record `json:"activities"`
	Count      int               `json:"count"`
}

func (a *API) handleActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultActivityLimit, 1, maxActivityLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.scheduler.RecentActivities(r.Context(), limit)
	if err != nil {
		a.logger.Error("listing activities failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []activity.Record{}
	}
	writeJSON(w, http.StatusOK, activitiesResponse{Activities: records, Count: len(records)})
}

type availabilityResponse struct {
	AvailableSlots []meeting.Slot `json:"available_slots"`
}

func (a *API) handleAvailability(w http.ResponseWriter, r *http.Request) {
	duration, err := intParam(r, "duration", defaultAvailabilityDuration, 1, maxAvailabilityDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", defaultAvailabilityLimit, 1, maxActivityLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	urgency := meeting.UrgencyMedium
	if raw := r.URL.Query().Get("urgency"); raw != "" {
		urgency, err = meeting.ParseUrgency(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	slots := a.scheduler.Availability(r.Context(), duration, urgency, limit)
	if slots == nil {
		slots = []meeting.Slot{}
	}
	writeJSON(w, http.StatusOK, availabilityResponse{AvailableSlots: slots})
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
