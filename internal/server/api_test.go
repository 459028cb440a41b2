package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/tasks"
	"github.com/teemow/execassist/internal/triage"
)

type fakeScheduler struct {
	mu sync.Mutex

	outcome    assistant.Outcome
	requests   []assistant.Request
	slots      []meeting.Slot
	slotArgs   []interface{}
	summary    assistant.Summary
	summaryDay time.Time
	summaryErr error
	records    []activity.Record
	recordsErr error
	lastLimit  int
}

func (f *fakeScheduler) ScheduleMeeting(_ context.Context, req assistant.Request) assistant.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.outcome
}

func (f *fakeScheduler) Availability(_ context.Context, durationMinutes int, urgency meeting.Urgency, limit int) []meeting.Slot {
	f.slotArgs = []interface{}{durationMinutes, urgency, limit}
	return f.slots
}

func (f *fakeScheduler) DailySummary(_ context.Context, day time.Time) (assistant.Summary, error) {
	f.summaryDay = day
	return f.summary, f.summaryErr
}

func (f *fakeScheduler) RecentActivities(_ context.Context, limit int) ([]activity.Record, error) {
	f.lastLimit = limit
	return f.records, f.recordsErr
}

type fakeInbox struct {
	report triage.Report
	err    error
}

func (f *fakeInbox) ProcessInbox(context.Context) (triage.Report, error) {
	return f.report, f.err
}

// pollTask is safe to call from assert.Eventually conditions.
func pollTask(h http.Handler, id string) tasks.Snapshot {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil))
	var snap tasks.Snapshot
	if rec.Code == http.StatusOK {
		_ = json.Unmarshal(rec.Body.Bytes(), &snap)
	}
	return snap
}

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T, sched *fakeScheduler, inbox InboxProcessor) (*API, *tasks.Queue) {
	t.Helper()
	queue := tasks.NewQueue(tasks.Config{Workers: 1})
	t.Cleanup(func() { _ = queue.Close(context.Background()) })

	api := NewAPI(APIConfig{
		Context:   NewServerContext(context.Background(), "1.2.3", map[string]bool{"gmail": true, "calendar": true}),
		Scheduler: sched,
		Inbox:     inbox,
		Queue:     queue,
		Clock:     func() time.Time { return testNow },
	})
	return api, queue
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAPI_Root(t *testing.T) {
	api, _ := newTestAPI(t, &fakeScheduler{}, nil)

	rec := serve(t, api.Handler(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decode[rootResponse](t, rec)
	assert.Equal(t, "AI Executive Assistant is running", got.Message)
	assert.Equal(t, "1.2.3", got.Version)
	assert.Equal(t, map[string]bool{"gmail": true, "calendar": true}, got.Services)

	rec = serve(t, api.Handler(), http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ScheduleMeeting(t *testing.T) {
	slot := meeting.NewSlot(time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC), 30*time.Minute)
	sched := &fakeScheduler{outcome: assistant.Outcome{
		Status:  assistant.StatusScheduled,
		EventID: "evt123",
		Slot:    &slot,
	}}
	api, _ := newTestAPI(t, sched, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "scheduled",
			body:       `{"sender":"Ana <ana@example.com>","subject":"Sync","body":"Can we meet tomorrow?"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed json",
			body:       `{"sender":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing body",
			body:       `{"sender":"ana@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "body is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, api.Handler(), http.MethodPost, "/schedule-meeting", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Contains(t, decode[errorResponse](t, rec).Error, tt.wantError)
				return
			}
			got := decode[assistant.Outcome](t, rec)
			assert.Equal(t, assistant.StatusScheduled, got.Status)
			assert.Equal(t, "evt123", got.EventID)
		})
	}

	require.Len(t, sched.requests, 1)
	assert.Equal(t, assistant.Request{
		Sender:  "Ana <ana@example.com>",
		Subject: "Sync",
		Body:    "Can we meet tomorrow?",
	}, sched.requests[0])

	rec := serve(t, api.Handler(), http.MethodGet, "/schedule-meeting", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_ProcessEmails(t *testing.T) {
	inbox := &fakeInbox{report: triage.Report{Processed: 2, MeetingRequests: 1, Timestamp: testNow}}
	api, _ := newTestAPI(t, &fakeScheduler{}, inbox)
	h := api.Handler()

	rec := serve(t, h, http.MethodPost, "/process-emails", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode[taskAccepted](t, rec)
	assert.Equal(t, "Email processing triggered", accepted.Message)
	require.NotEmpty(t, accepted.TaskID)

	var snap tasks.Snapshot
	require.Eventually(t, func() bool {
		snap = pollTask(h, accepted.TaskID)
		return snap.Status == tasks.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, TaskProcessInbox, snap.Name)
	result, ok := snap.Result.(map[string]interface{})
	require.True(t, ok, "result is %T", snap.Result)
	assert.EqualValues(t, 2, result["processed_emails"])
	assert.EqualValues(t, 1, result["meeting_requests_handled"])
}

func TestAPI_ProcessEmailsFailure(t *testing.T) {
	api, _ := newTestAPI(t, &fakeScheduler{}, &fakeInbox{err: errors.New("gmail unavailable")})
	h := api.Handler()

	rec := serve(t, h, http.MethodPost, "/process-emails", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[taskAccepted](t, rec).TaskID

	require.Eventually(t, func() bool {
		snap := pollTask(h, id)
		return snap.Status == tasks.StatusFailed && snap.Error == "gmail unavailable"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPI_ProcessEmailsUnavailable(t *testing.T) {
	api, queue := newTestAPI(t, &fakeScheduler{}, nil)

	rec := serve(t, api.Handler(), http.MethodPost, "/process-emails", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	api, queue = newTestAPI(t, &fakeScheduler{}, &fakeInbox{})
	require.NoError(t, queue.Close(context.Background()))
	rec = serve(t, api.Handler(), http.MethodPost, "/process-emails", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "closed")
}

func TestAPI_TaskNotFound(t *testing.T) {
	api, _ := newTestAPI(t, &fakeScheduler{}, nil)

	rec := serve(t, api.Handler(), http.MethodGet, "/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "task not found")
}

func TestAPI_DailySummary(t *testing.T) {
	sched := &fakeScheduler{summary: assistant.Summary{Date: "2025-03-10", TotalActivities: 3, Summary: "busy day"}}
	api, _ := newTestAPI(t, sched, nil)
	h := api.Handler()

	rec := serve(t, h, http.MethodGet, "/daily-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testNow, sched.summaryDay)
	assert.Equal(t, "busy day", decode[assistant.Summary](t, rec).Summary)

	rec = serve(t, h, http.MethodGet, "/daily-summary?date=2025-02-28", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), sched.summaryDay)

	rec = serve(t, h, http.MethodGet, "/daily-summary?date=28.02.2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sched.summaryErr = errors.New("store offline")
	rec = serve(t, h, http.MethodGet, "/daily-summary", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "store offline", decode[errorResponse](t, rec).Error)
}

func TestAPI_Activities(t *testing.T) {
	sched := &fakeScheduler{records: []activity.Record{
		{ID: "a1", Type: activity.TypeMeetingScheduled, Timestamp: testNow},
	}}
	api, _ := newTestAPI(t, sched, nil)
	h := api.Handler()

	rec := serve(t, h, http.MethodGet, "/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultActivityLimit, sched.lastLimit)
	got := decode[activitiesResponse](t, rec)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "a1", got.Activities[0].ID)

	rec = serve(t, h, http.MethodGet, "/activities?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, sched.lastLimit)

	for _, bad := range []string{"0", "101", "ten"} {
		rec = serve(t, h, http.MethodGet, "/activities?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}

	sched.records = nil
	rec = serve(t, h, http.MethodGet, "/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"activities":[],"count":0}`, rec.Body.String())
}

func TestAPI_Availability(t *testing.T) {
	slot := meeting.NewSlot(time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC), 45*time.Minute)
	sched := &fakeScheduler{slots: []meeting.Slot{slot}}
	api, _ := newTestAPI(t, sched, nil)
	h := api.Handler()

	rec := serve(t, h, http.MethodGet, "/calendar/availability", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{30, meeting.UrgencyMedium, 10}, sched.slotArgs)

	rec = serve(t, h, http.MethodGet, "/calendar/availability?duration=45&urgency=HIGH&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{45, meeting.UrgencyHigh, 3}, sched.slotArgs)
	got := decode[availabilityResponse](t, rec)
	require.Len(t, got.AvailableSlots, 1)
	assert.True(t, slot.Start.Equal(got.AvailableSlots[0].Start))

	tests := []string{
		"/calendar/availability?duration=0",
		"/calendar/availability?duration=1000",
		"/calendar/availability?urgency=whenever",
		"/calendar/availability?limit=-1",
	}
	for _, target := range tests {
		rec = serve(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	sched.slots = nil
	rec = serve(t, h, http.MethodGet, "/calendar/availability", "")
	assert.JSONEq(t, `{"available_slots":[]}`, rec.Body.String())
}

func TestAPI_HealthEndpoints(t *testing.T) {
	sc := NewServerContext(context.Background(), "1.2.3", map[string]bool{"gmail": false})
	api := NewAPI(APIConfig{Context: sc, Scheduler: &fakeScheduler{}})
	h := api.Handler()

	rec := serve(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodGet, "/healthz/detailed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detailed := decode[DetailedHealthResponse](t, rec)
	assert.Equal(t, "1.2.3", detailed.Version)
	assert.Equal(t, map[string]bool{"gmail": false}, detailed.Services)

	require.NoError(t, sc.Shutdown())
	rec = serve(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	got := decode[HealthResponse](t, rec)
	assert.Equal(t, healthStatusShuttingDown, got.Checks["shutdown"])
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	api, _ := newTestAPI(t, &fakeScheduler{}, nil)
	srv := NewHTTPServer("127.0.0.1:0", api.Handler())

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addr, err := srv.ListenAddr(ctx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-errc, http.ErrServerClosed)
}
