package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second, logger.Get())
}

func TestClient_ListApplications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/applications", r.URL.Path)
		assert.Equal(t, "j1", r.URL.Query().Get("job_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"applications":[{"id":"a1","job_id":"j1","status":"pending",
			"applicant":{"id":"u1","name":"Ada","skills":[{"name":"go"},{"name":"sql"}]}}],"total":1}`))
	})

	apps, err := c.ListApplications(context.Background(), "j1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.ApplicationPending, apps[0].Status)
	assert.Equal(t, models.Skills{"go", "sql"}, apps[0].Applicant.Skills)
}

func TestClient_ListApplications_AllJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"applications":[]}`))
	})

	apps, err := c.ListApplications(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestClient_SetApplicationStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/applications/a1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hired", body["status"])
		_, _ = w.Write([]byte(`{"status":"updated"}`))
	})

	require.NoError(t, c.SetApplicationStatus(context.Background(), "a1", models.ApplicationHired))
}

func TestClient_ErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"title":"Conflict","status":409,"detail":"interview already exists"}`))
	})

	_, err := c.ScheduleInterview(context.Background(), ScheduleRequest{JobID: "j1"})
	require.Error(t, err)
	assert.Equal(t, "interview already exists", ServerMessage(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
}

func TestClient_ScheduleInterview(t *testing.T) {
	when := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.RequestSharedLink)
		assert.True(t, req.ScheduledAt.Equal(when))
		_ = json.NewEncoder(w).Encode(ScheduleResult{
			Interview:  &models.Interview{ID: "i1", JobID: req.JobID, Status: models.InterviewScheduled},
			SharedLink: "https://meet.example.com/x",
		})
	})

	res, err := c.ScheduleInterview(context.Background(), ScheduleRequest{
		JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: when, RequestSharedLink: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/x", res.SharedLink)
	require.NotNil(t, res.Interview)
	assert.Equal(t, "i1", res.Interview.ID)
}

func TestClient_CancelInterview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/interviews/i1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.CancelInterview(context.Background(), "i1"))
}

func TestServerMessage_PlainError(t *testing.T) {
	assert.Empty(t, ServerMessage(assert.AnError))
	assert.Equal(t, "nope", ServerMessage(NewError(400, "nope")))
}
