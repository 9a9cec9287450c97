package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/hiring-pipeline/internal/apperrors"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/remote/remotetest"
	"github.com/blockedby/hiring-pipeline/internal/scheduler"
	"github.com/blockedby/hiring-pipeline/internal/view"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T) (*Session, *remotetest.Fake) {
	t.Helper()

	applied := now.Add(-72 * time.Hour)
	jobs := []models.Job{
		{ID: "j1", Title: "Backend Engineer", CompanyName: "Acme"},
		{ID: "j2", Title: "Designer", CompanyName: "Zeta"},
	}
	apps := []models.Application{
		{ID: "a1", JobID: "j1", Applicant: models.Applicant{ID: "u1", Name: "Ada", Email: "ada@example.com", ResumeURL: "/cv/ada.pdf"}, Status: models.ApplicationPending, AppliedAt: &applied},
		{ID: "a2", JobID: "j1", Applicant: models.Applicant{ID: "u2", Name: "Grace"}, Status: models.ApplicationPending, AppliedAt: &applied},
		{ID: "a3", JobID: "j2", Applicant: models.Applicant{ID: "u3", Name: "Linus"}, Status: models.ApplicationHired, AppliedAt: &applied},
	}
	interviews := []models.Interview{
		{ID: "i1", JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: now.Add(-time.Hour), Status: models.InterviewCompleted},
	}
	fake := remotetest.New(jobs, apps, interviews)

	s := New(fake, nil, nil, Config{
		WindowBase:  10,
		WindowBatch: 10,
		Origin:      "https://jobs.example.com",
		Scheduler:   scheduler.Config{Now: func() time.Time { return now }},
	})
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background()))
	return s, fake
}

func TestSession_InterviewedTab(t *testing.T) {
	s, _ := newSession(t)

	s.SetCriteria("j1", "j1", view.Criteria{StatusTab: view.TabInterviewed})
	got := s.Visible("j1", "j1")
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, models.ApplicationPending, got[0].Status)
	assert.Equal(t, scheduler.StateCompleted, s.InterviewState("j1", "u1"))
}

func TestSession_FilterChangeClearsSelection(t *testing.T) {
	s, _ := newSession(t)

	s.SelectAll("j1")
	require.Len(t, s.Selected("j1"), 2)

	assert.False(t, s.SetCriteria("j1", "j1", view.Criteria{}), "default criteria are unchanged")
	assert.Len(t, s.Selected("j1"), 2)

	assert.True(t, s.SetCriteria("j1", "j1", view.Criteria{SearchTerm: "ada"}))
	assert.Empty(t, s.Selected("j1"))
}

func TestSession_BulkUpdateSelected(t *testing.T) {
	s, fake := newSession(t)

	s.Select("j1", "a1", "a2")
	res, err := s.BulkUpdateSelected(context.Background(), "j1", models.ApplicationRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, res.Succeeded)
	assert.Empty(t, s.Selected("j1"))

	backend, _ := fake.Application("a2")
	assert.Equal(t, models.ApplicationRejected, backend.Status)

	msg, ok := s.Message()
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Updated 2 applications")
}

func TestSession_ScheduleFlow(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.OpenSchedule("missing", "")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	draft, err := s.OpenSchedule("a2", "")
	require.NoError(t, err)
	draft.ScheduledAt = now.Add(24 * time.Hour)

	_, err = s.ConfirmSchedule(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StateScheduled, s.InterviewState("j1", "u2"))

	iv, ok := s.Index().InterviewForPair("j1", "u2")
	require.True(t, ok)
	require.NoError(t, s.CancelInterview(context.Background(), iv.ID, "j1"))
	assert.Equal(t, scheduler.StateCancelled, s.InterviewState("j1", "u2"))
}

func TestSession_Export(t *testing.T) {
	s, fake := newSession(t)
	fake.DropJobLinkage = true
	require.NoError(t, s.Refresh(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, s.Export("j1", &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Ada", records[1][0])
	assert.Equal(t, "https://jobs.example.com/cv/ada.pdf", records[1][7])
	assert.Equal(t, "Backend Engineer", records[1][10], "job title survives a lossy refresh")

	path, err := s.ExportFile(t.TempDir(), "")
	require.NoError(t, err)
	assert.Contains(t, path, "applications_all_2026-10-15.csv")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	all, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
