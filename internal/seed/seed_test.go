package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/repository"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func TestLoad_Fixture(t *testing.T) {
	f, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)

	require.Len(t, f.Jobs, 2)
	require.Len(t, f.Applications, 3)
	require.Len(t, f.Interviews, 1)

	assert.Equal(t, 140000, *f.Jobs[0].SalaryMax)
	ada := f.Applications[0]
	assert.Equal(t, "Ada Lovelace", ada.Applicant.Name)
	assert.Equal(t, models.Skills{"Go", "PostgreSQL", "NATS"}, ada.Applicant.Skills)
	require.NotNil(t, ada.AppliedAt)
	assert.True(t, ada.AppliedAt.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)))

	assert.NoError(t, f.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Jobs)
	assert.NoError(t, f.Validate())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("jobs:\n  - id: j1\n    title: X\n    colour: red\n"))
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	doc := `
jobs:
  - id: j1
    title: Backend
  - id: j1
    title: ""
applications:
  - id: a1
    job_id: j1
    status: archived
    applicant: {id: u1}
  - id: a2
    job_id: ghost
    applicant: {id: ""}
interviews:
  - id: iv1
    job_id: j1
    applicant_id: u1
    application_id: a1
    scheduled_at: 2026-03-01T10:00:00Z
  - id: iv2
    job_id: j1
    applicant_id: u1
    application_id: a1
    scheduled_at: 2026-03-02T10:00:00Z
  - id: iv3
    job_id: j1
    applicant_id: u9
    application_id: missing
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)

	verr := f.Validate()
	require.Error(t, verr)
	msg := verr.Error()
	for _, want := range []string{
		`jobs[1]: duplicate id "j1"`,
		"jobs[1]: title is required",
		`unknown application status: "archived"`,
		`applications[1]: unknown job "ghost"`,
		"applications[1]: applicant.id is required",
		"interviews[1]: pair (j1, u1) already has active interview",
		`interviews[2]: unknown application "missing"`,
		"interviews[2]: scheduled_at is required",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_CancelledInterviewsDoNotCollide(t *testing.T) {
	f := &File{
		Jobs:         []models.Job{{ID: "j1", Title: "Backend"}},
		Applications: []models.Application{{ID: "a1", JobID: "j1", Applicant: models.Applicant{ID: "u1"}}},
		Interviews: []models.Interview{
			{ID: "iv1", JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: time.Now(), Status: models.InterviewCancelled},
			{ID: "iv2", JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: time.Now()},
		},
	}
	assert.NoError(t, f.Validate())
}

func TestValidate_NotesLimit(t *testing.T) {
	f := &File{
		Jobs:         []models.Job{{ID: "j1", Title: "Backend"}},
		Applications: []models.Application{{ID: "a1", JobID: "j1", Applicant: models.Applicant{ID: "u1"}}},
		Interviews: []models.Interview{
			{ID: "iv1", JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: time.Now(), Notes: strings.Repeat("n", 501)},
		},
	}
	assert.ErrorContains(t, f.Validate(), "notes exceed 500 characters")
}

func TestApply(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	f, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)
	require.NoError(t, f.Apply(ctx, db, nil))
	// applying twice is idempotent
	require.NoError(t, f.Apply(ctx, db, nil))

	jobs, err := repository.NewJobsRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 2, jobs[0].ApplicationCount)

	apps, err := repository.NewApplicationsRepository(db, nil).List(ctx, "")
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, models.Skills{"Go", "PostgreSQL", "NATS"}, apps[0].Applicant.Skills)

	ivs, err := repository.NewInterviewsRepository(db).ListByJob(ctx, "job-backend")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	assert.Equal(t, "https://meet.example.com/iv-ada", ivs[0].MeetingLink)
}

func TestApply_InvalidSeedWritesNothing(t *testing.T) {
	db := openDB(t)
	f := &File{Applications: []models.Application{{ID: "a1", JobID: "ghost", Applicant: models.Applicant{ID: "u1"}}}}

	require.Error(t, f.Apply(context.Background(), db, nil))

	apps, err := repository.NewApplicationsRepository(db, nil).List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, apps)
}
