package index

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func fixture() ([]models.Job, map[string][]models.Application, map[string][]models.Interview) {
	jobs := []models.Job{{ID: "j1", Title: "Backend Engineer"}, {ID: "j2", Title: "Designer"}}
	apps := map[string][]models.Application{
		"j1": {
			{ID: "a1", JobID: "j1", Applicant: models.Applicant{ID: "u1", Skills: models.Skills{" go", "Go", "sql"}}, Status: models.ApplicationPending},
			{ID: "a2", JobID: "j1", Applicant: models.Applicant{ID: "u2"}, Status: models.ApplicationPending},
		},
		"j2": {{ID: "a3", JobID: "j2", Applicant: models.Applicant{ID: "u1"}, Status: models.ApplicationHired}},
	}
	interviews := map[string][]models.Interview{
		"j1": {
			{ID: "i1", JobID: "j1", ApplicantID: "u2", ApplicationID: "a2", ScheduledAt: base, Status: models.InterviewCompleted},
		},
	}
	return jobs, apps, interviews
}

func TestIndex_RebuildsOnStoreChange(t *testing.T) {
	st := store.New()
	x := New(st)
	assert.Empty(t, x.AllApplications())

	st.ReplaceAll(fixture())

	assert.Len(t, x.AllApplications(), 3)
	assert.Len(t, x.Applications("j1"), 2)
	assert.Equal(t, st.Version(), x.Version())

	job, ok := x.Job("j2")
	require.True(t, ok)
	assert.Equal(t, "Designer", job.Title)
}

func TestIndex_NormalizesSkills(t *testing.T) {
	st := store.New()
	x := New(st)
	st.ReplaceAll(fixture())

	apps := x.Applications("j1")
	assert.Equal(t, models.Skills{"go", "sql"}, apps[0].Applicant.Skills)
}

func TestIndex_IdempotentRefresh(t *testing.T) {
	st := store.New()
	x := New(st)

	st.ReplaceAll(fixture())
	first := x.Snapshot()

	st.ReplaceAll(fixture())
	second := x.Snapshot()

	assert.Equal(t, first, second)
}

func TestIndex_InterviewForPair_PrefersActive(t *testing.T) {
	st := store.New()
	x := New(st)

	jobs, apps, _ := fixture()
	apps["j1"] = append(apps["j1"], models.Application{ID: "a4", JobID: "j1", Applicant: models.Applicant{ID: "u1"}})
	st.ReplaceAll(jobs, apps, map[string][]models.Interview{
		"j1": {
			{ID: "scheduled", JobID: "j1", ApplicantID: "u1", ApplicationID: "a1", ScheduledAt: base, Status: models.InterviewScheduled},
			// inserted later and dated later, but cancelled
			{ID: "cancelled", JobID: "j1", ApplicantID: "u1", ApplicationID: "a4", ScheduledAt: base.Add(48 * time.Hour), Status: models.InterviewCancelled},
		},
	})

	iv, ok := x.InterviewForPair("j1", "u1")
	require.True(t, ok)
	assert.Equal(t, "scheduled", iv.ID)
	assert.Len(t, x.ActiveInterviews("j1", "u1"), 1)
}

func TestIndex_InterviewForPair_DuplicatesDegradeGracefully(t *testing.T) {
	st := store.New()
	x := New(st)

	jobs, apps, _ := fixture()
	st.ReplaceAll(jobs, apps, map[string][]models.Interview{
		"j1": {
			{ID: "later", JobID: "j1", ApplicantID: "u1", ScheduledAt: base.Add(time.Hour), Status: models.InterviewScheduled},
			{ID: "earlier", JobID: "j1", ApplicantID: "u1", ScheduledAt: base, Status: models.InterviewScheduled},
		},
	})

	iv, ok := x.InterviewForPair("j1", "u1")
	require.True(t, ok)
	assert.Equal(t, "later", iv.ID)

	_, ok = x.InterviewForPair("j2", "u1")
	assert.False(t, ok)
}

func TestIndex_HasInterview_AnyStatus(t *testing.T) {
	st := store.New()
	x := New(st)
	st.ReplaceAll(fixture())

	assert.True(t, x.HasInterview("a2"), "completed interviews count")
	assert.False(t, x.HasInterview("a1"))
}

func TestIndex_IgnoresSelectionChanges(t *testing.T) {
	st := store.New()
	x := New(st)
	st.ReplaceAll(fixture())
	v := x.Version()

	st.Select("j1", "a1")
	assert.Equal(t, v, x.Version())
}

func TestIndex_ConcurrentWritersConverge(t *testing.T) {
	st := store.New()
	x := New(st)
	st.ReplaceAll(fixture())

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobID := fmt.Sprintf("j%d", w%2+1)
			for i := range 20 {
				st.ReplaceApplications(jobID, []models.Application{
					{ID: fmt.Sprintf("w%d-%d", w, i), JobID: jobID, Status: models.ApplicationPending},
				})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, st.Version(), x.Version())
	for _, jobID := range []string{"j1", "j2"} {
		assert.Equal(t, st.Applications(jobID), x.Applications(jobID), jobID)
	}
}
