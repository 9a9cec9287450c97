// Package index derives lookup structures from the snapshot store.
package index

import (
	"sync"

	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/store"
)

type pairKey struct {
	jobID       string
	applicantID string
}

// Index is rebuilt synchronously whenever the store changes.
type Index struct {
	st *store.Store

	mu                sync.RWMutex
	jobs              map[string]models.Job
	jobOrder          []string
	applicationsByJob map[string][]models.Application
	activeByPair      map[pairKey]models.Interview
	interviewedApps   map[string]struct{}
	interviews        []models.Interview
	version           uint64
}

// New builds an index over st and subscribes to its changes.
func New(st *store.Store) *Index {
	x := &Index{st: st}
	x.Rebuild()
	st.Subscribe(x)
	return x
}

// SnapshotChanged implements store.Observer.
func (x *Index) SnapshotChanged(c store.Change) {
	if c.Kind == store.ChangeSelection {
		return
	}
	x.Rebuild()
}

// Rebuild recomputes every derived map from the store.
func (x *Index) Rebuild() {
	snap := x.st.Snapshot()
	jobs, buckets, interviews, version := snap.Jobs, snap.ApplicationBuckets, snap.Interviews, snap.Version

	jobMap := make(map[string]models.Job, len(jobs))
	order := make([]string, 0, len(jobs))
	for _, j := range jobs {
		jobMap[j.ID] = j
		order = append(order, j.ID)
	}

	for jobID, apps := range buckets {
		for i := range apps {
			apps[i].Applicant.Skills = apps[i].Applicant.Skills.Normalized()
		}
		buckets[jobID] = apps
	}

	active := make(map[pairKey]models.Interview)
	interviewed := make(map[string]struct{})
	for _, iv := range interviews {
		if iv.ApplicationID != "" {
			interviewed[iv.ApplicationID] = struct{}{}
		}
		if !iv.IsActive() {
			continue
		}
		key := pairKey{jobID: iv.JobID, applicantID: iv.ApplicantID}
		// duplicates should not exist; keep the latest dated one if they do
		if cur, ok := active[key]; !ok || iv.ScheduledAt.After(cur.ScheduledAt) {
			active[key] = iv
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	// a concurrent rebuild may already have installed newer data
	if version < x.version {
		return
	}
	x.jobs = jobMap
	x.jobOrder = order
	x.applicationsByJob = buckets
	x.activeByPair = active
	x.interviewedApps = interviewed
	x.interviews = interviews
	x.version = version
}

// Version returns the store version the index was built from.
func (x *Index) Version() uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.version
}

// ApplicationsByJob returns a copy of the per-job application lists.
func (x *Index) ApplicationsByJob() map[string][]models.Application {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make(map[string][]models.Application, len(x.applicationsByJob))
	for k, v := range x.applicationsByJob {
		out[k] = append([]models.Application(nil), v...)
	}
	return out
}

// Applications returns the normalized applications for one job.
func (x *Index) Applications(jobID string) []models.Application {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]models.Application(nil), x.applicationsByJob[jobID]...)
}

// AllApplications returns every normalized application, ordered by job.
func (x *Index) AllApplications() []models.Application {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []models.Application
	seen := make(map[string]bool, len(x.jobOrder))
	for _, id := range x.jobOrder {
		seen[id] = true
		out = append(out, x.applicationsByJob[id]...)
	}
	// buckets for jobs that are not in the job list
	for _, key := range sortedKeys(x.applicationsByJob) {
		if !seen[key] {
			out = append(out, x.applicationsByJob[key]...)
		}
	}
	return out
}

// InterviewForPair returns the most recently dated active interview for the pair.
func (x *Index) InterviewForPair(jobID, applicantID string) (models.Interview, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	iv, ok := x.activeByPair[pairKey{jobID: jobID, applicantID: applicantID}]
	return iv, ok
}

// HasInterview reports whether any interview, in any state, references the application.
func (x *Index) HasInterview(applicationID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.interviewedApps[applicationID]
	return ok
}

// Interviews returns every interview known to the index.
func (x *Index) Interviews() []models.Interview {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]models.Interview(nil), x.interviews...)
}

// ActiveInterviews returns the active interviews for a pair, for invariant checks.
func (x *Index) ActiveInterviews(jobID, applicantID string) []models.Interview {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []models.Interview
	for _, iv := range x.interviews {
		if iv.JobID == jobID && iv.ApplicantID == applicantID && iv.IsActive() {
			out = append(out, iv)
		}
	}
	return out
}

// Job returns a job by id.
func (x *Index) Job(jobID string) (models.Job, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	j, ok := x.jobs[jobID]
	return j, ok
}

// Jobs returns jobs in store order.
func (x *Index) Jobs() []models.Job {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]models.Job, 0, len(x.jobOrder))
	for _, id := range x.jobOrder {
		out = append(out, x.jobs[id])
	}
	return out
}

// Snapshot is a comparable view of the derived state.
type Snapshot struct {
	Jobs              []models.Job
	ApplicationsByJob map[string][]models.Application
	ActivePairs       map[string]models.Interview
	Interviewed       []string
}

// Snapshot returns the derived state without the store version.
func (x *Index) Snapshot() Snapshot {
	x.mu.RLock()
	active := make(map[string]models.Interview, len(x.activeByPair))
	for k, v := range x.activeByPair {
		active[k.jobID+"/"+k.applicantID] = v
	}
	interviewed := make([]string, 0, len(x.interviewedApps))
	for id := range x.interviewedApps {
		interviewed = append(interviewed, id)
	}
	x.mu.RUnlock()

	return Snapshot{
		Jobs:              x.Jobs(),
		ApplicationsByJob: x.ApplicationsByJob(),
		ActivePairs:       active,
		Interviewed:       sortStrings(interviewed),
	}
}
