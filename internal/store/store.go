// Package store holds the last-known server snapshot of jobs, applications and interviews.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// ChangeKind describes what part of the snapshot changed.
type ChangeKind string

// ChangeKind constants.
const (
	ChangeReplaceAll   ChangeKind = "replace_all"
	ChangeJobs         ChangeKind = "jobs"
	ChangeApplications ChangeKind = "applications"
	ChangeInterviews   ChangeKind = "interviews"
	ChangePatch        ChangeKind = "patch"
	ChangeSelection    ChangeKind = "selection"
)

// Change is delivered to observers after every mutation.
type Change struct {
	Kind    ChangeKind
	JobID   string
	Version uint64
}

// Observer is notified synchronously after the store changes.
type Observer interface {
	SnapshotChanged(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) SnapshotChanged(c Change) { f(c) }

// Store is a typed in-memory container. It performs no validation.
// Applications and interviews are grouped by job id; entries without
// a job are kept under the empty key.
type Store struct {
	mu           sync.RWMutex
	jobs         []models.Job
	applications map[string][]models.Application
	interviews   map[string][]models.Interview
	selections   map[string]map[string]struct{}
	version      uint64

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an empty store.
func New() *Store {
	return &Store{
		applications: make(map[string][]models.Application),
		interviews:   make(map[string][]models.Interview),
		selections:   make(map[string]map[string]struct{}),
	}
}

// Subscribe registers an observer.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

func (s *Store) emit(c Change) {
	s.obsMu.RLock()
	obs := slices.Clone(s.observers)
	s.obsMu.RUnlock()

	for _, o := range obs {
		o.SnapshotChanged(c)
	}
}

// bump must be called with mu held.
func (s *Store) bump() uint64 {
	s.version++
	return s.version
}

// ReplaceAll swaps the whole snapshot.
func (s *Store) ReplaceAll(jobs []models.Job, applicationsByJob map[string][]models.Application, interviewsByJob map[string][]models.Interview) {
	s.mu.Lock()
	s.jobs = slices.Clone(jobs)
	s.applications = cloneBuckets(applicationsByJob)
	s.interviews = cloneBuckets(interviewsByJob)
	s.recountLocked()
	v := s.bump()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReplaceAll, Version: v})
}

// ReplaceJobsAndApplications swaps jobs and every application bucket, keeping interviews.
func (s *Store) ReplaceJobsAndApplications(jobs []models.Job, applicationsByJob map[string][]models.Application) {
	s.mu.Lock()
	s.jobs = slices.Clone(jobs)
	s.applications = cloneBuckets(applicationsByJob)
	s.recountLocked()
	v := s.bump()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeJobs, Version: v})
}

// ReplaceApplications swaps a single job's application bucket.
func (s *Store) ReplaceApplications(jobID string, apps []models.Application) {
	s.mu.Lock()
	if len(apps) == 0 {
		delete(s.applications, jobID)
	} else {
		s.applications[jobID] = slices.Clone(apps)
	}
	s.recountLocked()
	v := s.bump()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeApplications, JobID: jobID, Version: v})
}

// ReplaceInterviews swaps a single job's interview bucket.
func (s *Store) ReplaceInterviews(jobID string, interviews []models.Interview) {
	s.mu.Lock()
	if len(interviews) == 0 {
		delete(s.interviews, jobID)
	} else {
		s.interviews[jobID] = slices.Clone(interviews)
	}
	v := s.bump()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeInterviews, JobID: jobID, Version: v})
}

// PatchApplication applies fn to the stored application with the given id.
// It reports false when no such application exists.
func (s *Store) PatchApplication(applicationID string, fn func(*models.Application)) bool {
	s.mu.Lock()
	jobID, idx, ok := s.locateLocked(applicationID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	// copy-on-write so readers holding an earlier slice never see the patch
	bucket := slices.Clone(s.applications[jobID])
	fn(&bucket[idx])
	s.applications[jobID] = bucket
	v := s.bump()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangePatch, JobID: jobID, Version: v})
	return true
}

// Version returns a counter incremented by every data mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Jobs returns a copy of the job list.
func (s *Store) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.jobs)
}

// Job returns the job with the given id.
func (s *Store) Job(jobID string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			return j, true
		}
	}
	return models.Job{}, false
}

// Applications returns a copy of one job's bucket.
func (s *Store) Applications(jobID string) []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.applications[jobID])
}

// AllApplications returns every application, ordered by bucket then insertion.
func (s *Store) AllApplications() []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Application
	for _, key := range s.bucketOrderLocked(slices.Collect(maps.Keys(s.applications))) {
		out = append(out, s.applications[key]...)
	}
	return out
}

// ApplicationBuckets returns a copy of every application bucket.
func (s *Store) ApplicationBuckets() map[string][]models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBuckets(s.applications)
}

// Interviews returns a copy of one job's interviews.
func (s *Store) Interviews(jobID string) []models.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.interviews[jobID])
}

// AllInterviews returns every interview, ordered by bucket then insertion.
func (s *Store) AllInterviews() []models.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allInterviewsLocked()
}

func (s *Store) allInterviewsLocked() []models.Interview {
	var out []models.Interview
	for _, key := range s.bucketOrderLocked(slices.Collect(maps.Keys(s.interviews))) {
		out = append(out, s.interviews[key]...)
	}
	return out
}

// Snapshot is a consistent copy of the store taken under a single lock.
type Snapshot struct {
	Jobs               []models.Job
	ApplicationBuckets map[string][]models.Application
	Interviews         []models.Interview
	Version            uint64
}

// Snapshot copies jobs, application buckets and interviews together with
// the version they belong to.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Jobs:               slices.Clone(s.jobs),
		ApplicationBuckets: cloneBuckets(s.applications),
		Interviews:         s.allInterviewsLocked(),
		Version:            s.version,
	}
}

// FindApplication returns the application and the key of the bucket holding it.
func (s *Store) FindApplication(applicationID string) (models.Application, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobID, idx, ok := s.locateLocked(applicationID)
	if !ok {
		return models.Application{}, "", false
	}
	return s.applications[jobID][idx], jobID, true
}

func (s *Store) locateLocked(applicationID string) (string, int, bool) {
	for _, key := range s.bucketOrderLocked(slices.Collect(maps.Keys(s.applications))) {
		for i, app := range s.applications[key] {
			if app.ID == applicationID {
				return key, i, true
			}
		}
	}
	return "", 0, false
}

// bucketOrderLocked orders keys by job list position, unknown keys sorted after.
func (s *Store) bucketOrderLocked(keys []string) []string {
	pos := make(map[string]int, len(s.jobs))
	for i, j := range s.jobs {
		pos[j.ID] = i
	}
	slices.SortFunc(keys, func(a, b string) int {
		pa, oka := pos[a]
		pb, okb := pos[b]
		switch {
		case oka && okb:
			return pa - pb
		case oka:
			return -1
		case okb:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return keys
}

func (s *Store) recountLocked() {
	for i := range s.jobs {
		s.jobs[i].ApplicationCount = len(s.applications[s.jobs[i].ID])
	}
}

func cloneBuckets[T any](in map[string][]T) map[string][]T {
	out := make(map[string][]T, len(in))
	for k, v := range in {
		if len(v) == 0 {
			continue
		}
		out[k] = slices.Clone(v)
	}
	return out
}
