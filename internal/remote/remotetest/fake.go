// Package remotetest provides an in-memory remote.Boundary for tests.
package remotetest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/remote"
)

// Fake is a stateful backend. Failure hooks are consulted before any mutation.
type Fake struct {
	mu           sync.Mutex
	jobs         []models.Job
	applications []models.Application
	interviews   []models.Interview
	nextID       int

	// StatusErr, when set, decides the outcome of SetApplicationStatus per id.
	StatusErr func(applicationID string) error
	// ScheduleErr and CancelErr fail every call when set.
	ScheduleErr error
	CancelErr   error
	// ListErr fails every list call when set.
	ListErr error
	// DropJobLinkage strips job_id and job from listed applications.
	DropJobLinkage bool
	// SharedLink is returned by ScheduleInterview when a link is requested.
	SharedLink string

	Calls map[string]int
}

// New creates a fake seeded with the given data.
func New(jobs []models.Job, apps []models.Application, interviews []models.Interview) *Fake {
	return &Fake{
		jobs:         slices.Clone(jobs),
		applications: slices.Clone(apps),
		interviews:   slices.Clone(interviews),
		Calls:        make(map[string]int),
	}
}

func (f *Fake) count(name string) {
	f.Calls[name]++
}

// CallCount returns how often a method was invoked.
func (f *Fake) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

// Application returns the backend's copy of an application.
func (f *Fake) Application(id string) (models.Application, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.applications {
		if a.ID == id {
			return a, true
		}
	}
	return models.Application{}, false
}

// InterviewsFor returns the backend's interviews for a pair.
func (f *Fake) InterviewsFor(jobID, applicantID string) []models.Interview {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Interview
	for _, iv := range f.interviews {
		if iv.JobID == jobID && iv.ApplicantID == applicantID {
			out = append(out, iv)
		}
	}
	return out
}

func (f *Fake) ListJobs(_ context.Context) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ListJobs")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return slices.Clone(f.jobs), nil
}

func (f *Fake) ListApplications(_ context.Context, jobID string) ([]models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ListApplications")
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var out []models.Application
	for _, a := range f.applications {
		if jobID != "" && a.JobID != jobID {
			continue
		}
		if f.DropJobLinkage {
			a.JobID = ""
			a.Job = nil
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *Fake) ListInterviews(_ context.Context, jobID string) ([]models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ListInterviews")
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var out []models.Interview
	for _, iv := range f.interviews {
		if iv.JobID == jobID {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *Fake) SetApplicationStatus(_ context.Context, applicationID string, status models.ApplicationStatus) error {
	f.mu.Lock()
	hook := f.StatusErr
	f.count("SetApplicationStatus")
	f.mu.Unlock()

	// the hook runs unlocked so tests can block inside it
	if hook != nil {
		if err := hook(applicationID); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.applications {
		if f.applications[i].ID == applicationID {
			f.applications[i].Status = status
			return nil
		}
	}
	return remote.NewError(http.StatusNotFound, "application not found")
}

func (f *Fake) ScheduleInterview(_ context.Context, req remote.ScheduleRequest) (remote.ScheduleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("ScheduleInterview")
	if f.ScheduleErr != nil {
		return remote.ScheduleResult{}, f.ScheduleErr
	}

	now := time.Now()
	link := ""
	if req.RequestSharedLink {
		link = f.SharedLink
	}

	// reuse the pair's record: an active one first, else the latest cancelled one
	target := -1
	for i, iv := range f.interviews {
		if iv.JobID != req.JobID || iv.ApplicantID != req.ApplicantID {
			continue
		}
		if iv.IsActive() {
			target = i
			break
		}
		target = i
	}

	if target >= 0 {
		iv := &f.interviews[target]
		iv.ScheduledAt = req.ScheduledAt
		iv.Notes = req.Notes
		iv.Status = models.InterviewScheduled
		iv.IsReschedule = true
		iv.ApplicationID = req.ApplicationID
		iv.UpdatedAt = now
		if link != "" {
			iv.MeetingLink = link
		}
		out := *iv
		return remote.ScheduleResult{Interview: &out, SharedLink: link}, nil
	}

	f.nextID++
	iv := models.Interview{
		ID:            fmt.Sprintf("iv-%d", f.nextID),
		JobID:         req.JobID,
		ApplicantID:   req.ApplicantID,
		ApplicationID: req.ApplicationID,
		ScheduledAt:   req.ScheduledAt,
		Notes:         req.Notes,
		Status:        models.InterviewScheduled,
		MeetingLink:   link,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.interviews = append(f.interviews, iv)
	return remote.ScheduleResult{Interview: &iv, SharedLink: link}, nil
}

func (f *Fake) CancelInterview(_ context.Context, interviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("CancelInterview")
	if f.CancelErr != nil {
		return f.CancelErr
	}
	for i := range f.interviews {
		if f.interviews[i].ID == interviewID {
			f.interviews[i].Status = models.InterviewCancelled
			f.interviews[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return remote.NewError(http.StatusNotFound, "interview not found")
}

var _ remote.Boundary = (*Fake)(nil)
