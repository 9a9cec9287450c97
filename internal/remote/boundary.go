// Package remote defines the backend boundary used by the pipeline engines
// and provides an HTTP implementation of it.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// Boundary is the request/response contract with the authoritative backend.
type Boundary interface {
	ListJobs(ctx context.Context) ([]models.Job, error)
	// ListApplications returns the full pipeline when jobID is empty.
	ListApplications(ctx context.Context, jobID string) ([]models.Application, error)
	ListInterviews(ctx context.Context, jobID string) ([]models.Interview, error)
	SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error
	ScheduleInterview(ctx context.Context, req ScheduleRequest) (ScheduleResult, error)
	CancelInterview(ctx context.Context, interviewID string) error
}

// ScheduleRequest asks the backend to create or reschedule the pair's interview.
type ScheduleRequest struct {
	JobID             string    `json:"job_id"`
	ApplicantID       string    `json:"applicant_id"`
	ApplicationID     string    `json:"application_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Notes             string    `json:"notes,omitempty"`
	RequestSharedLink bool      `json:"request_shared_link"`
}

// ScheduleResult carries what the backend allocated.
type ScheduleResult struct {
	Interview  *models.Interview `json:"interview,omitempty"`
	SharedLink string            `json:"shared_link,omitempty"`
}

// Error is a non-successful backend response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// NewError builds a backend error; the in-process backend uses it too.
func NewError(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// ServerMessage returns the message the backend supplied, if err carries one.
func ServerMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}
