package api

import (
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/remote"
)

// ============================================================================
// Common Types
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status" example:"ok" description:"Health status"`
	Version string `json:"version" example:"dev" description:"Application version"`
}

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status" example:"updated" description:"Outcome of the operation"`
}

// ============================================================================
// Jobs Types
// ============================================================================

// JobsListResponse lists every job.
type JobsListResponse struct {
	Jobs []models.Job `json:"jobs" description:"Jobs with application counts"`
}

// ============================================================================
// Applications Types
// ============================================================================

// ApplicationsListResponse lists applications of one job or of all jobs.
type ApplicationsListResponse struct {
	Applications []models.Application `json:"applications" description:"Applications with job context"`
}

// ApplicationUpdateStatusRequest contains the request body for a status change.
type ApplicationUpdateStatusRequest struct {
	Status string `json:"status" validate:"required" description:"New status: pending, interviewed, hired, rejected"`
}

// ============================================================================
// Interviews Types
// ============================================================================

// InterviewsListResponse lists a job's interviews.
type InterviewsListResponse struct {
	Interviews []models.Interview `json:"interviews" description:"Interviews, cancelled ones included"`
}

// ScheduleInterviewRequest creates or reschedules the pair's interview.
type ScheduleInterviewRequest = remote.ScheduleRequest

// ScheduleInterviewResponse carries the saved interview and its shared link.
type ScheduleInterviewResponse = remote.ScheduleResult
