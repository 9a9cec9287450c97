// Package api provides the REST API of the pipeline backend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-fuego/fuego"

	"github.com/blockedby/hiring-pipeline/internal/export"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/repository"
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	return HealthResponse{
		Status:  "ok",
		Version: s.version,
	}, nil
}

// ============================================================================
// Jobs Handlers
// ============================================================================

func (s *Server) listJobs(c fuego.ContextNoBody) (JobsListResponse, error) {
	jobs, err := s.deps.Backend.ListJobs(c.Context())
	if err != nil {
		return JobsListResponse{}, httpError(err)
	}
	return JobsListResponse{Jobs: jobs}, nil
}

// ============================================================================
// Applications Handlers
// ============================================================================

func (s *Server) listApplications(c fuego.ContextNoBody) (ApplicationsListResponse, error) {
	apps, err := s.deps.Backend.ListApplications(c.Context(), c.QueryParam("job_id"))
	if err != nil {
		return ApplicationsListResponse{}, httpError(err)
	}
	return ApplicationsListResponse{Applications: apps}, nil
}

func (s *Server) updateApplicationStatus(c fuego.ContextWithBody[ApplicationUpdateStatusRequest]) (StatusResponse, error) {
	id := c.PathParam("id")
	if id == "" {
		return StatusResponse{}, fuego.BadRequestError{Detail: "application id is required"}
	}

	body, err := c.Body()
	if err != nil {
		return StatusResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	status, err := models.ParseApplicationStatus(body.Status)
	if err != nil {
		return StatusResponse{}, fuego.BadRequestError{Detail: "Invalid status"}
	}

	if err := s.deps.Backend.SetApplicationStatus(c.Context(), id, status); err != nil {
		return StatusResponse{}, httpError(err)
	}
	return StatusResponse{Status: "updated"}, nil
}

// ============================================================================
// Interviews Handlers
// ============================================================================

func (s *Server) listInterviews(c fuego.ContextNoBody) (InterviewsListResponse, error) {
	jobID := c.QueryParam("job_id")
	if jobID == "" {
		return InterviewsListResponse{}, fuego.BadRequestError{Detail: "job_id is required"}
	}

	ivs, err := s.deps.Backend.ListInterviews(c.Context(), jobID)
	if err != nil {
		return InterviewsListResponse{}, httpError(err)
	}
	return InterviewsListResponse{Interviews: ivs}, nil
}

func (s *Server) scheduleInterview(c fuego.ContextWithBody[ScheduleInterviewRequest]) (ScheduleInterviewResponse, error) {
	body, err := c.Body()
	if err != nil {
		return ScheduleInterviewResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	res, err := s.deps.Backend.ScheduleInterview(c.Context(), body)
	if err != nil {
		return ScheduleInterviewResponse{}, httpError(err)
	}
	return res, nil
}

func (s *Server) cancelInterview(c fuego.ContextNoBody) (StatusResponse, error) {
	if err := s.deps.Backend.CancelInterview(c.Context(), c.PathParam("id")); err != nil {
		return StatusResponse{}, httpError(err)
	}
	return StatusResponse{Status: "cancelled"}, nil
}

// ============================================================================
// Stats
// ============================================================================

func (s *Server) getStats(c fuego.ContextNoBody) (repository.PipelineStats, error) {
	stats, err := s.deps.Stats.Stats(c.Context(), c.QueryParam("job_id"))
	if err != nil {
		return repository.PipelineStats{}, httpError(err)
	}
	return *stats, nil
}

// ============================================================================
// Export
// ============================================================================

func (s *Server) exportApplications(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")

	apps, err := s.deps.Backend.ListApplications(r.Context(), jobID)
	if err != nil {
		writeProblem(w, err)
		return
	}

	scope := jobID
	if scope == "" {
		scope = export.ScopeAll
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(scope, s.now())))
	w.WriteHeader(http.StatusOK)

	if err := export.Write(w, apps, nil, export.Options{Origin: s.publicOrigin}); err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("export write failed")
	}
}

// ============================================================================
// Errors
// ============================================================================

// httpError translates a backend failure into the matching problem response.
func httpError(err error) error {
	var re *remote.Error
	if !errors.As(err, &re) {
		return fuego.InternalServerError{Detail: err.Error()}
	}
	switch re.StatusCode {
	case http.StatusBadRequest:
		return fuego.BadRequestError{Detail: re.Message}
	case http.StatusNotFound:
		return fuego.NotFoundError{Detail: re.Message}
	case http.StatusConflict:
		return fuego.ConflictError{Detail: re.Message}
	default:
		return fuego.InternalServerError{Detail: re.Message}
	}
}

func writeProblem(w http.ResponseWriter, err error) {
	status, detail := http.StatusInternalServerError, err.Error()
	var re *remote.Error
	if errors.As(err, &re) {
		status, detail = re.StatusCode, re.Message
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

func defaultNow() time.Time { return time.Now().UTC() }
