// Package hiring is the authoritative pipeline backend. It persists status
// changes and interviews, allocates meeting links and announces every change
// to NATS and connected dashboards.
package hiring

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/publisher"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/repository"
	"github.com/blockedby/hiring-pipeline/internal/web"
)

// Broadcaster pushes events to live dashboards.
type Broadcaster interface {
	Broadcast(message interface{})
}

// Config tunes the service.
type Config struct {
	MeetingBaseURL string
	Now            func() time.Time
}

// Service implements remote.Boundary on top of the repositories.
type Service struct {
	jobs       *repository.JobsRepository
	apps       *repository.ApplicationsRepository
	interviews *repository.InterviewsRepository
	stats      *repository.StatsRepository

	events publisher.EventPublisher
	hub    Broadcaster

	meetingBaseURL string
	now            func() time.Time
	log            *logger.Logger
}

var _ remote.Boundary = (*Service)(nil)

// New creates the service. events defaults to a no-op publisher and hub may be
// nil when another component relays events to dashboards.
func New(db *gorm.DB, events publisher.EventPublisher, hub Broadcaster, log *logger.Logger, cfg Config) *Service {
	log = logger.OrGlobal(log).Component("hiring")
	if events == nil {
		events = publisher.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		jobs:           repository.NewJobsRepository(db),
		apps:           repository.NewApplicationsRepository(db, log),
		interviews:     repository.NewInterviewsRepository(db),
		stats:          repository.NewStatsRepository(db),
		events:         events,
		hub:            hub,
		meetingBaseURL: strings.TrimRight(cfg.MeetingBaseURL, "/"),
		now:            now,
		log:            log,
	}
}

// ListJobs returns every job with its application count.
func (s *Service) ListJobs(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return jobs, nil
}

// ListApplications returns one job's applications, or all of them for an empty
// jobID, each carrying its job context.
func (s *Service) ListApplications(ctx context.Context, jobID string) ([]models.Application, error) {
	if jobID != "" {
		job, err := s.jobs.GetByID(ctx, jobID)
		if err != nil {
			return nil, internal(err)
		}
		if job == nil {
			return nil, remote.NewError(http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		}
	}

	apps, err := s.apps.List(ctx, jobID)
	if err != nil {
		return nil, internal(err)
	}
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	refs := make(map[string]*models.JobRef, len(jobs))
	for _, j := range jobs {
		refs[j.ID] = j.Ref()
	}
	for i := range apps {
		apps[i].Job = refs[apps[i].JobID]
	}
	return apps, nil
}

// ListInterviews returns a job's interviews, cancelled ones included.
func (s *Service) ListInterviews(ctx context.Context, jobID string) ([]models.Interview, error) {
	if jobID == "" {
		return nil, remote.NewError(http.StatusBadRequest, "job_id is required")
	}
	ivs, err := s.interviews.ListByJob(ctx, jobID)
	if err != nil {
		return nil, internal(err)
	}
	return ivs, nil
}

// SetApplicationStatus persists a status change and announces it.
func (s *Service) SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	to, err := models.ParseApplicationStatus(string(status))
	if err != nil {
		return remote.NewError(http.StatusBadRequest, err.Error())
	}

	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return internal(err)
	}
	if app == nil {
		return remote.NewError(http.StatusNotFound, fmt.Sprintf("application %s not found", applicationID))
	}

	if _, err := s.apps.UpdateStatus(ctx, applicationID, to); err != nil {
		return internal(err)
	}

	ev := publisher.StatusChangedEvent{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		From:          app.Status,
		To:            to,
		At:            s.now().UTC(),
	}
	if err := s.events.PublishStatusChanged(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("application_id", app.ID).Msg("publish status change failed")
	}
	s.broadcast(web.EventStatusChanged, ev)
	return nil
}

// ScheduleInterview creates the pair's interview or reschedules its existing
// record in place, so a pair never holds more than one record.
func (s *Service) ScheduleInterview(ctx context.Context, req remote.ScheduleRequest) (remote.ScheduleResult, error) {
	if err := s.validateSchedule(req); err != nil {
		return remote.ScheduleResult{}, err
	}

	app, err := s.apps.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return remote.ScheduleResult{}, internal(err)
	}
	if app == nil {
		return remote.ScheduleResult{}, remote.NewError(http.StatusNotFound, fmt.Sprintf("application %s not found", req.ApplicationID))
	}
	if app.JobID != req.JobID || app.Applicant.ID != req.ApplicantID {
		return remote.ScheduleResult{}, remote.NewError(http.StatusBadRequest, "application does not match job and applicant")
	}

	var saved models.Interview
	err = s.interviews.Transaction(ctx, func(tx *repository.InterviewsRepository) error {
		existing, err := tx.LatestForPair(ctx, req.JobID, req.ApplicantID)
		if err != nil {
			return err
		}

		if existing != nil {
			existing.ApplicationID = req.ApplicationID
			existing.ScheduledAt = req.ScheduledAt.UTC()
			existing.Notes = req.Notes
			existing.Status = models.InterviewScheduled
			existing.IsReschedule = true
			if existing.MeetingLink == "" {
				existing.MeetingLink = s.meetingLink()
			}
			saved = *existing
			return tx.Save(ctx, &saved)
		}

		saved = models.Interview{
			JobID:         req.JobID,
			ApplicantID:   req.ApplicantID,
			ApplicationID: req.ApplicationID,
			ScheduledAt:   req.ScheduledAt.UTC(),
			Notes:         req.Notes,
			Status:        models.InterviewScheduled,
			MeetingLink:   s.meetingLink(),
		}
		return tx.Create(ctx, &saved)
	})
	if err != nil {
		return remote.ScheduleResult{}, internal(err)
	}

	s.log.Info().
		Str("interview_id", saved.ID).
		Str("job_id", saved.JobID).
		Str("applicant_id", saved.ApplicantID).
		Bool("reschedule", saved.IsReschedule).
		Msg("interview scheduled")

	ev := publisher.InterviewEventFrom(saved, s.now().UTC())
	if err := s.events.PublishInterviewScheduled(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("interview_id", saved.ID).Msg("publish interview scheduled failed")
	}
	s.broadcast(web.EventInterviewScheduled, ev)

	result := remote.ScheduleResult{Interview: &saved}
	if req.RequestSharedLink {
		result.SharedLink = saved.MeetingLink
	}
	return result, nil
}

// CancelInterview marks the interview cancelled. Cancelling twice is a no-op.
func (s *Service) CancelInterview(ctx context.Context, interviewID string) error {
	iv, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		return internal(err)
	}
	if iv == nil {
		return remote.NewError(http.StatusNotFound, fmt.Sprintf("interview %s not found", interviewID))
	}
	if iv.Status == models.InterviewCancelled {
		return nil
	}

	if _, err := s.interviews.SetStatus(ctx, interviewID, models.InterviewCancelled); err != nil {
		return internal(err)
	}
	iv.Status = models.InterviewCancelled

	ev := publisher.InterviewEventFrom(*iv, s.now().UTC())
	if err := s.events.PublishInterviewCancelled(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("interview_id", iv.ID).Msg("publish interview cancelled failed")
	}
	s.broadcast(web.EventInterviewCancelled, ev)
	return nil
}

// Stats aggregates the pipeline, optionally for one job.
func (s *Service) Stats(ctx context.Context, jobID string) (*repository.PipelineStats, error) {
	stats, err := s.stats.GetStats(ctx, jobID)
	if err != nil {
		return nil, internal(err)
	}
	return stats, nil
}

func (s *Service) validateSchedule(req remote.ScheduleRequest) error {
	var missing []string
	if req.ApplicantID == "" {
		missing = append(missing, "applicant_id")
	}
	if req.JobID == "" {
		missing = append(missing, "job_id")
	}
	if req.ApplicationID == "" {
		missing = append(missing, "application_id")
	}
	if len(missing) > 0 {
		return remote.NewError(http.StatusBadRequest, "missing "+strings.Join(missing, ", "))
	}
	if !req.ScheduledAt.After(s.now()) {
		return remote.NewError(http.StatusBadRequest, "scheduled_at must be in the future")
	}
	if utf8.RuneCountInString(req.Notes) > models.MaxInterviewNotes {
		return remote.NewError(http.StatusBadRequest, fmt.Sprintf("notes exceed %d characters", models.MaxInterviewNotes))
	}
	return nil
}

func (s *Service) meetingLink() string {
	return s.meetingBaseURL + "/" + uuid.NewString()
}

func (s *Service) broadcast(eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(web.NewEvent(eventType, payload))
}

func internal(err error) error {
	return remote.NewError(http.StatusInternalServerError, err.Error())
}
