// Package scheduler opens, confirms and cancels interviews for (job, applicant) pairs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/blockedby/hiring-pipeline/internal/apperrors"
	"github.com/blockedby/hiring-pipeline/internal/index"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/notify"
	"github.com/blockedby/hiring-pipeline/internal/reconcile"
	"github.com/blockedby/hiring-pipeline/internal/remote"
)

// Operation names carried by status messages.
const (
	OpSchedule = "schedule_interview"
	OpCancel   = "cancel_interview"
)

// DefaultCloseGrace is how long a confirmation stays readable before the view closes.
const DefaultCloseGrace = 2 * time.Second

// State is a pair's position in the interview lifecycle.
type State string

// State constants.
const (
	StateNone      State = "NONE"
	StateScheduled State = "SCHEDULED"
	StateCompleted State = "COMPLETED"
	StateCancelled State = "CANCELLED"
)

// Draft is an interview being edited before confirmation.
type Draft struct {
	JobID         string    `json:"job_id"`
	ApplicantID   string    `json:"applicant_id"`
	ApplicationID string    `json:"application_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Notes         string    `json:"notes"`
	IsReschedule  bool      `json:"is_reschedule"`
	// InterviewID is set when the draft edits an existing interview.
	InterviewID string `json:"interview_id,omitempty"`
}

func (d Draft) verb() string {
	if d.IsReschedule {
		return "reschedule"
	}
	return "schedule"
}

// Confirmation describes a persisted schedule.
type Confirmation struct {
	Interview  *models.Interview `json:"interview,omitempty"`
	SharedLink string            `json:"shared_link,omitempty"`
	// Copied reports whether the link reached the clipboard.
	Copied  bool   `json:"copied"`
	Message string `json:"message"`
}

// Config wires optional collaborators.
type Config struct {
	Clipboard  notify.Clipboard
	CloseGrace time.Duration
	// OnClose is invoked once CloseGrace has elapsed after a successful confirm.
	OnClose func()
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler owns interview operations.
type Scheduler struct {
	idx      *index.Index
	remote   remote.Boundary
	rec      *reconcile.Reconciler
	notifier notify.Notifier
	log      *logger.Logger

	clipboard  notify.Clipboard
	closeGrace time.Duration
	onClose    func()
	now        func() time.Time

	timerMu    sync.Mutex
	closeTimer *time.Timer
}

// New creates a scheduler. A nil notifier discards messages.
func New(idx *index.Index, boundary remote.Boundary, rec *reconcile.Reconciler, n notify.Notifier, log *logger.Logger, cfg Config) *Scheduler {
	if n == nil {
		n = notify.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = DefaultCloseGrace
	}
	return &Scheduler{
		idx:        idx,
		remote:     boundary,
		rec:        rec,
		notifier:   n,
		log:        logger.OrGlobal(log).Component("scheduler"),
		clipboard:  cfg.Clipboard,
		closeGrace: cfg.CloseGrace,
		onClose:    cfg.OnClose,
		now:        cfg.Now,
	}
}

// State returns the lifecycle node of a pair.
func (s *Scheduler) State(jobID, applicantID string) State {
	if iv, ok := s.idx.InterviewForPair(jobID, applicantID); ok {
		if iv.Status == models.InterviewCompleted {
			return StateCompleted
		}
		return StateScheduled
	}
	for _, iv := range s.idx.Interviews() {
		if iv.JobID == jobID && iv.ApplicantID == applicantID {
			return StateCancelled
		}
	}
	return StateNone
}

// OpenSchedule builds a draft for the application. jobID overrides the
// application's own job reference.
func (s *Scheduler) OpenSchedule(app models.Application, jobID string) (Draft, error) {
	if jobID == "" {
		jobID = app.EffectiveJobID()
	}

	var missing []string
	if app.Applicant.ID == "" {
		missing = append(missing, apperrors.FieldApplicantID)
	}
	if jobID == "" {
		missing = append(missing, apperrors.FieldJobID)
	}
	if len(missing) > 0 {
		return Draft{}, apperrors.InvalidReference("cannot resolve the interview participants", missing...)
	}

	draft := Draft{
		JobID:         jobID,
		ApplicantID:   app.Applicant.ID,
		ApplicationID: app.ID,
		ScheduledAt:   s.now(),
	}
	if iv, ok := s.idx.InterviewForPair(jobID, app.Applicant.ID); ok {
		draft.ScheduledAt = iv.ScheduledAt
		draft.Notes = iv.Notes
		draft.IsReschedule = true
		draft.InterviewID = iv.ID
	}
	return draft, nil
}

// Validate checks a draft without contacting the backend.
func (s *Scheduler) Validate(draft Draft) error {
	if !draft.ScheduledAt.After(s.now()) {
		return apperrors.InvalidDate("interview must be scheduled in the future")
	}
	if n := utf8.RuneCountInString(draft.Notes); n > models.MaxInterviewNotes {
		return apperrors.NotesTooLong(fmt.Sprintf("notes are %d characters; the limit is %d", n, models.MaxInterviewNotes))
	}

	var missing []string
	if draft.ApplicantID == "" {
		missing = append(missing, apperrors.FieldApplicantID)
	}
	if draft.JobID == "" {
		missing = append(missing, apperrors.FieldJobID)
	}
	if draft.ApplicationID == "" {
		missing = append(missing, apperrors.FieldApplicationID)
	}
	if len(missing) > 0 {
		return apperrors.MissingIdentifiers(missing...)
	}
	return nil
}

// ConfirmSchedule validates and persists the draft, then reconciles.
func (s *Scheduler) ConfirmSchedule(ctx context.Context, draft Draft) (Confirmation, error) {
	if err := s.Validate(draft); err != nil {
		s.notifier.Notify(notify.Failure(OpSchedule, apperrors.UserMessage(err, "Invalid interview")))
		return Confirmation{}, err
	}

	log := s.log.With().
		Str("job_id", draft.JobID).
		Str("applicant_id", draft.ApplicantID).
		Str("application_id", draft.ApplicationID).
		Bool("reschedule", draft.IsReschedule).
		Logger()

	res, err := s.remote.ScheduleInterview(ctx, remote.ScheduleRequest{
		JobID:             draft.JobID,
		ApplicantID:       draft.ApplicantID,
		ApplicationID:     draft.ApplicationID,
		ScheduledAt:       draft.ScheduledAt,
		Notes:             draft.Notes,
		RequestSharedLink: true,
	})
	if err != nil {
		serverMsg := remote.ServerMessage(err)
		detail := serverMsg
		if detail == "" {
			detail = "failed to " + draft.verb() + " interview"
		}
		appErr := apperrors.Remote(apperrors.KindScheduleFailed, draft.verb()+": "+detail, serverMsg, err)
		log.Warn().Err(err).Msg("schedule failed")
		log.Debug().Bytes("stack", appErr.StackTrace()).Msg("schedule failure stack")
		s.notifier.Notify(notify.Failure(OpSchedule, appErr.Message))
		return Confirmation{}, appErr
	}

	s.reconcile(ctx, draft.JobID)

	conf := Confirmation{Interview: res.Interview, SharedLink: res.SharedLink}
	if res.Interview != nil && conf.SharedLink == "" {
		conf.SharedLink = res.Interview.MeetingLink
	}
	conf.Message = s.deliverLink(&conf, draft)

	log.Info().Str("shared_link", conf.SharedLink).Msg("interview scheduled")
	s.notifier.Notify(notify.Success(OpSchedule, conf.Message))
	s.scheduleClose()
	return conf, nil
}

// deliverLink copies the link to the clipboard, falling back to a textual confirmation.
func (s *Scheduler) deliverLink(conf *Confirmation, draft Draft) string {
	done := "Interview scheduled"
	if draft.IsReschedule {
		done = "Interview rescheduled"
	}
	if conf.SharedLink == "" {
		return done
	}
	if s.clipboard != nil {
		if err := s.clipboard.Copy(conf.SharedLink); err == nil {
			conf.Copied = true
			return done + "; meeting link copied"
		}
	}
	return done + "; meeting link: " + conf.SharedLink
}

// CancelInterview cancels an interview. The caller has already confirmed with
// the user. Local state changes only after the backend confirms.
func (s *Scheduler) CancelInterview(ctx context.Context, interviewID, jobID string) error {
	if interviewID == "" {
		err := apperrors.MissingIdentifiers(apperrors.FieldInterviewID)
		s.notifier.Notify(notify.Failure(OpCancel, err.Message))
		return err
	}
	if jobID == "" {
		for _, iv := range s.idx.Interviews() {
			if iv.ID == interviewID {
				jobID = iv.JobID
				break
			}
		}
	}

	if err := s.remote.CancelInterview(ctx, interviewID); err != nil {
		appErr := apperrors.Remote(apperrors.KindCancelFailed, "failed to cancel interview", remote.ServerMessage(err), err)
		s.log.Warn().Err(err).Str("interview_id", interviewID).Msg("cancel failed")
		s.log.Debug().Bytes("stack", appErr.StackTrace()).Str("interview_id", interviewID).Msg("cancel failure stack")
		s.notifier.Notify(notify.Failure(OpCancel, apperrors.UserMessage(appErr, "Failed to cancel interview")))
		return appErr
	}

	s.reconcile(ctx, jobID)
	s.log.Info().Str("interview_id", interviewID).Str("job_id", jobID).Msg("interview cancelled")
	s.notifier.Notify(notify.Success(OpCancel, "Interview cancelled"))
	return nil
}

// reconcile refreshes the job's interviews and the whole pipeline. Failures
// leave the previous snapshot in place.
func (s *Scheduler) reconcile(ctx context.Context, jobID string) {
	if jobID != "" {
		if err := s.rec.RefreshInterviews(ctx, jobID); err != nil {
			s.log.Warn().Err(err).Str("job_id", jobID).Msg("interview refresh failed")
		}
	}
	if err := s.rec.RefreshAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("pipeline refresh failed")
	}
}

func (s *Scheduler) scheduleClose() {
	if s.onClose == nil {
		return
	}
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.closeTimer = time.AfterFunc(s.closeGrace, s.onClose)
}

// Stop cancels a pending close callback.
func (s *Scheduler) Stop() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
}
