// Package transition changes application statuses with optimistic local
// writes, remote persistence and reconciliation.
package transition

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/blockedby/hiring-pipeline/internal/apperrors"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/notify"
	"github.com/blockedby/hiring-pipeline/internal/reconcile"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/store"
)

// Operation names carried by status messages.
const (
	OpUpdateStatus     = "update_status"
	OpBulkUpdateStatus = "bulk_update_status"
)

const (
	defaultConcurrency = 8
	defaultRPS         = 20
)

// Config controls bulk pacing.
type Config struct {
	// BulkConcurrency bounds in-flight persistence calls.
	BulkConcurrency int
	// BulkRPS paces persistence calls; zero or less disables pacing.
	BulkRPS float64
}

// Engine applies status transitions.
type Engine struct {
	st       *store.Store
	remote   remote.Boundary
	rec      *reconcile.Reconciler
	notifier notify.Notifier
	log      *logger.Logger

	concurrency int
	limiter     *rate.Limiter
}

// ItemFailure is the outcome of one failed bulk item.
type ItemFailure struct {
	ApplicationID string `json:"application_id"`
	Message       string `json:"message"`
}

// BulkResult reports per-item outcomes of a bulk update.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

// Total returns the number of items attempted.
func (r BulkResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// New creates an engine. A nil notifier discards messages.
func New(st *store.Store, boundary remote.Boundary, rec *reconcile.Reconciler, n notify.Notifier, log *logger.Logger, cfg Config) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = defaultConcurrency
	}

	var limiter *rate.Limiter
	if cfg.BulkRPS > 0 {
		burst := int(cfg.BulkRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.BulkRPS), burst)
	}

	return &Engine{
		st:          st,
		remote:      boundary,
		rec:         rec,
		notifier:    n,
		log:         logger.OrGlobal(log).Component("transition"),
		concurrency: cfg.BulkConcurrency,
		limiter:     limiter,
	}
}

// settable parses a status a caller may set directly. Interviewed is derived
// from interview records and is never written.
func settable(status models.ApplicationStatus) (models.ApplicationStatus, error) {
	parsed, err := models.ParseApplicationStatus(string(status))
	if err != nil {
		return "", apperrors.InvalidStatus(err.Error())
	}
	if parsed == models.ApplicationInterviewed {
		return "", apperrors.InvalidStatus("status interviewed is derived from interviews and cannot be set")
	}
	return parsed, nil
}

// UpdateStatus writes newStatus locally, persists it and reconciles the job bucket.
// On remote failure the whole bucket is restored and UpdateFailed is returned.
func (e *Engine) UpdateStatus(ctx context.Context, applicationID string, newStatus models.ApplicationStatus, jobIDHint string) error {
	status, err := settable(newStatus)
	if err != nil {
		e.fail(OpUpdateStatus, err)
		return err
	}

	app, bucketKey, ok := e.st.FindApplication(applicationID)
	if !ok {
		err := apperrors.NotFound(fmt.Sprintf("application %s not found", applicationID))
		e.fail(OpUpdateStatus, err)
		return err
	}

	snapshot := e.st.Applications(bucketKey)
	e.st.PatchApplication(applicationID, func(a *models.Application) {
		a.Status = status
		now := time.Now()
		a.UpdatedAt = &now
	})

	jobID := jobIDHint
	if jobID == "" {
		jobID = app.EffectiveJobID()
	}
	if jobID == "" {
		jobID = bucketKey
	}

	log := e.log.With().
		Str("application_id", applicationID).
		Str("job_id", jobID).
		Str("status", string(status)).
		Logger()

	if err := e.remote.SetApplicationStatus(ctx, applicationID, status); err != nil {
		e.st.ReplaceApplications(bucketKey, snapshot)

		appErr := apperrors.Remote(apperrors.KindUpdateFailed, "failed to update application status", remote.ServerMessage(err), err)
		log.Warn().Err(err).Msg("status update failed, bucket restored")
		log.Debug().Bytes("stack", appErr.StackTrace()).Msg("status update failure stack")
		e.fail(OpUpdateStatus, appErr)
		return appErr
	}

	if jobID == "" {
		// persisted, but there is no bucket to reconcile against
		err := apperrors.MissingJobContext(fmt.Sprintf("application %s has no job context; status saved without refresh", applicationID))
		e.notifier.Notify(notify.Failure(OpUpdateStatus, err.Message))
		return err
	}

	if err := e.rec.RefreshApplications(ctx, jobID, jobIDHint); err != nil {
		log.Warn().Err(err).Msg("refresh after status update failed, keeping local state")
	}

	log.Info().Msg("application status updated")
	e.notifier.Notify(notify.Success(OpUpdateStatus, fmt.Sprintf("Status updated to %s", status)))
	return nil
}

// BulkUpdateStatus persists newStatus for every id concurrently. Items that
// succeed are never rolled back. The job bucket is refreshed and its
// selection cleared once every call has returned.
func (e *Engine) BulkUpdateStatus(ctx context.Context, jobID string, applicationIDs []string, newStatus models.ApplicationStatus) (BulkResult, error) {
	if len(applicationIDs) == 0 {
		return BulkResult{}, nil
	}
	// the bucket to refresh and the selection to clear are keyed by job
	if jobID == "" {
		err := apperrors.MissingIdentifiers(apperrors.FieldJobID)
		e.fail(OpBulkUpdateStatus, err)
		return BulkResult{}, err
	}

	status, err := settable(newStatus)
	if err != nil {
		e.fail(OpBulkUpdateStatus, err)
		return BulkResult{}, err
	}

	var (
		mu     sync.Mutex
		result BulkResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, id := range applicationIDs {
		g.Go(func() error {
			err := e.persistOne(gctx, id, status)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				msg := remote.ServerMessage(err)
				if msg == "" {
					msg = err.Error()
				}
				result.Failed = append(result.Failed, ItemFailure{ApplicationID: id, Message: msg})
				return nil
			}
			result.Succeeded = append(result.Succeeded, id)
			return nil
		})
	}
	_ = g.Wait() // items report through result

	sort.Strings(result.Succeeded)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].ApplicationID < result.Failed[j].ApplicationID
	})

	if err := e.rec.RefreshApplications(ctx, jobID, jobID); err != nil {
		e.log.Warn().Err(err).Str("job_id", jobID).Msg("refresh after bulk update failed")
	}
	e.st.ClearSelection(jobID)

	e.log.Info().
		Str("job_id", jobID).
		Str("status", string(status)).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("bulk status update finished")

	switch {
	case len(result.Failed) == 0:
		e.notifier.Notify(notify.Success(OpBulkUpdateStatus,
			fmt.Sprintf("Updated %d applications to %s", len(result.Succeeded), status)))
		return result, nil
	case len(result.Succeeded) == 0:
		err := apperrors.New(apperrors.KindUpdateFailed,
			fmt.Sprintf("failed to update %d applications", len(result.Failed)), nil)
		err.ServerMessage = result.Failed[0].Message
		e.fail(OpBulkUpdateStatus, err)
		return result, err
	default:
		err := apperrors.New(apperrors.KindPartialFailure,
			fmt.Sprintf("updated %d of %d applications; %d failed", len(result.Succeeded), result.Total(), len(result.Failed)), nil)
		e.fail(OpBulkUpdateStatus, err)
		return result, err
	}
}

func (e *Engine) persistOne(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return e.remote.SetApplicationStatus(ctx, applicationID, status)
}

func (e *Engine) fail(op string, err error) {
	e.notifier.Notify(notify.Failure(op, apperrors.UserMessage(err, "Failed to update status")))
}
