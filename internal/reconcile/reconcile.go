// Package reconcile replaces local buckets with fresh authoritative copies,
// repairing known upstream omissions before they reach the store.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/store"
)

// loadConcurrency bounds parallel per-job interview fetches during Load.
const loadConcurrency = 4

// Reconciler fetches from the boundary and writes into the store.
type Reconciler struct {
	st     *store.Store
	remote remote.Boundary
	log    *logger.Logger
}

// New creates a reconciler.
func New(st *store.Store, boundary remote.Boundary, log *logger.Logger) *Reconciler {
	return &Reconciler{
		st:     st,
		remote: boundary,
		log:    logger.OrGlobal(log).Component("reconcile"),
	}
}

// Load performs the initial bulk fetch and replaces the whole snapshot.
func (r *Reconciler) Load(ctx context.Context) error {
	jobs, err := r.remote.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	apps, err := r.remote.ListApplications(ctx, "")
	if err != nil {
		return fmt.Errorf("load applications: %w", err)
	}

	var (
		mu         sync.Mutex
		interviews = make(map[string][]models.Interview, len(jobs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, job := range jobs {
		jobID := job.ID
		g.Go(func() error {
			ivs, err := r.remote.ListInterviews(gctx, jobID)
			if err != nil {
				return fmt.Errorf("load interviews for job %s: %w", jobID, err)
			}
			mu.Lock()
			interviews[jobID] = ivs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	buckets := r.groupAndRepair(jobs, apps, r.st.ApplicationBuckets())
	r.st.ReplaceAll(jobs, buckets, interviews)

	r.log.Info().
		Int("jobs", len(jobs)).
		Int("applications", len(apps)).
		Msg("snapshot loaded")
	return nil
}

// RefreshApplications re-fetches one job's applications and replaces its bucket.
// hint is the job id the caller believes the entries belong to.
func (r *Reconciler) RefreshApplications(ctx context.Context, jobID, hint string) error {
	fresh, err := r.remote.ListApplications(ctx, jobID)
	if err != nil {
		return fmt.Errorf("refresh applications for job %s: %w", jobID, err)
	}

	previous := indexByID(r.st.Applications(jobID))
	job, hasJob := r.st.Job(jobID)

	fallbackJobID := hint
	if fallbackJobID == "" {
		fallbackJobID = jobID
	}

	repaired := make([]models.Application, 0, len(fresh))
	for _, app := range fresh {
		prev, known := previous[app.ID]
		repaired = append(repaired, repair(app, fallbackJobID, prev, known, job, hasJob))
	}

	r.st.ReplaceApplications(jobID, repaired)
	return nil
}

// RefreshInterviews re-fetches one job's interviews.
func (r *Reconciler) RefreshInterviews(ctx context.Context, jobID string) error {
	ivs, err := r.remote.ListInterviews(ctx, jobID)
	if err != nil {
		return fmt.Errorf("refresh interviews for job %s: %w", jobID, err)
	}
	r.st.ReplaceInterviews(jobID, ivs)
	return nil
}

// RefreshAll re-fetches jobs and the whole pipeline, keeping interviews.
func (r *Reconciler) RefreshAll(ctx context.Context) error {
	jobs, err := r.remote.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("refresh jobs: %w", err)
	}
	apps, err := r.remote.ListApplications(ctx, "")
	if err != nil {
		return fmt.Errorf("refresh applications: %w", err)
	}

	buckets := r.groupAndRepair(jobs, apps, r.st.ApplicationBuckets())
	r.st.ReplaceJobsAndApplications(jobs, buckets)
	return nil
}

func (r *Reconciler) groupAndRepair(jobs []models.Job, apps []models.Application, previousBuckets map[string][]models.Application) map[string][]models.Application {
	jobByID := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		jobByID[j.ID] = j
	}

	previous := make(map[string]models.Application)
	for _, bucket := range previousBuckets {
		for _, a := range bucket {
			previous[a.ID] = a
		}
	}

	out := make(map[string][]models.Application)
	for _, app := range apps {
		prev, known := previous[app.ID]
		fallback := ""
		if known {
			fallback = prev.EffectiveJobID()
		}
		jobID := app.EffectiveJobID()
		if jobID == "" {
			jobID = fallback
		}
		job, hasJob := jobByID[jobID]
		fixed := repair(app, jobID, prev, known, job, hasJob)
		if fixed.JobID == "" {
			r.log.Warn().Str("application_id", app.ID).Msg("application has no job linkage")
		}
		out[fixed.JobID] = append(out[fixed.JobID], fixed)
	}
	return out
}

// repair restores job linkage the upstream payload dropped. Known context is never erased.
func repair(app models.Application, fallbackJobID string, prev models.Application, known bool, job models.Job, hasJob bool) models.Application {
	if app.JobID == "" {
		switch {
		case app.Job != nil && app.Job.ID != "":
			app.JobID = app.Job.ID
		case fallbackJobID != "":
			app.JobID = fallbackJobID
		case known:
			app.JobID = prev.EffectiveJobID()
		}
	}

	if app.Job == nil {
		switch {
		case known && prev.Job != nil && prev.Job.ID == app.JobID:
			ref := *prev.Job
			app.Job = &ref
		case hasJob && job.ID == app.JobID:
			app.Job = job.Ref()
		}
	}
	return app
}

func indexByID(apps []models.Application) map[string]models.Application {
	out := make(map[string]models.Application, len(apps))
	for _, a := range apps {
		out[a.ID] = a
	}
	return out
}
