// Package dashboard wires the snapshot store, index and engines into one session.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/apperrors"
	"github.com/blockedby/hiring-pipeline/internal/export"
	"github.com/blockedby/hiring-pipeline/internal/index"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/notify"
	"github.com/blockedby/hiring-pipeline/internal/reconcile"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/scheduler"
	"github.com/blockedby/hiring-pipeline/internal/store"
	"github.com/blockedby/hiring-pipeline/internal/transition"
	"github.com/blockedby/hiring-pipeline/internal/view"
)

// Config collects the session's tunables.
type Config struct {
	Transition  transition.Config
	Scheduler   scheduler.Config
	WindowBase  int
	WindowBatch int
	// Origin makes root-relative resume links absolute in exports.
	Origin string
	// MessageTTL is how long status messages stay on the board.
	MessageTTL time.Duration
}

// Session is one user's view of the pipeline.
type Session struct {
	st     *store.Store
	idx    *index.Index
	rec    *reconcile.Reconciler
	engine *transition.Engine
	sched  *scheduler.Scheduler
	board  *notify.Board
	log    *logger.Logger

	cfg Config
	now func() time.Time

	viewsMu sync.Mutex
	views   map[string]*view.Model
}

// New builds a session over boundary. Status messages go to the session's
// board and to extra, when given.
func New(boundary remote.Boundary, extra notify.Notifier, log *logger.Logger, cfg Config) *Session {
	log = logger.OrGlobal(log)
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = 3 * time.Second
	}

	st := store.New()
	idx := index.New(st)
	rec := reconcile.New(st, boundary, log)
	board := notify.NewBoard(cfg.MessageTTL)
	notifier := notify.Multi{board, extra}

	now := cfg.Scheduler.Now
	if now == nil {
		now = time.Now
	}

	return &Session{
		st:     st,
		idx:    idx,
		rec:    rec,
		engine: transition.New(st, boundary, rec, notifier, log, cfg.Transition),
		sched:  scheduler.New(idx, boundary, rec, notifier, log, cfg.Scheduler),
		board:  board,
		log:    log.Component("dashboard"),
		cfg:    cfg,
		now:    now,
		views:  make(map[string]*view.Model),
	}
}

// Store exposes the snapshot store for read access.
func (s *Session) Store() *store.Store { return s.st }

// Index exposes the derived lookups.
func (s *Session) Index() *index.Index { return s.idx }

// Message returns the live status message, if any.
func (s *Session) Message() (notify.Message, bool) { return s.board.Current() }

// Load fetches the initial snapshot.
func (s *Session) Load(ctx context.Context) error {
	return s.rec.Load(ctx)
}

// Refresh re-fetches jobs and applications for every job.
func (s *Session) Refresh(ctx context.Context) error {
	return s.rec.RefreshAll(ctx)
}

// UpdateStatus changes one application's status.
func (s *Session) UpdateStatus(ctx context.Context, applicationID string, status models.ApplicationStatus, jobIDHint string) error {
	return s.engine.UpdateStatus(ctx, applicationID, status, jobIDHint)
}

// BulkUpdateStatus changes the status of the given applications.
func (s *Session) BulkUpdateStatus(ctx context.Context, jobID string, applicationIDs []string, status models.ApplicationStatus) (transition.BulkResult, error) {
	return s.engine.BulkUpdateStatus(ctx, jobID, applicationIDs, status)
}

// BulkUpdateSelected changes the status of the job's selected applications.
func (s *Session) BulkUpdateSelected(ctx context.Context, jobID string, status models.ApplicationStatus) (transition.BulkResult, error) {
	return s.engine.BulkUpdateStatus(ctx, jobID, s.st.Selected(jobID), status)
}

// OpenSchedule opens an interview draft for a stored application.
func (s *Session) OpenSchedule(applicationID, jobID string) (scheduler.Draft, error) {
	app, _, ok := s.st.FindApplication(applicationID)
	if !ok {
		return scheduler.Draft{}, apperrors.NotFound(fmt.Sprintf("application %s not found", applicationID))
	}
	return s.sched.OpenSchedule(app, jobID)
}

// ConfirmSchedule persists a draft.
func (s *Session) ConfirmSchedule(ctx context.Context, draft scheduler.Draft) (scheduler.Confirmation, error) {
	return s.sched.ConfirmSchedule(ctx, draft)
}

// CancelInterview cancels an interview the user already confirmed cancelling.
func (s *Session) CancelInterview(ctx context.Context, interviewID, jobID string) error {
	return s.sched.CancelInterview(ctx, interviewID, jobID)
}

// InterviewState returns the lifecycle node of a pair.
func (s *Session) InterviewState(jobID, applicantID string) scheduler.State {
	return s.sched.State(jobID, applicantID)
}

// Close stops pending timers.
func (s *Session) Close() {
	s.sched.Stop()
}

// Selection helpers.

func (s *Session) Select(jobID string, ids ...string)   { s.st.Select(jobID, ids...) }
func (s *Session) Deselect(jobID string, ids ...string) { s.st.Deselect(jobID, ids...) }
func (s *Session) Toggle(jobID, id string) bool         { return s.st.Toggle(jobID, id) }
func (s *Session) SelectAll(jobID string)               { s.st.SelectAll(jobID) }
func (s *Session) Selected(jobID string) []string       { return s.st.Selected(jobID) }
func (s *Session) ClearSelection(jobID string)          { s.st.ClearSelection(jobID) }

// View returns the model for a named view, creating it on first use.
func (s *Session) View(key string) *view.Model {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()

	m, ok := s.views[key]
	if !ok {
		m = view.NewModel(s.cfg.WindowBase, s.cfg.WindowBatch)
		s.views[key] = m
	}
	return m
}

// SetCriteria updates a view's filters. A change clears the job's selection.
func (s *Session) SetCriteria(jobID, key string, c view.Criteria) bool {
	changed := s.View(key).SetCriteria(c)
	if changed {
		s.st.ClearSelection(jobID)
	}
	return changed
}

// Visible returns the exposed page of a view. An empty jobID spans every job.
func (s *Session) Visible(jobID, key string) []models.Application {
	return s.View(key).Page(s.applications(jobID), s.idx)
}

func (s *Session) applications(scope string) []models.Application {
	if scope == "" || scope == export.ScopeAll {
		return s.idx.AllApplications()
	}
	return s.idx.Applications(scope)
}

func (s *Session) enrich(app models.Application) models.Application {
	if app.Job != nil {
		return app
	}
	if job, ok := s.idx.Job(app.EffectiveJobID()); ok {
		app.Job = job.Ref()
	}
	return app
}

// Export writes the delimited-text document for scope (a job id or "all").
func (s *Session) Export(scope string, w io.Writer) error {
	return export.Write(w, s.applications(scope), s.enrich, export.Options{Origin: s.cfg.Origin})
}

// ExportFile writes the document for scope into dir and returns its path.
func (s *Session) ExportFile(dir, scope string) (string, error) {
	if scope == "" {
		scope = export.ScopeAll
	}
	body := export.ToDelimitedText(s.applications(scope), s.enrich, export.Options{Origin: s.cfg.Origin})
	path, err := export.WriteFile(dir, scope, s.now(), body)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("scope", scope).Str("path", path).Msg("export written")
	return path, nil
}
