package transition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/hiring-pipeline/internal/apperrors"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/notify"
	"github.com/blockedby/hiring-pipeline/internal/reconcile"
	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/remote/remotetest"
	"github.com/blockedby/hiring-pipeline/internal/store"
)

type recorder struct {
	msgs []notify.Message
}

func (r *recorder) Notify(m notify.Message) { r.msgs = append(r.msgs, m) }

func (r *recorder) last() notify.Message {
	if len(r.msgs) == 0 {
		return notify.Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

type fixture struct {
	st     *store.Store
	fake   *remotetest.Fake
	engine *Engine
	msgs   *recorder
}

func setup(t *testing.T, apps ...models.Application) *fixture {
	t.Helper()

	jobs := []models.Job{{ID: "j1", Title: "Backend Engineer", CompanyName: "Acme"}}
	if len(apps) == 0 {
		apps = []models.Application{
			{ID: "a1", JobID: "j1", Status: models.ApplicationPending},
			{ID: "a2", JobID: "j1", Status: models.ApplicationPending},
			{ID: "a3", JobID: "j1", Status: models.ApplicationRejected},
		}
	}

	st := store.New()
	fake := remotetest.New(jobs, apps, nil)
	rec := reconcile.New(st, fake, nil)
	require.NoError(t, rec.Load(context.Background()))

	msgs := &recorder{}
	return &fixture{
		st:     st,
		fake:   fake,
		engine: New(st, fake, rec, msgs, nil, Config{BulkConcurrency: 2}),
		msgs:   msgs,
	}
}

func status(t *testing.T, st *store.Store, id string) models.ApplicationStatus {
	t.Helper()
	app, _, ok := st.FindApplication(id)
	require.True(t, ok, "application %s", id)
	return app.Status
}

func TestUpdateStatus_Success(t *testing.T) {
	f := setup(t)

	err := f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationHired, "j1")
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationHired, status(t, f.st, "a1"))
	backend, _ := f.fake.Application("a1")
	assert.Equal(t, models.ApplicationHired, backend.Status)
	assert.Equal(t, notify.LevelSuccess, f.msgs.last().Level)
}

func TestUpdateStatus_OptimisticWriteVisibleBeforeRemoteReturns(t *testing.T) {
	f := setup(t)

	var seen models.ApplicationStatus
	f.fake.StatusErr = func(id string) error {
		seen = status(t, f.st, id)
		return nil
	}

	require.NoError(t, f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationRejected, ""))
	assert.Equal(t, models.ApplicationRejected, seen)
}

func TestUpdateStatus_FailureRestoresPending(t *testing.T) {
	f := setup(t)
	f.fake.StatusErr = func(string) error {
		return remote.NewError(http.StatusInternalServerError, "database unavailable")
	}

	err := f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationHired, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpdateFailed))
	assert.Equal(t, "database unavailable", apperrors.UserMessage(err, ""))

	assert.Equal(t, models.ApplicationPending, status(t, f.st, "a1"))
	assert.Equal(t, notify.LevelError, f.msgs.last().Level)
	assert.Equal(t, "database unavailable", f.msgs.last().Text)
}

func TestUpdateStatus_FailureLogsStackAtDebug(t *testing.T) {
	f := setup(t)
	var buf bytes.Buffer
	f.engine.log = logger.NewWithWriter("debug", &buf).Component("transition")
	f.fake.StatusErr = func(string) error {
		return remote.NewError(http.StatusInternalServerError, "database unavailable")
	}

	err := f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationHired, "j1")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"status update failure stack"`)
	assert.Contains(t, out, `"stack":"`)
	assert.NotContains(t, out, `"stack":""`)
}

func TestUpdateStatus_RollbackForEveryStartingState(t *testing.T) {
	targets := []models.ApplicationStatus{models.ApplicationPending, models.ApplicationHired, models.ApplicationRejected}

	for _, from := range models.ApplicationStatuses {
		for _, to := range targets {
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				f := setup(t,
					models.Application{ID: "a1", JobID: "j1", Status: from},
					models.Application{ID: "a2", JobID: "j1", Status: models.ApplicationHired},
				)
				before := f.st.Applications("j1")
				f.fake.StatusErr = func(string) error { return errors.New("connection reset") }

				err := f.engine.UpdateStatus(context.Background(), "a1", to, "j1")
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.KindUpdateFailed))
				assert.Equal(t, from, status(t, f.st, "a1"))
				assert.Equal(t, before, f.st.Applications("j1"), "whole bucket restored")
			})
		}
	}
}

func TestUpdateStatus_Validation(t *testing.T) {
	f := setup(t)

	err := f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationInterviewed, "j1")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))

	err = f.engine.UpdateStatus(context.Background(), "a1", "archived", "j1")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))

	err = f.engine.UpdateStatus(context.Background(), "missing", models.ApplicationHired, "j1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	assert.Zero(t, f.fake.CallCount("SetApplicationStatus"))
	assert.Equal(t, models.ApplicationPending, status(t, f.st, "a1"))
}

func TestUpdateStatus_MissingJobContextKeepsWrite(t *testing.T) {
	f := setup(t, models.Application{ID: "orphan", Status: models.ApplicationPending})

	err := f.engine.UpdateStatus(context.Background(), "orphan", models.ApplicationHired, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindMissingJobContext))
	assert.Equal(t, 1, f.fake.CallCount("SetApplicationStatus"))
	assert.Equal(t, models.ApplicationHired, status(t, f.st, "orphan"))
}

func TestUpdateStatus_RefreshRepairsDroppedLinkage(t *testing.T) {
	f := setup(t)
	f.fake.DropJobLinkage = true

	require.NoError(t, f.engine.UpdateStatus(context.Background(), "a1", models.ApplicationHired, "j1"))

	app, bucket, ok := f.st.FindApplication("a1")
	require.True(t, ok)
	assert.Equal(t, "j1", bucket)
	assert.Equal(t, "j1", app.JobID)
	require.NotNil(t, app.Job)
	assert.Equal(t, "Acme", app.Job.CompanyName)
}

func TestBulkUpdateStatus_Empty(t *testing.T) {
	f := setup(t)

	res, err := f.engine.BulkUpdateStatus(context.Background(), "j1", nil, models.ApplicationHired)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
	assert.Zero(t, f.fake.CallCount("SetApplicationStatus"))
	assert.Equal(t, 1, f.fake.CallCount("ListApplications"), "no refresh beyond the initial load")
}

func TestBulkUpdateStatus_RequiresJobID(t *testing.T) {
	f := setup(t)
	before := f.st.AllApplications()
	version := f.st.Version()

	res, err := f.engine.BulkUpdateStatus(context.Background(), "", []string{"a1"}, models.ApplicationHired)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindMissingIdentifiers))
	assert.Zero(t, res.Total())

	assert.Zero(t, f.fake.CallCount("SetApplicationStatus"))
	assert.Equal(t, 1, f.fake.CallCount("ListApplications"), "no refresh beyond the initial load")
	assert.Equal(t, version, f.st.Version())
	assert.Equal(t, before, f.st.AllApplications())
	assert.Equal(t, notify.LevelError, f.msgs.last().Level)
}

func TestBulkUpdateStatus_AllSucceed(t *testing.T) {
	f := setup(t)
	f.st.Select("j1", "a1", "a2")

	res, err := f.engine.BulkUpdateStatus(context.Background(), "j1", []string{"a2", "a1"}, models.ApplicationRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, res.Succeeded)
	assert.Empty(t, res.Failed)

	assert.Equal(t, models.ApplicationRejected, status(t, f.st, "a1"))
	assert.Equal(t, models.ApplicationRejected, status(t, f.st, "a2"))
	assert.Empty(t, f.st.Selected("j1"))
}

func TestBulkUpdateStatus_PartialFailureKeepsSucceeded(t *testing.T) {
	f := setup(t)
	f.st.Select("j1", "a1", "a2", "a3")
	f.fake.StatusErr = func(id string) error {
		if id == "a2" {
			return remote.NewError(http.StatusConflict, "application locked")
		}
		return nil
	}

	res, err := f.engine.BulkUpdateStatus(context.Background(), "j1", []string{"a1", "a2", "a3"}, models.ApplicationHired)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPartialFailure))
	assert.Equal(t, []string{"a1", "a3"}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, ItemFailure{ApplicationID: "a2", Message: "application locked"}, res.Failed[0])

	// no rollback of succeeded items; the refresh reflects the backend
	assert.Equal(t, models.ApplicationHired, status(t, f.st, "a1"))
	assert.Equal(t, models.ApplicationPending, status(t, f.st, "a2"))
	assert.Equal(t, models.ApplicationHired, status(t, f.st, "a3"))
	assert.Empty(t, f.st.Selected("j1"))
}

func TestBulkUpdateStatus_AllFail(t *testing.T) {
	f := setup(t)
	f.fake.StatusErr = func(string) error { return remote.NewError(http.StatusBadGateway, "upstream down") }

	res, err := f.engine.BulkUpdateStatus(context.Background(), "j1", []string{"a1", "a2"}, models.ApplicationHired)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpdateFailed))
	assert.Empty(t, res.Succeeded)
	assert.Len(t, res.Failed, 2)
	assert.Equal(t, notify.LevelError, f.msgs.last().Level)
}

func TestBulkUpdateStatus_RejectsInterviewed(t *testing.T) {
	f := setup(t)

	_, err := f.engine.BulkUpdateStatus(context.Background(), "j1", []string{"a1"}, models.ApplicationInterviewed)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))
	assert.Zero(t, f.fake.CallCount("SetApplicationStatus"))
}
