package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"virtual-economy/pkg/config"
	"virtual-economy/pkg/repository"
	"virtual-economy/pkg/taskname"
	"virtual-economy/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, t)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(f.tasks)), Queue: "low", Type: t.Type()}, nil
}

type fakeSweeper struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeSweeper) SweepExpired(context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func newTestService(t *testing.T, enq *fakeEnqueuer, sw *fakeSweeper) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Job{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &Service{
		node:     node,
		enqueuer: enq,
		sweeper:  sw,
		interval: time.Minute,
		jobs:     repository.ProvideStore[Job](db),
		now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func TestEnqueueBoostSweep(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newTestService(t, enq, &fakeSweeper{})

	require.NoError(t, svc.EnqueueBoostSweep(context.Background()))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.BoostExpirySweep, enq.tasks[0].Type())
	require.NotEmpty(t, enq.opts[0])
}

func TestEnqueueBoostSweepDuplicateIsIgnored(t *testing.T) {
	enq := &fakeEnqueuer{err: fmt.Errorf("failed to enqueue task %s: %w", taskname.BoostExpirySweep, asynq.ErrDuplicateTask)}
	svc := newTestService(t, enq, &fakeSweeper{})

	require.NoError(t, svc.EnqueueBoostSweep(context.Background()))
}

func TestEnqueueBoostSweepError(t *testing.T) {
	boom := errors.New("redis down")
	svc := newTestService(t, &fakeEnqueuer{err: boom}, &fakeSweeper{})

	require.ErrorIs(t, svc.EnqueueBoostSweep(context.Background()), boom)

	svc.enqueuer = nil
	require.Error(t, svc.EnqueueBoostSweep(context.Background()))
}

func TestRunBoostSweepRecordsSuccess(t *testing.T) {
	sw := &fakeSweeper{deleted: 4}
	svc := newTestService(t, &fakeEnqueuer{}, sw)
	ctx := context.Background()

	require.NoError(t, svc.HandleBoostSweepTask(ctx, asynq.NewTask(taskname.BoostExpirySweep, nil)))
	require.Equal(t, 1, sw.calls)

	job, err := svc.jobs.FindOne(ctx, &Job{TaskType: taskname.BoostExpirySweep})
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, JobSuccess, job.Status)
	require.NotNil(t, job.CompletedAt)

	var result SweepResult
	require.NoError(t, json.Unmarshal(job.Metadata, &result))
	require.Equal(t, int64(4), result.Deleted)
}

func TestRunBoostSweepRecordsFailure(t *testing.T) {
	boom := errors.New("deadlock detected")
	svc := newTestService(t, &fakeEnqueuer{}, &fakeSweeper{err: boom})
	ctx := context.Background()

	job, err := svc.RunBoostSweep(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, JobFailed, job.Status)

	stored, err := svc.jobs.FindOne(ctx, &Job{ID: job.ID})
	require.NoError(t, err)
	require.Equal(t, JobFailed, stored.Status)
	require.Equal(t, "deadlock detected", stored.ErrorMsg)
}

func TestSchedulerLifecycle(t *testing.T) {
	cfg := &config.Config{}
	cfg.Economy.BoostSweepInterval = time.Hour

	lc := fxtest.NewLifecycle(t)
	s, err := NewScheduler(SchedulerParams{
		Lifecycle: lc,
		Config:    cfg,
		Service:   newTestService(t, &fakeEnqueuer{}, &fakeSweeper{}),
	})
	require.NoError(t, err)
	require.Len(t, s.sched.Jobs(), 1)
	require.Equal(t, "boost-expiry-sweep", s.sched.Jobs()[0].Name())

	lc.RequireStart()
	lc.RequireStop()
}

func TestSweepIntervalDefaults(t *testing.T) {
	require.Equal(t, defaultSweepInterval, sweepInterval(nil))
	require.Equal(t, defaultSweepInterval, sweepInterval(&config.Config{}))
}
