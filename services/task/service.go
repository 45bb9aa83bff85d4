package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"virtual-economy/pkg/config"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"
	queue "virtual-economy/pkg/task"
	"virtual-economy/pkg/taskname"
	"virtual-economy/services/boost"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultSweepInterval = 5 * time.Minute

type sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Service struct {
	node     *snowflake.Node
	enqueuer queue.Enqueuer
	sweeper  sweeper
	interval time.Duration

	jobs repository.Repository[Job]

	now func() time.Time
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Boost    *boost.Service
	Config   *config.Config `optional:"true"`
	Enqueuer queue.Enqueuer `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		node:     p.Node,
		enqueuer: p.Enqueuer,
		sweeper:  p.Boost,
		interval: sweepInterval(p.Config),

		jobs: repository.ProvideStore[Job](p.DB),

		now: time.Now,
	}
}

func sweepInterval(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Economy.BoostSweepInterval <= 0 {
		return defaultSweepInterval
	}
	return cfg.Economy.BoostSweepInterval
}

// EnqueueBoostSweep queues one expiry sweep. At most one sweep is pending per
// interval; a duplicate is not an error.
func (s *Service) EnqueueBoostSweep(ctx context.Context) error {
	if s.enqueuer == nil {
		return errors.New("task enqueuer is not configured")
	}

	t := asynq.NewTask(taskname.BoostExpirySweep, nil)
	info, err := s.enqueuer.Enqueue(ctx, t,
		asynq.Queue(queue.QueueLow),
		asynq.Unique(s.interval),
		asynq.MaxRetry(3),
		asynq.Timeout(s.interval),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		logger.FromContext(ctx).Debug("boost sweep already queued")
		return nil
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to enqueue boost sweep", zap.Error(err))
		return err
	}

	logger.FromContext(ctx).Info("enqueued boost sweep",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// HandleBoostSweepTask is the asynq handler for taskname.BoostExpirySweep.
func (s *Service) HandleBoostSweepTask(ctx context.Context, t *asynq.Task) error {
	_, err := s.RunBoostSweep(ctx)
	return err
}

// RunBoostSweep runs the sweep and records the run as a Job.
func (s *Service) RunBoostSweep(ctx context.Context) (*Job, error) {
	log := logger.FromContext(ctx).With(zap.String("task_type", taskname.BoostExpirySweep))

	started := s.now().UTC()
	job := &Job{
		ID:        s.node.Generate().String(),
		TaskType:  taskname.BoostExpirySweep,
		Status:    JobRunning,
		StartedAt: &started,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		log.Error("failed to record job", zap.Error(err))
		return nil, err
	}

	deleted, sweepErr := s.sweeper.SweepExpired(ctx)

	completed := s.now().UTC()
	job.CompletedAt = &completed
	updates := map[string]any{"completed_at": completed}
	if sweepErr != nil {
		job.Status = JobFailed
		job.ErrorMsg = sweepErr.Error()
		updates["status"] = JobFailed
		updates["error_msg"] = job.ErrorMsg
	} else {
		metadata, _ := json.Marshal(SweepResult{Deleted: deleted})
		job.Status = JobSuccess
		job.Metadata = datatypes.JSON(metadata)
		updates["status"] = JobSuccess
		updates["metadata"] = job.Metadata
	}

	if err := s.jobs.Update(ctx, job.ID, updates); err != nil {
		log.Error("failed to update job", zap.String("job_id", job.ID), zap.Error(err))
	}

	if sweepErr != nil {
		log.Error("boost sweep job failed", zap.String("job_id", job.ID), zap.Error(sweepErr))
		return job, sweepErr
	}

	log.Info("boost sweep job finished",
		zap.String("job_id", job.ID),
		zap.Int64("deleted", deleted),
		zap.Duration("duration", completed.Sub(started)),
	)
	return job, nil
}
