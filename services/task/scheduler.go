package task

import (
	"context"
	"time"

	"virtual-economy/pkg/config"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const enqueueTimeout = 10 * time.Second

type Scheduler struct {
	service *Service
	sched   gocron.Scheduler
}

type SchedulerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config `optional:"true"`
	Service   *Service
}

// NewScheduler registers the periodic boost sweep and ties the scheduler to
// the fx lifecycle.
func NewScheduler(p SchedulerParams) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(p.Config.Location()))
	if err != nil {
		return nil, err
	}

	s := &Scheduler{service: p.Service, sched: sched}

	interval := sweepInterval(p.Config)
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.enqueueBoostSweep),
		gocron.WithName("boost-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sched.Start()
			zap.L().Info("[Scheduler] started", zap.Duration("boost_sweep_interval", interval))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zap.L().Info("[Scheduler] stopping")
			return sched.Shutdown()
		},
	})

	return s, nil
}

func (s *Scheduler) enqueueBoostSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	if err := s.service.EnqueueBoostSweep(ctx); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue boost sweep", zap.Error(err))
	}
}
