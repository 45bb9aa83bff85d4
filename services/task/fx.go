package task

import (
	"virtual-economy/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(
		NewService,
	),
)

var Schedule = fx.Module("task.scheduler",
	fx.Invoke(NewScheduler),
)

var Worker = fx.Module("task.worker",
	fx.Invoke(RegisterHandlers),
)

func RegisterHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.BoostExpirySweep, s.HandleBoostSweepTask)
}
