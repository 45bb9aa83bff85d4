package profiling

import (
	"context"

	"virtual-economy/pkg/config"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("profiling", fx.Invoke(Start))

func NewConfig(cfg *config.Config) pyroscope.Config {
	return pyroscope.Config{
		ApplicationName: cfg.AppName,
		ServerAddress:   cfg.Pyroscope.Addr,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
		Tags: map[string]string{
			"service_name": cfg.AppName,
			"env":          cfg.AppEnv,
		},
	}
}

// Start runs continuous profiling when PYROSCOPE.ADDR is set.
func Start(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Pyroscope.Addr == "" {
		zap.L().Debug("pyroscope disabled")
		return nil
	}

	zap.L().Info("starting pyroscope", zap.String("app_name", cfg.AppName), zap.String("pyroscope_addr", cfg.Pyroscope.Addr))
	profiler, err := pyroscope.Start(NewConfig(cfg))
	if err != nil {
		zap.L().Error("failed to start pyroscope", zap.Error(err))
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			zap.L().Info("stopping pyroscope")
			return profiler.Stop()
		},
	})
	return nil
}
