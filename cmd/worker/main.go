package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/config"
	"virtual-economy/pkg/db"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/otelcol"
	"virtual-economy/pkg/profiling"
	"virtual-economy/pkg/redis"
	queue "virtual-economy/pkg/task"
	"virtual-economy/services/boost"
	"virtual-economy/services/ledger"
	"virtual-economy/services/submission"
	"virtual-economy/services/task"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		cache.Module,
		queue.Client,
		queue.Server,
		fx.Provide(
			provideSnowflakeNode,
		),
		submission.Module,
		ledger.Module,
		boost.Module,
		task.Module,
		task.Worker,
		task.Schedule,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "development" {
		return &fxevent.ZapLogger{Logger: logger}
	}
	return fxevent.NopLogger
})

// Node 2 keeps worker-generated ids disjoint from the API's.
func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(2)
}
