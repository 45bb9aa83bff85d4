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
	"virtual-economy/pkg/health"
	"virtual-economy/pkg/httpapi"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/otelcol"
	"virtual-economy/pkg/profiling"
	"virtual-economy/pkg/redis"
	"virtual-economy/pkg/server"
	"virtual-economy/services/adreward"
	"virtual-economy/services/boost"
	"virtual-economy/services/dailyreward"
	"virtual-economy/services/gift"
	"virtual-economy/services/ledger"
	"virtual-economy/services/notification"
	"virtual-economy/services/submission"
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
		health.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		httpapi.Module,
		submission.Module,
		notification.Module,
		ledger.Module,
		ledger.Routes,
		adreward.Module,
		adreward.Routes,
		dailyreward.Module,
		dailyreward.Routes,
		boost.Module,
		boost.Routes,
		gift.Module,
		gift.Routes,
		server.ProvideHTTPServer,
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

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
