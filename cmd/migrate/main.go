package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"virtual-economy/pkg/config"
	"virtual-economy/pkg/db"
	"virtual-economy/pkg/logger"
	"virtual-economy/services/adreward"
	"virtual-economy/services/boost"
	"virtual-economy/services/dailyreward"
	"virtual-economy/services/gift"
	"virtual-economy/services/ledger"
	"virtual-economy/services/notification"
	"virtual-economy/services/submission"
	"virtual-economy/services/task"
)

// models lists every table this service reads or writes. users, submissions
// and notifications are owned elsewhere in production and are migrated here
// for local development.
var models = []any{
	&ledger.User{},
	&ledger.CoinTransaction{},
	&adreward.AdEvent{},
	&dailyreward.DailyLoginReward{},
	&submission.Submission{},
	&boost.SubmissionBoost{},
	&gift.GiftCatalogEntry{},
	&gift.GiftTransaction{},
	&notification.Notification{},
	&task.Job{},
}

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Invoke(migrate),
		fx.NopLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	_ = app.Stop(context.Background())
}

func migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(models...); err != nil {
		zap.L().Error("migration failed", zap.Error(err))
		return err
	}
	zap.L().Info("migration finished", zap.Int("tables", len(models)))
	return nil
}
