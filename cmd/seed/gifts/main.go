package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"virtual-economy/pkg/config"
	"virtual-economy/pkg/db"
	"virtual-economy/pkg/logger"
	"virtual-economy/services/gift"
)

type seedGift struct {
	Name             string
	Category         string
	CoinCost         int64
	CreatorCoinShare int64
}

var defaultCatalog = []seedGift{
	{Name: "Heart", Category: "basic", CoinCost: 10, CreatorCoinShare: 5},
	{Name: "Thumbs Up", Category: "basic", CoinCost: 20, CreatorCoinShare: 10},
	{Name: "Rose", Category: "basic", CoinCost: 50, CreatorCoinShare: 25},
	{Name: "Fire", Category: "popular", CoinCost: 100, CreatorCoinShare: 50},
	{Name: "Star", Category: "popular", CoinCost: 200, CreatorCoinShare: 100},
	{Name: "Trophy", Category: "premium", CoinCost: 500, CreatorCoinShare: 250},
	{Name: "Diamond", Category: "premium", CoinCost: 1000, CreatorCoinShare: 500},
	{Name: "Golden Crown", Category: "premium", CoinCost: 5000, CreatorCoinShare: 2500},
}

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(run),
		fx.NopLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("seed gifts: %v", err)
	}
	_ = app.Stop(context.Background())
}

func run(database *gorm.DB, node *snowflake.Node) error {
	if err := database.AutoMigrate(&gift.GiftCatalogEntry{}); err != nil {
		return err
	}

	entries := make([]*gift.GiftCatalogEntry, 0, len(defaultCatalog))
	for i, g := range defaultCatalog {
		entry := &gift.GiftCatalogEntry{
			ID:               node.Generate().String(),
			Code:             slug.Make(g.Name),
			Name:             g.Name,
			Category:         g.Category,
			IconURL:          "/static/gifts/" + slug.Make(g.Name) + ".png",
			CoinCost:         g.CoinCost,
			CreatorCoinShare: g.CreatorCoinShare,
			IsActive:         true,
			SortOrder:        i + 1,
		}
		if !entry.ValidShare() {
			return fmt.Errorf("gift %q: invalid creator share %d for cost %d", g.Name, g.CreatorCoinShare, g.CoinCost)
		}
		entries = append(entries, entry)
	}

	err := database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "icon_url", "coin_cost", "creator_coin_share", "sort_order", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		zap.L().Error("failed to seed gift catalog", zap.Error(err))
		return err
	}

	zap.L().Info("gift catalog seeded", zap.Int("entries", len(entries)))
	return nil
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(3)
}
