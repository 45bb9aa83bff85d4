package dailyreward

import (
	"context"
	"time"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/clock"
	"virtual-economy/pkg/config"
	"virtual-economy/pkg/db"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"
	"virtual-economy/services/ledger"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type coinLedger interface {
	CreditTx(ctx context.Context, tx *gorm.DB, p ledger.Params) (*ledger.CoinTransaction, error)
}

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	ledger coinLedger
	cache  cache.ProfileInvalidator
	loc    *time.Location

	rewards repository.Repository[DailyLoginReward]

	now func() time.Time
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Ledger *ledger.Service
	Config *config.Config           `optional:"true"`
	Cache  cache.ProfileInvalidator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	inv := p.Cache
	if inv == nil {
		inv = cache.Nop{}
	}

	return &Service{
		db:     p.DB,
		node:   p.Node,
		ledger: p.Ledger,
		cache:  inv,
		loc:    p.Config.Location(),

		rewards: repository.ProvideStore[DailyLoginReward](p.DB),

		now: time.Now,
	}
}

func (s *Service) today() datatypes.Date {
	return datatypes.Date(clock.Date(s.now(), s.loc))
}

// Claim grants the daily bonus once per calendar day. A duplicate claim is
// detected by the unique index and reported as not claimed.
func (s *Service) Claim(ctx context.Context, userID string) (*ClaimResult, error) {
	if userID == "" {
		return nil, errutil.BadRequest("user_id is required", nil)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reward := &DailyLoginReward{
			ID:         s.node.Generate().String(),
			UserID:     userID,
			RewardDate: s.today(),
			CoinAmount: RewardAmount,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.rewards.WithTrx(tx).Create(ctx, reward); err != nil {
			return err
		}

		_, err := s.ledger.CreditTx(ctx, tx, ledger.Params{
			UserID:      userID,
			Amount:      RewardAmount,
			Type:        ledger.TypeReward,
			ReferenceID: reward.ID,
			Description: rewardDescription,
		})
		return err
	})
	if db.IsUniqueViolation(err) {
		return &ClaimResult{Claimed: false, Amount: 0}, nil
	}
	if err != nil {
		return nil, err
	}

	cache.InvalidateQuietly(ctx, s.cache, userID)
	logger.FromContext(ctx).Info("daily login reward claimed",
		zap.String("user_id", userID),
		zap.Int64("amount", RewardAmount),
	)

	return &ClaimResult{Claimed: true, Amount: RewardAmount}, nil
}

// Status reports whether today's reward was already claimed.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, errutil.BadRequest("user_id is required", nil)
	}

	count, err := s.rewards.Count(ctx, &DailyLoginReward{UserID: userID, RewardDate: s.today()})
	if err != nil {
		logger.FromContext(ctx).Error("failed to query daily reward status", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &Status{ClaimedToday: count > 0, Amount: RewardAmount}, nil
}
