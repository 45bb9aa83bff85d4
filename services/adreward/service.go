package adreward

import (
	"context"
	"time"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/clock"
	"virtual-economy/pkg/config"
	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"
	"virtual-economy/services/ledger"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type coinLedger interface {
	LockUser(ctx context.Context, tx *gorm.DB, userID string) (*ledger.User, error)
	CreditTx(ctx context.Context, tx *gorm.DB, p ledger.Params) (*ledger.CoinTransaction, error)
}

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	ledger coinLedger
	cache  cache.ProfileInvalidator
	loc    *time.Location

	events repository.Repository[AdEvent]
	users  repository.Repository[ledger.User]

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

		events: repository.ProvideStore[AdEvent](p.DB),
		users:  repository.ProvideStore[ledger.User](p.DB),

		now: time.Now,
	}
}

func since(t time.Time) option.QueryOption {
	return option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.GTE, Value: t})
}

// ClaimAdReward grants the reward for a recently completed ad, subject to the
// per-type daily cap.
func (s *Service) ClaimAdReward(ctx context.Context, userID, adType, placement string) (*ClaimResult, error) {
	if userID == "" || adType == "" || placement == "" {
		return nil, errutil.BadRequest("user_id, ad_type and placement are required", nil)
	}

	log := logger.FromContext(ctx).With(
		zap.String("user_id", userID),
		zap.String("ad_type", adType),
		zap.String("placement", placement),
	)

	now := s.now().UTC()
	completion, err := s.events.FindOne(ctx, &AdEvent{
		UserID:    &userID,
		AdType:    adType,
		Placement: placement,
		EventType: EventCompleted,
	},
		since(now.Add(-FreshnessWindow)),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
	if err != nil {
		log.Error("failed to query ad completion", zap.Error(err))
		return nil, err
	}
	if completion == nil {
		return nil, errutil.ValidationFailed("No eligible ad completion", nil)
	}

	rule := Classify(placement)
	dayStart := clock.StartOfDay(now, s.loc)

	var result *ClaimResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes claims by the same user so the cap check below holds.
		if _, err := s.ledger.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		rewardType := rule.Type
		granted, err := s.events.WithTrx(tx).Count(ctx, &AdEvent{
			UserID:     &userID,
			EventType:  EventRewardGranted,
			RewardType: &rewardType,
		}, since(dayStart))
		if err != nil {
			return err
		}
		if granted >= rule.MaxDaily {
			return errutil.ValidationFailed("Daily limit reached", nil, errutil.WithDetails(errutil.Detail{
				Field:   "reward_type",
				Message: string(rule.Type),
			}))
		}

		switch rule.Type {
		case RewardSuperVote:
			if err := s.users.WithTrx(tx).Update(ctx, userID, map[string]any{
				"bonus_super_votes": gorm.Expr("bonus_super_votes + ?", rule.Amount),
			}); err != nil {
				return err
			}
		default:
			if _, err := s.ledger.CreditTx(ctx, tx, ledger.Params{
				UserID:      userID,
				Amount:      rule.Amount,
				Type:        ledger.TypeReward,
				ReferenceID: rewardReference,
				Description: "Ad reward",
			}); err != nil {
				return err
			}
		}

		amount := rule.Amount
		if err := s.events.WithTrx(tx).Create(ctx, &AdEvent{
			ID:           s.node.Generate().String(),
			UserID:       &userID,
			AdType:       adType,
			Placement:    placement,
			Network:      completion.Network,
			EventType:    EventRewardGranted,
			RewardType:   &rewardType,
			RewardAmount: &amount,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		result = &ClaimResult{
			RewardType:     rule.Type,
			RewardAmount:   rule.Amount,
			RemainingToday: remaining(rule.MaxDaily, granted+1),
		}
		return nil
	})
	if err != nil {
		if !errutil.Is(err, errutil.StatusValidationFailed) && !errutil.Is(err, errutil.StatusNotFound) {
			log.Error("failed to claim ad reward", zap.Error(err))
		}
		return nil, err
	}

	cache.InvalidateQuietly(ctx, s.cache, userID)
	log.Info("ad reward granted",
		zap.String("reward_type", string(result.RewardType)),
		zap.Int64("remaining_today", result.RemainingToday),
	)

	return result, nil
}

// GetDailyAdStats reports today's grants and completed views for the user.
func (s *Service) GetDailyAdStats(ctx context.Context, userID string) (*DailyStats, error) {
	if userID == "" {
		return nil, errutil.BadRequest("user_id is required", nil)
	}

	dayStart := clock.StartOfDay(s.now(), s.loc)
	superVote, bonusCoins := RewardSuperVote, RewardBonusCoins

	var stats DailyStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.SuperVoteRewardsToday, err = s.events.Count(gctx, &AdEvent{
			UserID: &userID, EventType: EventRewardGranted, RewardType: &superVote,
		}, since(dayStart))
		return err
	})
	g.Go(func() (err error) {
		stats.BonusCoinRewardsToday, err = s.events.Count(gctx, &AdEvent{
			UserID: &userID, EventType: EventRewardGranted, RewardType: &bonusCoins,
		}, since(dayStart))
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAdsWatchedToday, err = s.events.Count(gctx, &AdEvent{
			UserID: &userID, EventType: EventCompleted,
		}, since(dayStart))
		return err
	})
	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Error("failed to count ad stats", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	stats.SuperVoteRewardsRemaining = remaining(SuperVoteMaxDaily, stats.SuperVoteRewardsToday)
	stats.BonusCoinRewardsRemaining = remaining(BonusCoinsMaxDaily, stats.BonusCoinRewardsToday)

	return &stats, nil
}

// LogAdEvent records a client-side ad lifecycle event. Anonymous events are
// allowed; reward grants are written only by ClaimAdReward.
func (s *Service) LogAdEvent(ctx context.Context, in EventInput) (*AdEvent, error) {
	switch in.EventType {
	case EventImpression, EventClick, EventCompleted:
	case EventRewardGranted:
		return nil, errutil.ValidationFailed("reward_granted events cannot be logged directly", nil)
	default:
		return nil, errutil.ValidationFailed("Unsupported event type", nil, errutil.WithDetails(errutil.Detail{
			Field:   "event_type",
			Message: in.EventType,
		}))
	}
	if in.AdType == "" || in.Placement == "" {
		return nil, errutil.BadRequest("ad_type and placement are required", nil)
	}

	event := &AdEvent{
		ID:        s.node.Generate().String(),
		AdType:    in.AdType,
		Placement: in.Placement,
		Network:   in.Network,
		EventType: in.EventType,
		CreatedAt: s.now().UTC(),
	}
	if in.UserID != "" {
		userID := in.UserID
		event.UserID = &userID
	}

	if err := s.events.Create(ctx, event); err != nil {
		logger.FromContext(ctx).Error("failed to log ad event", zap.Error(err))
		return nil, err
	}

	return event, nil
}
