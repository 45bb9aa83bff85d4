package boost

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"
	"virtual-economy/services/ledger"
	"virtual-economy/services/submission"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type coinLedger interface {
	LockUser(ctx context.Context, tx *gorm.DB, userID string) (*ledger.User, error)
	DebitTx(ctx context.Context, tx *gorm.DB, p ledger.Params) (*ledger.CoinTransaction, error)
}

type contentStore interface {
	Get(ctx context.Context, tx *gorm.DB, id string) (*submission.Submission, error)
	Lock(ctx context.Context, tx *gorm.DB, id string) (*submission.Submission, error)
	SetBoostScore(ctx context.Context, tx *gorm.DB, id string, score float64) error
}

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	ledger      coinLedger
	submissions contentStore
	cache       cache.ProfileInvalidator

	boosts repository.Repository[SubmissionBoost]

	now func() time.Time
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Ledger      *ledger.Service
	Submissions *submission.Service
	Cache       cache.ProfileInvalidator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	inv := p.Cache
	if inv == nil {
		inv = cache.Nop{}
	}

	return &Service{
		db:          p.DB,
		node:        p.Node,
		ledger:      p.Ledger,
		submissions: p.Submissions,
		cache:       inv,

		boosts: repository.ProvideStore[SubmissionBoost](p.DB),

		now: time.Now,
	}
}

// ClampScore sums boost values and caps the result at MaxBoostScore.
func ClampScore(values ...float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	sum = math.Round(sum*100) / 100
	return math.Min(MaxBoostScore, sum)
}

func activeAt(t time.Time) option.QueryOption {
	return option.ApplyOperator(option.Condition{Field: "expires_at", Operator: option.GT, Value: t})
}

func expiredAt(t time.Time) option.QueryOption {
	return option.ApplyOperator(option.Condition{Field: "expires_at", Operator: option.LTE, Value: t})
}

var errSubmissionNotFound = errutil.NotFound("Submission not found", nil)

// Purchase buys a boost on a submission. A user's first boost is free when it
// is a small one.
func (s *Service) Purchase(ctx context.Context, userID, submissionID, tierName string) (*SubmissionBoost, error) {
	tier, ok := LookupTier(tierName)
	if !ok {
		return nil, errutil.ValidationFailed("Invalid boost tier", nil, errutil.WithDetails(errutil.Detail{
			Field:   "tier",
			Message: tierName,
		}))
	}
	if userID == "" || submissionID == "" {
		return nil, errutil.BadRequest("user_id and submission_id are required", nil)
	}

	log := logger.FromContext(ctx).With(
		zap.String("user_id", userID),
		zap.String("submission_id", submissionID),
		zap.String("tier", tier.Name),
	)

	sub, err := s.submissions.Get(ctx, nil, submissionID)
	if err != nil {
		log.Error("failed to load submission", zap.Error(err))
		return nil, err
	}
	if sub == nil || !sub.Boostable() {
		return nil, errSubmissionNotFound
	}
	if sub.BoostScore >= MaxBoostScore {
		return nil, errutil.ValidationFailed("Boost limit reached", nil)
	}

	var boost *SubmissionBoost
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		prior, err := s.boosts.WithTrx(tx).Count(ctx, &SubmissionBoost{UserID: userID})
		if err != nil {
			return err
		}

		cost := tier.Cost
		if prior == 0 && tier.Name == TierSmall {
			cost = 0
		}

		id := s.node.Generate().String()
		if cost > 0 {
			if _, err := s.ledger.DebitTx(ctx, tx, ledger.Params{
				UserID:      userID,
				Amount:      cost,
				Type:        ledger.TypeBoostSpent,
				ReferenceID: id,
				Description: fmt.Sprintf("%s boost", tier.Name),
			}); err != nil {
				return err
			}
		}

		locked, err := s.submissions.Lock(ctx, tx, submissionID)
		if err != nil {
			return err
		}
		if locked == nil {
			return errSubmissionNotFound
		}
		if locked.BoostScore >= MaxBoostScore {
			return errutil.ValidationFailed("Boost limit reached", nil)
		}

		now := s.now().UTC()
		boost = &SubmissionBoost{
			ID:           id,
			SubmissionID: submissionID,
			UserID:       userID,
			Tier:         tier.Name,
			CoinAmount:   cost,
			BoostValue:   tier.BoostValue,
			StartedAt:    now,
			ExpiresAt:    now.Add(tier.Duration()),
		}
		if err := s.boosts.WithTrx(tx).Create(ctx, boost); err != nil {
			return err
		}

		_, err = s.RecalculateBoostScore(ctx, tx, submissionID)
		return err
	})
	if err != nil {
		if !errutil.Is(err, errutil.StatusValidationFailed) && !errutil.Is(err, errutil.StatusNotFound) {
			log.Error("failed to purchase boost", zap.Error(err))
		}
		return nil, err
	}

	if boost.CoinAmount > 0 {
		cache.InvalidateQuietly(ctx, s.cache, userID)
	}
	log.Info("boost purchased", zap.Int64("cost", boost.CoinAmount))

	return boost, nil
}

// RecalculateBoostScore writes and returns the clamped sum of the submission's
// active boosts.
func (s *Service) RecalculateBoostScore(ctx context.Context, tx *gorm.DB, submissionID string) (float64, error) {
	active, err := s.boosts.WithTrx(tx).Find(ctx, &SubmissionBoost{SubmissionID: submissionID}, activeAt(s.now().UTC()))
	if err != nil {
		return 0, err
	}

	values := make([]float64, 0, len(active))
	for _, b := range active {
		values = append(values, b.BoostValue)
	}
	score := ClampScore(values...)

	if err := s.submissions.SetBoostScore(ctx, tx, submissionID, score); err != nil {
		return 0, err
	}
	return score, nil
}

// GetTiersForUser lists the tiers and whether the caller's next small boost is
// free. Anonymous callers are told it is.
func (s *Service) GetTiersForUser(ctx context.Context, userID string) (*TiersResult, error) {
	result := &TiersResult{Tiers: Tiers, FirstBoostFree: true}
	if userID == "" {
		return result, nil
	}

	count, err := s.boosts.Count(ctx, &SubmissionBoost{UserID: userID})
	if err != nil {
		logger.FromContext(ctx).Error("failed to count user boosts", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result.FirstBoostFree = count == 0

	return result, nil
}

// SweepExpired deletes boosts past their expiry, recomputes the score of
// every affected submission and returns how many boosts were removed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()

	var deleted int64
	var affected []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired, err := s.boosts.WithTrx(tx).Find(ctx, nil, expiredAt(now))
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		seen := make(map[string]struct{}, len(expired))
		for _, b := range expired {
			if _, ok := seen[b.SubmissionID]; !ok {
				seen[b.SubmissionID] = struct{}{}
				affected = append(affected, b.SubmissionID)
			}
		}
		sort.Strings(affected)

		deleted, err = s.boosts.WithTrx(tx).Delete(ctx, nil, expiredAt(now))
		if err != nil {
			return err
		}

		for _, id := range affected {
			sub, err := s.submissions.Lock(ctx, tx, id)
			if err != nil {
				return err
			}
			if sub == nil {
				continue
			}
			if _, err := s.RecalculateBoostScore(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error("boost expiry sweep failed", zap.Error(err))
		return 0, err
	}

	if deleted > 0 {
		logger.FromContext(ctx).Info("expired boosts swept",
			zap.Int64("deleted", deleted),
			zap.Int("submissions", len(affected)),
		)
	}
	return deleted, nil
}
