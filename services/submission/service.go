package submission

import (
	"context"

	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("submission.service",
	fx.Provide(NewService),
)

type Service struct {
	submissions repository.Repository[Submission]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		submissions: repository.ProvideStore[Submission](p.DB),
	}
}

// Get returns the non-deleted submission or nil. tx may be nil.
func (s *Service) Get(ctx context.Context, tx *gorm.DB, id string) (*Submission, error) {
	return s.submissions.WithTrx(tx).FindOne(ctx, &Submission{ID: id})
}

// Lock reads the non-deleted submission with FOR UPDATE inside tx.
func (s *Service) Lock(ctx context.Context, tx *gorm.DB, id string) (*Submission, error) {
	return s.submissions.WithTrx(tx).FindOne(ctx, &Submission{ID: id}, option.WithLockingUpdate())
}

func (s *Service) SetBoostScore(ctx context.Context, tx *gorm.DB, id string, score float64) error {
	return s.submissions.WithTrx(tx).Update(ctx, id, map[string]any{"boost_score": score})
}

func (s *Service) AddGiftCoins(ctx context.Context, tx *gorm.DB, id string, amount int64) error {
	return s.submissions.WithTrx(tx).Update(ctx, id, map[string]any{
		"gift_coins_received": gorm.Expr("gift_coins_received + ?", amount),
	})
}
