package ledger

import (
	"context"
	"errors"
	"time"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/db/pagination"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const instrumentationName = "virtual-economy/services/ledger"

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	cache cache.ProfileInvalidator

	users        repository.Repository[User]
	transactions repository.Repository[CoinTransaction]

	tracer  trace.Tracer
	entries metric.Int64Counter
	coins   metric.Int64Counter

	now func() time.Time
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Cache cache.ProfileInvalidator `optional:"true"`

	TracerProvider trace.TracerProvider `optional:"true"`
	MeterProvider  metric.MeterProvider `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	tp := p.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := p.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	inv := p.Cache
	if inv == nil {
		inv = cache.Nop{}
	}

	meter := mp.Meter(instrumentationName)
	entries, err := meter.Int64Counter("ledger.entries",
		metric.WithDescription("Coin transactions written, by direction and type."))
	if err != nil {
		zap.L().Warn("failed to create ledger.entries counter", zap.Error(err))
	}
	coins, err := meter.Int64Counter("ledger.coins",
		metric.WithDescription("Absolute coins moved, by direction and type."),
		metric.WithUnit("{coin}"))
	if err != nil {
		zap.L().Warn("failed to create ledger.coins counter", zap.Error(err))
	}

	return &Service{
		db:    p.DB,
		node:  p.Node,
		cache: inv,

		users:        repository.ProvideStore[User](p.DB),
		transactions: repository.ProvideStore[CoinTransaction](p.DB),

		tracer:  tp.Tracer(instrumentationName),
		entries: entries,
		coins:   coins,

		now: time.Now,
	}
}

// Credit adds coins to a user's balance in its own transaction.
func (s *Service) Credit(ctx context.Context, p Params) (*CoinTransaction, error) {
	return s.mutate(ctx, "ledger.Credit", p, s.CreditTx)
}

// Debit removes coins from a user's balance in its own transaction. It fails
// with a validation error when the balance is lower than the amount.
func (s *Service) Debit(ctx context.Context, p Params) (*CoinTransaction, error) {
	return s.mutate(ctx, "ledger.Debit", p, s.DebitTx)
}

func (s *Service) mutate(ctx context.Context, name string, p Params, apply func(context.Context, *gorm.DB, Params) (*CoinTransaction, error)) (*CoinTransaction, error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("user_id", p.UserID),
		attribute.String("type", string(p.Type)),
		attribute.Int64("amount", p.Amount),
	))
	defer span.End()

	if err := validate(p); err != nil {
		return nil, err
	}

	var out *CoinTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = apply(ctx, tx, p)
		return err
	})
	if err != nil {
		var base errutil.BaseError
		if !errors.As(err, &base) {
			logger.FromContext(ctx).Error("ledger mutation failed",
				zap.String("op", name),
				zap.String("user_id", p.UserID),
				zap.Error(err),
			)
		}
		span.RecordError(err)
		return nil, err
	}

	cache.InvalidateQuietly(ctx, s.cache, p.UserID)
	return out, nil
}

// CreditTx is Credit bound to an outer transaction. The caller commits.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, p Params) (*CoinTransaction, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	user, err := s.LockUser(ctx, tx, p.UserID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, tx, user, p.Amount, p)
}

// DebitTx is Debit bound to an outer transaction. The caller commits.
func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, p Params) (*CoinTransaction, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	user, err := s.LockUser(ctx, tx, p.UserID)
	if err != nil {
		return nil, err
	}

	if user.CoinBalance < p.Amount {
		return nil, errutil.ValidationFailed("Insufficient balance", nil, errutil.WithDetails(errutil.Detail{
			Field:   "amount",
			Message: "amount exceeds the available coin balance",
		}))
	}

	return s.apply(ctx, tx, user, -p.Amount, p)
}

// LockUser reads the user row with FOR UPDATE inside tx.
func (s *Service) LockUser(ctx context.Context, tx *gorm.DB, userID string) (*User, error) {
	user, err := s.users.WithTrx(tx).FindOne(ctx, &User{ID: userID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errutil.NotFound("User not found", nil)
	}
	return user, nil
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, user *User, delta int64, p Params) (*CoinTransaction, error) {
	now := s.now().UTC()
	newBalance := user.CoinBalance + delta

	entry := &CoinTransaction{
		ID:           s.node.Generate().String(),
		UserID:       user.ID,
		Type:         p.Type,
		Amount:       delta,
		BalanceAfter: newBalance,
		ReferenceID:  p.reference(),
		Description:  p.Description,
		CreatedAt:    now,
	}
	if err := s.transactions.WithTrx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"coin_balance": newBalance,
		"updated_at":   now,
	}
	direction := "credit"
	if delta > 0 {
		user.TotalCoinsEarned += delta
		updates["total_coins_earned"] = user.TotalCoinsEarned
	} else {
		direction = "debit"
		user.TotalCoinsSpent -= delta
		updates["total_coins_spent"] = user.TotalCoinsSpent
	}
	if err := s.users.WithTrx(tx).Update(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	user.CoinBalance = newBalance

	s.record(ctx, direction, p)
	return entry, nil
}

func (s *Service) record(ctx context.Context, direction string, p Params) {
	attrs := metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", string(p.Type)),
	)
	if s.entries != nil {
		s.entries.Add(ctx, 1, attrs)
	}
	if s.coins != nil {
		s.coins.Add(ctx, p.Amount, attrs)
	}
}

func validate(p Params) error {
	if p.Amount <= 0 {
		return errutil.ValidationFailed("Amount must be a positive integer", nil, errutil.WithDetails(errutil.Detail{
			Field:   "amount",
			Message: "must be greater than 0",
		}))
	}
	if p.UserID == "" {
		return errutil.ValidationFailed("User id is required", nil)
	}
	if !p.Type.Valid() {
		return errutil.ValidationFailed("Unsupported transaction type", nil, errutil.WithDetails(errutil.Detail{
			Field:   "type",
			Message: string(p.Type),
		}))
	}
	return nil
}

func (s *Service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	user, err := s.users.FindOne(ctx, &User{ID: userID})
	if err != nil {
		logger.FromContext(ctx).Error("failed to query user balance", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, errutil.NotFound("User not found", nil)
	}

	return &Balance{
		UserID:           user.ID,
		CoinBalance:      user.CoinBalance,
		TotalCoinsEarned: user.TotalCoinsEarned,
		TotalCoinsSpent:  user.TotalCoinsSpent,
		BonusSuperVotes:  user.BonusSuperVotes,
	}, nil
}

var (
	sortNewest = []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "desc"}),
	}
	sortOldest = []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "asc"}),
		option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "asc"}),
	}
)

// ListTransactions pages through a user's history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, page pagination.Pagination) (pagination.Page[*CoinTransaction], error) {
	query := &CoinTransaction{UserID: userID}

	total, err := s.transactions.Count(ctx, query)
	if err != nil {
		return pagination.Page[*CoinTransaction]{}, err
	}

	opts := append(append([]option.QueryOption{}, sortNewest...), option.ApplyPagination(page))
	rows, err := s.transactions.Find(ctx, query, opts...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list coin transactions", zap.String("user_id", userID), zap.Error(err))
		return pagination.Page[*CoinTransaction]{}, err
	}

	return pagination.NewPage(rows, page, total), nil
}

// VerifyReplay replays a user's transactions in creation order starting from a
// zero balance and checks every balance_after and the current balance.
func (s *Service) VerifyReplay(ctx context.Context, userID string) (*ReplayReport, error) {
	user, err := s.users.FindOne(ctx, &User{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errutil.NotFound("User not found", nil)
	}

	entries, err := s.transactions.Find(ctx, &CoinTransaction{UserID: userID}, sortOldest...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query coin transactions", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	report := &ReplayReport{
		UserID:         userID,
		Valid:          true,
		Entries:        len(entries),
		CurrentBalance: user.CoinBalance,
	}

	var running int64
	for _, entry := range entries {
		running += entry.Amount
		if entry.Amount == 0 || running < 0 || running != entry.BalanceAfter {
			report.Valid = false
			report.FirstMismatchID = entry.ID
			break
		}
	}
	report.ReplayedBalance = running

	if report.Valid && running != user.CoinBalance {
		report.Valid = false
	}

	return report, nil
}
