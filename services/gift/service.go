package gift

import (
	"context"
	"fmt"
	"time"

	"virtual-economy/pkg/cache"
	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/db/pagination"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/logger"
	"virtual-economy/pkg/repository"
	"virtual-economy/services/ledger"
	"virtual-economy/services/notification"
	"virtual-economy/services/submission"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type coinLedger interface {
	LockUser(ctx context.Context, tx *gorm.DB, userID string) (*ledger.User, error)
	CreditTx(ctx context.Context, tx *gorm.DB, p ledger.Params) (*ledger.CoinTransaction, error)
	DebitTx(ctx context.Context, tx *gorm.DB, p ledger.Params) (*ledger.CoinTransaction, error)
}

type contentStore interface {
	Get(ctx context.Context, tx *gorm.DB, id string) (*submission.Submission, error)
	AddGiftCoins(ctx context.Context, tx *gorm.DB, id string, amount int64) error
}

type notifier interface {
	CreateTx(ctx context.Context, tx *gorm.DB, in notification.Input) (*notification.Notification, error)
}

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	ledger        coinLedger
	submissions   contentStore
	notifications notifier
	cache         cache.ProfileInvalidator

	catalog      repository.Repository[GiftCatalogEntry]
	transactions repository.Repository[GiftTransaction]

	now func() time.Time
}

type ServiceParams struct {
	fx.In
	DB            *gorm.DB
	Node          *snowflake.Node
	Ledger        *ledger.Service
	Submissions   *submission.Service
	Notifications *notification.Service
	Cache         cache.ProfileInvalidator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	inv := p.Cache
	if inv == nil {
		inv = cache.Nop{}
	}

	return &Service{
		db:            p.DB,
		node:          p.Node,
		ledger:        p.Ledger,
		submissions:   p.Submissions,
		notifications: p.Notifications,
		cache:         inv,

		catalog:      repository.ProvideStore[GiftCatalogEntry](p.DB),
		transactions: repository.ProvideStore[GiftTransaction](p.DB),

		now: time.Now,
	}
}

var sortNewest = []option.QueryOption{
	option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "desc"}),
}

// SendGift moves the gift's cost from sender to receiver. The receiver gets the
// creator share; the rest stays with the platform and has no ledger row.
func (s *Service) SendGift(ctx context.Context, in SendGiftInput) (*View, error) {
	if in.SenderID == "" || in.ReceiverID == "" || in.SubmissionID == "" || in.GiftID == "" {
		return nil, errutil.BadRequest("sender_id, receiver_id, submission_id and gift_id are required", nil)
	}
	if in.SenderID == in.ReceiverID {
		return nil, errutil.Forbidden("Cannot send a gift to yourself", nil)
	}

	log := logger.FromContext(ctx).With(
		zap.String("sender_id", in.SenderID),
		zap.String("receiver_id", in.ReceiverID),
		zap.String("submission_id", in.SubmissionID),
		zap.String("gift_id", in.GiftID),
	)

	entry, err := s.catalog.FindOne(ctx, &GiftCatalogEntry{ID: in.GiftID, IsActive: true})
	if err != nil {
		log.Error("failed to load gift", zap.Error(err))
		return nil, err
	}
	if entry == nil {
		return nil, errutil.NotFound("Gift not found", nil)
	}
	if !entry.ValidShare() {
		log.Error("gift catalog entry has an invalid creator share",
			zap.Int64("coin_cost", entry.CoinCost),
			zap.Int64("creator_coin_share", entry.CreatorCoinShare),
		)
		return nil, errutil.Internal("Gift is misconfigured", nil)
	}

	sub, err := s.submissions.Get(ctx, nil, in.SubmissionID)
	if err != nil {
		log.Error("failed to load submission", zap.Error(err))
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("Submission not found", nil)
	}
	if sub.UserID != in.ReceiverID {
		return nil, errutil.ValidationFailed("Invalid receiver", nil, errutil.WithDetails(errutil.Detail{
			Field:   "receiver_id",
			Message: "receiver does not own the submission",
		}))
	}

	var gt *GiftTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := s.node.Generate().String()

		// Sender is locked before receiver. Crossed gifts between the same two
		// users can deadlock on postgres; callers may retry.
		if _, err := s.ledger.DebitTx(ctx, tx, ledger.Params{
			UserID:      in.SenderID,
			Amount:      entry.CoinCost,
			Type:        ledger.TypeGiftSent,
			ReferenceID: id,
			Description: fmt.Sprintf("Sent %s", entry.Name),
		}); err != nil {
			return err
		}

		if entry.CreatorCoinShare > 0 {
			if _, err := s.ledger.CreditTx(ctx, tx, ledger.Params{
				UserID:      in.ReceiverID,
				Amount:      entry.CreatorCoinShare,
				Type:        ledger.TypeGiftReceived,
				ReferenceID: id,
				Description: fmt.Sprintf("Received %s", entry.Name),
			}); err != nil {
				return err
			}
		} else if _, err := s.ledger.LockUser(ctx, tx, in.ReceiverID); err != nil {
			return err
		}

		gt = &GiftTransaction{
			ID:            id,
			SenderID:      in.SenderID,
			ReceiverID:    in.ReceiverID,
			SubmissionID:  in.SubmissionID,
			GiftID:        entry.ID,
			CoinAmount:    entry.CoinCost,
			CreatorShare:  entry.CreatorCoinShare,
			PlatformShare: entry.PlatformShare(),
			Message:       in.Message,
			CreatedAt:     s.now().UTC(),
		}
		if err := s.transactions.WithTrx(tx).Create(ctx, gt); err != nil {
			return err
		}

		if err := s.submissions.AddGiftCoins(ctx, tx, in.SubmissionID, entry.CoinCost); err != nil {
			return err
		}

		_, err := s.notifications.CreateTx(ctx, tx, notification.Input{
			UserID: in.ReceiverID,
			Type:   notification.TypeGiftReceived,
			Title:  "You received a gift",
			Body:   fmt.Sprintf("Someone sent you %s", entry.Name),
			Data: map[string]any{
				"gift_transaction_id": id,
				"gift_id":             entry.ID,
				"sender_id":           in.SenderID,
				"submission_id":       in.SubmissionID,
				"coin_amount":         entry.CoinCost,
			},
		})
		return err
	})
	if err != nil {
		if !errutil.Is(err, errutil.StatusValidationFailed) && !errutil.Is(err, errutil.StatusNotFound) {
			log.Error("failed to send gift", zap.Error(err))
		}
		return nil, err
	}

	cache.InvalidateQuietly(ctx, s.cache, in.SenderID, in.ReceiverID)
	log.Info("gift sent",
		zap.String("gift_transaction_id", gt.ID),
		zap.Int64("coin_amount", gt.CoinAmount),
	)

	return &View{GiftTransaction: gt, GiftName: entry.Name, GiftIconURL: entry.IconURL}, nil
}

// ListCatalog returns the active gifts in display order.
func (s *Service) ListCatalog(ctx context.Context) ([]*GiftCatalogEntry, error) {
	entries, err := s.catalog.Find(ctx, &GiftCatalogEntry{IsActive: true},
		option.WithSortBy(option.QuerySortBy{SortBy: "sort_order", OrderBy: "asc"}),
		option.WithSortBy(option.QuerySortBy{SortBy: "coin_cost", OrderBy: "asc"}),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list gift catalog", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *Service) ListReceived(ctx context.Context, userID string, page pagination.Pagination) (pagination.Page[*View], error) {
	return s.list(ctx, &GiftTransaction{ReceiverID: userID}, page)
}

func (s *Service) ListSent(ctx context.Context, userID string, page pagination.Pagination) (pagination.Page[*View], error) {
	return s.list(ctx, &GiftTransaction{SenderID: userID}, page)
}

func (s *Service) ListSubmissionGifts(ctx context.Context, submissionID string, page pagination.Pagination) (pagination.Page[*View], error) {
	return s.list(ctx, &GiftTransaction{SubmissionID: submissionID}, page)
}

func (s *Service) list(ctx context.Context, query *GiftTransaction, page pagination.Pagination) (pagination.Page[*View], error) {
	if *query == (GiftTransaction{}) {
		return pagination.Page[*View]{}, errutil.BadRequest("a user or submission id is required", nil)
	}

	total, err := s.transactions.Count(ctx, query)
	if err != nil {
		return pagination.Page[*View]{}, err
	}

	opts := append(append([]option.QueryOption{}, sortNewest...), option.ApplyPagination(page))
	rows, err := s.transactions.Find(ctx, query, opts...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list gift transactions", zap.Error(err))
		return pagination.Page[*View]{}, err
	}

	views, err := s.enrich(ctx, rows)
	if err != nil {
		return pagination.Page[*View]{}, err
	}
	return pagination.NewPage(views, page, total), nil
}

// enrich attaches catalog display fields. Retired gifts are still resolved.
func (s *Service) enrich(ctx context.Context, rows []*GiftTransaction) ([]*View, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.GiftID]; !ok {
			seen[r.GiftID] = struct{}{}
			ids = append(ids, r.GiftID)
		}
	}

	entries, err := s.catalog.Find(ctx, nil, option.ApplyOperator(option.Condition{
		Field:    "id",
		Operator: option.IN,
		Value:    ids,
	}))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*GiftCatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	views := make([]*View, 0, len(rows))
	for _, r := range rows {
		v := &View{GiftTransaction: r}
		if e, ok := byID[r.GiftID]; ok {
			v.GiftName = e.Name
			v.GiftIconURL = e.IconURL
		}
		views = append(views, v)
	}
	return views, nil
}
