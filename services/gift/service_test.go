package gift

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/db/pagination"
	"virtual-economy/pkg/errutil"
	"virtual-economy/pkg/repository"
	"virtual-economy/services/ledger"
	"virtual-economy/services/notification"
	"virtual-economy/services/submission"
	"virtual-economy/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userIDs ...string) error {
	r.ids = append(r.ids, userIDs...)
	return nil
}

type fixture struct {
	svc   *Service
	db    *gorm.DB
	cache *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&ledger.User{}, &ledger.CoinTransaction{},
		&submission.Submission{}, &notification.Notification{},
		&GiftCatalogEntry{}, &GiftTransaction{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, db.Create([]*ledger.User{
		{ID: "sender", CoinBalance: 150},
		{ID: "creator"},
	}).Error)
	require.NoError(t, db.Create(&submission.Submission{ID: "s1", UserID: "creator", Status: submission.StatusApproved}).Error)
	require.NoError(t, db.Create([]*GiftCatalogEntry{
		{ID: "rose", Code: "rose", Name: "Rose", Category: "basic", IconURL: "https://cdn.example.com/rose.png", CoinCost: 100, CreatorCoinShare: 50, IsActive: true, SortOrder: 2},
		{ID: "heart", Code: "heart", Name: "Heart", Category: "basic", CoinCost: 10, CreatorCoinShare: 5, IsActive: true, SortOrder: 1},
		{ID: "crown", Code: "crown", Name: "Crown", Category: "premium", CoinCost: 1000, CreatorCoinShare: 500, IsActive: true, SortOrder: 3},
	}).Error)
	require.NoError(t, db.Model(&GiftCatalogEntry{}).Where("id = ?", "crown").Update("is_active", false).Error)

	inv := &recordingInvalidator{}
	svc := NewService(ServiceParams{
		DB:            db,
		Node:          node,
		Ledger:        ledger.NewService(ledger.ServiceParams{DB: db, Node: node}),
		Submissions:   submission.NewService(submission.ServiceParams{DB: db}),
		Notifications: notification.NewService(notification.ServiceParams{DB: db, Node: node}),
		Cache:         inv,
	})
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, db: db, cache: inv}
}

func (f *fixture) user(t *testing.T, id string) ledger.User {
	t.Helper()
	var u ledger.User
	require.NoError(t, f.db.First(&u, "id = ?", id).Error)
	return u
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func requireStatus(t *testing.T, err error, code errutil.CoreStatus) errutil.BaseError {
	t.Helper()
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
	return be
}

func TestSendGiftSplitsPayment(t *testing.T) {
	f := newFixture(t)
	msg := "great clip"

	view, err := f.svc.SendGift(context.Background(), SendGiftInput{
		SenderID:     "sender",
		ReceiverID:   "creator",
		SubmissionID: "s1",
		GiftID:       "rose",
		Message:      &msg,
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), view.CoinAmount)
	require.Equal(t, int64(50), view.CreatorShare)
	require.Equal(t, int64(50), view.PlatformShare)
	require.Equal(t, "Rose", view.GiftName)
	require.Equal(t, "https://cdn.example.com/rose.png", view.GiftIconURL)
	require.Equal(t, &msg, view.Message)

	sender := f.user(t, "sender")
	require.Equal(t, int64(50), sender.CoinBalance)
	require.Equal(t, int64(100), sender.TotalCoinsSpent)

	creator := f.user(t, "creator")
	require.Equal(t, int64(50), creator.CoinBalance)
	require.Equal(t, int64(50), creator.TotalCoinsEarned)

	var sent, received ledger.CoinTransaction
	require.NoError(t, f.db.First(&sent, "user_id = ?", "sender").Error)
	require.Equal(t, int64(-100), sent.Amount)
	require.Equal(t, ledger.TypeGiftSent, sent.Type)
	require.Equal(t, view.ID, *sent.ReferenceID)
	require.NoError(t, f.db.First(&received, "user_id = ?", "creator").Error)
	require.Equal(t, int64(50), received.Amount)
	require.Equal(t, ledger.TypeGiftReceived, received.Type)

	var sub submission.Submission
	require.NoError(t, f.db.First(&sub, "id = ?", "s1").Error)
	require.Equal(t, int64(100), sub.GiftCoinsReceived)

	var n notification.Notification
	require.NoError(t, f.db.First(&n, "user_id = ?", "creator").Error)
	require.Equal(t, notification.TypeGiftReceived, n.Type)
	var data map[string]any
	require.NoError(t, json.Unmarshal(n.Data, &data))
	require.Equal(t, view.ID, data["gift_transaction_id"])
	require.Equal(t, "sender", data["sender_id"])
	require.Equal(t, float64(100), data["coin_amount"])

	require.ElementsMatch(t, []string{"sender", "creator"}, f.cache.ids)
}

func TestSendGiftRejections(t *testing.T) {
	cases := []struct {
		name    string
		in      SendGiftInput
		code    errutil.CoreStatus
		message string
	}{
		{
			name: "self gift",
			in:   SendGiftInput{SenderID: "creator", ReceiverID: "creator", SubmissionID: "s1", GiftID: "rose"},
			code: errutil.StatusForbidden,
		},
		{
			name: "unknown gift",
			in:   SendGiftInput{SenderID: "sender", ReceiverID: "creator", SubmissionID: "s1", GiftID: "tulip"},
			code: errutil.StatusNotFound,
		},
		{
			name: "inactive gift",
			in:   SendGiftInput{SenderID: "sender", ReceiverID: "creator", SubmissionID: "s1", GiftID: "crown"},
			code: errutil.StatusNotFound,
		},
		{
			name: "missing submission",
			in:   SendGiftInput{SenderID: "sender", ReceiverID: "creator", SubmissionID: "nope", GiftID: "rose"},
			code: errutil.StatusNotFound,
		},
		{
			name:    "receiver does not own submission",
			in:      SendGiftInput{SenderID: "sender", ReceiverID: "someone", SubmissionID: "s1", GiftID: "rose"},
			code:    errutil.StatusValidationFailed,
			message: "Invalid receiver",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.SendGift(context.Background(), tc.in)
			be := requireStatus(t, err, tc.code)
			if tc.message != "" {
				require.Equal(t, tc.message, be.Message)
			}
			require.Zero(t, f.count(t, &GiftTransaction{}))
			require.Zero(t, f.count(t, &ledger.CoinTransaction{}))
			require.Empty(t, f.cache.ids)
		})
	}
}

func TestSendGiftInsufficientBalanceRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&ledger.User{}).Where("id = ?", "sender").Update("coin_balance", 99).Error)

	_, err := f.svc.SendGift(context.Background(), SendGiftInput{
		SenderID: "sender", ReceiverID: "creator", SubmissionID: "s1", GiftID: "rose",
	})
	be := requireStatus(t, err, errutil.StatusValidationFailed)
	require.Equal(t, "Insufficient balance", be.Message)

	require.Equal(t, int64(99), f.user(t, "sender").CoinBalance)
	require.Zero(t, f.user(t, "creator").CoinBalance)
	require.Zero(t, f.count(t, &GiftTransaction{}))
	require.Zero(t, f.count(t, &notification.Notification{}))
}

func TestSendGiftMissingReceiverRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&submission.Submission{ID: "s2", UserID: "ghost", Status: submission.StatusApproved}).Error)

	_, err := f.svc.SendGift(context.Background(), SendGiftInput{
		SenderID: "sender", ReceiverID: "ghost", SubmissionID: "s2", GiftID: "rose",
	})
	requireStatus(t, err, errutil.StatusNotFound)

	require.Equal(t, int64(150), f.user(t, "sender").CoinBalance)
	require.Zero(t, f.count(t, &ledger.CoinTransaction{}))
}

// staleCatalog serves a fixed entry, as if the row predates the share constraint.
type staleCatalog struct {
	repository.Repository[GiftCatalogEntry]
	entry *GiftCatalogEntry
}

func (c staleCatalog) FindOne(context.Context, *GiftCatalogEntry, ...option.QueryOption) (*GiftCatalogEntry, error) {
	return c.entry, nil
}

func TestSendGiftRejectsShareAboveCost(t *testing.T) {
	f := newFixture(t)
	f.svc.catalog = staleCatalog{
		Repository: f.svc.catalog,
		entry:      &GiftCatalogEntry{ID: "rose", Name: "Rose", CoinCost: 10, CreatorCoinShare: 100, IsActive: true},
	}

	_, err := f.svc.SendGift(context.Background(), SendGiftInput{
		SenderID: "sender", ReceiverID: "creator", SubmissionID: "s1", GiftID: "rose",
	})
	be := requireStatus(t, err, errutil.StatusInternal)
	require.Equal(t, "Gift is misconfigured", be.Message)

	require.Equal(t, int64(150), f.user(t, "sender").CoinBalance)
	require.Zero(t, f.user(t, "creator").CoinBalance)
	require.Zero(t, f.count(t, &ledger.CoinTransaction{}))
	require.Zero(t, f.count(t, &GiftTransaction{}))
}

func TestCatalogShareConstraint(t *testing.T) {
	f := newFixture(t)

	err := f.db.Create(&GiftCatalogEntry{ID: "bad", Code: "bad", Name: "Bad", Category: "basic", CoinCost: 10, CreatorCoinShare: 100}).Error
	require.Error(t, err)
	err = f.db.Create(&GiftCatalogEntry{ID: "neg", Code: "neg", Name: "Neg", Category: "basic", CoinCost: 10, CreatorCoinShare: -1}).Error
	require.Error(t, err)
	require.Equal(t, int64(3), f.count(t, &GiftCatalogEntry{}))

	require.True(t, (&GiftCatalogEntry{CoinCost: 10, CreatorCoinShare: 10}).ValidShare())
	require.True(t, (&GiftCatalogEntry{CoinCost: 10}).ValidShare())
	require.False(t, (&GiftCatalogEntry{CoinCost: 10, CreatorCoinShare: 11}).ValidShare())
	require.False(t, (&GiftCatalogEntry{}).ValidShare())
}

func TestListGifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, giftID := range []string{"heart", "rose", "heart"} {
		f.svc.now = func() time.Time { return fixedNow.Add(time.Duration(i) * time.Minute) }
		_, err := f.svc.SendGift(ctx, SendGiftInput{
			SenderID: "sender", ReceiverID: "creator", SubmissionID: "s1", GiftID: giftID,
		})
		require.NoError(t, err)
	}

	received, err := f.svc.ListReceived(ctx, "creator", pagination.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), received.Total)
	require.True(t, received.HasMore)
	require.Len(t, received.Data, 2)
	require.Equal(t, "Heart", received.Data[0].GiftName)
	require.Equal(t, "Rose", received.Data[1].GiftName)

	sent, err := f.svc.ListSent(ctx, "sender", pagination.Pagination{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, sent.Data, 1)
	require.False(t, sent.HasMore)
	require.Equal(t, "Heart", sent.Data[0].GiftName)

	bySubmission, err := f.svc.ListSubmissionGifts(ctx, "s1", pagination.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(3), bySubmission.Total)
	require.Len(t, bySubmission.Data, 3)

	none, err := f.svc.ListSent(ctx, "creator", pagination.Pagination{})
	require.NoError(t, err)
	require.Empty(t, none.Data)
	require.Zero(t, none.Total)

	_, err = f.svc.ListSent(ctx, "", pagination.Pagination{})
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestListCatalog(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "heart", entries[0].ID)
	require.Equal(t, "rose", entries[1].ID)
}
