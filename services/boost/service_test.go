package boost

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"virtual-economy/pkg/errutil"
	"virtual-economy/services/ledger"
	"virtual-economy/services/submission"
	"virtual-economy/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &ledger.User{}, &ledger.CoinTransaction{}, &submission.Submission{}, &SubmissionBoost{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:          db,
		Node:        node,
		Ledger:      ledger.NewService(ledger.ServiceParams{DB: db, Node: node}),
		Submissions: submission.NewService(submission.ServiceParams{DB: db}),
	})
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, db: db, node: node}
}

func (f *fixture) user(t *testing.T, id string, balance int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&ledger.User{ID: id, CoinBalance: balance}).Error)
}

func (f *fixture) submission(t *testing.T, id string, status submission.Status, score float64) {
	t.Helper()
	require.NoError(t, f.db.Create(&submission.Submission{ID: id, UserID: "creator", Status: status, BoostScore: score}).Error)
}

func (f *fixture) boost(t *testing.T, submissionID string, value float64, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&SubmissionBoost{
		ID:           f.node.Generate().String(),
		SubmissionID: submissionID,
		UserID:       "seed",
		Tier:         TierLarge,
		CoinAmount:   500,
		BoostValue:   value,
		StartedAt:    expiresAt.Add(-48 * time.Hour),
		ExpiresAt:    expiresAt,
	}).Error)
}

func (f *fixture) score(t *testing.T, id string) float64 {
	t.Helper()
	var sub submission.Submission
	require.NoError(t, f.db.Unscoped().First(&sub, "id = ?", id).Error)
	return sub.BoostScore
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	var u ledger.User
	require.NoError(t, f.db.First(&u, "id = ?", id).Error)
	return u.CoinBalance
}

func requireStatus(t *testing.T, err error, code errutil.CoreStatus) errutil.BaseError {
	t.Helper()
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
	return be
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 0.0, ClampScore())
	require.InDelta(t, 0.4, ClampScore(0.1, 0.3), 1e-9)
	require.Equal(t, MaxBoostScore, ClampScore(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5))
}

func TestFirstSmallBoostIsFree(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", 100)
	f.submission(t, "s1", submission.StatusApproved, 0)
	ctx := context.Background()

	first, err := f.svc.Purchase(ctx, "u1", "s1", TierSmall)
	require.NoError(t, err)
	require.Zero(t, first.CoinAmount)
	require.InDelta(t, 0.1, first.BoostValue, 1e-9)
	require.Equal(t, fixedNow.Add(12*time.Hour), first.ExpiresAt)
	require.Equal(t, int64(100), f.balance(t, "u1"))
	require.InDelta(t, 0.1, f.score(t, "s1"), 1e-9)

	var entries int64
	require.NoError(t, f.db.Model(&ledger.CoinTransaction{}).Count(&entries).Error)
	require.Zero(t, entries)

	second, err := f.svc.Purchase(ctx, "u1", "s1", TierSmall)
	require.NoError(t, err)
	require.Equal(t, int64(50), second.CoinAmount)
	require.Equal(t, int64(50), f.balance(t, "u1"))
	require.InDelta(t, 0.2, f.score(t, "s1"), 1e-9)

	var entry ledger.CoinTransaction
	require.NoError(t, f.db.First(&entry, "user_id = ?", "u1").Error)
	require.Equal(t, int64(-50), entry.Amount)
	require.Equal(t, ledger.TypeBoostSpent, entry.Type)
	require.NotNil(t, entry.ReferenceID)
	require.Equal(t, second.ID, *entry.ReferenceID)
}

func TestFirstNonSmallBoostIsCharged(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", 100)
	f.submission(t, "s1", submission.StatusTranscoded, 0)

	_, err := f.svc.Purchase(context.Background(), "u1", "s1", TierMedium)
	be := requireStatus(t, err, errutil.StatusValidationFailed)
	require.Equal(t, "Insufficient balance", be.Message)

	var boosts int64
	require.NoError(t, f.db.Model(&SubmissionBoost{}).Count(&boosts).Error)
	require.Zero(t, boosts)
	require.Equal(t, int64(100), f.balance(t, "u1"))
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", 1000)
	f.submission(t, "pending", submission.StatusPending, 0)
	f.submission(t, "deleted", submission.StatusApproved, 0)
	f.submission(t, "full", submission.StatusApproved, MaxBoostScore)
	require.NoError(t, f.db.Delete(&submission.Submission{ID: "deleted"}).Error)
	ctx := context.Background()

	_, err := f.svc.Purchase(ctx, "u1", "full", "huge")
	be := requireStatus(t, err, errutil.StatusValidationFailed)
	require.Equal(t, "Invalid boost tier", be.Message)

	for _, id := range []string{"missing", "pending", "deleted"} {
		_, err = f.svc.Purchase(ctx, "u1", id, TierSmall)
		requireStatus(t, err, errutil.StatusNotFound)
	}

	_, err = f.svc.Purchase(ctx, "u1", "full", TierLarge)
	be = requireStatus(t, err, errutil.StatusValidationFailed)
	require.Equal(t, "Boost limit reached", be.Message)

	require.Equal(t, int64(1000), f.balance(t, "u1"))
}

func TestRecalculateBoostScore(t *testing.T) {
	f := newFixture(t)
	f.submission(t, "s1", submission.StatusApproved, 0)
	f.submission(t, "s2", submission.StatusApproved, 1.5)
	for i := 0; i < 7; i++ {
		f.boost(t, "s1", 0.5, fixedNow.Add(time.Hour))
	}
	f.boost(t, "s2", 0.5, fixedNow.Add(-time.Hour))
	ctx := context.Background()

	score, err := f.svc.RecalculateBoostScore(ctx, f.db, "s1")
	require.NoError(t, err)
	require.Equal(t, 2.0, score)
	require.Equal(t, 2.0, f.score(t, "s1"))

	score, err = f.svc.RecalculateBoostScore(ctx, f.db, "s2")
	require.NoError(t, err)
	require.Equal(t, 0.0, score)
	require.Equal(t, 0.0, f.score(t, "s2"))
}

func TestGetTiersForUser(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", 0)
	f.submission(t, "s1", submission.StatusApproved, 0)
	ctx := context.Background()

	anon, err := f.svc.GetTiersForUser(ctx, "")
	require.NoError(t, err)
	require.True(t, anon.FirstBoostFree)
	require.Len(t, anon.Tiers, 3)

	fresh, err := f.svc.GetTiersForUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, fresh.FirstBoostFree)

	_, err = f.svc.Purchase(ctx, "u1", "s1", TierSmall)
	require.NoError(t, err)

	after, err := f.svc.GetTiersForUser(ctx, "u1")
	require.NoError(t, err)
	require.False(t, after.FirstBoostFree)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	f.submission(t, "s1", submission.StatusApproved, 0.8)
	f.submission(t, "s2", submission.StatusApproved, 0.1)
	f.submission(t, "s3", submission.StatusApproved, 0.3)
	f.boost(t, "s1", 0.5, fixedNow.Add(-time.Hour))
	f.boost(t, "s1", 0.1, fixedNow)
	f.boost(t, "s1", 0.3, fixedNow.Add(time.Hour))
	f.boost(t, "s2", 0.1, fixedNow.Add(-2*time.Hour))
	f.boost(t, "s3", 0.3, fixedNow.Add(time.Hour))

	deleted, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	require.InDelta(t, 0.3, f.score(t, "s1"), 1e-9)
	require.Equal(t, 0.0, f.score(t, "s2"))
	require.InDelta(t, 0.3, f.score(t, "s3"), 1e-9)

	var left int64
	require.NoError(t, f.db.Model(&SubmissionBoost{}).Count(&left).Error)
	require.Equal(t, int64(2), left)

	again, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, again)
}
