package ledger

import (
	"time"
)

type TransactionType string

const (
	TypeReward            TransactionType = "reward"
	TypeGiftSent          TransactionType = "gift_sent"
	TypeGiftReceived      TransactionType = "gift_received"
	TypeBoostSpent        TransactionType = "boost_spent"
	TypeDailyLogin        TransactionType = "daily_login"
	TypePurchase          TransactionType = "purchase"
	TypeSubscriptionBonus TransactionType = "subscription_bonus"
	TypeRefund            TransactionType = "refund"
	TypeAdminAdjustment   TransactionType = "admin_adjustment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeReward, TypeGiftSent, TypeGiftReceived, TypeBoostSpent, TypeDailyLogin,
		TypePurchase, TypeSubscriptionBonus, TypeRefund, TypeAdminAdjustment:
		return true
	}
	return false
}

// User holds the balance columns of the account row. Other columns belong to
// the account subsystem and are never written here.
type User struct {
	ID               string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	CoinBalance      int64     `gorm:"column:coin_balance;not null;default:0" json:"coin_balance"`
	TotalCoinsEarned int64     `gorm:"column:total_coins_earned;not null;default:0" json:"total_coins_earned"`
	TotalCoinsSpent  int64     `gorm:"column:total_coins_spent;not null;default:0" json:"total_coins_spent"`
	SubscriptionTier string    `gorm:"column:subscription_tier;type:varchar(20);not null;default:free" json:"subscription_tier"`
	BonusSuperVotes  int64     `gorm:"column:bonus_super_votes;not null;default:0" json:"bonus_super_votes"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// CoinTransaction is append-only. BalanceAfter is the user's balance right
// after Amount was applied.
type CoinTransaction struct {
	ID           string          `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID       string          `gorm:"column:user_id;index:idx_coin_transactions_user_created,priority:1;not null" json:"user_id"`
	Type         TransactionType `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Amount       int64           `gorm:"column:amount;not null" json:"amount"`
	BalanceAfter int64           `gorm:"column:balance_after;not null" json:"balance_after"`
	ReferenceID  *string         `gorm:"column:reference_id;type:varchar(64)" json:"reference_id,omitempty"`
	Description  string          `gorm:"column:description;type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"column:created_at;index:idx_coin_transactions_user_created,priority:2" json:"created_at"`
}

func (CoinTransaction) TableName() string { return "coin_transactions" }

type Params struct {
	UserID      string
	Amount      int64
	Type        TransactionType
	ReferenceID string
	Description string
}

func (p Params) reference() *string {
	if p.ReferenceID == "" {
		return nil
	}
	ref := p.ReferenceID
	return &ref
}

type Balance struct {
	UserID           string `json:"user_id"`
	CoinBalance      int64  `json:"coin_balance"`
	TotalCoinsEarned int64  `json:"total_coins_earned"`
	TotalCoinsSpent  int64  `json:"total_coins_spent"`
	BonusSuperVotes  int64  `json:"bonus_super_votes"`
}

// ReplayReport is the outcome of replaying a user's history from zero.
type ReplayReport struct {
	UserID          string `json:"user_id"`
	Valid           bool   `json:"valid"`
	Entries         int    `json:"entries"`
	ReplayedBalance int64  `json:"replayed_balance"`
	CurrentBalance  int64  `json:"current_balance"`
	FirstMismatchID string `json:"first_mismatch_id,omitempty"`
}
