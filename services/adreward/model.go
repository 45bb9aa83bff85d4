package adreward

import (
	"strings"
	"time"
)

const (
	EventImpression    = "impression"
	EventClick         = "click"
	EventCompleted     = "completed"
	EventRewardGranted = "reward_granted"
)

type RewardType string

const (
	RewardSuperVote  RewardType = "super_vote"
	RewardBonusCoins RewardType = "bonus_coins"
)

const (
	FreshnessWindow = 5 * time.Minute

	SuperVoteAmount   = 1
	SuperVoteMaxDaily = 5

	BonusCoinsAmount   = 10
	BonusCoinsMaxDaily = 10

	rewardReference = "ad_reward"
)

type AdEvent struct {
	ID           string      `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID       *string     `gorm:"column:user_id;index:idx_ad_events_user_event,priority:1" json:"user_id,omitempty"`
	AdType       string      `gorm:"column:ad_type;type:varchar(32);not null" json:"ad_type"`
	Placement    string      `gorm:"column:placement;type:varchar(64);not null" json:"placement"`
	Network      string      `gorm:"column:network;type:varchar(32)" json:"network"`
	EventType    string      `gorm:"column:event_type;type:varchar(20);not null;index:idx_ad_events_user_event,priority:2" json:"event_type"`
	RewardType   *RewardType `gorm:"column:reward_type;type:varchar(20)" json:"reward_type,omitempty"`
	RewardAmount *int64      `gorm:"column:reward_amount" json:"reward_amount,omitempty"`
	CreatedAt    time.Time   `gorm:"column:created_at;index:idx_ad_events_user_event,priority:3" json:"created_at"`
}

func (AdEvent) TableName() string { return "ad_events" }

// Rule is the fixed grant for one reward type.
type Rule struct {
	Type     RewardType
	Amount   int64
	MaxDaily int64
}

var (
	superVoteRule  = Rule{Type: RewardSuperVote, Amount: SuperVoteAmount, MaxDaily: SuperVoteMaxDaily}
	bonusCoinsRule = Rule{Type: RewardBonusCoins, Amount: BonusCoinsAmount, MaxDaily: BonusCoinsMaxDaily}
)

// Classify maps a placement to its reward rule. Any placement mentioning
// super_vote grants a super vote; everything else grants bonus coins.
func Classify(placement string) Rule {
	if strings.Contains(placement, string(RewardSuperVote)) {
		return superVoteRule
	}
	return bonusCoinsRule
}

type ClaimResult struct {
	RewardType     RewardType `json:"reward_type"`
	RewardAmount   int64      `json:"reward_amount"`
	RemainingToday int64      `json:"remaining_today"`
}

type DailyStats struct {
	SuperVoteRewardsToday     int64 `json:"super_vote_rewards_today"`
	SuperVoteRewardsRemaining int64 `json:"super_vote_rewards_remaining"`
	BonusCoinRewardsToday     int64 `json:"bonus_coin_rewards_today"`
	BonusCoinRewardsRemaining int64 `json:"bonus_coin_rewards_remaining"`
	TotalAdsWatchedToday      int64 `json:"total_ads_watched_today"`
}

type EventInput struct {
	UserID    string `json:"-"`
	AdType    string `json:"ad_type" binding:"required"`
	Placement string `json:"placement" binding:"required"`
	Network   string `json:"network"`
	EventType string `json:"event_type" binding:"required"`
}

func remaining(max, used int64) int64 {
	if r := max - used; r > 0 {
		return r
	}
	return 0
}
