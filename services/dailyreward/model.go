package dailyreward

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RewardAmount      = 3
	rewardDescription = "Daily login bonus"
)

// DailyLoginReward is unique per (user_id, reward_date); the index is what
// makes a claim happen at most once per day.
type DailyLoginReward struct {
	ID         string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID     string         `gorm:"column:user_id;not null;uniqueIndex:uq_daily_login_rewards_user_date,priority:1" json:"user_id"`
	RewardDate datatypes.Date `gorm:"column:reward_date;not null;uniqueIndex:uq_daily_login_rewards_user_date,priority:2" json:"reward_date"`
	CoinAmount int64          `gorm:"column:coin_amount;not null" json:"coin_amount"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (DailyLoginReward) TableName() string { return "daily_login_rewards" }

type ClaimResult struct {
	Claimed bool  `json:"claimed"`
	Amount  int64 `json:"amount"`
}

type Status struct {
	ClaimedToday bool  `json:"claimed_today"`
	Amount       int64 `json:"amount"`
}
