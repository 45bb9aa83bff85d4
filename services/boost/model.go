package boost

import (
	"time"
)

const MaxBoostScore = 2.0

type Tier struct {
	Name          string  `json:"name"`
	Cost          int64   `json:"cost"`
	BoostValue    float64 `json:"boost_value"`
	DurationHours int     `json:"duration_hours"`
}

func (t Tier) Duration() time.Duration {
	return time.Duration(t.DurationHours) * time.Hour
}

const (
	TierSmall  = "small"
	TierMedium = "medium"
	TierLarge  = "large"
)

// Tiers is ordered from cheapest to most expensive.
var Tiers = []Tier{
	{Name: TierSmall, Cost: 50, BoostValue: 0.1, DurationHours: 12},
	{Name: TierMedium, Cost: 200, BoostValue: 0.3, DurationHours: 24},
	{Name: TierLarge, Cost: 500, BoostValue: 0.5, DurationHours: 48},
}

func LookupTier(name string) (Tier, bool) {
	for _, t := range Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

type SubmissionBoost struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;index;not null" json:"submission_id"`
	UserID       string    `gorm:"column:user_id;index;not null" json:"user_id"`
	Tier         string    `gorm:"column:tier;type:varchar(16);not null" json:"tier"`
	CoinAmount   int64     `gorm:"column:coin_amount;not null" json:"coin_amount"`
	BoostValue   float64   `gorm:"column:boost_value;type:decimal(4,2);not null" json:"boost_value"`
	StartedAt    time.Time `gorm:"column:started_at;not null" json:"started_at"`
	ExpiresAt    time.Time `gorm:"column:expires_at;index;not null" json:"expires_at"`
}

func (SubmissionBoost) TableName() string { return "submission_boosts" }

type TiersResult struct {
	Tiers          []Tier `json:"tiers"`
	FirstBoostFree bool   `json:"first_boost_free"`
}
