package gift

import (
	"time"
)

type GiftCatalogEntry struct {
	ID               string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code             string    `gorm:"column:code;type:varchar(64);uniqueIndex;not null" json:"code"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Category         string    `gorm:"column:category;type:varchar(32);not null" json:"category"`
	IconURL          string    `gorm:"column:icon_url" json:"icon_url"`
	CoinCost         int64     `gorm:"column:coin_cost;not null;check:chk_gift_catalog_cost,coin_cost > 0" json:"coin_cost"`
	CreatorCoinShare int64     `gorm:"column:creator_coin_share;not null;check:chk_gift_catalog_share,creator_coin_share >= 0 AND creator_coin_share <= coin_cost" json:"creator_coin_share"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	SortOrder        int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (GiftCatalogEntry) TableName() string { return "gift_catalog" }

// ValidShare reports whether the entry pays out no more than it costs.
func (g *GiftCatalogEntry) ValidShare() bool {
	return g.CoinCost > 0 && g.CreatorCoinShare >= 0 && g.CreatorCoinShare <= g.CoinCost
}

// PlatformShare is the part of the cost that is not passed on to the creator.
func (g *GiftCatalogEntry) PlatformShare() int64 {
	return g.CoinCost - g.CreatorCoinShare
}

type GiftTransaction struct {
	ID            string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	SenderID      string    `gorm:"column:sender_id;index;not null" json:"sender_id"`
	ReceiverID    string    `gorm:"column:receiver_id;index;not null" json:"receiver_id"`
	SubmissionID  string    `gorm:"column:submission_id;index;not null" json:"submission_id"`
	GiftID        string    `gorm:"column:gift_id;not null" json:"gift_id"`
	CoinAmount    int64     `gorm:"column:coin_amount;not null" json:"coin_amount"`
	CreatorShare  int64     `gorm:"column:creator_share;not null" json:"creator_share"`
	PlatformShare int64     `gorm:"column:platform_share;not null" json:"platform_share"`
	Message       *string   `gorm:"column:message;type:text" json:"message,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (GiftTransaction) TableName() string { return "gift_transactions" }

// View is a gift transaction with the catalog entry's display fields.
type View struct {
	*GiftTransaction
	GiftName    string `json:"gift_name"`
	GiftIconURL string `json:"gift_icon_url"`
}

type SendGiftInput struct {
	SenderID     string
	ReceiverID   string
	SubmissionID string
	GiftID       string
	Message      *string
}
