package submission

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusTranscoded Status = "transcoded"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// Submission is the content row owned by the content subsystem. This service
// reads status and ownership and writes only the two aggregate columns.
type Submission struct {
	ID                string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID            string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Status            Status         `gorm:"column:status;type:varchar(20);not null" json:"status"`
	BoostScore        float64        `gorm:"column:boost_score;type:decimal(6,2);not null;default:0" json:"boost_score"`
	GiftCoinsReceived int64          `gorm:"column:gift_coins_received;not null;default:0" json:"gift_coins_received"`
	CreatedAt         time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Submission) TableName() string { return "submissions" }

// Boostable reports whether the content finished processing and can be promoted.
func (s *Submission) Boostable() bool {
	return s.Status == StatusTranscoded || s.Status == StatusApproved
}
