package notification

import (
	"time"

	"gorm.io/datatypes"
)

const TypeGiftReceived = "gift_received"

type Notification struct {
	ID        string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID    string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Type      string         `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Body      string         `gorm:"column:body;type:text" json:"body"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	IsRead    bool           `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type Input struct {
	UserID string
	Type   string
	Title  string
	Body   string
	Data   any
}
