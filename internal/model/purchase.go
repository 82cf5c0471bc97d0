package model

import (
	"time"
)

// Purchase 充值包购买记录，一条记录对应一次购买事件
// 同一个包买两次就加两次余额，属于预期行为
type Purchase struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	PackID    string    `gorm:"size:50;not null" json:"pack_id"`
	Plan      string    `gorm:"size:20;not null" json:"plan"`
	Credits   int       `json:"credits"`
	Amount    float64   `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}
