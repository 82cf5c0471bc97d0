package model

import (
	"time"
)

// Avatar 用户照片生成的风格化角色，创建后除删除外不再修改
type Avatar struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	Description string    `gorm:"type:text" json:"description"` // 视觉分析产出的外貌描述，后续插画提示词的素材
	CreatedAt   time.Time `json:"created_at"`
}

func (Avatar) TableName() string {
	return "avatars"
}
