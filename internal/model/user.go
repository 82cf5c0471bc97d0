package model

import (
	"time"
)

// 套餐等级
const (
	PlanFree       = "free"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

type User struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	Contact      *string `gorm:"size:100;uniqueIndex" json:"contact,omitempty"`
	PasswordHash *string `gorm:"size:255" json:"-"`
	Plan         string  `gorm:"size:20;default:free" json:"plan"`

	// 钱包余额（premium/enterprise 付费额度）
	Credits int `gorm:"default:0" json:"credits"`

	// 每月计数器，跨月后首次登录时清零
	MonthlyFreeUsed         int       `gorm:"default:0" json:"monthly_free_used"`
	MonthlyPremiumTrialUsed int       `gorm:"default:0" json:"monthly_premium_trial_used"`
	LastResetDate           time.Time `json:"last_reset_date"`

	// 学校账号字段
	IsSchoolUser      bool   `gorm:"default:false;index" json:"is_school_user"`
	SchoolName        string `gorm:"size:200" json:"school_name,omitempty"`
	SchoolStoriesUsed int    `gorm:"default:0" json:"school_stories_used"`
	MaxStudents       int    `gorm:"default:0" json:"max_students"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
