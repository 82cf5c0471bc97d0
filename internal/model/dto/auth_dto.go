package dto

import "time"

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Contact  string `json:"contact" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

type LoginRequest struct {
	Contact  string `json:"contact" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterSchoolRequest 学校账号注册，访问码同时充当账号标识和口令
type RegisterSchoolRequest struct {
	SchoolName  string `json:"school_name" binding:"required,max=200"`
	TeacherName string `json:"teacher_name" binding:"required,max=100"`
	AccessCode  string `json:"access_code" binding:"required,min=4,max=50"`
	Contact     string `json:"contact" binding:"max=100"`
}

type SchoolLoginRequest struct {
	Name       string `json:"name" binding:"max=100"`
	AccessCode string `json:"access_code" binding:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

type UserInfo struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	Plan                    string    `json:"plan"`
	Credits                 int       `json:"credits"`
	MonthlyFreeUsed         int       `json:"monthly_free_used"`
	MonthlyPremiumTrialUsed int       `json:"monthly_premium_trial_used"`
	LastResetDate           time.Time `json:"last_reset_date"`
	IsSchoolUser            bool      `json:"is_school_user"`
	SchoolName              string    `json:"school_name,omitempty"`
	SchoolStoriesUsed       int       `json:"school_stories_used,omitempty"`
	MaxStudents             int       `json:"max_students,omitempty"`
}
