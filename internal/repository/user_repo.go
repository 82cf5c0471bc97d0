package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByContact(contact string) (*model.User, error) {
	var user model.User
	err := r.db.Where("contact = ?", contact).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// IncrementMonthlyFree 免费额度计数 +1
func (r *UserRepository) IncrementMonthlyFree(id int64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("monthly_free_used", gorm.Expr("monthly_free_used + 1")).Error
}

// IncrementMonthlyTrial 高级体验计数 +1
func (r *UserRepository) IncrementMonthlyTrial(id int64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("monthly_premium_trial_used", gorm.Expr("monthly_premium_trial_used + 1")).Error
}

// DecrementCredits 扣减付费余额，余额为 0 时不再扣减
func (r *UserRepository) DecrementCredits(id int64) error {
	return r.db.Model(&model.User{}).Where("id = ? AND credits > 0", id).
		Update("credits", gorm.Expr("credits - 1")).Error
}

// AddCredits 充值包购买后加余额
func (r *UserRepository) AddCredits(id int64, delta int) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("credits", gorm.Expr("credits + ?", delta)).Error
}

// IncrementSchoolStories 学校账号故事包计数 +1
func (r *UserRepository) IncrementSchoolStories(id int64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("school_stories_used", gorm.Expr("school_stories_used + 1")).Error
}

// ResetMonthlyCounters 清零单个用户的月度计数器
func (r *UserRepository) ResetMonthlyCounters(id int64, resetAt time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"monthly_free_used":          0,
		"monthly_premium_trial_used": 0,
		"last_reset_date":            resetAt,
	}).Error
}

// ResetAllMonthlyCounters 月初批量清零，维护任务使用
func (r *UserRepository) ResetAllMonthlyCounters(resetAt time.Time) error {
	return r.db.Model(&model.User{}).Where("1 = 1").Updates(map[string]interface{}{
		"monthly_free_used":          0,
		"monthly_premium_trial_used": 0,
		"last_reset_date":            resetAt,
	}).Error
}

func (r *UserRepository) ExistsByContact(contact string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("contact = ?", contact).Count(&count).Error
	return count > 0, err
}
