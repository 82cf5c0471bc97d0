package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type AvatarRepository struct {
	db *gorm.DB
}

func NewAvatarRepository(db *gorm.DB) *AvatarRepository {
	return &AvatarRepository{db: db}
}

func (r *AvatarRepository) Create(avatar *model.Avatar) error {
	return r.db.Create(avatar).Error
}

func (r *AvatarRepository) GetByID(id int64) (*model.Avatar, error) {
	var avatar model.Avatar
	err := r.db.Where("id = ?", id).First(&avatar).Error
	if err != nil {
		return nil, err
	}
	return &avatar, nil
}

// GetByIDs 批量取角色，结果顺序不保证
func (r *AvatarRepository) GetByIDs(ids []int64) ([]*model.Avatar, error) {
	var avatars []*model.Avatar
	if len(ids) == 0 {
		return avatars, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&avatars).Error
	return avatars, err
}

// ListByUserID 按归属列出角色。user_id 索引缺失时按无数据处理，
// 避免全表扫描把别人的角色混进来
func (r *AvatarRepository) ListByUserID(userID int64) ([]*model.Avatar, error) {
	if !r.db.Migrator().HasIndex(&model.Avatar{}, "idx_avatars_user_id") {
		return []*model.Avatar{}, nil
	}

	var avatars []*model.Avatar
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&avatars).Error
	return avatars, err
}

func (r *AvatarRepository) Delete(id int64) error {
	return r.db.Delete(&model.Avatar{}, id).Error
}

func (r *AvatarRepository) CountByUserID(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Avatar{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
