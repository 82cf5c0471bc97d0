package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type StoryRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

func (r *StoryRepository) Create(story *model.Story) error {
	return r.db.Create(story).Error
}

func (r *StoryRepository) GetByID(id int64) (*model.Story, error) {
	var story model.Story
	err := r.db.Where("id = ?", id).First(&story).Error
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// Update 整篇覆盖写回，章节 JSON 文档一起落库
func (r *StoryRepository) Update(story *model.Story) error {
	return r.db.Save(story).Error
}

// UpdateChapters 只更新章节文档，插画和旁白补齐时使用
func (r *StoryRepository) UpdateChapters(id int64, chapters model.ChapterList) error {
	return r.db.Model(&model.Story{}).Where("id = ?", id).
		Update("chapters", chapters).Error
}

func (r *StoryRepository) Delete(id int64) error {
	return r.db.Delete(&model.Story{}, id).Error
}

// ListByUserID 按归属列出故事。user_id 索引缺失时按无数据处理，
// 避免全表扫描把别人的故事混进来
func (r *StoryRepository) ListByUserID(userID int64, page, pageSize int, search string) ([]*model.Story, int64, error) {
	if !r.db.Migrator().HasIndex(&model.Story{}, "idx_stories_user_id") {
		return []*model.Story{}, 0, nil
	}

	var stories []*model.Story
	var total int64

	query := r.db.Model(&model.Story{}).Where("user_id = ?", userID)

	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&stories).Error; err != nil {
		return nil, 0, err
	}

	return stories, total, nil
}

func (r *StoryRepository) CountByUserID(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Story{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
