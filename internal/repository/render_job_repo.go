package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type RenderJobRepository struct {
	db *gorm.DB
}

func NewRenderJobRepository(db *gorm.DB) *RenderJobRepository {
	return &RenderJobRepository{db: db}
}

func (r *RenderJobRepository) Create(job *model.RenderJob) error {
	return r.db.Create(job).Error
}

func (r *RenderJobRepository) GetByID(id int64) (*model.RenderJob, error) {
	var job model.RenderJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetLatestByStoryID 故事最近一次渲染任务
func (r *RenderJobRepository) GetLatestByStoryID(storyID int64) (*model.RenderJob, error) {
	var job model.RenderJob
	err := r.db.Where("story_id = ?", storyID).Order("created_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetActiveByStoryID 故事当前在途任务，没有则返回 ErrRecordNotFound
func (r *RenderJobRepository) GetActiveByStoryID(storyID int64) (*model.RenderJob, error) {
	var job model.RenderJob
	err := r.db.Where("story_id = ? AND status IN ?", storyID,
		[]string{model.RenderStatusQueued, model.RenderStatusSubmitted, model.RenderStatusRendering}).
		Order("created_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *RenderJobRepository) Update(job *model.RenderJob) error {
	return r.db.Save(job).Error
}

func (r *RenderJobRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(fields).Error
}

func (r *RenderJobRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Update("status", status).Error
}

// ExpireStale 把超过时限还没结束的任务标记为失败，维护任务使用
func (r *RenderJobRepository) ExpireStale(before time.Time) (int64, error) {
	result := r.db.Model(&model.RenderJob{}).
		Where("status IN ? AND created_at < ?",
			[]string{model.RenderStatusQueued, model.RenderStatusSubmitted, model.RenderStatusRendering}, before).
		Updates(map[string]interface{}{
			"status":        model.RenderStatusFailed,
			"error_message": "render timed out",
		})
	return result.RowsAffected, result.Error
}

func (r *RenderJobRepository) ListByUserID(userID int64, limit int) ([]*model.RenderJob, error) {
	var jobs []*model.RenderJob
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
