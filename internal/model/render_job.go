package model

import (
	"time"
)

// 渲染任务状态机：queued → submitted → rendering → done / failed
const (
	RenderStatusQueued    = "queued"
	RenderStatusSubmitted = "submitted"
	RenderStatusRendering = "rendering"
	RenderStatusDone      = "done"
	RenderStatusFailed    = "failed"
)

type RenderJob struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	StoryID      int64      `gorm:"not null;index" json:"story_id"`
	UserID       int64      `gorm:"not null;index" json:"user_id"`
	ExternalID   string     `gorm:"size:100" json:"external_id,omitempty"` // 渲染服务返回的任务 ID
	Status       string     `gorm:"size:20;default:queued;index" json:"status"`
	VideoURL     string     `gorm:"size:500" json:"video_url,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	PollCount    int        `gorm:"default:0" json:"poll_count"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (RenderJob) TableName() string {
	return "render_jobs"
}

// IsTerminal 是否处于终止状态，终止后不再轮询
func (j *RenderJob) IsTerminal() bool {
	return j.Status == RenderStatusDone || j.Status == RenderStatusFailed
}

// IsActive 是否在途（同一故事同时只允许一个在途任务）
func (j *RenderJob) IsActive() bool {
	return !j.IsTerminal()
}
