package dto

import "time"

// CreateAvatarRequest 随 multipart 照片一起提交的表单字段
type CreateAvatarRequest struct {
	Name string `form:"name" binding:"required,min=1,max=100"`
}

type AvatarView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
