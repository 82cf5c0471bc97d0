package dto

import "time"

type RenderJobView struct {
	ID          int64      `json:"id"`
	StoryID     int64      `json:"story_id"`
	Status      string     `json:"status"`
	VideoURL    string     `json:"video_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
