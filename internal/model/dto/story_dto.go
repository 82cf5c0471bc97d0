package dto

import "time"

type CreateStoryRequest struct {
	// 普通模式字段，教学版留空
	Theme        string  `json:"theme"`
	CharacterIDs []int64 `json:"character_ids"`

	// 教学版字段
	Educational     bool    `json:"educational"`
	EducationalGoal string  `json:"educational_goal"`
	TeacherID       int64   `json:"teacher_id"`
	StudentIDs      []int64 `json:"student_ids"`
}

type StoryListItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Theme         string    `json:"theme"`
	IsPremium     bool      `json:"is_premium"`
	IsEducational bool      `json:"is_educational"`
	ChapterCount  int       `json:"chapter_count"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ChapterView struct {
	Index        int    `json:"index"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	ImageURL     string `json:"image_url,omitempty"`
	HasNarration bool   `json:"has_narration"`
}

type StoryDetail struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Theme           string        `json:"theme"`
	IsPremium       bool          `json:"is_premium"`
	IsEducational   bool          `json:"is_educational"`
	EducationalGoal string        `json:"educational_goal,omitempty"`
	Chapters        []ChapterView `json:"chapters"`
	CharacterIDs    []int64       `json:"character_ids"`
	CreatedAt       time.Time     `json:"created_at"`
}

// IllustrateResponse 单章插画补齐结果
type IllustrateResponse struct {
	Index    int    `json:"index"`
	ImageURL string `json:"image_url"`
}

// NarrateResponse 单章旁白合成结果
type NarrateResponse struct {
	Index  int  `json:"index"`
	Cached bool `json:"cached"` // 已有音频时不重新合成
}
