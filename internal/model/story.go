package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ChapterCount 单独生成的故事固定 4 章
const ChapterCount = 4

// Chapter 故事章节。插画和旁白在阅读器里按需补齐，整篇文档覆盖写回
type Chapter struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	VisualPrompt string `json:"visual_prompt"`        // 英文插画提示词
	ImageURL     string `json:"image_url,omitempty"`  // 懒生成
	AudioData    string `json:"audio_data,omitempty"` // base64 原始 PCM，生成后不再重算
}

// ChapterList 以 JSON 文档形式存储的章节序列，顺序在创建时固定
type ChapterList []Chapter

func (l ChapterList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *ChapterList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported chapter list source type")
	}
}

// Int64List 角色 ID 列表（引用 Avatar，不拥有）
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *Int64List) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported id list source type")
	}
}

type Story struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	UserID          int64       `gorm:"not null;index" json:"user_id"`
	Title           string      `gorm:"size:200;not null" json:"title"`
	Theme           string      `gorm:"size:500" json:"theme"`
	Chapters        ChapterList `gorm:"type:longtext" json:"chapters"`
	CharacterIDs    Int64List   `gorm:"type:text" json:"character_ids"`
	IsPremium       bool        `gorm:"default:false" json:"is_premium"` // 消耗的额度类型
	IsEducational   bool        `gorm:"default:false" json:"is_educational"`
	EducationalGoal string      `gorm:"size:500" json:"educational_goal,omitempty"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Story) TableName() string {
	return "stories"
}
