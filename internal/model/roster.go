package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// 名册角色
const (
	RosterRoleTeacher = "teacher"
	RosterRoleStudent = "student"
)

// RosterMember 名册槽位分配，槽位重复分配时静默覆盖
type RosterMember struct {
	Slot     string `json:"slot"` // prof_1..prof_5, aluno_01..aluno_30
	AvatarID int64  `json:"avatar_id"`
	Role     string `json:"role"`
}

// RosterMembers 整个名册作为单文档存储，每个学校账号一份
type RosterMembers map[string]RosterMember

func (m RosterMembers) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *RosterMembers) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return errors.New("unsupported roster source type")
	}
}

type SchoolRoster struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	UserID    int64         `gorm:"not null;uniqueIndex" json:"user_id"`
	Members   RosterMembers `gorm:"type:text" json:"members"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (SchoolRoster) TableName() string {
	return "school_rosters"
}

// ValidSlot 校验槽位标识是否属于固定集合
func ValidSlot(slot string) bool {
	for i := 1; i <= 5; i++ {
		if slot == fmt.Sprintf("prof_%d", i) {
			return true
		}
	}
	for i := 1; i <= 30; i++ {
		if slot == fmt.Sprintf("aluno_%02d", i) {
			return true
		}
	}
	return false
}

// SlotRole 从槽位标识推导角色
func SlotRole(slot string) string {
	if len(slot) >= 4 && slot[:4] == "prof" {
		return RosterRoleTeacher
	}
	return RosterRoleStudent
}
