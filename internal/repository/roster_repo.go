package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type RosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// GetByUserID 取学校账号的名册，没有则返回空名册
func (r *RosterRepository) GetByUserID(userID int64) (*model.SchoolRoster, error) {
	var roster model.SchoolRoster
	err := r.db.Where("user_id = ?", userID).First(&roster).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SchoolRoster{UserID: userID, Members: model.RosterMembers{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if roster.Members == nil {
		roster.Members = model.RosterMembers{}
	}
	return &roster, nil
}

// Save 整份名册覆盖写回，首次分配时创建记录
func (r *RosterRepository) Save(roster *model.SchoolRoster) error {
	if roster.ID == 0 {
		var existing model.SchoolRoster
		err := r.db.Where("user_id = ?", roster.UserID).First(&existing).Error
		if err == nil {
			roster.ID = existing.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return r.db.Save(roster).Error
}
