package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(purchase *model.Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *PurchaseRepository) ListByUserID(userID int64, limit int) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}

func (r *PurchaseRepository) CountByUserID(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Purchase{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
