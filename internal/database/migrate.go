package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

// schemaVersion 当前模式版本，只升不降
const schemaVersion = 3

type schemaMigration struct {
	Version int `gorm:"primaryKey"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// migration 单个升级步骤。步骤只补缺（建表/建索引），不删已有数据
type migration struct {
	version int
	apply   func(db *gorm.DB) error
}

var migrations = []migration{
	{
		version: 1,
		apply: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&model.User{},
				&model.Avatar{},
				&model.Story{},
			)
		},
	},
	{
		version: 2,
		apply: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&model.SchoolRoster{},
				&model.Purchase{},
			)
		},
	},
	{
		version: 3,
		apply: func(db *gorm.DB) error {
			return db.AutoMigrate(&model.RenderJob{})
		},
	},
}

// Migrate 按版本号执行缺失的升级步骤
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	current := currentVersion(db)

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		log.Printf("Applying schema migration v%d", m.version)
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}
		if err := db.Create(&schemaMigration{Version: m.version}).Error; err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
	}

	return nil
}

func currentVersion(db *gorm.DB) int {
	var rec schemaMigration
	err := db.Order("version DESC").First(&rec).Error
	if err != nil {
		return 0
	}
	return rec.Version
}
