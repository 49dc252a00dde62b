package m20221020

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ID = "20221020"

type SettingsValue struct {
	Namespace string         `gorm:"column:namespace;primaryKey;size:255"`
	Key       string         `gorm:"column:key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:value"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (SettingsValue) TableName() string {
	return "settings_values"
}

func Migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&SettingsValue{}); err != nil {
		return err
	}

	return nil
}

func Rollback(tx *gorm.DB) error {
	if err := tx.Migrator().DropTable(&SettingsValue{}); err != nil {
		return err
	}

	return nil
}
