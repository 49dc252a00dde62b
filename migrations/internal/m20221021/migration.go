package m20221021

import (
	"time"

	"gorm.io/gorm"
)

const ID = "20221021"

type IdempotencyKey struct {
	Key        string    `gorm:"column:key;primaryKey;size:255"`
	ExpiryDate time.Time `gorm:"column:expiry_date;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

func Migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&IdempotencyKey{}); err != nil {
		return err
	}

	return nil
}

func Rollback(tx *gorm.DB) error {
	if err := tx.Migrator().DropTable(&IdempotencyKey{}); err != nil {
		return err
	}

	return nil
}
