// Package gorm stores settings in sqlite, postgresql or mysql.
package gorm

import (
	"fmt"

	"github.com/nothingonline/nightscouter-settings/configs"
	"github.com/nothingonline/nightscouter-settings/migrations"
	"gorm.io/gorm"
)

// New opens the configured database and applies pending migrations.
func New(cfg *configs.Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, options())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseType, err)
	}

	if err := migrations.Run(db); err != nil {
		Close(db)
		return nil, fmt.Errorf("migrate %s database: %w", cfg.DatabaseType, err)
	}

	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		panic("unable to close database")
	}
	err = sqlDB.Close()
	if err != nil {
		panic("unable to close database")
	}
}

// transaction runs fn in a database transaction. On sqlite fn runs on the
// regular database instance.
func transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db.Config.Dialector.Name() == dbTypeSqlite {
		return fn(db)
	}
	return db.Transaction(fn)
}
