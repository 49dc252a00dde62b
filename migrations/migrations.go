package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/nothingonline/nightscouter-settings/migrations/internal/m20221020"
	"github.com/nothingonline/nightscouter-settings/migrations/internal/m20221021"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	ms := []*gormigrate.Migration{
		{
			ID:       m20221020.ID,
			Migrate:  m20221020.Migrate,
			Rollback: m20221020.Rollback,
		},
		{
			ID:       m20221021.ID,
			Migrate:  m20221021.Migrate,
			Rollback: m20221021.Rollback,
		},
	}
	return ms
}

// Run applies every pending migration to db.
func Run(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, List()).Migrate()
}
