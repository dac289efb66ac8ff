package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01082025_create_master_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.DefinedUser{}, &models.AssetMaster{},
					&models.AssetSchedule{}, &models.DefinedChecklistItem{})
			},
		},
		{
			ID: "01082025_create_inspection_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Inspection{}, &models.ChecklistResult{})
			},
		},
		{
			ID: "05082025_add_schedule_lookup_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_asset_schedules_asset_job ON asset_schedules(asset_number, job_card_code)").Error
			},
		},
	})
	// The legacy inspection_items table is intentionally NOT migrated here:
	// it only exists on old deployments and the submission pipeline falls back
	// to it when it is present.
	return m.Migrate()
}
