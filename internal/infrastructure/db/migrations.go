package db

import (
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&executionTaskModel{}); err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

func createCustomIndexes(db *gorm.DB) error {
	// MySQL has no partial indexes; there the single-active-task rule is
	// enforced by the create use case alone.
	if db.Dialector.Name() == "mysql" {
		return nil
	}

	// At most one non-failed task per service order
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_execution_task_active_service_order
		ON execution_task (service_order_id)
		WHERE status <> 'FAILED'
	`).Error; err != nil {
		return err
	}

	return nil
}
