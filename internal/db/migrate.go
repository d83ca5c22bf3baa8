package db

import (
	"apollo/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.AddressLabel{},
		// Schema placeholder for the pre-promotion staging workflow; nothing
		// writes to it yet.
		&models.LabelCandidate{},
		&models.LabelRun{},
	)
}
